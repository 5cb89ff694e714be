package cookiejar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"weir/internal/logging"
	"weir/internal/services"
	"weir/internal/source"
)

// Result reports a completed renewal.
type Result struct {
	// Source is the browser that yielded the cookies.
	Source string
	// Count is the number of cookies written to the jar.
	Count int
	// JarPath is the file the jar was written to.
	JarPath string
}

// Service renews the cookie jar for a source profile by trying each
// configured browser in order until one yields cookies.
type Service struct {
	extractor Extractor
	browsers  []string
	jarPath   func(profile string) string
	logger    *slog.Logger
}

// NewService builds a renewal service. jarPath maps a profile name to its
// jar file location.
func NewService(extractor Extractor, browsers []string, jarPath func(string) string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		extractor: extractor,
		browsers:  browsers,
		jarPath:   jarPath,
		logger:    logger,
	}
}

// Renew walks the browser fallback chain for the profile and rewrites its
// jar with the first non-empty extraction. Browsers that fail or yield
// nothing are logged and skipped; the error is returned only when every
// browser has been exhausted.
func (s *Service) Renew(ctx context.Context, profile source.Profile) (Result, error) {
	if len(s.browsers) == 0 {
		return Result{}, services.Wrap(services.ErrAuth, "renew", "cookies", "no browsers configured", nil)
	}

	var failures []string
	for _, browser := range s.browsers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s.logger.Info("extracting cookies",
			logging.String("browser", browser),
			logging.String("source", profile.Name))
		records, err := s.extractor.Extract(ctx, browser, profile.CookieDomains)
		if err != nil {
			s.logger.Warn("cookie extraction failed",
				logging.String("browser", browser),
				logging.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", browser, err))
			continue
		}
		if len(records) == 0 {
			s.logger.Warn("no cookies found",
				logging.String("browser", browser),
				logging.String("source", profile.Name))
			failures = append(failures, browser+": no cookies found")
			continue
		}

		path := s.jarPath(profile.Name)
		provenance := displayBrowser(browser)
		if err := WriteJar(path, records, provenance); err != nil {
			return Result{}, services.Wrap(services.ErrAuth, "renew", "write-jar", "persist cookie jar", err)
		}
		s.logger.Info("cookie jar renewed",
			logging.String("browser", provenance),
			logging.Int("cookies", len(records)),
			logging.String("jar", path))
		return Result{Source: provenance, Count: len(records), JarPath: path}, nil
	}

	return Result{}, services.Wrap(services.ErrAuth, "renew", "cookies",
		"all browsers failed: "+strings.Join(failures, "; "), errors.New("renewal exhausted"))
}

func displayBrowser(browser string) string {
	switch strings.ToLower(browser) {
	case "chrome":
		return "Chrome"
	case "edge":
		return "Edge"
	case "firefox":
		return "Firefox"
	default:
		return browser
	}
}
