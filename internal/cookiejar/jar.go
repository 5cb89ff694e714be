// Package cookiejar persists browser session cookies in the Netscape
// cookie file format consumed by the downloader, and renews them from a
// local browser when a download hits an authentication failure.
package cookiejar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is a single session cookie destined for the jar.
type Record struct {
	Domain     string `json:"domain"`
	Path       string `json:"path"`
	Secure     bool   `json:"secure"`
	Expiration int64  `json:"expires"`
	Name       string `json:"name"`
	Value      string `json:"value"`
}

// WriteJar rewrites the jar file at path with the given records. The file is
// truncated first: a renewal replaces the previous session wholesale so
// cookies from different browsers never mix. The provenance string names the
// browser the records came from.
func WriteJar(path string, records []Record, provenance string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create jar directory: %w", err)
		}
	}

	var builder strings.Builder
	builder.WriteString("# Netscape HTTP Cookie File\n")
	fmt.Fprintf(&builder, "# Generated at %s from %s\n\n", time.Now().UTC().Format(time.RFC3339), provenance)
	for _, record := range records {
		builder.WriteString(FormatLine(record))
		builder.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(builder.String()), 0o600); err != nil {
		return fmt.Errorf("write jar: %w", err)
	}
	return nil
}

// FormatLine renders one record as a Netscape cookie line: seven
// tab-separated fields. The domain flag is TRUE iff the domain starts with a
// dot, and a missing expiration is written as 0.
func FormatLine(record Record) string {
	path := record.Path
	if path == "" {
		path = "/"
	}
	flag := "FALSE"
	if strings.HasPrefix(record.Domain, ".") {
		flag = "TRUE"
	}
	secure := "FALSE"
	if record.Secure {
		secure = "TRUE"
	}
	expiration := record.Expiration
	if expiration < 0 {
		expiration = 0
	}
	return strings.Join([]string{
		record.Domain,
		flag,
		path,
		secure,
		fmt.Sprintf("%d", expiration),
		record.Name,
		record.Value,
	}, "\t")
}
