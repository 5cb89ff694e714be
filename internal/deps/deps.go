// Package deps verifies the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"weir/internal/config"
)

// Requirement defines an external dependency weir relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the dependency list for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.Tools.YtDlp, Description: "Resolves and downloads catalog media"},
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Transcodes audio and embeds cover art"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Probes stream sample rates"},
		{Name: "NCM decryptor", Command: cfg.Tools.NCMDecryptor, Description: "Decrypts .ncm files", Optional: true},
		{Name: "Cookie extractor", Command: cfg.Cookies.ExtractorCommand, Description: "Extracts browser cookies for renewal", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Check runs CheckBinaries over the configured requirements and returns an
// error when a required dependency is missing.
func Check(cfg *config.Config) ([]Status, error) {
	statuses := CheckBinaries(Requirements(cfg))
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) > 0 {
		return statuses, fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
	}
	return statuses, nil
}
