package cookiejar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor pulls session cookies for a set of domains out of a browser
// profile. Implementations are tried in order by Service.Renew.
type Extractor interface {
	Extract(ctx context.Context, browser string, domains []string) ([]Record, error)
}

// CommandExtractor shells out to an external extraction binary. The binary is
// invoked as `<command> <browser> <domain>...` and must print a JSON array of
// cookie records on stdout.
type CommandExtractor struct {
	Command string
}

// Extract runs the external command for the given browser.
func (e CommandExtractor) Extract(ctx context.Context, browser string, domains []string) ([]Record, error) {
	command := strings.TrimSpace(e.Command)
	if command == "" {
		return nil, fmt.Errorf("cookie extractor command not configured")
	}
	args := append([]string{browser}, domains...)
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("extract cookies from %s: %w: %s", browser, err, detail)
	}

	var records []Record
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("parse cookie records from %s: %w", browser, err)
	}
	return records, nil
}
