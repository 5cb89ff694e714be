// Package services holds the error taxonomy and context annotations shared by
// pipeline stages.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResolution marks locator resolution failures; these are fatal to the
	// whole run, never to a single item.
	ErrResolution = errors.New("resolution error")
	// ErrAuth marks authentication-class download failures eligible for
	// cookie renewal and retry.
	ErrAuth = errors.New("authentication error")
	// ErrTranscode marks post-download conversion failures; the raw artifact
	// is retained for a later attempt.
	ErrTranscode = errors.New("transcode error")
	// ErrProbe marks advisory media-inspection failures; callers fall back to
	// defaults rather than aborting.
	ErrProbe = errors.New("probe error")
	// ErrExternalTool marks failures of external binaries outside the auth
	// taxonomy.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks wiring mistakes surfaced at stage boundaries.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
