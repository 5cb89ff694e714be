package config

import (
	"fmt"
	"strings"
)

var validModes = map[string]bool{
	ModeAudio: true,
	ModeVideo: true,
	ModeBoth:  true,
}

var validFormats = map[string]bool{
	"":     true,
	"alac": true,
	"aac":  true,
	"flac": true,
	"mp3":  true,
	"wav":  true,
	"ogg":  true,
}

var validSources = map[string]bool{
	"chrome":  true,
	"edge":    true,
	"firefox": true,
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		issues = append(issues, "paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CookieDir) == "" {
		issues = append(issues, "paths.cookie_dir must be set")
	}
	if !validModes[c.Download.Mode] {
		issues = append(issues, fmt.Sprintf("download.mode %q must be one of audio, video, both", c.Download.Mode))
	}
	if !validFormats[c.Download.Format] {
		issues = append(issues, fmt.Sprintf("download.format %q must be one of alac, aac, flac, mp3, wav, ogg or empty", c.Download.Format))
	}
	if c.Download.MaxRetries < 1 {
		issues = append(issues, "download.max_retries must be at least 1")
	}
	if len(c.Cookies.Sources) == 0 {
		issues = append(issues, "cookies.sources must list at least one browser")
	}
	for _, source := range c.Cookies.Sources {
		if !validSources[source] {
			issues = append(issues, fmt.Sprintf("cookies.sources entry %q must be one of chrome, edge, firefox", source))
		}
	}
	if c.Cookies.RenewCooldownSeconds < 0 {
		issues = append(issues, "cookies.renew_cooldown_seconds must not be negative")
	}
	if strings.TrimSpace(c.Tools.YtDlp) == "" {
		issues = append(issues, "tools.yt_dlp must be set")
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		issues = append(issues, "tools.ffmpeg must be set")
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		issues = append(issues, "tools.ffprobe must be set")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}

	if len(issues) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}
	return nil
}
