package config

// Download mode values.
const (
	ModeAudio = "audio"
	ModeVideo = "video"
	ModeBoth  = "both"
)

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: "~/Music/weir",
			LogDir:    "~/.local/share/weir/logs",
			CookieDir: "~/.local/share/weir/cookies",
		},
		Download: Download{
			Mode:       ModeAudio,
			Format:     "",
			Album:      "",
			KeepCover:  false,
			MaxRetries: 3,
		},
		Cookies: Cookies{
			AutoRenew:        true,
			Sources:          []string{"chrome", "edge", "firefox"},
			ExtractorCommand: "weir-cookie-extract",
		},
		Tools: Tools{
			YtDlp:        "yt-dlp",
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			NCMDecryptor: "ncmdump",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
