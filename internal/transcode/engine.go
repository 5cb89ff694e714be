package transcode

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"weir/internal/logging"
	"weir/internal/media/ffprobe"
	"weir/internal/services"
)

// probeMedia is swapped in tests to avoid invoking a real ffprobe.
var probeMedia = ffprobe.Inspect

// Metadata is written into the output container.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
}

// Request describes one transcode job.
type Request struct {
	// Input is the raw media file.
	Input string
	// Output is the destination path, extension included.
	Output string
	// CoverFile is an optional standalone cover image mapped as an
	// attached picture.
	CoverFile string
	// MapSourceCover maps a cover stream already embedded in the input
	// instead of a standalone image.
	MapSourceCover bool
	// Target is the requested format; empty picks by sample rate.
	Target string
	// KeepCover requests cover-art embedding.
	KeepCover bool
	// FallbackSampleRate is assumed when probing fails.
	FallbackSampleRate int
	Metadata           Metadata
}

// Result reports a finished transcode.
type Result struct {
	Output     string
	Decision   Decision
	SampleRate int
	// Skipped is set when the output already existed.
	Skipped bool
}

// Engine drives ffmpeg.
type Engine struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
}

// NewEngine builds a transcode engine around the configured binaries.
func NewEngine(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary, logger: logger}
}

// SampleRate probes the input's audio sample rate, falling back silently
// when the probe fails or reports nothing.
func (e *Engine) SampleRate(ctx context.Context, path string, fallback int) int {
	result, err := probeMedia(ctx, e.ffprobeBinary, path)
	if err != nil {
		e.logger.Debug("sample rate probe failed",
			logging.String("input", path),
			logging.Int("fallback", fallback),
			logging.Error(err))
		return fallback
	}
	if rate := result.AudioSampleRate(); rate > 0 {
		return rate
	}
	return fallback
}

// Transcode runs one job. An existing output short-circuits the call and is
// reported as skipped. A dropped cover emits a warning event.
func (e *Engine) Transcode(ctx context.Context, req Request) (Result, error) {
	if _, err := os.Stat(req.Output); err == nil {
		e.logger.Info("output already exists", logging.String("output", req.Output))
		return Result{Output: req.Output, Skipped: true}, nil
	}

	sampleRate := e.SampleRate(ctx, req.Input, req.FallbackSampleRate)
	decision, err := Decide(req.Target, sampleRate, req.KeepCover)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "transcode", "decide", "resolve target format", err)
	}
	if decision.CoverDropped {
		e.logger.Warn("cover art not supported by target container, dropping",
			logging.String("format", decision.Format),
			logging.String("output", req.Output))
	}

	if dir := filepath.Dir(req.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, services.Wrap(services.ErrTranscode, "transcode", "prepare", "create output directory", err)
		}
	}

	args := buildArgs(req, decision)
	e.logger.Info("transcoding",
		logging.String("input", req.Input),
		logging.String("format", decision.Format),
		logging.Int("sample_rate", sampleRate))

	cmd := exec.CommandContext(ctx, e.ffmpegBinary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		return Result{}, services.Wrap(services.ErrTranscode, "transcode", "ffmpeg", detail, err)
	}
	return Result{Output: req.Output, Decision: decision, SampleRate: sampleRate}, nil
}

func buildArgs(req Request, decision Decision) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", req.Input}

	embedStandalone := decision.EmbedCover && req.CoverFile != ""
	if embedStandalone {
		args = append(args, "-i", req.CoverFile)
	}
	args = append(args, "-map", "0:a")
	switch {
	case embedStandalone:
		args = append(args, "-map", "1", "-c:v:0", "mjpeg", "-disposition:v:0", "attached_pic")
	case decision.EmbedCover && req.MapSourceCover:
		args = append(args, "-map", "0:v?", "-c:v", "mjpeg", "-disposition:v:0", "attached_pic")
	default:
		args = append(args, "-vn")
	}

	args = append(args, decision.CodecArgs...)

	meta := req.Metadata
	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Artist != "" {
		args = append(args, "-metadata", "artist="+meta.Artist)
	}
	if meta.Album != "" {
		args = append(args, "-metadata", "album="+meta.Album)
	}
	if meta.AlbumArtist != "" {
		args = append(args, "-metadata", "album_artist="+meta.AlbumArtist)
	}

	return append(args, req.Output)
}

// FindCover looks for a cover image next to the media file, matching the
// thumbnail extensions the downloader writes.
func FindCover(mediaPath string) string {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	for _, ext := range []string{".jpg", ".png", ".webp"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
