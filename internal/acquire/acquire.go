// Package acquire runs the per-item acquisition attempt: skip check,
// download with bounded retries, credential renewal on authentication
// failures, transcode, and cleanup.
package acquire

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"weir/internal/config"
	"weir/internal/cookiejar"
	"weir/internal/fileutil"
	"weir/internal/logging"
	"weir/internal/resolver"
	"weir/internal/services"
	"weir/internal/source"
	"weir/internal/textutil"
	"weir/internal/transcode"
	"weir/internal/ytdlp"
)

// cooldownWait is swapped in tests to avoid real renewal cooldowns.
var cooldownWait = func(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Downloader fetches a single media payload.
type Downloader interface {
	Download(ctx context.Context, url string, outputTemplate string, opts ytdlp.Options) error
}

// Renewer refreshes the cookie jar for a source profile.
type Renewer interface {
	Renew(ctx context.Context, profile source.Profile) (cookiejar.Result, error)
}

// Transcoder converts a raw artifact into the target audio format.
type Transcoder interface {
	Transcode(ctx context.Context, req transcode.Request) (transcode.Result, error)
}

// Outcome reports one finished item.
type Outcome struct {
	// Skipped is set when every requested artifact already existed.
	Skipped bool
	// Attempts is the number of download attempts consumed.
	Attempts int
	// Renewals is the number of credential renewals triggered.
	Renewals int
	// VideoFile is the retained video artifact, if any.
	VideoFile string
	// AudioFile is the transcoded audio artifact, if any.
	AudioFile string
}

// Worker processes one media item at a time.
type Worker struct {
	downloader Downloader
	renewer    Renewer
	transcoder Transcoder
	cfg        *config.Config
	profile    source.Profile
	logger     *slog.Logger
}

// NewWorker wires an acquisition worker for one source profile.
func NewWorker(downloader Downloader, renewer Renewer, transcoder Transcoder, cfg *config.Config, profile source.Profile, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		downloader: downloader,
		renewer:    renewer,
		transcoder: transcoder,
		cfg:        cfg,
		profile:    profile,
		logger:     logger,
	}
}

func (w *Worker) paths(item resolver.MediaItem) (base, video, audio string) {
	name := textutil.SanitizeFileName(item.Title)
	base = filepath.Join(w.cfg.Paths.OutputDir, name)
	video = base + ".mp4"
	audio = base + transcode.FormatExtension(w.cfg.Download.Format)
	return base, video, audio
}

// Process runs the full acquisition for one item. Item-level failures are
// returned to the caller and never affect sibling items.
func (w *Worker) Process(ctx context.Context, item resolver.MediaItem) (Outcome, error) {
	base, videoPath, audioPath := w.paths(item)
	mode := w.cfg.Download.Mode

	if outcome, done, err := w.checkExisting(ctx, item, videoPath, audioPath); done {
		return outcome, err
	}

	outcome, err := w.download(ctx, item, base)
	if err != nil {
		return outcome, err
	}

	if _, statErr := os.Stat(videoPath); statErr != nil {
		return outcome, services.Wrap(services.ErrExternalTool, "download", "verify",
			"downloader reported success but no video artifact exists", statErr)
	}
	outcome.VideoFile = videoPath

	if mode == config.ModeAudio || mode == config.ModeBoth {
		audioFile, err := w.extractAudio(ctx, item, videoPath, audioPath)
		if err != nil {
			return outcome, err
		}
		outcome.AudioFile = audioFile
	}

	w.cleanup(videoPath, mode)
	if mode == config.ModeAudio {
		outcome.VideoFile = ""
	}
	return outcome, nil
}

// checkExisting implements the idempotence rule: a second run against the
// same output directory downloads nothing. In "both" mode an existing video
// with missing audio is backfilled locally without touching the network; a
// failed backfill fails the item, the video stays on disk.
func (w *Worker) checkExisting(ctx context.Context, item resolver.MediaItem, videoPath, audioPath string) (Outcome, bool, error) {
	audioExists := fileutil.Exists(audioPath)
	videoExists := fileutil.Exists(videoPath)
	mode := w.cfg.Download.Mode

	switch mode {
	case config.ModeAudio:
		if audioExists {
			w.logger.Info("audio already exists, skipping", logging.String("output", audioPath))
			return Outcome{Skipped: true, AudioFile: audioPath}, true, nil
		}
	case config.ModeVideo:
		if videoExists {
			w.logger.Info("video already exists, skipping", logging.String("output", videoPath))
			return Outcome{Skipped: true, VideoFile: videoPath}, true, nil
		}
	case config.ModeBoth:
		if videoExists {
			w.logger.Info("video already exists", logging.String("output", videoPath))
			if audioExists {
				return Outcome{Skipped: true, VideoFile: videoPath, AudioFile: audioPath}, true, nil
			}
			audioFile, err := w.extractAudio(ctx, item, videoPath, audioPath)
			if err != nil {
				w.logger.Error("audio backfill failed", logging.Error(err))
				return Outcome{VideoFile: videoPath}, true, err
			}
			return Outcome{Skipped: true, VideoFile: videoPath, AudioFile: audioFile}, true, nil
		}
	}
	return Outcome{}, false, nil
}

// download runs the bounded retry loop. Authentication failures trigger a
// credential renewal and retry; any other failure aborts the item without
// burning the remaining attempts.
func (w *Worker) download(ctx context.Context, item resolver.MediaItem, base string) (Outcome, error) {
	outcome := Outcome{}
	opts := ytdlp.Options{
		JarPath:   w.cfg.CookieJarPath(w.profile.Name),
		UserAgent: w.profile.UserAgent,
	}
	template := base + ".%(ext)s"

	var lastErr error
	for attempt := 1; attempt <= w.cfg.Download.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		outcome.Attempts = attempt
		err := w.downloader.Download(ctx, item.SourceURL, template, opts)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if !w.profile.IsAuthError(err.Error()) {
			w.logger.Error("download failed", logging.Error(err))
			return outcome, services.Wrap(services.ErrExternalTool, "download", "fetch", "download failed", err)
		}

		w.logger.Warn("authentication failure detected",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", w.cfg.Download.MaxRetries),
			logging.Error(err))

		if !w.cfg.Cookies.AutoRenew {
			w.logger.Warn("automatic cookie renewal disabled, aborting item")
			return outcome, services.Wrap(services.ErrAuth, "download", "fetch", "authentication failed and renewal is disabled", err)
		}
		if attempt == w.cfg.Download.MaxRetries {
			break
		}

		result, renewErr := w.renewer.Renew(ctx, w.profile)
		if renewErr != nil {
			w.logger.Error("cookie renewal failed", logging.Error(renewErr))
			return outcome, services.Wrap(services.ErrAuth, "download", "renew", "credential renewal failed", renewErr)
		}
		outcome.Renewals++
		w.logger.Info("cookies renewed, cooling down",
			logging.String("browser", result.Source),
			logging.Duration("cooldown", w.cooldown()))
		cooldownWait(ctx, w.cooldown())
	}

	return outcome, services.Wrap(services.ErrAuth, "download", "fetch", "retries exhausted", lastErr)
}

func (w *Worker) cooldown() time.Duration {
	if override := w.cfg.Cookies.RenewCooldownSeconds; override > 0 {
		return time.Duration(override) * time.Second
	}
	return w.profile.RenewCooldown
}

func (w *Worker) extractAudio(ctx context.Context, item resolver.MediaItem, videoPath, audioPath string) (string, error) {
	album := w.cfg.Download.Album
	if album == "" {
		album = w.profile.AlbumArtist()
	}
	cover := transcode.FindCover(videoPath)

	result, err := w.transcoder.Transcode(ctx, transcode.Request{
		Input:              videoPath,
		Output:             audioPath,
		CoverFile:          cover,
		Target:             w.cfg.Download.Format,
		KeepCover:          true,
		FallbackSampleRate: w.profile.FallbackSampleRate,
		Metadata: transcode.Metadata{
			Title:       item.Title,
			Artist:      item.Uploader,
			Album:       album,
			AlbumArtist: w.profile.AlbumArtist(),
		},
	})
	if err != nil {
		return "", err
	}

	if cover != "" && !w.cfg.Download.KeepCover {
		fileutil.RemoveQuietly(cover)
	}
	return result.Output, nil
}

// cleanup discards intermediates best-effort: failures are invisible.
func (w *Worker) cleanup(videoPath string, mode string) {
	if mode == config.ModeAudio {
		fileutil.RemoveQuietly(videoPath)
	}
	if !w.cfg.Download.KeepCover {
		if cover := transcode.FindCover(videoPath); cover != "" {
			fileutil.RemoveQuietly(cover)
		}
	}
}
