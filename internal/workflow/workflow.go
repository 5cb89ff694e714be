// Package workflow orchestrates one acquisition run: credential renewal,
// locator resolution, sequential item processing, and the ordered event
// stream reported back to the caller.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"weir/internal/acquire"
	"weir/internal/config"
	"weir/internal/cookiejar"
	"weir/internal/logging"
	"weir/internal/ncm"
	"weir/internal/queue"
	"weir/internal/resolver"
	"weir/internal/services"
	"weir/internal/source"
	"weir/internal/ytdlp"
)

// LocatorResolver expands a locator into media items.
type LocatorResolver interface {
	Resolve(ctx context.Context, locator string, profile source.Profile, opts ytdlp.Options) (resolver.Resolution, error)
}

// ItemProcessor runs one acquisition attempt.
type ItemProcessor interface {
	Process(ctx context.Context, item resolver.MediaItem) (acquire.Outcome, error)
}

// Renewer refreshes credentials for a profile.
type Renewer interface {
	Renew(ctx context.Context, profile source.Profile) (cookiejar.Result, error)
}

// NCMProcessor decrypts one local .ncm file.
type NCMProcessor interface {
	Process(ctx context.Context, path string) (ncm.Result, error)
}

// WorkerFactory builds the processor for a detected profile. It exists so a
// run against a different source gets a worker with that source's
// capabilities.
type WorkerFactory func(profile source.Profile) ItemProcessor

// Report summarizes a finished run.
type Report struct {
	RunID     string
	Source    string
	Resolved  int
	RawCount  int
	Completed int
	Skipped   int
	Failed    int
}

// Manager drives complete runs.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	resolver  LocatorResolver
	renewer   Renewer
	workers   WorkerFactory
	ncmWorker NCMProcessor
	hub       *logging.EventHub
	logger    *slog.Logger
	lock      *flock.Flock
}

// NewManager wires a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, res LocatorResolver, renewer Renewer, workers WorkerFactory, ncmWorker NCMProcessor, hub *logging.EventHub, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		resolver:  res,
		renewer:   renewer,
		workers:   workers,
		ncmWorker: ncmWorker,
		hub:       hub,
		logger:    logger,
		lock:      flock.New(filepath.Join(cfg.Paths.CookieDir, ".weir.lock")),
	}
}

// Run executes one locator end to end. Item failures are isolated; the run
// itself fails only on resolution errors or when another run already holds
// the credential lock. Exactly one terminal event is published per run.
func (m *Manager) Run(ctx context.Context, locator string) (Report, error) {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "run", "prepare", "ensure directories", err)
	}
	locked, err := m.lock.TryLock()
	if err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "run", "lock", "acquire pipeline lock", err)
	}
	if !locked {
		return Report{}, services.Wrap(services.ErrConfiguration, "run", "lock",
			"another run is already using this cookie directory", nil)
	}
	defer func() { _ = m.lock.Unlock() }()

	profile, err := source.Detect(locator)
	if err != nil {
		report := Report{}
		m.publishTerminal(report, err)
		return report, services.Wrap(services.ErrResolution, "run", "detect", "detect source profile", err)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(services.WithSource(ctx, profile.Name), runID)
	logger := m.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldSource, profile.Name))
	report := Report{RunID: runID, Source: profile.Name}

	logger.Info("run started", logging.String("locator", locator))

	if profile.Name == source.Netease.Name && strings.HasSuffix(strings.ToLower(locator), ".ncm") {
		err := m.runNCM(ctx, logger, &report, locator)
		m.publishTerminal(report, err)
		return report, err
	}

	if m.cfg.Cookies.AutoRenew {
		if result, renewErr := m.renewer.Renew(ctx, profile); renewErr != nil {
			logger.Warn("initial cookie renewal failed", logging.Error(renewErr))
		} else {
			logger.Info("cookies ready",
				logging.String("browser", result.Source),
				logging.Int("cookies", result.Count))
		}
	}

	opts := ytdlp.Options{
		JarPath:   m.cfg.CookieJarPath(profile.Name),
		UserAgent: profile.UserAgent,
	}
	resolution, err := m.resolver.Resolve(ctx, locator, profile, opts)
	if err != nil {
		logger.Error("resolution failed", logging.Error(err))
		m.publishTerminal(report, err)
		return report, err
	}
	report.Resolved = len(resolution.Items)
	report.RawCount = resolution.RawCount
	logger.Info("resolved",
		logging.Int("raw", resolution.RawCount),
		logging.Int("valid", len(resolution.Items)))

	for _, mediaItem := range resolution.Items {
		if _, err := m.store.NewItem(ctx, runID, profile.Name, mediaItem.SourceURL, mediaItem.Title, mediaItem.Uploader); err != nil {
			m.publishTerminal(report, err)
			return report, services.Wrap(services.ErrConfiguration, "run", "enqueue", "persist queue item", err)
		}
	}

	worker := m.workers(profile)
	if err := m.processQueue(ctx, worker, runID, resolution, &report); err != nil {
		m.publishTerminal(report, err)
		return report, err
	}

	logger.Info("run finished",
		logging.Int("completed", report.Completed),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed))
	m.publishTerminal(report, nil)
	return report, nil
}

func (m *Manager) processQueue(ctx context.Context, worker ItemProcessor, runID string, resolution resolver.Resolution, report *Report) error {
	total := len(resolution.Items)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := m.store.NextPending(ctx, runID)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "run", "dequeue", "fetch next item", err)
		}
		if item == nil {
			return nil
		}

		itemCtx := services.WithStage(services.WithItemID(ctx, item.ID), "acquire")
		itemLogger := logging.WithContext(itemCtx, m.logger)
		itemLogger.Info(fmt.Sprintf("processing %d/%d", index+1, total),
			logging.String("title", item.Title))

		item.Status = queue.StatusDownloading
		if err := m.store.Update(ctx, item); err != nil {
			return services.Wrap(services.ErrConfiguration, "run", "update", "persist item status", err)
		}

		outcome, processErr := worker.Process(itemCtx, resolver.MediaItem{
			SourceURL: item.SourceURL,
			Title:     item.Title,
			Uploader:  item.Uploader,
		})
		item.Attempts = outcome.Attempts
		item.RawFile = outcome.VideoFile
		item.OutputFile = outcome.AudioFile
		if item.OutputFile == "" {
			item.OutputFile = outcome.VideoFile
		}

		switch {
		case processErr != nil:
			// Item failures never abort the run.
			item.Status = queue.StatusFailed
			item.ErrorMessage = processErr.Error()
			report.Failed++
			itemLogger.Error("item failed", logging.Error(processErr))
		case outcome.Skipped:
			item.Status = queue.StatusSkipped
			report.Skipped++
			itemLogger.Info("item skipped")
		default:
			item.Status = queue.StatusCompleted
			report.Completed++
			itemLogger.Info("item completed", logging.String("output", item.OutputFile))
		}
		if err := m.store.Update(ctx, item); err != nil {
			return services.Wrap(services.ErrConfiguration, "run", "update", "persist item outcome", err)
		}
	}
}

func (m *Manager) runNCM(ctx context.Context, logger *slog.Logger, report *Report, path string) error {
	report.Resolved = 1
	report.RawCount = 1
	item, err := m.store.NewItem(ctx, report.RunID, source.Netease.Name, path, filepath.Base(path), "")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "enqueue", "persist queue item", err)
	}
	item.Status = queue.StatusTranscoding
	if err := m.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "update", "persist item status", err)
	}

	result, processErr := m.ncmWorker.Process(services.WithStage(ctx, "decrypt"), path)
	if processErr != nil {
		item.Status = queue.StatusFailed
		item.ErrorMessage = processErr.Error()
		report.Failed++
		logger.Error("decrypt failed", logging.Error(processErr))
	} else {
		item.Status = queue.StatusCompleted
		item.OutputFile = result.Output
		report.Completed++
		logger.Info("decrypt completed", logging.String("output", result.Output))
	}
	if err := m.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrConfiguration, "run", "update", "persist item outcome", err)
	}
	return nil
}

// publishTerminal emits the single run-completion event.
func (m *Manager) publishTerminal(report Report, err error) {
	if m.hub == nil {
		return
	}
	level := "INFO"
	message := fmt.Sprintf("run complete: %d completed, %d skipped, %d failed",
		report.Completed, report.Skipped, report.Failed)
	if err != nil {
		level = "ERROR"
		message = fmt.Sprintf("run failed: %v", err)
	}
	m.hub.Publish(logging.Event{
		Level:    level,
		Message:  message,
		Source:   report.Source,
		RunID:    report.RunID,
		Terminal: true,
	})
}
