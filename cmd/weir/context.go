package main

import (
	"log/slog"
	"strings"
	"sync"

	"weir/internal/acquire"
	"weir/internal/config"
	"weir/internal/cookiejar"
	"weir/internal/deps"
	"weir/internal/logging"
	"weir/internal/ncm"
	"weir/internal/queue"
	"weir/internal/resolver"
	"weir/internal/source"
	"weir/internal/transcode"
	"weir/internal/workflow"
	"weir/internal/ytdlp"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, *logging.EventHub, error) {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, nil, err
	}
	hub := logging.NewEventHub(512)
	logger = logging.TeeLogger(logger, logging.NewHubHandler(hub, slog.LevelInfo))
	return logger, hub, nil
}

func (c *commandContext) buildRenewer(cfg *config.Config, logger *slog.Logger) *cookiejar.Service {
	extractor := cookiejar.CommandExtractor{Command: cfg.Cookies.ExtractorCommand}
	return cookiejar.NewService(extractor, cfg.Cookies.Sources, cfg.CookieJarPath,
		logging.NewComponentLogger(logger, "cookies"))
}

func (c *commandContext) buildNCMWorker(cfg *config.Config, logger *slog.Logger) *ncm.Worker {
	engine := transcode.NewEngine(cfg.Tools.FFmpeg, cfg.Tools.FFprobe,
		logging.NewComponentLogger(logger, "transcode"))
	return ncm.NewWorker(cfg.Tools.NCMDecryptor, engine, cfg.Paths.OutputDir,
		cfg.Download.Format, cfg.Download.KeepCover,
		logging.NewComponentLogger(logger, "ncm"))
}

func (c *commandContext) buildManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, hub *logging.EventHub) *workflow.Manager {
	client := ytdlp.NewClient(cfg.Tools.YtDlp)
	res := resolver.New(client, logging.NewComponentLogger(logger, "resolver"))
	renewer := c.buildRenewer(cfg, logger)
	engine := transcode.NewEngine(cfg.Tools.FFmpeg, cfg.Tools.FFprobe,
		logging.NewComponentLogger(logger, "transcode"))

	workers := func(profile source.Profile) workflow.ItemProcessor {
		return acquire.NewWorker(client, renewer, engine, cfg, profile,
			logging.NewComponentLogger(logger, "acquire"))
	}

	return workflow.NewManager(cfg, store, res, renewer, workers,
		c.buildNCMWorker(cfg, logger), hub,
		logging.NewComponentLogger(logger, "workflow"))
}

func checkRequiredDeps(cfg *config.Config, logger *slog.Logger) error {
	statuses, err := deps.Check(cfg)
	if err != nil {
		return err
	}
	for _, status := range statuses {
		if status.Optional && !status.Available {
			logger.Warn("optional dependency unavailable",
				logging.String("dependency", status.Name),
				logging.String("detail", status.Detail))
		}
	}
	return nil
}
