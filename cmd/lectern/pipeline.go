package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lectern/internal/config"
	"lectern/internal/diskguard"
	"lectern/internal/engine"
	"lectern/internal/ledger"
	"lectern/internal/logging"
	"lectern/internal/markers"
	"lectern/internal/media"
	"lectern/internal/scratch"
	"lectern/internal/source"
	"lectern/internal/writers"
)

// sourceOverrides are per-invocation flag values that take precedence over
// the configured source section.
type sourceOverrides struct {
	inputDir   string
	remote     string
	remotePath string
}

// pipeline holds every wired component a run or watch session needs.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	registry markers.Registry
	guard    *diskguard.Guard
	manager  *scratch.Manager
	lister   source.Lister
}

func buildPipeline(cfg *config.Config, overrides sourceOverrides, force bool) (*pipeline, error) {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	// Anything left in scratch belongs to a run that no longer exists.
	if err := scratch.PurgeAll(cfg.Paths.ScratchDir); err != nil {
		return nil, fmt.Errorf("clear scratch: %w", err)
	}

	lister, fetcher, err := buildSource(cfg, overrides)
	if err != nil {
		return nil, err
	}

	formatWriters, err := writers.ForFormats(cfg.Outputs.Formats)
	if err != nil {
		return nil, fmt.Errorf("output formats: %w", err)
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	registry := markers.Registry{OutputDir: cfg.Paths.OutputDir, Force: force}

	pipe := &pipeline{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		guard: &diskguard.Guard{
			Path:          cfg.Paths.ScratchDir,
			MinFreeBytes:  cfg.MinFreeBytes(),
			Policy:        diskguard.Policy(cfg.Disk.Policy),
			CheckInterval: cfg.CheckInterval(),
			MaxWait:       cfg.MaxWait(),
			Logger:        logging.NewComponentLogger(logger, "diskguard"),
		},
		manager: &scratch.Manager{
			ScratchDir: cfg.Paths.ScratchDir,
			Fetcher:    fetcher,
			Engine:     buildEngine(cfg),
			Writers:    formatWriters,
			Registry:   registry,
			Logger:     logging.NewComponentLogger(logger, "scratch"),
		},
		lister: lister,
	}
	return pipe, nil
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

func buildSource(cfg *config.Config, overrides sourceOverrides) (source.Lister, source.Fetcher, error) {
	remote := cfg.Source.RcloneRemote
	remotePath := cfg.Source.RemotePath
	if overrides.remote != "" {
		remote = overrides.remote
		remotePath = overrides.remotePath
	}

	// An explicit input directory beats any configured remote.
	if overrides.inputDir != "" {
		dir, err := config.ExpandPath(overrides.inputDir)
		if err != nil {
			return nil, nil, err
		}
		return source.LocalLister{Dir: dir, Extensions: cfg.Source.IncludeExtensions},
			source.LocalFetcher{}, nil
	}

	if remote != "" {
		client := source.NewRclone(source.WithBinary(cfg.RcloneBinary()))
		return source.RemoteLister{Client: client, Remote: remote, Path: remotePath, Extensions: cfg.Source.IncludeExtensions},
			source.RemoteFetcher{Client: client, Remote: remote, Path: remotePath}, nil
	}

	if cfg.Source.InputDir != "" {
		return source.LocalLister{Dir: cfg.Source.InputDir, Extensions: cfg.Source.IncludeExtensions},
			source.LocalFetcher{}, nil
	}

	return nil, nil, errors.New("no source configured: set source.input_dir or source.rclone_remote")
}

func buildEngine(cfg *config.Config) scratch.Transcriber {
	engineCfg := engine.Config{
		Model:       cfg.Engine.Model,
		Device:      cfg.Engine.Device,
		ComputeType: cfg.Engine.ComputeType,
		BatchSize:   cfg.Engine.BatchSize,
		Language:    cfg.Engine.Language,
		Diarization: cfg.Engine.Diarization,
	}
	if engineCfg.Diarization {
		engineCfg.HFToken = engine.ResolveHFToken(cfg.Engine.HFTokenEnv)
	}

	var transcriber scratch.Transcriber = engine.NewService(engineCfg)
	if timeout := cfg.EngineTimeout(); timeout > 0 {
		transcriber = timeoutTranscriber{inner: transcriber, timeout: timeout}
	}
	return transcriber
}

// timeoutTranscriber bounds each transcription call independently of the run
// context.
type timeoutTranscriber struct {
	inner   scratch.Transcriber
	timeout time.Duration
}

func (t timeoutTranscriber) Transcribe(ctx context.Context, audioPath, workDir string) (media.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Transcribe(ctx, audioPath, workDir)
}
