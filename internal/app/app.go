package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/mantle/internal/cache"
	"github.com/five82/mantle/internal/config"
	"github.com/five82/mantle/internal/mantium"
	"github.com/five82/mantle/internal/prefs"
	"github.com/five82/mantle/internal/resolver"
	"github.com/five82/mantle/internal/state"
	"github.com/five82/mantle/internal/syncloop"
	"github.com/five82/mantle/internal/ui"
)

const healthCheckTimeout = 3 * time.Second

// Options configure the mantle application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/mantle/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// Services are the wired components shared by the TUI and the CLI
// subcommands.
type Services struct {
	Config   config.Config
	Client   *mantium.Client
	Cache    *cache.Cache
	Resolver *resolver.Resolver
	Loop     *syncloop.Loop
	Store    *state.Store
	Logger   *log.Logger

	logFile io.Closer
}

// Close releases the log file.
func (s *Services) Close() error {
	if s == nil || s.logFile == nil {
		return nil
	}
	return s.logFile.Close()
}

// Open loads configuration, opens the log file, builds every component and
// checks that the backend answers. The caller must Close the result.
func Open(ctx context.Context, opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load mantle config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	logOut, logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	logger := log.New(logOut, "", log.LstdFlags)

	client, err := mantium.NewClient(cfg.APIAddress, mantium.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		closeQuietly(logFile)
		return nil, fmt.Errorf("init mantium client: %w", err)
	}

	if err := ensureBackendAvailable(ctx, client); err != nil {
		closeQuietly(logFile)
		return nil, err
	}

	chapterCache := cache.New(cache.Options{TTL: cfg.CacheTTL, MaxEntries: cfg.CacheMaxEntries})
	return &Services{
		Config:   cfg,
		Client:   client,
		Cache:    chapterCache,
		Resolver: resolver.New(client, client, resolver.WithCache(chapterCache), resolver.WithLogger(logger)),
		Loop:     syncloop.New(client, syncloop.Options{Timeout: cfg.TokenTimeout, Logger: logger}),
		Store:    &state.Store{},
		Logger:   logger,
		logFile:  logFile,
	}, nil
}

// Run boots the mantle TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	poller := NewPoller(svc.Loop, svc.Client, svc.Store, svc.Config.PollInterval, svc.Logger)

	// Record the current token so the first tick does not reload what we
	// are about to pull anyway.
	if err := svc.Loop.Prime(ctx); err != nil {
		svc.Logger.Printf("initial change token: %v", err)
	}
	_ = poller.Refresh(ctx)
	poller.Start(ctx)

	return ui.Run(ui.Options{
		Context:   ctx,
		Backend:   svc.Client,
		Resolver:  svc.Resolver,
		Loop:      svc.Loop,
		Store:     svc.Store,
		Logger:    svc.Logger,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}

func ensureBackendAvailable(ctx context.Context, client *mantium.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := client.CheckHealth(ctx); err != nil {
		return fmt.Errorf("mantium backend unavailable: %w", err)
	}
	return nil
}

// openLog appends to path, creating parent directories. The TUI owns the
// terminal, so logs never go to stderr while it runs.
func openLog(path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return io.Discard, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
