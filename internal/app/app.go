package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/statdeck/internal/cache"
	"github.com/five82/statdeck/internal/config"
	"github.com/five82/statdeck/internal/logging"
	"github.com/five82/statdeck/internal/prefs"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
	"github.com/five82/statdeck/internal/ui"
)

// Options configure the statdeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/statdeck/prefs.toml
	PollEvery  int    // seconds; zero keeps the configured interval
	LogLevel   string // overrides log_level when set
	// Dump names a scope key to sync once and print instead of starting the TUI.
	Dump string
	Out  io.Writer // dump output, defaults to os.Stdout
	Err  io.Writer // dump mode logs, defaults to os.Stderr
}

// Run boots statdeck until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.Dump != "" {
		return runDump(ctx, cfg, opts)
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "json", Output: logFile})
	logging.Info().
		Str("api_url", cfg.APIURL).
		Dur("poll", cfg.PollInterval()).
		Bool("persist_cache", cfg.PersistCache()).
		Msg("statdeck starting")

	svc, err := openServices(ctx, cfg, cfg.PersistCache())
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr)
		defer stop()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	return ui.Run(ui.Options{
		Context:     ctx,
		Coordinator: svc.coord,
		Client:      svc.client,
		Prefs:       userPrefs,
		PrefsPath:   prefsPath,
		LogPath:     cfg.LogFile,
		APIURL:      cfg.APIURL,
	})
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// services bundles what both the TUI and dump mode need.
type services struct {
	store  *cache.Store
	client *statsapi.Client
	coord  *state.Coordinator
}

// openServices builds the cache, the backend client and the coordinator.
// When persist is set the durable medium is a badger database under the
// cache dir; if it cannot be opened the app keeps running on memory.
func openServices(ctx context.Context, cfg config.Config, persist bool) (*services, error) {
	var durable cache.KeyValueStore
	if persist {
		dir := filepath.Join(cfg.CacheDir, "badger")
		db, err := cache.OpenBadger(dir)
		if err != nil {
			logging.Warn().Err(err).Str("dir", dir).Msg("durable cache unavailable, falling back to memory")
		} else {
			durable = db
		}
	}
	store := cache.New(durable, cache.NewMemoryStore())

	clientOpts := []statsapi.Option{}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		clientOpts = append(clientOpts, statsapi.WithUserAgent(ua))
	}
	client, err := statsapi.NewClient(cfg.APIURL, clientOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init stats client: %w", err)
	}

	coord := state.New(client, store,
		state.WithContext(ctx),
		state.WithInterval(cfg.PollInterval()),
	)
	return &services{store: store, client: client, coord: coord}, nil
}

// Close stops the coordinator before closing the stores it writes to.
func (s *services) Close() {
	s.coord.Close()
	if err := s.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("close cache")
	}
}

// serveMetrics exposes the prometheus registry on addr until the returned
// func is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logging.Info().Str("addr", addr).Msg("serving metrics")
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// runDump syncs one scope and prints its body. It only uses memory stores
// so it can run next to a TUI that holds the badger lock.
func runDump(ctx context.Context, cfg config.Config, opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console", Output: errOut})

	key, err := scope.Parse(opts.Dump)
	if err != nil {
		return err
	}

	svc, err := openServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	view, err := svc.coord.Sync(ctx, key, state.Options{Force: true})
	if err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if view.Phase == state.PhaseFailed {
		return fmt.Errorf("sync %s: %s", key, statsapi.Message(view.Err))
	}
	if !view.HasData() {
		return fmt.Errorf("sync %s: no data", key)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, view.Data.Body, "", "  "); err != nil {
		return fmt.Errorf("format %s: %w", key, err)
	}
	buf.WriteByte('\n')
	_, err = out.Write(buf.Bytes())
	return err
}
