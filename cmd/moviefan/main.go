package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
	"golang.org/x/term"

	"github.com/mmcdole/moviefan/internal/adapter"
	"github.com/mmcdole/moviefan/internal/catalog"
	"github.com/mmcdole/moviefan/internal/connectivity"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/library"
	"github.com/mmcdole/moviefan/internal/state"
	"github.com/mmcdole/moviefan/internal/store"
	"github.com/mmcdole/moviefan/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

// headlessTimeout bounds the one-shot refresh when stdout is not a terminal
const headlessTimeout = 30 * time.Second

func main() {
	var showVersion, offline, clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&offline, "offline", false, "never contact the catalog; serve saved movies")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete saved movies and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("moviefan %s\n", Version)
		return
	}

	if err := run(offline, clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(offline, clearCache bool) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if clearCache {
		if err := cfg.ClearCache(); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting moviefan", "version", Version, "offline", offline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	movieStore, err := store.NewMovieStore(cfg.StorePath(), logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer movieStore.Close()

	if cfg.Store.SeedFile != "" {
		if err := seedStore(ctx, movieStore, cfg.Store.SeedFile, logger); err != nil {
			return err
		}
	}

	client, err := newCatalogClient(cfg, logger)
	if err != nil {
		return err
	}

	// Reachability: a live probe, or pinned offline
	var reach domain.ReachabilityProvider
	var monitor *connectivity.Monitor
	if offline {
		reach = connectivity.Static(domain.Unreachable)
	} else {
		monitor = connectivity.NewMonitor(cfg.Connectivity.ProbeURL, cfg.Connectivity.Interval, cfg.Connectivity.Timeout, logger)
		reach = monitor
	}

	holder := state.NewHolder()
	loop := state.NewLoop(64, logger)

	engine := library.NewEngine(library.Deps{
		Client:       client,
		Store:        movieStore,
		Reachability: reach,
		Holder:       holder,
		Dispatcher:   loop,
	}, cfg.Sync.RefreshTimeout, logger)
	queries := library.NewQueries(movieStore, holder)

	// Background services
	sup := suture.New("moviefan", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: logger}).MustHook(),
		Timeout:   5 * time.Second,
	})
	sup.Add(loop)
	if monitor != nil {
		sup.Add(monitor)
	}
	if cfg.Debug.Listen != "" {
		sup.Add(adapter.NewDebugServer(cfg.Debug.Listen, holder, engine, logger))
	}

	supCtx, cancelSup := context.WithCancel(ctx)
	supErr := sup.ServeBackground(supCtx)
	defer func() {
		cancelSup()
		if err := <-supErr; err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("supervisor stopped", "error", err)
		}
	}()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctx, engine, queries, monitor, os.Stdout)
	}

	observer := tui.NewSnapshotObserver()
	unsubscribe := holder.Subscribe(observer.OnChange)
	defer unsubscribe()

	model := tui.NewModel(engine, observer, holder.Snapshot(), tui.Options{
		ImageBaseURL:  cfg.API.ImageBaseURL,
		ChartWindow:   cfg.UI.ChartWindow,
		AverageWindow: cfg.UI.AverageWindow,
	})

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// newCatalogClient builds the HTTP client, behind a circuit breaker when enabled
func newCatalogClient(cfg *adapter.Config, logger *slog.Logger) (domain.CatalogClient, error) {
	client, err := catalog.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Language, cfg.API.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}
	if !cfg.Breaker.Enabled {
		return client, nil
	}
	return catalog.NewBreakerClient(client, catalog.BreakerSettings{
		Name:         "catalog",
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
	}, logger), nil
}

func seedStore(ctx context.Context, s *store.MovieStore, path string, logger *slog.Logger) error {
	movies, err := store.ReadSeedFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	n, err := s.Seed(ctx, movies)
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	logger.Info("seeded store", "file", path, "inserted", n)
	return nil
}

// runHeadless refreshes both streams once and prints a plain listing
func runHeadless(ctx context.Context, engine *library.Engine, queries *library.Queries, monitor *connectivity.Monitor, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, headlessTimeout)
	defer cancel()

	if monitor != nil {
		monitor.Probe(ctx)
	}

	movies, ratings := engine.RefreshAll(ctx)

	switch movies.State {
	case domain.StateFailed:
		fmt.Fprintf(w, "movies: %s\n", movies.Err.Message)
	case domain.StateSettledFromCache:
		fmt.Fprintf(w, "movies (offline, %d saved):\n", movies.Count)
	default:
		fmt.Fprintf(w, "movies (%d):\n", movies.Count)
	}
	if movies.PersistErr != nil {
		fmt.Fprintf(w, "warning: %s\n", movies.PersistErr.Message)
	}
	for _, m := range queries.Movies() {
		fmt.Fprintf(w, "  %7d  %-10s  %s\n", m.ID, m.ReleaseDate, m.Title)
	}

	switch ratings.State {
	case domain.StateFailed:
		fmt.Fprintf(w, "ratings: %s\n", ratings.Err.Message)
	case domain.StateSkipped:
		fmt.Fprintln(w, "ratings: unavailable offline")
	default:
		fmt.Fprintf(w, "ratings (%d):\n", ratings.Count)
		for _, r := range queries.Ratings() {
			fmt.Fprintf(w, "  %5.1f  %6d votes  %s\n", r.VoteAverage, r.VoteCount, r.Title)
		}
	}

	if movies.State == domain.StateFailed {
		return movies.Err
	}
	return nil
}
