package adapter

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/state"
)

// StreamStates reports per-stream refresh state
type StreamStates interface {
	StreamState(stream domain.Stream) domain.StreamState
}

// DebugServer exposes metrics and a state summary over HTTP
type DebugServer struct {
	addr    string
	holder  *state.Holder
	streams StreamStates
	logger  *slog.Logger
	router  chi.Router
}

type stateResponse struct {
	Version   uint64            `json:"version"`
	Movies    int               `json:"movies"`
	Ratings   int               `json:"ratings"`
	FromCache bool              `json:"fromCache"`
	Error     *errorResponse    `json:"error"`
	Streams   map[string]string `json:"streams"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewDebugServer creates the debug listener for addr
func NewDebugServer(addr string, holder *state.Holder, streams StreamStates, logger *slog.Logger) *DebugServer {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &DebugServer{addr: addr, holder: holder, streams: streams, logger: logger, router: r}
	r.Get("/healthz", s.handleHealthz)
	r.Get("/state", s.handleState)
	r.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *DebugServer) Handler() http.Handler {
	return s.router
}

// Serve implements suture.Service
func (s *DebugServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("debug server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("debug server shutdown", "error", err)
		}
		return ctx.Err()
	}
}

func (s *DebugServer) String() string {
	return "debug-server"
}

func (s *DebugServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *DebugServer) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Snapshot()
	resp := stateResponse{
		Version:   snap.Version,
		Movies:    len(snap.Movies),
		Ratings:   len(snap.Ratings),
		FromCache: snap.FromCache,
		Streams:   make(map[string]string, 2),
	}
	if snap.Err != nil {
		resp.Error = &errorResponse{Kind: snap.Err.Kind.String(), Message: snap.Err.Message}
	}
	for _, stream := range []domain.Stream{domain.StreamMovies, domain.StreamRatings} {
		resp.Streams[string(stream)] = s.streams.StreamState(stream).String()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode state", "error", err)
	}
}
