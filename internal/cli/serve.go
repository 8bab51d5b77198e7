package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/cache"
	"github.com/relata/relata/pkg/prefab"
	"github.com/relata/relata/pkg/render"
	"github.com/relata/relata/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	storeURI string
	addr     string
	noCache  bool
	cacheTTL time.Duration
}

// newServeCmd creates the serve command, a small HTTP API over a
// snapshot store.
func newServeCmd() *cobra.Command {
	opts := serveOpts{addr: "127.0.0.1:8090", cacheTTL: time.Hour}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP",
		Long: `Serve exposes a snapshot store as a JSON API.

Routes:
  GET    /snapshots                    list stored snapshots
  POST   /snapshots                    store an uploaded snapshot document
  GET    /snapshots/{id}               fetch one snapshot document
  GET    /snapshots/{id}/render.svg    render a snapshot (?detailed=true)
  GET    /snapshots/{id}/render.dot    DOT source for a snapshot
  DELETE /snapshots/{id}               delete a snapshot

Rendered SVGs are cached on disk unless --no-cache is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.storeURI, "store", "", "store URI (file:/path, redis://..., mongodb://..., memory:)")
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache-ttl", opts.cacheTTL, "lifetime of cached renders")

	return cmd
}

func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	s, closeStore, err := openStore(ctx, opts.storeURI)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	renderCache, err := newRenderCache(opts.noCache)
	if err != nil {
		return err
	}
	defer renderCache.Close()

	srv := &snapshotServer{
		store:    s,
		cache:    renderCache,
		cacheTTL: opts.cacheTTL,
		logger:   logger,
	}

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on http://%s", opts.addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newRenderCache picks the cache backend for rendered SVGs.
func newRenderCache(disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(filepath.Join(dir, "relata", "render"))
}

// snapshotServer handles the HTTP API over one snapshot store.
type snapshotServer struct {
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *log.Logger
}

func (s *snapshotServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/render.svg", s.handleRenderSVG)
			r.Get("/render.dot", s.handleRenderDOT)
		})
	})

	return r
}

// logRequests logs one line per request at debug level.
func (s *snapshotServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debugf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

func (s *snapshotServer) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *snapshotServer) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *snapshotServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	var p prefab.Prefab
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 32<<20))
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode snapshot: %w", err))
		return
	}
	if err := s.store.Put(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, store.InfoOf(&p))
}

func (s *snapshotServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *snapshotServer) handleRenderDOT(w http.ResponseWriter, r *http.Request) {
	opts := render.Options{Detailed: r.URL.Query().Get("detailed") == "true"}
	p, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.ToDOT(p, opts)))
}

func (s *snapshotServer) handleRenderSVG(w http.ResponseWriter, r *http.Request) {
	opts := render.Options{Detailed: r.URL.Query().Get("detailed") == "true"}
	id := chi.URLParam(r, "id")

	key := cache.RenderKey("svg", id, opts)
	if data, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
		writeSVG(w, data)
		return
	}

	p, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	svg, err := render.Snapshot(r.Context(), p, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.cache.Set(r.Context(), key, svg, s.cacheTTL); err != nil {
		s.logger.Warnf("cache render for %s: %v", id, err)
	}
	writeSVG(w, svg)
}

// loadSnapshot fetches the snapshot named by the {id} route parameter.
// On failure it writes the error response and returns false.
func (s *snapshotServer) loadSnapshot(w http.ResponseWriter, r *http.Request) (*prefab.Prefab, bool) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return nil, false
	}
	return p, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSVG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
