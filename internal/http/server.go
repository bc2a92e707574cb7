package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dudlr/dudlr/internal/config"
	"github.com/dudlr/dudlr/internal/identity"
	"github.com/dudlr/dudlr/internal/service"
	"github.com/dudlr/dudlr/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	artists *service.ArtistService
	doodles *service.DoodleService
	gallery *service.GalleryService
	tokens  identity.Provider
	logger  *zap.Logger
	router  chi.Router
	httpSrv *http.Server
}

// Services bundles the business-logic dependencies the server exposes.
type Services struct {
	Artists *service.ArtistService
	Doodles *service.DoodleService
	Gallery *service.GalleryService
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, svcs Services, tokens identity.Provider, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		artists: svcs.Artists,
		doodles: svcs.Doodles,
		gallery: svcs.Gallery,
		tokens:  tokens,
		logger:  logger,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/doodles", func(r chi.Router) {
		r.Post("/", s.handleCreateDoodle)
		r.Get("/", s.handleListLatest)
		r.Get("/top", s.handleListTopRated)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDoodle)
			r.Post("/pixels", s.handleAppendPixels)
			r.Post("/strokes", s.handleAppendStrokes)
			r.Post("/finalize-raster", s.handleFinalizeRaster)
			r.Post("/finalize-strokes", s.handleFinalizeStrokes)
			r.Get("/image", s.handleGetImage)
			r.Get("/strokes", s.handleGetStrokes)
			r.Get("/render", s.handleRenderStrokes)
			r.Post("/ratings", s.handleRateDoodle)
		})
	})

	s.router.Route("/artists", func(r chi.Router) {
		r.Get("/me", s.handleCurrentArtist)
		r.Put("/me/name", s.handleRenameArtist)
		r.Get("/{name}", s.handleGetArtist)
		r.Get("/{name}/doodles", s.handleListByArtist)
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// caller resolves the requesting identity from the Authorization header.
// Absent or unverifiable tokens mean an anonymous caller, never an error.
func (s *Server) caller(r *http.Request) *identity.Identity {
	token, ok := identity.FromAuthHeader(r.Header.Get("Authorization"))
	if !ok {
		return nil
	}
	ident, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return ident
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
