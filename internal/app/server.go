package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/api/handlers"
	appMiddleware "github.com/autoprovider/fileparse/internal/api/middlewares"
	"github.com/autoprovider/fileparse/internal/config"
	"github.com/autoprovider/fileparse/internal/core"
	"github.com/autoprovider/fileparse/internal/core/ingestion_engine"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, store core.SourceStore, uploader core.Uploader, pipeline *ingestion_engine.Pipeline, log *zap.Logger) *Server {
	sourceHandler := handlers.NewSourceHandler(store, pipeline, log)
	healthHandler := handlers.NewHealthHandler(store, uploader, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	// Parsing a full batch of large documents can take a while.
	r.Use(chimiddleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api/v1", func(api chi.Router) {
		// public connectivity probes
		api.Get("/test/db_connection", healthHandler.DBConnection)
		api.Get("/test/qiniu_connection", healthHandler.StorageConnection)

		// protected endpoints
		api.Route("/inter", func(inter chi.Router) {
			inter.Use(appMiddleware.JWT(cfg.JWTSecret))
			inter.Post("/upload_and_parse", sourceHandler.UploadAndParse)
			inter.Get("/unbound_sources", sourceHandler.ListUnbound)
			inter.Post("/bind_sources", sourceHandler.BindSources)
			inter.Post("/cancel_source", sourceHandler.CancelSource)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down or fails.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
