package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/purit/auth-api/internal/config"
	"github.com/purit/auth-api/internal/graph"
	"github.com/purit/auth-api/internal/middleware"
)

// Server wires the HTTP stack around the single GraphQL endpoint.
type Server struct {
	httpServer *http.Server
	logger     *zerolog.Logger
}

// New builds the router and the HTTP server. Only the configured client
// origin may call the API cross-origin.
func New(
	cfg *config.Config,
	resolver *graph.Resolver,
	verifier middleware.TokenVerifier,
	logger *zerolog.Logger,
) (*Server, error) {
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestLog(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	router.Use(middleware.Authenticate(verifier, logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodPost, "/graphql", graph.NewHandler(schema, logger))

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: router,
		},
		logger: logger,
	}, nil
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
