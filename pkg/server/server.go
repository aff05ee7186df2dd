// Package server exposes the job-trigger and read API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Doot-Foundation/doot-oracle/pkg/consensus"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle"
	"github.com/Doot-Foundation/doot-oracle/pkg/scheduler"
)

// Server is the HTTP surface: authenticated task triggers, the endorsement
// ingest, and public price reads.
type Server struct {
	addr        string
	secret      string
	corsOrigins []string

	service      *oracle.Service
	tracker      *consensus.Tracker
	orchestrator *scheduler.Orchestrator
	logger       *logging.Logger

	server *http.Server
}

// New creates the HTTP server.
func New(addr, secret string, corsOrigins []string, service *oracle.Service, tracker *consensus.Tracker, orchestrator *scheduler.Orchestrator, logger *logging.Logger) *Server {
	return &Server{
		addr:         addr,
		secret:       secret,
		corsOrigins:  corsOrigins,
		service:      service,
		tracker:      tracker,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // task endpoints run the task body
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// routes assembles the full handler chain.
func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/v1/prices", s.handlePrices).Methods(http.MethodGet)
	api.HandleFunc("/v1/price/{token}", s.handlePrice).Methods(http.MethodGet)
	api.HandleFunc("/v1/historical", s.handleHistorical).Methods(http.MethodGet)
	api.HandleFunc("/v1/slot/{token}", s.handleSlot).Methods(http.MethodGet)
	// Endorsements authenticate themselves: the attestation signature is
	// checked before any state is touched.
	api.HandleFunc("/v1/endorse", s.handleEndorse).Methods(http.MethodPost)

	tasks := router.PathPrefix("/api/tasks").Subrouter()
	tasks.Use(s.requireBearer)
	tasks.HandleFunc("/price-refresh", s.taskHandler("price-refresh", s.service.RefreshPrices)).Methods(http.MethodPost)
	tasks.HandleFunc("/chain-refresh", s.taskHandler("chain-refresh", s.service.RefreshChainPrices)).Methods(http.MethodPost)
	tasks.HandleFunc("/snapshot", s.taskHandler("snapshot-publish", s.service.PublishSnapshot)).Methods(http.MethodPost)
	tasks.HandleFunc("/cycle", s.handleCycle).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
