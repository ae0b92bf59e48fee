// Package rest serves scraped tables and the scrape job queue over HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewRouter builds the API routes. ws may be nil.
func NewRouter(h *Handler, scrapes *ScrapeHandler, ws http.Handler) *mux.Router {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	if ws != nil {
		router.Handle("/ws", ws)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Tables
	api.HandleFunc("/teams", h.GetTeams).Methods("GET")
	api.HandleFunc("/tables/{page}", h.GetTable).Methods("GET")

	// Scrape jobs
	if scrapes != nil {
		api.HandleFunc("/scrapes", scrapes.HandleScrapeRequest).Methods("POST")
		api.HandleFunc("/scrapes", scrapes.HandleScrapeStatus).Methods("GET")
		api.HandleFunc("/scrapes/{jobID}", scrapes.HandleGetScrape).Methods("GET")
	}

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, handler http.Handler) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
