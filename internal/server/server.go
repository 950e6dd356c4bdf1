package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"expense-ledger/internal/config"
	"expense-ledger/internal/domain"
	"expense-ledger/internal/handler"
	"expense-ledger/internal/repository"
	"expense-ledger/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	store  domain.LedgerStore
	driver string
	logger *slog.Logger
	port   string
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := repository.NewLedgerStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("Ledger store ready", "driver", cfg.StoreDriver)
	}

	transactionService := service.NewTransactionService(store, logger)

	transactionHandler := handler.NewTransactionHandler(transactionService)
	reportHandler := handler.NewReportHandler(transactionService)

	s := &Server{
		store:  store,
		driver: cfg.StoreDriver,
		logger: logger,
	}

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Expense Ledger Backend Running"})
	}).Methods("GET")

	// Transaction routes
	router.HandleFunc("/api/expenses", transactionHandler.Create).Methods("POST")
	router.HandleFunc("/api/expenses", transactionHandler.List).Methods("GET")
	router.HandleFunc("/api/expenses/{id}", transactionHandler.Update).Methods("PATCH")
	router.HandleFunc("/api/expenses/{id}", transactionHandler.Delete).Methods("DELETE")

	// Aggregation routes
	router.HandleFunc("/api/summary", reportHandler.Summary).Methods("GET")
	router.HandleFunc("/api/monthly-chart", reportHandler.MonthlyChart).Methods("GET")

	// Health check: reports store reachability but never fails hard,
	// the diagnostic path degrades to informational text.
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router = router
	return s, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"backend":   "running",
		"store":     s.driver,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		status["store_status"] = "unreachable: " + err.Error()
	} else {
		status["store_status"] = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// corsMiddleware allows any origin, matching what the browser client
// expects from this API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	if s.store != nil {
		if err := s.store.Close(ctx); err != nil && s.logger != nil {
			s.logger.Error("Failed to close ledger store", "error", err)
		}
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid noise
	var logger *slog.Logger
	if cfg.Port == "0" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.Port)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
