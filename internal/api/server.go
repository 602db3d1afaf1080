package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	api "productform/internal/api/application"
	"productform/internal/api/handlers"
	apimiddleware "productform/internal/api/middleware"
	configapp "productform/internal/config/application"
	formdomain "productform/internal/form/domain"
	sharedlogger "productform/internal/shared/logger"
	submissionapp "productform/internal/submission/application"
	submissiondomain "productform/internal/submission/domain"
)

// Server represents the web UI and JSON API server
type Server struct {
	httpServer *http.Server
	logger     sharedlogger.Logger
}

// NewServer creates a new server over the shared form and orchestrator
func NewServer(
	logger sharedlogger.Logger,
	runtimeCfg *configapp.RuntimeConfig,
	form *formdomain.Holder,
	orchestrator *submissionapp.Orchestrator,
	historyRepo submissiondomain.Repository,
) *Server {
	httpServer := &http.Server{
		Addr:         ":" + runtimeCfg.Port,
		Handler:      NewRouter(logger, form, orchestrator, historyRepo),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Debug("Server configured",
		"port", runtimeCfg.Port,
		"middleware", []string{"RequestID", "RealIP", "Recoverer", "httplog", "RequestLogger"},
	)

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// NewRouter builds the chi router with every route of the web UI and the API
func NewRouter(
	logger sharedlogger.Logger,
	form *formdomain.Holder,
	orchestrator *submissionapp.Orchestrator,
	historyRepo submissiondomain.Repository,
) http.Handler {
	// Initialize services
	formService := api.NewFormService(form, orchestrator)
	historyService := submissionapp.NewHistoryService(historyRepo)

	// Initialize handlers
	formHandler := handlers.NewFormHandler(formService)
	stateHandler := handlers.NewStateHandler(formService)
	historyHandler := handlers.NewHistoryHandler(historyService)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// HTTP logging middleware - need concrete slog.Logger for httplog
	var slogLogger *slog.Logger
	if infraLogger, ok := logger.(interface{ SLog() *slog.Logger }); ok {
		slogLogger = infraLogger.SLog()
	} else {
		slogLogger = slog.Default()
	}

	r.Use(httplog.RequestLogger(slogLogger, &httplog.Options{
		Level:             slog.LevelDebug,
		Schema:            httplog.SchemaECS.Concise(true),
		LogRequestHeaders: []string{},
	}))
	r.Use(apimiddleware.RequestLogger(slogLogger))

	// HTML form
	r.Get("/", formHandler.Index)
	r.Post("/draft", formHandler.UpdateDraft)
	r.Post("/files", formHandler.ReplaceFiles)
	r.Post("/submit/{variant}", formHandler.Submit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", stateHandler.GetState)
		r.Patch("/draft", stateHandler.PatchDraft)
		r.Put("/files", stateHandler.PutFiles)
		r.Post("/submissions/{variant}", stateHandler.StartSubmission)
		r.Get("/submissions", historyHandler.ListSubmissions)
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error("Server error", "err", err)
	}
	return err
}

// Shutdown gracefully shuts down the server.
// A submission started from the UI keeps running until the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server shutdown error", "err", err)
	} else {
		s.logger.Info("Server shutdown complete")
	}
	return err
}
