package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Slidecast/config"
	"Slidecast/internal/app"
	"Slidecast/logger"

	"github.com/gorilla/mux"
)

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware, corsMiddleware)

	router.HandleFunc("/", h.PageHandler).Methods(http.MethodGet)
	router.HandleFunc("/", h.RenderHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/slides", h.SlideHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/combine", h.CombineHandler).Methods(http.MethodPost)
	router.HandleFunc("/artifacts/{key:.+}", h.ArtifactHandler).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writeCORSHeaders(w)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return router
}

// Start wires the pipeline from cfg and serves HTTP until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	a, err := app.New(context.Background(), cfg, app.Options{Archive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	h := NewHandler(a.Slides, a.Combiner, cfg.MaxUploadBytes(), cfg.Server.MaxConcurrentRenders)
	if a.Archive != nil {
		h.SetArchive(a.Archive)
	}
	for name, check := range a.ReadinessChecks() {
		h.AddReadinessCheck(name, check)
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     NewRouter(h),
		ReadTimeout: 5 * time.Minute,
		// Renders complete inside the request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", server.Addr),
			logger.Int("maxUploadMB", cfg.Server.MaxUploadMB),
			logger.Int("maxConcurrentRenders", cfg.Server.MaxConcurrentRenders))
		logger.Info("Access the UI at http://localhost" + server.Addr + "/")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Failed to start server", logger.ErrorField(err))
			return err
		}
		return nil
	case <-stop:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
