package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"photowall/internal/config"
	"photowall/internal/handlers"
	"photowall/internal/index"
	"photowall/internal/logging"
	"photowall/internal/memory"
	"photowall/internal/middleware"
	"photowall/internal/thumbnail"
	"photowall/internal/watcher"
	"photowall/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "photowall",
		Short:        "Self-hosted photo wall with live updates",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("photowall %s (commit %s, built %s, %s)\n",
				Version, Commit, BuildTime, runtime.Version())
		},
	})

	return root
}

func runServe(configPath string) error {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()
	if memResult.Configured {
		logging.Info("GOMEMLIMIT configured from %s", memResult.Source)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Index actor owns the in-memory view of the storage root.
	actor := index.New(cfg.StorageDir)
	actor.Start()

	// Watcher feeds debounced change notifications into the actor.
	w, err := watcher.New(cfg.StorageDir, cfg.DebounceWindow, actor.NotifyChange)
	if err != nil {
		actor.Stop()
		return fmt.Errorf("watcher error: %w", err)
	}
	w.Start()

	thumbs := thumbnail.New(cfg.MaxEdge, cfg.JPEGQuality, workers.ForCPU(0))

	h := handlers.New(cfg, actor, thumbs, handlers.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})

	router := setupRouter(h, cfg.StaticDir)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = cfg.LogStaticFiles
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived feed connections
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = startMetricsServer(cfg.MetricsPort)
	}

	go handleShutdown(srv, metricsSrv, actor, w)

	logging.Info("Server listening on :%s (started in %v)", cfg.Port, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/images", h.Upload).Methods("POST")
	api.HandleFunc("/images/{path:.*}", h.GetImage).Methods("GET")
	api.HandleFunc("/thumbs/{path:.*}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/feed", h.Feed).Methods("GET")

	// Static frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

func startMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Metrics listening on :%s", port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, actor *index.Actor, w *watcher.Watcher) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Shutdown initiated (%s)", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logging.Info("Stopping watcher")
	w.Stop()

	logging.Info("Stopping index actor")
	actor.Stop()

	logging.Info("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	logging.Info("Shutdown complete")
}
