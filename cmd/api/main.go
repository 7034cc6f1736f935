package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/finsight/internal/api/handlers"
	"github.com/dvloznov/finsight/internal/api/middleware"
	"github.com/dvloznov/finsight/internal/bootstrap"
	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/jobs/inmemory"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/notionsync"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a config file (optional)")
		port       = flag.Int("port", 0, "HTTP server port (overrides server.port)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.NewWithLevel(logger.ParseLevel(cfg.Log.Level))
	ctx := logger.WithContext(context.Background(), log)

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	log.Info().
		Str("backend", cfg.Store.Backend).
		Str("forecast_engine", cfg.Forecast.Engine).
		Bool("archive", cfg.GCS.Bucket != "").
		Msg("Application initialized")

	h := handlers.New(app.Service, cfg.Upload.MaxBytes, log)

	// Notion export runs on an in-process queue.
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var queue *inmemory.Queue
	if bootstrap.NotionEnabled(cfg) {
		jobStore := inmemory.NewStore()
		queue = inmemory.NewQueue(100, 2, jobStore)
		handler := bootstrap.SyncNotionHandler(app.Repo, notionsync.NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID)
		if err := queue.Start(workerCtx, handler); err != nil {
			log.Fatal().Err(err).Msg("Failed to start job worker")
		}
		h.WithJobs(queue, jobStore)
		log.Info().Msg("Notion export enabled")
	} else {
		log.Warn().Msg("No Notion credentials configured - export endpoints disabled")
	}

	mux := http.NewServeMux()
	h.Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if queue != nil {
		if err := queue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
