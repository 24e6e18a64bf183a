package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	extractionhandler "github.com/cardiolens/cardiolens-backend/internal/extraction/handler"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/ocr"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/processor"
	extractionservice "github.com/cardiolens/cardiolens-backend/internal/extraction/service"
	feedbackhandler "github.com/cardiolens/cardiolens-backend/internal/feedback/handler"
	"github.com/cardiolens/cardiolens-backend/internal/feedback/repository"
	feedbackservice "github.com/cardiolens/cardiolens-backend/internal/feedback/service"
	"github.com/cardiolens/cardiolens-backend/internal/pages"
	"github.com/cardiolens/cardiolens-backend/internal/risk/classifier"
	riskhandler "github.com/cardiolens/cardiolens-backend/internal/risk/handler"
	riskservice "github.com/cardiolens/cardiolens-backend/internal/risk/service"
	"github.com/cardiolens/cardiolens-backend/pkg/config"
	"github.com/cardiolens/cardiolens-backend/pkg/database"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
	"github.com/cardiolens/cardiolens-backend/pkg/messaging"
)

const serviceName = "cardiolens"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	logger.SetLevel(cfg.Server.LogLevel)
	log.Info().Msg("starting CardioLens")

	ctx := context.Background()

	// Event publishing is optional
	var publisher messaging.EventPublisher = messaging.NopPublisher{}
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled() {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
		} else {
			defer rmq.Close()
			p, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, serviceName, log)
			if err != nil {
				log.Warn().Err(err).Msg("failed to create event publisher, events disabled")
			} else {
				publisher = p
			}
		}
	}

	// Classifier: a load failure leaves predictions unavailable, not the process
	model, err := classifier.New(cfg.Model)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Model.Backend).Str("path", cfg.Model.Path).Msg("model failed to load, predictions disabled")
	} else {
		log.Info().Str("backend", model.Name()).Msg("model loaded")
	}

	// Feedback sink
	var sink repository.Log
	switch cfg.Feedback.Driver {
	case config.FeedbackDriverPostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pg := repository.NewPostgresLog(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate feedback schema")
		}
		sink = pg
	default:
		fl, err := repository.NewFileLog(cfg.Feedback.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open feedback log")
		}
		sink = fl
	}

	// OCR pipeline
	engine := ocr.NewEngine(ocr.NewExecRunner(log.WithComponent("ocr")), cfg.OCR)
	images := processor.NewImageProcessor(engine, log)
	registry := processor.NewRegistry(processor.NewPDFProcessor(engine, images), images)

	// Initialize services
	extractionService := extractionservice.NewService(registry, cfg.OCR.TempDir, publisher, log)
	riskService := riskservice.NewService(model, publisher, log)
	feedbackService := feedbackservice.NewService(sink, publisher, log)

	// Initialize handlers
	pageHandler, err := pages.NewHandler(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse page templates")
	}

	r := newRouter(routerDeps{
		cfg:        cfg,
		log:        log,
		extraction: extractionhandler.NewHandler(extractionService, cfg.Extraction.MaxUploadBytes, log),
		risk:       riskhandler.NewHandler(riskService, log),
		feedback:   feedbackhandler.NewHandler(feedbackService, log),
		pages:      pageHandler,
		health: func(ctx context.Context) map[string]interface{} {
			status := map[string]interface{}{
				"status":  "healthy",
				"service": serviceName,
				"model": map[string]interface{}{
					"backend":   riskService.ModelName(),
					"available": riskService.ModelAvailable(),
				},
				"feedback": feedbackService.Health(ctx),
			}
			if rmq != nil {
				status["rabbitmq"] = rmq.Health()
			} else {
				status["rabbitmq"] = map[string]string{"status": "disabled"}
			}
			return status
		},
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
