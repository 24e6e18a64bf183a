package main

import (
	"context"
	"net/http"
	"time"

	extractionhandler "github.com/cardiolens/cardiolens-backend/internal/extraction/handler"
	feedbackhandler "github.com/cardiolens/cardiolens-backend/internal/feedback/handler"
	"github.com/cardiolens/cardiolens-backend/internal/pages"
	riskhandler "github.com/cardiolens/cardiolens-backend/internal/risk/handler"
	"github.com/cardiolens/cardiolens-backend/pkg/config"
	"github.com/cardiolens/cardiolens-backend/pkg/httputil"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type routerDeps struct {
	cfg        *config.Config
	log        *logger.Logger
	extraction *extractionhandler.Handler
	risk       *riskhandler.Handler
	feedback   *feedbackhandler.Handler
	pages      *pages.Handler
	health     func(ctx context.Context) map[string]interface{}
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(d.log))
	r.Use(httputil.Recoverer(d.log))

	timeout := d.cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 110 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, d.health(r.Context()))
	})

	// JSON API
	r.Post("/extract", d.extraction.Extract)
	r.Post("/predict", d.risk.Predict)
	r.Post("/feedback", d.feedback.Submit)

	// Frontend
	r.Get("/", d.pages.Page(pages.PageIndex))
	r.Get("/about", d.pages.Page(pages.PageAbout))
	r.Get("/analyser", d.pages.Page(pages.PageAnalyser))
	r.Get("/contact", d.pages.Page(pages.PageContact))
	r.Handle("/static/*", pages.Static())

	return r
}
