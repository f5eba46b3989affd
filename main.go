package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/username/stockfolio/src/config"
	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/events"
	"github.com/username/stockfolio/src/handlers"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/processors"
	"github.com/username/stockfolio/src/scheduler"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/state"
	"github.com/username/stockfolio/src/utils"
)

func rateLimitMiddleware(rps, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"remoteAddr", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.FromContext(r.Context()).Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Stockfolio backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	store, closeStore := database.OpenStore(config.Cfg.DatabasePath)
	defer closeStore()

	logger.L.Info("Initializing services and handlers...")
	priceService := services.NewPriceService(services.PriceServiceConfig{
		BaseURL:        config.Cfg.PriceAPIBaseURL,
		BatchSize:      config.Cfg.PriceBatchSize,
		BatchPause:     config.Cfg.PriceBatchPause,
		RequestTimeout: config.Cfg.PriceRequestTimeout,
		CacheTTL:       config.Cfg.PriceCacheTTL,
	})
	uploadService := services.NewUploadService(priceService, processors.NewPortfolioProcessor(config.Cfg.TransactionDisplayLimit))
	bus := events.NewBus(events.DefaultBuffer)
	portfolioService := services.NewPortfolioService(
		uploadService,
		priceService,
		state.NewDefaultReducer(config.Cfg.TransactionDisplayLimit),
		store,
		bus,
		services.DefaultSessionExpiration,
	)
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.SessionTokenExpiry)

	sessionHandler := handlers.NewSessionHandler(authService)
	uploadHandler := handlers.NewUploadHandler(portfolioService, config.Cfg.MaxUploadSizeBytes)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	eventsHandler := handlers.NewEventsHandler(bus, config.Cfg.AllowedOrigins)

	var sched *scheduler.Scheduler
	if config.Cfg.PriceRefreshSchedule != "" {
		sched = scheduler.New()
		job := scheduler.NewPriceRefreshJob(portfolioService, store, 0)
		if err := sched.AddJob(config.Cfg.PriceRefreshSchedule, job); err != nil {
			logger.L.Error("Invalid PRICE_REFRESH_SCHEDULE", "schedule", config.Cfg.PriceRefreshSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		logger.L.Info("Scheduler configured", "jobs", sched.Entries())

		// Stored portfolios carry the prices of their last save; bring them up to date once at startup.
		go func() {
			if err := sched.RunNow(job); err != nil {
				logger.L.Warn("Startup price refresh finished with errors", "error", err)
			}
		}()
	}

	logger.L.Info("Configuring routes...")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rateLimitMiddleware(config.Cfg.RateLimitRPS, config.Cfg.RateLimitBurst))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"status": "ok", "message": "Stockfolio backend is running"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		sessionHandler.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(authService))
			uploadHandler.RegisterRoutes(r)
			portfolioHandler.RegisterRoutes(r)
			eventsHandler.RegisterRoutes(r)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	// No WriteTimeout: uploads waiting on price batches and the event stream outlive a fixed deadline.
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Failed to start server", "error", err)
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Server forced to shutdown", "error", err)
		return
	}
	logger.L.Info("Server stopped gracefully.")
}
