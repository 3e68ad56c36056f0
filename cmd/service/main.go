package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nvuppala/route-planner-service/internal/cache"
	"github.com/nvuppala/route-planner-service/internal/circuitbreaker"
	"github.com/nvuppala/route-planner-service/internal/config"
	"github.com/nvuppala/route-planner-service/internal/health"
	httphandler "github.com/nvuppala/route-planner-service/internal/http"
	"github.com/nvuppala/route-planner-service/internal/network"
	"github.com/nvuppala/route-planner-service/internal/observability"
	"github.com/nvuppala/route-planner-service/internal/service"
	"github.com/nvuppala/route-planner-service/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	dataset, err := network.LoadDataset(cfg.DatasetPath)
	if err != nil {
		logger.Fatal("dataset", zap.Error(err))
	}
	roadNetwork := network.New(dataset)
	logger.Info("road network loaded",
		zap.String("path", cfg.DatasetPath),
		zap.Int("cities", len(roadNetwork.Cities())))

	seed := cfg.WeatherSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var provider weather.Provider
	if cfg.WeatherAPIKey == "" {
		logger.Warn("no weather API key configured; using synthetic fallback weather")
		provider = weather.NewFallbackProvider(seed)
	} else {
		owp, err := weather.NewOpenWeatherProvider(
			cfg.WeatherAPIKey,
			cfg.WeatherAPIURL,
			cfg.WeatherAPITimeout,
			cfg.RetryAttempts,
			cfg.RetryBaseDelay,
			cfg.RetryMaxDelay,
			seed,
		)
		if err != nil {
			logger.Fatal("weather provider", zap.Error(err))
		}
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Cooldown:         cfg.BreakerCooldown,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition("weather_api", from.String(), to.String())
				observability.SetCircuitBreakerStateGauge("weather_api", float64(to))
			},
		})
		owp.SetCircuitBreaker(cb)
		observability.SetCircuitBreakerStateGauge("weather_api", 0)
		provider = owp
		logger.Info("weather provider configured",
			zap.String("url", cfg.WeatherAPIURL),
			zap.Int("breaker_failure_threshold", cfg.BreakerFailureThreshold),
			zap.Duration("breaker_cooldown", cfg.BreakerCooldown))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	tracker := &health.ProviderTracker{}
	ingestor := weather.NewIngestor(roadNetwork, provider, tracker, logger, seed)
	routingService := service.NewRoutingService(roadNetwork, cacheSvc, cfg.CacheBackend, cfg.CacheTTL)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(routingService, ingestor, tracker, healthConfig, logger)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/cities", handler.GetCities).Methods("GET")
	apiRouter.HandleFunc("/city_coords", handler.GetCityCoords).Methods("GET")
	apiRouter.HandleFunc("/route", handler.PlanRoute).Methods("POST")
	apiRouter.HandleFunc("/update_weather", handler.UpdateWeather).Methods("POST")

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Correlation-ID"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      corsWrapper.Handler(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	httphandler.SetDraining(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	if inFlight > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		if err := httphandler.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed",
				zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
