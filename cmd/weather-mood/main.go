package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-mood/internal/api/http"
	"github.com/i474232898/weather-mood/internal/config"
	"github.com/i474232898/weather-mood/internal/geo"
	"github.com/i474232898/weather-mood/internal/logger"
	"github.com/i474232898/weather-mood/internal/query"
	"github.com/i474232898/weather-mood/internal/scheduler"
	"github.com/i474232898/weather-mood/internal/weather/providers"
)

func main() {
	// .env must be in the environment before the logger reads LOG_LEVEL.
	envErr := config.LoadDotEnv()

	log := logger.GetLogger()
	defer logger.Close()

	if envErr != nil {
		log.Infow("no .env file loaded", "error", envErr)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	gateway := providers.NewOpenWeatherGateway(
		httpClient,
		cfg.OpenWeatherBaseURL,
		cfg.OpenWeatherAPIKey,
		cfg.RequestsPerSecond,
		cfg.RequestBurst,
	)
	resolver := geo.NewResolver(geo.NewConfigPlatform(cfg.Location.Platform()))

	// The controller outlives individual requests; queries are not cancelled on shutdown.
	controller := query.NewController(context.Background(), gateway, resolver, query.Options{
		HasCredential:     gateway.HasCredential(),
		AutoFetchLocation: cfg.AutoFetchLocation,
	})

	sched := scheduler.New(cfg.RefreshInterval, controller)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-mood",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":          "ok",
			"service":         "weather-mood",
			"providerCircuit": gateway.CircuitState(),
		})
	})

	httpapi.RegisterRoutes(app, controller)

	go func() {
		log.Infow("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}
