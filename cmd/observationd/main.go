package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ManuelReschke/ObservationDesk/app/repository"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/cache"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/constants"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/dashboard"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/database"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/env"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := NewApplication(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "5000"))
	log.Printf("Server running on http://%s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

func NewApplication(ctx context.Context) (*fiber.App, func(), error) {
	env.SetupEnvFile()

	client, db, err := database.SetupDatabase(ctx, database.ConfigFromEnv())
	if err != nil {
		return nil, nil, err
	}
	cacheClient := cache.SetupCache(ctx)

	// a nil storage keeps the limiter counters in memory
	var limiterStorage fiber.Storage
	if cacheClient != nil {
		limiterStorage = cache.NewLimiterStorage(cacheClient)
	}

	cleanup := func() {
		if limiterStorage != nil {
			_ = limiterStorage.Close()
		}
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Printf("MongoDB disconnect error: %v", err)
		}
	}

	factory := repository.NewFactory(db)
	observations := factory.GetObservationRepository()
	dashboardService := dashboard.NewService(observations, dashboard.SystemClock, dashboard.Config{
		CreatedAtFallback: env.GetEnvBool("DASHBOARD_CREATED_AT_FALLBACK", true),
	})

	app := fiber.New(newFiberConfig())

	// recovery and logging
	app.Use(recover.New(), requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}), logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ORIGINS", "*"),
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete}, ","),
	}))

	// fiber metrics
	app.Get(constants.MetricsRoute, monitor.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: constants.DocsBasePath,
		FilePath: findProjectFile("public/docs/v1/openapi.yml"),
		Path:     constants.DocsVersion,
	}))

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Observations:   observations,
		Dashboard:      dashboardService,
		QueryTimeout:   env.GetEnvDuration("DB_QUERY_TIMEOUT", 10*time.Second),
		HealthCheck:    healthCheck(client, cacheClient),
		LimiterStorage: limiterStorage,
		RateLimitMax:   env.GetEnvInt("RATE_LIMIT_MAX", 120),
	})

	return app, cleanup, nil
}

// newFiberConfig prints the route table on startup in dev.
func newFiberConfig() fiber.Config {
	return fiber.Config{
		AppName:           "ObservationDesk",
		BodyLimit:         1 << 20, // 1 MiB
		EnablePrintRoutes: env.IsDev(),
	}
}

func healthCheck(client *mongo.Client, cacheClient *goredis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := database.Ping(ctx, client); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
		if cacheClient != nil {
			if err := cache.Ping(ctx, cacheClient); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
		}
		return nil
	}
}

// findProjectFile resolves rel against the working directory or the project root
// when started from cmd/observationd.
func findProjectFile(rel string) string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/observationd to project root
		"../../../", // Fallback
	}
	for _, base := range basePaths {
		if _, err := os.Stat(base + rel); err == nil {
			return base + rel
		}
	}
	return rel
}
