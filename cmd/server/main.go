// Package main is the entry point for the ledger API.
// It wires the store, cache, notifiers and proof storage, then serves HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"hydrofund/internal/config"
	"hydrofund/internal/repositories"
	"hydrofund/internal/repositories/cache"
	"hydrofund/internal/repositories/memstore"
	"hydrofund/internal/routes"
	"hydrofund/internal/services/deposit"
	"hydrofund/internal/services/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtSecret := config.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		if config.IsProduction() {
			log.Fatal("JWT_SECRET must be set in production")
		}
		jwtSecret = "dev-secret"
		log.Println("⚠️ JWT_SECRET not set, using development secret")
	}

	deps := routes.Dependencies{
		Ledger:    config.LoadLedgerConfig(),
		JWTSecret: jwtSecret,
		RateLimit: config.GetFloatEnv("COMMAND_RATE_LIMIT", 2),
		RateBurst: config.GetIntEnv("COMMAND_RATE_BURST", 5),
	}

	dbCfg := config.LoadDBConfig()
	switch dbCfg.Driver {
	case "memory":
		deps.Store = memstore.New()
		log.Println("⚠️ Using in-memory store; data is lost on restart")
	default:
		db, err := repositories.InitDB(dbCfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database instance: %v", err)
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close database connection: %v", err)
			}
		}()

		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					stats := sqlDB.Stats()
					log.Printf("DB Stats: Open=%d, Idle=%d, InUse=%d, WaitCount=%d, WaitDuration=%s",
						stats.OpenConnections, stats.Idle, stats.InUse, stats.WaitCount, stats.WaitDuration)
				}
			}
		}()
		deps.Store = repositories.NewStore(db)
	}

	if config.GetEnv("REDIS_HOST", "") != "" {
		client := cache.NewRedisClient(cache.LoadRedisConfig())
		cacheSvc := cache.NewCacheService(client, config.GetDurationEnv("WALLET_CACHE_TTL", 5*time.Minute))
		if err := cacheSvc.HealthCheck(ctx); err != nil {
			log.Printf("⚠️ Redis unavailable, wallet cache disabled: %v", err)
			_ = cacheSvc.Close()
		} else {
			deps.Cache = cacheSvc
			defer func() {
				if err := cacheSvc.Close(); err != nil {
					log.Printf("⚠️ Failed to close Redis connection: %v", err)
				}
			}()
			go cacheSvc.MonitorPool(ctx, time.Minute)
			log.Println("✅ Redis wallet cache enabled")
		}
	}

	notifiers := []notification.Notifier{notification.LogNotifier{}}
	if token := config.GetEnv("TELEGRAM_BOT_TOKEN", ""); token != "" {
		chatID, err := strconv.ParseInt(config.GetEnv("TELEGRAM_ADMIN_CHAT_ID", ""), 10, 64)
		if err != nil {
			log.Fatalf("TELEGRAM_ADMIN_CHAT_ID must be a chat id: %v", err)
		}
		tg, err := notification.NewTelegramNotifier(token, chatID,
			notification.WithdrawalRequested, notification.DepositSubmitted)
		if err != nil {
			log.Printf("⚠️ Telegram notifications disabled: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	dispatcher := notification.NewDispatcher(10*time.Second, notifiers...)
	defer dispatcher.Wait()
	deps.Publisher = dispatcher

	if s3Cfg := config.LoadS3Config(); s3Cfg.Bucket != "" {
		proofs, err := deposit.NewS3ProofStore(ctx, s3Cfg)
		if err != nil {
			log.Fatalf("Failed to configure proof storage: %v", err)
		}
		deps.Proofs = proofs
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 6 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("IP_RATE_LIMIT", 120),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"reason":  "RATE_LIMITED",
				"message": "Too many requests. Please try again later.",
			})
		},
	}))

	commands := routes.SetupRoutes(app, deps)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := commands.Sweep(10 * time.Minute); n > 0 {
					log.Printf("command limiter: dropped %d idle users", n)
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
