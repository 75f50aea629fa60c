package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"github.com/redis/go-redis/v9"

	"akademiku_backend/internals/configs"
	database "akademiku_backend/internals/databases"
	classService "akademiku_backend/internals/features/academy/classes/service"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	"akademiku_backend/internals/features/academy/enrollments/scheduler"
	enrollService "akademiku_backend/internals/features/academy/enrollments/service"
	refundService "akademiku_backend/internals/features/academy/refunds/service"
	"akademiku_backend/internals/features/notifications/push"
	notifService "akademiku_backend/internals/features/notifications/service"
	"akademiku_backend/internals/features/notifications/socket"
	helper "akademiku_backend/internals/helpers"
	middlewares "akademiku_backend/internals/middlewares"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
	"akademiku_backend/internals/repository"
	"akademiku_backend/internals/repository/inmem"
	routes "akademiku_backend/internals/route"
	routeDetails "akademiku_backend/internals/route/details"
	"akademiku_backend/internals/seeds"
)

func main() {
	cfg := configs.LoadEnv()
	loc := cfg.Location()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.FromFiberError, // error dari middleware (401 JWT, dsb)
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("requestid", id)
		// HTTP timeout guard (selaras dengan statement_timeout di DB)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	middlewares.SetupMiddlewares(app, cfg, loc)

	// 🔌 Storage: postgres (default) atau memory (lokal)
	var (
		store repository.Store
		ping  func() error
	)
	switch cfg.DBDriver {
	case "memory":
		mem := inmem.New()
		if cfg.SeedFile != "" {
			n, err := mem.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				log.Fatalf("❌ Seed memory gagal: %v", err)
			}
			log.Printf("✅ Seed memory: %d baris direktori", n)
		}
		log.Println("⚠️ DB_DRIVER=memory, data hilang saat restart")
		store = mem
		ping = func() error { return nil }
	default:
		database.ConnectDB(cfg)
		database.TunePool()
		if cfg.DBMigrate {
			if err := database.AutoMigrate(database.DB); err != nil {
				log.Fatalf("❌ AutoMigrate gagal: %v", err)
			}
		}
		if err := seeds.RunAllSeeds(database.DB, cfg.SeedFile); err != nil {
			log.Fatalf("❌ Seed gagal: %v", err)
		}
		database.WarmUpQueries()
		store = repository.NewGormStore(database.DB)
		ping = database.Ping
	}

	// 📡 Redis (opsional): fan-out socket + blacklist token
	var rdb *redis.Client
	var blacklist func(string) (bool, error)
	var revoke authMiddleware.Revoker
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("⚠️ Redis tidak bisa dihubungi (%v), socket jalan single-instance", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			blacklist = authMiddleware.RedisBlacklist(rdb)
			revoke = func(ctx context.Context, raw string, ttl time.Duration) error {
				return authMiddleware.RevokeToken(ctx, rdb, raw, ttl)
			}
			log.Println("✅ Redis connected.")
		}
		cancel()
	}

	hub := socket.NewHub(rdb, cfg.RedisChannel)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// 📨 Push queue (RabbitMQ), fallback ke log
	var publisher push.Publisher = push.LogPublisher{}
	if cfg.AMQPURL != "" {
		if p, err := push.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			log.Printf("⚠️ RabbitMQ tidak tersedia (%v), push hanya di-log", err)
		} else {
			publisher = p
			log.Println("✅ RabbitMQ connected.")
		}
	}

	notifier := notifService.NewNotifier(store, hub, publisher, cfg.NotifyTimeout)
	ledger := occupancy.New()

	enrollments := enrollService.NewEnrollmentService(store, ledger, notifier)
	services := routeDetails.Services{
		Sessions:    classService.NewSessionService(store, loc),
		Enrollments: enrollments,
		Refunds:     refundService.NewRefundService(store, ledger, notifier),
		Inbox:       notifService.NewInbox(store),
	}

	// ⏱ sweep reservasi PENDING yang sesinya sudah mulai
	sweepCron, err := scheduler.StartSweepScheduler(enrollments, cfg.SweepCron)
	if err != nil {
		log.Fatalf("❌ SWEEP_CRON tidak valid: %v", err)
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Options{
		JWTSecret:        cfg.JWTSecret,
		BlacklistChecker: blacklist,
		Revoke:           revoke,
		Services:         services,
		Hub:              hub,
		Ping:             ping,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: http → cron → notifikasi yang masih jalan → koneksi luar
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-sweepCron.Stop().Done()
	notifier.Wait()
	stopHub()
	_ = publisher.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
