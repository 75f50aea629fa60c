package configs

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// AppConfig berisi semua konfigurasi runtime (di-load dari ENV).
type AppConfig struct {
	Port string `envconfig:"PORT" default:"3000"`

	// Database
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres | memory
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
	DBLogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`
	DBMigrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	// File JSON berisi akademi + kelas awal (memory: selalu dimuat, postgres: insert yang belum ada)
	SeedFile string `envconfig:"SEED_FILE"`

	// Auth + HTTP
	JWTSecret   string `envconfig:"JWT_SECRET"`
	CorsOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`

	// Zona waktu akademi (dipakai untuk tanggal + jam sesi)
	Timezone string `envconfig:"APP_TIMEZONE" default:"Asia/Seoul"`

	// Notifikasi
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisChannel  string        `envconfig:"REDIS_CHANNEL" default:"akademiku:socket"`
	AMQPURL       string        `envconfig:"AMQP_URL"`
	AMQPExchange  string        `envconfig:"AMQP_EXCHANGE" default:"akademiku.push"`
	NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	// Cron trigger untuk sweep reservasi PENDING yang sesinya sudah mulai
	SweepCron string `envconfig:"SWEEP_CRON" default:"@every 5m"`
}

var (
	JWTSecret string
	Config    AppConfig
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() AppConfig {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("❌ Konfigurasi tidak valid: %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}

	JWTSecret = cfg.JWTSecret
	Config = cfg
	return cfg
}

// Load membaca ENV ke AppConfig tanpa menyentuh .env
func Load() (AppConfig, error) {
	var c AppConfig
	err := envconfig.Process("", &c)
	return c, err
}

// Location mengembalikan zona waktu akademi, fallback ke UTC.
func (c AppConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone)); err == nil {
		return loc
	}
	log.Printf("[WARN] APP_TIMEZONE %q tidak dikenal, pakai UTC", c.Timezone)
	return time.UTC
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(level string) gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      parseLogLevel(level),
	}
}

func parseLogLevel(s string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !strings.Contains(err.Error(), "record not found"):
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
