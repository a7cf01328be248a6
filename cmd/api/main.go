package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"jewels/internal/auth"
	"jewels/internal/db"
	"jewels/internal/imageurl"
	"jewels/internal/ratelimiter"
	"jewels/internal/store"
	"jewels/internal/uploads"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "1.0.0"

// NewLogger creates a console zap logger with colored levels.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.InfoLevel,
	)
	return zap.New(core).Sugar(), nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	apiURL := strings.TrimRight(envString("EXTERNAL_URL", "http://localhost:8080"), "/")

	var legacyHosts []string
	for _, host := range strings.Split(os.Getenv("LEGACY_IMAGE_HOSTS"), ",") {
		if host = strings.TrimSpace(host); host != "" {
			legacyHosts = append(legacyHosts, host)
		}
	}

	cfg := config{
		addr:        envString("ADDR", ":8080"),
		env:         envString("ENV", "development"),
		apiURL:      apiURL,
		uploadDir:   envString("UPLOAD_DIR", "uploads"),
		legacyHosts: legacyHosts,
		whatsapp:    envString("WHATSAPP_NUMBER", ""),
		db: dbConfig{
			addr:         os.Getenv("DB_ADDR"),
			maxOpenConns: envInt("DB_MAX_OPEN_CONNS", 30),
			maxIdleConns: envInt("DB_MAX_IDLE_CONNS", 30),
			maxIdleTime:  envString("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			secret:          os.Getenv("AUTH_TOKEN_SECRET"),
			refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
			accessTokenExp:  time.Hour * 24,
			refreshTokenExp: time.Hour * 24 * 7,
			iss:             "jewels",
		},
		admin: adminConfig{
			username: envString("ADMIN_USERNAME", "admin"),
			password: os.Getenv("ADMIN_PASSWORD"),
		},
		rateLimiter: ratelimiter.Config{
			RequestsPerTimeFrame: envInt("RATELIMITER_REQUESTS_COUNT", 200),
			TimeFrame:            5 * time.Second,
			Enabled:              envBool("RATE_LIMITER_ENABLED", false),
		},
	}

	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.New(
		cfg.db.addr,
		cfg.db.maxOpenConns,
		cfg.db.maxIdleConns,
		cfg.db.maxIdleTime,
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer database.Close()
	logger.Info("database connection pool established")

	ctx := context.Background()
	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal(err)
	}

	storage := store.NewStorage(database)

	if err := db.SeedAdmin(ctx, storage, cfg.admin.username, cfg.admin.password); err != nil {
		logger.Fatal(err)
	}

	assetStore, err := uploads.NewLocal(cfg.uploadDir)
	if err != nil {
		logger.Fatal(err)
	}

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.secret,
		cfg.auth.refreshSecret,
		cfg.auth.iss,
		cfg.auth.iss,
		cfg.auth.accessTokenExp,
		cfg.auth.refreshTokenExp,
	)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	app := &application{
		config:        cfg,
		store:         storage,
		logger:        logger,
		uploads:       assetStore,
		images:        imageurl.New(cfg.apiURL, cfg.legacyHosts...),
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	logger.Infow("starting jewels api", "version", version)
	logger.Fatal(app.run(app.mount()))
}
