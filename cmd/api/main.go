package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"foodspot/internal/auth"
	"foodspot/internal/db"
	"foodspot/internal/discovery"
	"foodspot/internal/domain/storage"
	"foodspot/internal/events"
	"foodspot/internal/geocode"
	"foodspot/internal/leaderboard"
	"foodspot/internal/mailer"
	"foodspot/internal/metrics"
	"foodspot/internal/push"
	"foodspot/internal/ratelimiter"
	"foodspot/internal/realtime"
	"foodspot/internal/sharecode"
	"foodspot/internal/toggle"

	"github.com/9ssi7/exponent"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const backfillInterval = 10 * time.Minute

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 20
	defaultTimeFrame := 5 * time.Second
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATE_LIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil && parsedVal > 0 {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	timeFrame := defaultTimeFrame
	if val, exists := os.LookupEnv("RATE_LIMITER_TIME_FRAME"); exists {
		if parsedVal, err := time.ParseDuration(val); err == nil && parsedVal > 0 {
			timeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_TIME_FRAME, defaulting to", defaultTimeFrame)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            timeFrame,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s, defaulting to %d", key, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s, defaulting to %s", key, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadConfig() config {
	return config{
		addr:        envOr("ADDR", ":8080"),
		env:         envOr("ENV", "development"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      envOr("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(envInt("DB_MAX_CONNS", 30)),
			maxIdleTime: envOr("DB_MAX_IDLE_TIME", "15m"),
		},
		mail: mailConfig{
			fromEmail:  os.Getenv("MAIL_FROM_EMAIL"),
			adminEmail: os.Getenv("ADMIN_EMAIL"),
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     envInt("SMTP_PORT", 587),
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				aud:    envOr("AUTH_TOKEN_AUD", "authenticated"),
				iss:    os.Getenv("AUTH_TOKEN_ISS"),
			},
		},
		geocode: geocodeConfig{
			baseURL:   envOr("GEOCODE_BASE_URL", geocode.DefaultBaseURL),
			region:    envOr("GEOCODE_REGION", geocode.DefaultRegion),
			userAgent: envOr("GEOCODE_USER_AGENT", "foodspot-api/"+version),
			cache:     envOr("GEOCODE_CACHE", "memory"),
			timeout:   envDuration("GEOCODE_TIMEOUT", 10*time.Second),
		},
		redis: redisConfig{
			addr:     envOr("REDIS_ADDR", "localhost:6379"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       envInt("REDIS_DB", 0),
		},
		rateLimiter: LoadRateLimiterConfig(),
		leaderboard: leaderboardConfig{
			denylist: splitList(os.Getenv("LEADERBOARD_DENYLIST")),
			limit:    envInt("LEADERBOARD_LIMIT", 50),
		},
		shareSalt: os.Getenv("SHARE_CODE_SALT"),
	}
}

func newGeocodeCache(ctx context.Context, cfg config, logger *zap.SugaredLogger) (geocode.Cache, func()) {
	if cfg.geocode.cache != "redis" {
		return geocode.NewMemoryCache(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redis.addr,
		Password: cfg.redis.password,
		DB:       cfg.redis.db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnw("redis unavailable, using in-memory geocode cache", "addr", cfg.redis.addr, "error", err)
		rdb.Close()
		return geocode.NewMemoryCache(), func() {}
	}
	logger.Infow("geocode cache backed by redis", "addr", cfg.redis.addr)
	return geocode.NewRedisCache(rdb), func() { rdb.Close() }
}

var version = "0.1.0"

//	@title			Foodspot API
//	@description	API for Foodspot, a community guide to local food spots.

//	@contact.name	API Support

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := loadConfig()

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if cfg.auth.token.secret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.New(ctx, db.Config{
		Addr:        cfg.db.addr,
		MaxConns:    cfg.db.maxConns,
		MaxIdleTime: cfg.db.maxIdleTime,
	})
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	store := storage.NewContainer(pool)

	// Cloudinary
	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		logger.Fatal(err)
	}

	// Mailer is optional; the contact endpoint reports 503 without it.
	var mail mailer.Client
	smtp, err := mailer.NewSMTPMailer(
		cfg.mail.smtp.host,
		cfg.mail.smtp.port,
		cfg.mail.smtp.username,
		cfg.mail.smtp.password,
		cfg.mail.fromEmail,
	)
	switch {
	case errors.Is(err, mailer.ErrNotConfigured):
		logger.Warn("smtp not configured, contact emails disabled")
	case err != nil:
		logger.Fatal(err)
	default:
		mail = smtp
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Geocoding
	cache, closeCache := newGeocodeCache(ctx, cfg, logger)
	defer closeCache()

	geocoder := geocode.New(
		geocode.WithBaseURL(cfg.geocode.baseURL),
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.geocode.timeout}),
		geocode.WithRegion(cfg.geocode.region),
		geocode.WithUserAgent(cfg.geocode.userAgent),
		geocode.WithCache(cache),
		geocode.WithRecorder(m),
		geocode.WithLogger(logger),
		geocode.WithBreaker(geocode.BreakerSettings{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		}),
	)

	shareCodes, err := sharecode.New(cfg.shareSalt)
	if err != nil {
		logger.Fatal(err)
	}

	// Events fan out to websocket clients and Expo push.
	bus := events.NewBus()

	hub := realtime.NewHub(logger)
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("realtime hub stopped", "error", err)
		}
	}()
	hub.Attach(bus)

	notifier := push.NewNotifier(push.NewExpoAdapter(exponent.NewClient()), store.PushTokens, logger)
	notifier.Attach(bus)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	go rateLimiter.Run(ctx)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		store:         store,
		logger:        logger,
		media:         &cld.Upload,
		mailer:        mail,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		geocoder:      geocoder,
		discovery:     discovery.NewService(store.Spots, store.Reviews, geocoder),
		toggles: toggle.New(func(kind toggle.Kind, state toggle.State) {
			m.ToggleOutcome(string(kind), state.String())
		}),
		ranker:     leaderboard.NewRanker(cfg.leaderboard.denylist),
		shareCodes: shareCodes,
		bus:        bus,
		hub:        hub,
		metrics:    m,
		registry:   registry,
	}

	go app.runGeocodeBackfill(ctx, backfillInterval)

	// Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return pool.Stat().TotalConns()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("websocket_clients", expvar.Func(func() any {
		return hub.ClientCount()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
