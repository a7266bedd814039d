package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dentago-admin/internal/api/router"
	"github.com/wolfman30/dentago-admin/internal/apiclient"
	"github.com/wolfman30/dentago-admin/internal/appointments"
	appconfig "github.com/wolfman30/dentago-admin/internal/config"
	"github.com/wolfman30/dentago-admin/internal/doctors"
	"github.com/wolfman30/dentago-admin/internal/http/handlers"
	"github.com/wolfman30/dentago-admin/internal/media"
	"github.com/wolfman30/dentago-admin/internal/observability/metrics"
	"github.com/wolfman30/dentago-admin/internal/profile"
	"github.com/wolfman30/dentago-admin/internal/token"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildTokenSource orders the places a token can come from: the caller's
// own bearer token, then the shared store, then the static fallback. The
// last two are consulted only when cfg.AllowStoredToken is set; otherwise a
// request without a bearer token fails as unauthenticated.
func BuildTokenSource(cfg *appconfig.Config, redisClient *redis.Client) token.Source {
	chain := token.Chain{token.ContextSource{}}
	if !cfg.AllowStoredToken {
		return chain
	}
	if redisClient != nil {
		chain = append(chain, token.NewRedisStore(redisClient, cfg.TokenKey, cfg.TokenFallbackKeys...))
	}
	if strings.TrimSpace(cfg.StaticAccessToken) != "" {
		chain = append(chain, token.Static(cfg.StaticAccessToken))
	}
	return chain
}

// Runtime is everything main needs to serve.
type Runtime struct {
	Client *apiclient.Client
	Router *router.Config
	Redis  *redis.Client
}

// Close releases the Redis connection, if any.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Redis == nil {
		return nil
	}
	return rt.Redis.Close()
}

// BuildRuntime wires the API client, repositories and handlers. reg may be
// nil, in which case the default Prometheus registry is used.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		registerer    prometheus.Registerer = prometheus.DefaultRegisterer
		metricsHandle                       = promhttp.Handler()
	)
	if reg != nil {
		registerer = reg
		metricsHandle = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	var redisClient *redis.Client
	if cfg.AllowStoredToken {
		redisClient = BuildRedisClient(ctx, cfg, logger, true)
	} else if cfg.RedisAddr != "" || cfg.StaticAccessToken != "" {
		logger.Warn("stored operator token ignored; callers must send their own bearer token",
			"enable_with", "DENTAGO_ALLOW_STORED_TOKEN=true")
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Tokens:  BuildTokenSource(cfg, redisClient),
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
		Metrics: metrics.NewClientMetrics(registerer),
	})
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("bootstrap: api client: %w", err)
	}
	uploader, err := media.NewUploader(client, cfg.ImagesBaseURL, logger)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("bootstrap: uploader: %w", err)
	}

	logger.Info("dentago api client ready",
		"base_url", cfg.APIBaseURL,
		"stored_token_fallback", cfg.AllowStoredToken,
		"token_store", redisClient != nil,
	)

	return &Runtime{
		Client: client,
		Redis:  redisClient,
		Router: &router.Config{
			Logger:             logger,
			Appointments:       handlers.NewAppointmentsHandler(appointments.NewRepository(client, logger), logger),
			Doctors:            handlers.NewDoctorsHandler(doctors.NewRepository(client, logger), logger),
			Profile:            handlers.NewProfileHandler(profile.NewRepository(client, logger), logger),
			Uploads:            handlers.NewUploadsHandler(uploader, logger),
			MetricsHandler:     metricsHandle,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			StartedAt:          time.Now(),
		},
	}, nil
}
