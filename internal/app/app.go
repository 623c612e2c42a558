package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/checkscam/checkscam-backend/internal/adapter/kafka/reportevents"
	"github.com/checkscam/checkscam-backend/internal/auth"
	"github.com/checkscam/checkscam-backend/internal/config"
	"github.com/checkscam/checkscam-backend/internal/transport/middleware"
	"github.com/checkscam/checkscam-backend/internal/transport/rest"
)

// Run is the HTTP server entry point. It blocks until ctx is canceled and
// the server has drained.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting checkscam api",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewHandler(core, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if core.Memory != nil && cfg.Kafka.Enabled() {
		consumer, err := newEvictConsumer(cfg.Kafka, core, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer consumer.Close() //nolint:errcheck
			// Losing eviction leaves this replica's LRU stale but must not
			// take the API down with it.
			if err := consumer.Run(gctx); err != nil {
				logger.Error("memory tier eviction stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	return g.Wait()
}

// NewHandler builds the full HTTP handler: global middleware, public lookup
// routes behind the rate limiter, admin routes behind RequireAdmin.
func NewHandler(core *Core, limiter *middleware.RateLimiter) http.Handler {
	cfg := core.Config
	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	handlers := rest.Handlers{
		Lookup: rest.NewLookupHandler(core.Lookup, core.Logger),
		Admin:  rest.NewAdminHandler(core.Admin, core.Lookup, core.Logger),
		Health: rest.NewHealthHandler(BuildVersion(), core.Pings()),
	}

	return rest.NewRouter(handlers, rest.RouterMiddleware{
		Global: []middleware.Middleware{
			middleware.Recovery(core.Logger),
			middleware.RequestID(),
			middleware.Logger(core.Logger),
			middleware.CORS(cfg.CORS),
			middleware.Auth(jwt),
		},
		PublicLimit: limiter.Limit(cfg.RateLimit.LookupPerMinute),
	})
}

// newEvictConsumer subscribes this replica to invalidation notices under its
// own consumer group so that every replica sees every notice and drops its
// LRU copy. Notices are published only after the shared row is deleted, so
// a refill after eviction reads through to the backend.
func newEvictConsumer(cfg config.KafkaConfig, core *Core, logger *slog.Logger) (*reportevents.Consumer, error) {
	if err := cfg.ValidateKafka(); err != nil {
		return nil, err
	}
	groupID := cfg.GroupID + "-evict-" + uuid.NewString()
	reader, err := reportevents.NewKafkaReader(cfg.BrokerList(), groupID, cfg.InvalidatedTopic)
	if err != nil {
		return nil, err
	}
	logger.Info("memory tier eviction enabled",
		slog.String("topic", cfg.InvalidatedTopic),
		slog.String("group_id", groupID),
	)
	return reportevents.NewConsumer(logger, reader, memoryEvictor{mem: core.Memory}), nil
}
