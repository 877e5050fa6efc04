// Package app wires the storefront service together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/utafrali/designstudio/internal/cart"
	"github.com/utafrali/designstudio/internal/checkout"
	"github.com/utafrali/designstudio/internal/config"
	"github.com/utafrali/designstudio/internal/event"
	handler "github.com/utafrali/designstudio/internal/handler/http"
	"github.com/utafrali/designstudio/internal/identity"
	identityfs "github.com/utafrali/designstudio/internal/identity/firestore"
	"github.com/utafrali/designstudio/internal/notify"
	orderfs "github.com/utafrali/designstudio/internal/order/firestore"
	"github.com/utafrali/designstudio/internal/storage"
	"github.com/utafrali/designstudio/internal/storage/memory"
	rediskv "github.com/utafrali/designstudio/internal/storage/redis"
	"github.com/utafrali/designstudio/pkg/breaker"
	"github.com/utafrali/designstudio/pkg/health"
	pkgkafka "github.com/utafrali/designstudio/pkg/kafka"
	"github.com/utafrali/designstudio/pkg/middleware"
	"github.com/utafrali/designstudio/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	fs             *firestore.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Cart storage.
	kv, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	// Firebase sign-in and Firestore documents.
	var (
		verifier  identity.TokenVerifier
		directory identity.Directory
		submitter checkout.Submitter
		orders    handler.OrderLookup
	)
	if cfg.FirebaseEnabled() {
		fbApp, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			a.close()
			return nil, err
		}
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
		fs, err := fbApp.Firestore(ctx)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		a.fs = fs

		orderSubmitter := orderfs.NewSubmitter(fs, cfg.OrdersCollection)
		verifier = authClient
		directory = identityfs.NewUserDirectory(fs, cfg.UsersCollection)
		submitter = orderSubmitter
		orders = orderSubmitter
		logger.Info("firebase initialized", slog.String("project_id", cfg.FirebaseProjectID))
	} else {
		logger.Warn("firebase disabled, every session is a guest and orders stay local")
	}

	// Kafka events.
	var (
		observers []cart.Observer
		publisher checkout.OrderPublisher
	)
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events := event.NewProducer(a.producer, logger)
		observers = append(observers, events)
		publisher = events
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	br := breaker.New[struct{}](breaker.Config{
		Name:         "order-submit",
		MaxRequests:  cfg.BreakerHalfOpenProbes,
		Interval:     60 * time.Second,
		Timeout:      cfg.BreakerTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
		MinRequests:  cfg.BreakerMinRequests,
	}, logger)

	notifier := notify.Multi{notify.ContextNotifier{}, notify.NewLogNotifier(logger)}
	checkoutService := checkout.NewService(submitter, br, notifier, publisher, logger, checkout.Options{
		SubmitTimeout: cfg.OrderSubmitTimeout,
		PaymentPage:   cfg.PaymentPage,
	})

	keys := cart.Keys{IdentityPrefix: cfg.CartKeyPrefix, Guest: cfg.GuestCartKey}
	carts := handler.NewCartHandler(kv, keys, observers, nil, logger)

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Carts:    carts,
		Checkout: checkoutService,
		Orders:   orders,
		Session: handler.SessionConfig{
			Verifier:     verifier,
			Directory:    directory,
			CookieSecure: cfg.ProfileCookieSecure,
			Logger:       logger,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSOrigins,
			ExposedHeaders:   []string{middleware.CorrelationIDHeader},
			AllowCredentials: true,
			Environment:      cfg.Environment,
		},
	}, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured cart storage backend and registers its
// health check.
func (a *App) openStorage(ctx context.Context, healthHandler *health.Handler) (storage.KV, error) {
	cfg := a.cfg
	if cfg.StorageBackend == config.StorageMemory {
		a.logger.Warn("using in-memory cart storage, carts are lost on restart")
		return memory.NewKV(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	kv := rediskv.NewKV(rdb, rediskv.DefaultPrefix, cfg.CartTTLDuration())
	healthHandler.Register("redis", kv.Ping)
	return kv, nil
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return fbApp, nil
}

// Handler returns the HTTP handler serving the storefront.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every client that was opened, in reverse order.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.fs != nil {
		if err := a.fs.Close(); err != nil {
			a.logger.Error("firestore close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
