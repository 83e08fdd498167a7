package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsio "github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"

	natsadapter "github.com/velmart/storefront/internal/adapter/nats"
	redisadapter "github.com/velmart/storefront/internal/adapter/redis"
	"github.com/velmart/storefront/internal/app/config"
	"github.com/velmart/storefront/internal/platform/logger"
	"github.com/velmart/storefront/internal/repository"
	"github.com/velmart/storefront/internal/rpc"
	"github.com/velmart/storefront/internal/service"
)

type App struct {
	cfg         *config.Config
	log         logger.Logger
	session     *service.Session
	settings    repository.SettingsStore
	redisClient *goredis.Client
	natsConn    *natsio.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, Backend=%s", cfg.Env, cfg.Backend.BaseURL)

	appLogger.Info("Initializing Redis client...")
	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Errorf("Failed to initialize Redis client: %v", err)
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized successfully")

	settings := redisadapter.NewSettingsStore(redisClient)

	// Persisted user settings take precedence over the static configuration.
	baseURL := cfg.Backend.BaseURL
	if v, err := settings.Get(ctx, repository.SettingBackendURL); err == nil && v != "" {
		baseURL = v
	}
	authToken := cfg.Backend.AuthToken
	if v, err := settings.Get(ctx, repository.SettingAuthToken); err == nil && v != "" {
		authToken = v
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		appLogger.Warnf("Failed to read persisted auth token: %v", err)
	}
	locale := cfg.Backend.Locale
	if v, err := settings.Get(ctx, repository.SettingLocale); err == nil && v != "" {
		locale = v
	}

	var natsConn *natsio.Conn
	var publisher natsadapter.MessagePublisher
	if cfg.NATS.Enabled {
		appLogger.Info("Connecting to NATS...")
		natsConn, err = natsadapter.NewConnection(cfg.NATS)
		if err != nil {
			appLogger.Errorf("Failed to connect to NATS: %v", err)
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher, err = natsadapter.NewPublisher(natsConn)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		appLogger.Info("NATS publisher initialized")
	}

	client, err := rpc.NewClient(rpc.ClientConfig{
		BaseURL:   baseURL,
		AuthToken: authToken,
		Timeout:   cfg.Backend.RequestTimeout,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}
	client.AddHook(func(info rpc.CallInfo) {
		if info.Err != nil {
			appLogger.Warnf("Backend call %s failed after %s: %v", info.Endpoint, info.Duration, info.Err)
			return
		}
		appLogger.Debugf("Backend call %s -> %d in %s", info.Endpoint, info.StatusCode, info.Duration)
	})

	session := service.NewSession(client, settings, publisher, appLogger, service.SessionConfig{
		Locale:            locale,
		PageSize:          cfg.Catalog.PageSize,
		CarouselLimit:     cfg.Catalog.CarouselLimit,
		FulfillmentMethod: cfg.Cart.FulfillmentMethod,
		TrackingInterval:  cfg.Tracking.PollInterval,
		OnCartSyncError: func(err error) {
			appLogger.Warnf("Cart synchronization error: %v", err)
		},
	})
	appLogger.Info("Session initialized")

	return &App{
		cfg:         cfg,
		log:         appLogger,
		session:     session,
		settings:    settings,
		redisClient: redisClient,
		natsConn:    natsConn,
	}, nil
}

func (a *App) Session() *service.Session {
	return a.session
}

func (a *App) Run() {
	a.log.Info("Starting storefront session...")

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.bootstrap(runCtx); err != nil {
		a.log.Errorf("Session bootstrap incomplete: %v", err)
	}

	go a.session.Tracking.Run(runCtx)
	a.log.Info("Order tracking poller started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down...", receivedSignal)

	cancel()
	a.session.Cart.Flush()

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	a.log.Info("Storefront shut down successfully")
}

// bootstrap brings the session to a usable state: store list, active store,
// cart mirror and landing composition. Partial failures are logged and left
// for the embedding application to retry region by region.
func (a *App) bootstrap(ctx context.Context) error {
	stores, err := a.session.LoadStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stores: %w", err)
	}
	a.log.Infof("Loaded %d stores", len(stores))

	restored, err := a.session.RestoreSelectedStore(ctx)
	if err != nil {
		a.log.Warnf("Failed to restore persisted store: %v", err)
	}
	if !restored && len(stores) > 0 {
		if err := a.session.SelectStore(ctx, stores[0].ID); err != nil {
			return fmt.Errorf("failed to select store: %w", err)
		}
	}

	if _, err := a.session.Cart.LoadCart(ctx); err != nil {
		a.log.Warnf("Failed to load cart: %v", err)
	}

	if err := a.session.Content.Load(ctx); err != nil {
		return fmt.Errorf("failed to load landing composition: %w", err)
	}

	start := time.Now()
	a.session.Content.LoadCarousels(ctx)
	a.log.Infof("Carousel previews settled in %s", time.Since(start))
	return nil
}
