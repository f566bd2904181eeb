package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studyspace/backend/libs/db"
	libmetrics "studyspace/backend/libs/metrics"
	libredis "studyspace/backend/libs/redis"
	"studyspace/backend/services/collector-service/internal/config"
	httpserver "studyspace/backend/services/collector-service/internal/http"
	"studyspace/backend/services/collector-service/internal/http/handlers"
	"studyspace/backend/services/collector-service/internal/http/middleware"
	"studyspace/backend/services/collector-service/internal/metrics"
	redisstore "studyspace/backend/services/collector-service/internal/redis"
	"studyspace/backend/services/collector-service/internal/repository"
	"studyspace/backend/services/collector-service/internal/service"
	"studyspace/backend/services/collector-service/internal/state"
	"studyspace/backend/services/collector-service/internal/ws"
)

// App wires collector service dependencies.
type App struct {
	server  *httpserver.Server
	handler http.Handler
	service *service.CollectorService
	hub     *ws.Hub
	db      *sql.DB
	redis   *goredis.Client
	logger  *zap.Logger
}

type backend struct {
	readings    service.ReadingStore
	calibration service.CalibrationStore
	ping        handlers.Pinger
}

// New constructs application components.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openBackend(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		observer middleware.RequestObserver
		opts     []service.Option
		onCount  func(int)
		routes   httpserver.Routes
	)
	if cfg.Metrics.Enabled {
		reg := libmetrics.NewRegistry()
		m := metrics.New(reg)
		observer = m
		onCount = m.SetStreamClients
		opts = append(opts, service.WithRecorder(m))
		routes.Metrics = libmetrics.Handler(reg)
	}

	a.hub = ws.NewHub(logger, onCount)
	if cfg.Stream.Enabled {
		opts = append(opts, service.WithPublisher(a.hub))
	}
	a.service = service.NewCollectorService(store.readings, store.calibration, logger, opts...)

	calibration := handlers.NewCalibrationHandler(a.service, logger)
	routes.Root = handlers.NewRootHandler()
	routes.Occupancy = handlers.NewOccupancyHandler(a.service, logger)
	routes.Status = handlers.NewStatusHandler(a.service, logger)
	routes.Calibration = calibration.HandleCalibration
	routes.Config = calibration.HandleConfig
	routes.Health = handlers.NewHealthHandler(cfg.State.Backend, store.ping, logger)
	if cfg.Stream.Enabled {
		stream := ws.NewServer(a.hub, a.service.Status, cfg.StreamWriteTimeout(), cfg.StreamPingInterval(), logger)
		routes.Stream = stream.HandleStream
	}

	router := httpserver.NewRouter(routes, middleware.Instrument(logger, observer))
	a.handler = middleware.CORS(cfg.CORS.AllowedOrigins)(router)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, logger)
	a.server.OnShutdown(a.hub.CloseAll)

	logger.Info("collector configured",
		zap.String("backend", cfg.State.Backend),
		zap.Bool("stream", cfg.Stream.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return a, nil
}

func (a *App) openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.State.Backend {
	case config.BackendRedis:
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return backend{}, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		store := redisstore.NewStore(client, cfg.Redis.KeyPrefix, cfg.CalibrationTTL())
		return backend{readings: store, calibration: store, ping: store.Ping}, nil
	case config.BackendPostgres:
		sqlDB, err := db.NewPostgresDB(ctx, cfg.Database.DSN, db.PoolOptions{MaxOpenConns: cfg.Database.MaxOpenConns})
		if err != nil {
			return backend{}, fmt.Errorf("connect postgres: %w", err)
		}
		a.db = sqlDB
		if err := repository.EnsureSchema(ctx, sqlDB); err != nil {
			return backend{}, err
		}
		return backend{
			readings:    repository.NewReadingRepository(sqlDB),
			calibration: repository.NewCalibrationRepository(sqlDB),
			ping:        sqlDB.PingContext,
		}, nil
	default:
		return backend{
			readings:    state.NewReadingState(),
			calibration: state.NewCalibrationState(),
		}, nil
	}
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts serving HTTP requests.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
