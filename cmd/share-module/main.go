// main.go — точка входа Share Module.
// Инициализирует конфигурацию, хранилища, сервисы, фоновую очистку,
// мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/share-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/share-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/share-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/share-module/internal/config"
	"github.com/bigkaa/goartstore/share-module/internal/database"
	"github.com/bigkaa/goartstore/share-module/internal/objectstore"
	"github.com/bigkaa/goartstore/share-module/internal/repository"
	"github.com/bigkaa/goartstore/share-module/internal/server"
	"github.com/bigkaa/goartstore/share-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Share Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("metadata_backend", cfg.MetadataBackend),
	)

	ctx := context.Background()

	// 3. Проверка встроенного OpenAPI контракта
	if _, err := openapi.Load(ctx); err != nil {
		logger.Error("Некорректный OpenAPI документ", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Хранилище метаданных
	meta, err := openMetadataStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к хранилищу метаданных", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer meta.close()

	// 5. Объектное хранилище
	store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Bucket:          cfg.Bucket,
		Endpoint:        cfg.S3Endpoint,
	}, logger)
	if err != nil {
		logger.Error("Ошибка инициализации объектного хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Сервисы
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	uploadSvc := service.NewUploadService(store, meta.repo, cfg.MaxFileSize, cfg.DownloadBaseURL, logger)
	downloadSvc := service.NewDownloadService(store, meta.repo, cache, logger)

	// 7. Фоновая очистка просроченных файлов
	sweeper := service.NewSweeperService(store, meta.repo, cache, cfg.SweepInterval, logger)
	sweeper.Start(ctx)

	// 8. topologymetrics — мониторинг зависимостей
	dephealthSvc := startDephealth(ctx, cfg, meta.sqlDB, logger)

	// 9. HTTP-обработчики
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(cfg.MetadataBackend, meta.repo),
		store,
	)
	if dephealthSvc != nil {
		healthHandler.SetDependencyChecker(dephealthSvc)
	}
	apiHandler := handlers.NewAPIHandler(healthHandler, uploadSvc, downloadSvc, handlers.UploadLimits{
		MaxFileSize:     cfg.MaxFileSize,
		MaxRequestSize:  cfg.MaxRequestSize,
		MultipartMemory: cfg.MultipartMemory,
	}, logger)

	// 10. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler,
		middleware.CORS(cfg.CORSOrigins),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
	}

	// 11. Остановка фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	sweeper.Stop()

	logger.Info("Share Module остановлен")
}

// metadataStore — выбранный backend хранилища метаданных.
type metadataStore struct {
	repo repository.FileRepository
	// sqlDB — адаптер pgxpool для topologymetrics; nil для MongoDB
	sqlDB *sql.DB
	close func()
}

// openMetadataStore подключает MongoDB или PostgreSQL (с миграциями).
func openMetadataStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*metadataStore, error) {
	switch cfg.MetadataBackend {
	case config.BackendPostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			return nil, err
		}
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		// Проверка здоровья PostgreSQL идёт через существующий пул соединений
		pgDB := stdlib.OpenDBFromPool(pool)
		return &metadataStore{
			repo:  repository.NewPostgresFileRepository(pool),
			sqlDB: pgDB,
			close: func() {
				_ = pgDB.Close()
				pool.Close()
			},
		}, nil

	default:
		client, coll, err := database.ConnectMongo(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureIndexes(ctx, coll); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &metadataStore{
			repo: repository.NewMongoFileRepository(coll),
			close: func() {
				_ = client.Disconnect(context.Background())
			},
		}, nil
	}
}

// startDephealth запускает мониторинг зависимостей.
// Ошибка не фатальна: сервис работает без мониторинга.
func startDephealth(ctx context.Context, cfg *config.Config, pgDB *sql.DB, logger *slog.Logger) *service.DephealthService {
	ds, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "share-module",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PGConnURL:     cfg.DatabaseDSN,
		S3Endpoint:    cfg.S3Endpoint,
		S3HealthPath:  cfg.S3HealthPath,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		if errors.Is(err, service.ErrNoDependencies) {
			logger.Info("topologymetrics: нет зависимостей для мониторинга")
		} else {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	if err := ds.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("topologymetrics запущен",
		slog.String("group", cfg.DephealthGroup),
		slog.String("check_interval", cfg.DephealthCheckInterval.String()),
	)
	return ds
}
