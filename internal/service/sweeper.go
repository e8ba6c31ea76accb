// sweeper.go — фоновая очистка просроченных загрузок.
//
// Каждый запуск:
//  1. Выбирает записи с expiresAt строго раньше текущего момента
//  2. Удаляет объект по ключу записи (storage_key)
//  3. Удаляет запись и инвалидирует кэш её public_id
//
// Запускается как горутина с периодическим тикером (SHARE_SWEEP_INTERVAL).
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
	"github.com/bigkaa/goartstore/share-module/internal/objectstore"
	"github.com/bigkaa/goartstore/share-module/internal/repository"
)

// Prometheus метрики sweeper
var (
	sweeperRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_sweeper_runs_total",
		Help: "Общее количество запусков очистки",
	})

	sweeperDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_sweeper_deleted_total",
		Help: "Общее количество удалённых просроченных записей",
	})

	sweeperErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_sweeper_errors_total",
		Help: "Общее количество ошибок при удалении просроченных записей",
	})

	sweeperDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "share_sweeper_duration_seconds",
		Help:    "Длительность выполнения очистки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// SweepResult — результат одного запуска очистки.
type SweepResult struct {
	// Expired — количество найденных просроченных записей
	Expired int
	// Deleted — количество удалённых записей
	Deleted int
	// Errors — количество записей, которые не удалось удалить
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// SweeperService — сервис фоновой очистки просроченных загрузок.
type SweeperService struct {
	store    objectstore.Store
	repo     repository.FileRepository
	cache    *CacheService
	interval time.Duration
	logger   *slog.Logger

	now func() time.Time

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeperService создаёт сервис очистки.
// cache может быть nil.
func NewSweeperService(
	store objectstore.Store,
	repo repository.FileRepository,
	cache *CacheService,
	interval time.Duration,
	logger *slog.Logger,
) *SweeperService {
	return &SweeperService{
		store:    store,
		repo:     repo,
		cache:    cache,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweeper")),
		now:      time.Now,
	}
}

// Start запускает фоновую горутину с периодическим тикером.
// Вызывается один раз при старте приложения.
func (s *SweeperService) Start(ctx context.Context) {
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(sctx)

	s.logger.Info("Очистка просроченных файлов запущена",
		slog.String("interval", s.interval.String()),
	)
}

// Stop останавливает фоновый процесс и дожидается завершения текущего запуска.
func (s *SweeperService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Очистка просроченных файлов остановлена")
}

// run — основной цикл фоновой горутины.
func (s *SweeperService) run(ctx context.Context) {
	defer close(s.done)

	// Первый запуск — сразу после старта
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один цикл очистки.
// Ошибка по одной записи логируется и не прерывает обработку остальных;
// запись с неудалённым объектом остаётся до следующего запуска.
func (s *SweeperService) RunOnce(ctx context.Context) *SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	now := s.now().UTC()

	records, err := s.repo.FindExpired(ctx, now)
	if err != nil {
		s.logger.Error("Очистка: ошибка выборки просроченных записей",
			slog.String("error", err.Error()),
		)
		result.Errors++
		s.finish(result, start)
		return result
	}
	result.Expired = len(records)

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if s.sweepRecord(ctx, rec) {
			result.Deleted++
		} else {
			result.Errors++
		}
	}

	s.finish(result, start)
	return result
}

// sweepRecord удаляет объект и запись. Возвращает true при успехе.
func (s *SweeperService) sweepRecord(ctx context.Context, rec *model.FileRecord) bool {
	if err := s.store.Delete(ctx, rec.StorageKey); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		s.logger.Error("Очистка: ошибка удаления объекта",
			slog.String("public_id", rec.PublicID),
			slog.String("key", rec.StorageKey),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := s.repo.Delete(ctx, rec.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Очистка: ошибка удаления записи",
			slog.String("public_id", rec.PublicID),
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	if s.cache != nil {
		s.cache.Delete(rec.PublicID)
	}

	s.logger.Debug("Очистка: файл удалён",
		slog.String("public_id", rec.PublicID),
		slog.String("name", rec.Name),
	)
	return true
}

// finish обновляет метрики и логирует итог запуска.
func (s *SweeperService) finish(result *SweepResult, start time.Time) {
	result.Duration = time.Since(start)

	sweeperRunsTotal.Inc()
	sweeperDeletedTotal.Add(float64(result.Deleted))
	sweeperErrorsTotal.Add(float64(result.Errors))
	sweeperDurationSeconds.Observe(result.Duration.Seconds())

	s.logger.Info("Очистка завершена",
		slog.Int("expired", result.Expired),
		slog.Int("deleted", result.Deleted),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", result.Duration),
	)
}
