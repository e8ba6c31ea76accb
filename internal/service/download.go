// download.go — сервис скачивания по public_id.
// Одна запись — объект отдаётся как есть; несколько — потоковый zip-архив,
// собираемый прямо в ответ без временных файлов.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/share-module/internal/archive"
	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
	"github.com/bigkaa/goartstore/share-module/internal/objectstore"
	"github.com/bigkaa/goartstore/share-module/internal/repository"
)

// Prometheus-метрики download.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "share_downloads_total",
		Help: "Общее количество скачиваний (по виду и статусу).",
	}, []string{"kind", "status"})

	downloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "share_download_duration_seconds",
		Help:    "Длительность скачивания (от запроса до завершения streaming).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_download_bytes_total",
		Help: "Общее количество байт, прочитанных из хранилища при скачивании.",
	})

	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "share_active_downloads",
		Help: "Количество активных скачиваний.",
	})

	archiveMembersSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_archive_members_skipped_total",
		Help: "Члены архива, пропущенные из-за ошибки получения объекта.",
	})
)

// DownloadService — сервис скачивания файлов и папок.
type DownloadService struct {
	store  objectstore.Store
	repo   repository.FileRepository
	cache  *CacheService
	logger *slog.Logger

	now func() time.Time
}

// NewDownloadService создаёт сервис скачивания.
// cache может быть nil — тогда записи всегда читаются из хранилища метаданных.
func NewDownloadService(
	store objectstore.Store,
	repo repository.FileRepository,
	cache *CacheService,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		store:  store,
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "download_service")),
		now:    time.Now,
	}
}

// Download отдаёт содержимое public_id в w.
//
// Ошибки до записи заголовков (ErrNotFound, ErrUpstream) оставляют w
// нетронутым, и ответ формирует вызывающий. После отправки заголовков
// возвращается только ErrStreamInterrupted: ответ уже нельзя исправить.
func (ds *DownloadService) Download(ctx context.Context, w http.ResponseWriter, publicID string) error {
	start := time.Now()
	activeDownloads.Inc()
	defer activeDownloads.Dec()

	records, err := ds.getRecords(ctx, publicID)
	if err != nil {
		downloadsTotal.WithLabelValues("lookup", "error").Inc()
		return err
	}
	if len(records) == 0 {
		downloadsTotal.WithLabelValues("lookup", "not_found").Inc()
		return ErrNotFound
	}

	kind := "file"
	if len(records) == 1 {
		err = ds.serveFile(ctx, w, records[0])
	} else {
		kind = "archive"
		err = ds.serveArchive(ctx, w, publicID, records)
	}

	switch {
	case err == nil:
		downloadsTotal.WithLabelValues(kind, "success").Inc()
		downloadDuration.Observe(time.Since(start).Seconds())
	case errors.Is(err, ErrNotFound):
		downloadsTotal.WithLabelValues(kind, "not_found").Inc()
	case errors.Is(err, ErrStreamInterrupted):
		downloadsTotal.WithLabelValues(kind, "stream_error").Inc()
	default:
		downloadsTotal.WithLabelValues(kind, "error").Inc()
	}
	return err
}

// serveFile отдаёт один объект. Объект открывается до записи заголовков,
// чтобы отсутствие или недоступность хранилища дали корректный статус.
func (ds *DownloadService) serveFile(ctx context.Context, w http.ResponseWriter, rec *model.FileRecord) error {
	obj, err := ds.store.Get(ctx, rec.StorageKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			ds.logger.Warn("Объект записи отсутствует в хранилище",
				slog.String("public_id", rec.PublicID),
				slog.String("key", rec.StorageKey),
			)
			return ErrNotFound
		}
		return upstreamError("получение объекта", err)
	}
	defer obj.Body.Close()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", ContentDisposition(rec.Name))
	if obj.Size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, obj.Body)
	downloadBytesTotal.Add(float64(written))
	if err != nil {
		ds.logger.Error("Ошибка streaming download",
			slog.String("public_id", rec.PublicID),
			slog.String("key", rec.StorageKey),
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
	}

	ds.logger.Debug("Download завершён",
		slog.String("public_id", rec.PublicID),
		slog.Int64("bytes", written),
	)
	return nil
}

// serveArchive собирает zip из всех записей. Член, объект которого
// не удалось получить, пропускается с записью в лог. Ошибка чтения
// посреди члена обрывает архив.
func (ds *DownloadService) serveArchive(ctx context.Context, w http.ResponseWriter, publicID string, records []*model.FileRecord) error {
	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", ContentDisposition(publicID+".zip"))
	w.WriteHeader(http.StatusOK)

	aw := archive.NewWriter(w)
	modified := ds.now()
	added, skipped := 0, 0

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return ds.interrupted(publicID, added, err)
		}

		obj, err := ds.store.Get(ctx, rec.StorageKey)
		if err != nil {
			skipped++
			archiveMembersSkippedTotal.Inc()
			ds.logger.Warn("Член архива пропущен",
				slog.String("public_id", publicID),
				slog.String("key", rec.StorageKey),
				slog.String("error", err.Error()),
			)
			continue
		}

		n, err := aw.Add(rec.Name, modified, obj.Body)
		obj.Body.Close()
		downloadBytesTotal.Add(float64(n))
		if err != nil {
			// Заголовок члена уже в потоке: завершённый архив содержал бы
			// усечённый файл с корректной CRC
			ds.logger.Warn("Член архива записан не полностью",
				slog.String("public_id", publicID),
				slog.String("key", rec.StorageKey),
				slog.Int64("bytes", n),
				slog.String("error", err.Error()),
			)
			return ds.interrupted(publicID, added, err)
		}
		if err := aw.Flush(); err != nil {
			return ds.interrupted(publicID, added, err)
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		added++
	}

	if err := aw.Close(); err != nil {
		return ds.interrupted(publicID, added, err)
	}

	ds.logger.Info("Архив отдан",
		slog.String("public_id", publicID),
		slog.Int("members", added),
		slog.Int("skipped", skipped),
	)
	return nil
}

// interrupted логирует обрыв архива и возвращает ErrStreamInterrupted.
func (ds *DownloadService) interrupted(publicID string, added int, err error) error {
	ds.logger.Error("Ошибка streaming архива",
		slog.String("public_id", publicID),
		slog.Int("members_written", added),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
}

// getRecords получает записи из кэша или хранилища метаданных.
func (ds *DownloadService) getRecords(ctx context.Context, publicID string) ([]*model.FileRecord, error) {
	if ds.cache != nil {
		if records, ok := ds.cache.Get(publicID); ok {
			return records, nil
		}
	}

	records, err := ds.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, upstreamError("поиск записей", err)
	}

	if ds.cache != nil {
		ds.cache.Set(publicID, records)
	}
	return records, nil
}

// ContentDisposition формирует заголовок attachment с именем файла.
// Не-ASCII имена кодируются по RFC 2231 (filename*=utf-8''...).
func ContentDisposition(filename string) string {
	v := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if v == "" {
		return "attachment"
	}
	return v
}
