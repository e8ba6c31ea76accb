// upload.go — сервис загрузки файлов.
// Pipeline: валидация → public_id → QR-код → объектное хранилище → метаданные.
// При сбое сохранения метаданных загруженные объекты удаляются.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
	"github.com/bigkaa/goartstore/share-module/internal/objectstore"
	"github.com/bigkaa/goartstore/share-module/internal/qrcode"
	"github.com/bigkaa/goartstore/share-module/internal/repository"
)

// cleanupTimeout — таймаут удаления объектов после неудачной загрузки.
const cleanupTimeout = 30 * time.Second

// Prometheus-метрики загрузки.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "share_uploads_total",
		Help: "Общее количество загрузок (по виду и статусу).",
	}, []string{"kind", "status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_upload_bytes_total",
		Help: "Общее количество загруженных байт.",
	})

	uploadCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "share_upload_cleanup_total",
		Help: "Удаления объектов после неудачной загрузки (по результату).",
	}, []string{"status"})
)

// FileUpload — один файл из multipart-запроса.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// UploadOptions — поля формы загрузки.
type UploadOptions struct {
	// Expiration — 1h, 1d, 1m, 1y; иное значение трактуется как 1h
	Expiration  string
	Description string
}

// FileUploadResult — результат загрузки одного файла.
type FileUploadResult struct {
	URL       string
	PublicID  string
	QRCodeURL string
	Record    *model.FileRecord
}

// FolderUploadResult — результат загрузки папки.
type FolderUploadResult struct {
	URLs      []string
	PublicID  string
	QRCodeURL string
	Records   []*model.FileRecord
}

// UploadService — сервис загрузки файлов и папок.
type UploadService struct {
	store           objectstore.Store
	repo            repository.FileRepository
	maxFileSize     int64
	downloadBaseURL string
	logger          *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(
	store objectstore.Store,
	repo repository.FileRepository,
	maxFileSize int64,
	downloadBaseURL string,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		store:           store,
		repo:            repo,
		maxFileSize:     maxFileSize,
		downloadBaseURL: downloadBaseURL,
		logger:          logger.With(slog.String("component", "upload_service")),
		now:             time.Now,
		newID:           func() string { return uuid.New().String() },
	}
}

// UploadFile загружает один файл под новым public_id.
func (s *UploadService) UploadFile(ctx context.Context, file *FileUpload, opts UploadOptions) (*FileUploadResult, error) {
	if file == nil || file.Reader == nil {
		uploadsTotal.WithLabelValues("file", "rejected").Inc()
		return nil, ErrNoFile
	}
	if err := s.checkSize(file); err != nil {
		uploadsTotal.WithLabelValues("file", "rejected").Inc()
		return nil, err
	}

	publicID := s.newID()
	qr, err := s.qrCode(publicID)
	if err != nil {
		uploadsTotal.WithLabelValues("file", "error").Inc()
		return nil, err
	}

	rec := model.NewFileRecord(publicID, file.Filename, file.ContentType, file.Size,
		opts.Description, model.DefaultFileDescription, model.ParseExpiration(opts.Expiration), s.now())

	url, err := s.store.Put(ctx, rec.StorageKey, file.Reader, file.Size, rec.ContentType)
	if err != nil {
		uploadsTotal.WithLabelValues("file", "error").Inc()
		return nil, upstreamError("загрузка в объектное хранилище", err)
	}
	rec.URL = url

	if err := s.repo.Insert(ctx, rec); err != nil {
		s.cleanup(ctx, publicID, []string{rec.StorageKey})
		uploadsTotal.WithLabelValues("file", "error").Inc()
		return nil, upstreamError("сохранение метаданных", err)
	}

	uploadsTotal.WithLabelValues("file", "success").Inc()
	uploadBytesTotal.Add(float64(rec.Size))

	s.logger.Info("Файл загружен",
		slog.String("public_id", publicID),
		slog.String("name", rec.Name),
		slog.Int64("size", rec.Size),
		slog.Time("expires_at", rec.ExpiresAt),
	)

	return &FileUploadResult{
		URL:       url,
		PublicID:  publicID,
		QRCodeURL: qr,
		Record:    rec,
	}, nil
}

// UploadFolder загружает набор файлов под общим public_id.
// Метаданные сохраняются одной пакетной вставкой после загрузки всех объектов.
func (s *UploadService) UploadFolder(ctx context.Context, files []*FileUpload, opts UploadOptions) (*FolderUploadResult, error) {
	if len(files) == 0 {
		uploadsTotal.WithLabelValues("folder", "rejected").Inc()
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if f == nil || f.Reader == nil {
			uploadsTotal.WithLabelValues("folder", "rejected").Inc()
			return nil, ErrNoFiles
		}
		if err := s.checkSize(f); err != nil {
			uploadsTotal.WithLabelValues("folder", "rejected").Inc()
			return nil, err
		}
	}

	publicID := s.newID()
	qr, err := s.qrCode(publicID)
	if err != nil {
		uploadsTotal.WithLabelValues("folder", "error").Inc()
		return nil, err
	}

	now := s.now()
	exp := model.ParseExpiration(opts.Expiration)

	records := make([]*model.FileRecord, 0, len(files))
	urls := make([]string, 0, len(files))
	uploaded := make([]string, 0, len(files))
	var total int64

	for _, f := range files {
		rec := model.NewFileRecord(publicID, f.Filename, f.ContentType, f.Size,
			opts.Description, model.DefaultFolderDescription, exp, now)

		url, err := s.store.Put(ctx, rec.StorageKey, f.Reader, f.Size, rec.ContentType)
		if err != nil {
			s.cleanup(ctx, publicID, uploaded)
			uploadsTotal.WithLabelValues("folder", "error").Inc()
			return nil, upstreamError(fmt.Sprintf("загрузка %s в объектное хранилище", rec.Name), err)
		}
		rec.URL = url

		uploaded = append(uploaded, rec.StorageKey)
		records = append(records, rec)
		urls = append(urls, url)
		total += rec.Size
	}

	if err := s.repo.InsertMany(ctx, records); err != nil {
		s.cleanup(ctx, publicID, uploaded)
		uploadsTotal.WithLabelValues("folder", "error").Inc()
		return nil, upstreamError("сохранение метаданных папки", err)
	}

	uploadsTotal.WithLabelValues("folder", "success").Inc()
	uploadBytesTotal.Add(float64(total))

	s.logger.Info("Папка загружена",
		slog.String("public_id", publicID),
		slog.Int("files", len(records)),
		slog.Int64("size", total),
		slog.Time("expires_at", exp.ExpiresAt(now)),
	)

	return &FolderUploadResult{
		URLs:      urls,
		PublicID:  publicID,
		QRCodeURL: qr,
		Records:   records,
	}, nil
}

// checkSize проверяет заявленный размер файла.
func (s *UploadService) checkSize(f *FileUpload) error {
	if s.maxFileSize > 0 && f.Size > s.maxFileSize {
		return fmt.Errorf("%w: %s (%d байт, лимит %d)", ErrFileTooLarge, f.Filename, f.Size, s.maxFileSize)
	}
	return nil
}

// qrCode строит QR-код публичной ссылки на скачивание.
func (s *UploadService) qrCode(publicID string) (string, error) {
	return qrcode.DataURL(qrcode.DownloadLink(s.downloadBaseURL, publicID))
}

// cleanup удаляет объекты, загруженные в рамках неудавшегося запроса.
// Выполняется и после отмены контекста запроса. Возвращает число удалённых объектов.
func (s *UploadService) cleanup(ctx context.Context, publicID string, keys []string) int {
	if len(keys) == 0 {
		return 0
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	deleted := 0
	for _, key := range keys {
		if err := s.store.Delete(cctx, key); err != nil {
			uploadCleanupTotal.WithLabelValues("error").Inc()
			s.logger.Error("Не удалось удалить объект после неудачной загрузки",
				slog.String("public_id", publicID),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		uploadCleanupTotal.WithLabelValues("success").Inc()
		deleted++
	}

	if deleted > 0 {
		s.logger.Warn("Объекты неудачной загрузки удалены",
			slog.String("public_id", publicID),
			slog.Int("objects", deleted),
			slog.Int("failed", len(keys)-deleted),
		)
	}
	return deleted
}
