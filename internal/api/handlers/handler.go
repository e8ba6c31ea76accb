// handler.go — основной обработчик API, реализующий routes.ServerInterface.
// Объединяет health и бизнес-обработчики загрузки и скачивания.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/share-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/share-module/internal/api/routes"
	"github.com/bigkaa/goartstore/share-module/internal/service"
)

var _ routes.ServerInterface = (*APIHandler)(nil)

// Uploader — сервис загрузки (service.UploadService).
type Uploader interface {
	UploadFile(ctx context.Context, file *service.FileUpload, opts service.UploadOptions) (*service.FileUploadResult, error)
	UploadFolder(ctx context.Context, files []*service.FileUpload, opts service.UploadOptions) (*service.FolderUploadResult, error)
}

// Downloader — сервис скачивания (service.DownloadService).
type Downloader interface {
	Download(ctx context.Context, w http.ResponseWriter, publicID string) error
}

// UploadLimits — ограничения multipart-запросов.
type UploadLimits struct {
	// MaxFileSize — лимит одного файла
	MaxFileSize int64
	// MaxRequestSize — лимит тела запроса загрузки папки
	MaxRequestSize int64
	// MultipartMemory — объём формы в памяти, остальное во временных файлах
	MultipartMemory int64
}

// APIHandler — основной обработчик API Share Module.
type APIHandler struct {
	health     *HealthHandler
	uploader   Uploader
	downloader Downloader
	limits     UploadLimits
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	uploader Uploader,
	downloader Downloader,
	limits UploadLimits,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		uploader:   uploader,
		downloader: downloader,
		limits:     limits,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPISpec — OpenAPI контракт.
func (h *APIHandler) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	openapi.ServeSpec(w, r)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
