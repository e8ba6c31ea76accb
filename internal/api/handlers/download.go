// download.go — обработчик GET /api/download/{public_id}.
package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/share-module/internal/api/errors"
	"github.com/bigkaa/goartstore/share-module/internal/api/routes"
	"github.com/bigkaa/goartstore/share-module/internal/service"
)

// DownloadFile отдаёт файл или zip-архив папки.
// Если передача оборвалась после отправки заголовков, исправить ответ
// уже нельзя: соединение разрывается через http.ErrAbortHandler.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request, publicID routes.PublicId) {
	err := h.downloader.Download(r.Context(), w, publicID)
	if err == nil {
		return
	}
	if errors.Is(err, service.ErrStreamInterrupted) {
		panic(http.ErrAbortHandler)
	}
	apierrors.Respond(w, h.logger, err)
}
