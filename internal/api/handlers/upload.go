// upload.go — обработчики POST /api/upload/file и POST /api/upload/folder.
// Multipart form: file / files (обязательно), expiration, description.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/share-module/internal/api/errors"
	"github.com/bigkaa/goartstore/share-module/internal/service"
)

// multipartOverhead — запас на заголовки частей и поля формы сверх размера файла.
const multipartOverhead = 1 << 20

const defaultContentType = "application/octet-stream"

// UploadFile обрабатывает POST /api/upload/file.
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxFileSize+multipartOverhead)

	if !h.parseForm(w, r, service.ErrNoFile) {
		return
	}
	defer removeForm(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			apierrors.Respond(w, h.logger, service.ErrNoFile)
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Invalid file field: %s", err.Error()))
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadFile(r.Context(), toFileUpload(file, header), uploadOptions(r))
	if err != nil {
		apierrors.Respond(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, fileUploadResponse{
		URL:       result.URL,
		PublicID:  result.PublicID,
		QRCodeURL: result.QRCodeURL,
		NewFile:   toRecordResponse(result.Record),
	})
}

// UploadFolder обрабатывает POST /api/upload/folder.
func (h *APIHandler) UploadFolder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxRequestSize+multipartOverhead)

	if !h.parseForm(w, r, service.ErrNoFiles) {
		return
	}
	defer removeForm(r)

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		apierrors.Respond(w, h.logger, service.ErrNoFiles)
		return
	}

	files := make([]*service.FileUpload, 0, len(headers))
	defer func() {
		for _, f := range files {
			if c, ok := f.Reader.(multipart.File); ok {
				c.Close()
			}
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("Не удалось открыть часть multipart",
				slog.String("filename", fh.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, apierrors.MsgInternalError)
			return
		}
		files = append(files, toFileUpload(f, fh))
	}

	result, err := h.uploader.UploadFolder(r.Context(), files, uploadOptions(r))
	if err != nil {
		apierrors.Respond(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, folderUploadResponse{
		URLs:      result.URLs,
		PublicID:  result.PublicID,
		QRCodeURL: result.QRCodeURL,
	})
}

// parseForm разбирает multipart-форму. Запрос без multipart-тела
// трактуется как запрос без файлов (noFiles).
func (h *APIHandler) parseForm(w http.ResponseWriter, r *http.Request, noFiles error) bool {
	err := r.ParseMultipartForm(h.limits.MultipartMemory)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		apierrors.Respond(w, h.logger, fmt.Errorf("%w: тело запроса больше %d байт", service.ErrFileTooLarge, maxErr.Limit))
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		apierrors.Respond(w, h.logger, noFiles)
	default:
		apierrors.ValidationError(w, fmt.Sprintf("Invalid multipart form: %s", err.Error()))
	}
	return false
}

// removeForm удаляет временные файлы multipart-формы.
func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func toFileUpload(f multipart.File, fh *multipart.FileHeader) *service.FileUpload {
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return &service.FileUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
	}
}

func uploadOptions(r *http.Request) service.UploadOptions {
	return service.UploadOptions{
		Expiration:  r.FormValue("expiration"),
		Description: r.FormValue("description"),
	}
}
