// Пакет errors — ответы с ошибками в едином формате Share Module.
// Формат: {"message": "...", "error": {"code": "...", "message": "..."}}.
// Верхнеуровневое message сохранено для совместимости с существующими клиентами.
package errors //nolint:revive // конфликт имени со stdlib, пакет импортируется под алиасом

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/share-module/internal/service"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Сообщения для клиента.
const (
	MsgNoFile        = "No file uploaded"
	MsgNoFiles       = "No files uploaded"
	MsgNotFound      = "File or folder not found"
	MsgFileTooLarge  = "File exceeds the maximum allowed size"
	MsgInternalError = "Internal server error"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Message string      `json:"message"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Message: message,
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// Respond — единая точка преобразования ошибок сервисного слоя в HTTP-ответ.
// Подробности внутренних ошибок пишутся в лог и не попадают к клиенту.
func Respond(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case stderrors.Is(err, service.ErrNoFile):
		ValidationError(w, MsgNoFile)
	case stderrors.Is(err, service.ErrNoFiles):
		ValidationError(w, MsgNoFiles)
	case stderrors.Is(err, service.ErrFileTooLarge):
		FileTooLarge(w, MsgFileTooLarge)
	case stderrors.Is(err, service.ErrNotFound):
		NotFound(w, MsgNotFound)
	default:
		logger.Error("Внутренняя ошибка обработки запроса",
			slog.String("error", err.Error()),
		)
		InternalError(w, MsgInternalError)
	}
}
