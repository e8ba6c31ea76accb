package errors //nolint:revive // конфликт имени со stdlib

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/share-module/internal/service"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Ошибка декодирования тела: %v", err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, CodeValidationError, "плохой запрос")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Статус: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: %q", ct)
	}

	body := decodeBody(t, w)
	if body.Message != "плохой запрос" || body.Error.Message != "плохой запрос" {
		t.Errorf("Сообщение: %+v", body)
	}
	if body.Error.Code != CodeValidationError {
		t.Errorf("Код: %q", body.Error.Code)
	}
}

func TestRespond(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"нет файла", service.ErrNoFile, 400, CodeValidationError, MsgNoFile},
		{"нет файлов", service.ErrNoFiles, 400, CodeValidationError, MsgNoFiles},
		{"слишком большой", fmt.Errorf("%w: big.bin", service.ErrFileTooLarge), 413, CodeFileTooLarge, MsgFileTooLarge},
		{"не найден", service.ErrNotFound, 404, CodeNotFound, MsgNotFound},
		{"ошибка хранилища", fmt.Errorf("put: %w: dial tcp 10.0.0.1:443", service.ErrUpstream), 500, CodeInternalError, MsgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Respond(w, logger, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Статус: хотели %d, получили %d", tt.wantStatus, w.Code)
			}
			raw := w.Body.String()
			body := decodeBody(t, w)
			if body.Error.Code != tt.wantCode {
				t.Errorf("Код: хотели %q, получили %q", tt.wantCode, body.Error.Code)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("Сообщение: хотели %q, получили %q", tt.wantMsg, body.Message)
			}
			if strings.Contains(raw, "10.0.0.1") {
				t.Error("Внутренние подробности не должны попадать в ответ")
			}
		})
	}
}
