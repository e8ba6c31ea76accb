// Пакет objectstore — клиент объектного хранилища (S3-совместимого).
// Хранит содержимое загруженных файлов под ключами {public_id}/{fileName}.
package objectstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

// readyTimeout — таймаут проверки готовности хранилища.
const readyTimeout = 3 * time.Second

// ErrNotFound — объект с указанным ключом отсутствует.
var ErrNotFound = errors.New("объект не найден")

// Object — открытый для чтения объект.
// Body обязательно закрывается вызывающим.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Store — операции над объектами в одном бакете.
type Store interface {
	// Put загружает содержимое r под ключом key и возвращает URL объекта.
	// size < 0 — размер неизвестен.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Get открывает объект на чтение. Отсутствующий объект — ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete удаляет объект.
	Delete(ctx context.Context, key string) error
	// Ping проверяет доступность бакета.
	Ping(ctx context.Context) error
}

// escapeKey экранирует каждый сегмент ключа, сохраняя разделители.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
