// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile — в запросе на загрузку нет файла.
	ErrNoFile = errors.New("файл не передан")
	// ErrNoFiles — в запросе на загрузку папки пустой список файлов.
	ErrNoFiles = errors.New("файлы не переданы")
	// ErrFileTooLarge — файл превышает допустимый размер.
	ErrFileTooLarge = errors.New("файл превышает допустимый размер")
	// ErrNotFound — по public_id нет ни одной записи.
	ErrNotFound = errors.New("файл не найден")
	// ErrUpstream — ошибка объектного хранилища или хранилища метаданных.
	ErrUpstream = errors.New("ошибка хранилища")
	// ErrStreamInterrupted — передача ответа прервана после отправки заголовков.
	ErrStreamInterrupted = errors.New("передача прервана")
)

// upstreamError оборачивает ошибку хранилища так, чтобы сработали
// и errors.Is(err, ErrUpstream), и проверки исходной ошибки.
func upstreamError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
