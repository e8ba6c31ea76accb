// Пакет model — доменные модели Share Module.
// FileRecord — метаданные одного загруженного blob'а.
package model

import (
	"strings"
	"time"
)

// Expiration — допустимое время жизни загрузки.
type Expiration string

// Допустимые значения поля expiration.
const (
	ExpirationHour  Expiration = "1h"
	ExpirationDay   Expiration = "1d"
	ExpirationMonth Expiration = "1m"
	ExpirationYear  Expiration = "1y"
)

// Описания по умолчанию, если клиент не передал description.
const (
	DefaultFileDescription   = "No description provided"
	DefaultFolderDescription = "Uploaded file in folder"
)

// Форматы снимков времени создания (create_date, create_time).
const (
	CreateDateLayout = "01/02/2006"
	CreateTimeLayout = "03:04:05 PM"
)

// expirationDurations — длительности в миллисекундах, месяц = 30 дней, год = 365 дней.
var expirationDurations = map[Expiration]time.Duration{
	ExpirationHour:  3_600_000 * time.Millisecond,
	ExpirationDay:   86_400_000 * time.Millisecond,
	ExpirationMonth: 2_592_000_000 * time.Millisecond,
	ExpirationYear:  31_536_000_000 * time.Millisecond,
}

// ParseExpiration разбирает значение поля формы.
// Пустое или неизвестное значение даёт ExpirationHour.
func ParseExpiration(raw string) Expiration {
	e := Expiration(strings.TrimSpace(raw))
	if _, ok := expirationDurations[e]; ok {
		return e
	}
	return ExpirationHour
}

// Duration возвращает длительность хранения.
func (e Expiration) Duration() time.Duration {
	if d, ok := expirationDurations[e]; ok {
		return d
	}
	return expirationDurations[ExpirationHour]
}

// ExpiresAt — момент истечения для загрузки, выполненной в now.
func (e Expiration) ExpiresAt(now time.Time) time.Time {
	return now.Add(e.Duration())
}

// FileRecord — запись о файле, сохранённом в объектном хранилище.
// Несколько записей с одним PublicID образуют папку.
type FileRecord struct {
	// ID — внутренний идентификатор, назначается хранилищем метаданных
	ID string
	// URL — адрес объекта в хранилище
	URL string
	// PublicID — идентификатор для клиента (UUID загрузки)
	PublicID string
	// StorageKey — ключ объекта в бакете
	StorageKey string
	// Size — размер в байтах
	Size int64
	// Name — оригинальное имя файла
	Name        string
	Description string
	ContentType string
	// ExpiresAt — момент, после которого запись удаляется sweeper'ом
	ExpiresAt time.Time
	// CreateDate, CreateTime — информационные снимки времени создания
	CreateDate string
	CreateTime string
}

// NewFileRecord заполняет запись для только что загруженного файла.
// Пустое description заменяется на defaultDescription.
func NewFileRecord(publicID, name, contentType string, size int64, description, defaultDescription string, exp Expiration, now time.Time) *FileRecord {
	name = BaseName(name)
	if strings.TrimSpace(description) == "" {
		description = defaultDescription
	}
	return &FileRecord{
		PublicID:    publicID,
		StorageKey:  StorageKey(publicID, name),
		Size:        size,
		Name:        name,
		Description: description,
		ContentType: contentType,
		ExpiresAt:   exp.ExpiresAt(now),
		CreateDate:  now.Format(CreateDateLayout),
		CreateTime:  now.Format(CreateTimeLayout),
	}
}

// IsExpired — истекла ли запись к моменту now (строго раньше now).
func (f *FileRecord) IsExpired(now time.Time) bool {
	return f.ExpiresAt.Before(now)
}

// StorageKey возвращает ключ объекта: {public_id}/{fileName}.
// Из имени отбрасываются компоненты пути, переданные клиентом.
func StorageKey(publicID, name string) string {
	return publicID + "/" + BaseName(name)
}

// BaseName оставляет только последний компонент имени файла.
// Браузеры при загрузке папки передают относительный путь.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
