// Пакет repository — хранилище метаданных загруженных файлов.
// Две реализации: MongoDB (основная) и PostgreSQL (чистый SQL через pgx).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// FileRepository — доступ к записям FileRecord.
type FileRepository interface {
	// Insert сохраняет одну запись и заполняет её ID.
	Insert(ctx context.Context, rec *model.FileRecord) error
	// InsertMany сохраняет записи одной пакетной вставкой.
	InsertMany(ctx context.Context, recs []*model.FileRecord) error
	// FindByPublicID возвращает все записи с данным public_id
	// (пустой срез, если их нет).
	FindByPublicID(ctx context.Context, publicID string) ([]*model.FileRecord, error)
	// FindExpired возвращает записи с expiresAt строго раньше now.
	FindExpired(ctx context.Context, now time.Time) ([]*model.FileRecord, error)
	// Delete удаляет запись по внутреннему ID.
	Delete(ctx context.Context, id string) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
