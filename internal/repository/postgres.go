package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// fileColumns — столбцы таблицы shared_files в порядке вставки и чтения.
const fileColumns = `id, public_id, storage_key, url, size, name,
	description, content_type, expires_at, create_date, create_time`

// fileColumnCount — количество столбцов в fileColumns.
const fileColumnCount = 11

// postgresFileRepo — реализация FileRepository через pgx.
type postgresFileRepo struct {
	db DBTX
}

// NewPostgresFileRepository создаёт репозиторий поверх пула или транзакции.
func NewPostgresFileRepository(db DBTX) FileRepository {
	return &postgresFileRepo{db: db}
}

// Insert сохраняет запись. ID генерируется на стороне приложения.
func (r *postgresFileRepo) Insert(ctx context.Context, rec *model.FileRecord) error {
	return r.InsertMany(ctx, []*model.FileRecord{rec})
}

// maxParams — лимит позиционных параметров одного запроса в протоколе PostgreSQL.
const maxParams = 65535

// insertBatchRows — строк в одном INSERT; укладывается в maxParams.
const insertBatchRows = 1000

// txBeginner реализуют *pgxpool.Pool и pgx.Tx (вложенная — через savepoint).
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InsertMany сохраняет записи многострочными INSERT по insertBatchRows строк.
// Несколько пакетов выполняются в одной транзакции: либо вставлены все
// строки, либо ни одной.
func (r *postgresFileRepo) InsertMany(ctx context.Context, recs []*model.FileRecord) error {
	if len(recs) == 0 {
		return nil
	}

	ids := make([]string, len(recs))
	for i := range recs {
		ids[i] = uuid.New().String()
	}

	batches := insertBatches(len(recs), insertBatchRows)
	if len(batches) == 1 {
		if err := execInsert(ctx, r.db, recs, ids); err != nil {
			return err
		}
	} else {
		if err := r.insertInTx(ctx, recs, ids, batches); err != nil {
			return err
		}
	}

	for i, rec := range recs {
		rec.ID = ids[i]
	}
	return nil
}

func (r *postgresFileRepo) insertInTx(ctx context.Context, recs []*model.FileRecord, ids []string, batches [][2]int) error {
	b, ok := r.db.(txBeginner)
	if !ok {
		return fmt.Errorf("вставка %d записей требует транзакции, %T её не поддерживает", len(recs), r.db)
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	for _, bt := range batches {
		if err := execInsert(ctx, tx, recs[bt[0]:bt[1]], ids[bt[0]:bt[1]]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func execInsert(ctx context.Context, db DBTX, recs []*model.FileRecord, ids []string) error {
	query, args := buildInsertMany(recs, ids)
	if _, err := db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка вставки записей файлов: %w", err)
	}
	return nil
}

// insertBatches делит n строк на полуинтервалы [from, to) по size строк.
func insertBatches(n, size int) [][2]int {
	batches := make([][2]int, 0, (n+size-1)/size)
	for from := 0; from < n; from += size {
		batches = append(batches, [2]int{from, min(from+size, n)})
	}
	return batches
}

// buildInsertMany строит многострочный INSERT с позиционными параметрами.
func buildInsertMany(recs []*model.FileRecord, ids []string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO shared_files (")
	sb.WriteString(fileColumns)
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(recs)*fileColumnCount)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < fileColumnCount; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*fileColumnCount+j+1)
		}
		sb.WriteByte(')')

		args = append(args,
			ids[i], rec.PublicID, rec.StorageKey, rec.URL, rec.Size, rec.Name,
			rec.Description, rec.ContentType, rec.ExpiresAt, rec.CreateDate, rec.CreateTime,
		)
	}

	return sb.String(), args
}

// FindByPublicID возвращает записи папки в порядке имён.
func (r *postgresFileRepo) FindByPublicID(ctx context.Context, publicID string) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM shared_files WHERE public_id = $1 ORDER BY created_at, name`, fileColumns)
	return r.queryRecords(ctx, query, publicID)
}

// FindExpired возвращает записи с истёкшим сроком.
func (r *postgresFileRepo) FindExpired(ctx context.Context, now time.Time) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM shared_files WHERE expires_at < $1 ORDER BY expires_at`, fileColumns)
	return r.queryRecords(ctx, query, now)
}

// Delete удаляет запись или возвращает ErrNotFound.
func (r *postgresFileRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM shared_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping выполняет тривиальный запрос.
func (r *postgresFileRepo) Ping(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("PostgreSQL недоступен: %w", err)
	}
	return nil
}

// queryRecords выполняет SELECT по fileColumns и сканирует строки.
func (r *postgresFileRepo) queryRecords(ctx context.Context, query string, args ...any) ([]*model.FileRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса записей файлов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.FileRecord, 0)
	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// scanFileRecord сканирует одну строку в FileRecord.
func scanFileRecord(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	if err := row.Scan(
		&f.ID, &f.PublicID, &f.StorageKey, &f.URL, &f.Size, &f.Name,
		&f.Description, &f.ContentType, &f.ExpiresAt, &f.CreateDate, &f.CreateTime,
	); err != nil {
		return nil, fmt.Errorf("ошибка сканирования записи файла: %w", err)
	}
	return f, nil
}
