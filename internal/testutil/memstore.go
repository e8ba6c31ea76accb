// Пакет testutil — in-memory реализации хранилищ для unit-тестов.
// Поведение по умолчанию повторяет настоящие хранилища; поля *Fn
// позволяют подменить отдельные операции (например, вернуть ошибку).
package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
	"github.com/bigkaa/goartstore/share-module/internal/objectstore"
	"github.com/bigkaa/goartstore/share-module/internal/repository"
)

var (
	_ objectstore.Store         = (*MemObjectStore)(nil)
	_ repository.FileRepository = (*MemFileRepository)(nil)
)

// MemObjectStore — objectstore.Store в памяти.
type MemObjectStore struct {
	BaseURL string

	PutFn    func(ctx context.Context, key string) error
	GetFn    func(ctx context.Context, key string) (*objectstore.Object, error)
	DeleteFn func(ctx context.Context, key string) error
	PingFn   func(ctx context.Context) error

	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

// NewMemObjectStore создаёт пустое хранилище.
func NewMemObjectStore() *MemObjectStore {
	return &MemObjectStore{
		BaseURL: "https://bucket.s3.test.amazonaws.com",
		objects: make(map[string][]byte),
	}
}

// Put сохраняет содержимое r.
func (s *MemObjectStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if s.PutFn != nil {
		if err := s.PutFn(ctx, key); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.BaseURL + "/" + key, nil
}

// Get возвращает объект или objectstore.ErrNotFound.
func (s *MemObjectStore) Get(ctx context.Context, key string) (*objectstore.Object, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return &objectstore.Object{
		Body: io.NopCloser(bytes.NewReader(data)),
		Size: int64(len(data)),
	}, nil
}

// Delete удаляет объект. Отсутствующий ключ — objectstore.ErrNotFound.
func (s *MemObjectStore) Delete(ctx context.Context, key string) error {
	if s.DeleteFn != nil {
		if err := s.DeleteFn(ctx, key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return objectstore.ErrNotFound
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// Ping — по умолчанию хранилище доступно.
func (s *MemObjectStore) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}

// Seed кладёт объект напрямую, минуя Put.
func (s *MemObjectStore) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// Object возвращает содержимое объекта.
func (s *MemObjectStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys возвращает отсортированные ключи объектов.
func (s *MemObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deleted возвращает ключи, удалённые через Delete.
func (s *MemObjectStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// MemFileRepository — repository.FileRepository в памяти.
type MemFileRepository struct {
	InsertFn      func(ctx context.Context, recs []*model.FileRecord) error
	FindFn        func(ctx context.Context, publicID string) ([]*model.FileRecord, error)
	FindExpiredFn func(ctx context.Context, now time.Time) ([]*model.FileRecord, error)
	DeleteFn      func(ctx context.Context, id string) error
	PingFn        func(ctx context.Context) error

	mu      sync.Mutex
	seq     int
	records []*model.FileRecord

	// InsertCalls — количество вызовов Insert/InsertMany
	InsertCalls int
}

// NewMemFileRepository создаёт пустой репозиторий.
func NewMemFileRepository() *MemFileRepository {
	return &MemFileRepository{}
}

// Insert сохраняет одну запись.
func (r *MemFileRepository) Insert(ctx context.Context, rec *model.FileRecord) error {
	return r.InsertMany(ctx, []*model.FileRecord{rec})
}

// InsertMany сохраняет записи атомарно.
func (r *MemFileRepository) InsertMany(ctx context.Context, recs []*model.FileRecord) error {
	r.mu.Lock()
	r.InsertCalls++
	r.mu.Unlock()

	if r.InsertFn != nil {
		if err := r.InsertFn(ctx, recs); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.seq++
		rec.ID = idFor(r.seq)
		cp := *rec
		r.records = append(r.records, &cp)
	}
	return nil
}

// FindByPublicID возвращает копии записей в порядке вставки.
func (r *MemFileRepository) FindByPublicID(ctx context.Context, publicID string) ([]*model.FileRecord, error) {
	if r.FindFn != nil {
		return r.FindFn(ctx, publicID)
	}
	return r.filter(func(rec *model.FileRecord) bool { return rec.PublicID == publicID }), nil
}

// FindExpired возвращает записи с ExpiresAt < now.
func (r *MemFileRepository) FindExpired(ctx context.Context, now time.Time) ([]*model.FileRecord, error) {
	if r.FindExpiredFn != nil {
		return r.FindExpiredFn(ctx, now)
	}
	return r.filter(func(rec *model.FileRecord) bool { return rec.IsExpired(now) }), nil
}

// Delete удаляет запись по ID.
func (r *MemFileRepository) Delete(ctx context.Context, id string) error {
	if r.DeleteFn != nil {
		if err := r.DeleteFn(ctx, id); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Ping — по умолчанию хранилище доступно.
func (r *MemFileRepository) Ping(ctx context.Context) error {
	if r.PingFn != nil {
		return r.PingFn(ctx)
	}
	return nil
}

// Seed добавляет запись напрямую, назначая ID.
func (r *MemFileRepository) Seed(rec *model.FileRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec.ID = idFor(r.seq)
	cp := *rec
	r.records = append(r.records, &cp)
}

// All возвращает копии всех записей.
func (r *MemFileRepository) All() []*model.FileRecord {
	return r.filter(func(*model.FileRecord) bool { return true })
}

func (r *MemFileRepository) filter(keep func(*model.FileRecord) bool) []*model.FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.FileRecord, 0)
	for _, rec := range r.records {
		if keep(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}

func idFor(n int) string {
	const hex = "0123456789abcdef"
	b := []byte("000000000000000000000000")
	for i := len(b) - 1; n > 0 && i >= 0; i-- {
		b[i] = hex[n%16]
		n /= 16
	}
	return string(b)
}
