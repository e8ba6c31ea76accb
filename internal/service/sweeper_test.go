package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
	"github.com/bigkaa/goartstore/share-module/internal/testutil"
)

// seedExpiring кладёт объект и запись с заданным ExpiresAt.
func seedExpiring(store *testutil.MemObjectStore, repo *testutil.MemFileRepository, publicID, name string, expiresAt time.Time) {
	rec := model.NewFileRecord(publicID, name, "text/plain", 4, "", model.DefaultFileDescription, model.ExpirationHour, testNow)
	rec.ExpiresAt = expiresAt
	store.Seed(rec.StorageKey, []byte("data"))
	repo.Seed(rec)
}

func newTestSweeper(store *testutil.MemObjectStore, repo *testutil.MemFileRepository, cache *CacheService) *SweeperService {
	s := NewSweeperService(store, repo, cache, time.Hour, testLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func TestSweeperRunOnce_NothingExpired(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "p1", "a.txt", testNow.Add(time.Minute))

	result := newTestSweeper(store, repo, nil).RunOnce(context.Background())

	if result.Expired != 0 || result.Deleted != 0 || result.Errors != 0 {
		t.Errorf("Результат: %+v", result)
	}
	if len(repo.All()) != 1 {
		t.Error("Запись не должна удаляться")
	}
}

func TestSweeperRunOnce_DeletesExpired(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "old", "a.txt", testNow.Add(-time.Hour))
	seedExpiring(store, repo, "old", "b.txt", testNow.Add(-time.Second))
	seedExpiring(store, repo, "fresh", "c.txt", testNow.Add(time.Hour))
	// Граница: ExpiresAt == now ещё не истекла
	seedExpiring(store, repo, "edge", "d.txt", testNow)

	result := newTestSweeper(store, repo, nil).RunOnce(context.Background())

	if result.Expired != 2 {
		t.Errorf("Expired: хотели 2, получили %d", result.Expired)
	}
	if result.Deleted != 2 {
		t.Errorf("Deleted: хотели 2, получили %d", result.Deleted)
	}
	if result.Errors != 0 {
		t.Errorf("Errors: хотели 0, получили %d", result.Errors)
	}

	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "edge/d.txt" || keys[1] != "fresh/c.txt" {
		t.Errorf("Оставшиеся объекты: %v", keys)
	}
	for _, rec := range repo.All() {
		if rec.PublicID == "old" {
			t.Errorf("Запись %s должна быть удалена", rec.StorageKey)
		}
	}
}

func TestSweeperRunOnce_DeletesByStorageKey(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "p1", "dir/report.pdf", testNow.Add(-time.Hour))

	newTestSweeper(store, repo, nil).RunOnce(context.Background())

	deleted := store.Deleted()
	if len(deleted) != 1 || deleted[0] != "p1/report.pdf" {
		t.Errorf("Удалённые ключи: %v", deleted)
	}
}

func TestSweeperRunOnce_ContinuesAfterError(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "p1", "a.txt", testNow.Add(-3*time.Hour))
	seedExpiring(store, repo, "p2", "b.txt", testNow.Add(-2*time.Hour))
	seedExpiring(store, repo, "p3", "c.txt", testNow.Add(-time.Hour))

	store.DeleteFn = func(_ context.Context, key string) error {
		if strings.HasPrefix(key, "p2/") {
			return errors.New("access denied")
		}
		return nil
	}

	result := newTestSweeper(store, repo, nil).RunOnce(context.Background())

	if result.Deleted != 2 || result.Errors != 1 {
		t.Errorf("Результат: %+v", result)
	}

	// Запись с неудалённым объектом остаётся до следующего запуска
	remaining := repo.All()
	if len(remaining) != 1 || remaining[0].PublicID != "p2" {
		t.Errorf("Оставшиеся записи: %d", len(remaining))
	}
}

func TestSweeperRunOnce_MissingObjectTolerated(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	rec := model.NewFileRecord("p1", "a.txt", "", 1, "", model.DefaultFileDescription, model.ExpirationHour, testNow)
	rec.ExpiresAt = testNow.Add(-time.Hour)
	repo.Seed(rec)

	result := newTestSweeper(store, repo, nil).RunOnce(context.Background())

	if result.Deleted != 1 || result.Errors != 0 {
		t.Errorf("Результат: %+v", result)
	}
	if len(repo.All()) != 0 {
		t.Error("Запись без объекта должна быть удалена")
	}
}

func TestSweeperRunOnce_FindError(t *testing.T) {
	repo := testutil.NewMemFileRepository()
	repo.FindExpiredFn = func(context.Context, time.Time) ([]*model.FileRecord, error) {
		return nil, errors.New("timeout")
	}

	result := newTestSweeper(testutil.NewMemObjectStore(), repo, nil).RunOnce(context.Background())

	if result.Errors != 1 || result.Deleted != 0 {
		t.Errorf("Результат: %+v", result)
	}
}

func TestSweeperRunOnce_InvalidatesCache(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "p1", "a.txt", testNow.Add(-time.Hour))

	cache := NewCacheService(16, time.Hour)
	cache.Set("p1", repo.All())

	newTestSweeper(store, repo, cache).RunOnce(context.Background())

	if _, ok := cache.Get("p1"); ok {
		t.Error("Кэш p1 должен быть инвалидирован")
	}
}

func TestSweeperStartStop(t *testing.T) {
	store := testutil.NewMemObjectStore()
	repo := testutil.NewMemFileRepository()
	seedExpiring(store, repo, "p1", "a.txt", testNow.Add(-time.Hour))

	s := newTestSweeper(store, repo, nil)
	s.Start(context.Background())

	// Первый запуск выполняется сразу после старта
	deadline := time.Now().Add(2 * time.Second)
	for len(repo.All()) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	s.Stop()

	if len(repo.All()) != 0 {
		t.Error("Просроченная запись должна быть удалена первым запуском")
	}
}

func TestSweeperStop_WithoutStart(t *testing.T) {
	s := newTestSweeper(testutil.NewMemObjectStore(), testutil.NewMemFileRepository(), nil)
	// Не должно блокироваться
	s.Stop()
}
