package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bigkaa/goartstore/share-module/internal/config"
	"github.com/bigkaa/goartstore/share-module/internal/database"
	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// skipUnlessIntegration пропускает тест без TEST_INTEGRATION.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}
}

// setupPostgres запускает PostgreSQL контейнер и применяет миграции.
func setupPostgres(t *testing.T) FileRepository {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("share_test"),
		postgres.WithUsername("share"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Не удалось получить DSN контейнера: %v", err)
	}

	cfg := &config.Config{
		DatabaseDSN:            dsn,
		DatabaseMaxConns:       4,
		MetadataConnectTimeout: 10 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return NewPostgresFileRepository(pool)
}

// setupMongo запускает MongoDB контейнер и создаёт индексы.
func setupMongo(t *testing.T) FileRepository {
	t.Helper()
	skipUnlessIntegration(t)

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "docker.io/mongo:7")
	if err != nil {
		t.Fatalf("Не удалось запустить MongoDB контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить URI контейнера: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("Ошибка подключения к MongoDB: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	coll := client.Database("share_test").Collection("files")
	if err := EnsureIndexes(ctx, coll); err != nil {
		t.Fatalf("EnsureIndexes() ошибка: %v", err)
	}

	return NewMongoFileRepository(coll)
}

func TestPostgresFileRepository(t *testing.T) {
	runRepositoryTests(t, setupPostgres(t))
}

func TestMongoFileRepository(t *testing.T) {
	runRepositoryTests(t, setupMongo(t))
}

// runRepositoryTests проверяет одинаковое поведение обеих реализаций.
func runRepositoryTests(t *testing.T, repo FileRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping() ошибка: %v", err)
	}

	t.Run("Insert и FindByPublicID", func(t *testing.T) {
		publicID := uuid.New().String()
		rec := model.NewFileRecord(publicID, "report.pdf", "application/pdf", 1024, "", model.DefaultFileDescription, model.ExpirationDay, now)
		rec.URL = "https://bucket.s3.eu-central-1.amazonaws.com/" + rec.StorageKey

		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
		if rec.ID == "" {
			t.Fatal("ID не установлен после Insert")
		}

		got, err := repo.FindByPublicID(ctx, publicID)
		if err != nil {
			t.Fatalf("FindByPublicID() ошибка: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("FindByPublicID() вернул %d записей, ожидается 1", len(got))
		}
		if got[0].ID != rec.ID || got[0].Name != "report.pdf" || got[0].Size != 1024 {
			t.Errorf("запись не совпадает: %+v", got[0])
		}
		if got[0].StorageKey != publicID+"/report.pdf" {
			t.Errorf("StorageKey = %q", got[0].StorageKey)
		}
		if !got[0].ExpiresAt.Equal(rec.ExpiresAt) {
			t.Errorf("ExpiresAt = %v, ожидается %v", got[0].ExpiresAt, rec.ExpiresAt)
		}
		if got[0].CreateDate != rec.CreateDate || got[0].CreateTime != rec.CreateTime {
			t.Errorf("снимки времени создания не совпадают: %+v", got[0])
		}
	})

	t.Run("InsertMany папки", func(t *testing.T) {
		publicID := uuid.New().String()
		recs := []*model.FileRecord{
			model.NewFileRecord(publicID, "a.txt", "text/plain", 1, "", model.DefaultFolderDescription, model.ExpirationHour, now),
			model.NewFileRecord(publicID, "b.txt", "text/plain", 2, "", model.DefaultFolderDescription, model.ExpirationHour, now),
			model.NewFileRecord(publicID, "c.txt", "text/plain", 3, "", model.DefaultFolderDescription, model.ExpirationHour, now),
		}

		if err := repo.InsertMany(ctx, recs); err != nil {
			t.Fatalf("InsertMany() ошибка: %v", err)
		}
		for _, r := range recs {
			if r.ID == "" {
				t.Errorf("ID не установлен для %s", r.Name)
			}
		}

		got, err := repo.FindByPublicID(ctx, publicID)
		if err != nil {
			t.Fatalf("FindByPublicID() ошибка: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("FindByPublicID() вернул %d записей, ожидается 3", len(got))
		}
		names := map[string]bool{}
		for _, r := range got {
			names[r.Name] = true
			if r.PublicID != publicID {
				t.Errorf("PublicID = %q, ожидается %q", r.PublicID, publicID)
			}
		}
		for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
			if !names[n] {
				t.Errorf("нет записи %s", n)
			}
		}
	})

	t.Run("InsertMany большой папки", func(t *testing.T) {
		// 6000 строк × 11 столбцов превышают лимит параметров одного запроса PostgreSQL
		publicID := uuid.New().String()
		recs := make([]*model.FileRecord, 6000)
		for i := range recs {
			recs[i] = model.NewFileRecord(publicID, "f"+strconv.Itoa(i)+".txt", "text/plain", 1, "",
				model.DefaultFolderDescription, model.ExpirationHour, now)
		}

		if err := repo.InsertMany(ctx, recs); err != nil {
			t.Fatalf("InsertMany() ошибка: %v", err)
		}

		got, err := repo.FindByPublicID(ctx, publicID)
		if err != nil {
			t.Fatalf("FindByPublicID() ошибка: %v", err)
		}
		if len(got) != len(recs) {
			t.Errorf("FindByPublicID() вернул %d записей, ожидается %d", len(got), len(recs))
		}
	})

	t.Run("FindByPublicID неизвестный", func(t *testing.T) {
		got, err := repo.FindByPublicID(ctx, uuid.New().String())
		if err != nil {
			t.Fatalf("FindByPublicID() ошибка: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ожидался пустой результат, получено %d", len(got))
		}
	})

	t.Run("FindExpired и Delete", func(t *testing.T) {
		publicID := uuid.New().String()
		expired := model.NewFileRecord(publicID, "old.bin", "", 10, "", model.DefaultFileDescription, model.ExpirationHour, now.Add(-2*time.Hour))
		fresh := model.NewFileRecord(publicID, "new.bin", "", 10, "", model.DefaultFileDescription, model.ExpirationHour, now)

		if err := repo.InsertMany(ctx, []*model.FileRecord{expired, fresh}); err != nil {
			t.Fatalf("InsertMany() ошибка: %v", err)
		}

		got, err := repo.FindExpired(ctx, now)
		if err != nil {
			t.Fatalf("FindExpired() ошибка: %v", err)
		}

		var foundExpired, foundFresh bool
		for _, r := range got {
			if r.ID == expired.ID {
				foundExpired = true
			}
			if r.ID == fresh.ID {
				foundFresh = true
			}
		}
		if !foundExpired {
			t.Error("просроченная запись не найдена")
		}
		if foundFresh {
			t.Error("непросроченная запись попала в FindExpired")
		}

		if err := repo.Delete(ctx, expired.ID); err != nil {
			t.Fatalf("Delete() ошибка: %v", err)
		}
		if err := repo.Delete(ctx, expired.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("повторный Delete() = %v, ожидается ErrNotFound", err)
		}
		if err := repo.Delete(ctx, "not-an-id"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(not-an-id) = %v, ожидается ErrNotFound", err)
		}

		left, err := repo.FindByPublicID(ctx, publicID)
		if err != nil {
			t.Fatalf("FindByPublicID() ошибка: %v", err)
		}
		if len(left) != 1 || left[0].ID != fresh.ID {
			t.Errorf("после Delete осталось %d записей", len(left))
		}
	})
}
