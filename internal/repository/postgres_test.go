package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

func TestBuildInsertMany(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	recs := []*model.FileRecord{
		model.NewFileRecord("pid", "a.txt", "text/plain", 3, "", model.DefaultFolderDescription, model.ExpirationHour, now),
		model.NewFileRecord("pid", "b.txt", "text/plain", 5, "", model.DefaultFolderDescription, model.ExpirationHour, now),
	}
	ids := []string{"id-1", "id-2"}

	query, args := buildInsertMany(recs, ids)

	if !strings.HasPrefix(query, "INSERT INTO shared_files (") {
		t.Errorf("query начинается не с INSERT: %q", query)
	}
	if !strings.Contains(query, "($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11), ($12,") {
		t.Errorf("неверные плейсхолдеры: %q", query)
	}
	if !strings.HasSuffix(query, "$22)") {
		t.Errorf("последний плейсхолдер должен быть $22: %q", query)
	}
	if len(args) != 2*fileColumnCount {
		t.Fatalf("len(args) = %d, ожидается %d", len(args), 2*fileColumnCount)
	}
	if args[0] != "id-1" || args[fileColumnCount] != "id-2" {
		t.Errorf("ID в аргументах: %v, %v", args[0], args[fileColumnCount])
	}
	if args[2] != "pid/a.txt" {
		t.Errorf("storage_key = %v, ожидается pid/a.txt", args[2])
	}
}

func TestInsertBatches(t *testing.T) {
	tests := []struct {
		n, size int
		want    [][2]int
	}{
		{1, 1000, [][2]int{{0, 1}}},
		{1000, 1000, [][2]int{{0, 1000}}},
		{1001, 1000, [][2]int{{0, 1000}, {1000, 1001}}},
		{6000, 1000, [][2]int{{0, 1000}, {1000, 2000}, {2000, 3000}, {3000, 4000}, {4000, 5000}, {5000, 6000}}},
	}
	for _, tt := range tests {
		got := insertBatches(tt.n, tt.size)
		if len(got) != len(tt.want) {
			t.Errorf("insertBatches(%d, %d) = %v, ожидается %v", tt.n, tt.size, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("insertBatches(%d, %d)[%d] = %v, ожидается %v", tt.n, tt.size, i, got[i], tt.want[i])
			}
		}
	}
}

func TestInsertBatchRowsFitParamLimit(t *testing.T) {
	if insertBatchRows*fileColumnCount > maxParams {
		t.Errorf("пакет из %d строк даёт %d параметров, лимит %d",
			insertBatchRows, insertBatchRows*fileColumnCount, maxParams)
	}
}
