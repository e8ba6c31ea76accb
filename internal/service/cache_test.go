package service

import (
	"testing"
	"time"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

func TestCacheService_SetGet(t *testing.T) {
	c := NewCacheService(10, time.Minute)
	records := []*model.FileRecord{{PublicID: "p1", Name: "a.txt"}}

	c.Set("p1", records)

	got, ok := c.Get("p1")
	if !ok {
		t.Fatal("Ожидалось попадание в кэш")
	}
	if len(got) != 1 || got[0].Name != "a.txt" {
		t.Errorf("Записи из кэша: %+v", got)
	}
}

func TestCacheService_EmptyNotCached(t *testing.T) {
	c := NewCacheService(10, time.Minute)
	c.Set("p1", nil)
	c.Set("p2", []*model.FileRecord{})

	if _, ok := c.Get("p1"); ok {
		t.Error("nil-список не должен кэшироваться")
	}
	if _, ok := c.Get("p2"); ok {
		t.Error("Пустой список не должен кэшироваться")
	}
}

func TestCacheService_Delete(t *testing.T) {
	c := NewCacheService(10, time.Minute)
	c.Set("p1", []*model.FileRecord{{PublicID: "p1"}})
	c.Delete("p1")

	if _, ok := c.Get("p1"); ok {
		t.Error("Запись должна быть удалена из кэша")
	}
}

func TestCacheService_TTL(t *testing.T) {
	c := NewCacheService(10, 50*time.Millisecond)
	c.Set("p1", []*model.FileRecord{{PublicID: "p1"}})

	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get("p1"); ok {
		t.Error("Запись должна истечь по TTL")
	}
}

func TestCacheService_Eviction(t *testing.T) {
	c := NewCacheService(2, time.Minute)
	c.Set("p1", []*model.FileRecord{{PublicID: "p1"}})
	c.Set("p2", []*model.FileRecord{{PublicID: "p2"}})
	c.Set("p3", []*model.FileRecord{{PublicID: "p3"}})

	if _, ok := c.Get("p1"); ok {
		t.Error("p1 должен быть вытеснен")
	}
	if _, ok := c.Get("p3"); !ok {
		t.Error("p3 должен остаться в кэше")
	}
}
