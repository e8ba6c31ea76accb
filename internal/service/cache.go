// Пакет service — бизнес-логика Share Module.
// CacheService — LRU-кэш записей по public_id с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_cache_hits_total",
		Help: "Общее количество попаданий в кэш записей.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_cache_misses_total",
		Help: "Общее количество промахов кэша записей.",
	})
)

// CacheService — кэш списков записей по public_id.
// Кэш локален для экземпляра; после удаления sweeper'ом другого экземпляра
// запись может жить в нём не дольше TTL.
type CacheService struct {
	cache *expirable.LRU[string, []*model.FileRecord]
}

// NewCacheService создаёт кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, []*model.FileRecord](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает записи по public_id.
func (c *CacheService) Get(publicID string) ([]*model.FileRecord, bool) {
	val, ok := c.cache.Get(publicID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set сохраняет записи. Пустой список не кэшируется.
func (c *CacheService) Set(publicID string, records []*model.FileRecord) {
	if len(records) == 0 {
		return
	}
	c.cache.Add(publicID, records)
}

// Delete инвалидирует public_id.
func (c *CacheService) Delete(publicID string) {
	c.cache.Remove(publicID)
}
