package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache é um cache em memória com TTL por item
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]*cacheItem[V]
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once

	hits   int64
	misses int64
	onHit  func(hit bool)
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// New cria um cache com o TTL padrão e inicia a limpeza periódica
func New[V any](ttl time.Duration) *Cache[V] {
	return NewWithInterval[V](ttl, time.Minute)
}

// NewWithInterval permite ajustar o intervalo da limpeza
func NewWithInterval[V any](ttl, interval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:    make(map[string]*cacheItem[V]),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go c.cleanup(interval)

	return c
}

// OnLookup registra um callback chamado em cada Get (true = acerto)
func (c *Cache[V]) OnLookup(fn func(hit bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHit = fn
}

// Get busca um valor; itens expirados contam como falta
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	fn := c.onHit
	c.mu.RUnlock()

	hit := exists && time.Now().Before(item.expiration)
	if hit {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	if fn != nil {
		fn(hit)
	}

	if !hit {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set grava com o TTL padrão
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL grava com um TTL específico
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

// Touch renova a expiração de um item existente
func (c *Cache[V]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.expiration) {
		return false
	}
	item.expiration = time.Now().Add(c.ttl)
	return true
}

// Delete remove um item
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear remove todos os itens
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem[V])
}

// InvalidatePrefix remove todas as chaves com o prefixo
func (c *Cache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Stats são as estatísticas do cache
type Stats struct {
	ItemCount int   `json:"item_count"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// Stats retorna as estatísticas atuais
func (c *Cache[V]) Stats() Stats {
	return Stats{
		ItemCount: c.Size(),
		HitCount:  atomic.LoadInt64(&c.hits),
		MissCount: atomic.LoadInt64(&c.misses),
	}
}

func (c *Cache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// Stop encerra a limpeza periódica; pode ser chamado mais de uma vez
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

// Size retorna o número de itens (inclusive expirados ainda não limpos)
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
