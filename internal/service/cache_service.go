package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Staleness windows per query family. Cached results are never patched in
// place: mutations only invalidate, and the next read re-fetches from the
// database, which stays the sole source of truth.
const (
	TTLItemList      = 1 * time.Minute
	TTLMyItems       = 30 * time.Second
	TTLConversations = 30 * time.Second
	TTLAdminStats    = 2 * time.Minute
	TTLCatalog       = 5 * time.Minute
	TTLUsersList     = 1 * time.Minute
)

// CacheService provides in-memory caching with TTL and invalidation support.
// Keys are a composite of operation name and input parameters.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService creates a new cache service.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}

	// Start background cleanup goroutine
	go cs.cleanup()

	return cs
}

// Get retrieves a value from cache.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}

	// Check if expired
	if time.Now().After(entry.expiresAt) {
		// Don't delete here, let cleanup handle it
		return nil, false
	}

	return entry.data, true
}

// Set stores a value in cache with TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Invalidate marks the given keys stale. Idempotent: concurrent operations
// may race to invalidate the same key harmlessly.
func (cs *CacheService) Invalidate(keys ...string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, key := range keys {
		delete(cs.cache, key)
	}
}

// InvalidateByPrefix removes all keys with the given prefix.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// cleanup removes expired entries periodically.
func (cs *CacheService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cs.mu.Lock()
		now := time.Now()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

// Cache key generators: operation name + parameters.

func ItemListCacheKey(status, itemType, search string, limit, offset int) string {
	return "items:list:" + status + ":" + itemType + ":" + search + ":" +
		strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

func MyItemsCacheKey(userID uuid.UUID) string {
	return "items:mine:" + userID.String()
}

func ConversationsCacheKey(userID uuid.UUID) string {
	return "conversations:list:" + userID.String()
}

func AdminStatsCacheKey() string {
	return "admin:stats"
}

func CatalogCacheKey(kind string) string {
	return "catalog:" + kind
}

func UsersListCacheKey(limit, offset int) string {
	return "users:list:" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

// GetOrSet retrieves a value from cache or computes it if not found.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func() (interface{}, error),
) (interface{}, error) {
	// Try to get from cache
	if value, found := cs.Get(key); found {
		return value, nil
	}

	// Compute value
	value, err := fn()
	if err != nil {
		return nil, err
	}

	// Store in cache
	cs.Set(key, value, ttl)

	return value, nil
}
