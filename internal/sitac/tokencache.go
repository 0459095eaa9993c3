package sitac

import (
	"sync"
	"time"
)

// TokenCache — хранилище единственной записи с токенами SITAC.
// Интерфейс позволяет подменять хранилище в тестах и при необходимости
// вынести кэш во внешний store.
type TokenCache interface {
	// Get возвращает сохранённые токены и признак того, что TTL не истёк.
	// После истечения TTL запись возвращается с false: access token
	// использовать нельзя, но refresh token ещё может сработать.
	Get() (*TokenData, bool)
	// Set сохраняет токены с заданным TTL.
	// TTL <= 0 означает немедленно истёкшую запись.
	Set(token *TokenData, ttl time.Duration)
}

// MemoryTokenCache — кэш токенов в памяти процесса.
// Пустой после рестарта. Гонка конкурентных заполнений допустима:
// побеждает последняя запись.
type MemoryTokenCache struct {
	mu        sync.Mutex
	token     *TokenData
	expiresAt time.Time

	// now подменяется в тестах
	now func() time.Time
}

// NewMemoryTokenCache создаёт пустой кэш токенов.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{now: time.Now}
}

func (c *MemoryTokenCache) Get() (*TokenData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil, false
	}
	return c.token, c.now().Before(c.expiresAt)
}

func (c *MemoryTokenCache) Set(token *TokenData, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = c.now().Add(ttl)
}
