package sitac

import (
	"testing"
	"time"
)

// fakeClock — управляемые часы для тестов кэша.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestCache() (*MemoryTokenCache, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryTokenCache()
	cache.now = clock.now
	return cache, clock
}

func TestMemoryTokenCache_Empty(t *testing.T) {
	cache, _ := newTestCache()

	token, valid := cache.Get()
	if token != nil || valid {
		t.Errorf("Get() пустого кэша = (%v, %v), ожидается (nil, false)", token, valid)
	}
}

func TestMemoryTokenCache_TTLBoundary(t *testing.T) {
	cache, clock := newTestCache()

	// expires_in=1800 → TTL в кэше 1770 секунд
	cache.Set(&TokenData{AccessToken: "tok", ExpiresIn: 1800}, 1770*time.Second)

	if _, valid := cache.Get(); !valid {
		t.Fatal("токен сразу после Set должен быть валиден")
	}

	clock.advance(1769 * time.Second)
	if _, valid := cache.Get(); !valid {
		t.Error("токен за 1 секунду до истечения TTL должен быть валиден")
	}

	clock.advance(1 * time.Second)
	token, valid := cache.Get()
	if valid {
		t.Error("токен в момент истечения TTL должен быть невалиден")
	}
	// Запись сохраняется: refresh token ещё может пригодиться
	if token == nil || token.AccessToken != "tok" {
		t.Error("истёкшая запись должна возвращаться для доступа к refresh token")
	}
}

func TestMemoryTokenCache_NonPositiveTTL(t *testing.T) {
	cache, _ := newTestCache()

	// expires_in <= 60 даёт TTL <= 0: запись сразу истёкшая
	cache.Set(&TokenData{AccessToken: "tok", ExpiresIn: 30}, -30*time.Second)

	if _, valid := cache.Get(); valid {
		t.Error("запись с отрицательным TTL должна быть сразу невалидна")
	}
}

func TestMemoryTokenCache_Overwrite(t *testing.T) {
	cache, _ := newTestCache()

	cache.Set(&TokenData{AccessToken: "первый"}, time.Minute)
	cache.Set(&TokenData{AccessToken: "второй"}, time.Minute)

	token, valid := cache.Get()
	if !valid || token.AccessToken != "второй" {
		t.Errorf("Get() = %+v, ожидается последний записанный токен", token)
	}
}
