package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore counts requests per client key within a rolling window.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int, error)
}

type RateLimiter struct {
	store CounterStore
	limit int
}

func NewRateLimiter(store CounterStore, limit int) *RateLimiter {
	return &RateLimiter{store: store, limit: limit}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.store.Incr(r.Context(), r.RemoteAddr)
		if err != nil {
			// A limiter outage must not take the endpoint down.
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	count       int
	windowStart time.Time
}

// MemoryCounter is the in-process CounterStore used when no Redis is
// configured.
type MemoryCounter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	window   time.Duration
}

func NewMemoryCounter(window time.Duration) *MemoryCounter {
	mc := &MemoryCounter{
		visitors: make(map[string]*visitor),
		window:   window,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			mc.mu.Lock()
			for key, v := range mc.visitors {
				if time.Since(v.windowStart) > window {
					delete(mc.visitors, key)
				}
			}
			mc.mu.Unlock()
		}
	}()

	return mc
}

func (mc *MemoryCounter) Incr(_ context.Context, key string) (int, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	v, exists := mc.visitors[key]
	if !exists || time.Since(v.windowStart) > mc.window {
		mc.visitors[key] = &visitor{count: 1, windowStart: time.Now()}
		return 1, nil
	}

	v.count++
	return v.count, nil
}

// RedisCounter shares the rate-limit window across instances.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisCounter(client *redis.Client, window time.Duration) *RedisCounter {
	return &RedisCounter{client: client, window: window}
}

func (rc *RedisCounter) Incr(ctx context.Context, key string) (int, error) {
	redisKey := "ratelimit:" + key
	count, err := rc.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		rc.client.Expire(ctx, redisKey, rc.window)
	}
	return int(count), nil
}
