package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// チェックアウト・決済系（Strict）
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func init() {
	go cleanupVisitors()
}

func getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// 古いエントリを掃除してマップの肥大化を防ぐ。
func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for ip, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, ip)
			}
		}
		mu.Unlock()
	}
}

// RateLimit はIP単位のレートリミット。
func RateLimit() echo.MiddlewareFunc {
	return rateLimitTier(limitGeneral, burstGeneral, "general")
}

// RateLimitStrict はチェックアウトなど高コストな経路用。
// Webhookには掛けない（429はプロバイダの無限リトライを招く）。
func RateLimitStrict() echo.MiddlewareFunc {
	return rateLimitTier(limitStrict, burstStrict, "strict")
}

func rateLimitTier(limit rate.Limit, burst int, tier string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP() + ":" + tier

			limiter := getVisitor(key, limit, burst)
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": http.StatusText(http.StatusTooManyRequests),
				})
			}

			return next(c)
		}
	}
}
