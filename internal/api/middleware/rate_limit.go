package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"busbuddy/config"
	"busbuddy/pkg/metrics"
	"busbuddy/pkg/redis"
	"busbuddy/pkg/response"
)

// RateLimit 速率限制中间件
// rdb 非 nil 时使用 Redis 滑动窗口（多实例共享额度）；
// 否则或 Redis 出错时退回进程内按 IP 的令牌桶
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	local := newIPLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		backend := "local"
		allowed := true

		if rdb != nil {
			ok, err := rdb.CheckRateLimit(c.Request.Context(), c.ClientIP(), cfg.Limit, cfg.Window)
			if err == nil {
				backend, allowed = "redis", ok
			} else {
				logger.Warn("Redis 限流失败，降级为本地令牌桶", zap.Error(err))
				allowed = local.allow(c.ClientIP())
			}
		} else {
			allowed = local.allow(c.ClientIP())
		}

		if !allowed {
			m.RecordRateLimitHit(backend)
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// ipLimiter 每个客户端 IP 一个令牌桶，闲置超过 idleTTL 的桶在下次访问时清理
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const idleTTL = 10 * time.Minute

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{limit: limit, burst: burst, visitors: make(map[string]*visitor), lastGC: time.Now()}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > idleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
