// Package ratelimit provides a Redis-backed fixed-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// EnvKeyPerMinute は1分あたりの上限を指定する環境変数名です。
	EnvKeyPerMinute = "RATE_LIMIT_PER_MINUTE"
	// DefaultPerMinute は1分あたりの上限のデフォルト値です。
	DefaultPerMinute = 60
)

// LoadPerMinute は環境変数から1分あたりの上限を読み込みます。不正値はデフォルトに戻します。
func LoadPerMinute() int {
	v := os.Getenv(EnvKeyPerMinute)
	if v == "" {
		return DefaultPerMinute
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid rate limit, using default", "value", v, "default", DefaultPerMinute)
		return DefaultPerMinute
	}
	return n
}

// Limiter はRedisのINCR+EXPIREによる固定ウィンドウのレートリミッターです。
// rdbがnilの場合は常に許可します。
type Limiter struct {
	rdb      *redis.Client
	limit    int           // ウィンドウあたりの上限
	interval time.Duration // ウィンドウの長さ
	prefix   string
	now      func() time.Time
}

// NewLimiter は新しいLimiterを生成します。
func NewLimiter(rdb *redis.Client, limit int, interval time.Duration) *Limiter {
	if interval < time.Second {
		interval = time.Minute
	}
	return &Limiter{
		rdb:      rdb,
		limit:    limit,
		interval: interval,
		prefix:   "ratelimit",
		now:      time.Now,
	}
}

// Allow はkeyに対する今回の呼び出しがウィンドウ内の上限以下かを返します。
// Redisエラー時は許可とエラーを返します。
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	window := l.now().Unix() / int64(l.interval/time.Second)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, window)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		// 最初のカウントでウィンドウの期限を設定
		_ = l.rdb.Expire(ctx, k, l.interval).Err()
	}
	return n <= int64(l.limit), nil
}

// Middleware はクライアントIP単位で制限するginミドルウェアを返します。
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "error", err, "remote_addr", c.ClientIP())
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
