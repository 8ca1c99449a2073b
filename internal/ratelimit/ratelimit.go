// Package ratelimit はクライアントIP単位の簡易レートリミットを提供します。
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// bucket は1つのクライアントIPに対する固定ウィンドウのカウンタです。
type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter は固定ウィンドウ方式のインメモリレートリミッタです。
// プロセス単位の制限であり、複数インスタンス間では共有されません。
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

// New は1分あたり limit 回まで許可するリミッタを作成します。
// limit が0以下の場合は制限なしとして扱います。
func New(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Middleware はリクエスト数を検査する gin ミドルウェアを返します。
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		retryAfter, ok := l.allow(c.ClientIP())
		if !ok {
			// Retry-After は秒数またはHTTP-Date形式が推奨されているため秒数で返す
			c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "TOO_MANY_REQUESTS",
				"message": "リクエストが多すぎます。しばらくしてから再度お試しください。",
			})
			return
		}
		c.Next()
	}
}

func (l *Limiter) allow(key string) (time.Duration, bool) {
	if l.limit <= 0 {
		return 0, true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.buckets[key]
	if !ok || now.Sub(state.windowStart) >= l.window {
		l.prune(now)
		state = &bucket{windowStart: now}
		l.buckets[key] = state
	}

	if state.count >= l.limit {
		return state.windowStart.Add(l.window).Sub(now), false
	}
	state.count++
	return 0, true
}

// prune は期限切れウィンドウのエントリを回収します。呼び出し側がロックを
// 保持している前提です。
func (l *Limiter) prune(now time.Time) {
	for key, state := range l.buckets {
		if now.Sub(state.windowStart) >= l.window {
			delete(l.buckets, key)
		}
	}
}
