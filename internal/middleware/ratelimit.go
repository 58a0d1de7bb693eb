package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/shopguard/internal/model"
)

// RouteClass はレート制限のポリシーを共有するエンドポイント群を表す。
type RouteClass string

const (
	// RouteClassGeneral はAPI全般のルートクラス。
	RouteClassGeneral RouteClass = "general-api"
	// RouteClassAuth は登録・ログインのルートクラス。
	RouteClassAuth RouteClass = "auth"
	// RouteClassProductCreate はプロダクト作成専用のルートクラス。
	RouteClassProductCreate RouteClass = "product-create"
)

// WindowPolicy は固定ウィンドウ1つ分のポリシーを表す。
type WindowPolicy struct {
	Window time.Duration // ウィンドウ幅
	Max    int           // ウィンドウ内の最大リクエスト数
}

// RateLimiterConfig はルートクラスごとの固定ウィンドウ設定を保持する。
type RateLimiterConfig struct {
	General         WindowPolicy
	Auth            WindowPolicy
	ProductCreate   WindowPolicy
	CleanupInterval time.Duration // 期限切れカウンタのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: general-api 100回/60秒、auth 5回/15分、product-create 10回/60分
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		General:         WindowPolicy{Window: 60 * time.Second, Max: 100},
		Auth:            WindowPolicy{Window: 15 * time.Minute, Max: 5},
		ProductCreate:   WindowPolicy{Window: 60 * time.Minute, Max: 10},
		CleanupInterval: 5 * time.Minute,
	}
}

// counterKey は(クライアント識別子, ルートクラス)の組。
type counterKey struct {
	clientKey string
	class     RouteClass
}

// windowCounter は固定ウィンドウ1つ分のカウンタ。
type windowCounter struct {
	windowStart time.Time
	count       int
}

// RateLimiter は(クライアント識別子, ルートクラス)ごとの固定ウィンドウ
// カウンタを管理する。カウンタはプロセスローカルなベストエフォートで、
// 再起動をまたいで保持されず、並列インスタンス間でも共有されない
// （ドキュメント化された制限であり、バグではない）。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	counters map[counterKey]*windowCounter

	stopCh  chan struct{}
	now     func() time.Time // テストで差し替えるための時刻関数
	metrics SecurityEventRecorder
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れカウンタのクリーンアップを開始する。
// metricsはnilでもよい。
func NewRateLimiter(config RateLimiterConfig, metrics SecurityEventRecorder) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		counters: make(map[counterKey]*windowCounter),
		stopCh:   make(chan struct{}),
		now:      time.Now,
		metrics:  metrics,
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware は指定ルートクラスのレート制限ミドルウェアを返す。
// 許可・拒否に関わらず全レスポンスにRateLimit-*開示ヘッダーを付与し、
// 超過時は429とRetry-Afterヘッダーを返す。
func (rl *RateLimiter) Middleware(class RouteClass) func(next http.Handler) http.Handler {
	policy := rl.policyFor(class)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := ClientKeyFromRequest(r)

			admitted, remaining, resetAfter := rl.take(clientKey, class, policy)

			w.Header().Set("RateLimit-Limit", strconv.Itoa(policy.Max))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(int(resetAfter.Seconds())))

			if !admitted {
				if rl.metrics != nil {
					rl.metrics.RecordSecurityRejection("rate_limit")
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(resetAfter)))
				WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// take はカウンタを原子的に進め、許可可否・残量・リセットまでの時間を返す。
// ウィンドウが未開始または満了している場合はcount=1で新しいウィンドウを開く。
func (rl *RateLimiter) take(clientKey string, class RouteClass, policy WindowPolicy) (admitted bool, remaining int, resetAfter time.Duration) {
	now := rl.now()
	key := counterKey{clientKey: clientKey, class: class}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.counters[key]
	if !exists || now.Sub(c.windowStart) >= policy.Window {
		rl.counters[key] = &windowCounter{windowStart: now, count: 1}
		return true, policy.Max - 1, policy.Window
	}

	c.count++
	resetAfter = policy.Window - now.Sub(c.windowStart)

	if c.count > policy.Max {
		return false, 0, resetAfter
	}
	return true, policy.Max - c.count, resetAfter
}

// policyFor はルートクラスに対応するポリシーを返す。
func (rl *RateLimiter) policyFor(class RouteClass) WindowPolicy {
	switch class {
	case RouteClassAuth:
		return rl.config.Auth
	case RouteClassProductCreate:
		return rl.config.ProductCreate
	default:
		return rl.config.General
	}
}

// CounterCount は現在管理されているカウンタのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) CounterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.counters)
}

// cleanupLoop はバックグラウンドで期限切れカウンタを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はウィンドウ満了からCleanupIntervalを超えて経過したカウンタを削除する。
func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.counters {
		policy := rl.policyFor(key.class)
		if now.Sub(c.windowStart) > policy.Window+rl.config.CleanupInterval {
			delete(rl.counters, key)
		}
	}
}

// ClientKeyFromRequest は接続元アドレスからクライアント識別子を導出する。
// ポート番号は揺らぐため除外し、ホスト部のみを使用する。
func ClientKeyFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds はRetry-Afterヘッダー用の秒数を算出する。最低1秒。
func retryAfterSeconds(d time.Duration) int {
	sec := int(d.Seconds())
	if sec < 1 {
		sec = 1
	}
	return sec
}
