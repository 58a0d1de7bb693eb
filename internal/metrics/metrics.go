// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する。
// 利用側はmiddlewareパッケージの部分インターフェース経由で受け取る。
type Collector struct {
	httpStatus         *prometheus.CounterVec
	requestDuration    prometheus.Histogram
	securityRejections *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopguard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopguard_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		securityRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopguard_security_rejections_total",
			Help: "セキュリティパイプラインによる拒否数（種別: rate_limit, origin, csrf, injection）",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.securityRejections,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordSecurityRejection はセキュリティパイプラインによる拒否を種別付きで記録する。
func (c *Collector) RecordSecurityRejection(kind string) {
	c.securityRejections.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
