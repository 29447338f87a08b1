// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// キャッシュ読み取り結果のラベル値
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheShared = "shared"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPクライアント、クエリキャッシュ、プロキシから利用する。
type MetricsCollector interface {
	RecordAPIRequest(method string, statusCode int, duration time.Duration)
	RecordTransportError(method string)
	RecordSessionTeardown()
	RecordCacheRead(result string)
	RecordProxyRequest(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests      *prometheus.CounterVec
	apiLatency       *prometheus.HistogramVec
	transportErrors  *prometheus.CounterVec
	sessionTeardowns prometheus.Counter
	cacheReads       *prometheus.CounterVec
	proxyRequests    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharehub_api_requests_total",
			Help: "バックエンドAPI呼び出しのメソッド・ステータス別の合計数",
		}, []string{"method", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sharehub_api_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharehub_api_transport_errors_total",
			Help: "レスポンスを受け取れなかったAPI呼び出しの合計数",
		}, []string{"method"}),
		sessionTeardowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sharehub_session_teardowns_total",
			Help: "401応答によるセッション破棄の合計数",
		}),
		cacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharehub_query_cache_reads_total",
			Help: "クエリキャッシュ読み取りの結果別の合計数",
		}, []string{"result"}),
		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharehub_proxy_requests_total",
			Help: "開発用プロキシが中継したリクエストのステータス別の合計数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.transportErrors,
		c.sessionTeardowns,
		c.cacheReads,
		c.proxyRequests,
	)

	return c
}

// RecordAPIRequest はAPI呼び出しのステータスとレイテンシを記録する。
func (c *Collector) RecordAPIRequest(method string, statusCode int, duration time.Duration) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.apiLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTransportError はトランスポートエラーを記録する。
func (c *Collector) RecordTransportError(method string) {
	c.transportErrors.WithLabelValues(method).Inc()
}

// RecordSessionTeardown はセッション破棄を記録する。
func (c *Collector) RecordSessionTeardown() {
	c.sessionTeardowns.Inc()
}

// RecordCacheRead はキャッシュ読み取り結果（hit, miss, shared）を記録する。
func (c *Collector) RecordCacheRead(result string) {
	c.cacheReads.WithLabelValues(result).Inc()
}

// RecordProxyRequest はプロキシの応答ステータスを記録する。
func (c *Collector) RecordProxyRequest(statusCode int) {
	c.proxyRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordAPIRequest(string, int, time.Duration) {}
func (Nop) RecordTransportError(string)                 {}
func (Nop) RecordSessionTeardown()                      {}
func (Nop) RecordCacheRead(string)                      {}
func (Nop) RecordProxyRequest(int)                      {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
