// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ワーカー、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordToggle(outcome string)
	RecordToggleLatency(duration time.Duration)
	RecordAuthRequest()
	RecordAuthPoll(result string)
	RecordAuthExpired(count int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	toggles       *prometheus.CounterVec
	toggleLatency prometheus.Histogram
	authRequests  prometheus.Counter
	authPolls     *prometheus.CounterVec
	authExpired   prometheus.Counter
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_toggles_total",
			Help: "打刻トグルの結果別の合計数",
		}, []string{"outcome"}),
		toggleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeclock_toggle_latency_seconds",
			Help:    "打刻トグル1回あたりの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_auth_requests_total",
			Help: "作成された認証リクエストの合計数",
		}),
		authPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_auth_polls_total",
			Help: "認証ポーリングの結果別の合計数",
		}, []string{"result"}),
		authExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_auth_expired_total",
			Help: "クリーンアップで期限切れにした認証リクエストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.toggles,
		c.toggleLatency,
		c.authRequests,
		c.authPolls,
		c.authExpired,
		c.httpStatus,
	)

	return c
}

// RecordToggle はトグルの結果を記録する。
func (c *Collector) RecordToggle(outcome string) {
	c.toggles.WithLabelValues(outcome).Inc()
}

// RecordToggleLatency はトグルの処理時間を記録する。
func (c *Collector) RecordToggleLatency(duration time.Duration) {
	c.toggleLatency.Observe(duration.Seconds())
}

// RecordAuthRequest は認証リクエストの作成を記録する。
func (c *Collector) RecordAuthRequest() {
	c.authRequests.Inc()
}

// RecordAuthPoll はポーリング結果（pending/confirmed/expired）を記録する。
func (c *Collector) RecordAuthPoll(result string) {
	c.authPolls.WithLabelValues(result).Inc()
}

// RecordAuthExpired はクリーンアップで期限切れにした件数を記録する。
func (c *Collector) RecordAuthExpired(count int64) {
	c.authExpired.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordToggle(string)               {}
func (Nop) RecordToggleLatency(time.Duration) {}
func (Nop) RecordAuthRequest()                {}
func (Nop) RecordAuthPoll(string)             {}
func (Nop) RecordAuthExpired(int64)           {}
func (Nop) RecordHTTPStatus(int)              {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
