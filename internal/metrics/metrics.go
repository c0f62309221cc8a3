// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証結果のラベル値
const (
	AuthOutcomeSuccess = "success"
	AuthOutcomeFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(route string, duration time.Duration)
	RecordAuthAttempt(method, outcome string)
	RecordNoteOperation(operation string)
	RecordHighlightsCreated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	authAttempts      *prometheus.CounterVec
	noteOperations    *prometheus.CounterVec
	highlightsCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notely_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notely_http_request_duration_seconds",
			Help:    "ルート別のリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notely_auth_attempts_total",
			Help: "認証方式と結果別の認証試行数",
		}, []string{"method", "outcome"}),
		noteOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notely_note_operations_total",
			Help: "操作別のノートライフサイクル操作数",
		}, []string{"operation"}),
		highlightsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notely_highlights_created_total",
			Help: "作成されたハイライトの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authAttempts,
		c.noteOperations,
		c.highlightsCreated,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はルートパターン単位でリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(route string, duration time.Duration) {
	c.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAuthAttempt は認証試行を記録する。methodはpassword, google, register のいずれか。
func (c *Collector) RecordAuthAttempt(method, outcome string) {
	c.authAttempts.WithLabelValues(method, outcome).Inc()
}

// RecordNoteOperation はノート操作を記録する。
func (c *Collector) RecordNoteOperation(operation string) {
	c.noteOperations.WithLabelValues(operation).Inc()
}

// RecordHighlightsCreated は作成されたハイライト数を記録する。
func (c *Collector) RecordHighlightsCreated(count int) {
	if count <= 0 {
		return
	}
	c.highlightsCreated.Add(float64(count))
}

// NopCollector は何も記録しないMetricsCollector。メトリクス未設定時に使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordRequestLatency(string, time.Duration) {}
func (NopCollector) RecordAuthAttempt(string, string) {}
func (NopCollector) RecordNoteOperation(string) {}
func (NopCollector) RecordHighlightsCreated(int) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
