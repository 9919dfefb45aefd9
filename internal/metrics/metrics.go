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
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRecommendation(kind string, personalized bool, reason string)
	RecordSegmentLookup(duration time.Duration)
	RecordCacheResult(cache string, hit bool)
	RecordPurchase(result string)
	RecordNotificationsDeleted(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus           *prometheus.CounterVec
	recommendations      *prometheus.CounterVec
	segmentLookup        prometheus.Histogram
	cacheRequests        *prometheus.CounterVec
	purchases            *prometheus.CounterVec
	notificationsDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newleaf_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newleaf_recommendations_total",
			Help: "推薦リクエスト数（種別・パーソナライズ有無・フォールバック理由別）",
		}, []string{"kind", "personalized", "reason"}),
		segmentLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newleaf_segment_lookup_seconds",
			Help:    "郵便番号セグメント解決のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newleaf_cache_requests_total",
			Help: "キャッシュ参照数（キャッシュ種別・ヒット有無別）",
		}, []string{"cache", "result"}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newleaf_listing_purchases_total",
			Help: "出品購入の試行数（結果別）",
		}, []string{"result"}),
		notificationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newleaf_notifications_deleted_total",
			Help: "クリーンアップで削除された通知の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.recommendations,
		c.segmentLookup,
		c.cacheRequests,
		c.purchases,
		c.notificationsDeleted,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRecommendation は推薦結果を記録する。reasonはパーソナライズ時は空文字。
func (c *Collector) RecordRecommendation(kind string, personalized bool, reason string) {
	c.recommendations.WithLabelValues(kind, strconv.FormatBool(personalized), reason).Inc()
}

// RecordSegmentLookup はセグメント解決のレイテンシを記録する。
func (c *Collector) RecordSegmentLookup(duration time.Duration) {
	c.segmentLookup.Observe(duration.Seconds())
}

// RecordCacheResult はキャッシュのヒット・ミスを記録する。
func (c *Collector) RecordCacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordPurchase は購入の結果を記録する。
func (c *Collector) RecordPurchase(result string) {
	c.purchases.WithLabelValues(result).Inc()
}

// RecordNotificationsDeleted は削除された通知数を記録する。
func (c *Collector) RecordNotificationsDeleted(count int64) {
	c.notificationsDeleted.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。テストや未設定時に使う。
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordRecommendation(string, bool, string) {}
func (Nop) RecordSegmentLookup(time.Duration) {}
func (Nop) RecordCacheResult(string, bool) {}
func (Nop) RecordPurchase(string) {}
func (Nop) RecordNotificationsDeleted(int64) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
