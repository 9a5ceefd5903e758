package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（status: success, insufficient_seats, not_found, lock_failed, error）
	BookingsTotal *prometheus.CounterVec

	// キャンセル試行の総数（status: success, already_cancelled, not_found, error）
	CancellationsTotal *prometheus.CounterVec

	// 座席在庫のクリティカルセクション所要時間（operation: reserve/release）
	SeatLockDuration *prometheus.HistogramVec

	// 在庫トランザクションのリトライ回数
	InventoryRetriesTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of seat reservation attempts",
			},
			[]string{"status"},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cancellations_total",
				Help: "Total number of seat release attempts",
			},
			[]string{"status"},
		),
		SeatLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seat_lock_duration_seconds",
				Help:    "Time spent inside the per-schedule critical section",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		InventoryRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_retries_total",
				Help: "Total number of retried inventory transactions",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.CancellationsTotal,
		m.SeatLockDuration,
		m.InventoryRetriesTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
