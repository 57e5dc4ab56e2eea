// Package metrics 定义服务的 Prometheus 指标（promauto 注册到默认 Registry）。
//
//	metrics.ObserveOperation("recommend", "ok", time.Since(start))
//	metrics.RecordIndexCache("store", true)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal 按操作与结果计数：recommend / similar / predict / dataset。
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfrec_operations_total",
			Help: "Total number of recommender operations",
		},
		[]string{"operation", "outcome"},
	)

	// OperationDuration 记录操作耗时。
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfrec_operation_duration_seconds",
			Help:    "Duration of recommender operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// NodeDuration 记录 Pipeline 每个 Node 的耗时。
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfrec_pipeline_node_duration_seconds",
			Help:    "Duration of pipeline node execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node", "kind"},
	)

	// HTTPRequestDuration 按路由模板、方法与状态码记录 HTTP 耗时。
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfrec_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// IndexBuildsTotal 记录评分索引构建次数。
	IndexBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cfrec_index_builds_total",
			Help: "Total number of rating index builds",
		},
	)

	// IndexBuildDuration 记录索引构建耗时。
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfrec_index_build_duration_seconds",
			Help:    "Duration of rating index builds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// IndexCacheTotal 按层级（memory / store）记录索引缓存命中与未命中。
	IndexCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfrec_index_cache_total",
			Help: "Rating index cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	// PredictionsTotal 按结果记录 like/dislike/unknown。
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfrec_predictions_total",
			Help: "Total number of like/dislike predictions by outcome",
		},
		[]string{"outcome"},
	)

	// DatasetRecords 是当前加载的评分记录数。
	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfrec_dataset_records",
			Help: "Number of rating records currently loaded",
		},
	)

	// DatasetLoadsTotal 按结果记录数据加载次数。
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfrec_dataset_loads_total",
			Help: "Total number of rating dataset loads by outcome",
		},
		[]string{"outcome"},
	)
)

func ObserveOperation(operation, outcome string, d time.Duration) {
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func ObserveNode(node, kind string, d time.Duration) {
	NodeDuration.WithLabelValues(node, kind).Observe(d.Seconds())
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func ObserveIndexBuild(d time.Duration) {
	IndexBuildsTotal.Inc()
	IndexBuildDuration.Observe(d.Seconds())
}

// RecordIndexCache 记录一次缓存查找。
func RecordIndexCache(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	IndexCacheTotal.WithLabelValues(tier, result).Inc()
}

func RecordPrediction(outcome string) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
}

func RecordDatasetLoad(outcome string, records int) {
	DatasetLoadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		DatasetRecords.Set(float64(records))
	}
}
