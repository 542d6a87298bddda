package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 业务与 HTTP 指标集合。nil *Metrics 的所有记录方法均为空操作，便于测试。
type Metrics struct {
	// 工作单元
	UnitOfWorkCommits *prometheus.CounterVec   // result: committed | rolled_back | retried
	CommitDuration    prometheus.Histogram     // 提交耗时（秒）
	StagedChanges     *prometheus.CounterVec   // op: insert | update | delete

	// 排班冲突
	ConflictChecks    *prometheus.CounterVec // source: activity | route
	ConflictsDetected *prometheus.CounterVec // resource: vehicle | driver

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitHits       *prometheus.CounterVec
}

// NewMetrics 在 reg 上注册全部指标；reg 为 nil 时使用默认注册器
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UnitOfWorkCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_uow_commits_total",
				Help: "Unit of work completions by result",
			},
			[]string{"result"},
		),
		CommitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "busbuddy_uow_commit_duration_seconds",
				Help:    "Duration of unit of work commits",
				Buckets: prometheus.DefBuckets,
			},
		),
		StagedChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_uow_staged_changes_total",
				Help: "Changes applied by unit of work commits by operation",
			},
			[]string{"op"},
		),
		ConflictChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_schedule_conflict_checks_total",
				Help: "Schedule conflict checks performed",
			},
			[]string{"source"},
		),
		ConflictsDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_schedule_conflicts_total",
				Help: "Schedule conflicts detected by resource",
			},
			[]string{"resource"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "busbuddy_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busbuddy_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"backend"},
		),
	}
}

// RecordCommit 记录一次工作单元提交结果
func (m *Metrics) RecordCommit(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.UnitOfWorkCommits.WithLabelValues(result).Inc()
	if result == "committed" {
		m.CommitDuration.Observe(d.Seconds())
	}
}

// RecordStaged 记录提交时应用的变更数
func (m *Metrics) RecordStaged(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.StagedChanges.WithLabelValues(op).Add(float64(n))
}

// RecordConflictCheck 记录一次冲突检测
func (m *Metrics) RecordConflictCheck(source string) {
	if m == nil {
		return
	}
	m.ConflictChecks.WithLabelValues(source).Inc()
}

// RecordConflict 记录一次检出的冲突
func (m *Metrics) RecordConflict(resource string) {
	if m == nil {
		return
	}
	m.ConflictsDetected.WithLabelValues(resource).Inc()
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordRateLimitHit 记录一次限流拒绝
func (m *Metrics) RecordRateLimitHit(backend string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(backend).Inc()
}
