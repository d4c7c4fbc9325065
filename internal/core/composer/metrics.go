package composer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weisyn/zkcompose/pkg/types"
)

// 组合编排 Prometheus 指标
//
// 设计原则：
// - 仅暴露少量高价值指标，避免噪音；
// - 状态迁移路径上只做常数级更新；
// - 使用默认 Registry，方便通过 /metrics 统一抓取。

var (
	composerMetricsOnce sync.Once

	jobsActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "zkc",
		Subsystem: "composer",
		Name:      "jobs_active",
		Help:      "Number of orchestration jobs currently in a non-terminal state.",
	})

	jobsFinishedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zkc",
			Subsystem: "composer",
			Name:      "jobs_finished_total",
			Help:      "Orchestration jobs reaching a terminal state, labelled by outcome.",
		},
		[]string{"outcome"},
	)

	stateTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zkc",
			Subsystem: "composer",
			Name:      "state_transitions_total",
			Help:      "Job state machine transitions, labelled by target state.",
		},
		[]string{"to"},
	)

	jobDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zkc",
		Subsystem: "composer",
		Name:      "job_duration_seconds",
		Help:      "End-to-end duration of orchestration jobs reaching done.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	phaseDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zkc",
			Subsystem: "composer",
			Name:      "phase_duration_seconds",
			Help:      "Duration of the local proving and remote proving phases.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"phase"},
	)
)

// initComposerMetrics 在首次使用时注册编排指标。
func initComposerMetrics() {
	composerMetricsOnce.Do(func() {
		prometheus.MustRegister(
			jobsActiveGauge,
			jobsFinishedCounter,
			stateTransitionCounter,
			jobDurationHistogram,
			phaseDurationHistogram,
		)
	})
}

// observeTransition 记录一次状态迁移
func observeTransition(job *types.OrchestrationJob, to types.JobState) {
	initComposerMetrics()

	stateTransitionCounter.WithLabelValues(string(to)).Inc()

	switch to {
	case types.JobStateDone:
		jobsActiveGauge.Dec()
		jobsFinishedCounter.WithLabelValues("done").Inc()
		jobDurationHistogram.Observe(time.Since(job.CreatedAt).Seconds())
	case types.JobStateFailed:
		jobsActiveGauge.Dec()
		jobsFinishedCounter.WithLabelValues(string(job.Reason)).Inc()
	}
}

// observeJobCreated 记录作业创建
func observeJobCreated() {
	initComposerMetrics()
	jobsActiveGauge.Inc()
}

// observePhase 记录一个证明阶段的耗时（phase为local或remote）
func observePhase(phase string, start time.Time) {
	initComposerMetrics()
	phaseDurationHistogram.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
