/*
 * @module service/metrics/metrics
 * @description ETL运行指标，暴露到/metrics供采集
 * @architecture 工具层 - prometheus默认注册表上的计数器与仪表
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 运行结束 -> 记录结果指标
 * @rules 指标注册在包加载时完成，记录操作并发安全
 * @dependencies github.com/prometheus/client_golang
 * @refs service/etl_run_service.go, main.go
 */

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal 按结果统计的ETL运行总数
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "ETL运行总数，按结果分类",
	}, []string{"status"})

	// LastRunDuration 最近一次运行耗时（秒）
	LastRunDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etl_last_run_duration_seconds",
		Help: "最近一次ETL运行耗时",
	})

	// LastQualityScore 最近一次运行的数据质量评分
	LastQualityScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etl_last_quality_score",
		Help: "最近一次ETL运行的数据质量评分(0-100)",
	})

	// LastUnifiedRows 最近一次运行产出的统一视图行数
	LastUnifiedRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etl_last_unified_rows",
		Help: "最近一次ETL运行产出的统一视图行数",
	})
)

// RecordRun 记录一次运行结果
func RecordRun(status string, duration time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	LastRunDuration.Set(duration.Seconds())
}

// RecordQuality 记录一次运行的质量结果
func RecordQuality(score float64, unifiedRows int) {
	LastQualityScore.Set(score)
	LastUnifiedRows.Set(float64(unifiedRows))
}
