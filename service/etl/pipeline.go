/*
 * @module service/etl/pipeline
 * @description 转换流水线编排器，按固定状态机顺序执行清洗、统一视图、重复检测和质量检查
 * @architecture 数据转换层 - 编排器，状态机模式
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow Cleaning -> Unifying -> DuplicateDetection -> QualityChecking -> Done
 * @rules 各阶段严格顺序执行，任一阶段失败整个运行中止，不返回部分结果
 * @dependencies log/slog
 * @refs service/etl/cleaner.go, service/etl/unified_view.go, service/etl/duplicate_detector.go, service/etl/quality_reporter.go
 */

package etl

import (
	"fmt"
	"log/slog"

	"whatsapp-etl-service/service/models"
)

// PipelineState 流水线状态
type PipelineState string

const (
	StateCleaning           PipelineState = "cleaning"
	StateUnifying           PipelineState = "unifying"
	StateDuplicateDetection PipelineState = "duplicate_detection"
	StateQualityChecking    PipelineState = "quality_checking"
	StateDone               PipelineState = "done"
	StateFailed             PipelineState = "failed"
)

// PipelineConfig 流水线配置
// 核心不读取任何环境变量和全局状态，全部依赖显式注入
type PipelineConfig struct {
	// DatasetName 数据集标识，仅用于日志和运行记录
	DatasetName string
	// StrictRecords 为true时降级构造的派生记录也按失败处理
	StrictRecords bool
}

// PipelineResult 一次流水线运行的全部产物
type PipelineResult struct {
	UnifiedMessages Table
	Duplicates      []models.DuplicateRecord
	QualityReport   *models.DataQualityReport
	// StatusFlat 状态宽表中间产物，供单独落表
	StatusFlat Table
	// CleanedMessages / CleanedStatuses 清洗后的输入，供原始表上载
	CleanedMessages Table
	CleanedStatuses Table
}

// Pipeline 转换流水线
type Pipeline struct {
	config   PipelineConfig
	logger   *slog.Logger
	cleaner  *Cleaner
	builder  *UnifiedViewBuilder
	detector *DuplicateDetector
	reporter *QualityReporter
	state    PipelineState
}

// NewPipeline 创建转换流水线
func NewPipeline(config PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		config:   config,
		logger:   logger,
		cleaner:  NewCleaner(logger),
		builder:  NewUnifiedViewBuilder(logger),
		detector: NewDuplicateDetector(logger, config.StrictRecords),
		reporter: NewQualityReporter(logger),
	}
}

// State 返回当前流水线状态
func (p *Pipeline) State() PipelineState {
	return p.state
}

// Execute 顺序执行全部转换阶段
// 输入输出均为内存表格，单线程同步执行，不持有跨运行状态
func (p *Pipeline) Execute(messages, statuses Table) (result *PipelineResult, err error) {
	p.logger.Info("转换流水线开始", "dataset", p.config.DatasetName,
		"messages", len(messages), "statuses", len(statuses))

	// 阶段内部的意外panic视为阶段失败，整个运行中止
	defer func() {
		if r := recover(); r != nil {
			stage := p.state
			p.state = StateFailed
			result = nil
			err = fmt.Errorf("流水线在%s阶段异常中止: %v", stage, r)
		}
	}()

	p.state = StateCleaning
	cleanedMessages := p.cleaner.CleanMessages(messages)
	cleanedStatuses := p.cleaner.CleanStatuses(statuses)
	p.logger.Info("数据清洗完成",
		"messages", len(cleanedMessages), "statuses", len(cleanedStatuses))

	p.state = StateUnifying
	view := p.builder.Build(cleanedMessages, cleanedStatuses)

	p.state = StateDuplicateDetection
	duplicates := p.detector.Detect(cleanedMessages)

	p.state = StateQualityChecking
	report := p.reporter.Report(cleanedMessages, cleanedStatuses)
	// 重复检测结果由编排器回填，报告器本身不感知重复检测
	report.DuplicatesFound = int64(len(duplicates))

	p.state = StateDone
	p.logger.Info("转换流水线完成",
		"unified", len(view.Unified),
		"duplicates", len(duplicates),
		"quality_score", report.GetSummary().DataQualityScore)

	return &PipelineResult{
		UnifiedMessages: view.Unified,
		Duplicates:      duplicates,
		QualityReport:   report,
		StatusFlat:      view.StatusFlat,
		CleanedMessages: cleanedMessages,
		CleanedStatuses: cleanedStatuses,
	}, nil
}
