/*
 * @module service/etl/quality_reporter
 * @description 数据质量报告器，对清洗后的消息表和状态表执行独立的计数检查并汇总成报告
 * @architecture 数据转换层 - 质量检查阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 行数统计 -> 必填字段检查 -> 状态值校验 -> 报告汇总
 * @rules 计数检查互相独立，各为一次O(n)遍历；计数>0时严重级别升级为error
 * @dependencies log/slog, time
 * @refs service/models/quality.go, service/etl/pipeline.go
 */

package etl

import (
	"log/slog"
	"time"

	"whatsapp-etl-service/service/models"
)

// QualityReporter 数据质量报告器
type QualityReporter struct {
	logger *slog.Logger
}

// NewQualityReporter 创建数据质量报告器
func NewQualityReporter(logger *slog.Logger) *QualityReporter {
	return &QualityReporter{logger: logger}
}

// Report 执行全部质量检查并汇总成报告
// duplicates_found由编排器在重复检测完成后回填，本方法不感知重复检测
func (q *QualityReporter) Report(messages, statuses Table) *models.DataQualityReport {
	q.logger.Info("开始数据质量检查")

	totalMessages := int64(len(messages))
	totalStatuses := int64(len(statuses))
	missingRequired := q.countMissingRequiredFields(messages)
	invalidStatuses := q.countInvalidStatuses(statuses)

	checks := []models.QualityCheckResult{
		{
			CheckName:   "total_messages",
			CheckType:   "count",
			Value:       totalMessages,
			Description: "处理的消息总数",
			Severity:    models.SeverityInfo,
		},
		{
			CheckName:   "total_statuses",
			CheckType:   "count",
			Value:       totalStatuses,
			Description: "处理的状态记录总数",
			Severity:    models.SeverityInfo,
		},
		{
			CheckName:   "missing_required_fields",
			CheckType:   "count",
			Value:       missingRequired,
			Description: "缺失必填字段的消息记录数",
			Severity:    escalateWhenPositive(missingRequired),
		},
		{
			CheckName:   "invalid_statuses",
			CheckType:   "count",
			Value:       invalidStatuses,
			Description: "状态值非法的状态记录数",
			Severity:    escalateWhenPositive(invalidStatuses),
		},
	}

	report := &models.DataQualityReport{
		TotalMessages:         totalMessages,
		TotalStatuses:         totalStatuses,
		InvalidStatuses:       invalidStatuses,
		MissingRequiredFields: missingRequired,
		Checks:                checks,
		ReportGeneratedAt:     time.Now(),
	}

	q.logger.Info("数据质量检查完成",
		"total_messages", totalMessages,
		"total_statuses", totalStatuses,
		"missing_required_fields", missingRequired,
		"invalid_statuses", invalidStatuses)
	return report
}

// countMissingRequiredFields 统计id/uuid/inserted_at任一为空的消息行数
// 三列都不存在时返回0
func (q *QualityReporter) countMissingRequiredFields(messages Table) int64 {
	if len(messages) == 0 ||
		!HasColumn(messages, "id") ||
		!HasColumn(messages, "uuid") ||
		!HasColumn(messages, "inserted_at") {
		return 0
	}

	var count int64
	for _, record := range messages {
		if CellIsNull(record, "id") ||
			CellIsNull(record, "uuid") ||
			CellIsNull(record, "inserted_at") {
			count++
		}
	}
	return count
}

// countInvalidStatuses 统计状态值不在已知枚举内的状态行数
// 状态表为空或无status列时返回0
func (q *QualityReporter) countInvalidStatuses(statuses Table) int64 {
	if len(statuses) == 0 || !HasColumn(statuses, "status") {
		return 0
	}

	var count int64
	for _, record := range statuses {
		if !models.IsValidStatusKind(CellString(record, "status")) {
			count++
		}
	}
	return count
}

// escalateWhenPositive 计数大于0时严重级别升级为error
func escalateWhenPositive(value int64) string {
	if value > 0 {
		return models.SeverityError
	}
	return models.SeverityInfo
}
