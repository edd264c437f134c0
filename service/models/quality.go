/*
 * @module service/models/quality
 * @description 数据质量检查结果与质量报告模型，提供错误/警告统计和质量评分
 * @architecture 数据模型层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 质量检查执行 -> 检查结果汇总 -> 质量评分计算
 * @rules 质量评分 = max(0, 100 - 20*错误数 - 5*警告数)，裁剪到[0,100]区间
 * @dependencies time
 * @refs service/etl/quality_reporter.go
 */

package models

import "time"

// 检查严重级别
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// QualityCheckResult 单项数据质量检查结果
type QualityCheckResult struct {
	CheckName   string `json:"check_name"`
	CheckType   string `json:"check_type"` // count, flag, percentage, boolean
	Value       int64  `json:"value"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // info, warning, error, critical
}

// DataQualityReport 数据质量报告
type DataQualityReport struct {
	TotalMessages         int64                `json:"total_messages"`
	TotalStatuses         int64                `json:"total_statuses"`
	MessagesWithoutStatus int64                `json:"messages_without_status"`
	InvalidStatuses       int64                `json:"invalid_statuses"`
	FutureTimestamps      int64                `json:"future_timestamps"`
	MissingRequiredFields int64                `json:"missing_required_fields"`
	DuplicatesFound       int64                `json:"duplicates_found"`
	Checks                []QualityCheckResult `json:"checks"`
	ReportGeneratedAt     time.Time            `json:"report_generated_at"`
}

// QualityReportSummary 质量报告摘要
type QualityReportSummary struct {
	TotalMessages     int64  `json:"total_messages"`
	TotalStatuses     int64  `json:"total_statuses"`
	DataQualityScore  int64  `json:"data_quality_score"`
	ErrorsFound       int64  `json:"errors_found"`
	WarningsFound     int64  `json:"warnings_found"`
	ReportGeneratedAt string `json:"report_generated_at"`
}

// GetSummary 计算质量报告摘要
// 评分随错误数和警告数单调不增，结果裁剪到[0,100]
func (r *DataQualityReport) GetSummary() QualityReportSummary {
	var errorCount, warningCount int64
	for _, check := range r.Checks {
		switch check.Severity {
		case SeverityError:
			errorCount++
		case SeverityWarning:
			warningCount++
		}
	}

	score := 100 - errorCount*20 - warningCount*5
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return QualityReportSummary{
		TotalMessages:     r.TotalMessages,
		TotalStatuses:     r.TotalStatuses,
		DataQualityScore:  score,
		ErrorsFound:       errorCount,
		WarningsFound:     warningCount,
		ReportGeneratedAt: r.ReportGeneratedAt.Format(time.RFC3339),
	}
}
