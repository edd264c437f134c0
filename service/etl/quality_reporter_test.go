/*
 * @module service/etl/quality_reporter_test
 * @description QualityReporter 单元测试
 * @architecture 测试层 - 单元测试
 */

package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-etl-service/service/models"
)

func TestQualityReporter_Report(t *testing.T) {
	reporter := NewQualityReporter(testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": nil, "inserted_at": "2024-01-02"},
	}
	statuses := Table{
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "a", "status": "unknown_kind", "timestamp": "2024-01-01T01:00:00"},
	}

	report := reporter.Report(messages, statuses)

	assert.Equal(t, int64(2), report.TotalMessages)
	assert.Equal(t, int64(2), report.TotalStatuses)
	assert.Equal(t, int64(1), report.MissingRequiredFields)
	assert.Equal(t, int64(1), report.InvalidStatuses)
	require.Len(t, report.Checks, 4)

	// 计数为正的检查升级为error
	byName := make(map[string]models.QualityCheckResult)
	for _, check := range report.Checks {
		byName[check.CheckName] = check
	}
	assert.Equal(t, models.SeverityInfo, byName["total_messages"].Severity)
	assert.Equal(t, models.SeverityError, byName["missing_required_fields"].Severity)
	assert.Equal(t, models.SeverityError, byName["invalid_statuses"].Severity)
}

func TestQualityReporter_CleanInput(t *testing.T) {
	reporter := NewQualityReporter(testLogger())

	report := reporter.Report(
		Table{{"id": int64(1), "uuid": "a", "inserted_at": "2024-01-01"}},
		Table{{"message_uuid": "a", "status": "delivered", "timestamp": "2024-01-01T00:00:00"}},
	)

	assert.Equal(t, int64(0), report.MissingRequiredFields)
	assert.Equal(t, int64(0), report.InvalidStatuses)
	assert.Equal(t, int64(100), report.GetSummary().DataQualityScore)
}

func TestQualityReporter_MissingColumnsSkipChecks(t *testing.T) {
	reporter := NewQualityReporter(testLogger())

	// 必填列整体缺失时该项检查按0处理
	report := reporter.Report(Table{{"content": "hello"}}, Table{{"other": 1}})
	assert.Equal(t, int64(0), report.MissingRequiredFields)
	assert.Equal(t, int64(0), report.InvalidStatuses)
}

func TestQualityReportScore(t *testing.T) {
	testCases := []struct {
		name      string
		errors    int
		warnings  int
		wantScore int64
	}{
		{"无问题满分", 0, 0, 100},
		{"单个错误扣20", 1, 0, 80},
		{"单个警告扣5", 0, 1, 95},
		{"混合扣分", 2, 3, 45},
		{"下限裁剪到0", 6, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := &models.DataQualityReport{}
			for i := 0; i < tc.errors; i++ {
				report.Checks = append(report.Checks, models.QualityCheckResult{
					CheckName: "e", Severity: models.SeverityError,
				})
			}
			for i := 0; i < tc.warnings; i++ {
				report.Checks = append(report.Checks, models.QualityCheckResult{
					CheckName: "w", Severity: models.SeverityWarning,
				})
			}
			assert.Equal(t, tc.wantScore, report.GetSummary().DataQualityScore)
		})
	}
}

func TestQualityReportScoreMonotonic(t *testing.T) {
	// 评分随错误数单调不增
	previous := int64(101)
	for errors := 0; errors <= 8; errors++ {
		report := &models.DataQualityReport{}
		for i := 0; i < errors; i++ {
			report.Checks = append(report.Checks, models.QualityCheckResult{
				CheckName: "e", Severity: models.SeverityError,
			})
		}
		score := report.GetSummary().DataQualityScore
		assert.LessOrEqual(t, score, previous)
		assert.GreaterOrEqual(t, score, int64(0))
		assert.LessOrEqual(t, score, int64(100))
		previous = score
	}
}
