/*
 * @module service/etl/pipeline_test
 * @description Pipeline 编排层单元测试
 * @architecture 测试层 - 单元测试
 */

package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_FullRun(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{DatasetName: "test"}, testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "content": "hi", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": "b", "content": "hi", "direction": "outbound", "inserted_at": "2024-01-02"},
	}
	statuses := Table{
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "a", "status": "read", "timestamp": "2024-01-01T01:00:00"},
	}

	result, err := pipeline.Execute(messages, statuses)
	require.NoError(t, err)
	assert.Equal(t, StateDone, pipeline.State())

	// 统一视图每条消息一行
	require.Len(t, result.UnifiedMessages, 2)
	byUUID := make(map[string]Record)
	for _, row := range result.UnifiedMessages {
		byUUID[row["message_uuid"].(string)] = row
	}
	rowA := byUUID["a"]
	assert.Equal(t, int64(1), rowA["sent"])
	assert.Equal(t, int64(1), rowA["read"])
	assert.Equal(t, int64(0), rowA["delivered"])

	// 内容相同的两条消息都进入重复记录
	require.Len(t, result.Duplicates, 2)

	// 质量报告与重复检测结果一致
	report := result.QualityReport
	assert.Equal(t, int64(2), report.TotalMessages)
	assert.Equal(t, int64(2), report.TotalStatuses)
	assert.Equal(t, int64(0), report.MissingRequiredFields)
	assert.Equal(t, int64(0), report.InvalidStatuses)
	assert.Equal(t, int64(2), report.DuplicatesFound)
}

func TestPipeline_EmptyStatuses(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{DatasetName: "test"}, testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "content": "one", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": "b", "content": "two", "direction": "outbound", "inserted_at": "2024-01-02"},
		{"id": int64(3), "uuid": "c", "content": "three", "direction": "inbound", "inserted_at": "2024-01-03"},
	}

	result, err := pipeline.Execute(messages, Table{})
	require.NoError(t, err)

	// 状态表为空时统一视图行数等于消息行数，派生列为0或空
	require.Len(t, result.UnifiedMessages, len(messages))
	for _, row := range result.UnifiedMessages {
		for _, column := range DerivedStatusColumns() {
			value, exists := row[column]
			require.True(t, exists, "缺少派生列: %s", column)
			if IsCountColumn(column) {
				assert.Equal(t, int64(0), value)
			} else {
				assert.Nil(t, value)
			}
		}
	}
}

func TestPipeline_UnknownStatusKind(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{DatasetName: "test"}, testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "content": "hi", "direction": "inbound", "inserted_at": "2024-01-01"},
	}
	statuses := Table{
		{"message_uuid": "a", "status": "unknown_kind", "timestamp": "2024-01-01T00:00:00"},
	}

	result, err := pipeline.Execute(messages, statuses)
	require.NoError(t, err)

	// 未知状态不参与计数，但计入invalid_statuses
	require.Len(t, result.UnifiedMessages, 1)
	for _, kind := range StatusKindNames {
		assert.Equal(t, int64(0), result.UnifiedMessages[0][kind])
	}
	assert.Equal(t, int64(1), result.QualityReport.InvalidStatuses)
}

func TestPipeline_BothInputsEmpty(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{DatasetName: "test"}, testLogger())

	result, err := pipeline.Execute(Table{}, Table{})
	require.NoError(t, err)

	assert.Empty(t, result.UnifiedMessages)
	assert.Empty(t, result.Duplicates)
	assert.Equal(t, int64(0), result.QualityReport.TotalMessages)
	assert.Equal(t, int64(100), result.QualityReport.GetSummary().DataQualityScore)
}
