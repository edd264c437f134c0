/*
 * @module service/etl/unified_view_test
 * @description UnifiedViewBuilder 单元测试
 * @architecture 测试层 - 单元测试
 */

package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedViewBuilder_EmptyStatuses(t *testing.T) {
	builder := NewUnifiedViewBuilder(testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "content": "hello", "direction": "inbound"},
		{"id": int64(2), "uuid": "b", "content": "world", "direction": "outbound"},
	}

	view := builder.Build(messages, Table{})

	// 状态表为空时统一视图行数等于消息行数
	require.Len(t, view.Unified, len(messages))
	assert.Empty(t, view.StatusFlat)

	for _, row := range view.Unified {
		// 40个派生列全部存在：计数列为0，元数据列为空
		derived := DerivedStatusColumns()
		require.Len(t, derived, 40)
		for _, column := range derived {
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

func TestUnifiedViewBuilder_Join(t *testing.T) {
	builder := NewUnifiedViewBuilder(testLogger())

	messages := Table{
		{"id": int64(1), "uuid": "a", "content": "hello"},
		{"id": int64(2), "uuid": "b", "content": "world"},
	}
	statuses := Table{
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T01:00:00"},
		{"message_uuid": "a", "status": "read", "timestamp": "2024-01-01T02:00:00"},
	}

	view := builder.Build(messages, statuses)
	require.Len(t, view.Unified, 2)

	byUUID := make(map[string]Record)
	for _, row := range view.Unified {
		byUUID[row["message_uuid"].(string)] = row
	}

	// 命中的消息携带聚合计数
	matched := byUUID["a"]
	assert.Equal(t, int64(2), matched["sent"])
	assert.Equal(t, int64(1), matched["read"])
	assert.Equal(t, int64(0), matched["delivered"])

	// 未命中的消息计数补0，元数据补空
	unmatched := byUUID["b"]
	for _, column := range DerivedStatusColumns() {
		if IsCountColumn(column) {
			assert.Equal(t, int64(0), unmatched[column], "列: %s", column)
		} else {
			assert.Nil(t, unmatched[column], "列: %s", column)
		}
	}
}

func TestUnifiedViewBuilder_SentCountRoundTrip(t *testing.T) {
	builder := NewUnifiedViewBuilder(testLogger())

	const n = 7
	statuses := make(Table, 0, n)
	for i := 0; i < n; i++ {
		statuses = append(statuses, Record{
			"message_uuid": "a",
			"status":       "sent",
			"timestamp":    "2024-01-01T00:00:00",
		})
	}
	messages := Table{{"id": int64(1), "uuid": "a"}}

	view := builder.Build(messages, statuses)
	require.Len(t, view.Unified, 1)
	assert.Equal(t, int64(n), view.Unified[0]["sent"])
}

func TestUnifiedViewBuilder_SchemaComplete(t *testing.T) {
	builder := NewUnifiedViewBuilder(testLogger())

	view := builder.Build(
		Table{{"id": int64(1), "uuid": "a"}},
		Table{{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"}},
	)
	require.Len(t, view.Unified, 1)

	// 无论输入残缺与否，统一视图列集合恒为58列
	columns := UnifiedColumns()
	require.Len(t, columns, 58)
	for _, column := range columns {
		_, exists := view.Unified[0][column]
		assert.True(t, exists, "缺少列: %s", column)
	}
}
