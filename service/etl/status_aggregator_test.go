/*
 * @module service/etl/status_aggregator_test
 * @description StatusAggregator 单元测试
 * @architecture 测试层 - 单元测试
 */

package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusAggregator_Aggregate(t *testing.T) {
	aggregator := NewStatusAggregator(testLogger())

	testCases := []struct {
		name     string
		statuses Table
		wantRows int
	}{
		{
			name:     "空输入产出空表",
			statuses: Table{},
			wantRows: 0,
		},
		{
			name: "缺少timestamp列产出空表",
			statuses: Table{
				{"message_uuid": "a", "status": "sent"},
			},
			wantRows: 0,
		},
		{
			name: "每个message_uuid一行",
			statuses: Table{
				{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
				{"message_uuid": "a", "status": "delivered", "timestamp": "2024-01-01T01:00:00"},
				{"message_uuid": "b", "status": "sent", "timestamp": "2024-01-02T00:00:00"},
			},
			wantRows: 2,
		},
		{
			name: "message_uuid为空的事件被跳过",
			statuses: Table{
				{"message_uuid": nil, "status": "sent", "timestamp": "2024-01-01T00:00:00"},
				{"message_uuid": "", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
				{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
			},
			wantRows: 1,
		},
		{
			name: "未知状态值不参与透视",
			statuses: Table{
				{"message_uuid": "a", "status": "unknown_kind", "timestamp": "2024-01-01T00:00:00"},
			},
			wantRows: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wide := aggregator.Aggregate(tc.statuses)
			assert.Len(t, wide, tc.wantRows)

			// 每一行都携带完整的宽表列集合
			for _, row := range wide {
				for _, column := range StatusFlatColumns() {
					_, exists := row[column]
					assert.True(t, exists, "缺少列: %s", column)
				}
			}
		})
	}
}

func TestStatusAggregator_Counts(t *testing.T) {
	aggregator := NewStatusAggregator(testLogger())

	wide := aggregator.Aggregate(Table{
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T01:00:00"},
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T02:00:00"},
		{"message_uuid": "a", "status": "read", "timestamp": "2024-01-01T03:00:00"},
	})
	require.Len(t, wide, 1)

	row := wide[0]
	assert.Equal(t, "a", row["message_uuid"])
	assert.Equal(t, int64(3), row["sent"])
	assert.Equal(t, int64(1), row["read"])

	// 未出现的状态类型计数为0，且所有计数都是非负整数
	for _, kind := range StatusKindNames {
		count, ok := row[kind].(int64)
		require.True(t, ok, "计数列类型必须是int64: %s", kind)
		assert.GreaterOrEqual(t, count, int64(0))
	}
	assert.Equal(t, int64(0), row["delivered"])
	assert.Equal(t, int64(0), row["failed"])
	assert.Equal(t, int64(0), row["deleted"])
}

func TestStatusAggregator_LatestPerKind(t *testing.T) {
	aggregator := NewStatusAggregator(testLogger())

	t.Run("时间戳最大的事件胜出", func(t *testing.T) {
		wide := aggregator.Aggregate(Table{
			{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T02:00:00", "uuid": "later"},
			{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T01:00:00", "uuid": "earlier"},
		})
		require.Len(t, wide, 1)
		assert.Equal(t, "later", wide[0]["sent_status_uuid"])
	})

	t.Run("时间戳相同时原始顺序靠后者胜出", func(t *testing.T) {
		first := Record{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T01:00:00", "uuid": "one"}
		second := Record{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T01:00:00", "uuid": "two"}

		wide := aggregator.Aggregate(Table{first, second})
		require.Len(t, wide, 1)
		assert.Equal(t, "two", wide[0]["sent_status_uuid"])

		// 交换输入顺序，胜出者随之交换
		wide = aggregator.Aggregate(Table{second, first})
		require.Len(t, wide, 1)
		assert.Equal(t, "one", wide[0]["sent_status_uuid"])
	})

	t.Run("无该类事件时元数据列为空", func(t *testing.T) {
		wide := aggregator.Aggregate(Table{
			{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		})
		require.Len(t, wide, 1)
		for _, column := range StatusMetaColumns("read") {
			assert.Nil(t, wide[0][column])
		}
	})

	t.Run("元数据从同一条最新事件投影", func(t *testing.T) {
		wide := aggregator.Aggregate(Table{
			{"message_uuid": "a", "status": "read", "timestamp": "2024-01-01T00:00:00",
				"uuid": "old", "id": int64(1), "message_id": int64(10), "number_id": int64(100)},
			{"message_uuid": "a", "status": "read", "timestamp": "2024-01-02T00:00:00",
				"uuid": "new", "id": int64(2), "message_id": int64(20), "number_id": int64(200)},
		})
		require.Len(t, wide, 1)

		row := wide[0]
		assert.Equal(t, "new", row["read_status_uuid"])
		assert.Equal(t, int64(2), row["read_status_id"])
		assert.Equal(t, int64(20), row["read_status_message_id"])
		assert.Equal(t, int64(200), row["read_status_number_id"])
	})
}

func TestStatusAggregator_OrderedOutput(t *testing.T) {
	aggregator := NewStatusAggregator(testLogger())

	wide := aggregator.Aggregate(Table{
		{"message_uuid": "c", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "a", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
		{"message_uuid": "b", "status": "sent", "timestamp": "2024-01-01T00:00:00"},
	})
	require.Len(t, wide, 3)

	// 输出按message_uuid升序
	assert.Equal(t, "a", wide[0]["message_uuid"])
	assert.Equal(t, "b", wide[1]["message_uuid"])
	assert.Equal(t, "c", wide[2]["message_uuid"])
}
