/*
 * @module service/etl/duplicate_detector_test
 * @description DuplicateDetector 单元测试
 * @architecture 测试层 - 单元测试
 */

package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateDetector_Detect(t *testing.T) {
	detector := NewDuplicateDetector(testLogger(), false)

	testCases := []struct {
		name        string
		messages    Table
		wantRecords int
	}{
		{
			name:        "空输入无重复",
			messages:    Table{},
			wantRecords: 0,
		},
		{
			name: "内容互不相同无重复",
			messages: Table{
				{"id": int64(1), "uuid": "a", "content": "one", "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(2), "uuid": "b", "content": "two", "direction": "inbound", "inserted_at": "2024-01-01"},
			},
			wantRecords: 0,
		},
		{
			name: "n个成员的组产出n条记录",
			messages: Table{
				{"id": int64(1), "uuid": "a", "content": "same", "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(2), "uuid": "b", "content": "same", "direction": "outbound", "inserted_at": "2024-01-02"},
				{"id": int64(3), "uuid": "c", "content": "same", "direction": "inbound", "inserted_at": "2024-01-03"},
			},
			wantRecords: 3,
		},
		{
			name: "空白内容不参与分组",
			messages: Table{
				{"id": int64(1), "uuid": "a", "content": "   ", "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(2), "uuid": "b", "content": "   ", "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(3), "uuid": "c", "content": nil, "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(4), "uuid": "d", "content": nil, "direction": "inbound", "inserted_at": "2024-01-01"},
			},
			wantRecords: 0,
		},
		{
			name: "内容去除首尾空白后相同但原文不同不算重复",
			messages: Table{
				{"id": int64(1), "uuid": "a", "content": "same", "direction": "inbound", "inserted_at": "2024-01-01"},
				{"id": int64(2), "uuid": "b", "content": " same ", "direction": "inbound", "inserted_at": "2024-01-01"},
			},
			wantRecords: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := detector.Detect(tc.messages)
			assert.Len(t, records, tc.wantRecords)
		})
	}
}

func TestDuplicateDetector_OutputOrder(t *testing.T) {
	detector := NewDuplicateDetector(testLogger(), false)

	records := detector.Detect(Table{
		{"id": int64(1), "uuid": "b1", "content": "bbb", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": "a1", "content": "aaa", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(3), "uuid": "b2", "content": "bbb", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(4), "uuid": "a2", "content": "aaa", "direction": "inbound", "inserted_at": "2024-01-01"},
	})
	require.Len(t, records, 4)

	// 内容键升序，组内保持原始行序
	assert.Equal(t, "a1", records[0].UUID)
	assert.Equal(t, "a2", records[1].UUID)
	assert.Equal(t, "b1", records[2].UUID)
	assert.Equal(t, "b2", records[3].UUID)
}

func TestDuplicateDetector_DegradedRecords(t *testing.T) {
	// uuid缺失触发降级构造
	messages := Table{
		{"id": int64(1), "content": "same", "direction": "inbound", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": "b", "content": "same", "direction": "inbound", "inserted_at": "2024-01-01"},
	}

	t.Run("非严格模式保留降级记录", func(t *testing.T) {
		detector := NewDuplicateDetector(testLogger(), false)
		records := detector.Detect(messages)
		require.Len(t, records, 2)
		assert.Equal(t, "unknown-uuid", records[0].UUID)
	})

	t.Run("严格模式丢弃降级记录", func(t *testing.T) {
		detector := NewDuplicateDetector(testLogger(), true)
		records := detector.Detect(messages)
		require.Len(t, records, 1)
		assert.Equal(t, "b", records[0].UUID)
	})
}

func TestDuplicateDetector_InvalidDirectionDropped(t *testing.T) {
	detector := NewDuplicateDetector(testLogger(), false)

	records := detector.Detect(Table{
		{"id": int64(1), "uuid": "a", "content": "same", "direction": "sideways", "inserted_at": "2024-01-01"},
		{"id": int64(2), "uuid": "b", "content": "same", "direction": "inbound", "inserted_at": "2024-01-01"},
	})

	// 方向非法的成员构造失败被丢弃，合法成员保留
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].UUID)
}
