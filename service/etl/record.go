/*
 * @module service/etl/record
 * @description 动态记录表格基础类型与取值辅助函数，统一空值语义和宽松时间解析
 * @architecture 数据转换层 - 基础工具
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 表格抽取 -> 记录访问 -> 类型转换
 * @rules 缺失的键和nil值同为"空"，时间解析失败按空值处理
 * @dependencies github.com/spf13/cast, time
 * @refs service/etl/schema.go, service/etl/cleaner.go
 */

package etl

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Record 一行动态记录，键为列名
type Record = map[string]interface{}

// Table 一张内存表格
type Table = []Record

// IsNull 判断取值是否为空
func IsNull(value interface{}) bool {
	return value == nil
}

// CellIsNull 判断记录中某列是否为空（缺失键同样视为空）
func CellIsNull(record Record, column string) bool {
	value, exists := record[column]
	return !exists || value == nil
}

// HasColumn 判断表格是否含有指定列（任一行出现该键即视为存在）
func HasColumn(table Table, column string) bool {
	for _, record := range table {
		if _, exists := record[column]; exists {
			return true
		}
	}
	return false
}

// CloneRecord 浅拷贝一行记录
func CloneRecord(record Record) Record {
	clone := make(Record, len(record))
	for key, value := range record {
		clone[key] = value
	}
	return clone
}

// CloneTable 浅拷贝整张表格
func CloneTable(table Table) Table {
	clone := make(Table, 0, len(table))
	for _, record := range table {
		clone = append(clone, CloneRecord(record))
	}
	return clone
}

// 宽松时间解析支持的格式
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime 宽松解析时间值，解析失败返回false
func ParseTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// CellTime 读取记录中的时间列，空值或解析失败返回false
func CellTime(record Record, column string) (time.Time, bool) {
	if CellIsNull(record, column) {
		return time.Time{}, false
	}
	return ParseTime(record[column])
}

// CellString 读取记录中的字符串列，空值返回空串
func CellString(record Record, column string) string {
	if CellIsNull(record, column) {
		return ""
	}
	return cast.ToString(record[column])
}

// sortedKeys 返回map的有序键列表
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
