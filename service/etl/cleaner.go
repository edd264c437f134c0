/*
 * @module service/etl/cleaner
 * @description 数据清洗器，剔除缺失关键字段的行并把时间列宽松解析为时间类型
 * @architecture 数据转换层 - 清洗阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 原始表格 -> 关键字段过滤 -> 时间列解析 -> 清洗后表格
 * @rules 表为空或缺少关键列时跳过过滤，不视为错误；无法解析的时间值置空
 * @dependencies log/slog
 * @refs service/etl/pipeline.go
 */

package etl

import "log/slog"

// 清洗阶段统一解析的时间列
var dateColumns = []string{"inserted_at", "updated_at", "timestamp", "external_timestamp"}

// Cleaner 数据清洗器
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner 创建数据清洗器
func NewCleaner(logger *slog.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// CleanMessages 清洗消息表
// 存在id列时剔除id或inserted_at为空的行
func (c *Cleaner) CleanMessages(messages Table) Table {
	cleaned := CloneTable(messages)

	if len(cleaned) > 0 && HasColumn(cleaned, "id") {
		filtered := make(Table, 0, len(cleaned))
		for _, record := range cleaned {
			if CellIsNull(record, "id") || CellIsNull(record, "inserted_at") {
				continue
			}
			filtered = append(filtered, record)
		}
		cleaned = filtered
	}

	c.parseDateColumns(cleaned)
	return cleaned
}

// CleanStatuses 清洗状态表
// 同时具备message_uuid、status、timestamp三列时剔除任一为空的行
func (c *Cleaner) CleanStatuses(statuses Table) Table {
	cleaned := CloneTable(statuses)

	if len(cleaned) > 0 &&
		HasColumn(cleaned, "message_uuid") &&
		HasColumn(cleaned, "status") &&
		HasColumn(cleaned, "timestamp") {
		filtered := make(Table, 0, len(cleaned))
		for _, record := range cleaned {
			if CellIsNull(record, "message_uuid") ||
				CellIsNull(record, "status") ||
				CellIsNull(record, "timestamp") {
				continue
			}
			filtered = append(filtered, record)
		}
		cleaned = filtered
	}

	c.parseDateColumns(cleaned)
	return cleaned
}

// parseDateColumns 把时间列统一解析为time.Time，解析失败置空
func (c *Cleaner) parseDateColumns(table Table) {
	for _, record := range table {
		for _, column := range dateColumns {
			value, exists := record[column]
			if !exists || value == nil {
				continue
			}
			if parsed, ok := ParseTime(value); ok {
				record[column] = parsed
			} else {
				c.logger.Debug("时间值无法解析，按空值处理", "column", column, "value", value)
				record[column] = nil
			}
		}
	}
}
