/*
 * @module service/etl/message_normalizer
 * @description 消息规范化器，把原始消息列重命名并投影到固定的规范列集合
 * @architecture 数据转换层 - 规范化阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 时间列解析 -> 列重命名 -> 规范列投影（缺列补空）
 * @rules 不过滤任何行，输出行数和顺序与输入一致
 * @dependencies log/slog
 * @refs service/etl/schema.go, service/etl/unified_view.go
 */

package etl

import "log/slog"

// 规范化前需要解析的消息时间列
var messageDateColumns = []string{
	"inserted_at",
	"updated_at",
	"external_timestamp",
	"last_status_timestamp",
}

// MessageNormalizer 消息规范化器
type MessageNormalizer struct {
	logger *slog.Logger
}

// NewMessageNormalizer 创建消息规范化器
func NewMessageNormalizer(logger *slog.Logger) *MessageNormalizer {
	return &MessageNormalizer{logger: logger}
}

// Normalize 把清洗后的消息表投影到18个规范列
// 输入中不存在的规范列补为空值
func (n *MessageNormalizer) Normalize(messages Table) Table {
	normalized := make(Table, 0, len(messages))

	for _, record := range messages {
		renamed := make(Record, len(MessageColumns))
		for key, value := range record {
			if target, exists := messageRenameMap[key]; exists {
				renamed[target] = value
			} else {
				renamed[key] = value
			}
		}

		// 时间列按重命名后的键解析
		for _, column := range messageDateColumns {
			target := column
			if mapped, exists := messageRenameMap[column]; exists {
				target = mapped
			}
			if value, exists := renamed[target]; exists && value != nil {
				if parsed, ok := ParseTime(value); ok {
					renamed[target] = parsed
				} else {
					renamed[target] = nil
				}
			}
		}

		projected := make(Record, len(MessageColumns))
		for _, column := range MessageColumns {
			if value, exists := renamed[column]; exists {
				projected[column] = value
			} else {
				projected[column] = nil
			}
		}
		normalized = append(normalized, projected)
	}

	n.logger.Debug("消息规范化完成", "rows", len(normalized), "columns", len(MessageColumns))
	return normalized
}
