/*
 * @module service/etl/unified_view
 * @description 统一视图构建器，把规范化消息表与状态宽表左连接为每消息一行的统一视图
 * @architecture 数据转换层 - 连接阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 状态汇聚 -> 消息规范化 -> 左连接或补列 -> 统一视图
 * @rules 输出行数恒等于消息行数；无论输入是否残缺，派生列集合始终完整
 * @dependencies log/slog
 * @refs service/etl/status_aggregator.go, service/etl/message_normalizer.go
 */

package etl

import "log/slog"

// UnifiedView 统一视图构建结果
type UnifiedView struct {
	// Unified 统一视图，每条消息一行，18个消息列 + 40个状态派生列
	Unified Table
	// StatusFlat 状态宽表中间产物，供需要单独落表的调用方使用
	StatusFlat Table
}

// UnifiedViewBuilder 统一视图构建器
type UnifiedViewBuilder struct {
	aggregator *StatusAggregator
	normalizer *MessageNormalizer
	logger     *slog.Logger
}

// NewUnifiedViewBuilder 创建统一视图构建器
func NewUnifiedViewBuilder(logger *slog.Logger) *UnifiedViewBuilder {
	return &UnifiedViewBuilder{
		aggregator: NewStatusAggregator(logger),
		normalizer: NewMessageNormalizer(logger),
		logger:     logger,
	}
}

// Build 构建统一视图
// 聚合非空时按message_uuid左连接；聚合为空时直接在消息表上补齐40个派生列，
// 两条路径消费同一份列定义，保证模式不漂移
func (b *UnifiedViewBuilder) Build(messages, statuses Table) *UnifiedView {
	statusWide := b.aggregator.Aggregate(statuses)
	msgBase := b.normalizer.Normalize(messages)

	var unified Table
	if len(statusWide) > 0 {
		unified = b.joinStatuses(msgBase, statusWide)
	} else {
		b.logger.Info("状态聚合为空，统一视图仅含消息字段，派生列补默认值")
		unified = b.synthesizeStatusColumns(msgBase)
	}

	b.logger.Info("统一视图构建完成",
		"records", len(unified),
		"columns", len(UnifiedColumns()))

	return &UnifiedView{Unified: unified, StatusFlat: statusWide}
}

// joinStatuses 按message_uuid左连接状态宽表
// 聚合表每个message_uuid只有一行，连接不会引入行数膨胀
func (b *UnifiedViewBuilder) joinStatuses(msgBase, statusWide Table) Table {
	index := make(map[string]Record, len(statusWide))
	for _, row := range statusWide {
		index[CellString(row, "message_uuid")] = row
	}

	unified := make(Table, 0, len(msgBase))
	for _, msg := range msgBase {
		row := CloneRecord(msg)
		matched := index[CellString(msg, "message_uuid")]
		for _, column := range DerivedStatusColumns() {
			if matched != nil {
				if value, exists := matched[column]; exists {
					row[column] = value
					continue
				}
			}
			// 未命中的消息：计数列按类型补0，元数据列补空
			if IsCountColumn(column) {
				row[column] = int64(0)
			} else {
				row[column] = nil
			}
		}
		unified = append(unified, row)
	}
	return unified
}

// synthesizeStatusColumns 在无状态数据时直接补齐全部派生列
func (b *UnifiedViewBuilder) synthesizeStatusColumns(msgBase Table) Table {
	unified := make(Table, 0, len(msgBase))
	for _, msg := range msgBase {
		row := CloneRecord(msg)
		for _, column := range DerivedStatusColumns() {
			if IsCountColumn(column) {
				row[column] = int64(0)
			} else {
				row[column] = nil
			}
		}
		unified = append(unified, row)
	}
	return unified
}
