/*
 * @module service/etl/status_aggregator
 * @description 状态汇聚器，把事件式状态日志透视为每消息一行的宽表
 * @architecture 数据转换层 - 汇聚阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 状态过滤 -> 按(message_uuid, status)计数 -> 每类最新事件投影 -> 左连接合并
 * @rules 未知状态值从透视中静默排除；同类事件仅保留时间戳最新的一条，时间戳相同时保留原始顺序靠后的一条
 * @dependencies log/slog, sort
 * @refs service/etl/schema.go, service/etl/unified_view.go
 */

package etl

import (
	"log/slog"
	"sort"

	"whatsapp-etl-service/service/models"
)

// StatusAggregator 状态汇聚器，纯函数，不修改输入
type StatusAggregator struct {
	logger *slog.Logger
}

// NewStatusAggregator 创建状态汇聚器
func NewStatusAggregator(logger *slog.Logger) *StatusAggregator {
	return &StatusAggregator{logger: logger}
}

// Aggregate 把状态事件表透视为每个message_uuid一行的宽表
// 输入为空或缺少message_uuid/status/timestamp任一列时返回空表，
// 下游统一按规范列集合补齐，无需分支判断
func (a *StatusAggregator) Aggregate(statuses Table) Table {
	if len(statuses) == 0 ||
		!HasColumn(statuses, "message_uuid") ||
		!HasColumn(statuses, "status") ||
		!HasColumn(statuses, "timestamp") {
		a.logger.Info("状态表为空或缺少必要列，产出空聚合")
		return Table{}
	}

	// 过滤到已知状态类型，未知状态不参与透视
	known := make(Table, 0, len(statuses))
	for _, record := range statuses {
		if CellIsNull(record, "message_uuid") || CellString(record, "message_uuid") == "" {
			continue
		}
		if models.IsValidStatusKind(CellString(record, "status")) {
			known = append(known, record)
		}
	}

	// 按(message_uuid, status)计数
	counts := make(map[string]map[string]int64)
	uuidSet := make(map[string]bool)
	for _, record := range known {
		uuid := CellString(record, "message_uuid")
		kind := CellString(record, "status")
		if counts[uuid] == nil {
			counts[uuid] = make(map[string]int64)
		}
		counts[uuid][kind]++
		uuidSet[uuid] = true
	}

	orderedUUIDs := sortedKeys(uuidSet)

	// 每类状态的最新事件投影，整体左连接到计数表
	latestByKind := make(map[string]map[string]Record, len(StatusKindNames))
	for _, kind := range StatusKindNames {
		latestByKind[kind] = a.latestPerMessage(known, kind)
	}

	wide := make(Table, 0, len(orderedUUIDs))
	for _, uuid := range orderedUUIDs {
		row := Record{"message_uuid": uuid}
		for _, kind := range StatusKindNames {
			row[kind] = counts[uuid][kind]
		}
		for _, kind := range StatusKindNames {
			latest := latestByKind[kind][uuid]
			for _, proj := range statusMetaProjection {
				target := kind + "_" + proj.Suffix
				if latest == nil {
					row[target] = nil
					continue
				}
				if value, exists := latest[proj.Source]; exists {
					row[target] = value
				} else {
					row[target] = nil
				}
			}
		}
		wide = append(wide, row)
	}

	a.logger.Info("状态汇聚完成", "messages", len(wide), "events", len(known))
	return wide
}

// latestPerMessage 求某一状态类型下每个消息的最新事件
// 按时间戳稳定升序排序后取每组最后一行，时间戳相同时原始顺序靠后者胜出
func (a *StatusAggregator) latestPerMessage(statuses Table, kind string) map[string]Record {
	rows := make(Table, 0)
	for _, record := range statuses {
		if CellString(record, "status") == kind {
			rows = append(rows, record)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ti, iOK := CellTime(rows[i], "timestamp")
		tj, jOK := CellTime(rows[j], "timestamp")
		if !iOK {
			return jOK // 空时间戳排在最前
		}
		if !jOK {
			return false
		}
		return ti.Before(tj)
	})

	latest := make(map[string]Record)
	for _, record := range rows {
		latest[CellString(record, "message_uuid")] = record
	}
	return latest
}
