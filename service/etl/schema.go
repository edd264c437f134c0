/*
 * @module service/etl/schema
 * @description 统一视图规范列定义，宽表的全部派生列由这一份常量推导
 * @architecture 数据转换层 - 模式定义
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 状态汇聚与统一视图两条路径消费同一份列定义
 * @rules 空聚合路径和连接路径必须产出完全相同的派生列集合
 * @dependencies whatsapp-etl-service/service/models
 * @refs service/etl/status_aggregator.go, service/etl/unified_view.go
 */

package etl

import "whatsapp-etl-service/service/models"

// StatusKindNames 宽表状态类型列顺序
var StatusKindNames = func() []string {
	names := make([]string, 0, len(models.StatusKinds))
	for _, kind := range models.StatusKinds {
		names = append(names, string(kind))
	}
	return names
}()

// statusMetaProjection 每种状态类型的最新事件元数据投影：源列 -> 目标列后缀
// 顺序即宽表列顺序
var statusMetaProjection = []MetaProjection{
	{"timestamp", "timestamp"},
	{"inserted_at", "inserted_at"},
	{"updated_at", "updated_at"},
	{"uuid", "status_uuid"},
	{"id", "status_id"},
	{"message_id", "status_message_id"},
	{"number_id", "status_number_id"},
}

// MetaProjection 状态元数据投影项：源列名 -> 目标列后缀
type MetaProjection struct {
	Source string
	Suffix string
}

// StatusMetaProjections 返回元数据投影的副本，供SQL变换等场景按同一份定义生成列
func StatusMetaProjections() []MetaProjection {
	projections := make([]MetaProjection, 0, len(statusMetaProjection))
	for _, proj := range statusMetaProjection {
		projections = append(projections, MetaProjection{Source: proj.Source, Suffix: proj.Suffix})
	}
	return projections
}

// StatusMetaColumns 某一状态类型的全部元数据列
func StatusMetaColumns(kind string) []string {
	columns := make([]string, 0, len(statusMetaProjection))
	for _, proj := range statusMetaProjection {
		columns = append(columns, kind+"_"+proj.Suffix)
	}
	return columns
}

// DerivedStatusColumns 统一视图中全部状态派生列：5个计数列 + 每类7个元数据列
func DerivedStatusColumns() []string {
	columns := make([]string, 0, len(StatusKindNames)*(1+len(statusMetaProjection)))
	columns = append(columns, StatusKindNames...)
	for _, kind := range StatusKindNames {
		columns = append(columns, StatusMetaColumns(kind)...)
	}
	return columns
}

// StatusFlatColumns 状态宽表（聚合中间产物）的完整列集合
func StatusFlatColumns() []string {
	return append([]string{"message_uuid"}, DerivedStatusColumns()...)
}

// MessageColumns 规范化后消息表的18个规范列，顺序固定
var MessageColumns = []string{
	"message_id",
	"message_uuid",
	"message_type",
	"masked_addressees",
	"masked_author",
	"content",
	"author_type",
	"direction",
	"external_id",
	"external_timestamp",
	"masked_from_addr",
	"is_deleted",
	"rendered_content",
	"source_type",
	"message_inserted_at",
	"message_updated_at",
	"msg_last_status_raw",
	"msg_last_status_timestamp_raw",
}

// messageRenameMap 原始消息列到规范列的重命名映射
var messageRenameMap = map[string]string{
	"id":                    "message_id",
	"uuid":                  "message_uuid",
	"inserted_at":           "message_inserted_at",
	"updated_at":            "message_updated_at",
	"last_status":           "msg_last_status_raw",
	"last_status_timestamp": "msg_last_status_timestamp_raw",
}

// MessageSourceColumn 规范消息列对应的原始列名，未重命名的列返回自身
func MessageSourceColumn(column string) string {
	for src, dst := range messageRenameMap {
		if dst == column {
			return src
		}
	}
	return column
}

// UnifiedColumns 统一视图的完整列集合：18个消息列 + 40个状态派生列
func UnifiedColumns() []string {
	return append(append([]string{}, MessageColumns...), DerivedStatusColumns()...)
}

// IsCountColumn 判断列是否为状态计数列
func IsCountColumn(column string) bool {
	for _, kind := range StatusKindNames {
		if column == kind {
			return true
		}
	}
	return false
}
