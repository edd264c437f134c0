/*
 * @module service/warehouse/sql_transform
 * @description 服务端SQL变换，用同一份列定义把状态透视与内容重复检查下推到数据仓库执行
 * @architecture 数据访问层 - 由列定义生成可移植SQL
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 生成SQL -> 删除旧结果表 -> CREATE TABLE AS重建 -> 可选读回校验
 * @rules 生成的列集合与内存实现完全一致，方言差异只体现在表引用上
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/backend.go
 */

package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"whatsapp-etl-service/service/etl"
)

// 仓库中的表名
const (
	TableMessagesRaw    = "messages_raw"
	TableStatusesRaw    = "statuses_raw"
	TableUnified        = "unified_messages"
	TableStatusFlat     = "message_status_flat"
	TableDuplicates     = "duplicates"
	TableStatusFlatSQL  = "message_status_flat_sql"
	TableDuplicateCheck = "dq_duplicate_messages"
)

// SQLTransformer 服务端SQL变换器，同时实现UnifiedViewBackend用于交叉校验
type SQLTransformer struct {
	db      *gorm.DB
	loader  *Loader
	dataset string
	logger  *slog.Logger
}

// NewSQLTransformer 创建SQL变换器
func NewSQLTransformer(db *gorm.DB, dataset string, logger *slog.Logger) *SQLTransformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLTransformer{
		db:      db,
		loader:  NewLoader(db, dataset, logger),
		dataset: dataset,
		logger:  logger,
	}
}

// ref 数据集限定的表引用
func (t *SQLTransformer) ref(name string) string {
	return TableRef(t.db, t.dataset, name)
}

// StatusPivotSQL 由列定义生成状态透视查询：每条消息一行，5个计数列加每类7个最新事件元数据列
func (t *SQLTransformer) StatusPivotSQL() string {
	statuses := t.ref(TableStatusesRaw)

	var selects []string
	selects = append(selects, "s.message_uuid")
	for _, kind := range etl.StatusKindNames {
		selects = append(selects, fmt.Sprintf(
			"SUM(CASE WHEN s.status = '%s' THEN 1 ELSE 0 END) AS %s", kind, kind))
	}
	for _, kind := range etl.StatusKindNames {
		for _, proj := range etl.StatusMetaProjections() {
			selects = append(selects, fmt.Sprintf(
				"(SELECT m.%s FROM %s m WHERE m.message_uuid = s.message_uuid AND m.status = '%s' "+
					"ORDER BY m.timestamp DESC NULLS LAST LIMIT 1) AS %s_%s",
				proj.Source, statuses, kind, kind, proj.Suffix))
		}
	}

	kindList := "'" + strings.Join(etl.StatusKindNames, "', '") + "'"
	return fmt.Sprintf(
		"SELECT %s FROM %s s WHERE s.message_uuid IS NOT NULL AND s.status IN (%s) "+
			"GROUP BY s.message_uuid ORDER BY s.message_uuid",
		strings.Join(selects, ", "), statuses, kindList)
}

// UnifiedViewSQL 统一视图查询：18个规范消息列左连接状态派生列，未匹配的计数列补0
func (t *SQLTransformer) UnifiedViewSQL() string {
	var selects []string
	for _, column := range etl.MessageColumns {
		source := etl.MessageSourceColumn(column)
		selects = append(selects, fmt.Sprintf("m.%s AS %s", source, column))
	}
	for _, column := range etl.DerivedStatusColumns() {
		if etl.IsCountColumn(column) {
			selects = append(selects, fmt.Sprintf("COALESCE(p.%s, 0) AS %s", column, column))
		} else {
			selects = append(selects, fmt.Sprintf("p.%s AS %s", column, column))
		}
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s m LEFT JOIN (%s) p ON p.message_uuid = m.uuid",
		strings.Join(selects, ", "), t.ref(TableMessagesRaw), t.StatusPivotSQL())
}

// DuplicateCheckSQL 内容分组重复检查：非空白内容出现次数大于1的分组
func (t *SQLTransformer) DuplicateCheckSQL() string {
	return fmt.Sprintf(
		"SELECT m.content, COUNT(*) AS occurrences FROM %s m "+
			"WHERE m.content IS NOT NULL AND TRIM(m.content) <> '' "+
			"GROUP BY m.content HAVING COUNT(*) > 1 ORDER BY m.content",
		t.ref(TableMessagesRaw))
}

// Apply 在仓库侧重建SQL变换结果表
func (t *SQLTransformer) Apply(ctx context.Context) error {
	steps := []struct {
		table string
		query string
	}{
		{TableStatusFlatSQL, t.StatusPivotSQL()},
		{TableDuplicateCheck, t.DuplicateCheckSQL()},
	}

	db := t.db.WithContext(ctx)
	for _, step := range steps {
		ref := t.ref(step.table)
		if err := db.Exec("DROP TABLE IF EXISTS " + ref).Error; err != nil {
			return fmt.Errorf("删除旧变换结果表%s失败: %w", step.table, err)
		}
		if err := db.Exec(fmt.Sprintf("CREATE TABLE %s AS %s", ref, step.query)).Error; err != nil {
			return fmt.Errorf("重建变换结果表%s失败: %w", step.table, err)
		}
		t.logger.Info("SQL变换结果表重建完成", "table", step.table)
	}
	return nil
}

// BuildUnifiedView 把原始表装载进仓库后用SQL构建统一视图，与内存后端交叉校验
func (t *SQLTransformer) BuildUnifiedView(ctx context.Context, messages, statuses etl.Table) (*etl.UnifiedView, error) {
	if err := t.loader.LoadTable(ctx, TableMessagesRaw, messageSourceColumns(), messages, LoadModeReplace); err != nil {
		return nil, fmt.Errorf("装载原始消息表失败: %w", err)
	}
	if err := t.loader.LoadTable(ctx, TableStatusesRaw, statusSourceColumns(), statuses, LoadModeReplace); err != nil {
		return nil, fmt.Errorf("装载原始状态表失败: %w", err)
	}

	unified, err := t.queryTable(ctx, t.UnifiedViewSQL())
	if err != nil {
		return nil, fmt.Errorf("统一视图查询失败: %w", err)
	}
	statusFlat, err := t.queryTable(ctx, t.StatusPivotSQL())
	if err != nil {
		return nil, fmt.Errorf("状态透视查询失败: %w", err)
	}

	return &etl.UnifiedView{Unified: unified, StatusFlat: statusFlat}, nil
}

// messageSourceColumns SQL变换引用的全部原始消息列，装载时缺失的补空列
func messageSourceColumns() []string {
	columns := make([]string, 0, len(etl.MessageColumns))
	for _, column := range etl.MessageColumns {
		columns = append(columns, etl.MessageSourceColumn(column))
	}
	return columns
}

// statusSourceColumns SQL变换引用的全部原始状态列
func statusSourceColumns() []string {
	columns := []string{"message_uuid", "status"}
	for _, proj := range etl.StatusMetaProjections() {
		columns = append(columns, proj.Source)
	}
	return columns
}

// queryTable 执行查询并把结果读为记录表
func (t *SQLTransformer) queryTable(ctx context.Context, query string) (etl.Table, error) {
	var rows []map[string]interface{}
	if err := t.db.WithContext(ctx).Raw(query).Find(&rows).Error; err != nil {
		return nil, err
	}
	table := make(etl.Table, 0, len(rows))
	for _, row := range rows {
		table = append(table, etl.Record(row))
	}
	return table, nil
}
