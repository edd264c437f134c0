/*
 * @module service/warehouse/loader
 * @description 数据仓库加载器，负责数据集创建与动态记录表的批量写入
 * @architecture 数据访问层 - 基于gorm的通用表加载
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow EnsureDataset -> 按替换/追加语义建表 -> 分批写入记录
 * @rules 替换语义先删表再重建，单表失败返回错误由上层统计成功数
 * @dependencies gorm.io/gorm
 * @refs service/etl_run_service.go
 */

package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"whatsapp-etl-service/service/etl"
)

// LoadMode 表加载语义
type LoadMode string

const (
	// LoadModeReplace 替换：删除重建后写入
	LoadModeReplace LoadMode = "replace"
	// LoadModeAppend 追加：表不存在时创建，存在时直接写入
	LoadModeAppend LoadMode = "append"
)

// 单次批量写入的记录数上限
const insertBatchSize = 500

// Loader 数据仓库加载器
type Loader struct {
	db      *gorm.DB
	dataset string
	logger  *slog.Logger
}

// NewLoader 创建数据仓库加载器，dataset为目标数据集（PostgreSQL下对应schema）
func NewLoader(db *gorm.DB, dataset string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{db: db, dataset: dataset, logger: logger}
}

// Available 检查仓库连接是否可用
func (l *Loader) Available(ctx context.Context) bool {
	if l.db == nil {
		return false
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

// EnsureDataset 确保数据集存在，sqlite方言下为空操作
func (l *Loader) EnsureDataset(ctx context.Context) error {
	if l.db.Dialector.Name() != "postgres" || l.dataset == "" {
		return nil
	}
	sql := "CREATE SCHEMA IF NOT EXISTS " + l.dataset
	if err := l.db.WithContext(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("创建数据集失败: %w", err)
	}
	return nil
}

// TableRef 数据集限定的表引用
func (l *Loader) TableRef(name string) string {
	return TableRef(l.db, l.dataset, name)
}

// TableRef 按方言生成数据集限定的表引用，sqlite下忽略数据集
func TableRef(db *gorm.DB, dataset, name string) string {
	if db.Dialector.Name() == "postgres" && dataset != "" {
		return dataset + "." + name
	}
	return name
}

// LoadTable 把记录表写入数据仓库，columns为空时取全部记录键的并集（升序）
func (l *Loader) LoadTable(ctx context.Context, name string, columns []string, table etl.Table, mode LoadMode) error {
	if len(columns) == 0 {
		columns = unionColumns(table)
	}
	if len(columns) == 0 {
		l.logger.Warn("记录表无任何列，跳过加载", "table", name)
		return nil
	}
	ref := l.TableRef(name)
	db := l.db.WithContext(ctx)

	if mode == LoadModeReplace {
		if err := db.Exec("DROP TABLE IF EXISTS " + ref).Error; err != nil {
			return fmt.Errorf("删除旧表失败: %w", err)
		}
	}
	if err := db.Exec(createTableSQL(ref, columns, table)).Error; err != nil {
		return fmt.Errorf("建表失败: %w", err)
	}

	for start := 0; start < len(table); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(table) {
			end = len(table)
		}
		batch := projectBatch(table[start:end], columns)
		if err := db.Table(ref).Create(batch).Error; err != nil {
			return fmt.Errorf("批量写入失败: %w", err)
		}
	}

	l.logger.Info("表加载完成", "table", name, "rows", len(table), "mode", string(mode))
	return nil
}

// createTableSQL 按记录值推断列类型生成建表语句
func createTableSQL(ref string, columns []string, table etl.Table) string {
	defs := make([]string, 0, len(columns))
	for _, column := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", column, inferColumnType(column, table)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ref, strings.Join(defs, ", "))
}

// inferColumnType 在记录中找该列第一个非空值推断SQL类型，全空时按TEXT
func inferColumnType(column string, table etl.Table) string {
	for _, record := range table {
		value, ok := record[column]
		if !ok || etl.IsNull(value) {
			continue
		}
		switch value.(type) {
		case time.Time, *time.Time:
			return "TIMESTAMP"
		case int, int32, int64:
			return "BIGINT"
		case float32, float64:
			return "DOUBLE PRECISION"
		case bool:
			return "BOOLEAN"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// projectBatch 把记录投影到指定列集，缺失列补nil，保证批内键一致
func projectBatch(records etl.Table, columns []string) []map[string]interface{} {
	batch := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		row := make(map[string]interface{}, len(columns))
		for _, column := range columns {
			if value, ok := record[column]; ok {
				row[column] = value
			} else {
				row[column] = nil
			}
		}
		batch = append(batch, row)
	}
	return batch
}

// unionColumns 全部记录键的并集，升序
func unionColumns(table etl.Table) []string {
	seen := make(map[string]bool)
	for _, record := range table {
		for key := range record {
			seen[key] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}
