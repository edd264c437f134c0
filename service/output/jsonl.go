/*
 * @module service/output/jsonl
 * @description 本地JSONL落盘，数据仓库不可用时的降级输出通道
 * @architecture 适配器模式 - 与仓库加载器共用同一份表数据
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 创建输出目录 -> 逐表写入 <表名>.jsonl -> 每行一条JSON记录
 * @rules 时间值序列化为RFC3339格式，nil值序列化为null
 * @dependencies encoding/json
 * @refs service/etl_run_service.go
 */

package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"whatsapp-etl-service/service/etl"
)

// JSONLWriter 本地JSONL写入器
type JSONLWriter struct {
	dir    string
	logger *slog.Logger
}

// NewJSONLWriter 创建JSONL写入器，dir为输出目录
func NewJSONLWriter(dir string, logger *slog.Logger) *JSONLWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLWriter{dir: dir, logger: logger}
}

// WriteTable 把一张表写入 <dir>/<name>.jsonl
func (w *JSONLWriter) WriteTable(name string, table etl.Table) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(w.dir, name+".jsonl")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, record := range table {
		if err := encoder.Encode(normalizeRecord(record)); err != nil {
			return fmt.Errorf("写入记录失败: %w", err)
		}
	}

	w.logger.Info("本地JSONL写入完成", "table", name, "rows", len(table), "path", path)
	return nil
}

// WriteTables 批量写入多张表，遇错即停
func (w *JSONLWriter) WriteTables(tables map[string]etl.Table) error {
	for name, table := range tables {
		if err := w.WriteTable(name, table); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport 把结构化报告以缩进JSON写入 <dir>/<name>.json
func (w *JSONLWriter) WriteReport(name string, report interface{}) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("报告序列化失败: %w", err)
	}

	path := filepath.Join(w.dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("报告写入失败: %w", err)
	}

	w.logger.Info("质量报告写入完成", "path", path)
	return nil
}

// normalizeRecord 序列化前统一时间值格式
func normalizeRecord(record etl.Record) etl.Record {
	out := make(etl.Record, len(record))
	for key, value := range record {
		switch v := value.(type) {
		case time.Time:
			out[key] = v.Format(time.RFC3339)
		case *time.Time:
			if v != nil {
				out[key] = v.Format(time.RFC3339)
			} else {
				out[key] = nil
			}
		default:
			out[key] = value
		}
	}
	return out
}
