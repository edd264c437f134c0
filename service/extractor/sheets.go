/*
 * @module service/extractor/sheets
 * @description 电子表格数据抽取器，通过HTTP拉取表格的CSV导出并解析为动态记录表
 * @architecture 适配器模式 - 封装HTTP数据源，提供统一的抽取接口
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 构造导出URL -> HTTP拉取 -> 编码转换 -> CSV解析 -> 记录表
 * @rules 单个标签页拉取失败降级为空表并记日志，不中断整体抽取
 * @dependencies net/http, encoding/csv, golang.org/x/text
 * @refs service/etl_run_service.go
 */

package extractor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"whatsapp-etl-service/service/etl"
)

// Extractor 表格数据抽取接口
type Extractor interface {
	// Extract 抽取消息表和状态表，两者都可能为空
	Extract(ctx context.Context) (messages, statuses etl.Table, err error)
}

// SheetsConfig 电子表格抽取配置
type SheetsConfig struct {
	// BaseURL CSV导出基础URL（不含gid参数）
	BaseURL string
	// MessagesGID 消息标签页gid
	MessagesGID string
	// StatusesGID 状态标签页gid
	StatusesGID string
	// Encoding 源数据编码，空或utf-8时不转换，支持gbk
	Encoding string
	// Timeout HTTP超时，零值时取30秒
	Timeout time.Duration
}

// SheetsExtractor 电子表格抽取器
type SheetsExtractor struct {
	config SheetsConfig
	client *http.Client
	logger *slog.Logger
}

// NewSheetsExtractor 创建电子表格抽取器
func NewSheetsExtractor(config SheetsConfig, logger *slog.Logger) *SheetsExtractor {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsExtractor{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Extract 抽取两个标签页的数据
func (e *SheetsExtractor) Extract(ctx context.Context) (etl.Table, etl.Table, error) {
	messages := e.extractSheet(ctx, e.config.MessagesGID, "messages")
	statuses := e.extractSheet(ctx, e.config.StatusesGID, "statuses")
	return messages, statuses, nil
}

// extractSheet 抽取单个标签页，失败时降级为空表
func (e *SheetsExtractor) extractSheet(ctx context.Context, gid, name string) etl.Table {
	url := fmt.Sprintf("%s&gid=%s", e.config.BaseURL, gid)
	e.logger.Info("开始抽取标签页", "sheet", name)

	table, err := e.fetchCSV(ctx, url)
	if err != nil {
		e.logger.Warn("标签页抽取失败，按空表处理", "sheet", name, "error", err)
		return etl.Table{}
	}

	e.logger.Info("标签页抽取完成", "sheet", name, "rows", len(table))
	return table
}

// fetchCSV 拉取并解析CSV
func (e *SheetsExtractor) fetchCSV(ctx context.Context, url string) (etl.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造HTTP请求失败: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP请求返回非预期状态码: %d", resp.StatusCode)
	}

	body, err := DecodeReader(resp.Body, e.config.Encoding)
	if err != nil {
		return nil, fmt.Errorf("编码转换失败: %w", err)
	}

	return parseCSV(body)
}

// parseCSV 把CSV内容解析为记录表，首行为列名，空单元格解析为空值
func parseCSV(r io.Reader) (etl.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV解析失败: %w", err)
	}
	if len(rows) == 0 {
		return etl.Table{}, nil
	}

	header := rows[0]
	table := make(etl.Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(etl.Record, len(header))
		for i, column := range header {
			if i < len(row) && row[i] != "" {
				record[column] = row[i]
			} else {
				record[column] = nil
			}
		}
		table = append(table, record)
	}
	return table, nil
}
