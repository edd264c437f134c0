/*
 * @module service/etl/duplicate_detector
 * @description 重复消息检测器，按内容完全相同分组，为每个成员生成一条重复记录
 * @architecture 数据转换层 - 检测阶段
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 内容分组 -> 组大小过滤 -> 逐成员构造记录
 * @rules 空白内容不参与分组；n个成员的组产出n条记录；构造失败的记录记日志后丢弃
 * @dependencies log/slog, strings
 * @refs service/models/duplicate.go, service/etl/pipeline.go
 */

package etl

import (
	"log/slog"
	"sort"
	"strings"

	"whatsapp-etl-service/service/models"
)

// DuplicateDetector 重复消息检测器
type DuplicateDetector struct {
	logger *slog.Logger
	// strict 为true时降级构造的记录同样丢弃
	strict bool
}

// NewDuplicateDetector 创建重复消息检测器
func NewDuplicateDetector(logger *slog.Logger, strict bool) *DuplicateDetector {
	return &DuplicateDetector{logger: logger, strict: strict}
}

// Detect 检测内容完全相同的消息
// 每个大小≥2、内容非空白的组为每个成员产出一条记录，
// 输出顺序为内容键升序、组内保持原始行序
func (d *DuplicateDetector) Detect(messages Table) []models.DuplicateRecord {
	duplicates := make([]models.DuplicateRecord, 0)
	if len(messages) == 0 {
		return duplicates
	}

	groups := make(map[string]Table)
	for _, record := range messages {
		if CellIsNull(record, "content") {
			continue
		}
		content := CellString(record, "content")
		if strings.TrimSpace(content) == "" {
			continue
		}
		groups[content] = append(groups[content], record)
	}

	contents := make([]string, 0, len(groups))
	for content := range groups {
		contents = append(contents, content)
	}
	sort.Strings(contents)

	for _, content := range contents {
		group := groups[content]
		if len(group) <= 1 {
			continue
		}
		for _, record := range group {
			result := models.NewDuplicateRecord(record)
			switch result.Outcome {
			case models.ConstructFailed:
				d.logger.Warn("重复记录构造失败，已丢弃", "error", result.Err)
				continue
			case models.ConstructDegraded:
				if d.strict {
					d.logger.Warn("严格模式下丢弃降级构造的重复记录",
						"dropped_fields", result.DroppedFields)
					continue
				}
				d.logger.Warn("重复记录降级构造",
					"dropped_fields", result.DroppedFields,
					"uuid", result.Record.UUID)
			}
			duplicates = append(duplicates, *result.Record)
		}
	}

	d.logger.Info("重复消息检测完成", "records", len(duplicates))
	return duplicates
}
