/*
 * @module service/models/duplicate
 * @description 重复消息记录模型，携带显式的三级构造结果（严格/降级/失败）
 * @architecture 数据模型层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 内容分组 -> 逐行构造 -> 严格解析 / 降级填充 / 构造失败
 * @rules 必填字段缺失时降级填充默认值并记录被降级的字段，方向枚举非法时构造失败
 * @dependencies github.com/spf13/cast, time
 * @refs service/etl/duplicate_detector.go
 */

package models

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// DuplicateRecord 重复消息记录，内容完全相同的消息组中每个成员对应一条
type DuplicateRecord struct {
	ID             int64   `gorm:"column:id" json:"id"`
	Content        *string `gorm:"column:content;type:text" json:"content,omitempty"`
	InsertedAt     string  `gorm:"column:inserted_at;type:varchar(50)" json:"inserted_at"`
	UUID           string  `gorm:"column:uuid;type:varchar(50)" json:"uuid"`
	Direction      string  `gorm:"column:direction;type:varchar(10)" json:"direction"`
	DuplicateGroup *string `gorm:"column:duplicate_group;type:varchar(100)" json:"duplicate_group,omitempty"`
}

// TableName 指定表名
func (DuplicateRecord) TableName() string {
	return "duplicates"
}

// ConstructOutcome 记录构造结果等级
type ConstructOutcome string

const (
	// ConstructOK 严格解析成功，所有字段均合法
	ConstructOK ConstructOutcome = "ok"
	// ConstructDegraded 部分字段缺失或非法，已用默认值填充
	ConstructDegraded ConstructOutcome = "degraded"
	// ConstructFailed 必要约束无法满足，记录不可用
	ConstructFailed ConstructOutcome = "failed"
)

// DuplicateRecordResult 三级构造结果
type DuplicateRecordResult struct {
	Outcome       ConstructOutcome
	Record        *DuplicateRecord
	DroppedFields []string
	Err           error
}

// NewDuplicateRecord 从动态记录构造重复消息记录
// 构造分三级：严格解析 -> 降级填充缺失的必填字段 -> 构造失败
// 方向枚举非法无法降级，直接返回失败结果
func NewDuplicateRecord(record map[string]interface{}) DuplicateRecordResult {
	result := DuplicateRecordResult{Outcome: ConstructOK}
	rec := &DuplicateRecord{}

	// 方向枚举非法时整条记录不可用
	direction := cast.ToString(record["direction"])
	if !IsValidDirection(direction) {
		result.Outcome = ConstructFailed
		result.Err = fmt.Errorf("direction必须是inbound或outbound之一: %q", direction)
		return result
	}
	rec.Direction = direction

	if value, exists := record["id"]; exists && value != nil {
		id, err := cast.ToInt64E(value)
		if err != nil {
			result.Outcome = ConstructFailed
			result.Err = fmt.Errorf("id字段无法转换为整数: %w", err)
			return result
		}
		rec.ID = id
	} else {
		rec.ID = 0
		result.DroppedFields = append(result.DroppedFields, "id")
	}

	if value, exists := record["uuid"]; exists && value != nil && cast.ToString(value) != "" {
		rec.UUID = cast.ToString(value)
	} else {
		rec.UUID = "unknown-uuid"
		result.DroppedFields = append(result.DroppedFields, "uuid")
	}

	if value, exists := record["inserted_at"]; exists && value != nil {
		switch v := value.(type) {
		case time.Time:
			rec.InsertedAt = v.Format("2006-01-02 15:04:05")
		default:
			rec.InsertedAt = cast.ToString(v)
		}
	} else {
		rec.InsertedAt = time.Now().Format("2006-01-02 15:04:05")
		result.DroppedFields = append(result.DroppedFields, "inserted_at")
	}

	if value, exists := record["content"]; exists && value != nil {
		content := cast.ToString(value)
		if content != "" {
			rec.Content = &content
		}
	}

	if len(result.DroppedFields) > 0 {
		result.Outcome = ConstructDegraded
	}
	result.Record = rec
	return result
}
