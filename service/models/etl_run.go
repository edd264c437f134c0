/*
 * @module service/models/etl_run
 * @description ETL运行记录模型，记录每次流水线执行的概要信息
 * @architecture 数据模型层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 流水线执行 -> 运行记录落库 -> 运行历史查询
 * @rules 运行记录只增不改，失败的运行同样保留
 * @dependencies gorm.io/gorm, github.com/google/uuid, time
 * @refs service/etl_run_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ETL运行状态
const (
	EtlRunStatusSuccess = "success"
	EtlRunStatusFailed  = "failed"
)

// EtlRun ETL运行记录
type EtlRun struct {
	ID                    string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	Status                string    `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt             time.Time `json:"started_at"`
	DurationMs            int64     `json:"duration_ms"`
	TotalMessages         int64     `json:"total_messages"`
	TotalStatuses         int64     `json:"total_statuses"`
	DuplicatesFound       int64     `json:"duplicates_found"`
	QualityScore          int64     `json:"quality_score"`
	UploadedTables        int       `json:"uploaded_tables"`
	UploadTarget          string    `gorm:"type:varchar(20)" json:"upload_target"` // warehouse, local
	ErrorMessage          string    `gorm:"type:text" json:"error_message,omitempty"`
	MissingRequiredFields int64     `json:"missing_required_fields"`
	InvalidStatuses       int64     `json:"invalid_statuses"`
	QualityChecks         JSONB     `gorm:"type:jsonb" json:"quality_checks,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// TableName 指定表名
func (EtlRun) TableName() string {
	return "etl_runs"
}

// BeforeCreate 创建前钩子
func (e *EtlRun) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
