/*
 * @module service/models/message
 * @description 原始消息与状态事件模型，对应数据仓库中的 messages_raw 和 statuses_raw 表
 * @architecture 数据模型层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 表格抽取 -> 数据清洗 -> 统一视图转换 -> 数据仓库写入
 * @rules id、uuid、inserted_at 为必填字段，缺失记入质量报告而非中断流水线
 * @dependencies gorm.io/gorm, time
 * @refs service/etl/, service/warehouse/
 */

package models

import "time"

// RawMessage 原始消息记录，每行对应一条入站或出站消息
type RawMessage struct {
	ID                  int64      `gorm:"column:id" json:"id"`
	UUID                string     `gorm:"column:uuid;type:varchar(50)" json:"uuid"`
	MessageType         string     `gorm:"column:message_type;type:varchar(30)" json:"message_type"`
	MaskedAddressees    *string    `gorm:"column:masked_addressees;type:text" json:"masked_addressees,omitempty"`
	MaskedAuthor        *string    `gorm:"column:masked_author;type:text" json:"masked_author,omitempty"`
	Content             *string    `gorm:"column:content;type:text" json:"content,omitempty"`
	AuthorType          string     `gorm:"column:author_type;type:varchar(20)" json:"author_type"`
	Direction           string     `gorm:"column:direction;type:varchar(10)" json:"direction"`
	ExternalID          *string    `gorm:"column:external_id;type:varchar(100)" json:"external_id,omitempty"`
	ExternalTimestamp   *time.Time `gorm:"column:external_timestamp" json:"external_timestamp,omitempty"`
	MaskedFromAddr      *string    `gorm:"column:masked_from_addr;type:text" json:"masked_from_addr,omitempty"`
	IsDeleted           *string    `gorm:"column:is_deleted;type:varchar(10)" json:"is_deleted,omitempty"`
	LastStatus          *string    `gorm:"column:last_status;type:varchar(20)" json:"last_status,omitempty"`
	LastStatusTimestamp *time.Time `gorm:"column:last_status_timestamp" json:"last_status_timestamp,omitempty"`
	RenderedContent     *string    `gorm:"column:rendered_content;type:text" json:"rendered_content,omitempty"`
	SourceType          *string    `gorm:"column:source_type;type:varchar(30)" json:"source_type,omitempty"`
	InsertedAt          *time.Time `gorm:"column:inserted_at" json:"inserted_at"`
	UpdatedAt           *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (RawMessage) TableName() string {
	return "messages_raw"
}

// RawStatus 状态事件记录，消息状态变化的追加式事件日志
// 同一消息可能存在多条同类状态事件（重试/重复投递），汇总时只保留时间戳最新的一条
type RawStatus struct {
	ID          int64      `gorm:"column:id" json:"id"`
	Status      string     `gorm:"column:status;type:varchar(20)" json:"status"`
	Timestamp   *time.Time `gorm:"column:timestamp" json:"timestamp"`
	UUID        string     `gorm:"column:uuid;type:varchar(50)" json:"uuid"`
	MessageUUID *string    `gorm:"column:message_uuid;type:varchar(50);index" json:"message_uuid,omitempty"`
	MessageID   *int64     `gorm:"column:message_id" json:"message_id,omitempty"`
	NumberID    *int64     `gorm:"column:number_id" json:"number_id,omitempty"`
	InsertedAt  *time.Time `gorm:"column:inserted_at" json:"inserted_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (RawStatus) TableName() string {
	return "statuses_raw"
}
