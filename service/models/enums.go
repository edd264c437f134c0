/*
 * @module service/models/enums
 * @description 消息数据枚举定义，包含消息状态、消息类型、作者类型和方向枚举
 * @architecture 数据模型层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 原始数据解析 -> 枚举校验 -> 派生记录构造
 * @rules 枚举校验失败属于数据质量缺陷，不是致命错误
 * @refs service/etl/, service/models/message.go
 */

package models

// StatusKind 状态事件类型
type StatusKind string

const (
	StatusSent      StatusKind = "sent"
	StatusDelivered StatusKind = "delivered"
	StatusRead      StatusKind = "read"
	StatusFailed    StatusKind = "failed"
	StatusDeleted   StatusKind = "deleted"
)

// StatusKinds 所有已知状态类型，顺序即宽表列顺序
var StatusKinds = []StatusKind{
	StatusSent,
	StatusDelivered,
	StatusRead,
	StatusFailed,
	StatusDeleted,
}

// IsValidStatusKind 判断状态值是否为已知状态类型
func IsValidStatusKind(value string) bool {
	for _, kind := range StatusKinds {
		if string(kind) == value {
			return true
		}
	}
	return false
}

// Direction 消息方向
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// IsValidDirection 判断方向值是否合法
func IsValidDirection(value string) bool {
	return value == string(DirectionInbound) || value == string(DirectionOutbound)
}

// MessageTypes 已知消息类型
var MessageTypes = []string{
	"text", "interactive", "button", "image", "document", "audio",
	"hsm", "template", "video", "voice", "sticker", "contacts", "reaction",
}

// IsValidMessageType 判断消息类型是否合法
func IsValidMessageType(value string) bool {
	for _, t := range MessageTypes {
		if t == value {
			return true
		}
	}
	return false
}

// AuthorTypes 已知作者类型
var AuthorTypes = []string{"OWNER", "USER", "STACK", "AUTOMATOR", "OPERATOR", "SYSTEM"}

// IsValidAuthorType 判断作者类型是否合法
func IsValidAuthorType(value string) bool {
	for _, t := range AuthorTypes {
		if t == value {
			return true
		}
	}
	return false
}
