/*
 * @module service/warehouse/backend
 * @description 统一视图构建后端抽象，内存实现与SQL实现可互相校验
 * @architecture 策略模式 - 同一份列定义驱动两种执行路径
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 原始消息表+状态表 -> 后端实现 -> 统一视图
 * @rules 两种后端输出的列集合必须一致
 * @dependencies service/etl
 * @refs service/warehouse/sql_transform.go
 */

package warehouse

import (
	"context"
	"log/slog"

	"whatsapp-etl-service/service/etl"
)

// UnifiedViewBackend 统一视图构建后端
type UnifiedViewBackend interface {
	// BuildUnifiedView 从原始消息表和状态表构建统一视图
	BuildUnifiedView(ctx context.Context, messages, statuses etl.Table) (*etl.UnifiedView, error)
}

// MemoryBackend 进程内实现，直接复用转换核心
type MemoryBackend struct {
	builder *etl.UnifiedViewBuilder
}

// NewMemoryBackend 创建进程内后端
func NewMemoryBackend(logger *slog.Logger) *MemoryBackend {
	return &MemoryBackend{builder: etl.NewUnifiedViewBuilder(logger)}
}

// BuildUnifiedView 进程内构建统一视图
func (b *MemoryBackend) BuildUnifiedView(_ context.Context, messages, statuses etl.Table) (*etl.UnifiedView, error) {
	return b.builder.Build(messages, statuses), nil
}
