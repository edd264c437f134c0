/*
 * @module service/event/kafka_notifier
 * @description Kafka运行事件通知器，向下游发布ETL运行完成事件
 * @architecture 适配器模式 - 封装kafka-go生产者，提供统一的通知接口
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 运行结束 -> 序列化运行摘要 -> 发送到运行事件topic
 * @rules 未配置broker时整体降级为空通知器，发送失败只记日志不影响运行结果
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/etl_run_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// RunEvent ETL运行完成事件
type RunEvent struct {
	RunID        string    `json:"run_id"`
	Status       string    `json:"status"`
	MessageCount int64     `json:"message_count"`
	StatusCount  int64     `json:"status_count"`
	QualityScore float64   `json:"quality_score"`
	DurationMs   int64     `json:"duration_ms"`
	FinishedAt   time.Time `json:"finished_at"`
}

// RunNotifier 运行事件通知接口
type RunNotifier interface {
	// NotifyRunCompleted 发布运行完成事件
	NotifyRunCompleted(ctx context.Context, event RunEvent) error
	// Close 关闭通知器
	Close() error
}

// NoopNotifier 空通知器，未配置Kafka时使用
type NoopNotifier struct{}

func (NoopNotifier) NotifyRunCompleted(context.Context, RunEvent) error { return nil }
func (NoopNotifier) Close() error                                       { return nil }

// KafkaNotifier Kafka运行事件通知器
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaNotifier 创建Kafka通知器
func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

// NotifyRunCompleted 发布运行完成事件，key为运行ID保证同一运行的事件有序
func (n *KafkaNotifier) NotifyRunCompleted(ctx context.Context, event RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("运行事件序列化失败: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Time:  time.Now(),
	}

	if err := n.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("运行事件发送失败: %w", err)
	}

	n.logger.Info("运行完成事件已发布", "run_id", event.RunID, "status", event.Status)
	return nil
}

// Close 关闭底层生产者
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
