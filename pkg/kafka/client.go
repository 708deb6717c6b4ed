// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/pkg/events"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Enabled 返回生产者是否已初始化。
// 未启用 Kafka 时事件发布是空操作，日志摄取流程不受影响。
func Enabled() bool {
	return producer != nil
}

// ProduceLogIngestedEvent 发布一条日志入库事件到 Kafka。
// 事件以 deviceId 作为消息 key，保证同一设备的事件有序。
func ProduceLogIngestedEvent(ctx context.Context, event events.LogIngestedEvent) error {
	if producer == nil {
		return nil
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.DeviceID),
			Value: eventBytes,
		},
	)
}

// Close 关闭 Kafka 生产者，刷新所有未发送的消息。
func Close() {
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}
