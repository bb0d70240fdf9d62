// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"alumniverse/internal/config"
	"alumniverse/pkg/log"
	"alumniverse/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// PointsProcessor defines the interface for any service that can apply a points event.
// This decouples the Kafka consumer from the concrete leaderboard implementation.
type PointsProcessor interface {
	Process(ctx context.Context, event tasks.ActivityPointsEvent) error
}

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

// ProducePointsEvent 发送一个积分事件到 Kafka。
func ProducePointsEvent(ctx context.Context, event tasks.ActivityPointsEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx, kafka.Message{Value: eventBytes})
}

// StartConsumer 启动一个 Kafka 消费者来处理积分事件，
// 直到 stop 被关闭或读取出错才返回。应在独立的 goroutine 中运行。
func StartConsumer(cfg config.KafkaConfig, processor PointsProcessor, stop <-chan struct{}) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "alumniverse-points-consumer",
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	// stop 关闭时取消 FetchMessage 的阻塞等待
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者收到停止信号，退出")
			} else {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		var event tasks.ActivityPointsEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		if err := processor.Process(ctx, event); err != nil {
			// 积分事件的处理是幂等性较弱的累加操作，这里不做自动重试，
			// 记录错误后提交 offset，避免重复消费导致重复加分
			log.Errorf("处理积分事件失败: userID=%d, action=%s, error: %v", event.UserID, event.Action, err)
		} else {
			log.Debugf("积分事件处理成功: userID=%d, action=%s, points=%d", event.UserID, event.Action, event.Points)
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}
