package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaFeed 把行变更事件经Kafka桥接到所有服务实例。
// 本地订阅者仍由内嵌的channel Hub分发，Publish走Kafka，
// 消费循环把自己和其他实例发布的事件注入本地Hub。
type KafkaFeed struct {
	local      *Hub
	producer   sarama.SyncProducer
	consumer   sarama.ConsumerGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	cfg *config.KafkaConfig
}

func NewKafkaFeed() (*KafkaFeed, error) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &config.GlobalConfig.Realtime.Kafka

	// 配置Kafka
	kConfig := sarama.NewConfig()
	kConfig.Producer.RequiredAcks = sarama.WaitForAll
	kConfig.Producer.Return.Successes = true
	kConfig.Producer.Retry.Max = 3
	kConfig.Consumer.Return.Errors = true
	kConfig.Version = sarama.V2_8_0_0 // 使用一个稳定版本

	// 创建生产者
	producer, err := sarama.NewSyncProducer(cfg.Brokers, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka producer", zap.Error(err))
		cancel()
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	// 创建消费者组
	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka consumer group", zap.Error(err))
		producer.Close()
		cancel()
		return nil, fmt.Errorf("failed to start Kafka consumer group: %w", err)
	}

	feed := &KafkaFeed{
		local:      NewHub(),
		producer:   producer,
		consumer:   consumer,
		ctx:        ctx,
		cancelFunc: cancel,
		cfg:        cfg,
	}

	return feed, nil
}

// 关闭KafkaFeed
func (f *KafkaFeed) Close() error {
	f.cancelFunc()

	if err := f.producer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka producer", zap.Error(err))
	}
	if err := f.consumer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka consumer group", zap.Error(err))
	}

	return nil
}

func (f *KafkaFeed) Subscribe(table string, filter Filter) *Subscription {
	return f.local.Subscribe(table, filter)
}

func (f *KafkaFeed) Unsubscribe(sub *Subscription) {
	f.local.Unsubscribe(sub)
}

// Publish 把事件发往Kafka，经消费循环回流到各实例的本地Hub
func (f *KafkaFeed) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		logger.L.Error("Failed to marshal event", zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: f.cfg.Topic,
		// 同一张表的事件落在同一分区，保持每表有序
		Key:   sarama.StringEncoder(event.Table),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = f.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.L.Error("Failed to send event to Kafka", zap.Error(err))
		return fmt.Errorf("failed to send event to Kafka: %w", err)
	}

	logger.L.Debug("Event sent to Kafka", zap.String("table", event.Table))
	return nil
}

// 消费Kafka事件
func (f *KafkaFeed) consumeEvents() {
	handler := &kafkaEventHandler{feed: f}
	topics := []string{f.cfg.Topic}

	for {
		select {
		case <-f.ctx.Done():
			logger.L.Info("Stopping Kafka event consumer")
			return
		default:
			err := f.consumer.Consume(f.ctx, topics, handler)
			if err != nil {
				logger.L.Error("Kafka consumer error", zap.Error(err))
				time.Sleep(5 * time.Second) // 失败时等待一段时间再重试
			}
		}
	}
}

// Kafka消费者处理器
type kafkaEventHandler struct {
	feed *KafkaFeed
}

// Setup 实现sarama.ConsumerGroupHandler接口
func (h *kafkaEventHandler) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup 实现sarama.ConsumerGroupHandler接口
func (h *kafkaEventHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 把Kafka消息解码后交给本地Hub分发
func (h *kafkaEventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.L.Error("Failed to unmarshal event from Kafka", zap.Error(err))
			session.MarkMessage(msg, "")
			continue
		}

		if err := h.feed.local.Publish(event); err != nil {
			logger.L.Warn("Failed to dispatch event from Kafka locally", zap.Error(err))
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
