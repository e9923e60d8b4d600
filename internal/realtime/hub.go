package realtime

import (
	"errors"
	"time"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// Hub 是进程内的Feed实现：单个Run循环串行处理注册、注销和事件分发，
// 订阅者之间互不阻塞，慢订阅者重试后被淘汰。
type Hub struct {
	subs       map[uint64]*Subscription
	publish    chan Event
	register   chan *Subscription
	unregister chan *Subscription

	bufferSize    int
	retryCount    int
	retryInterval time.Duration
}

func NewHub() *Hub {
	rtConfig := config.GlobalConfig.Realtime

	retryCount := rtConfig.DeliverRetryCount
	if retryCount <= 0 {
		retryCount = 3
		logger.L.Warn("Invalid retryCount, using default", zap.Int("default", retryCount))
	}

	retryInterval := time.Duration(rtConfig.DeliverRetryIntervalMs) * time.Millisecond
	if retryInterval <= 0 {
		retryInterval = 100 * time.Millisecond
		logger.L.Warn("Invalid retryInterval, using default", zap.Duration("default", retryInterval))
	}

	bufferSize := rtConfig.SubscriberBufferSize
	if bufferSize <= 0 {
		bufferSize = 64
		logger.L.Warn("Invalid SubscriberBufferSize, using default", zap.Int("default", bufferSize))
	}

	publishBufferSize := rtConfig.PublishBufferSize
	if publishBufferSize <= 0 {
		publishBufferSize = 256
		logger.L.Warn("Invalid PublishBufferSize, using default", zap.Int("default", publishBufferSize))
	}

	return &Hub{
		subs:          make(map[uint64]*Subscription),
		publish:       make(chan Event, publishBufferSize),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		bufferSize:    bufferSize,
		retryCount:    retryCount,
		retryInterval: retryInterval,
	}
}

func (h *Hub) Subscribe(table string, filter Filter) *Subscription {
	sub := NewSubscription(table, filter, h.bufferSize)
	h.register <- sub
	return sub
}

// 取消订阅。重复调用是无害的no-op。
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.unregister <- sub
}

func (h *Hub) Publish(event Event) error {
	select {
	case h.publish <- event:
		logger.L.Debug("Event queued for dispatch", zap.String("table", event.Table), zap.String("op", string(event.Op)))
		return nil
	default:
		// publish通道已满或Run循环未启动
		logger.L.Warn("Hub publish channel full. Dropping event.", zap.String("table", event.Table))
		return errors.New("hub publish channel is full")
	}
}

func (h *Hub) trySend(sub *Subscription, event Event) {
	select {
	case sub.C <- event:
		// 投递成功
	default:
		for i := 0; i < h.retryCount; i++ {
			logger.L.Warn("Subscriber buffer full, retry attempt",
				zap.Uint64("subID", sub.id),
				zap.Int("attempt", i+1))
			timer := time.NewTimer(h.retryInterval)
			select {
			case sub.C <- event:
				// 重试成功
				<-timer.C // 确保timer被消耗
				return
			case <-timer.C:
				// 重试超时
			}
		}
		// 重试全部失败，淘汰该订阅者。
		// 通道关闭对订阅方表现为一次断连，由其重新订阅并全量对账。
		logger.L.Error("Subscriber still full after retries, evicting",
			zap.Uint64("subID", sub.id),
			zap.Int("attempts", h.retryCount))
		if _, ok := h.subs[sub.id]; ok {
			close(sub.C)
			delete(h.subs, sub.id)
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.subs[sub.id] = sub
			logger.L.Debug("Subscription registered",
				zap.Uint64("subID", sub.id), zap.String("table", sub.table))

		case sub := <-h.unregister:
			if _, ok := h.subs[sub.id]; ok {
				delete(h.subs, sub.id)
				close(sub.C)
				logger.L.Debug("Subscription removed", zap.Uint64("subID", sub.id))
			}

		case event := <-h.publish:
			// 事件分发：表名和过滤条件都命中的订阅者各收到一份
			for _, sub := range h.subs {
				if sub.table != event.Table {
					continue
				}
				if !sub.filter.Matches(event.Row) {
					continue
				}
				h.trySend(sub, event)
			}
		}
	}
}
