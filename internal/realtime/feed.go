package realtime

import (
	"errors"
	"sync/atomic"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// Feed 是行级变更流的抽象：写入方Publish，读取方按表+过滤条件订阅。
// 连接期间至少一次投递，断开期间不投递，恢复靠订阅方全量对账。
type Feed interface {
	Subscribe(table string, filter Filter) *Subscription
	Unsubscribe(sub *Subscription)
	Publish(event Event) error
}

// 订阅句柄。C在取消订阅或被淘汰时关闭。
type Subscription struct {
	id     uint64
	table  string
	filter Filter
	C      chan Event
}

var subIDSeq atomic.Uint64

// NewSubscription 构造订阅句柄，供Feed实现使用。
func NewSubscription(table string, filter Filter, buffer int) *Subscription {
	return &Subscription{
		id:     subIDSeq.Add(1),
		table:  table,
		filter: filter,
		C:      make(chan Event, buffer),
	}
}

func (s *Subscription) Table() string {
	return s.table
}

// 根据配置创建相应的Feed实现
func CreateFeed() (Feed, error) {
	provider := config.GlobalConfig.Realtime.Provider
	logger.L.Info("Creating change feed with provider", zap.String("provider", provider))

	switch provider {
	case "channel":
		// 进程内基于Go通道的feed
		return NewHub(), nil

	case "kafka":
		// 跨实例的Kafka feed
		return NewKafkaFeed()

	default:
		return nil, errors.New("unsupported realtime provider")
	}
}

// 启动Feed的分发循环
func StartFeed(feed Feed) error {
	switch f := feed.(type) {
	case *Hub:
		go f.Run()
		return nil
	case *KafkaFeed:
		go f.local.Run()
		go f.consumeEvents()
		return nil
	default:
		return errors.New("unknown feed type")
	}
}
