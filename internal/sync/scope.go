package sync

import (
	stdsync "sync"

	"studyhub/internal/realtime"
)

// Scope 管理一个逻辑订阅范围：同一时刻至多持有一个feed订阅，
// 切换范围必须先关闭旧订阅再打开新订阅，否则重叠范围会导致事件重复应用。
// 每次打开都会递增generation，迟到的异步结果在应用前必须校验generation，
// 防止旧范围的数据写进新范围的本地状态。
type Scope struct {
	feed realtime.Feed

	// 订阅被feed侧断开（慢订阅者被驱逐）后的恢复回调，
	// 在任何Open之前注册一次。回调在独立goroutine里执行，
	// 照例是重新打开订阅并全量对账。
	reset func()

	mu     stdsync.Mutex
	gen    uint64
	sub    *realtime.Subscription
	closed bool
}

func NewScope(feed realtime.Feed) *Scope {
	return &Scope{feed: feed}
}

func (s *Scope) OnReset(fn func()) {
	s.reset = fn
}

// Open 关闭已有订阅并打开新订阅，返回本次的generation标记。
// apply在独立的分发goroutine里被调用，订阅通道关闭后goroutine退出。
// Close之后的Open是no-op，返回的generation不再是Live的。
func (s *Scope) Open(table string, filter realtime.Filter, apply func(gen uint64, event realtime.Event)) uint64 {
	s.mu.Lock()
	if s.closed {
		gen := s.gen
		s.mu.Unlock()
		return gen
	}
	if s.sub != nil {
		s.feed.Unsubscribe(s.sub)
		s.sub = nil
	}
	s.gen++
	gen := s.gen
	sub := s.feed.Subscribe(table, filter)
	s.sub = sub
	s.mu.Unlock()

	go func() {
		for event := range sub.C {
			if !s.Live(gen) {
				return
			}
			apply(gen, event)
		}
		// 通道被feed侧关闭。订阅仍是当前这份，说明是慢订阅被驱逐
		// 而不是本地的Close或范围切换，触发恢复回调重连并对账。
		s.mu.Lock()
		if s.closed || s.gen != gen || s.sub != sub {
			s.mu.Unlock()
			return
		}
		s.sub = nil
		reset := s.reset
		s.mu.Unlock()
		if reset != nil {
			reset()
		}
	}()

	return gen
}

// Live 判断generation是否仍是当前有效的那次订阅
func (s *Scope) Live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen && s.sub != nil
}

// Generation 返回当前generation，用于给在途的异步取数打标
func (s *Scope) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Close 关闭当前订阅并使所有在途结果失效。幂等，可重复调用。
// 关闭之后不再接受Open，也不再触发恢复回调。
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.feed.Unsubscribe(s.sub)
		s.sub = nil
	}
	s.gen++
	s.closed = true
}
