package sync

import (
	stdsync "sync"

	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// RequestTracker 维护当前用户视角下的入群申请副本：
// 自己发出的申请（statusFor查询的是这份缓存，不打数据库）
// 和自己创建的群组收到的待处理申请。
// group_requests表的任何变更都触发两份列表的全量刷新。
type RequestTracker struct {
	feed     realtime.Feed
	requests RequestStore
	groups   GroupStore

	scope *Scope

	mu       stdsync.Mutex
	userID   uint
	mine     []model.GroupRequest
	incoming []model.GroupRequest

	observerMu stdsync.Mutex
	observers  []func()
}

func NewRequestTracker(feed realtime.Feed, requests RequestStore, groups GroupStore) *RequestTracker {
	t := &RequestTracker{
		feed:     feed,
		requests: requests,
		groups:   groups,
		scope:    NewScope(feed),
	}
	t.scope.OnReset(t.resubscribe)
	return t
}

// 订阅被feed侧驱逐后重新订阅并全量刷新
func (t *RequestTracker) resubscribe() {
	t.mu.Lock()
	userID := t.userID
	t.mu.Unlock()

	logger.L.Warn("Request subscription dropped, resubscribing", zap.Uint("userID", userID))
	t.Start(userID)
}

func (t *RequestTracker) Watch(fn func()) {
	t.observerMu.Lock()
	t.observers = append(t.observers, fn)
	t.observerMu.Unlock()
}

func (t *RequestTracker) notify() {
	t.observerMu.Lock()
	observers := make([]func(), len(t.observers))
	copy(observers, t.observers)
	t.observerMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Start 绑定用户并开始跟踪。订阅整张group_requests表：
// 收件箱关心的是"自己创建的任意群组"，无法用单列相等条件表达。
func (t *RequestTracker) Start(userID uint) {
	t.mu.Lock()
	t.userID = userID
	t.mine = nil
	t.incoming = nil
	t.mu.Unlock()

	gen := t.scope.Open(realtime.TableGroupRequests, realtime.Filter{}, t.applyEvent)
	t.Refresh(gen)
	t.notify()
}

// Refresh 全量刷新两份列表，应用前校验generation
func (t *RequestTracker) Refresh(gen uint64) {
	t.mu.Lock()
	userID := t.userID
	t.mu.Unlock()

	mine, err := t.requests.FindByRequester(userID)
	if err != nil {
		logger.L.Error("Failed to fetch my join requests", zap.Uint("userID", userID), zap.Error(err))
		return
	}

	var incoming []model.GroupRequest
	groupIDs, err := t.groups.FindIDsCreatedBy(userID)
	if err != nil {
		logger.L.Error("Failed to fetch created groups", zap.Uint("userID", userID), zap.Error(err))
		return
	}
	if len(groupIDs) > 0 {
		incoming, err = t.requests.FindPendingByGroupIDs(groupIDs)
		if err != nil {
			logger.L.Error("Failed to fetch incoming requests", zap.Uint("userID", userID), zap.Error(err))
			return
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.scope.Live(gen) {
		return
	}
	t.mine = mine
	t.incoming = incoming
}

// 任何申请行的插入或更新都走一次全量刷新，
// 不做增量合并——申请流的数据量小，刷新比合并省事且不会漂移
func (t *RequestTracker) applyEvent(gen uint64, event realtime.Event) {
	t.Refresh(gen)
	t.notify()
}

// StatusFor 返回当前用户对某群组的申请状态。
// 读的是本地缓存，下一次对账前可能短暂滞后。
func (t *RequestTracker) StatusFor(groupID uint) model.RequestStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.mine {
		if r.GroupID == groupID {
			return r.Status
		}
	}
	return model.RequestStatusNone
}

// HasPending 判断本地缓存里是否已有对某群组的待处理申请
func (t *RequestTracker) HasPending(groupID uint) bool {
	return t.StatusFor(groupID) == model.RequestStatusPending
}

// MyRequests 返回自己发出的申请快照
func (t *RequestTracker) MyRequests() []model.GroupRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.GroupRequest, len(t.mine))
	copy(out, t.mine)
	return out
}

// IncomingRequests 返回收件箱快照
func (t *RequestTracker) IncomingRequests() []model.GroupRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.GroupRequest, len(t.incoming))
	copy(out, t.incoming)
	return out
}

// Close 释放订阅。幂等。
func (t *RequestTracker) Close() {
	t.scope.Close()
}
