package sync

import (
	"fmt"
	stdsync "sync"

	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// 对账取数时一次拉取的消息条数上限
const reconcileFetchLimit = 500

// 附带发送者信息的消息行
type ChatMessage struct {
	model.Message
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar"`
}

// MessageView 维护当前选中群组的消息本地副本：
// 按created_at升序，发送者信息补全，发送方自己的消息也经由feed回流，
// 不做本地乐观追加。
type MessageView struct {
	feed     realtime.Feed
	messages MessageStore
	profiles ProfileStore

	scope *Scope

	mu      stdsync.Mutex
	groupID uint
	rows    []ChatMessage
	seen    map[uint]struct{}

	observerMu stdsync.Mutex
	observers  []func()
}

func NewMessageView(feed realtime.Feed, messages MessageStore, profiles ProfileStore) *MessageView {
	v := &MessageView{
		feed:     feed,
		messages: messages,
		profiles: profiles,
		scope:    NewScope(feed),
		seen:     make(map[uint]struct{}),
	}
	v.scope.OnReset(v.resubscribe)
	return v
}

// 订阅被feed侧断开（本视图消费太慢被驱逐）后的恢复：
// 重新订阅当前群组，断档的事件靠随之而来的全量对账补齐
func (v *MessageView) resubscribe() {
	v.mu.Lock()
	groupID := v.groupID
	v.mu.Unlock()

	logger.L.Warn("Message subscription dropped, resubscribing", zap.Uint("groupID", groupID))
	v.Select(groupID)
}

// 注册变更回调，本地副本每次变化后触发
func (v *MessageView) Watch(fn func()) {
	v.observerMu.Lock()
	v.observers = append(v.observers, fn)
	v.observerMu.Unlock()
}

func (v *MessageView) notify() {
	v.observerMu.Lock()
	observers := make([]func(), len(v.observers))
	copy(observers, v.observers)
	v.observerMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Select 切换到另一个群组的消息流。
// 先关旧订阅再开新订阅，随后全量对账；feed不保证断档重放，
// 所以重连后的状态恢复只靠这次全量取数。
func (v *MessageView) Select(groupID uint) {
	v.mu.Lock()
	v.groupID = groupID
	v.rows = nil
	v.seen = make(map[uint]struct{})
	v.mu.Unlock()

	gen := v.scope.Open(realtime.TableMessages,
		realtime.Filter{Column: "group_id", Value: fmt.Sprint(groupID)},
		v.applyEvent)

	v.reconcile(gen, groupID)
	v.notify()
}

// 全量取数替换本地副本。结果应用前校验generation，
// 范围已切换时丢弃过期结果。
func (v *MessageView) reconcile(gen uint64, groupID uint) {
	dbMessages, err := v.messages.FindByGroupID(groupID, reconcileFetchLimit, 0)
	if err != nil {
		logger.L.Error("Failed to fetch messages for reconciliation",
			zap.Uint("groupID", groupID), zap.Error(err))
		return
	}

	// 批量补全发送者信息
	userIDSet := make(map[uint]struct{})
	for _, msg := range dbMessages {
		userIDSet[msg.UserID] = struct{}{}
	}
	userIDs := make([]uint, 0, len(userIDSet))
	for uid := range userIDSet {
		userIDs = append(userIDs, uid)
	}

	profileMap := make(map[uint]model.User)
	if users, err := v.profiles.FindByIDs(userIDs); err != nil {
		logger.L.Warn("Failed to fetch sender profiles, using fallback", zap.Error(err))
	} else {
		for _, u := range users {
			profileMap[u.ID] = u
		}
	}

	rows := make([]ChatMessage, 0, len(dbMessages))
	seen := make(map[uint]struct{}, len(dbMessages))
	for _, msg := range dbMessages {
		rows = append(rows, enrich(msg, profileMap))
		seen[msg.ID] = struct{}{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.scope.Live(gen) {
		// 取数期间范围已切换，丢弃过期结果
		return
	}
	v.rows = rows
	v.seen = seen
}

// feed插入事件的处理：补全发送者信息后追加。
// 补全失败不丢事件，用占位信息照常追加。
func (v *MessageView) applyEvent(gen uint64, event realtime.Event) {
	if event.Op != realtime.OpInsert {
		return
	}

	var msg model.Message
	if err := event.Decode(&msg); err != nil {
		logger.L.Error("Failed to decode message event", zap.Error(err))
		return
	}

	senderName, senderAvatar := "Unknown", "default.png"
	if sender, err := v.profiles.FindByID(msg.UserID); err != nil || sender == nil {
		logger.L.Warn("Failed to find message sender, using fallback",
			zap.Uint("senderID", msg.UserID), zap.Error(err))
	} else {
		senderName = sender.Username
		senderAvatar = sender.Avatar
	}

	v.mu.Lock()
	if !v.scope.Live(gen) {
		// 订阅关闭后迟到的事件不再应用
		v.mu.Unlock()
		return
	}
	if _, dup := v.seen[msg.ID]; dup {
		// feed承诺至少一次投递，按消息ID去重
		v.mu.Unlock()
		return
	}
	v.seen[msg.ID] = struct{}{}
	row := ChatMessage{Message: msg, SenderName: senderName, SenderAvatar: senderAvatar}

	// 按created_at保持非递减顺序插入，通常直接落在尾部
	pos := len(v.rows)
	for pos > 0 && v.rows[pos-1].CreatedAt.After(msg.CreatedAt) {
		pos--
	}
	v.rows = append(v.rows, ChatMessage{})
	copy(v.rows[pos+1:], v.rows[pos:])
	v.rows[pos] = row
	v.mu.Unlock()

	v.notify()
}

// Messages 返回本地副本的快照
func (v *MessageView) Messages() []ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]ChatMessage, len(v.rows))
	copy(out, v.rows)
	return out
}

// Close 释放订阅。幂等，关闭后到达的事件一律no-op。
func (v *MessageView) Close() {
	v.scope.Close()
}

func enrich(msg model.Message, profiles map[uint]model.User) ChatMessage {
	row := ChatMessage{Message: msg, SenderName: "Unknown", SenderAvatar: "default.png"}
	if u, ok := profiles[msg.UserID]; ok {
		row.SenderName = u.Username
		row.SenderAvatar = u.Avatar
	}
	return row
}
