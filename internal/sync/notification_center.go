package sync

import (
	"fmt"
	stdsync "sync"
	"time"

	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// NotificationCenter 维护某用户的通知本地副本：最新的在前，
// 外加一个未读计数器。计数器随已读翻转增量调整，
// 并靠周期性的全量刷新校正漂移，不长期信任增量值。
type NotificationCenter struct {
	feed  realtime.Feed
	store NotificationStore

	scope *Scope

	mu              stdsync.Mutex
	userID          uint
	refreshInterval time.Duration
	rows            []model.Notification
	unread          int
	seen            map[uint]struct{}

	refreshStop chan struct{}
	stopOnce    stdsync.Once

	observerMu stdsync.Mutex
	observers  []func()
}

func NewNotificationCenter(feed realtime.Feed, store NotificationStore) *NotificationCenter {
	c := &NotificationCenter{
		feed:        feed,
		store:       store,
		scope:       NewScope(feed),
		seen:        make(map[uint]struct{}),
		refreshStop: make(chan struct{}),
	}
	c.scope.OnReset(c.resubscribe)
	return c
}

// 订阅被feed侧驱逐后重新订阅并全量取数。
// 旧的刷新循环发现generation失效后自行退出。
func (c *NotificationCenter) resubscribe() {
	c.mu.Lock()
	userID := c.userID
	interval := c.refreshInterval
	c.mu.Unlock()

	logger.L.Warn("Notification subscription dropped, resubscribing", zap.Uint("userID", userID))
	c.Start(userID, interval)
}

func (c *NotificationCenter) Watch(fn func()) {
	c.observerMu.Lock()
	c.observers = append(c.observers, fn)
	c.observerMu.Unlock()
}

func (c *NotificationCenter) notify() {
	c.observerMu.Lock()
	observers := make([]func(), len(c.observers))
	copy(observers, c.observers)
	c.observerMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Start 绑定用户，订阅其通知流并做首次全量取数。
// refreshInterval>0时启动周期全量刷新。
func (c *NotificationCenter) Start(userID uint, refreshInterval time.Duration) {
	c.mu.Lock()
	c.userID = userID
	c.refreshInterval = refreshInterval
	c.rows = nil
	c.unread = 0
	c.seen = make(map[uint]struct{})
	c.mu.Unlock()

	gen := c.scope.Open(realtime.TableNotifications,
		realtime.Filter{Column: "user_id", Value: fmt.Sprint(userID)},
		c.applyEvent)

	c.Refresh(gen)
	c.notify()

	if refreshInterval > 0 {
		go c.refreshLoop(gen, refreshInterval)
	}
}

// 周期全量刷新，修正增量计数器可能积累的漂移
func (c *NotificationCenter) refreshLoop(gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.refreshStop:
			return
		case <-ticker.C:
			if !c.scope.Live(gen) {
				return
			}
			c.Refresh(gen)
			c.notify()
		}
	}
}

// Refresh 全量取数替换本地副本，未读数按is_read=false重新计算
func (c *NotificationCenter) Refresh(gen uint64) {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	rows, err := c.store.FindByUserID(userID)
	if err != nil {
		logger.L.Error("Failed to fetch notifications", zap.Uint("userID", userID), zap.Error(err))
		return
	}

	unread := 0
	seen := make(map[uint]struct{}, len(rows))
	for _, n := range rows {
		if !n.IsRead {
			unread++
		}
		seen[n.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.scope.Live(gen) {
		return
	}
	c.rows = rows
	c.unread = unread
	c.seen = seen
}

// 新通知事件：前插并递增未读数
func (c *NotificationCenter) applyEvent(gen uint64, event realtime.Event) {
	if event.Op != realtime.OpInsert {
		return
	}

	var n model.Notification
	if err := event.Decode(&n); err != nil {
		logger.L.Error("Failed to decode notification event", zap.Error(err))
		return
	}

	c.mu.Lock()
	if !c.scope.Live(gen) {
		c.mu.Unlock()
		return
	}
	if _, dup := c.seen[n.ID]; dup {
		// 至少一次投递，按ID去重
		c.mu.Unlock()
		return
	}
	c.seen[n.ID] = struct{}{}
	c.rows = append([]model.Notification{n}, c.rows...)
	if !n.IsRead {
		c.unread++
	}
	c.mu.Unlock()

	c.notify()
}

// MarkRead 翻转单条通知的已读位并调整本地计数器
func (c *NotificationCenter) MarkRead(notificationID uint) error {
	if err := c.store.MarkRead(notificationID); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.rows {
		if c.rows[i].ID == notificationID && !c.rows[i].IsRead {
			c.rows[i].IsRead = true
			if c.unread > 0 {
				c.unread--
			}
			break
		}
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// MarkAllRead 把全部未读翻成已读并把计数器清零
func (c *NotificationCenter) MarkAllRead() error {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	if err := c.store.MarkAllRead(userID); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.rows {
		c.rows[i].IsRead = true
	}
	c.unread = 0
	c.mu.Unlock()

	c.notify()
	return nil
}

// Unread 返回本地未读计数
func (c *NotificationCenter) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Notifications 返回本地副本快照，最新的在前
func (c *NotificationCenter) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.rows))
	copy(out, c.rows)
	return out
}

// Close 释放订阅并停掉刷新循环。幂等。
func (c *NotificationCenter) Close() {
	c.scope.Close()
	c.stopOnce.Do(func() { close(c.refreshStop) })
}
