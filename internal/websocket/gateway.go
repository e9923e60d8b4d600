package websocket

import (
	"encoding/json"
	stdsync "sync"
	"time"

	"studyhub/internal/realtime"
	"studyhub/internal/sync"
	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// Gateway 为每个WebSocket连接维护一套同步视图（通知中心、申请跟踪、
// 消息视图），视图变化时把快照帧推给客户端。
// 连接断开即销毁该套视图，销毁是幂等的。
type Gateway struct {
	feed     realtime.Feed
	messages sync.MessageStore
	profiles sync.ProfileStore
	requests sync.RequestStore
	groups   sync.GroupStore
	store    sync.NotificationStore

	mu       stdsync.Mutex
	sessions map[*Client]*session
}

// 单个连接的同步视图集合
type session struct {
	notifications *sync.NotificationCenter
	requests      *sync.RequestTracker
	messages      *sync.MessageView
}

func NewGateway(
	feed realtime.Feed,
	messages sync.MessageStore,
	profiles sync.ProfileStore,
	requests sync.RequestStore,
	groups sync.GroupStore,
	store sync.NotificationStore,
) *Gateway {
	return &Gateway{
		feed:     feed,
		messages: messages,
		profiles: profiles,
		requests: requests,
		groups:   groups,
		store:    store,
		sessions: make(map[*Client]*session),
	}
}

// 客户端发来的命令
type command struct {
	Action  string `json:"action"`
	GroupID uint   `json:"group_id"`
	ID      uint   `json:"id"`
}

// Register 建立连接的同步视图并开始跟踪
func (g *Gateway) Register(client *Client) {
	refreshInterval := time.Duration(config.GlobalConfig.Notification.RefreshIntervalSeconds) * time.Second

	sess := &session{
		notifications: sync.NewNotificationCenter(g.feed, g.store),
		requests:      sync.NewRequestTracker(g.feed, g.requests, g.groups),
		messages:      sync.NewMessageView(g.feed, g.messages, g.profiles),
	}

	sess.notifications.Watch(func() { g.pushNotifications(client, sess) })
	sess.requests.Watch(func() { g.pushRequests(client, sess) })
	sess.messages.Watch(func() { g.pushMessages(client, sess) })

	g.mu.Lock()
	g.sessions[client] = sess
	g.mu.Unlock()

	sess.notifications.Start(client.UserID, refreshInterval)
	sess.requests.Start(client.UserID)

	logger.L.Info("Client session registered", zap.Uint("userID", client.UserID))
}

// Unregister 销毁连接的同步视图。重复调用无害。
func (g *Gateway) Unregister(client *Client) {
	g.mu.Lock()
	sess, ok := g.sessions[client]
	if ok {
		delete(g.sessions, client)
		// 在锁内关闭，和pushFrame的入队互斥，避免写已关闭通道
		close(client.Send)
	}
	g.mu.Unlock()

	if !ok {
		return
	}

	sess.notifications.Close()
	sess.requests.Close()
	sess.messages.Close()

	logger.L.Info("Client session unregistered", zap.Uint("userID", client.UserID))
}

// HandleCommand 处理客户端命令
func (g *Gateway) HandleCommand(client *Client, payload []byte) {
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		logger.L.Warn("Failed to parse client command", zap.Uint("userID", client.UserID), zap.Error(err))
		return
	}

	g.mu.Lock()
	sess, ok := g.sessions[client]
	g.mu.Unlock()
	if !ok {
		return
	}

	switch cmd.Action {
	case "select_group":
		// 切换聊天群组：视图内部先关旧订阅再开新订阅
		sess.messages.Select(cmd.GroupID)

	case "mark_read":
		if err := sess.notifications.MarkRead(cmd.ID); err != nil {
			logger.L.Warn("Failed to mark notification read",
				zap.Uint("notificationID", cmd.ID), zap.Error(err))
		}

	case "mark_all_read":
		if err := sess.notifications.MarkAllRead(); err != nil {
			logger.L.Warn("Failed to mark all notifications read",
				zap.Uint("userID", client.UserID), zap.Error(err))
		}

	default:
		logger.L.Warn("Unknown client command", zap.String("action", cmd.Action))
	}
}

func (g *Gateway) pushNotifications(client *Client, sess *session) {
	g.pushFrame(client, map[string]any{
		"type":          "notifications",
		"unread_count":  sess.notifications.Unread(),
		"notifications": sess.notifications.Notifications(),
	})
}

func (g *Gateway) pushRequests(client *Client, sess *session) {
	g.pushFrame(client, map[string]any{
		"type":     "requests",
		"mine":     sess.requests.MyRequests(),
		"incoming": sess.requests.IncomingRequests(),
	})
}

func (g *Gateway) pushMessages(client *Client, sess *session) {
	g.pushFrame(client, map[string]any{
		"type":     "messages",
		"messages": sess.messages.Messages(),
	})
}

func (g *Gateway) pushFrame(client *Client, frame map[string]any) {
	data, err := json.Marshal(frame)
	if err != nil {
		logger.L.Error("Failed to marshal frame", zap.Error(err))
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, live := g.sessions[client]; !live {
		// 连接已销毁，迟到的推送直接丢弃
		return
	}
	client.QueueFrame(data)
}
