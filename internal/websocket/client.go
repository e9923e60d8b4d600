package websocket

import (
	"sync"
	"time"

	"studyhub/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second    // 写超时
	pongWait       = 60 * time.Second    // 等待pong的最大时间
	pingPeriod     = (pongWait * 9) / 10 // 发送ping的周期
	maxMessageSize = 4096                // 入站命令最大长度
)

// 入站命令的处理方
type CommandHandler interface {
	HandleCommand(client *Client, payload []byte)
}

// 连接生命周期的管理方
type ConnectionManager interface {
	Unregister(client *Client)
}

type Client struct {
	UserID  uint
	Conn    *websocket.Conn
	Send    chan []byte
	mu      sync.Mutex
	handler CommandHandler
	manager ConnectionManager
}

func NewClient(userID uint, conn *websocket.Conn, handler CommandHandler, manager ConnectionManager) *Client {
	return &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		handler: handler,
		manager: manager,
	}
}

// QueueFrame 尝试排队一帧出站数据，缓冲满时丢弃并返回false
func (c *Client) QueueFrame(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		logger.L.Warn("Client send buffer full, dropping frame", zap.Uint("userID", c.UserID))
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L.Warn("Unexpected close error", zap.Uint("userID", c.UserID), zap.Error(err))
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.handler.HandleCommand(c, messageBytes)
		} else {
			logger.L.Warn("Received non-text message type, ignoring",
				zap.Int("type", messageType), zap.Uint("userID", c.UserID))
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case messageBytes, ok := <-c.Send:
			if !ok {
				// Send 通道已关闭
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, messageBytes)
			c.mu.Unlock()
			if err != nil {
				logger.L.Warn("Failed to write frame", zap.Uint("userID", c.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
