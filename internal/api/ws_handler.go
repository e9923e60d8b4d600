package api

import (
	"net/http"

	internalws "studyhub/internal/websocket"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该配置具体的域名
		return true
	},
}

type WSHandler struct {
	gateway *internalws.Gateway
}

func NewWSHandler(gateway *internalws.Gateway) *WSHandler {
	return &WSHandler{gateway: gateway}
}

func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Error("Failed to upgrade WebSocket connection", zap.Uint("userID", userID), zap.Error(err))
		return
	}
	logger.L.Info("WebSocket connection upgraded", zap.Uint("userID", userID))

	client := internalws.NewClient(userID, conn, h.gateway, h.gateway)
	h.gateway.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
