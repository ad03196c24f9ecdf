package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/config"
	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
	ws "github.com/RedDot15/BE-Xiangqi/internal/websocket"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				// 生产环境应校验Origin
				return true
			},
		},
		logger: logger,
	}
}

// Connect 建立事件推送连接。握手经RequireAuth，以令牌里的玩家ID绑定定向推送。
func (h *WebSocketHandler) Connect(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.Int64("player_id", playerID),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, playerID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Int64("player_id", playerID))
}
