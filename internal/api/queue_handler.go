package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RedDot15/BE-Xiangqi/internal/match"
	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
)

// QueueHandler 匹配队列处理器
type QueueHandler struct {
	queue *match.QueueService
}

// NewQueueHandler 创建匹配队列处理器
func NewQueueHandler(queue *match.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Join 进入匹配队列，配到对手时经WebSocket推送契约
func (h *QueueHandler) Join(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	if err := h.queue.JoinQueue(c.Request.Context(), playerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Queue successfully.", nil)
}

// Leave 退出匹配队列
func (h *QueueHandler) Leave(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	if err := h.queue.LeaveQueue(c.Request.Context(), playerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Unqueue successfully.", nil)
}
