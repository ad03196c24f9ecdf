package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
	"github.com/RedDot15/BE-Xiangqi/internal/service"
)

// PlayerHandler 玩家信息处理器
type PlayerHandler struct {
	players *service.PlayerService
}

// NewPlayerHandler 创建玩家信息处理器
func NewPlayerHandler(players *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// Me 查询当前玩家信息
func (h *PlayerHandler) Me(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	profile, err := h.players.Profile(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Get profile successfully.", profile)
}

// Profile 查询指定玩家公开信息
func (h *PlayerHandler) Profile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	profile, err := h.players.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Get profile successfully.", profile)
}

// History 分页查询当前玩家的历史对局
func (h *PlayerHandler) History(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, pagination, err := h.players.History(c.Request.Context(), playerID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Get match history successfully.", gin.H{
		"records":    records,
		"pagination": pagination,
	})
}
