package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RedDot15/BE-Xiangqi/internal/game"
	"github.com/RedDot15/BE-Xiangqi/internal/match"
	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
)

// MatchHandler 对局处理器
type MatchHandler struct {
	matches *match.MatchService
}

// NewMatchHandler 创建对局处理器
func NewMatchHandler(matches *match.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// moveRequest 落子请求。(0,0)是合法坐标，不能用required校验
type moveRequest struct {
	From game.Position `json:"from"`
	To   game.Position `json:"to"`
}

// createAIRequest 人机对局请求
type createAIRequest struct {
	AIMode string `json:"aiMode" binding:"required"`
}

// CreateWithAI 创建人机对局
func (h *MatchHandler) CreateWithAI(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	var req createAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	matchID, err := h.matches.CreateWithAI(c.Request.Context(), playerID, req.AIMode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Create AI match successfully.", gin.H{"matchId": matchID})
}

// State 查询对局快照
func (h *MatchHandler) State(c *gin.Context) {
	matchID, ok := h.matchID(c)
	if !ok {
		return
	}
	state, err := h.matches.State(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Get match state successfully.", state)
}

// Ready 标记就绪，双方就绪后启动计时
func (h *MatchHandler) Ready(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	matchID, ok := h.matchID(c)
	if !ok {
		return
	}
	if err := h.matches.Ready(c.Request.Context(), matchID, playerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Mark ready successfully.", nil)
}

// Move 落子
func (h *MatchHandler) Move(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	matchID, ok := h.matchID(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.matches.Move(c.Request.Context(), matchID, playerID, req.From, req.To); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Move successfully.", nil)
}

// Resign 认输
func (h *MatchHandler) Resign(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	matchID, ok := h.matchID(c)
	if !ok {
		return
	}
	if err := h.matches.Resign(c.Request.Context(), matchID, playerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Resign successfully.", nil)
}

func (h *MatchHandler) matchID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return 0, false
	}
	return id, true
}
