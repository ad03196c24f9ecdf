package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RedDot15/BE-Xiangqi/internal/match"
	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
)

// ContractHandler 匹配契约处理器
type ContractHandler struct {
	contracts *match.ContractService
}

// NewContractHandler 创建匹配契约处理器
func NewContractHandler(contracts *match.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Get 查询契约当前状态
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.contracts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Get match contract successfully.", contract)
}

// Accept 确认契约，双方都确认后创建对局
func (h *ContractHandler) Accept(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	if err := h.contracts.Accept(c.Request.Context(), c.Param("id"), playerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Accept match contract successfully.", nil)
}
