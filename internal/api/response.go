package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondOK 成功响应
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

// respondError 按业务错误码映射HTTP状态码
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Code:    int(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    int(apperrors.ErrUnknown),
		Message: err.Error(),
	})
}

// respondBadRequest 请求参数错误
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    int(apperrors.ErrInvalidParam),
		Message: "请求参数错误",
		Details: err.Error(),
	})
}
