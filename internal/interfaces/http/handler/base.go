// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sekaichat/internal/domain/entity"
	apperrors "sekaichat/pkg/errors"
	"sekaichat/pkg/logger"

	"sekaichat/internal/interfaces/http/dto"
)

// currentUserID 获取当前登录用户 ID
func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// respondError 将应用错误映射为 HTTP 响应
func respondError(c *gin.Context, err error) {
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, appErr.Detail)
		return
	}
	logger.Error(c.Request.Context(), "unhandled error", err, "path", c.Request.URL.Path)
	dto.InternalError(c, "internal server error")
}

// requireOwnedConversation 校验会话存在且属于当前用户
// 失败时已写出响应，调用方直接 return
func requireOwnedConversation(c *gin.Context, conv *entity.Conversation, err error) bool {
	if err != nil {
		respondError(c, err)
		return false
	}
	if conv == nil {
		dto.NotFound(c, "conversation not found")
		return false
	}
	if conv.OwnerID != currentUserID(c) {
		dto.Forbidden(c, "conversation does not belong to current user")
		return false
	}
	return true
}
