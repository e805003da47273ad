package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// 用户管理
	users := v1.Group("/users")
	{
		users.GET("/me", h.User.Me)
		users.PATCH("/me", h.User.UpdateProfile)
	}

	// 角色管理
	characters := v1.Group("/characters")
	{
		characters.GET("", h.Character.List)
		characters.POST("", h.Character.Create)
		characters.GET("/:id", h.Character.Get)
		characters.PUT("/:id", h.Character.Update)
		characters.DELETE("/:id", h.Character.Delete)
	}

	// 会话管理
	conversations := v1.Group("/conversations")
	{
		conversations.GET("", h.Conversation.List)
		conversations.POST("", h.Conversation.Create)
		conversations.GET("/:id", h.Conversation.Get)
		conversations.PATCH("/:id", h.Conversation.Update)
		conversations.DELETE("/:id", h.Conversation.Delete)

		// 参与者
		conversations.GET("/:id/participants", h.Conversation.ListParticipants)
		conversations.POST("/:id/participants", h.Conversation.Invite)
		conversations.DELETE("/:id/participants/:character_id", h.Conversation.Kick)

		// 消息
		conversations.GET("/:id/messages", h.Conversation.ListMessages)
		conversations.DELETE("/:id/messages/:message_id", h.Conversation.DeleteMessage)

		// 自动回复状态
		conversations.GET("/:id/chat/status", h.Chat.Status)

		// 好感度
		conversations.GET("/:id/affection", h.Affection.Overview)
		conversations.POST("/:id/affection/:character_id/adjust", h.Affection.Adjust)
		conversations.PUT("/:id/affection/:character_id/type", h.Affection.SetType)
	}

	// 聊天
	chat := v1.Group("/chat")
	{
		chat.POST("/send", h.Chat.Send)
		chat.POST("/invoke", h.Chat.Invoke)
		chat.POST("/cancel", h.Chat.Cancel)
	}
}
