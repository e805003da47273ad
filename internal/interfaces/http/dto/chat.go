package dto

// SendMessageRequest 发送用户消息请求
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
	Content        string `json:"content" binding:"required"`
}

// SendMessageResponse 发送结果
type SendMessageResponse struct {
	Message *MessageDTO `json:"message"`
	// AutoReplyTriggered 本次发送是否启动了自动回复运行
	AutoReplyTriggered bool `json:"auto_reply_triggered"`
}

// InvokeCharacterRequest 手动调用指定角色请求
type InvokeCharacterRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
	CharacterID    string `json:"character_id" binding:"required,uuid"`
}

// InvokeCharacterResponse 手动调用结果
// Message 为 null 表示生成被取消或未产出内容
type InvokeCharacterResponse struct {
	Message *MessageDTO `json:"message"`
}

// CancelChatRequest 取消自动回复请求
type CancelChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
}

// ChatStatusResponse 会话自动回复状态
type ChatStatusResponse struct {
	ConversationID string `json:"conversation_id"`
	State          string `json:"state"`
}
