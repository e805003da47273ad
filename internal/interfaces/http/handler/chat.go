package handler

import (
	"github.com/gin-gonic/gin"

	"sekaichat/internal/application/autoreply"
	"sekaichat/internal/config"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/infrastructure/messaging"
	"sekaichat/internal/interfaces/http/dto"
	"sekaichat/pkg/logger"
)

// ChatHandler 聊天处理器
// 用户发言落库后触发自动回复循环，并按消息计数节拍发布好感度分析任务
type ChatHandler struct {
	controller       *autoreply.Controller
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	producer         *messaging.Producer
	affectionCfg     config.AffectionConfig
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(
	controller *autoreply.Controller,
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	producer *messaging.Producer,
	affectionCfg config.AffectionConfig,
) *ChatHandler {
	return &ChatHandler{
		controller:       controller,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		producer:         producer,
		affectionCfg:     affectionCfg,
	}
}

// Send 发送用户消息
// @Summary 发送用户消息并触发自动回复
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.SendMessageRequest true "消息内容"
// @Success 200 {object} dto.Response[dto.SendMessageResponse]
// @Router /v1/chat/send [post]
func (h *ChatHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, req.ConversationID)
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	msg := entity.NewUserMessage(conv.ID, req.Content)
	if err := h.messageRepo.Create(ctx, msg); err != nil {
		respondError(c, err)
		return
	}

	count, err := h.conversationRepo.IncrementUserMessageCount(ctx, conv.ID)
	if err != nil {
		// 计数失败只影响分析节拍，不阻断发送
		logger.Warn(ctx, "failed to increment user message count", "error", err.Error(), "conversation_id", conv.ID)
	} else if conv.UseAffectionSys && h.affectionCfg.AnalyzeCadence > 0 && count%h.affectionCfg.AnalyzeCadence == 0 {
		_, pubErr := h.producer.PublishAffectionAnalysis(ctx, &messaging.AffectionAnalysisMessage{
			ConversationID:   conv.ID,
			UserMessageCount: count,
		})
		if pubErr != nil {
			logger.Warn(ctx, "failed to publish affection analysis job", "error", pubErr.Error(), "conversation_id", conv.ID)
		}
	}

	triggered, err := h.controller.Trigger(ctx, conv.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, &dto.SendMessageResponse{
		Message:            dto.ToMessageDTO(msg, nil),
		AutoReplyTriggered: triggered,
	})
}

// Invoke 手动调用指定角色
// @Summary 手动调用指定角色生成一条回复，抢占进行中的自动回复
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.InvokeCharacterRequest true "调用目标"
// @Success 200 {object} dto.Response[dto.InvokeCharacterResponse]
// @Router /v1/chat/invoke [post]
func (h *ChatHandler) Invoke(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.InvokeCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, req.ConversationID)
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	msg, err := h.controller.Invoke(ctx, req.ConversationID, req.CharacterID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := &dto.InvokeCharacterResponse{}
	if msg != nil {
		images, imgErr := h.messageRepo.ListImages(ctx, msg.ID)
		if imgErr != nil {
			logger.Warn(ctx, "failed to list message images", "error", imgErr.Error(), "message_id", msg.ID)
		}
		resp.Message = dto.ToMessageDTO(msg, images)
	}

	dto.Success(c, resp)
}

// Cancel 取消自动回复
// @Summary 中止会话内进行中的自动回复，已生成的消息保留
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.CancelChatRequest true "目标会话"
// @Success 200 {object} dto.Response[dto.ChatStatusResponse]
// @Router /v1/chat/cancel [post]
func (h *ChatHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CancelChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, req.ConversationID)
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	h.controller.Cancel(conv.ID)

	dto.Success(c, &dto.ChatStatusResponse{
		ConversationID: conv.ID,
		State:          string(h.controller.State(conv.ID)),
	})
}

// Status 自动回复状态
// @Summary 查询会话当前的自动回复状态
// @Tags Chat
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ChatStatusResponse]
// @Router /v1/conversations/{id}/chat/status [get]
func (h *ChatHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	dto.Success(c, &dto.ChatStatusResponse{
		ConversationID: conv.ID,
		State:          string(h.controller.State(conv.ID)),
	})
}
