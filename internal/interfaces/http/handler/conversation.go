package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/application/autoreply"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/interfaces/http/dto"
	apperrors "sekaichat/pkg/errors"
	"sekaichat/pkg/logger"
)

// ConversationHandler 会话处理器
type ConversationHandler struct {
	conversationRepo repository.ConversationRepository
	participantRepo  repository.ParticipantRepository
	characterRepo    repository.CharacterRepository
	messageRepo      repository.MessageRepository
	affectionEngine  *affection.Engine
	controller       *autoreply.Controller
	txManager        repository.Transactor
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(
	conversationRepo repository.ConversationRepository,
	participantRepo repository.ParticipantRepository,
	characterRepo repository.CharacterRepository,
	messageRepo repository.MessageRepository,
	affectionEngine *affection.Engine,
	controller *autoreply.Controller,
	txManager repository.Transactor,
) *ConversationHandler {
	return &ConversationHandler{
		conversationRepo: conversationRepo,
		participantRepo:  participantRepo,
		characterRepo:    characterRepo,
		messageRepo:      messageRepo,
		affectionEngine:  affectionEngine,
		controller:       controller,
		txManager:        txManager,
	}
}

// Create 创建会话
// @Summary 创建会话，可同时邀请初始角色
// @Tags Conversation
// @Accept json
// @Produce json
// @Param body body dto.CreateConversationRequest true "会话信息"
// @Success 201 {object} dto.Response[dto.ConversationDTO]
// @Router /v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv := entity.NewConversation(currentUserID(c), req.Title)

	err := h.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := h.conversationRepo.Create(txCtx, conv); err != nil {
			return err
		}
		for _, charID := range req.CharacterIDs {
			if err := h.invite(txCtx, conv, charID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Created(c, dto.ToConversationDTO(conv))
}

// List 会话列表
// @Summary 当前用户的会话列表
// @Tags Conversation
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.ConversationDTO]
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.conversationRepo.ListByOwner(ctx, currentUserID(c), dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToConversationDTOs(result.Items), dto.ToPageMeta(result))
}

// Get 会话详情
// @Summary 会话详情
// @Tags Conversation
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ConversationDTO]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	dto.Success(c, dto.ToConversationDTO(conv))
}

// Update 更新会话设置
// @Summary 更新会话设置（模式开关、连续响应上限、情境提示等）
// @Tags Conversation
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param body body dto.UpdateConversationRequest true "设置变更"
// @Success 200 {object} dto.Response[dto.ConversationDTO]
// @Router /v1/conversations/{id} [patch]
func (h *ConversationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	if req.Title != nil {
		conv.Title = *req.Title
	}
	if req.AutoReplyEnabled != nil {
		conv.AutoReplyEnabled = *req.AutoReplyEnabled
	}
	if req.ContinuousResponseEnabled != nil {
		conv.ContinuousResponseEnabled = *req.ContinuousResponseEnabled
	}
	if req.MaxAutoCallSequence != nil {
		conv.MaxAutoCallSequence = *req.MaxAutoCallSequence
	}
	if req.WorkMode != nil {
		conv.WorkMode = *req.WorkMode
	}
	if req.ShowTime != nil {
		conv.ShowTime = *req.ShowTime
	}
	if req.UseAffectionSys != nil {
		conv.UseAffectionSys = *req.UseAffectionSys
	}
	if req.ImageGenerationEnabled != nil {
		conv.ImageGenerationEnabled = *req.ImageGenerationEnabled
	}
	if req.SituationPrompt != nil {
		conv.SituationPrompt = *req.SituationPrompt
	}
	if req.SelectedModel != nil {
		conv.SelectedModel = *req.SelectedModel
	}

	if err := h.conversationRepo.Update(ctx, conv); err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToConversationDTO(conv))
}

// Delete 删除会话
// @Summary 删除会话，进行中的自动回复先被中止
// @Tags Conversation
// @Produce json
// @Param id path string true "会话 ID"
// @Success 204
// @Router /v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	h.controller.Cancel(conv.ID)

	if err := h.conversationRepo.Delete(ctx, conv.ID); err != nil {
		respondError(c, err)
		return
	}

	dto.NoContent(c)
}

// ListParticipants 参与者列表
// @Summary 会话参与者列表
// @Tags Conversation
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} dto.Response[[]dto.ParticipantDTO]
// @Router /v1/conversations/{id}/participants [get]
func (h *ConversationHandler) ListParticipants(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	parts, err := h.participantRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]*dto.ParticipantDTO, 0, len(parts))
	for _, p := range parts {
		d := &dto.ParticipantDTO{
			CharacterID:   p.CharacterID,
			CharacterType: string(p.CharacterType),
			InvitedAt:     p.InvitedAt,
		}
		if char, err := h.characterRepo.GetByID(ctx, p.CharacterID); err == nil && char != nil {
			d.Name = char.Name
			d.ProfileImage = char.ProfileImage
		}
		out = append(out, d)
	}

	dto.Success(c, out)
}

// Invite 邀请角色加入会话
// @Summary 邀请角色加入会话
// @Tags Conversation
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param body body dto.InviteParticipantRequest true "角色"
// @Success 201 {object} dto.Response[dto.ParticipantDTO]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/conversations/{id}/participants [post]
func (h *ConversationHandler) Invite(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.InviteParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	existing, err := h.participantRepo.Get(ctx, conv.ID, req.CharacterID)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing != nil {
		dto.Conflict(c, "character already in conversation")
		return
	}

	if err := h.invite(ctx, conv, req.CharacterID); err != nil {
		respondError(c, err)
		return
	}

	part, err := h.participantRepo.Get(ctx, conv.ID, req.CharacterID)
	if err != nil || part == nil {
		respondError(c, err)
		return
	}

	dto.Created(c, &dto.ParticipantDTO{
		CharacterID:   part.CharacterID,
		CharacterType: string(part.CharacterType),
		InvitedAt:     part.InvitedAt,
	})
}

// Kick 将角色移出会话
// @Summary 将角色移出会话，好感度状态保留
// @Tags Conversation
// @Produce json
// @Param id path string true "会话 ID"
// @Param character_id path string true "角色 ID"
// @Success 204
// @Router /v1/conversations/{id}/participants/{character_id} [delete]
func (h *ConversationHandler) Kick(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	if err := h.participantRepo.Delete(ctx, conv.ID, c.Param("character_id")); err != nil {
		respondError(c, err)
		return
	}

	dto.NoContent(c)
}

// ListMessages 会话消息列表
// @Summary 会话消息列表（按时间正序分页）
// @Tags Conversation
// @Produce json
// @Param id path string true "会话 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.MessageDTO]
// @Router /v1/conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	result, err := h.messageRepo.ListByConversation(ctx, conv.ID, dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]*dto.MessageDTO, 0, len(result.Items))
	for _, msg := range result.Items {
		var images []*entity.GeneratedImage
		if msg.Role == entity.RoleAssistant {
			images, err = h.messageRepo.ListImages(ctx, msg.ID)
			if err != nil {
				respondError(c, err)
				return
			}
		}
		out = append(out, dto.ToMessageDTO(msg, images))
	}

	dto.SuccessWithPage(c, out, dto.ToPageMeta(result))
}

// DeleteMessage 删除会话内的一条消息
// @Summary 删除消息
// @Tags Conversation
// @Param id path string true "会话 ID"
// @Param message_id path string true "消息 ID"
// @Success 204
// @Router /v1/conversations/{id}/messages/{message_id} [delete]
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	ctx := c.Request.Context()

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	msg, err := h.messageRepo.GetByID(ctx, c.Param("message_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if msg == nil || msg.ConversationID != conv.ID {
		dto.NotFound(c, "message not found")
		return
	}

	if err := h.messageRepo.Delete(ctx, msg.ID); err != nil {
		respondError(c, err)
		return
	}

	dto.NoContent(c)
}

// invite 添加参与者，按需补齐首条台词与好感度状态
func (h *ConversationHandler) invite(ctx context.Context, conv *entity.Conversation, characterID string) error {
	char, err := h.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return err
	}
	if char == nil {
		return apperrors.ErrCharacterNotFound
	}

	part := entity.NewParticipant(conv.ID, characterID, char.Type)
	if err := h.participantRepo.Create(ctx, part); err != nil {
		return err
	}

	// 角色自带的开场白作为首条发言落库
	if char.FirstMessage != "" {
		first := entity.NewAssistantMessage(conv.ID, characterID, char.FirstMessage, 0)
		if err := h.messageRepo.Create(ctx, first); err != nil {
			return err
		}
	}

	// 好感度状态懒创建，失败不阻断邀请
	if conv.UseAffectionSys {
		if _, err := h.affectionEngine.EnsureState(ctx, conv.ID, characterID); err != nil {
			logger.Warn(ctx, "failed to ensure affection state",
				"error", err.Error(),
				"conversation_id", conv.ID,
				"character_id", characterID,
			)
		}
	}

	return nil
}
