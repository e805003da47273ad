package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/interfaces/http/dto"
	apperrors "sekaichat/pkg/errors"
)

// AffectionHandler 好感度处理器
type AffectionHandler struct {
	engine           *affection.Engine
	conversationRepo repository.ConversationRepository
	participantRepo  repository.ParticipantRepository
	characterRepo    repository.CharacterRepository
	affectionRepo    repository.AffectionRepository
}

// NewAffectionHandler 创建好感度处理器
func NewAffectionHandler(
	engine *affection.Engine,
	conversationRepo repository.ConversationRepository,
	participantRepo repository.ParticipantRepository,
	characterRepo repository.CharacterRepository,
	affectionRepo repository.AffectionRepository,
) *AffectionHandler {
	return &AffectionHandler{
		engine:           engine,
		conversationRepo: conversationRepo,
		participantRepo:  participantRepo,
		characterRepo:    characterRepo,
		affectionRepo:    affectionRepo,
	}
}

// Overview 会话好感度总览
// @Summary 会话内所有参与角色的好感度状态
// @Tags Affection
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ConversationAffectionDTO]
// @Router /v1/conversations/{id}/affection [get]
func (h *AffectionHandler) Overview(c *gin.Context) {
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

	out := &dto.ConversationAffectionDTO{
		ConversationID:  conv.ID,
		UseAffectionSys: conv.UseAffectionSys,
		Participants:    make([]*dto.ParticipantAffectionDTO, 0, len(parts)),
	}

	for _, p := range parts {
		entry := &dto.ParticipantAffectionDTO{
			CharacterID:   p.CharacterID,
			CharacterType: string(p.CharacterType),
			AffectionType: string(entity.AffectionTypeFriendship),
		}

		if char, charErr := h.characterRepo.GetByID(ctx, p.CharacterID); charErr == nil && char != nil {
			entry.Name = char.Name
			entry.ProfileImage = char.ProfileImage
		}

		// 未落库的状态视为初始值，不在读路径上创建
		state, stateErr := h.affectionRepo.Get(ctx, conv.ID, p.CharacterID)
		if stateErr != nil {
			respondError(c, stateErr)
			return
		}
		if state != nil {
			entry.AffectionLevel = state.Level
			entry.AffectionType = string(state.Type)
		}
		entry.Label = affection.DisplayLabel(entry.AffectionLevel, entity.AffectionType(entry.AffectionType))

		out.Participants = append(out.Participants, entry)
	}

	dto.Success(c, out)
}

// Adjust 调整好感度
// @Summary 按增量调整某角色的好感度等级
// @Tags Affection
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param character_id path string true "角色 ID"
// @Param body body dto.AdjustAffectionRequest true "增量"
// @Success 200 {object} dto.Response[dto.AffectionStateDTO]
// @Router /v1/conversations/{id}/affection/{character_id}/adjust [post]
func (h *AffectionHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AdjustAffectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	if !h.requireParticipant(c, conv.ID, c.Param("character_id")) {
		return
	}

	state, err := h.engine.Adjust(ctx, conv.ID, c.Param("character_id"), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToAffectionStateDTO(state, affection.DisplayLabel(state.Level, state.Type)))
}

// SetType 切换关系类型
// @Summary 切换某角色的关系类型（友情/爱情）
// @Description 等级低于锁定阈值时返回 409，响应数据携带当前权威状态供客户端回同步
// @Tags Affection
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param character_id path string true "角色 ID"
// @Param body body dto.SetAffectionTypeRequest true "目标类型"
// @Success 200 {object} dto.Response[dto.AffectionStateDTO]
// @Failure 409 {object} dto.Response[dto.AffectionStateDTO]
// @Router /v1/conversations/{id}/affection/{character_id}/type [put]
func (h *AffectionHandler) SetType(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SetAffectionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversationRepo.GetByID(ctx, c.Param("id"))
	if !requireOwnedConversation(c, conv, err) {
		return
	}

	characterID := c.Param("character_id")
	if !h.requireParticipant(c, conv.ID, characterID) {
		return
	}

	state, err := h.engine.SetType(ctx, conv.ID, characterID, entity.AffectionType(req.Type))
	if err != nil {
		if errors.Is(err, apperrors.ErrAffectionLocked) {
			// 锁定冲突时返回权威状态，客户端据此回同步本地展示
			current, curErr := h.affectionRepo.Get(ctx, conv.ID, characterID)
			if curErr == nil && current != nil {
				c.JSON(http.StatusConflict, dto.Response[*dto.AffectionStateDTO]{
					Code:    http.StatusConflict,
					Message: "affection type is locked while hostile",
					Data:    dto.ToAffectionStateDTO(current, affection.DisplayLabel(current.Level, current.Type)),
					TraceID: c.GetString("trace_id"),
				})
				return
			}
		}
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToAffectionStateDTO(state, affection.DisplayLabel(state.Level, state.Type)))
}

// requireParticipant 校验角色在会话中
func (h *AffectionHandler) requireParticipant(c *gin.Context, conversationID, characterID string) bool {
	part, err := h.participantRepo.Get(c.Request.Context(), conversationID, characterID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if part == nil {
		dto.NotFound(c, "participant not found")
		return false
	}
	return true
}
