package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/infrastructure/persistence/redis"
	"sekaichat/internal/interfaces/http/dto"
	"sekaichat/pkg/logger"
)

// characterCacheTTL 角色详情缓存时长
const characterCacheTTL = 10 * time.Minute

// CharacterHandler 角色处理器
type CharacterHandler struct {
	characterRepo repository.CharacterRepository
	cache         *redis.Cache
}

// NewCharacterHandler 创建角色处理器
func NewCharacterHandler(characterRepo repository.CharacterRepository, cache *redis.Cache) *CharacterHandler {
	return &CharacterHandler{
		characterRepo: characterRepo,
		cache:         cache,
	}
}

// Create 创建角色
// @Summary 创建用户自建角色
// @Tags Character
// @Accept json
// @Produce json
// @Param body body dto.CreateCharacterRequest true "角色定义"
// @Success 201 {object} dto.Response[dto.CharacterDTO]
// @Router /v1/characters [post]
func (h *CharacterHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	char := entityFromCreateRequest(currentUserID(c), &req)
	if err := h.characterRepo.Create(ctx, char); err != nil {
		respondError(c, err)
		return
	}

	dto.Created(c, dto.ToCharacterDTO(char))
}

// List 角色列表
// @Summary 当前用户可见的角色列表（官方角色与本人自建角色）
// @Tags Character
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.CharacterDTO]
// @Router /v1/characters [get]
func (h *CharacterHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.characterRepo.ListVisible(ctx, currentUserID(c), dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToCharacterDTOs(result.Items), dto.ToPageMeta(result))
}

// Get 角色详情
// @Summary 角色详情
// @Tags Character
// @Produce json
// @Param id path string true "角色 ID"
// @Success 200 {object} dto.Response[dto.CharacterDTO]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/characters/{id} [get]
func (h *CharacterHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	raw, err := h.cache.GetOrLoadSafe(ctx, redis.CharacterKey(id), characterCacheTTL, func() (interface{}, error) {
		return h.characterRepo.GetByID(ctx, id)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var char *dto.CharacterDTO
	if err := json.Unmarshal(raw, &char); err != nil {
		logger.Error(ctx, "failed to decode cached character", err, "character_id", id)
		dto.InternalError(c, "failed to load character")
		return
	}
	if char == nil || char.ID == "" {
		dto.NotFound(c, "character not found")
		return
	}

	dto.Success(c, char)
}

// Update 更新角色
// @Summary 更新本人自建角色
// @Tags Character
// @Accept json
// @Produce json
// @Param id path string true "角色 ID"
// @Param body body dto.UpdateCharacterRequest true "角色变更"
// @Success 200 {object} dto.Response[dto.CharacterDTO]
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/characters/{id} [put]
func (h *CharacterHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req dto.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	char, err := h.characterRepo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if char == nil {
		dto.NotFound(c, "character not found")
		return
	}
	if char.IsOfficial() || char.OwnerID == nil || *char.OwnerID != currentUserID(c) {
		dto.Forbidden(c, "character does not belong to current user")
		return
	}

	if req.Name != nil {
		char.Name = *req.Name
	}
	if req.ProfileImage != nil {
		char.ProfileImage = *req.ProfileImage
	}
	if req.Prompt != nil {
		char.Prompt = *req.Prompt
	}
	if req.FirstMessage != nil {
		char.FirstMessage = *req.FirstMessage
	}
	if req.SupportsImageGeneration != nil {
		char.SupportsImageGeneration = *req.SupportsImageGeneration
	}

	if err := h.characterRepo.Update(ctx, char); err != nil {
		respondError(c, err)
		return
	}

	if err := h.cache.InvalidateCharacter(ctx, id); err != nil {
		logger.Warn(ctx, "failed to invalidate character cache", "error", err.Error(), "character_id", id)
	}

	dto.Success(c, dto.ToCharacterDTO(char))
}

// Delete 删除角色
// @Summary 删除本人自建角色
// @Tags Character
// @Produce json
// @Param id path string true "角色 ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/characters/{id} [delete]
func (h *CharacterHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	char, err := h.characterRepo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if char == nil {
		dto.NotFound(c, "character not found")
		return
	}
	if char.IsOfficial() || char.OwnerID == nil || *char.OwnerID != currentUserID(c) {
		dto.Forbidden(c, "character does not belong to current user")
		return
	}

	if err := h.characterRepo.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	if err := h.cache.InvalidateCharacter(ctx, id); err != nil {
		logger.Warn(ctx, "failed to invalidate character cache", "error", err.Error(), "character_id", id)
	}

	dto.NoContent(c)
}

// entityFromCreateRequest 由创建请求构造角色实体
func entityFromCreateRequest(ownerID string, req *dto.CreateCharacterRequest) *entity.Character {
	char := entity.NewCharacter(ownerID, req.Name)
	char.ProfileImage = req.ProfileImage
	char.Prompt = req.Prompt
	char.FirstMessage = req.FirstMessage
	char.SupportsImageGeneration = req.SupportsImageGeneration
	return char
}
