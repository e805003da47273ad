package handler

import (
	"github.com/gin-gonic/gin"

	"sekaichat/internal/domain/repository"
	"sekaichat/internal/interfaces/http/dto"
	"sekaichat/pkg/logger"
)

// UserHandler 用户处理器
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// Me 获取当前用户资料
// @Summary 当前用户资料
// @Tags User
// @Produce json
// @Success 200 {object} dto.Response[dto.UserDTO]
// @Router /v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	dto.Success(c, dto.ToUserDTO(user))
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags User
// @Accept json
// @Produce json
// @Param body body dto.UpdateProfileRequest true "资料变更"
// @Success 200 {object} dto.Response[dto.UserDTO]
// @Router /v1/users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.SelfIntroduction != nil {
		user.SelfIntroduction = *req.SelfIntroduction
	}
	if req.ProfileImage != nil {
		user.ProfileImage = *req.ProfileImage
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		logger.Error(ctx, "failed to update profile", err)
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToUserDTO(user))
}
