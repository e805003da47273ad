package handler

import (
	"github.com/gin-gonic/gin"

	"sekaichat/internal/config"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/interfaces/http/dto"
	"sekaichat/pkg/logger"
	"sekaichat/pkg/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager *utils.JWTManager
	cfg        config.JWTConfig
	userRepo   repository.UserRepository
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg config.JWTConfig, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		jwtManager: utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		cfg:        cfg,
		userRepo:   userRepo,
	}
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	existing, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		logger.Error(ctx, "failed to check username", err)
		dto.InternalError(c, "registration failed")
		return
	}
	if existing != nil {
		dto.BadRequest(c, "username already taken")
		return
	}

	user := entity.NewUser(req.Username, req.Nickname)
	if err := user.SetPassword(req.Password); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		logger.Error(ctx, "failed to create user", err)
		dto.InternalError(c, "registration failed")
		return
	}

	h.issueTokens(c, user, true)
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "login failed")
		return
	}
	if user == nil || !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid username or password")
		return
	}

	h.issueTokens(c, user, false)
}

// Refresh 刷新访问令牌
// @Summary 用刷新令牌换取新的令牌对
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := c.Cookie("refresh_token")
	if err != nil || token == "" {
		dto.Unauthorized(c, "missing refresh token")
		return
	}

	claims, err := h.jwtManager.ParseToken(token)
	if err != nil || claims.Type != "refresh" {
		dto.Unauthorized(c, "invalid refresh token")
		return
	}

	user, err := h.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		logger.Error(ctx, "failed to load user for refresh", err)
		dto.InternalError(c, "token refresh failed")
		return
	}
	if user == nil {
		dto.Unauthorized(c, "user no longer exists")
		return
	}

	h.issueTokens(c, user, false)
}

// issueTokens 生成令牌对并写出认证响应
func (h *AuthHandler) issueTokens(c *gin.Context, user *entity.User, created bool) {
	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Nickname, h.cfg.Expiration, h.cfg.RefreshExpiration)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to generate tokens", err)
		dto.InternalError(c, "failed to generate tokens")
		return
	}

	c.SetCookie("refresh_token", tokens.RefreshToken,
		int(h.cfg.RefreshExpiration.Seconds()), "/v1/auth/refresh", "", false, true)

	resp := &dto.AuthResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int(h.cfg.Expiration.Seconds()),
		User:        dto.ToAuthUserDTO(user),
	}
	if created {
		dto.Created(c, resp)
		return
	}
	dto.Success(c, resp)
}
