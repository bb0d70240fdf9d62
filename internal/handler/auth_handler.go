// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"alumniverse/internal/service"
	"alumniverse/pkg/log"
	"alumniverse/pkg/oauth"
	"alumniverse/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Google 登录 state 参数在 Redis 中的有效期。
const oauthStateTTL = 10 * time.Minute

// AuthHandler 负责处理注册、登录和 Google OAuth 相关的 API 请求。
type AuthHandler struct {
	userService  service.UserService
	googleClient *oauth.GoogleClient
	redisClient  *redis.Client
	frontendURL  string
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService, googleClient *oauth.GoogleClient, redisClient *redis.Client, frontendURL string) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		googleClient: googleClient,
		redisClient:  redisClient,
		frontendURL:  frontendURL,
	}
}

// RegisterRequest 定义了注册 API 的请求体结构。
type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Role           string `json:"role" binding:"required"`
	CollegeName    string `json:"collegeName"`
	GraduationYear int    `json:"graduationYear"`
	Major          string `json:"major"`
}

// Register 处理邮箱密码注册请求。
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	user, tokens, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		CollegeName:    req.CollegeName,
		GraduationYear: req.GraduationYear,
		Major:          req.Major,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "该邮箱已被注册"})
		case errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "角色必须是 student 或 alumni"})
		default:
			log.Errorf("Register: failed to register user, error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "注册成功",
		"data": gin.H{
			"user":         user,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Login 处理邮箱密码登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	user, tokens, err := h.userService.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoogleAccount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "该账号使用 Google 登录，请使用 Google 登录入口"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "邮箱或密码错误"})
		default:
			log.Errorf("Login: failed to login, error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "登录成功",
		"data": gin.H{
			"user":         user,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 处理刷新 token 的请求。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：refreshToken 不能为空"})
		return
	}

	tokens, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Warnf("RefreshToken: failed to refresh token, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Token refreshed successfully",
		"data": gin.H{
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// GoogleLogin 生成带 state 的授权地址并重定向到 Google。
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := token.GenerateRandomString(16)
	// state 落在 Redis 中用于回调时防 CSRF 校验
	if err := h.redisClient.Set(c.Request.Context(), "oauthstate:"+state, "1", oauthStateTTL).Err(); err != nil {
		log.Errorf("GoogleLogin: failed to store oauth state, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法发起 Google 登录"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.googleClient.AuthCodeURL(state))
}

// GoogleCallback 处理 Google 授权回调：校验 state，用授权码换取用户信息，
// 查找或创建本地账号后携带令牌重定向回前端。
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 state 或 code 参数"})
		return
	}

	deleted, err := h.redisClient.Del(c.Request.Context(), "oauthstate:"+state).Result()
	if err != nil || deleted == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 state"})
		return
	}

	gu, err := h.googleClient.FetchUser(c.Request.Context(), code)
	if err != nil {
		log.Errorf("GoogleCallback: failed to fetch google user, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google 授权失败"})
		return
	}

	user, tokens, err := h.userService.LoginWithGoogle(c.Request.Context(), gu)
	if err != nil {
		log.Errorf("GoogleCallback: failed to login with google, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		return
	}

	// 携带令牌重定向回前端，由前端完成后续 onboarding 跳转
	redirectURL := fmt.Sprintf("%s/auth/callback?token=%s&refreshToken=%s&isOnboarded=%t",
		h.frontendURL,
		url.QueryEscape(tokens.AccessToken),
		url.QueryEscape(tokens.RefreshToken),
		user.IsOnboarded,
	)
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}
