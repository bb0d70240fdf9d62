package handler

import (
	"net/http"
	"strconv"

	"alumniverse/internal/model"
	"alumniverse/internal/service"
	"alumniverse/pkg/log"
	"alumniverse/pkg/token"

	"github.com/gin-gonic/gin"
)

// 允许上传的头像大小上限。
const maxAvatarSize = 5 << 20 // 5MB

// UserHandler 负责处理用户资料相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// currentUser 从 Gin 上下文中取出认证中间件存入的 User 对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	user, ok := v.(*model.User)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return user, true
}

// Me 返回当前登录用户的完整资料。
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": user})
}

// GetUser 返回指定用户的公开资料。
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 ID"})
		return
	}

	user, err := h.userService.GetByID(uint(userID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": user})
}

// UpdateProfileRequest 定义了资料更新 API 的请求体结构。
// 使用指针区分"未提供"与"显式置空"。
type UpdateProfileRequest struct {
	Name                   *string `json:"name"`
	CollegeName            *string `json:"collegeName"`
	GraduationYear         *int    `json:"graduationYear"`
	CurrentCompany         *string `json:"currentCompany"`
	JobTitle               *string `json:"jobTitle"`
	ExpectedGraduationYear *int    `json:"expectedGraduationYear"`
	Major                  *string `json:"major"`
	CareerGoals            *string `json:"careerGoals"`
}

// UpdateProfile 更新当前用户的资料。
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileRequest{
		Name:                   req.Name,
		CollegeName:            req.CollegeName,
		GraduationYear:         req.GraduationYear,
		CurrentCompany:         req.CurrentCompany,
		JobTitle:               req.JobTitle,
		ExpectedGraduationYear: req.ExpectedGraduationYear,
		Major:                  req.Major,
		CareerGoals:            req.CareerGoals,
	})
	if err != nil {
		log.Errorf("UpdateProfile: failed to update profile for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新资料失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "资料更新成功", "data": updated})
}

// OnboardRequest 定义了首次完善资料 API 的请求体结构。
type OnboardRequest struct {
	Role                   string `json:"role" binding:"required"`
	CollegeName            string `json:"collegeName" binding:"required"`
	GraduationYear         int    `json:"graduationYear"`
	CurrentCompany         string `json:"currentCompany"`
	JobTitle               string `json:"jobTitle"`
	ExpectedGraduationYear int    `json:"expectedGraduationYear"`
	Major                  string `json:"major"`
	CareerGoals            string `json:"careerGoals"`
}

// Onboard 处理首次登录后的资料完善。
func (h *UserHandler) Onboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	updated, err := h.userService.Onboard(c.Request.Context(), user.ID, service.OnboardRequest{
		Role:                   req.Role,
		CollegeName:            req.CollegeName,
		GraduationYear:         req.GraduationYear,
		CurrentCompany:         req.CurrentCompany,
		JobTitle:               req.JobTitle,
		ExpectedGraduationYear: req.ExpectedGraduationYear,
		Major:                  req.Major,
		CareerGoals:            req.CareerGoals,
	})
	if err != nil {
		if err == service.ErrInvalidRole {
			c.JSON(http.StatusBadRequest, gin.H{"error": "角色必须是 student 或 alumni"})
			return
		}
		log.Errorf("Onboard: failed to onboard user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存资料失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "资料完善成功", "data": updated})
}

// UploadAvatar 处理头像上传（multipart 表单，字段名 avatar）。
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少头像文件"})
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "头像文件不能超过 5MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("UploadAvatar: failed to open uploaded file, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.userService.UpdateAvatar(c.Request.Context(), user.ID, fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		log.Errorf("UploadAvatar: failed to upload avatar for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "头像上传失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "头像上传成功",
		"data":    gin.H{"profilePicture": url},
	})
}

// Logout 将当前 access token 加入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenValue, exists := c.Get("token")
	claimsValue, claimsExist := c.Get("claims")
	if !exists || !claimsExist {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取 token 信息"})
		return
	}
	tokenString, _ := tokenValue.(string)
	claims, ok := claimsValue.(*token.CustomClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token 数据类型错误"})
		return
	}

	if err := h.userService.Logout(c.Request.Context(), tokenString, claims); err != nil {
		log.Errorf("Logout: failed to blacklist token, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登出失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "登出成功", "data": nil})
}
