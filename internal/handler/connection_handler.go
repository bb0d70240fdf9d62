package handler

import (
	"errors"
	"net/http"
	"strconv"

	"alumniverse/internal/service"
	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConnectionHandler 负责处理连接请求相关的 API。
type ConnectionHandler struct {
	connService service.ConnectionService
}

// NewConnectionHandler 创建一个新的 ConnectionHandler 实例。
func NewConnectionHandler(connService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connService: connService}
}

// ConnectionRequest 定义了发起连接请求 API 的请求体结构。
type ConnectionRequest struct {
	RecipientID uint   `json:"recipientId" binding:"required"`
	Message     string `json:"message"`
}

// Request 发起一个连接请求。
func (h *ConnectionHandler) Request(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	conn, err := h.connService.Request(c.Request.Context(), user.ID, req.RecipientID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfConnection):
			c.JSON(http.StatusBadRequest, gin.H{"error": "不能向自己发起连接请求"})
		case errors.Is(err, service.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "与该用户之间已存在连接请求"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "接收方不存在"})
		default:
			log.Errorf("ConnectionRequest: failed for user %d, error: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "发起连接请求失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "连接请求已发送", "data": conn})
}

// RespondRequest 定义了答复连接请求 API 的请求体结构。
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// Respond 由接收方接受或拒绝一个连接请求。
func (h *ConnectionHandler) Respond(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	connectionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的连接请求 ID"})
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：accept 不能为空"})
		return
	}

	conn, err := h.connService.Respond(c.Request.Context(), uint(connectionID), user.ID, req.Action == "accept")
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "连接请求不存在"})
		case errors.Is(err, service.ErrNotRecipient):
			c.JSON(http.StatusForbidden, gin.H{"error": "只有接收方可以答复连接请求"})
		case errors.Is(err, service.ErrAlreadyDecided):
			c.JSON(http.StatusConflict, gin.H{"error": "该连接请求已被处理"})
		default:
			log.Errorf("ConnectionRespond: failed for connection %d, error: %v", connectionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理连接请求失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": conn})
}

// List 返回当前用户的连接请求列表，支持 status 查询参数过滤。
func (h *ConnectionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.connService.List(c.Request.Context(), user.ID, c.Query("status"))
	if err != nil {
		log.Errorf("ConnectionList: failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取连接列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": views})
}
