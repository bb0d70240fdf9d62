package handler

import (
	"errors"
	"net/http"
	"strconv"

	"alumniverse/internal/repository"
	"alumniverse/internal/service"
	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责处理会话列表与历史消息的 API 请求。
type ConversationHandler struct {
	convService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(convService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// List 返回当前用户的会话列表，按最近活跃时间倒序。
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	previews, err := h.convService.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("ListConversations: failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取会话列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": previews})
}

// History 返回指定会话的全部历史消息，按时间升序。
func (h *ConversationHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的会话 ID"})
		return
	}

	messages, err := h.convService.History(c.Request.Context(), uint(conversationID), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		case errors.Is(err, service.ErrNotAParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "你不是该会话的参与者"})
		default:
			log.Errorf("ConversationHistory: failed for conversation %d, error: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取历史消息失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": messages})
}
