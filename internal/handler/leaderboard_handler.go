package handler

import (
	"net/http"
	"strconv"

	"alumniverse/internal/service"
	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
)

// 排行榜默认与最大返回条数。
const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// LeaderboardHandler 负责处理积分排行榜的 API 请求。
type LeaderboardHandler struct {
	lbService service.LeaderboardService
}

// NewLeaderboardHandler 创建一个新的 LeaderboardHandler 实例。
func NewLeaderboardHandler(lbService service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{lbService: lbService}
}

// Top 返回积分最高的若干用户，支持 limit 查询参数。
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	rows, err := h.lbService.Top(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("LeaderboardTop: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取排行榜失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": rows})
}
