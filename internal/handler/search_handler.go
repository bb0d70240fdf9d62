package handler

import (
	"net/http"
	"strconv"
	"strings"

	"alumniverse/internal/model"
	"alumniverse/internal/service"
	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理人脉搜索的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchUsers 对用户资料做全文检索。
// 查询参数: q（必填）、role（可选 student/alumni）、page、pageSize。
func (h *SearchHandler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "查询参数 q 不能为空"})
		return
	}

	role := c.Query("role")
	if role != "" && role != model.RoleStudent && role != model.RoleAlumni {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role 必须是 student 或 alumni"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	result, err := h.searchService.SearchUsers(c.Request.Context(), query, role, page, pageSize)
	if err != nil {
		log.Errorf("SearchUsers: failed for query %q, error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}
