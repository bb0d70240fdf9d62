package handler

import (
	"errors"
	"net/http"
	"strconv"

	"alumniverse/internal/model"
	"alumniverse/internal/service"
	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BoardHandler 负责处理动态、职位与创业项目三个板块的 API 请求。
type BoardHandler struct {
	boardService service.BoardService
}

// NewBoardHandler 创建一个新的 BoardHandler 实例。
func NewBoardHandler(boardService service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}

func respondDeleteError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + "不存在"})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "只有发布者本人可以删除"})
	default:
		log.Errorf("BoardDelete: failed to delete %s, error: %v", what, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
	}
}

// CreatePostRequest 定义了发布动态 API 的请求体结构。
type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreatePost 发布一条动态。
func (h *BoardHandler) CreatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：content 不能为空"})
		return
	}

	post, err := h.boardService.CreatePost(c.Request.Context(), user.ID, req.Content)
	if err != nil {
		log.Errorf("CreatePost: failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "发布动态失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "发布成功", "data": post})
}

// ListPosts 分页返回动态列表。
func (h *BoardHandler) ListPosts(c *gin.Context) {
	page, pageSize := pageParams(c)
	posts, err := h.boardService.ListPosts(c.Request.Context(), page, pageSize)
	if err != nil {
		log.Errorf("ListPosts: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取动态列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": posts})
}

// DeletePost 删除一条动态。
func (h *BoardHandler) DeletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的动态 ID"})
		return
	}
	if err := h.boardService.DeletePost(c.Request.Context(), uint(postID), user.ID); err != nil {
		respondDeleteError(c, err, "动态")
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}

// CreateJobRequest 定义了发布职位 API 的请求体结构。
type CreateJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ApplyLink   string `json:"applyLink"`
}

// CreateJob 发布一条职位信息。
func (h *BoardHandler) CreateJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	job, err := h.boardService.CreateJob(c.Request.Context(), user.ID, model.Job{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Description: req.Description,
		ApplyLink:   req.ApplyLink,
	})
	if err != nil {
		log.Errorf("CreateJob: failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "发布职位失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "发布成功", "data": job})
}

// ListJobs 分页返回职位列表。
func (h *BoardHandler) ListJobs(c *gin.Context) {
	page, pageSize := pageParams(c)
	jobs, err := h.boardService.ListJobs(c.Request.Context(), page, pageSize)
	if err != nil {
		log.Errorf("ListJobs: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取职位列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": jobs})
}

// DeleteJob 删除一条职位信息。
func (h *BoardHandler) DeleteJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的职位 ID"})
		return
	}
	if err := h.boardService.DeleteJob(c.Request.Context(), uint(jobID), user.ID); err != nil {
		respondDeleteError(c, err, "职位")
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}

// CreateStartupRequest 定义了发布创业项目 API 的请求体结构。
type CreateStartupRequest struct {
	Name    string `json:"name" binding:"required"`
	Pitch   string `json:"pitch" binding:"required"`
	Website string `json:"website"`
}

// CreateStartup 发布一个创业项目。
func (h *BoardHandler) CreateStartup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateStartupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	startup, err := h.boardService.CreateStartup(c.Request.Context(), user.ID, model.Startup{
		Name:    req.Name,
		Pitch:   req.Pitch,
		Website: req.Website,
	})
	if err != nil {
		log.Errorf("CreateStartup: failed for user %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "发布创业项目失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "发布成功", "data": startup})
}

// ListStartups 分页返回创业项目列表。
func (h *BoardHandler) ListStartups(c *gin.Context) {
	page, pageSize := pageParams(c)
	startups, err := h.boardService.ListStartups(c.Request.Context(), page, pageSize)
	if err != nil {
		log.Errorf("ListStartups: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取创业项目列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": startups})
}

// DeleteStartup 删除一个创业项目。
func (h *BoardHandler) DeleteStartup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	startupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的创业项目 ID"})
		return
	}
	if err := h.boardService.DeleteStartup(c.Request.Context(), uint(startupID), user.ID); err != nil {
		respondDeleteError(c, err, "创业项目")
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}
