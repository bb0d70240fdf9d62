package service

import (
	"context"
	"fmt"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/repository"
	"alumniverse/pkg/log"
	"alumniverse/pkg/tasks"
)

// 各类板块内容发布可获得的积分。
const (
	pointsPostCreated   = 5
	pointsJobPosted     = 10
	pointsStartupShared = 15
)

// 分页默认值与上限。
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BoardService 接口定义了动态、职位与创业项目三个板块的业务逻辑。
type BoardService interface {
	CreatePost(ctx context.Context, authorID uint, content string) (*model.Post, error)
	ListPosts(ctx context.Context, page, pageSize int) ([]model.Post, error)
	DeletePost(ctx context.Context, postID, userID uint) error

	CreateJob(ctx context.Context, postedByID uint, job model.Job) (*model.Job, error)
	ListJobs(ctx context.Context, page, pageSize int) ([]model.Job, error)
	DeleteJob(ctx context.Context, jobID, userID uint) error

	CreateStartup(ctx context.Context, founderID uint, startup model.Startup) (*model.Startup, error)
	ListStartups(ctx context.Context, page, pageSize int) ([]model.Startup, error)
	DeleteStartup(ctx context.Context, startupID, userID uint) error
}

type boardService struct {
	boardRepo repository.BoardRepository
	publisher PointsPublisher
}

// NewBoardService 创建一个新的 BoardService 实例。
func NewBoardService(boardRepo repository.BoardRepository, publisher PointsPublisher) BoardService {
	return &boardService{boardRepo: boardRepo, publisher: publisher}
}

// CreatePost 发布一条动态并投递积分事件。
func (s *boardService) CreatePost(ctx context.Context, authorID uint, content string) (*model.Post, error) {
	post := &model.Post{AuthorID: authorID, Content: content}
	if err := s.boardRepo.CreatePost(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.publishPoints(ctx, authorID, tasks.ActionPostCreated, pointsPostCreated)
	return post, nil
}

func (s *boardService) ListPosts(ctx context.Context, page, pageSize int) ([]model.Post, error) {
	offset, limit := paginate(page, pageSize)
	return s.boardRepo.ListPosts(offset, limit)
}

// DeletePost 删除一条动态，只有作者本人可以删除。
func (s *boardService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.boardRepo.FindPostByID(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotOwner
	}
	return s.boardRepo.DeletePost(postID)
}

// CreateJob 发布一条职位信息并投递积分事件。
func (s *boardService) CreateJob(ctx context.Context, postedByID uint, job model.Job) (*model.Job, error) {
	job.ID = 0
	job.PostedByID = postedByID
	if err := s.boardRepo.CreateJob(&job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	s.publishPoints(ctx, postedByID, tasks.ActionJobPosted, pointsJobPosted)
	return &job, nil
}

func (s *boardService) ListJobs(ctx context.Context, page, pageSize int) ([]model.Job, error) {
	offset, limit := paginate(page, pageSize)
	return s.boardRepo.ListJobs(offset, limit)
}

func (s *boardService) DeleteJob(ctx context.Context, jobID, userID uint) error {
	job, err := s.boardRepo.FindJobByID(jobID)
	if err != nil {
		return err
	}
	if job.PostedByID != userID {
		return ErrNotOwner
	}
	return s.boardRepo.DeleteJob(jobID)
}

// CreateStartup 发布一个创业项目并投递积分事件。
func (s *boardService) CreateStartup(ctx context.Context, founderID uint, startup model.Startup) (*model.Startup, error) {
	startup.ID = 0
	startup.FounderID = founderID
	if err := s.boardRepo.CreateStartup(&startup); err != nil {
		return nil, fmt.Errorf("failed to create startup: %w", err)
	}
	s.publishPoints(ctx, founderID, tasks.ActionStartupShared, pointsStartupShared)
	return &startup, nil
}

func (s *boardService) ListStartups(ctx context.Context, page, pageSize int) ([]model.Startup, error) {
	offset, limit := paginate(page, pageSize)
	return s.boardRepo.ListStartups(offset, limit)
}

func (s *boardService) DeleteStartup(ctx context.Context, startupID, userID uint) error {
	startup, err := s.boardRepo.FindStartupByID(startupID)
	if err != nil {
		return err
	}
	if startup.FounderID != userID {
		return ErrNotOwner
	}
	return s.boardRepo.DeleteStartup(startupID)
}

func (s *boardService) publishPoints(ctx context.Context, userID uint, action string, points int) {
	event := tasks.ActivityPointsEvent{
		UserID:     userID,
		Action:     action,
		Points:     points,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Errorf("投递积分事件失败: userID=%d, action=%s, error: %v", userID, action, err)
	}
}

// paginate 将 1 起始的页码转换为 offset/limit，并施加分页上限。
func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (page - 1) * pageSize, pageSize
}
