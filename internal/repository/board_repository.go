package repository

import (
	"alumniverse/internal/model"

	"gorm.io/gorm"
)

// BoardRepository 接口定义了帖子、职位与创业项目三个信息板块的持久化操作。
// 三个板块的操作形态完全一致，集中在一个仓库里避免三份样板代码。
type BoardRepository interface {
	CreatePost(post *model.Post) error
	ListPosts(offset, limit int) ([]model.Post, error)
	FindPostByID(postID uint) (*model.Post, error)
	DeletePost(postID uint) error

	CreateJob(job *model.Job) error
	ListJobs(offset, limit int) ([]model.Job, error)
	FindJobByID(jobID uint) (*model.Job, error)
	DeleteJob(jobID uint) error

	CreateStartup(startup *model.Startup) error
	ListStartups(offset, limit int) ([]model.Startup, error)
	FindStartupByID(startupID uint) (*model.Startup, error)
	DeleteStartup(startupID uint) error
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository 创建一个新的 BoardRepository 实例。
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) CreatePost(post *model.Post) error {
	return r.db.Create(post).Error
}

// ListPosts 按创建时间倒序分页返回帖子。
func (r *boardRepository) ListPosts(offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *boardRepository) FindPostByID(postID uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.First(&post, postID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *boardRepository) DeletePost(postID uint) error {
	return r.db.Delete(&model.Post{}, postID).Error
}

func (r *boardRepository) CreateJob(job *model.Job) error {
	return r.db.Create(job).Error
}

func (r *boardRepository) ListJobs(offset, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (r *boardRepository) FindJobByID(jobID uint) (*model.Job, error) {
	var job model.Job
	if err := r.db.First(&job, jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *boardRepository) DeleteJob(jobID uint) error {
	return r.db.Delete(&model.Job{}, jobID).Error
}

func (r *boardRepository) CreateStartup(startup *model.Startup) error {
	return r.db.Create(startup).Error
}

func (r *boardRepository) ListStartups(offset, limit int) ([]model.Startup, error) {
	var startups []model.Startup
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&startups).Error
	return startups, err
}

func (r *boardRepository) FindStartupByID(startupID uint) (*model.Startup, error) {
	var startup model.Startup
	if err := r.db.First(&startup, startupID).Error; err != nil {
		return nil, err
	}
	return &startup, nil
}

func (r *boardRepository) DeleteStartup(startupID uint) error {
	return r.db.Delete(&model.Startup{}, startupID).Error
}
