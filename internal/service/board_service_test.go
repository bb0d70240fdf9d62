package service

import (
	"context"
	"testing"

	"alumniverse/internal/model"
	"alumniverse/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubBoardRepo 是 BoardRepository 的内存实现。
type stubBoardRepo struct {
	posts    map[uint]*model.Post
	jobs     map[uint]*model.Job
	startups map[uint]*model.Startup
	nextID   uint
}

func newStubBoardRepo() *stubBoardRepo {
	return &stubBoardRepo{
		posts:    make(map[uint]*model.Post),
		jobs:     make(map[uint]*model.Job),
		startups: make(map[uint]*model.Startup),
		nextID:   1,
	}
}

func (r *stubBoardRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *stubBoardRepo) CreatePost(post *model.Post) error {
	post.ID = r.id()
	r.posts[post.ID] = post
	return nil
}

func (r *stubBoardRepo) ListPosts(offset, limit int) ([]model.Post, error) {
	var out []model.Post
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubBoardRepo) FindPostByID(postID uint) (*model.Post, error) {
	if p, ok := r.posts[postID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBoardRepo) DeletePost(postID uint) error {
	delete(r.posts, postID)
	return nil
}

func (r *stubBoardRepo) CreateJob(job *model.Job) error {
	job.ID = r.id()
	r.jobs[job.ID] = job
	return nil
}

func (r *stubBoardRepo) ListJobs(offset, limit int) ([]model.Job, error) {
	var out []model.Job
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (r *stubBoardRepo) FindJobByID(jobID uint) (*model.Job, error) {
	if j, ok := r.jobs[jobID]; ok {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBoardRepo) DeleteJob(jobID uint) error {
	delete(r.jobs, jobID)
	return nil
}

func (r *stubBoardRepo) CreateStartup(startup *model.Startup) error {
	startup.ID = r.id()
	r.startups[startup.ID] = startup
	return nil
}

func (r *stubBoardRepo) ListStartups(offset, limit int) ([]model.Startup, error) {
	var out []model.Startup
	for _, s := range r.startups {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubBoardRepo) FindStartupByID(startupID uint) (*model.Startup, error) {
	if s, ok := r.startups[startupID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBoardRepo) DeleteStartup(startupID uint) error {
	delete(r.startups, startupID)
	return nil
}

func TestBoardService_CreateAwardsPoints(t *testing.T) {
	repo := newStubBoardRepo()
	pub := &recordingPublisher{}
	svc := NewBoardService(repo, pub)

	_, err := svc.CreatePost(context.Background(), 1, "hello world")
	require.NoError(t, err)
	_, err = svc.CreateJob(context.Background(), 2, model.Job{Title: "SRE", Company: "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateStartup(context.Background(), 3, model.Startup{Name: "Rocket", Pitch: "to the moon"})
	require.NoError(t, err)

	require.Len(t, pub.events, 3)
	byAction := map[string]tasks.ActivityPointsEvent{}
	for _, e := range pub.events {
		byAction[e.Action] = e
	}
	assert.Equal(t, pointsPostCreated, byAction[tasks.ActionPostCreated].Points)
	assert.Equal(t, pointsJobPosted, byAction[tasks.ActionJobPosted].Points)
	assert.Equal(t, pointsStartupShared, byAction[tasks.ActionStartupShared].Points)
}

func TestBoardService_DeleteOwnership(t *testing.T) {
	repo := newStubBoardRepo()
	svc := NewBoardService(repo, &recordingPublisher{})

	post, err := svc.CreatePost(context.Background(), 1, "mine")
	require.NoError(t, err)

	t.Run("non-owner rejected", func(t *testing.T) {
		err := svc.DeletePost(context.Background(), post.ID, 2)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, svc.DeletePost(context.Background(), post.ID, 1))
		_, err := repo.FindPostByID(post.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("unknown post", func(t *testing.T) {
		err := svc.DeletePost(context.Background(), 404, 1)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPaginate(t *testing.T) {
	offset, limit := paginate(1, 20)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, limit)

	offset, limit = paginate(3, 10)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)

	// 非法值回退到默认值，超大 pageSize 被截断
	offset, limit = paginate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, defaultPageSize, limit)

	_, limit = paginate(1, 10000)
	assert.Equal(t, maxPageSize, limit)
}
