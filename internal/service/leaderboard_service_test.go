package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/repository"
	"alumniverse/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLeaderboardRepo 用内存 map 模拟 Redis 有序集合。
type stubLeaderboardRepo struct {
	scores   map[uint]int
	rebuilds int
}

func newStubLeaderboardRepo() *stubLeaderboardRepo {
	return &stubLeaderboardRepo{scores: make(map[uint]int)}
}

func (r *stubLeaderboardRepo) IncrementScore(ctx context.Context, userID uint, delta int) error {
	r.scores[userID] += delta
	return nil
}

func (r *stubLeaderboardRepo) TopUserIDs(ctx context.Context, limit int) ([]repository.LeaderboardEntry, error) {
	entries := make([]repository.LeaderboardEntry, 0, len(r.scores))
	for id, points := range r.scores {
		entries = append(entries, repository.LeaderboardEntry{UserID: id, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *stubLeaderboardRepo) Rebuild(ctx context.Context, users []model.User) error {
	r.rebuilds++
	r.scores = make(map[uint]int)
	for _, u := range users {
		r.scores[u.ID] = u.Points
	}
	return nil
}

func (r *stubLeaderboardRepo) Size(ctx context.Context) (int64, error) {
	return int64(len(r.scores)), nil
}

func TestLeaderboardService_Process(t *testing.T) {
	userRepo := newStubUserRepo(&model.User{ID: 1, Name: "Alice"})
	lbRepo := newStubLeaderboardRepo()
	svc := NewLeaderboardService(userRepo, lbRepo)

	event := tasks.ActivityPointsEvent{UserID: 1, Action: tasks.ActionPostCreated, Points: 5, OccurredAt: time.Now()}
	require.NoError(t, svc.Process(context.Background(), event))
	require.NoError(t, svc.Process(context.Background(), event))

	// 积分同时累加到事实来源和排行榜缓存
	user, err := userRepo.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, 10, user.Points)
	assert.Equal(t, 10, lbRepo.scores[1])
}

func TestLeaderboardService_ProcessZeroPoints(t *testing.T) {
	userRepo := newStubUserRepo(&model.User{ID: 1})
	lbRepo := newStubLeaderboardRepo()
	svc := NewLeaderboardService(userRepo, lbRepo)

	require.NoError(t, svc.Process(context.Background(), tasks.ActivityPointsEvent{UserID: 1, Points: 0}))
	assert.Empty(t, lbRepo.scores)
}

func TestLeaderboardService_Top(t *testing.T) {
	userRepo := newStubUserRepo(
		&model.User{ID: 1, Name: "Alice", Role: model.RoleStudent},
		&model.User{ID: 2, Name: "Bob", Role: model.RoleAlumni},
		&model.User{ID: 3, Name: "Eve", Role: model.RoleStudent},
	)
	lbRepo := newStubLeaderboardRepo()
	lbRepo.scores = map[uint]int{1: 30, 2: 50, 3: 10}
	svc := NewLeaderboardService(userRepo, lbRepo)

	rows, err := svc.Top(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "Bob", rows[0].User.Name)
	assert.Equal(t, 50, rows[0].Points)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "Alice", rows[1].User.Name)
}

func TestLeaderboardService_TopSkipsDeletedUsers(t *testing.T) {
	userRepo := newStubUserRepo(&model.User{ID: 1, Name: "Alice"})
	lbRepo := newStubLeaderboardRepo()
	lbRepo.scores = map[uint]int{1: 10, 99: 100}
	svc := NewLeaderboardService(userRepo, lbRepo)

	rows, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].User.Name)
	assert.Equal(t, 1, rows[0].Rank)
}

func TestLeaderboardService_RebuildIfEmpty(t *testing.T) {
	userRepo := newStubUserRepo(
		&model.User{ID: 1, Points: 25},
		&model.User{ID: 2, Points: 40},
	)
	lbRepo := newStubLeaderboardRepo()
	svc := NewLeaderboardService(userRepo, lbRepo)

	require.NoError(t, svc.RebuildIfEmpty(context.Background()))
	assert.Equal(t, 1, lbRepo.rebuilds)
	assert.Equal(t, 25, lbRepo.scores[1])
	assert.Equal(t, 40, lbRepo.scores[2])

	// 再次调用时排行榜非空，不重建
	require.NoError(t, svc.RebuildIfEmpty(context.Background()))
	assert.Equal(t, 1, lbRepo.rebuilds)
}
