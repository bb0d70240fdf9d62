package service

import (
	"context"
	"fmt"

	"alumniverse/internal/repository"
	"alumniverse/pkg/log"
	"alumniverse/pkg/tasks"
)

// LeaderboardRow 是排行榜接口返回的一项。
type LeaderboardRow struct {
	Rank   int        `json:"rank"`
	User   *UserBrief `json:"user"`
	Points int        `json:"points"`
}

// LeaderboardService 维护积分排行榜。
// 它同时实现 kafka.PointsProcessor，作为积分事件的消费端：
// 事件先累加到 MySQL 的 users.points（事实来源），
// 再同步到 Redis 有序集合供排行榜查询。
type LeaderboardService interface {
	Process(ctx context.Context, event tasks.ActivityPointsEvent) error
	Top(ctx context.Context, limit int) ([]LeaderboardRow, error)
	// RebuildIfEmpty 在 Redis 排行榜为空时从 MySQL 全量重建。
	// 服务启动时调用，用于从 Redis 数据丢失中恢复。
	RebuildIfEmpty(ctx context.Context) error
}

type leaderboardService struct {
	userRepo repository.UserRepository
	lbRepo   repository.LeaderboardRepository
}

// NewLeaderboardService 创建一个新的 LeaderboardService 实例。
func NewLeaderboardService(userRepo repository.UserRepository, lbRepo repository.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{userRepo: userRepo, lbRepo: lbRepo}
}

// Process 将一个积分事件应用到 MySQL 与 Redis。
func (s *leaderboardService) Process(ctx context.Context, event tasks.ActivityPointsEvent) error {
	if event.Points == 0 {
		return nil
	}
	if err := s.userRepo.IncrementPoints(event.UserID, event.Points); err != nil {
		return fmt.Errorf("failed to apply points to user %d: %w", event.UserID, err)
	}
	if err := s.lbRepo.IncrementScore(ctx, event.UserID, event.Points); err != nil {
		// MySQL 已经累加成功，Redis 落后的部分可以通过重建恢复
		log.Errorf("同步积分到排行榜失败: userID=%d, error: %v", event.UserID, err)
	}
	return nil
}

// Top 返回积分最高的若干用户及其名次。
func (s *leaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	entries, err := s.lbRepo.TopUserIDs(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard users: %w", err)
	}
	byID := make(map[uint]*UserBrief, len(users))
	for i := range users {
		u := &users[i]
		byID[u.ID] = &UserBrief{ID: u.ID, Name: u.Name, Role: u.Role, ProfilePicture: u.ProfilePicture}
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		brief, ok := byID[e.UserID]
		if !ok {
			// Redis 中残留了已删除的用户，跳过
			continue
		}
		rows = append(rows, LeaderboardRow{
			Rank:   len(rows) + 1,
			User:   brief,
			Points: e.Points,
		})
	}
	return rows, nil
}

// RebuildIfEmpty 在排行榜为空时从 MySQL 全量重建。
func (s *leaderboardService) RebuildIfEmpty(ctx context.Context) error {
	size, err := s.lbRepo.Size(ctx)
	if err != nil {
		return err
	}
	if size > 0 {
		return nil
	}

	users, err := s.userRepo.FindAll()
	if err != nil {
		return fmt.Errorf("failed to load users for rebuild: %w", err)
	}
	if len(users) == 0 {
		return nil
	}
	if err := s.lbRepo.Rebuild(ctx, users); err != nil {
		return err
	}
	log.Infof("排行榜已从数据库重建，共 %d 个用户", len(users))
	return nil
}
