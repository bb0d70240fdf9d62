package repository

import (
	"context"
	"fmt"
	"strconv"

	"alumniverse/internal/model"

	"github.com/go-redis/redis/v8"
)

// 排行榜在 Redis 中使用的 sorted set 键。
const leaderboardKey = "leaderboard:points"

// LeaderboardRepository 定义了基于 Redis 有序集合的积分排行榜操作。
// MySQL 中的 users.points 是积分的持久化事实来源，
// Redis 只是排行榜查询的缓存，可随时从 MySQL 重建。
type LeaderboardRepository interface {
	IncrementScore(ctx context.Context, userID uint, delta int) error
	// TopUserIDs 返回积分最高的若干用户 ID 及其积分，按积分降序。
	TopUserIDs(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	// Rebuild 用给定的用户集合整体重建有序集合。
	Rebuild(ctx context.Context, users []model.User) error
	// Size 返回有序集合中的成员数量。
	Size(ctx context.Context) (int64, error)
}

// LeaderboardEntry 是排行榜中的一项。
type LeaderboardEntry struct {
	UserID uint
	Points int
}

type redisLeaderboardRepository struct {
	redisClient *redis.Client
}

// NewLeaderboardRepository 创建一个新的 LeaderboardRepository 实例。
func NewLeaderboardRepository(redisClient *redis.Client) LeaderboardRepository {
	return &redisLeaderboardRepository{redisClient: redisClient}
}

// IncrementScore 累加用户在排行榜中的积分。
func (r *redisLeaderboardRepository) IncrementScore(ctx context.Context, userID uint, delta int) error {
	member := strconv.FormatUint(uint64(userID), 10)
	if err := r.redisClient.ZIncrBy(ctx, leaderboardKey, float64(delta), member).Err(); err != nil {
		return fmt.Errorf("failed to increment leaderboard score: %w", err)
	}
	return nil
}

// TopUserIDs 返回积分最高的若干用户。
func (r *redisLeaderboardRepository) TopUserIDs(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	zs, err := r.redisClient.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, parseErr := strconv.ParseUint(member, 10, 64)
		if parseErr != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: uint(id), Points: int(z.Score)})
	}
	return entries, nil
}

// Rebuild 删除旧的有序集合并批量写入全部用户积分。
func (r *redisLeaderboardRepository) Rebuild(ctx context.Context, users []model.User) error {
	pipe := r.redisClient.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	for _, u := range users {
		pipe.ZAdd(ctx, leaderboardKey, &redis.Z{
			Score:  float64(u.Points),
			Member: strconv.FormatUint(uint64(u.ID), 10),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	return nil
}

// Size 返回有序集合中的成员数量。
func (r *redisLeaderboardRepository) Size(ctx context.Context) (int64, error) {
	return r.redisClient.ZCard(ctx, leaderboardKey).Result()
}
