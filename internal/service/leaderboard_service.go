package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardEntry 排行榜条目
// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        uint   `json:"userId"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar,omitempty"`
	Points        int    `json:"points"`
	TotalPoints   int    `json:"totalPoints"`
	CurrentStreak int    `json:"currentStreak"`
}

// LeaderboardService 排行榜读侧。
// 榜单短时缓存在 redis；单用户名次用“严格大于该分数的用户数 + 1”现算，
// 不读可能滞后的 ranking_position 列。
type LeaderboardService struct {
	StatsRepo *repository.UserStatsRepository
	UserRepo  *repository.UserRepository
	Ranking   *RankingService
	DB        *gorm.DB
	Redis     *redis.Client // 可为空（测试或未配置缓存）

	Aggregator *StatsAggregator
	cacheTTL   time.Duration
}

func NewLeaderboardService(
	statsRepo *repository.UserStatsRepository,
	userRepo *repository.UserRepository,
	ranking *RankingService,
	aggregator *StatsAggregator,
	db *gorm.DB,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *LeaderboardService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &LeaderboardService{
		StatsRepo:  statsRepo,
		UserRepo:   userRepo,
		Ranking:    ranking,
		Aggregator: aggregator,
		DB:         db,
		Redis:      rdb,
		cacheTTL:   cacheTTL,
	}
}

// SetCacheTTL 配置热更新时调整缓存时长
func (s *LeaderboardService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

func leaderboardCacheKey(period string, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", period, limit)
}

// GetLeaderboard 按周期字段取前 limit 名
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	if _, err := repository.PeriodColumn(period); err != nil {
		return nil, util.ErrUnknownPeriod
	}

	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, leaderboardCacheKey(period, limit)).Result()
		if err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	rows, err := s.StatsRepo.ListTopByPeriod(period, limit)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}
	users, err := s.UserRepo.FindByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[uint]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		u := userByID[row.UserID]
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        row.UserID,
			Name:          u.Name,
			Avatar:        u.Avatar,
			Points:        periodScore(&row, period),
			TotalPoints:   row.TotalPoints,
			CurrentStreak: row.CurrentStreak,
		}
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			s.Redis.Set(ctx, leaderboardCacheKey(period, limit), payload, s.cacheTTL)
		}
	}

	return entries, nil
}

// GetUserPosition 单个用户的当前名次与分数
func (s *LeaderboardService) GetUserPosition(ctx context.Context, userID uint, period string) (*LeaderboardEntry, error) {
	if _, err := repository.PeriodColumn(period); err != nil {
		return nil, util.ErrUnknownPeriod
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	score := 0
	totalPoints := 0
	streak := 0
	stats, err := s.StatsRepo.FindByUserID(userID)
	if err == nil {
		score = periodScore(stats, period)
		totalPoints = stats.TotalPoints
		streak = stats.CurrentStreak
	}

	greater, err := s.StatsRepo.CountWithGreaterScore(period, score)
	if err != nil {
		return nil, err
	}

	return &LeaderboardEntry{
		Rank:          int(greater) + 1,
		UserID:        userID,
		Name:          user.Name,
		Avatar:        user.Avatar,
		Points:        score,
		TotalPoints:   totalPoints,
		CurrentStreak: streak,
	}, nil
}

// InitializeLeaderboard 为全部已有用户回填统计并做一次全量排名。
// 逐用户在各自事务里重算，可以随时重跑，也可以与在线加分并行。
func (s *LeaderboardService) InitializeLeaderboard(ctx context.Context, period string) error {
	if _, err := repository.PeriodColumn(period); err != nil {
		return util.ErrUnknownPeriod
	}

	ids, err := s.UserRepo.ListIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.Aggregator.WithTx(tx).Recompute(id)
			return err
		})
		if err != nil {
			logger.Log.Error("leaderboard backfill failed for user",
				zap.Uint("user_id", id), zap.Error(err))
			return err
		}
	}

	return s.Ranking.Recompute(period)
}

// InvalidateCache 删除该周期的榜单缓存，排名重算完成后由回调触发
func (s *LeaderboardService) InvalidateCache(period string) {
	if s.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	iter := s.Redis.Scan(ctx, 0, fmt.Sprintf("leaderboard:%s:*", period), 100).Iterator()
	for iter.Next(ctx) {
		s.Redis.Del(ctx, iter.Val())
	}
}

func periodScore(stats *model.UserStats, period string) int {
	switch period {
	case "monthlyPoints":
		return stats.MonthlyPoints
	case "quarterlyPoints":
		return stats.QuarterlyPoints
	default:
		return stats.TotalPoints
	}
}
