package service

import (
	"context"
	"errors"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// 允许外部调用方使用的事件类别；achievement_bonus 由引擎内部追加
var awardableTypes = map[model.PointsType]bool{
	model.PointsCourseCompletion: true,
	model.PointsProjectMilestone: true,
	model.PointsBadgeAward:       true,
	model.PointsSkillAdded:       true,
	model.PointsSkillVerified:    true,
	model.PointsSkillImproved:    true,
	model.PointsManualAward:      true,
}

type AwardRequest struct {
	UserID      uint
	PointsType  model.PointsType
	Points      int
	SourceID    *uint
	SourceType  string
	Description string
}

type AwardResult struct {
	PointsAwarded   int                 `json:"pointsAwarded"`
	AlreadyRecorded bool                `json:"alreadyRecorded"` // 同一来源重复提交时为真
	Stats           *model.UserStats    `json:"stats"`
	NewAchievements []model.Achievement `json:"newAchievements,omitempty"`
}

// PointsService 是加分流程的协调者：一次事务内完成
// 流水追加 → 统计重算 → 成就判定（含奖励流水与统计回填），
// 提交后向排名服务投递重排信号。任一步失败整个事务回滚，
// 不会出现写了流水但统计陈旧的中间状态。
type PointsService struct {
	DB          *gorm.DB
	EventRepo   *repository.PointEventRepository
	Aggregator  *StatsAggregator
	Achievement *AchievementService
	Ranking     *RankingService

	rankingField string
}

func NewPointsService(
	db *gorm.DB,
	eventRepo *repository.PointEventRepository,
	aggregator *StatsAggregator,
	achievement *AchievementService,
	ranking *RankingService,
	rankingField string,
) *PointsService {
	if rankingField == "" {
		rankingField = "totalPoints"
	}
	return &PointsService{
		DB:           db,
		EventRepo:    eventRepo,
		Aggregator:   aggregator,
		Achievement:  achievement,
		Ranking:      ranking,
		rankingField: rankingField,
	}
}

// AwardPoints 记录一次积分事件并联动全部派生状态。
func (s *PointsService) AwardPoints(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	if req.UserID == 0 {
		return nil, util.ErrUserNotFound
	}
	if req.Points == 0 || req.Points > util.MaxPointsPerEvent || req.Points < -util.MaxPointsPerEvent {
		return nil, util.ErrInvalidPoints
	}
	if req.PointsType == model.PointsAchievementBonus {
		return nil, util.ErrReservedType
	}
	if !awardableTypes[req.PointsType] {
		return nil, util.ErrUnknownPointsType
	}

	ctx, span := tracing.Tracer.Start(ctx, "points.award")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(req.UserID)),
		attribute.String("points.type", string(req.PointsType)),
		attribute.Int("points.amount", req.Points),
	)

	result := &AwardResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eventRepo := s.EventRepo.WithTx(tx)
		aggregator := s.Aggregator.WithTx(tx)
		achievement := s.Achievement.WithTx(tx)

		// 稳定来源标识的重复提交直接跳过（调用方重试安全）
		if req.SourceID != nil && req.SourceType != "" {
			exists, err := eventRepo.ExistsBySource(req.UserID, req.SourceType, *req.SourceID)
			if err != nil {
				return err
			}
			if exists {
				result.AlreadyRecorded = true
				stats, err := aggregator.StatsRepo.FindByUserID(req.UserID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil
					}
					return err
				}
				result.Stats = stats
				return nil
			}
		}

		event := &model.PointEvent{
			UserID:       req.UserID,
			PointsType:   req.PointsType,
			PointsEarned: req.Points,
			SourceID:     req.SourceID,
			SourceType:   req.SourceType,
			Description:  req.Description,
		}
		if err := eventRepo.Append(event); err != nil {
			return err
		}

		stats, err := aggregator.Recompute(req.UserID)
		if err != nil {
			return err
		}

		unlocked, err := achievement.EvaluateAndUnlock(req.UserID, stats)
		if err != nil {
			return err
		}

		// 奖励流水要并入总分，但不再触发第二轮成就判定
		if len(unlocked) > 0 {
			stats, err = aggregator.Recompute(req.UserID)
			if err != nil {
				return err
			}
		}

		result.PointsAwarded = req.Points
		result.Stats = stats
		result.NewAchievements = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyRecorded {
		// Counter 不接受负增量，扣分按绝对值记到单独的指标
		if req.Points > 0 {
			monitoring.PointsAwarded.WithLabelValues(string(req.PointsType)).Add(float64(req.Points))
		} else {
			monitoring.PointsDeducted.WithLabelValues(string(req.PointsType)).Add(float64(-req.Points))
		}
		s.Ranking.MarkDirty(s.rankingField)
	}

	return result, nil
}

// GetRecentEvents 用户最近的积分流水，新的在前
func (s *PointsService) GetRecentEvents(userID uint, limit int) ([]model.PointEvent, error) {
	return s.EventRepo.ListRecent(userID, limit)
}

// GetUserStats 用户当前统计，还没有任何积分事件时返回 ErrStatsNotFound
func (s *PointsService) GetUserStats(userID uint) (*model.UserStats, error) {
	stats, err := s.Aggregator.StatsRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStatsNotFound
		}
		return nil, err
	}
	return stats, nil
}

// setClock 测试用的时钟注入口
func (s *PointsService) setClock(now func() time.Time) {
	s.Aggregator.now = now
	s.Achievement.now = now
}
