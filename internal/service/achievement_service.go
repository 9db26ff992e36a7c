package service

import (
	"fmt"
	"strings"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AchievementService 负责成就目录和解锁判定。
// EvaluateAndUnlock 每次外部加分调用只跑一遍（单趟判定）：
// 奖励积分可能让用户满足下一个成就的条件，这种级联解锁留给下一次加分事件，
// 避免在同一事务里反复触发判定。
type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	EventRepo       *repository.PointEventRepository
	SkillRepo       *repository.SkillRepository

	now func() time.Time
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	eventRepo *repository.PointEventRepository,
	skillRepo *repository.SkillRepository,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		EventRepo:       eventRepo,
		SkillRepo:       skillRepo,
		now:             time.Now,
	}
}

func (s *AchievementService) WithTx(tx *gorm.DB) *AchievementService {
	return &AchievementService{
		AchievementRepo: s.AchievementRepo.WithTx(tx),
		EventRepo:       s.EventRepo.WithTx(tx),
		SkillRepo:       s.SkillRepo.WithTx(tx),
		now:             s.now,
	}
}

// EvaluateAndUnlock 对照当前统计检查全部启用中的成就，返回本次新解锁的成就。
// 已解锁的成就跳过（幂等，绝不重复解锁）；解锁时写入解锁记录，
// 并为带奖励的成就追加一条 achievement_bonus 流水。
func (s *AchievementService) EvaluateAndUnlock(userID uint, stats *model.UserStats) ([]model.Achievement, error) {
	achievements, err := s.AchievementRepo.ListActive()
	if err != nil {
		return nil, err
	}

	var unlocked []model.Achievement
	for i := range achievements {
		a := achievements[i]

		done, err := s.AchievementRepo.HasUnlocked(userID, a.ID)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}

		qualified, err := s.qualifies(userID, &a, stats)
		if err != nil {
			return nil, err
		}
		if !qualified {
			continue
		}

		now := s.now().UTC()
		if err := s.AchievementRepo.CreateUnlock(userID, a.ID, now); err != nil {
			return nil, err
		}

		if a.PointsReward > 0 {
			achievementID := a.ID
			bonus := &model.PointEvent{
				UserID:       userID,
				PointsType:   model.PointsAchievementBonus,
				PointsEarned: a.PointsReward,
				SourceID:     &achievementID,
				SourceType:   "achievement",
				Description:  fmt.Sprintf("Achievement unlocked: %s", a.Name),
			}
			if err := s.EventRepo.Append(bonus); err != nil {
				return nil, err
			}
		}

		monitoring.AchievementsUnlocked.WithLabelValues(string(a.AchievementType)).Inc()
		unlocked = append(unlocked, a)
	}

	return unlocked, nil
}

// qualifies 按成就类型判定是否达标。未知类型按配置错误处理：
// 记告警后判为不达标，不中断整个加分事务。
func (s *AchievementService) qualifies(userID uint, a *model.Achievement, stats *model.UserStats) (bool, error) {
	switch a.AchievementType {
	case model.AchievementPointsMilestone:
		return stats.TotalPoints >= a.CriteriaValue, nil

	case model.AchievementStreak:
		return stats.CurrentStreak >= a.CriteriaValue, nil

	case model.AchievementRanking:
		return stats.RankingPosition != nil && *stats.RankingPosition <= a.CriteriaValue, nil

	case model.AchievementCourseCount:
		return stats.CoursesCompleted >= a.CriteriaValue, nil

	case model.AchievementProjectCount:
		return stats.ProjectsCompleted >= a.CriteriaValue, nil

	case model.AchievementCompletionLegacy:
		// 旧数据按名称区分课程/项目，新目录应使用显式类型
		name := strings.ToLower(a.Name)
		switch {
		case strings.Contains(name, "course"):
			return stats.CoursesCompleted >= a.CriteriaValue, nil
		case strings.Contains(name, "project"):
			return stats.ProjectsCompleted >= a.CriteriaValue, nil
		default:
			logger.Log.Warn("legacy completion achievement with ambiguous name, skipping",
				zap.Uint("achievement_id", a.ID),
				zap.String("name", a.Name))
			return false, nil
		}

	case model.AchievementSkillCount:
		count, err := s.SkillRepo.CountByUser(userID)
		if err != nil {
			return false, err
		}
		return int(count) >= a.CriteriaValue, nil

	case model.AchievementVerifiedSkills:
		count, err := s.SkillRepo.CountVerified(userID)
		if err != nil {
			return false, err
		}
		return int(count) >= a.CriteriaValue, nil

	case model.AchievementSkillMastery:
		count, err := s.SkillRepo.CountMastered(userID)
		if err != nil {
			return false, err
		}
		return int(count) >= a.CriteriaValue, nil

	default:
		logger.Log.Warn("unknown achievement type, skipping",
			zap.Uint("achievement_id", a.ID),
			zap.String("type", string(a.AchievementType)))
		return false, nil
	}
}

func (s *AchievementService) GetUserAchievements(userID uint) ([]model.Achievement, error) {
	return s.AchievementRepo.FindUnlockedByUser(userID)
}

func (s *AchievementService) ListCatalog() ([]model.Achievement, error) {
	return s.AchievementRepo.ListAll()
}

type AchievementRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	AchievementType string `json:"achievementType" binding:"required"`
	CriteriaValue   int    `json:"criteriaValue" binding:"required"`
	PointsReward    int    `json:"pointsReward"`
	Icon            string `json:"icon"`
}

func (s *AchievementService) CreateAchievement(req AchievementRequest) (*model.Achievement, error) {
	achievement := &model.Achievement{
		Name:            req.Name,
		Description:     req.Description,
		AchievementType: model.AchievementType(req.AchievementType),
		CriteriaValue:   req.CriteriaValue,
		PointsReward:    req.PointsReward,
		Icon:            req.Icon,
		IsActive:        true,
	}
	if err := s.AchievementRepo.Create(achievement); err != nil {
		return nil, err
	}
	return achievement, nil
}

func (s *AchievementService) SetAchievementActive(id uint, active bool) error {
	return s.AchievementRepo.SetActive(id, active)
}
