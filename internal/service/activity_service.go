package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"

	"gorm.io/gorm"
)

// 各类活动的默认积分值
const (
	pointsForCourseCompletion = 150
	pointsForProjectComplete  = 200
	pointsForBadgeAward       = 50
	pointsForSkillAdded       = 10
	pointsForSkillVerified    = 30
	pointsForSkillImproved    = 20
)

// ActivityService 把业务动作（完成课程、验证技能等）落库并换算成积分事件。
// 引擎侧的幂等由稳定的 sourceType/sourceID 保证：同一报名/指派/技能重复提交不重复记分。
type ActivityService struct {
	DB        *gorm.DB
	SkillRepo *repository.SkillRepository
	Points    *PointsService
}

func NewActivityService(db *gorm.DB, skillRepo *repository.SkillRepository, points *PointsService) *ActivityService {
	return &ActivityService{
		DB:        db,
		SkillRepo: skillRepo,
		Points:    points,
	}
}

// CompleteCourse 报名记录置为已完成并记分
func (s *ActivityService) CompleteCourse(ctx context.Context, userID, enrollmentID uint) (*AwardResult, error) {
	var enrollment model.CourseEnrollment
	if err := s.DB.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
		return nil, err
	}

	if enrollment.Status != model.EnrollmentCompleted {
		now := time.Now().UTC()
		enrollment.Status = model.EnrollmentCompleted
		enrollment.Progress = 100
		enrollment.CompletedAt = &now
		if err := s.DB.Save(&enrollment).Error; err != nil {
			return nil, err
		}
	}

	enrollmentRef := enrollment.ID
	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsCourseCompletion,
		Points:      pointsForCourseCompletion,
		SourceID:    &enrollmentRef,
		SourceType:  "course_enrollment",
		Description: fmt.Sprintf("Completed course #%d", enrollment.CourseID),
	})
}

// CompleteProject 项目指派置为已完成并记分
func (s *ActivityService) CompleteProject(ctx context.Context, userID, assignmentID uint) (*AwardResult, error) {
	var assignment model.ProjectAssignment
	if err := s.DB.Where("id = ? AND user_id = ?", assignmentID, userID).First(&assignment).Error; err != nil {
		return nil, err
	}

	if assignment.Status != model.AssignmentCompleted {
		now := time.Now().UTC()
		assignment.Status = model.AssignmentCompleted
		assignment.CompletedAt = &now
		if err := s.DB.Save(&assignment).Error; err != nil {
			return nil, err
		}
	}

	assignmentRef := assignment.ID
	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsProjectMilestone,
		Points:      pointsForProjectComplete,
		SourceID:    &assignmentRef,
		SourceType:  "project_assignment",
		Description: fmt.Sprintf("Completed project #%d", assignment.ProjectID),
	})
}

// AwardBadge 授予徽章并记分
func (s *ActivityService) AwardBadge(ctx context.Context, userID uint, name, icon string) (*AwardResult, error) {
	badge := model.UserBadge{
		UserID:    userID,
		Name:      name,
		Icon:      icon,
		AwardedAt: time.Now().UTC(),
	}
	if err := s.DB.Create(&badge).Error; err != nil {
		return nil, err
	}

	badgeRef := badge.ID
	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsBadgeAward,
		Points:      pointsForBadgeAward,
		SourceID:    &badgeRef,
		SourceType:  "badge",
		Description: fmt.Sprintf("Badge awarded: %s", name),
	})
}

type SkillRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Level    int    `json:"level" binding:"min=0,max=5"`
}

// AddSkill 登记技能并记分
func (s *ActivityService) AddSkill(ctx context.Context, userID uint, req SkillRequest) (*AwardResult, error) {
	level := req.Level
	if level == 0 {
		level = 1
	}
	skill := model.UserSkill{
		UserID:   userID,
		Name:     req.Name,
		Category: req.Category,
		Level:    level,
	}
	if err := s.DB.Create(&skill).Error; err != nil {
		return nil, err
	}

	skillRef := skill.ID
	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsSkillAdded,
		Points:      pointsForSkillAdded,
		SourceID:    &skillRef,
		SourceType:  "skill",
		Description: fmt.Sprintf("Skill added: %s", req.Name),
	})
}

// VerifySkill 标记技能已验证并记分
func (s *ActivityService) VerifySkill(ctx context.Context, userID, skillID uint) (*AwardResult, error) {
	var skill model.UserSkill
	if err := s.DB.Where("id = ? AND user_id = ?", skillID, userID).First(&skill).Error; err != nil {
		return nil, err
	}

	if !skill.IsVerified {
		now := time.Now().UTC()
		skill.IsVerified = true
		skill.VerifiedAt = &now
		if err := s.DB.Save(&skill).Error; err != nil {
			return nil, err
		}
	}

	skillRef := skill.ID
	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsSkillVerified,
		Points:      pointsForSkillVerified,
		SourceID:    &skillRef,
		SourceType:  "skill_verification",
		Description: fmt.Sprintf("Skill verified: %s", skill.Name),
	})
}

// ImproveSkill 提升技能等级并记分（降级不记分）
func (s *ActivityService) ImproveSkill(ctx context.Context, userID, skillID uint, newLevel int) (*AwardResult, error) {
	if newLevel < 1 || newLevel > repository.MasteryLevel {
		return nil, errors.New("skill level out of range")
	}

	var skill model.UserSkill
	if err := s.DB.Where("id = ? AND user_id = ?", skillID, userID).First(&skill).Error; err != nil {
		return nil, err
	}

	if newLevel <= skill.Level {
		skill.Level = newLevel
		return nil, s.DB.Save(&skill).Error
	}

	skill.Level = newLevel
	if err := s.DB.Save(&skill).Error; err != nil {
		return nil, err
	}

	return s.Points.AwardPoints(ctx, AwardRequest{
		UserID:      userID,
		PointsType:  model.PointsSkillImproved,
		Points:      pointsForSkillImproved,
		Description: fmt.Sprintf("Skill improved to level %d: %s", newLevel, skill.Name),
	})
}
