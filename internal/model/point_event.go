package model

import (
	"time"
)

// PointsType 积分事件类别
type PointsType string

const (
	PointsCourseCompletion PointsType = "course_completion"
	PointsProjectMilestone PointsType = "project_milestone"
	PointsBadgeAward       PointsType = "badge_award"
	PointsSkillAdded       PointsType = "skill_added"
	PointsSkillVerified    PointsType = "skill_verified"
	PointsSkillImproved    PointsType = "skill_improved"
	PointsManualAward      PointsType = "manual_award"
	PointsAchievementBonus PointsType = "achievement_bonus"
)

// PointEvent 积分流水，只追加不修改（审计依据）
// swagger:model PointEvent
type PointEvent struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint       `gorm:"index:idx_point_events_user;not null" json:"userId"`
	PointsType   PointsType `gorm:"size:50;index;not null" json:"pointsType"`
	PointsEarned int        `gorm:"not null" json:"pointsEarned"` // 可为负（扣分）
	SourceID     *uint      `gorm:"index:idx_point_events_source" json:"sourceId,omitempty"`
	SourceType   string     `gorm:"size:50;index:idx_point_events_source" json:"sourceType,omitempty"`
	Description  string     `gorm:"size:255" json:"description"`
	CreatedAt    time.Time  `gorm:"index:idx_point_events_user" json:"createdAt"`
}

func (PointEvent) TableName() string {
	return "point_events"
}
