package model

import (
	"time"
)

// AchievementType 解锁规则类别
type AchievementType string

const (
	AchievementPointsMilestone  AchievementType = "points_milestone"
	AchievementStreak           AchievementType = "streak"
	AchievementRanking          AchievementType = "ranking"
	AchievementCourseCount      AchievementType = "course_completion_count"
	AchievementProjectCount     AchievementType = "project_completion_count"
	AchievementCompletionLegacy AchievementType = "completion" // 旧类型，按名称区分课程/项目
	AchievementSkillCount       AchievementType = "skill_count"
	AchievementVerifiedSkills   AchievementType = "verified_skills"
	AchievementSkillMastery     AchievementType = "skill_mastery"
)

// Achievement 成就定义（管理员维护）
// swagger:model Achievement
type Achievement struct {
	BaseModel
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"size:255" json:"description"`
	AchievementType AchievementType `gorm:"size:50;not null" json:"achievementType"`
	CriteriaValue   int             `gorm:"not null" json:"criteriaValue"`
	PointsReward    int             `gorm:"default:0" json:"pointsReward"`
	Icon            string          `gorm:"size:255" json:"icon"`
	// 不能带 default 标签：gorm 插入时会省略零值字段，false 会被数据库默认值覆盖
	IsActive bool `gorm:"index" json:"isActive"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement 解锁记录，(user_id, achievement_id) 唯一
// swagger:model UserAchievement
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"userId"`
	AchievementID uint      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
