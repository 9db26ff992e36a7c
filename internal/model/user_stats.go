package model

import (
	"time"
)

// UserStats 每个用户一行的派生统计，首次加分时懒创建
// 不变量：TotalPoints 始终等于该用户全部 PointEvent 的累加和
// swagger:model UserStats
type UserStats struct {
	BaseModel
	UserID            uint       `gorm:"uniqueIndex;not null" json:"userId"`
	TotalPoints       int        `gorm:"default:0" json:"totalPoints"`
	MonthlyPoints     int        `gorm:"default:0" json:"monthlyPoints"`
	QuarterlyPoints   int        `gorm:"default:0" json:"quarterlyPoints"`
	CurrentMonth      int        `gorm:"default:0" json:"currentMonth"`
	CurrentQuarter    int        `gorm:"default:0" json:"currentQuarter"`
	CurrentYear       int        `gorm:"default:0" json:"currentYear"`
	CoursesCompleted  int        `gorm:"default:0" json:"coursesCompleted"`
	ProjectsCompleted int        `gorm:"default:0" json:"projectsCompleted"`
	BadgesEarned      int        `gorm:"default:0" json:"badgesEarned"`
	CurrentStreak     int        `gorm:"default:0" json:"currentStreak"`
	LongestStreak     int        `gorm:"default:0" json:"longestStreak"`
	LastActivityDate  *time.Time `json:"lastActivityDate,omitempty"`
	RankingPosition   *int       `gorm:"index" json:"rankingPosition,omitempty"` // 1起始的密集名次，首次排名前为空
	LastUpdated       time.Time  `json:"lastUpdated"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
