package model

import (
	"time"
)

// UserBadge 已授予的徽章
// swagger:model UserBadge
type UserBadge struct {
	BaseModel
	UserID    uint      `gorm:"index:idx_user_badges_user;not null" json:"userId"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Icon      string    `gorm:"size:255" json:"icon"`
	AwardedAt time.Time `json:"awardedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
