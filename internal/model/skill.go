package model

import (
	"time"
)

// UserSkill 用户技能，Level 取值 1-5，5 为精通
// swagger:model UserSkill
type UserSkill struct {
	BaseModel
	UserID     uint       `gorm:"index:idx_user_skills_user;not null" json:"userId"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	Category   string     `gorm:"size:50" json:"category"`
	Level      int        `gorm:"default:1" json:"level"`
	IsVerified bool       `gorm:"default:false;index" json:"isVerified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

func (UserSkill) TableName() string {
	return "user_skills"
}
