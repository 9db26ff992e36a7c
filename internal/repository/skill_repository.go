package repository

import (
	"skillforge_backend/internal/model"

	"gorm.io/gorm"
)

// MasteryLevel 视为精通的技能等级
const MasteryLevel = 5

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) WithTx(tx *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: tx}
}

func (r *SkillRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserSkill{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *SkillRepository) CountVerified(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserSkill{}).
		Where("user_id = ? AND is_verified = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *SkillRepository) CountMastered(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserSkill{}).
		Where("user_id = ? AND level >= ?", userID, MasteryLevel).
		Count(&count).Error
	return count, err
}
