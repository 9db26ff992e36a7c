package repository

import (
	"errors"
	"time"

	"skillforge_backend/internal/model"

	"gorm.io/gorm"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) ListActive() ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Where("is_active = ?", true).Order("id ASC").Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) ListAll() ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Order("id ASC").Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) Create(achievement *model.Achievement) error {
	return r.DB.Create(achievement).Error
}

func (r *AchievementRepository) SetActive(id uint, active bool) error {
	result := r.DB.Model(&model.Achievement{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasUnlocked 判断用户是否已解锁该成就
func (r *AchievementRepository) HasUnlocked(userID, achievementID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error
	return count > 0, err
}

// CreateUnlock 写入解锁记录，唯一索引冲突视为已解锁
func (r *AchievementRepository) CreateUnlock(userID, achievementID uint, unlockedAt time.Time) error {
	unlock := model.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    unlockedAt,
	}
	err := r.DB.Create(&unlock).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// FindUnlockedByUser 用户已解锁的成就列表
func (r *AchievementRepository) FindUnlockedByUser(userID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Joins("JOIN user_achievements ON user_achievements.achievement_id = achievements.id").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.unlocked_at DESC").
		Find(&achievements).Error
	return achievements, err
}
