package repository

import (
	"skillforge_backend/internal/model"

	"gorm.io/gorm"
)

// 课程/项目/徽章三个只读计数查询，统计聚合时拉取

type CourseEnrollmentRepository struct {
	DB *gorm.DB
}

func NewCourseEnrollmentRepository(db *gorm.DB) *CourseEnrollmentRepository {
	return &CourseEnrollmentRepository{DB: db}
}

func (r *CourseEnrollmentRepository) WithTx(tx *gorm.DB) *CourseEnrollmentRepository {
	return &CourseEnrollmentRepository{DB: tx}
}

func (r *CourseEnrollmentRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND status = ?", userID, model.EnrollmentCompleted).
		Count(&count).Error
	return count, err
}

type ProjectAssignmentRepository struct {
	DB *gorm.DB
}

func NewProjectAssignmentRepository(db *gorm.DB) *ProjectAssignmentRepository {
	return &ProjectAssignmentRepository{DB: db}
}

func (r *ProjectAssignmentRepository) WithTx(tx *gorm.DB) *ProjectAssignmentRepository {
	return &ProjectAssignmentRepository{DB: tx}
}

func (r *ProjectAssignmentRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProjectAssignment{}).
		Where("user_id = ? AND status = ?", userID, model.AssignmentCompleted).
		Count(&count).Error
	return count, err
}

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) WithTx(tx *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: tx}
}

func (r *BadgeRepository) CountAwarded(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserBadge{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
