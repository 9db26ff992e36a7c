package model

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// CourseEnrollment 课程报名/进度记录
// swagger:model CourseEnrollment
type CourseEnrollment struct {
	BaseModel
	UserID      uint             `gorm:"index:idx_enrollments_user;not null" json:"userId"`
	CourseID    uint             `gorm:"index;not null" json:"courseId"`
	Status      EnrollmentStatus `gorm:"size:20;default:'active';index:idx_enrollments_user" json:"status"`
	Progress    int              `gorm:"default:0" json:"progress"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
