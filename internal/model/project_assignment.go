package model

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
)

// ProjectAssignment 项目指派记录
// swagger:model ProjectAssignment
type ProjectAssignment struct {
	BaseModel
	UserID      uint             `gorm:"index:idx_assignments_user;not null" json:"userId"`
	ProjectID   uint             `gorm:"index;not null" json:"projectId"`
	Role        string           `gorm:"size:50" json:"role"`
	Status      AssignmentStatus `gorm:"size:20;default:'assigned';index:idx_assignments_user" json:"status"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}
