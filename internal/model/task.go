package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityNone   TaskPriority = "no_priority"
	PriorityUrgent TaskPriority = "urgent"
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a unit of work within a project. Number is unique per project
// and assigned from the project's TaskCount counter.
type Task struct {
	Base
	Number      int          `gorm:"not null" json:"number"`
	Title       string       `gorm:"size:500;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	StateID     *uuid.UUID   `gorm:"type:uuid" json:"state_id,omitempty"`
	Priority    TaskPriority `gorm:"size:50;not null;default:no_priority" json:"priority"`
	Estimate    *int         `json:"estimate,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	AssigneeID  *uuid.UUID   `gorm:"type:uuid" json:"assignee_id,omitempty"`
	CreatorID   uuid.UUID    `gorm:"type:uuid;not null" json:"creator_id"`
	ParentID    *uuid.UUID   `gorm:"type:uuid" json:"parent_id,omitempty"`
	SortOrder   int          `gorm:"default:0" json:"sort_order"`

	Labels []Label `gorm:"many2many:task_labels;constraint:OnDelete:CASCADE" json:"labels,omitempty"`
	Cycles []Cycle `gorm:"many2many:cycle_tasks;constraint:OnDelete:CASCADE" json:"-"`
}

// Label tags tasks. Workspace-wide when ProjectID is nil.
type Label struct {
	Base
	Name        string     `gorm:"size:255;not null" json:"name"`
	Color       string     `gorm:"size:7;not null;default:#6B7280" json:"color"`
	Description string     `gorm:"size:500" json:"description,omitempty"`
	SortOrder   float64    `gorm:"default:65535" json:"sort_order"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null" json:"workspace_id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
}

// Cycle is a time-boxed iteration over a subset of a project's tasks.
type Cycle struct {
	Base
	Name        string    `gorm:"size:255;not null" json:"name"`
	Number      int       `gorm:"not null" json:"number"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null" json:"project_id"`
	IsActive    bool      `gorm:"default:false" json:"is_active"`
	SortOrder   float64   `gorm:"default:65535" json:"sort_order"`

	Tasks []Task `gorm:"many2many:cycle_tasks;constraint:OnDelete:CASCADE" json:"-"`
}
