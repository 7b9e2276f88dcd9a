package model

import "github.com/google/uuid"

// Project groups tasks inside a workspace. Prefix is the short task
// identifier prefix, e.g. "ALN" for ALN-123. TaskCount is the running
// counter used to assign task numbers.
type Project struct {
	Base
	Name        string     `gorm:"size:255;not null" json:"name"`
	Slug        string     `gorm:"size:255;index;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Icon        string     `gorm:"size:50" json:"icon,omitempty"`
	Color       string     `gorm:"size:7" json:"color,omitempty"`
	Prefix      string     `gorm:"size:10;not null" json:"prefix"`
	TaskCount   int        `gorm:"default:0" json:"task_count"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null" json:"workspace_id"`
	LeadID      *uuid.UUID `gorm:"type:uuid" json:"lead_id,omitempty"`

	States []State `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tasks  []Task  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// StateGroup organizes workflow states.
type StateGroup string

const (
	GroupBacklog   StateGroup = "backlog"
	GroupUnstarted StateGroup = "unstarted"
	GroupStarted   StateGroup = "started"
	GroupCompleted StateGroup = "completed"
	GroupCancelled StateGroup = "cancelled"
)

// State is a workflow column within a project.
type State struct {
	Base
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"size:500" json:"description,omitempty"`
	Color       string     `gorm:"size:7;not null;default:#6B7280" json:"color"`
	Group       StateGroup `gorm:"size:50;not null;default:backlog" json:"group"`
	Sequence    float64    `gorm:"not null;default:65535" json:"sequence"`
	IsDefault   bool       `gorm:"default:false" json:"is_default"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null" json:"project_id"`
}

// DefaultStates returns the workflow seeded into every new project.
func DefaultStates(projectID uuid.UUID) []State {
	seed := []struct {
		name      string
		color     string
		group     StateGroup
		sequence  float64
		isDefault bool
	}{
		{"Backlog", "#6B7280", GroupBacklog, 10000, true},
		{"Todo", "#3B82F6", GroupUnstarted, 20000, false},
		{"In Progress", "#F59E0B", GroupStarted, 30000, false},
		{"In Review", "#8B5CF6", GroupStarted, 40000, false},
		{"Done", "#10B981", GroupCompleted, 50000, false},
		{"Cancelled", "#EF4444", GroupCancelled, 60000, false},
	}

	states := make([]State, 0, len(seed))
	for _, s := range seed {
		states = append(states, State{
			Name:      s.name,
			Color:     s.color,
			Group:     s.group,
			Sequence:  s.sequence,
			IsDefault: s.isDefault,
			ProjectID: projectID,
		})
	}
	return states
}
