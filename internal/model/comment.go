package model

import "github.com/google/uuid"

// Comment is attached to a task or project, with optional threading.
type Comment struct {
	Base
	EntityType  string     `gorm:"size:50;not null" json:"entity_type"`
	EntityID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"entity_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	ContentHTML string     `gorm:"type:text" json:"content_html,omitempty"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	ParentID    *uuid.UUID `gorm:"type:uuid" json:"parent_id,omitempty"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null" json:"workspace_id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// Activity records a change to an entity for activity feeds.
type Activity struct {
	Base
	EntityType  string     `gorm:"size:50;not null" json:"entity_type"`
	EntityID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"entity_id"`
	Action      string     `gorm:"size:50;not null" json:"action"`
	ActorID     uuid.UUID  `gorm:"type:uuid;not null" json:"actor_id"`
	Field       string     `gorm:"size:100" json:"field,omitempty"`
	OldValue    string     `gorm:"type:text" json:"old_value,omitempty"`
	NewValue    string     `gorm:"type:text" json:"new_value,omitempty"`
	ProjectID   *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null" json:"workspace_id"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
