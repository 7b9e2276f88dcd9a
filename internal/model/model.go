// Package model defines the persisted entities.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains the fields shared by all entities.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate generates a UUID if not already set.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All returns every model for auto-migration, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Workspace{},
		&WorkspaceMember{},
		&Project{},
		&ProjectMember{},
		&State{},
		&Label{},
		&Task{},
		&Cycle{},
		&Comment{},
		&Activity{},
	}
}
