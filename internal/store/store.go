// Package store provides database access on top of GORM.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

// DB wraps a GORM database handle.
type DB struct {
	gorm *gorm.DB
	log  *logger.Logger
}

// Open connects to the database, applies pool settings, and optionally
// runs auto-migration.
func Open(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("store: access connection pool: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	db := &DB{gorm: gdb, log: log.WithComponent("store")}

	if cfg.AutoMigrate {
		if err := gdb.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
			return nil, fmt.Errorf("store: auto-migrate: %w", err)
		}
		db.log.Info("schema migrated")
	}

	return db, nil
}

// Gorm exposes the underlying handle for request-scoped queries.
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users returns the user store.
func (d *DB) Users() *UserStore { return &UserStore{db: d.gorm} }

// Workspaces returns the workspace store.
func (d *DB) Workspaces() *WorkspaceStore { return &WorkspaceStore{db: d.gorm} }

// Projects returns the project store.
func (d *DB) Projects() *ProjectStore { return &ProjectStore{db: d.gorm} }

// Tasks returns the task store.
func (d *DB) Tasks() *TaskStore { return &TaskStore{db: d.gorm} }

// Comments returns the comment store.
func (d *DB) Comments() *CommentStore { return &CommentStore{db: d.gorm} }

// Activities returns the activity store.
func (d *DB) Activities() *ActivityStore { return &ActivityStore{db: d.gorm} }
