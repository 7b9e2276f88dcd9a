package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// TaskFilter narrows task listings. Nil fields are ignored.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	StateID    *uuid.UUID
	AssigneeID *uuid.UUID
	Priority   *model.TaskPriority
	Offset     int
	Limit      int
}

// TaskStore persists tasks and cycles.
type TaskStore struct {
	db *gorm.DB
}

// Create inserts a task, assigning its per-project number from the
// project counter and placing it at the end of its state column.
func (s *TaskStore) Create(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.Where("id = ?", task.ProjectID).First(&project).Error; err != nil {
			return err
		}

		project.TaskCount++
		task.Number = project.TaskCount
		if err := tx.Model(&model.Project{}).
			Where("id = ?", project.ID).
			Update("task_count", project.TaskCount).Error; err != nil {
			return err
		}

		if task.SortOrder == 0 {
			var maxOrder int
			row := tx.Model(&model.Task{}).
				Where("project_id = ?", task.ProjectID)
			if task.StateID != nil {
				row = row.Where("state_id = ?", *task.StateID)
			}
			if err := row.Select("COALESCE(MAX(sort_order), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			task.SortOrder = maxOrder + 1
		}

		return tx.Create(task).Error
	})
}

// List returns tasks matching the filter, ordered by state column
// position.
func (s *TaskStore) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := s.db.WithContext(ctx).Model(&model.Task{}).Preload("Labels")
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.StateID != nil {
		q = q.Where("state_id = ?", *filter.StateID)
	}
	if filter.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", *filter.Priority)
	}
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	var tasks []model.Task
	err := q.Order("sort_order").Find(&tasks).Error
	return tasks, err
}

// FindByID returns the task with the given id, labels preloaded, or
// (nil, nil).
func (s *TaskStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).Preload("Labels").
		Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByNumber returns a task by its per-project number, or (nil, nil).
func (s *TaskStore) FindByNumber(ctx context.Context, projectID uuid.UUID, number int) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).Preload("Labels").
		Where("project_id = ? AND number = ?", projectID, number).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update persists changed fields of a task.
func (s *TaskStore) Update(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

// Delete removes a task and its label and cycle associations.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM cycle_tasks WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, "id = ?", id).Error
	})
}

// Move places a task into a state column at the given position, shifting
// the tasks at and after that position down by one.
func (s *TaskStore) Move(ctx context.Context, taskID uuid.UUID, stateID uuid.UUID, sortOrder int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Task{}).
			Where("project_id = ? AND state_id = ? AND sort_order >= ? AND id <> ?",
				task.ProjectID, stateID, sortOrder, taskID).
			Update("sort_order", gorm.Expr("sort_order + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&model.Task{}).
			Where("id = ?", taskID).
			Updates(map[string]any{
				"state_id":   stateID,
				"sort_order": sortOrder,
			}).Error
	})
}

// SetLabels replaces a task's label associations.
func (s *TaskStore) SetLabels(ctx context.Context, task *model.Task, labels []model.Label) error {
	return s.db.WithContext(ctx).Model(task).Association("Labels").Replace(labels)
}

// --- Cycles ---

// CreateCycle inserts a cycle, numbering it after the project's latest.
func (s *TaskStore) CreateCycle(ctx context.Context, cycle *model.Cycle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Model(&model.Cycle{}).
			Where("project_id = ?", cycle.ProjectID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		cycle.Number = maxNumber + 1
		return tx.Create(cycle).Error
	})
}

// ListCycles returns a project's cycles, newest first.
func (s *TaskStore) ListCycles(ctx context.Context, projectID uuid.UUID) ([]model.Cycle, error) {
	var cycles []model.Cycle
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("number DESC").
		Find(&cycles).Error
	return cycles, err
}

// FindCycle returns a cycle by id, or (nil, nil).
func (s *TaskStore) FindCycle(ctx context.Context, id uuid.UUID) (*model.Cycle, error) {
	var cycle model.Cycle
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// UpdateCycle persists a changed cycle.
func (s *TaskStore) UpdateCycle(ctx context.Context, cycle *model.Cycle) error {
	return s.db.WithContext(ctx).Save(cycle).Error
}

// DeleteCycle removes a cycle and its task associations.
func (s *TaskStore) DeleteCycle(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM cycle_tasks WHERE cycle_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Cycle{}, "id = ?", id).Error
	})
}

// AddToCycle associates a task with a cycle. Adding twice is a no-op.
func (s *TaskStore) AddToCycle(ctx context.Context, cycle *model.Cycle, task *model.Task) error {
	return s.db.WithContext(ctx).Model(cycle).Association("Tasks").Append(task)
}

// RemoveFromCycle removes a task from a cycle.
func (s *TaskStore) RemoveFromCycle(ctx context.Context, cycle *model.Cycle, task *model.Task) error {
	return s.db.WithContext(ctx).Model(cycle).Association("Tasks").Delete(task)
}

// ListCycleTasks returns the tasks in a cycle.
func (s *TaskStore) ListCycleTasks(ctx context.Context, cycle *model.Cycle) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).Model(cycle).Association("Tasks").Find(&tasks)
	return tasks, err
}
