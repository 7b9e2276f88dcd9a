package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/model"
	"github.com/alanahq/alana-server/internal/store"
)

type createTaskRequest struct {
	Title       string             `json:"title" binding:"required,max=500"`
	Description string             `json:"description"`
	StateID     *uuid.UUID         `json:"state_id"`
	Priority    model.TaskPriority `json:"priority"`
	Estimate    *int               `json:"estimate"`
	DueDate     *time.Time         `json:"due_date"`
	StartDate   *time.Time         `json:"start_date"`
	AssigneeID  *uuid.UUID         `json:"assignee_id"`
	ParentID    *uuid.UUID         `json:"parent_id"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	project, member, ok := s.projectForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if req.Priority != "" && !validPriority(req.Priority) {
		respondError(c, s.log, apperr.InvalidInput("invalid priority"))
		return
	}

	ctx := c.Request.Context()

	stateID := req.StateID
	if stateID == nil {
		// New tasks land in the project's default state.
		def, err := s.db.Projects().DefaultState(ctx, project.ID)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return
		}
		if def != nil {
			stateID = &def.ID
		}
	} else if ok := s.stateBelongsToProject(c, *stateID, project.ID); !ok {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNone
	}

	actor := authctx.MustUser(ctx)
	task := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		StateID:     stateID,
		Priority:    priority,
		Estimate:    req.Estimate,
		DueDate:     req.DueDate,
		StartDate:   req.StartDate,
		ProjectID:   project.ID,
		AssigneeID:  req.AssigneeID,
		CreatorID:   actor.ID,
		ParentID:    req.ParentID,
	}
	if err := s.db.Tasks().Create(ctx, task); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	s.recordActivity(c, &model.Activity{
		EntityType:  "task",
		EntityID:    task.ID,
		Action:      "created",
		ActorID:     actor.ID,
		WorkspaceID: project.WorkspaceID,
		ProjectID:   &project.ID,
	})
	respondCreated(c, task)
}

func (s *Server) handleListTasks(c *gin.Context) {
	project, _, ok := s.projectForRead(c)
	if !ok {
		return
	}

	filter := store.TaskFilter{
		ProjectID: &project.ID,
		Offset:    intQuery(c, "offset", 0, 1<<30),
		Limit:     intQuery(c, "limit", 100, 500),
	}
	if raw := c.Query("state_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, s.log, apperr.InvalidInput("invalid state id"))
			return
		}
		filter.StateID = &id
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, s.log, apperr.InvalidInput("invalid assignee id"))
			return
		}
		filter.AssigneeID = &id
	}
	if raw := c.Query("priority"); raw != "" {
		p := model.TaskPriority(raw)
		if !validPriority(p) {
			respondError(c, s.log, apperr.InvalidInput("invalid priority"))
			return
		}
		filter.Priority = &p
	}

	tasks, err := s.db.Tasks().List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOKWithMeta(c, tasks, &Meta{Offset: filter.Offset, Limit: filter.Limit})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, _, _, ok := s.taskForRead(c)
	if !ok {
		return
	}
	respondOK(c, task)
}

type updateTaskRequest struct {
	Title       *string             `json:"title" binding:"omitempty,max=500"`
	Description *string             `json:"description"`
	Priority    *model.TaskPriority `json:"priority"`
	Estimate    *int                `json:"estimate"`
	DueDate     *time.Time          `json:"due_date"`
	StartDate   *time.Time          `json:"start_date"`
	AssigneeID  *uuid.UUID          `json:"assignee_id"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	task, project, member, ok := s.taskForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Title != nil && *req.Title != "" {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			respondError(c, s.log, apperr.InvalidInput("invalid priority"))
			return
		}
		task.Priority = *req.Priority
	}
	if req.Estimate != nil {
		task.Estimate = req.Estimate
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}

	if err := s.db.Tasks().Update(c.Request.Context(), task); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	actor := authctx.MustUser(c.Request.Context())
	s.recordActivity(c, &model.Activity{
		EntityType:  "task",
		EntityID:    task.ID,
		Action:      "updated",
		ActorID:     actor.ID,
		WorkspaceID: project.WorkspaceID,
		ProjectID:   &project.ID,
	})
	respondOK(c, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	task, _, member, ok := s.taskForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	if err := s.db.Tasks().Delete(c.Request.Context(), task.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

type moveTaskRequest struct {
	StateID   uuid.UUID `json:"state_id" binding:"required"`
	SortOrder int       `json:"sort_order" binding:"min=0"`
}

func (s *Server) handleMoveTask(c *gin.Context) {
	task, project, member, ok := s.taskForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req moveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if ok := s.stateBelongsToProject(c, req.StateID, project.ID); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := s.db.Tasks().Move(ctx, task.ID, req.StateID, req.SortOrder); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	moved, err := s.db.Tasks().FindByID(ctx, task.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	actor := authctx.MustUser(ctx)
	activity := &model.Activity{
		EntityType:  "task",
		EntityID:    task.ID,
		Action:      "moved",
		ActorID:     actor.ID,
		Field:       "state_id",
		NewValue:    req.StateID.String(),
		WorkspaceID: project.WorkspaceID,
		ProjectID:   &project.ID,
	}
	if task.StateID != nil {
		activity.OldValue = task.StateID.String()
	}
	s.recordActivity(c, activity)
	respondOK(c, moved)
}

type setTaskLabelsRequest struct {
	LabelIDs []uuid.UUID `json:"label_ids" binding:"required"`
}

func (s *Server) handleSetTaskLabels(c *gin.Context) {
	task, project, member, ok := s.taskForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req setTaskLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	labels := make([]model.Label, 0, len(req.LabelIDs))
	for _, id := range req.LabelIDs {
		label, err := s.db.Projects().FindLabel(ctx, id)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return
		}
		if label == nil || label.WorkspaceID != project.WorkspaceID {
			respondError(c, s.log, apperr.NotFound("label"))
			return
		}
		labels = append(labels, *label)
	}

	if err := s.db.Tasks().SetLabels(ctx, task, labels); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	task.Labels = labels
	respondOK(c, task)
}

// --- Helpers ---

// taskForRead resolves the :id task, its project, and the caller's
// membership.
func (s *Server) taskForRead(c *gin.Context) (*model.Task, *model.Project, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid task id"))
		return nil, nil, nil, false
	}

	ctx := c.Request.Context()
	task, err := s.db.Tasks().FindByID(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, nil, false
	}
	if task == nil {
		respondError(c, s.log, apperr.NotFound("task"))
		return nil, nil, nil, false
	}

	project, err := s.db.Projects().FindByID(ctx, task.ProjectID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, nil, false
	}
	if project == nil {
		respondError(c, s.log, apperr.NotFound("project"))
		return nil, nil, nil, false
	}

	member, ok := s.requireMembership(c, ctx, project.WorkspaceID)
	if !ok {
		return nil, nil, nil, false
	}
	return task, project, member, true
}

// stateBelongsToProject verifies the state exists within the project.
// On failure it writes the error response and returns false.
func (s *Server) stateBelongsToProject(c *gin.Context, stateID, projectID uuid.UUID) bool {
	state, err := s.db.Projects().FindState(c.Request.Context(), stateID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return false
	}
	if state == nil || state.ProjectID != projectID {
		respondError(c, s.log, apperr.NotFound("state"))
		return false
	}
	return true
}

func validPriority(p model.TaskPriority) bool {
	switch p {
	case model.PriorityNone, model.PriorityUrgent, model.PriorityHigh,
		model.PriorityMedium, model.PriorityLow:
		return true
	}
	return false
}
