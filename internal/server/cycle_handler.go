package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/model"
)

type createCycleRequest struct {
	Name        string    `json:"name" binding:"required,max=255"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

func (s *Server) handleCreateCycle(c *gin.Context) {
	project, member, ok := s.projectForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req createCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if !req.EndDate.After(req.StartDate) {
		respondError(c, s.log, apperr.InvalidInput("end_date must be after start_date"))
		return
	}

	cycle := &model.Cycle{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ProjectID:   project.ID,
	}
	if err := s.db.Tasks().CreateCycle(c.Request.Context(), cycle); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondCreated(c, cycle)
}

func (s *Server) handleListCycles(c *gin.Context) {
	project, _, ok := s.projectForRead(c)
	if !ok {
		return
	}
	cycles, err := s.db.Tasks().ListCycles(c.Request.Context(), project.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, cycles)
}

func (s *Server) handleGetCycle(c *gin.Context) {
	cycle, _, _, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	respondOK(c, cycle)
}

type updateCycleRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
}

func (s *Server) handleUpdateCycle(c *gin.Context) {
	cycle, _, member, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Name != nil && *req.Name != "" {
		cycle.Name = *req.Name
	}
	if req.Description != nil {
		cycle.Description = *req.Description
	}
	if req.StartDate != nil {
		cycle.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		cycle.EndDate = *req.EndDate
	}
	if !cycle.EndDate.After(cycle.StartDate) {
		respondError(c, s.log, apperr.InvalidInput("end_date must be after start_date"))
		return
	}
	if req.IsActive != nil {
		cycle.IsActive = *req.IsActive
	}

	if err := s.db.Tasks().UpdateCycle(c.Request.Context(), cycle); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, cycle)
}

func (s *Server) handleDeleteCycle(c *gin.Context) {
	cycle, _, member, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	if err := s.db.Tasks().DeleteCycle(c.Request.Context(), cycle.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

func (s *Server) handleListCycleTasks(c *gin.Context) {
	cycle, _, _, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	tasks, err := s.db.Tasks().ListCycleTasks(c.Request.Context(), cycle)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, tasks)
}

func (s *Server) handleAddTaskToCycle(c *gin.Context) {
	cycle, project, member, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	task, ok := s.cycleTaskParam(c, project.ID)
	if !ok {
		return
	}

	if err := s.db.Tasks().AddToCycle(c.Request.Context(), cycle, task); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

func (s *Server) handleRemoveTaskFromCycle(c *gin.Context) {
	cycle, project, member, ok := s.cycleForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	task, ok := s.cycleTaskParam(c, project.ID)
	if !ok {
		return
	}

	if err := s.db.Tasks().RemoveFromCycle(c.Request.Context(), cycle, task); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

// --- Helpers ---

// cycleForRead resolves the :id cycle, its project, and the caller's
// membership.
func (s *Server) cycleForRead(c *gin.Context) (*model.Cycle, *model.Project, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid cycle id"))
		return nil, nil, nil, false
	}

	ctx := c.Request.Context()
	cycle, err := s.db.Tasks().FindCycle(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, nil, false
	}
	if cycle == nil {
		respondError(c, s.log, apperr.NotFound("cycle"))
		return nil, nil, nil, false
	}

	project, err := s.db.Projects().FindByID(ctx, cycle.ProjectID)
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
	return cycle, project, member, true
}

// cycleTaskParam resolves the :taskID task and checks it belongs to the
// cycle's project.
func (s *Server) cycleTaskParam(c *gin.Context, projectID uuid.UUID) (*model.Task, bool) {
	id, err := uuid.Parse(c.Param("taskID"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid task id"))
		return nil, false
	}

	task, err := s.db.Tasks().FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, false
	}
	if task == nil || task.ProjectID != projectID {
		respondError(c, s.log, apperr.NotFound("task"))
		return nil, false
	}
	return task, true
}
