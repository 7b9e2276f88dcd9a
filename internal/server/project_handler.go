package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

type createProjectRequest struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Slug        string     `json:"slug" binding:"required,max=255,slug"`
	Prefix      string     `json:"prefix" binding:"required,min=1,max=10"`
	Description string     `json:"description"`
	Icon        string     `json:"icon" binding:"omitempty,max=50"`
	Color       string     `json:"color" binding:"omitempty,len=7"`
	LeadID      *uuid.UUID `json:"lead_id"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	prefix := strings.ToUpper(req.Prefix)
	taken, err := s.db.Projects().PrefixTaken(ctx, ws.ID, prefix)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if taken {
		respondError(c, s.log, apperr.AlreadyExists("project"))
		return
	}

	project := &model.Project{
		Name:        req.Name,
		Slug:        req.Slug,
		Prefix:      prefix,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		WorkspaceID: ws.ID,
		LeadID:      req.LeadID,
	}
	if err := s.db.Projects().Create(ctx, project); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	actor := authctx.MustUser(ctx)
	s.recordActivity(c, &model.Activity{
		EntityType:  "project",
		EntityID:    project.ID,
		Action:      "created",
		ActorID:     actor.ID,
		WorkspaceID: ws.ID,
		ProjectID:   &project.ID,
	})

	s.log.Info("project created", logger.Fields(
		"project_id", project.ID.String(),
		"workspace_id", ws.ID.String(),
	))
	respondCreated(c, project)
}

func (s *Server) handleListProjects(c *gin.Context) {
	ws, _, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	projects, err := s.db.Projects().ListByWorkspace(c.Request.Context(), ws.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, projects)
}

func (s *Server) handleGetProject(c *gin.Context) {
	project, _, ok := s.projectForRead(c)
	if !ok {
		return
	}
	respondOK(c, project)
}

type updateProjectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Icon        *string    `json:"icon" binding:"omitempty,max=50"`
	Color       *string    `json:"color" binding:"omitempty,len=7"`
	LeadID      *uuid.UUID `json:"lead_id"`
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	project, member, ok := s.projectForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Name != nil && *req.Name != "" {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Icon != nil {
		project.Icon = *req.Icon
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	if req.LeadID != nil {
		project.LeadID = req.LeadID
	}

	if err := s.db.Projects().Update(c.Request.Context(), project); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	project, member, ok := s.projectForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	if err := s.db.Projects().Delete(c.Request.Context(), project.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

// --- States ---

func (s *Server) handleListStates(c *gin.Context) {
	project, _, ok := s.projectForRead(c)
	if !ok {
		return
	}
	states, err := s.db.Projects().ListStates(c.Request.Context(), project.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, states)
}

type createStateRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description" binding:"omitempty,max=500"`
	Color       string           `json:"color" binding:"omitempty,len=7"`
	Group       model.StateGroup `json:"group" binding:"required"`
	Sequence    float64          `json:"sequence"`
}

func (s *Server) handleCreateState(c *gin.Context) {
	project, member, ok := s.projectForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req createStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if !validStateGroup(req.Group) {
		respondError(c, s.log, apperr.InvalidInput("invalid state group"))
		return
	}

	state := &model.State{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Group:       req.Group,
		Sequence:    req.Sequence,
		ProjectID:   project.ID,
	}
	if err := s.db.Projects().CreateState(c.Request.Context(), state); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondCreated(c, state)
}

type updateStateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Color       *string  `json:"color" binding:"omitempty,len=7"`
	Sequence    *float64 `json:"sequence"`
}

func (s *Server) handleUpdateState(c *gin.Context) {
	state, member, ok := s.stateForWrite(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Name != nil && *req.Name != "" {
		state.Name = *req.Name
	}
	if req.Description != nil {
		state.Description = *req.Description
	}
	if req.Color != nil {
		state.Color = *req.Color
	}
	if req.Sequence != nil {
		state.Sequence = *req.Sequence
	}

	if err := s.db.Projects().UpdateState(c.Request.Context(), state); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, state)
}

func (s *Server) handleDeleteState(c *gin.Context) {
	state, member, ok := s.stateForWrite(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}
	if state.IsDefault {
		respondError(c, s.log, apperr.Conflict("The default state cannot be deleted."))
		return
	}

	ctx := c.Request.Context()
	inUse, err := s.db.Projects().StateInUse(ctx, state.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if inUse {
		respondError(c, s.log, apperr.Conflict("Move tasks out of this state before deleting it."))
		return
	}

	if err := s.db.Projects().DeleteState(ctx, state.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

// --- Labels ---

func (s *Server) handleListLabels(c *gin.Context) {
	ws, _, ok := s.workspaceForRead(c)
	if !ok {
		return
	}

	var projectID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, s.log, apperr.InvalidInput("invalid project id"))
			return
		}
		projectID = &id
	}

	labels, err := s.db.Projects().ListLabels(c.Request.Context(), ws.ID, projectID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, labels)
}

type createLabelRequest struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Color       string     `json:"color" binding:"omitempty,len=7"`
	Description string     `json:"description" binding:"omitempty,max=500"`
	ProjectID   *uuid.UUID `json:"project_id"`
}

func (s *Server) handleCreateLabel(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req createLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	label := &model.Label{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
		WorkspaceID: ws.ID,
		ProjectID:   req.ProjectID,
	}
	if err := s.db.Projects().CreateLabel(c.Request.Context(), label); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondCreated(c, label)
}

type updateLabelRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=255"`
	Color       *string  `json:"color" binding:"omitempty,len=7"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	SortOrder   *float64 `json:"sort_order"`
}

func (s *Server) handleUpdateLabel(c *gin.Context) {
	label, member, ok := s.labelForWrite(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Name != nil && *req.Name != "" {
		label.Name = *req.Name
	}
	if req.Color != nil {
		label.Color = *req.Color
	}
	if req.Description != nil {
		label.Description = *req.Description
	}
	if req.SortOrder != nil {
		label.SortOrder = *req.SortOrder
	}

	if err := s.db.Projects().UpdateLabel(c.Request.Context(), label); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, label)
}

func (s *Server) handleDeleteLabel(c *gin.Context) {
	label, member, ok := s.labelForWrite(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleMember) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	if err := s.db.Projects().DeleteLabel(c.Request.Context(), label.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

// --- Helpers ---

// projectForRead resolves the :id project and checks workspace membership.
func (s *Server) projectForRead(c *gin.Context) (*model.Project, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid project id"))
		return nil, nil, false
	}

	ctx := c.Request.Context()
	project, err := s.db.Projects().FindByID(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, false
	}
	if project == nil {
		respondError(c, s.log, apperr.NotFound("project"))
		return nil, nil, false
	}

	member, ok := s.requireMembership(c, ctx, project.WorkspaceID)
	if !ok {
		return nil, nil, false
	}
	return project, member, true
}

// stateForWrite resolves the :id state and checks membership through its
// project.
func (s *Server) stateForWrite(c *gin.Context) (*model.State, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid state id"))
		return nil, nil, false
	}

	ctx := c.Request.Context()
	state, err := s.db.Projects().FindState(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, false
	}
	if state == nil {
		respondError(c, s.log, apperr.NotFound("state"))
		return nil, nil, false
	}

	project, err := s.db.Projects().FindByID(ctx, state.ProjectID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, false
	}
	if project == nil {
		respondError(c, s.log, apperr.NotFound("project"))
		return nil, nil, false
	}

	member, ok := s.requireMembership(c, ctx, project.WorkspaceID)
	if !ok {
		return nil, nil, false
	}
	return state, member, true
}

// labelForWrite resolves the :id label and checks workspace membership.
func (s *Server) labelForWrite(c *gin.Context) (*model.Label, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid label id"))
		return nil, nil, false
	}

	ctx := c.Request.Context()
	label, err := s.db.Projects().FindLabel(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, false
	}
	if label == nil {
		respondError(c, s.log, apperr.NotFound("label"))
		return nil, nil, false
	}

	member, ok := s.requireMembership(c, ctx, label.WorkspaceID)
	if !ok {
		return nil, nil, false
	}
	return label, member, true
}

// recordActivity writes a feed entry. Failures are logged, not surfaced;
// the triggering operation has already succeeded.
func (s *Server) recordActivity(c *gin.Context, activity *model.Activity) {
	if err := s.db.Activities().Record(c.Request.Context(), activity); err != nil {
		s.log.Warn("activity record failed", logger.Fields(
			logger.FieldError, err.Error(),
			"entity_type", activity.EntityType,
		))
	}
}

func validStateGroup(g model.StateGroup) bool {
	switch g {
	case model.GroupBacklog, model.GroupUnstarted, model.GroupStarted,
		model.GroupCompleted, model.GroupCancelled:
		return true
	}
	return false
}
