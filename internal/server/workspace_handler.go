package server

import (
	"context"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

// slugRe matches URL-safe lowercase slugs.
var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type createWorkspaceRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"required,max=255,slug"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"omitempty,max=50"`
	Color       string `json:"color" binding:"omitempty,len=7"`
}

func (s *Server) handleCreateWorkspace(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	taken, err := s.db.Workspaces().SlugTaken(ctx, req.Slug)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if taken {
		respondError(c, s.log, apperr.AlreadyExists("workspace"))
		return
	}

	user := authctx.MustUser(ctx)
	ws := &model.Workspace{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		OwnerID:     user.ID,
	}
	if err := s.db.Workspaces().Create(ctx, ws); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	s.log.Info("workspace created", logger.Fields(
		"workspace_id", ws.ID.String(),
		logger.FieldUserID, user.ID.String(),
	))
	respondCreated(c, ws)
}

func (s *Server) handleListWorkspaces(c *gin.Context) {
	user := authctx.MustUser(c.Request.Context())
	workspaces, err := s.db.Workspaces().ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, workspaces)
}

func (s *Server) handleGetWorkspace(c *gin.Context) {
	ws, _, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	respondOK(c, ws)
}

type updateWorkspaceRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Color       *string `json:"color" binding:"omitempty,len=7"`
}

func (s *Server) handleUpdateWorkspace(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req updateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	if req.Name != nil && *req.Name != "" {
		ws.Name = *req.Name
	}
	if req.Description != nil {
		ws.Description = *req.Description
	}
	if req.Icon != nil {
		ws.Icon = *req.Icon
	}
	if req.Color != nil {
		ws.Color = *req.Color
	}

	if err := s.db.Workspaces().Update(c.Request.Context(), ws); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, ws)
}

func (s *Server) handleDeleteWorkspace(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if member.Role != model.RoleOwner {
		respondError(c, s.log, apperr.Forbidden("Only the owner can delete a workspace."))
		return
	}

	if err := s.db.Workspaces().Delete(c.Request.Context(), ws.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

// --- Members ---

func (s *Server) handleListMembers(c *gin.Context) {
	ws, _, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	members, err := s.db.Workspaces().ListMembers(c.Request.Context(), ws.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, members)
}

type addMemberRequest struct {
	UserID uuid.UUID        `json:"user_id" binding:"required"`
	Role   model.MemberRole `json:"role" binding:"required"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if !req.Role.Valid() || req.Role == model.RoleOwner {
		respondError(c, s.log, apperr.InvalidInput("invalid role"))
		return
	}

	ctx := c.Request.Context()
	target, err := s.db.Users().FindByID(ctx, req.UserID.String())
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if target == nil {
		respondError(c, s.log, apperr.NotFound("user"))
		return
	}

	existing, err := s.db.Workspaces().FindMember(ctx, ws.ID, req.UserID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if existing != nil {
		respondError(c, s.log, apperr.AlreadyExists("member"))
		return
	}

	actor := authctx.MustUser(ctx)
	newMember := &model.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      req.UserID,
		Role:        req.Role,
		InvitedByID: &actor.ID,
	}
	if err := s.db.Workspaces().AddMember(ctx, newMember); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondCreated(c, newMember)
}

type updateMemberRequest struct {
	Role model.MemberRole `json:"role" binding:"required"`
}

func (s *Server) handleUpdateMember(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	if !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid user id"))
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}
	if !req.Role.Valid() || req.Role == model.RoleOwner {
		respondError(c, s.log, apperr.InvalidInput("invalid role"))
		return
	}

	ctx := c.Request.Context()
	target, err := s.db.Workspaces().FindMember(ctx, ws.ID, targetID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if target == nil {
		respondError(c, s.log, apperr.NotFound("member"))
		return
	}
	if target.Role == model.RoleOwner {
		respondError(c, s.log, apperr.Conflict("The owner's role cannot be changed."))
		return
	}

	target.Role = req.Role
	if err := s.db.Workspaces().UpdateMember(ctx, target); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, target)
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	ws, member, ok := s.workspaceForRead(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid user id"))
		return
	}

	// Members may remove themselves; removing others takes admin.
	actor := authctx.MustUser(c.Request.Context())
	if targetID != actor.ID && !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden(""))
		return
	}

	ctx := c.Request.Context()
	target, err := s.db.Workspaces().FindMember(ctx, ws.ID, targetID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if target == nil {
		respondError(c, s.log, apperr.NotFound("member"))
		return
	}
	if target.Role == model.RoleOwner {
		respondError(c, s.log, apperr.Conflict("The owner cannot be removed."))
		return
	}

	if err := s.db.Workspaces().RemoveMember(ctx, ws.ID, targetID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

func (s *Server) handleWorkspaceActivity(c *gin.Context) {
	ws, _, ok := s.workspaceForRead(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50, 200)
	activities, err := s.db.Activities().ListByWorkspace(c.Request.Context(), ws.ID, limit)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, activities)
}

// --- Helpers ---

// workspaceForRead resolves the :id workspace and checks the caller is a
// member. On failure it writes the error response and returns ok=false.
func (s *Server) workspaceForRead(c *gin.Context) (*model.Workspace, *model.WorkspaceMember, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid workspace id"))
		return nil, nil, false
	}

	ctx := c.Request.Context()
	ws, err := s.db.Workspaces().FindByID(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, nil, false
	}
	if ws == nil {
		respondError(c, s.log, apperr.NotFound("workspace"))
		return nil, nil, false
	}

	member, ok := s.requireMembership(c, ctx, ws.ID)
	if !ok {
		return nil, nil, false
	}
	return ws, member, true
}

// requireMembership checks the caller belongs to the workspace.
func (s *Server) requireMembership(c *gin.Context, ctx context.Context, workspaceID uuid.UUID) (*model.WorkspaceMember, bool) {
	user := authctx.MustUser(ctx)
	member, err := s.db.Workspaces().FindMember(ctx, workspaceID, user.ID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, false
	}
	if member == nil {
		respondError(c, s.log, apperr.Forbidden("You are not a member of this workspace."))
		return nil, false
	}
	return member, true
}

// roleAtLeast reports whether role grants at least the privileges of min.
func roleAtLeast(role, min model.MemberRole) bool {
	rank := map[model.MemberRole]int{
		model.RoleViewer: 0,
		model.RoleMember: 1,
		model.RoleAdmin:  2,
		model.RoleOwner:  3,
	}
	return rank[role] >= rank[min]
}

// intQuery parses a bounded positive integer query parameter.
func intQuery(c *gin.Context, name string, def, max int) int {
	n, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
