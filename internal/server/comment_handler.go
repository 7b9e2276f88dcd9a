package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/model"
)

type createCommentRequest struct {
	EntityType  string     `json:"entity_type" binding:"required,oneof=task project"`
	EntityID    uuid.UUID  `json:"entity_id" binding:"required"`
	Content     string     `json:"content" binding:"required"`
	ContentHTML string     `json:"content_html"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

func (s *Server) handleCreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	workspaceID, projectID, ok := s.commentTarget(c, req.EntityType, req.EntityID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if req.ParentID != nil {
		parent, err := s.db.Comments().FindByID(ctx, *req.ParentID)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return
		}
		if parent == nil || parent.EntityID != req.EntityID {
			respondError(c, s.log, apperr.NotFound("comment"))
			return
		}
	}

	actor := authctx.MustUser(ctx)
	comment := &model.Comment{
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Content:     req.Content,
		ContentHTML: req.ContentHTML,
		AuthorID:    actor.ID,
		ParentID:    req.ParentID,
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
	}
	if err := s.db.Comments().Create(ctx, comment); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	s.recordActivity(c, &model.Activity{
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Action:      "commented",
		ActorID:     actor.ID,
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
	})
	respondCreated(c, comment)
}

func (s *Server) handleListComments(c *gin.Context) {
	entityType := c.Query("entity_type")
	if entityType != "task" && entityType != "project" {
		respondError(c, s.log, apperr.InvalidInput("entity_type must be task or project"))
		return
	}
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid entity id"))
		return
	}

	if _, _, ok := s.commentTarget(c, entityType, entityID); !ok {
		return
	}

	comments, err := s.db.Comments().ListByEntity(c.Request.Context(), entityType, entityID)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, comments)
}

type updateCommentRequest struct {
	Content     string `json:"content" binding:"required"`
	ContentHTML string `json:"content_html"`
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	comment, ok := s.commentForWrite(c)
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	comment.Content = req.Content
	comment.ContentHTML = req.ContentHTML
	if err := s.db.Comments().Update(c.Request.Context(), comment); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, comment)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	comment, ok := s.commentForWrite(c)
	if !ok {
		return
	}

	if err := s.db.Comments().Delete(c.Request.Context(), comment.ID); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondNoContent(c)
}

func (s *Server) handleEntityActivity(c *gin.Context) {
	entityType := c.Query("entity_type")
	if entityType != "task" && entityType != "project" {
		respondError(c, s.log, apperr.InvalidInput("entity_type must be task or project"))
		return
	}
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid entity id"))
		return
	}

	if _, _, ok := s.commentTarget(c, entityType, entityID); !ok {
		return
	}

	limit := intQuery(c, "limit", 50, 200)
	activities, err := s.db.Activities().ListByEntity(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, activities)
}

// --- Helpers ---

// commentTarget resolves a task or project entity, checks the caller's
// membership in its workspace, and returns the workspace and project ids
// for denormalized storage.
func (s *Server) commentTarget(c *gin.Context, entityType string, entityID uuid.UUID) (uuid.UUID, *uuid.UUID, bool) {
	ctx := c.Request.Context()

	var workspaceID uuid.UUID
	var projectID *uuid.UUID
	switch entityType {
	case "task":
		task, err := s.db.Tasks().FindByID(ctx, entityID)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return uuid.Nil, nil, false
		}
		if task == nil {
			respondError(c, s.log, apperr.NotFound("task"))
			return uuid.Nil, nil, false
		}
		project, err := s.db.Projects().FindByID(ctx, task.ProjectID)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return uuid.Nil, nil, false
		}
		if project == nil {
			respondError(c, s.log, apperr.NotFound("project"))
			return uuid.Nil, nil, false
		}
		workspaceID = project.WorkspaceID
		projectID = &project.ID
	case "project":
		project, err := s.db.Projects().FindByID(ctx, entityID)
		if err != nil {
			respondError(c, s.log, apperr.Database(err))
			return uuid.Nil, nil, false
		}
		if project == nil {
			respondError(c, s.log, apperr.NotFound("project"))
			return uuid.Nil, nil, false
		}
		workspaceID = project.WorkspaceID
		projectID = &project.ID
	}

	if _, ok := s.requireMembership(c, ctx, workspaceID); !ok {
		return uuid.Nil, nil, false
	}
	return workspaceID, projectID, true
}

// commentForWrite resolves the :id comment and checks the caller is its
// author or a workspace admin.
func (s *Server) commentForWrite(c *gin.Context) (*model.Comment, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid comment id"))
		return nil, false
	}

	ctx := c.Request.Context()
	comment, err := s.db.Comments().FindByID(ctx, id)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return nil, false
	}
	if comment == nil {
		respondError(c, s.log, apperr.NotFound("comment"))
		return nil, false
	}

	member, ok := s.requireMembership(c, ctx, comment.WorkspaceID)
	if !ok {
		return nil, false
	}

	actor := authctx.MustUser(ctx)
	if comment.AuthorID != actor.ID && !roleAtLeast(member.Role, model.RoleAdmin) {
		respondError(c, s.log, apperr.Forbidden("Only the author can modify this comment."))
		return nil, false
	}
	return comment, true
}
