package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
)

func (s *Server) handleListUsers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.db.Users().ListActive(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOKWithMeta(c, users, &Meta{Offset: offset, Limit: limit})
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput("invalid user id"))
		return
	}

	user, err := s.db.Users().FindByID(c.Request.Context(), id.String())
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if user == nil {
		respondError(c, s.log, apperr.NotFound("user"))
		return
	}
	respondOK(c, user)
}
