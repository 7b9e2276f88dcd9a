package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/auth/password"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/model"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required,max=255"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	users := s.db.Users()

	existing, err := users.FindByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	if existing != nil {
		respondError(c, s.log, apperr.AlreadyExists("user"))
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	user := &model.User{
		Email:          req.Email,
		HashedPassword: hash,
		FullName:       req.FullName,
		IsActive:       true,
	}
	if err := users.Create(ctx, user); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	s.log.Info("user registered", logger.Fields(logger.FieldUserID, user.ID.String()))
	respondCreated(c, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	ctx := c.Request.Context()
	user, err := s.db.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}

	// SSO-provisioned accounts have no password and cannot log in here.
	if user == nil || user.HashedPassword == "" {
		respondError(c, s.log, apperr.Unauthenticated())
		return
	}
	if err := s.hasher.Verify(req.Password, user.HashedPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			respondError(c, s.log, apperr.Unauthenticated())
			return
		}
		respondError(c, s.log, apperr.Internal(err))
		return
	}
	if !user.IsActive {
		respondError(c, s.log, apperr.Forbidden("Your account has been deactivated."))
		return
	}

	tokens := s.verifier.Tokens()
	token, err := tokens.Issue(user.ID.String())
	if err != nil {
		respondError(c, s.log, apperr.Internal(err))
		return
	}

	respondOK(c, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(tokens.TTL().Seconds()),
	})
}

func (s *Server) handleMe(c *gin.Context) {
	respondOK(c, authctx.MustUser(c.Request.Context()))
}

type updateMeRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, apperr.InvalidInput(err.Error()))
		return
	}

	user := authctx.MustUser(c.Request.Context())
	if req.FullName != nil && *req.FullName != "" {
		user.FullName = *req.FullName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.db.Users().Update(c.Request.Context(), user); err != nil {
		respondError(c, s.log, apperr.Database(err))
		return
	}
	respondOK(c, user)
}
