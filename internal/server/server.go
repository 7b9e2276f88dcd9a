// Package server exposes the HTTP API: routing, middleware, and handlers.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/alanahq/alana-server/internal/auth"
	"github.com/alanahq/alana-server/internal/auth/password"
	"github.com/alanahq/alana-server/internal/config"
	"github.com/alanahq/alana-server/internal/logger"
	"github.com/alanahq/alana-server/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	cfg      config.Config
	db       *store.DB
	verifier *auth.CredentialVerifier
	hasher   password.Hasher
	log      *logger.Logger
	http     *http.Server
	engine   *gin.Engine
}

// New builds the server with its routes and middleware registered.
func New(cfg config.Config, db *store.DB, verifier *auth.CredentialVerifier, log *logger.Logger) (*Server, error) {
	hasher := password.NewHasher(cfg.Auth.Password)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidations()
	engine := gin.New()

	s := &Server{
		cfg:      cfg,
		db:       db,
		verifier: verifier,
		hasher:   hasher,
		log:      log.WithComponent("server"),
		engine:   engine,
	}
	s.registerRoutes()

	readTimeout, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s, nil
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run starts the listener and blocks until it stops.
func (s *Server) Run() error {
	s.log.Info("listening", logger.Fields("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.engine.Use(
		requestID(),
		requestLogger(s.log),
		gin.Recovery(),
		cors(s.cfg.Server.CORSAllowedOrigins),
	)

	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")

	// Public endpoints.
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	// Everything else requires a verified credential.
	authed := api.Group("", authenticate(s.verifier, s.log))
	authed.GET("/auth/me", s.handleMe)

	authed.GET("/users", s.handleListUsers)
	authed.GET("/users/:id", s.handleGetUser)
	authed.PATCH("/users/me", requireActive(s.log), s.handleUpdateMe)

	active := authed.Group("", requireActive(s.log))

	active.POST("/workspaces", s.handleCreateWorkspace)
	authed.GET("/workspaces", s.handleListWorkspaces)
	authed.GET("/workspaces/:id", s.handleGetWorkspace)
	active.PATCH("/workspaces/:id", s.handleUpdateWorkspace)
	active.DELETE("/workspaces/:id", s.handleDeleteWorkspace)

	authed.GET("/workspaces/:id/members", s.handleListMembers)
	active.POST("/workspaces/:id/members", s.handleAddMember)
	active.PATCH("/workspaces/:id/members/:userID", s.handleUpdateMember)
	active.DELETE("/workspaces/:id/members/:userID", s.handleRemoveMember)

	authed.GET("/workspaces/:id/activity", s.handleWorkspaceActivity)
	authed.GET("/workspaces/:id/labels", s.handleListLabels)
	active.POST("/workspaces/:id/labels", s.handleCreateLabel)
	active.PATCH("/labels/:id", s.handleUpdateLabel)
	active.DELETE("/labels/:id", s.handleDeleteLabel)

	active.POST("/workspaces/:id/projects", s.handleCreateProject)
	authed.GET("/workspaces/:id/projects", s.handleListProjects)
	authed.GET("/projects/:id", s.handleGetProject)
	active.PATCH("/projects/:id", s.handleUpdateProject)
	active.DELETE("/projects/:id", s.handleDeleteProject)

	authed.GET("/projects/:id/states", s.handleListStates)
	active.POST("/projects/:id/states", s.handleCreateState)
	active.PATCH("/states/:id", s.handleUpdateState)
	active.DELETE("/states/:id", s.handleDeleteState)

	active.POST("/projects/:id/tasks", s.handleCreateTask)
	authed.GET("/projects/:id/tasks", s.handleListTasks)
	authed.GET("/tasks/:id", s.handleGetTask)
	active.PATCH("/tasks/:id", s.handleUpdateTask)
	active.DELETE("/tasks/:id", s.handleDeleteTask)
	active.POST("/tasks/:id/move", s.handleMoveTask)
	active.PUT("/tasks/:id/labels", s.handleSetTaskLabels)

	active.POST("/projects/:id/cycles", s.handleCreateCycle)
	authed.GET("/projects/:id/cycles", s.handleListCycles)
	authed.GET("/cycles/:id", s.handleGetCycle)
	active.PATCH("/cycles/:id", s.handleUpdateCycle)
	active.DELETE("/cycles/:id", s.handleDeleteCycle)
	authed.GET("/cycles/:id/tasks", s.handleListCycleTasks)
	active.POST("/cycles/:id/tasks/:taskID", s.handleAddTaskToCycle)
	active.DELETE("/cycles/:id/tasks/:taskID", s.handleRemoveTaskFromCycle)

	active.POST("/comments", s.handleCreateComment)
	authed.GET("/comments", s.handleListComments)
	active.PATCH("/comments/:id", s.handleUpdateComment)
	active.DELETE("/comments/:id", s.handleDeleteComment)

	authed.GET("/activity", s.handleEntityActivity)
}

// registerValidations installs custom binding rules on gin's validator.
// Registering the same rule twice is harmless, so repeated Server
// construction in tests is fine.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}
