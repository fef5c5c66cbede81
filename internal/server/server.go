package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"flowtask/internal/board"
	"flowtask/internal/models"
)

// BoardService is the board and task core the handlers delegate to.
type BoardService interface {
	CreateBoard(ctx context.Context, actorID, name string) (models.Board, error)
	GetBoard(ctx context.Context, actorID, boardID string) (models.Board, error)
	RenameBoard(ctx context.Context, actorID, boardID, name string) (models.Board, error)
	ListActiveBoards(ctx context.Context, actorID string) ([]models.Board, error)
	ListTrashedBoards(ctx context.Context, actorID string) ([]models.Board, error)
	SoftDeleteBoard(ctx context.Context, actorID, boardID string) (models.Board, error)
	RestoreBoard(ctx context.Context, actorID, boardID string) (models.Board, error)
	PurgeBoard(ctx context.Context, actorID, boardID string) error

	CreateTask(ctx context.Context, actorID, boardID string, in board.TaskInput) (models.Task, error)
	GetTask(ctx context.Context, actorID, taskID string) (models.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID string, patch board.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, actorID, taskID string) error
	ListTasks(ctx context.Context, actorID string, boardID *string) ([]models.Task, error)

	Summary(ctx context.Context, actorID string) (board.Summary, error)
	SeedWelcomeBoard(ctx context.Context, userID string) (models.Board, error)
}

// UserService registers and authenticates users.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	IssueToken(userID string) (string, error)
	Authenticate(ctx context.Context, token string) (models.User, error)
	UpdateProfilePicture(ctx context.Context, userID, picture string) (models.User, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP layer. A zero RateLimit disables limiting of the auth endpoints.
type Options struct {
	StaticDir string
	RateLimit rate.Limit
	Burst     int
}

// Server provides HTTP handlers for the FlowTask backend.
type Server struct {
	engine    *gin.Engine
	boards    BoardService
	users     UserService
	db        Pinger
	logger    *slog.Logger
	staticDir string
	limiter   *ipLimiter
}

// New constructs the HTTP server with routes and middleware configured.
func New(boards BoardService, users UserService, db Pinger, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Inf
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		boards:    boards,
		users:     users,
		db:        db,
		logger:    logger,
		staticDir: opts.StaticDir,
		limiter:   newIPLimiter(opts.RateLimit, opts.Burst),
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		public := api.Group("/auth", s.rateLimit)
		{
			public.POST("/register", s.handleRegister)
			public.POST("/login", s.handleLogin)
		}

		private := api.Group("", s.requireUser)
		{
			private.GET("/auth/me", s.handleMe)
			private.PUT("/auth/profile-picture", s.handleProfilePicture)

			boards := private.Group("/boards")
			{
				boards.GET("", s.handleListBoards)
				boards.POST("", s.handleCreateBoard)
				boards.GET("/trash", s.handleListTrash)
				boards.GET("/:id", s.handleGetBoard)
				boards.PUT("/:id", s.handleRenameBoard)
				boards.DELETE("/:id", s.handleSoftDeleteBoard)
				boards.PUT("/:id/restore", s.handleRestoreBoard)
				boards.DELETE("/:id/permanent", s.handlePurgeBoard)
			}

			tasks := private.Group("/tasks")
			{
				tasks.GET("", s.handleListTasks)
				tasks.POST("", s.handleCreateTask)
				tasks.GET("/:id", s.handleGetTask)
				tasks.PUT("/:id", s.handleUpdateTask)
				tasks.DELETE("/:id", s.handleDeleteTask)
			}

			private.GET("/reports/summary", s.handleSummary)
		}
	}

	s.mountStatic()
}

// handleHealth reports readiness, including a database round trip.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// respondSuccess writes the payload, or only the status when there is none.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
