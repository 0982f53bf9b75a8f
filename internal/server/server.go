package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/handlers"
	"github.com/polls-app/polls/internal/middleware"
)

type Server struct {
	cfg     config.Config
	deps    handlers.Deps
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer(cfg config.Config, deps handlers.Deps) (*http.Server, error) {
	newServer := &Server{
		cfg:     cfg,
		deps:    deps,
		handler: handlers.NewHandler(deps),
	}

	router, err := newServer.RegisterRoutes()
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info().Int("port", cfg.Port).Msg("Server configured")
	return server, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() (*gin.Engine, error) {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.RedirectTrailingSlash = true

	tmpl, err := handlers.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(middleware.Authenticate(s.deps.Tokens))

	// Health check endpoint
	r.GET("/health", s.handler.Health)

	// HTML pages
	r.GET("/", s.handler.Web.Root)
	pages := r.Group("/polls")
	{
		pages.GET("/", s.handler.Web.Index)
		pages.GET("/:id/", s.handler.Web.Detail)
		pages.GET("/:id/results/", s.handler.Web.Results)
		pages.GET("/:id/vote/", s.handler.Web.VoteForm)
		pages.POST("/:id/vote/", middleware.RequireLogin(handlers.DetailPath), s.handler.Web.Vote)
	}

	account := r.Group("/accounts")
	{
		account.GET("/login/", s.handler.Account.LoginPage)
		account.POST("/login/", s.handler.Account.Login)
		account.POST("/logout/", s.handler.Account.Logout)
		account.GET("/signup/", s.handler.Account.SignupPage)
		account.POST("/signup/", s.handler.Account.Signup)
	}

	// API routes
	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !lo.Contains(s.cfg.CORSOrigins, "*"),
		MaxAge:           12 * time.Hour,
	}))
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Question routes (public reads)
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.GET("/questions/:id/results", s.handler.Question.GetResults)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireUser())
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.POST("/questions/:id/vote", s.handler.Question.Vote)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireStaff())
		{
			admin.POST("/questions", s.handler.Admin.CreateQuestion)
			admin.POST("/questions/:id/choices", s.handler.Admin.AddChoice)
		}
	}

	return r, nil
}
