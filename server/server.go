package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leiwu2020/salesagents/auth"
	"github.com/leiwu2020/salesagents/config"
	"github.com/leiwu2020/salesagents/engine"
	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/store"
)

// Server is the HTTP front of the sales assistant.
type Server struct {
	config *config.Config
	engine *engine.Engine
	store  store.SalesStore
}

// NewServer creates a new HTTP server over the given engine and store.
func NewServer(cfg *config.Config, eng *engine.Engine, salesStore store.SalesStore) *Server {
	return &Server{
		config: cfg,
		engine: eng,
		store:  salesStore,
	}
}

// Router builds the gin engine with all routes and middleware registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/admin/approve/:username", s.handleApprove)

	protected := api.Group("")
	protected.Use(auth.Middleware([]byte(s.config.Auth.JWTSecret), s.store))
	protected.GET("/me", s.handleMe)
	protected.POST("/chat", s.handleChat)
	protected.POST("/knowledge", s.handleKnowledge)
	protected.GET("/customers", s.handleCustomers)

	router.GET("/dashboard",
		auth.Middleware([]byte(s.config.Auth.JWTSecret), s.store),
		s.handleDashboard)

	return router
}

// Run starts the HTTP server and blocks
func (s *Server) Run() error {
	address := s.config.GetAddress()
	log.Log.Infof("starting HTTP server on %s", address)
	return s.Router().Run(address)
}

// requestID attaches a unique ID to every request for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per request with status and duration
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Log.Infof("%s %s | status=%d | duration=%s | request_id=%s",
			c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.GetString("request_id"))
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
