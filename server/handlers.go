package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leiwu2020/salesagents/auth"
	"github.com/leiwu2020/salesagents/engine"
	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/model"
	"github.com/leiwu2020/salesagents/store"
	"github.com/sashabaranov/go-openai"
)

// RegisterRequest is the body of POST /api/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChatMessage is one caller-supplied conversation message
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
}

// KnowledgeRequest is the body of POST /api/knowledge
type KnowledgeRequest struct {
	EntityName     string `json:"entity_name" binding:"required"`
	Relation       string `json:"relation" binding:"required"`
	TargetEntity   string `json:"target_entity" binding:"required"`
	AdditionalInfo string `json:"additional_info"`
}

// handleRegister creates a new, unapproved account
func (s *Server) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	if _, err := s.store.GetUserByUsername(req.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already registered"})
		return
	} else if err != store.ErrNotFound {
		log.Log.Errorf("register: failed to check username %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Log.Errorf("register: failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if _, err := s.store.CreateUser(req.Username, hashed); err != nil {
		log.Log.Errorf("register: failed to create user %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	// Approval happens out of band; new accounts cannot log in until approved.
	log.Log.Infof("new registration for %q waiting for approval", req.Username)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Registration submitted. Waiting for approval.",
	})
}

// handleLogin exchanges form credentials for a bearer token
func (s *Server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := s.store.GetUserByUsername(username)
	if err == store.ErrNotFound || (err == nil && !auth.CheckPassword(password, user.HashedPassword)) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
		return
	}
	if err != nil {
		log.Log.Errorf("login: failed to load user %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !user.IsApproved {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account pending approval. Please contact administrator."})
		return
	}

	token, err := auth.GenerateJWT(user.Username, []byte(s.config.Auth.JWTSecret), s.config.Auth.TokenExpiry)
	if err != nil {
		log.Log.Errorf("login: failed to sign token for %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleApprove marks a registered account as approved. It is gated on the
// configured admin key rather than a bearer token, so an operator can approve
// accounts without holding one themselves.
func (s *Server) handleApprove(c *gin.Context) {
	if c.Query("admin_key") != s.config.Auth.AdminKey {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid admin key"})
		return
	}

	username := c.Param("username")
	err := s.store.ApproveUser(username)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Log.Errorf("approve: failed to approve user %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approval failed"})
		return
	}

	log.Log.Infof("user %q approved", username)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User " + username + " has been approved.",
	})
}

// handleMe returns the authenticated caller's account
func (s *Server) handleMe(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return
	}

	user, err := s.store.GetUserByUsername(identity.Username)
	if err != nil {
		log.Log.Errorf("me: failed to load user %q: %v", identity.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleChat runs the two-round completion protocol for the caller
func (s *Server) handleChat(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, message := range req.Messages {
		switch message.Role {
		case openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleSystem:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "message roles must be user, assistant or system"})
			return
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	tenant := engine.Tenant{ID: identity.UserID, DisplayName: identity.Username}
	reply, err := s.engine.Chat(c.Request.Context(), tenant, messages)
	if err != nil {
		log.Log.Errorf("chat failed for user %d: %v", identity.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "I'm sorry, I encountered an internal error. Please try again later.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// handleKnowledge writes a fact directly, bypassing the LLM
func (s *Server) handleKnowledge(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return
	}

	var req KnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_name, relation and target_entity are required"})
		return
	}

	id, err := s.store.AddKnowledgeFact(identity.UserID, model.KnowledgeFact{
		EntityName:     req.EntityName,
		Relation:       req.Relation,
		TargetEntity:   req.TargetEntity,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		log.Log.Errorf("knowledge write failed for user %d: %v", identity.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store knowledge fact"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
}

// handleCustomers lists the caller's customers without going through the LLM
func (s *Server) handleCustomers(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return
	}

	customers, err := s.store.ListCustomers(identity.UserID)
	if err != nil {
		log.Log.Errorf("customer list failed for user %d: %v", identity.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list customers"})
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}
