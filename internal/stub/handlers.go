package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

type csrfResponse struct {
	CsrfToken string `json:"csrfToken"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CsrfToken string `json:"csrfToken"`
}

type tokenRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CsrfToken string `json:"csrfToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createMessageRequest struct {
	Text      string `json:"text"`
	CsrfToken string `json:"csrfToken"`
}

type deleteMessageRequest struct {
	CsrfToken string `json:"csrfToken"`
}

type messageResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Username  string `json:"username"`
	UserID    int64  `json:"userId"`
}

func toMessageResponse(m *StoredMessage) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		Username:  m.Username,
		UserID:    m.UserID,
	}
}

// handleCsrf issues a fresh anti-forgery token.
// PATCH /csrf
func (s *Server) handleCsrf(c *gin.Context) {
	c.JSON(http.StatusOK, csrfResponse{CsrfToken: s.csrf.Issue()})
}

// handleRegister creates a new account.
// POST /auth/register
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !s.requireCsrf(c, req.CsrfToken) {
		return
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 32 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "username must be 3-32 characters"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "password must be at least 6 characters"})
		return
	}

	if existing, err := s.store.GetUserByUsername(c.Request.Context(), username); err == nil && existing != nil {
		if s.opts.QuirkDuplicateAs400 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "username is already taken"})
			return
		}
		c.JSON(http.StatusConflict, errorResponse{Error: "user already exists"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	if _, err := s.store.CreateUser(c.Request.Context(), username, hash, req.Email, req.Avatar); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("failed to create user")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	s.log.Info().Str("username", username).Msg("user registered")
	c.Status(http.StatusCreated)
}

// handleToken exchanges credentials for a signed token.
// POST /auth/token
func (s *Server) handleToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !s.requireCsrf(c, req.CsrfToken) {
		return
	}

	user, err := s.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	if err := ComparePassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := GenerateToken(s.jwt, user.ID, user.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign token")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// handleListMessages returns all messages.
// GET /messages
func (s *Server) handleListMessages(c *gin.Context) {
	messages, err := s.store.ListMessages(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// handleCreateMessage stores a new message from the caller.
// POST /messages
func (s *Server) handleCreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !s.requireCsrf(c, req.CsrfToken) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	userID := c.GetInt64(contextKeyUserID)
	username := c.GetString(contextKeyUsername)

	msg, err := s.store.SaveMessage(c.Request.Context(), userID, username, req.Text)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

// handleDeleteMessage removes one of the caller's messages.
// DELETE /messages/:id
func (s *Server) handleDeleteMessage(c *gin.Context) {
	var req deleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !s.requireCsrf(c, req.CsrfToken) {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid message id"})
		return
	}

	msg, err := s.store.GetMessage(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "message not found"})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load message")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	if msg.UserID != c.GetInt64(contextKeyUserID) {
		c.JSON(http.StatusForbidden, errorResponse{Error: "not the message author"})
		return
	}

	if err := s.store.DeleteMessage(c.Request.Context(), id); err != nil {
		s.log.Error().Err(err).Msg("failed to delete message")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
