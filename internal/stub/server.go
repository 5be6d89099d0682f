// Package stub is a local stand-in for the remote Konnect chat API, used by
// integration tests and for offline development. It serves the exact wire
// contract the client speaks: PATCH /csrf, POST /auth/register,
// POST /auth/token, and Bearer-authenticated message CRUD.
package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	contextKeyUserID   = "user_id"
	contextKeyUsername = "username"

	csrfTTL = 10 * time.Minute
)

// Options tunes stub behavior.
type Options struct {
	// QuirkDuplicateAs400 makes registration report an existing username as
	// HTTP 400 with a text message instead of 409, imitating deployments
	// whose duplicate reporting is inconsistent. Used to exercise the
	// client's reclassification heuristic.
	QuirkDuplicateAs400 bool
}

// Server bundles the router with its dependencies.
type Server struct {
	store   *Store
	jwt     *JWTConfig
	csrf    *csrfRegistry
	opts    Options
	log     *zerolog.Logger
}

// NewServer creates a stub API server over the given store.
func NewServer(store *Store, jwtCfg *JWTConfig, opts Options, logger *zerolog.Logger) *Server {
	return &Server{
		store: store,
		jwt:   jwtCfg,
		csrf:  newCSRFRegistry(csrfTTL),
		opts:  opts,
		log:   logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.loggerMiddleware())

	router.PATCH("/csrf", s.handleCsrf)
	router.POST("/auth/register", s.handleRegister)
	router.POST("/auth/token", s.handleToken)

	authed := router.Group("/", s.authMiddleware())
	authed.GET("/messages", s.handleListMessages)
	authed.POST("/messages", s.handleCreateMessage)
	authed.DELETE("/messages/:id", s.handleDeleteMessage)

	return router
}

// loggerMiddleware logs each request after it completes.
func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("stub request")
	}
}

// authMiddleware validates the Bearer token and stores the caller identity.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid authorization header format"})
			return
		}

		claims, err := ValidateToken(s.jwt, parts[1])
		if err != nil {
			s.log.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyUsername, claims.Username)
		c.Next()
	}
}

// requireCsrf consumes the single-use anti-forgery token from the body.
// Each mutating request needs a freshly issued token.
func (s *Server) requireCsrf(c *gin.Context, token string) bool {
	if token == "" || !s.csrf.Consume(token) {
		c.JSON(http.StatusForbidden, errorResponse{Error: "invalid or expired csrf token"})
		return false
	}
	return true
}
