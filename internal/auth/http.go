package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const CookieName = "session_token"

// cookieSecure determines the Secure flag for cookies. Defaults true in non-local.
func cookieSecure() bool {
	if v := strings.ToLower(os.Getenv("COOKIE_SECURE")); v != "" {
		return v == "1" || v == "true" || v == "yes"
	}
	// Default to secure unless explicitly disabled
	return true
}

// Service holds the bcrypt hash of the one shared admin password. An
// empty hash means admin login is disabled entirely.
type Service struct {
	repo         *Repository
	passwordHash []byte
	ttl          time.Duration
}

func NewService(repo *Repository, password string, ttl time.Duration) (*Service, error) {
	s := &Service{repo: repo, ttl: ttl}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.passwordHash = hash
	}
	return s, nil
}

func RegisterRoutes(r *gin.Engine, s *Service) {
	api := r.Group("/api/auth")

	api.POST("/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if len(s.passwordHash) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login disabled"})
			return
		}
		if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		sess, err := s.repo.CreateSession(c.Request.Context(), s.ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session failed"})
			return
		}
		// Set secure, HTTP-only cookie
		maxAge := int(time.Until(sess.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, sess.Token, maxAge, "/", "", cookieSecure(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api.POST("/logout", func(c *gin.Context) {
		tok, err := c.Cookie(CookieName)
		if err == nil && tok != "" {
			_ = s.repo.DeleteSession(c.Request.Context(), tok)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		// overwrite with expired cookie
		c.SetCookie(CookieName, "", -1, "/", "", cookieSecure(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

// Protect rejects requests without a live admin session.
func Protect(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(CookieName)
		if err != nil || tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if err := s.repo.ValidateSession(c.Request.Context(), tok); err != nil {
			if errors.Is(err, ErrNoSession) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth failed"})
			return
		}
		c.Next()
	}
}
