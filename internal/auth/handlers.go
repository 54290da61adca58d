package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// Controller handles authentication-related HTTP endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	google         *GoogleOAuthProvider
	config         config.Auth
}

// NewController creates a new authentication controller. The Google
// provider may be nil when OAuth sign-in is not configured.
func NewController(service *Service, sessionManager *SessionManager, google *GoogleOAuthProvider, cfg config.Auth) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		google:         google,
		config:         cfg,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
	if ac.google != nil {
		router.GET("/auth/google/login", ac.GoogleLogin)
		router.GET("/auth/google/callback", ac.GoogleCallback)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates local credentials and opens a session.
func (ac *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrAccountLocked) {
			c.IndentedJSON(http.StatusTooManyRequests, gin.H{"error": "account temporarily locked"})
			return
		}
		// Do not reveal whether the username or the password was wrong
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"username":     user.Username,
		"display_name": user.DisplayName,
	})
}

// Logout destroys the session.
func (ac *Controller) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			log.Printf("[AUTH] Failed to destroy session: %v", err)
		}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"status": "logged out"})
}

// GoogleLogin starts the OAuth flow by redirecting to the provider.
func (ac *Controller) GoogleLogin(c *gin.Context) {
	state, err := GenerateStateToken()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to start sign-in"})
		return
	}

	ac.sessionManager.PutOAuthState(c.Request, state)
	c.Redirect(http.StatusFound, ac.google.GetLoginURL(state))
}

// GoogleCallback completes the OAuth flow: verifies state, exchanges the
// code, resolves the local account and opens a session.
func (ac *Controller) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	expected := ac.sessionManager.PopOAuthState(c.Request)
	if state == "" || state != expected {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	profile, err := ac.google.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[AUTH] OAuth exchange failed: %v", err)
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": "sign-in with Google failed"})
		return
	}

	user, err := ac.service.FindOrCreateGoogleUser(profile)
	if err != nil {
		log.Printf("[AUTH] Failed to resolve Google user: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve account"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.Redirect(http.StatusFound, sanitizeRedirectPath(c.Query("next")))
}
