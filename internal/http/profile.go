package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lectorflow/server/internal/auth"
)

// ProfileController exposes the authenticated user's account and API
// token management.
type ProfileController struct {
	service *auth.Service
}

// NewProfileController creates a new ProfileController.
func NewProfileController(service *auth.Service) *ProfileController {
	return &ProfileController{service: service}
}

// GetProfile handles GET /api/profile.
func (controller *ProfileController) GetProfile(c *gin.Context) {
	user, err := controller.service.GetUserByID(GetUserID(c))
	if err != nil {
		respondNotFound(c, "user")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"photo_url":    user.PhotoURL,
		"auth_type":    auth.GetAuthType(c),
		"has_token":    user.TokenHash != "",
	})
}

// GenerateToken handles POST /api/auth/token. The plaintext token is
// returned once; only its hash is stored.
func (controller *ProfileController) GenerateToken(c *gin.Context) {
	token, err := controller.service.GenerateToken(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "generate token")
		return
	}

	c.IndentedJSON(http.StatusCreated, gin.H{
		"token":   token,
		"message": "store this token now; it will not be shown again",
	})
}

// RevokeToken handles DELETE /api/auth/token.
func (controller *ProfileController) RevokeToken(c *gin.Context) {
	if err := controller.service.RevokeToken(GetUserID(c)); err != nil {
		respondInternalError(c, err, "revoke token")
		return
	}

	c.IndentedJSON(http.StatusOK, SuccessResponse{Message: "token revoked"})
}
