package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/services"
)

// AuthHandler handles signup, login and the security settings
type AuthHandler struct {
	auth         services.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// Signup creates a shop and its admin user
// @Summary Sign up
// @Description Create a shop together with its first user and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} services.AuthResult
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result)
	c.JSON(http.StatusCreated, result)
}

// Login starts a session
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} services.AuthResult
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result)
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"userId": principal.UserID,
		"shopId": principal.ShopID,
		"email":  principal.Email,
		"role":   principal.Role,
		"scopes": principal.Scopes,
	})
}

// ChangePassword handles POST /api/v1/settings/security/change-password.
// Other sessions are revoked and the caller gets a fresh token.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.ChangePassword(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result)
	c.JSON(http.StatusOK, result)
}

// LogoutAll handles POST /api/v1/settings/security/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	if err := h.auth.LogoutAll(c.Request.Context(), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "All sessions have been signed out"})
}

// CreateAPIToken handles POST /api/v1/settings/tokens
func (h *AuthHandler) CreateAPIToken(c *gin.Context) {
	var req models.CreateAPITokenRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.auth.CreateAPIToken(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListAPITokens handles GET /api/v1/settings/tokens
func (h *AuthHandler) ListAPITokens(c *gin.Context) {
	tokens, err := h.auth.ListAPITokens(c.Request.Context(), middleware.GetActor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tokens})
}

// RevokeAPIToken handles DELETE /api/v1/settings/tokens/:id
func (h *AuthHandler) RevokeAPIToken(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.auth.RevokeAPIToken(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondResourceError(c, "API token", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, result *services.AuthResult) {
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, maxAge, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookieSecure, true)
}
