package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bookswap/internal/pkg/response"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service      *Service
	cookieSecure bool
	cookiePath   string
}

func NewHandler(service *Service, cookieSecure bool, cookiePath string) *Handler {
	if cookiePath == "" {
		cookiePath = "/"
	}
	return &Handler{
		service:      service,
		cookieSecure: cookieSecure,
		cookiePath:   cookiePath,
	}
}

// Register creates a new account.
// @Summary		Register
// @Description	Creates a new account. New users get a welcome notification in their inbox.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		request	body	RegisterRequest	true	"Account details"
// @Success		201	{object}	map[string]interface{} "The created user"
// @Failure		400	{object}	map[string]interface{} "Missing or invalid fields"
// @Failure		409	{object}	map[string]interface{} "Email already registered"
// @Router		/auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email, display name and a password of at least 8 characters are required")
		default:
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Login authenticates a user and issues tokens.
// @Summary		Login
// @Description	Authenticates by email and password. Returns a JWT access token in the body and sets the refresh token as an httpOnly cookie.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		request	body	LoginRequest	true	"Credentials"
// @Success		200	{object}	map[string]interface{} "User and access token"
// @Failure		400	{object}	map[string]interface{} "Invalid request body"
// @Failure		401	{object}	map[string]interface{} "Wrong email or password"
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)

	response.Success(c, http.StatusOK, gin.H{
		"user": result.User,
		"tokens": gin.H{
			"access_token": result.AccessToken,
		},
	})
}

// Refresh rotates the session.
// @Summary		Refresh token
// @Description	Exchanges the refresh token cookie for a fresh access token. The presented refresh token is revoked and replaced.
// @Tags		Auth
// @Produce		json
// @Success		200	{object}	map[string]interface{} "New access token"
// @Failure		401	{object}	map[string]interface{} "Missing, invalid or expired refresh token"
// @Router		/auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	refreshRaw, err := c.Cookie("refresh_token")
	if err != nil || strings.TrimSpace(refreshRaw) == "" {
		response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is missing or invalid")
		return
	}

	result, err := h.service.RefreshSession(c.Request.Context(), refreshRaw)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)

	response.Success(c, http.StatusOK, gin.H{
		"tokens": gin.H{
			"access_token": result.AccessToken,
		},
	})
}

// Logout ends the session.
// @Summary		Logout
// @Description	Revokes the current refresh token and clears the cookie.
// @Tags		Auth
// @Success		204	"No Content"
// @Router		/auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	refreshRaw, err := c.Cookie("refresh_token")
	if err == nil && strings.TrimSpace(refreshRaw) != "" {
		if logoutErr := h.service.Logout(c.Request.Context(), refreshRaw); logoutErr != nil {
			response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("refresh_token", "", -1, h.cookiePath, "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

// GetMe returns the caller's profile.
// @Summary		Get current user
// @Description	Returns the authenticated user's profile.
// @Tags		Auth
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{} "The user"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		404	{object}	map[string]interface{} "User not found"
// @Router		/users/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.service.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfile edits the caller's profile.
// @Summary		Update profile
// @Description	Updates display name, city or bio. Email cannot be changed here.
// @Tags		Auth
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		request	body	UpdateProfileRequest	true	"Fields to change"
// @Success		200	{object}	map[string]interface{} "The updated user"
// @Failure		400	{object}	map[string]interface{} "Invalid fields"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Router		/users/me [PUT]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Display name cannot be empty")
			return
		}
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update profile")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(h.service.RefreshTTL().Seconds())
	c.SetCookie("refresh_token", token, maxAge, h.cookiePath, "", h.cookieSecure, true)
}
