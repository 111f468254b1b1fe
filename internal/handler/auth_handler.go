package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/dto"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/middleware"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/service"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/response"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if valid, msg := req.ValidateEmail(); !valid {
		response.Error(c, http.StatusBadRequest, "INVALID_EMAIL", msg)
		return
	}
	if valid, msg := req.ValidatePassword(); !valid {
		response.Error(c, http.StatusBadRequest, "WEAK_PASSWORD", msg)
		return
	}
	if valid, msg := req.ValidateRole(); !valid {
		response.Error(c, http.StatusBadRequest, "INVALID_ROLE", msg)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			response.Conflict(c, "USER_EXISTS", "User with this email already exists")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, result)
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) {
			response.Unauthorized(c, "TOKEN_EXPIRED", "Refresh token has expired")
			return
		}
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			response.Unauthorized(c, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, result)
}

// Logout ends the session holding the given refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.InternalError(c)
		return
	}

	response.Success(c, gin.H{"message": "Logged out successfully"})
}

// LogoutAll ends every session of the authenticated user
// POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "NO_TOKEN", "Access token is required")
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), user.ID); err != nil {
		response.InternalError(c)
		return
	}

	response.Success(c, gin.H{"message": "All sessions logged out successfully"})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "NO_TOKEN", "Access token is required")
		return
	}

	response.Success(c, service.ToUserResponse(user))
}

// UpdateMe updates the authenticated user's profile fields
// PUT /api/v1/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "NO_TOKEN", "Access token is required")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if valid, msg := req.Validate(); !valid {
		response.BadRequest(c, msg)
		return
	}

	updated, err := h.authService.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, service.ToUserResponse(updated))
}
