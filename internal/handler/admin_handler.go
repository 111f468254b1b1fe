package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/dto"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/middleware"
	"github.com/chetan-01-source/Crowdera-ecommerce/internal/service"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/response"
)

const (
	defaultPageLimit = 30
	maxPageLimit     = 100
)

// AdminHandler handles admin-only user management requests
type AdminHandler struct {
	authService service.AuthService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(authService service.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// ListUsers returns a cursor page of users
// GET /api/v1/admin/users?cursor=&limit=&sortOrder=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	cursor := c.Query("cursor")

	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	sortOrder := c.DefaultQuery("sortOrder", "asc")
	if sortOrder != "asc" && sortOrder != "desc" {
		response.BadRequest(c, "sortOrder must be asc or desc")
		return
	}
	desc := sortOrder == "desc"

	// Fetch one extra row to learn whether another page exists
	users, err := h.authService.ListUsers(c.Request.Context(), cursor, limit+1, desc)
	if err != nil {
		response.InternalError(c)
		return
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}

	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, service.ToUserResponse(u))
	}

	meta := &dto.PageMeta{
		HasMore:   hasMore,
		Limit:     limit,
		SortOrder: sortOrder,
	}
	if hasMore {
		meta.NextCursor = users[len(users)-1].ID
	}

	response.SuccessWithMeta(c, out, meta)
}

// GetUser returns one user by id
// GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, service.ToUserResponse(user))
}

// DeleteUser removes an account
// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	// An admin deleting their own account would orphan the session that
	// authorized the call
	if caller, ok := middleware.CurrentUser(c); ok && caller.ID == id {
		response.BadRequest(c, "Cannot delete your own account")
		return
	}

	if err := h.authService.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, gin.H{"message": "User deleted successfully"})
}
