package handlers

import (
	"net/http"

	"realtime-threads/internal/models"
	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile godoc
// @Summary Get current user
// @Description Get the profile of the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfileResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, profile)
}

// UpdateProfile godoc
// @Summary Update current user
// @Description Update display name, handle, bio or avatar. Blank values clear a field.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.UserProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "", err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, profile)
}
