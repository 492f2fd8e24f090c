package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "atrium/internal/application/auth"
	"atrium/internal/interfaces/dto"
	"atrium/internal/interfaces/http/middleware"
	"atrium/internal/shared/logger"
	"atrium/internal/shared/utils"
	"atrium/internal/shared/validation"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	facade *appauth.Facade
	logger logger.Interface
}

func NewUserHandler(facade *appauth.Facade, log logger.Interface) *UserHandler {
	return &UserHandler{facade: facade, logger: log}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	sid := middleware.AuthenticatedUserSID(c)
	if sid == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.facade.GetUser(c.Request.Context(), sid)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.NewUserResponse(u))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	sid := middleware.AuthenticatedUserSID(c)
	if sid == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	u, err := h.facade.UpdateUser(c.Request.Context(), sid, appauth.UpdateUserInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated", dto.NewUserResponse(u))
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	sid := middleware.AuthenticatedUserSID(c)
	if sid == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.facade.DeleteUser(c.Request.Context(), sid); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("account deleted", "user_sid", sid)
	utils.SuccessResponse(c, http.StatusOK, "Account deleted", nil)
}
