package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "atrium/internal/application/auth"
	"atrium/internal/interfaces/dto"
	"atrium/internal/interfaces/http/middleware"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
	"atrium/internal/shared/utils"
	"atrium/internal/shared/validation"
)

// AuthHandler exposes the authentication flows over HTTP.
type AuthHandler struct {
	facade *appauth.Facade
	logger logger.Interface
}

func NewAuthHandler(facade *appauth.Facade, log logger.Interface) *AuthHandler {
	return &AuthHandler{facade: facade, logger: log}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.facade.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.logAuthFailure("sign-up failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.NewAuthResponse(result), "Account created")
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.facade.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logAuthFailure("sign-in failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Signed in", dto.NewAuthResponse(result))
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	var req dto.SignOutRequest
	_ = c.ShouldBindJSON(&req)

	// idempotent; never errors on unknown tokens
	_ = h.facade.SignOut(c.Request.Context(), req.RefreshToken)
	utils.SuccessResponse(c, http.StatusOK, "Signed out", nil)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.facade.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.logAuthFailure("session refresh failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session refreshed", dto.NewAuthResponse(result))
}

func (h *AuthHandler) ResetPasswordRequest(c *gin.Context) {
	var req dto.ResetPasswordRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.facade.ResetPasswordRequest(c.Request.Context(), req.Email); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	// same response whether or not the account exists
	utils.SuccessResponse(c, http.StatusOK, "If that address is registered, a reset email has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.facade.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.logAuthFailure("password reset failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset; sign in again on all devices", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userSID := middleware.AuthenticatedUserSID(c)
	if userSID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.facade.ChangePassword(c.Request.Context(), userSID, req.CurrentPassword, req.NewPassword); err != nil {
		h.logAuthFailure("password change failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password changed", nil)
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// also accept the token as a query parameter for email links
		token := c.Query("token")
		if token == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "verification token is required")
			return
		}
		req.Token = token
	}

	if err := h.facade.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Email verified", nil)
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.facade.ResendVerificationEmail(c.Request.Context(), req.Email); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "If that address is registered, a verification email has been sent", nil)
}

func (h *AuthHandler) GetOAuthURL(c *gin.Context) {
	provider, ok := constants.ParseProvider(c.Param("provider"))
	if !ok || !provider.IsOAuth() {
		utils.ErrorResponse(c, http.StatusBadRequest, "unknown oauth provider")
		return
	}

	redirectURI := c.Query("redirect_uri")
	if redirectURI == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "redirect_uri is required")
		return
	}

	authURL, state, err := h.facade.GetOAuthURL(c.Request.Context(), provider, redirectURI)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.OAuthURLResponse{
		AuthorizationURL: authURL,
		State:            state,
	})
}

func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider, ok := constants.ParseProvider(c.Param("provider"))
	if !ok || !provider.IsOAuth() {
		utils.ErrorResponse(c, http.StatusBadRequest, "unknown oauth provider")
		return
	}

	var req dto.OAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// providers that redirect with GET deliver code/state as query params
		req.Code = c.Query("code")
		req.State = c.Query("state")
	}
	if req.Code == "" || req.State == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "code and state are required")
		return
	}

	result, err := h.facade.HandleOAuthCallback(c.Request.Context(), provider, req.Code, req.State)
	if err != nil {
		h.logAuthFailure("oauth callback failed", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Signed in", dto.NewAuthResponse(result))
}

func (h *AuthHandler) logAuthFailure(msg string, err error) {
	if !errors.ShouldLogAuthError(err) {
		return
	}

	fields := []interface{}{"error", err}
	if errors.IsSecurityEvent(err) {
		fields = append(fields, "security_event", true)
	}
	h.logger.Warnw(msg, fields...)
}
