package handlers

import (
	"errors"
	"net/http"

	"tradocs/middleware"
	"tradocs/models"
	"tradocs/services/account"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

func accountError(c *gin.Context, err error) {
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONError(c, http.StatusBadRequest, "Validation failed", verr.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "Invalid email or password", "")
	case errors.Is(err, account.ErrEmailTaken):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, account.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, account.ErrInvalidRole):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, account.ErrSelfModification):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, account.ErrSessionRevocation):
		utils.JSONError(c, http.StatusServiceUnavailable, "Session could not be revoked, retry the request", "")
	default:
		internalError(c, "Account request failed", err)
	}
}

// RegisterHandler handles POST /api/auth/register.
func (h *HandlerBundle) RegisterHandler(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LoginHandler handles POST /api/auth/login.
func (h *HandlerBundle) LoginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HandlerBundle) LogoutHandler(c *gin.Context) {
	if err := h.Accounts.Logout(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *HandlerBundle) GetProfileHandler(c *gin.Context) {
	profile, err := h.Accounts.GetProfile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HandlerBundle) UpdateProfileHandler(c *gin.Context) {
	var req account.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Accounts.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ChangePasswordHandler handles PUT /api/profile/password.
// It expects a JSON payload with "currentPassword" and "newPassword".
func (h *HandlerBundle) ChangePasswordHandler(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *HandlerBundle) EnableAffiliateHandler(c *gin.Context) {
	profile, err := h.Accounts.EnableAffiliate(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListProfilesHandler handles GET /api/admin/profiles?role=.
func (h *HandlerBundle) ListProfilesHandler(c *gin.Context) {
	role := c.Query("role")
	if role != "" && !models.IsValidRole(role) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid role", role)
		return
	}
	profiles, err := h.Accounts.ListProfiles(c.Request.Context(), role)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *HandlerBundle) SetRoleHandler(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Accounts.SetRole(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Role)
	if err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HandlerBundle) DeleteProfileHandler(c *gin.Context) {
	if err := h.Accounts.DeleteProfile(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}
