package handlers

import (
	"errors"
	"net/http"

	"fitness_portal_backend/internal/middleware"
	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{authService: as, frontendURL: frontendURL}
}

// Register handles member self-registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		utils.LogError(err, "Register: Error from authService.Register")
		if errors.Is(err, services.ErrEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already registered.", ""))
		} else if errors.Is(err, services.ErrAuthValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Registration failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please verify your email address.",
		"user":    resp.User,
	})
}

// Login handles credential login and issues the access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		utils.LogError(err, "Login: Error from authService.Login")
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
		} else if errors.Is(err, services.ErrEmailNotVerified) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Please verify your email address before logging in.", ""))
		} else if errors.Is(err, services.ErrAccountBlocked) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This account is blocked.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Login failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyEmail consumes the verification link and redirects to the frontend.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Verification token is required.", ""))
		return
	}

	if _, err := h.authService.VerifyEmail(token); err != nil {
		utils.LogError(err, "VerifyEmail: Error from authService.VerifyEmail")
		if errors.Is(err, services.ErrInvalidToken) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid or expired verification token.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Email verification failed.", "Internal error"))
		}
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/verified")
}

type promoteAdminRequest struct {
	Email      string `json:"email" binding:"required"`
	SetupToken string `json:"setup_token" binding:"required"`
}

// PromoteAdmin upgrades an account to ADMIN using the shared setup token.
func (h *AuthHandler) PromoteAdmin(c *gin.Context) {
	var req promoteAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	user, err := h.authService.PromoteToAdmin(req.Email, req.SetupToken)
	if err != nil {
		utils.LogError(err, "PromoteAdmin: Error from authService.PromoteToAdmin")
		if errors.Is(err, services.ErrSetupTokenUnset) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeNotConfigured, "Admin setup is not configured on this deployment.", ""))
		} else if errors.Is(err, services.ErrInvalidSetupToken) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Invalid setup token.", ""))
		} else if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Promotion failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User promoted to admin.", "user": user})
}

// GetProfile returns the authenticated user with its member profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		utils.LogError(err, "GetProfile: Error from authService.GetProfile")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, user)
}
