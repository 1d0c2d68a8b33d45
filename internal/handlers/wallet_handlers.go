package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitness_portal_backend/internal/middleware"
	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WalletHandler holds the wallet card service for pass issuing and the card
// endpoints.
type WalletHandler struct {
	cardService services.WalletCardService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(cs services.WalletCardService) *WalletHandler {
	return &WalletHandler{cardService: cs}
}

type generatePassRequest struct {
	Email      string `json:"email" binding:"required"`
	WalletType string `json:"wallet_type" binding:"required"`
	DesignID   *int64 `json:"design_id"`
}

// GeneratePass issues a pass for the member behind the given email.
func (h *WalletHandler) GeneratePass(c *gin.Context) {
	var req generatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.cardService.GeneratePassForEmail(req.Email, req.WalletType, req.DesignID)
	if err != nil {
		utils.LogError(err, "GeneratePass: Error from cardService.GeneratePassForEmail")
		switch {
		case errors.Is(err, services.ErrWalletValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrDesignNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member or design not found.", ""))
		case errors.Is(err, services.ErrEmailNotVerified):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Email address must be verified before issuing a pass.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Pass generation failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetApplePass streams the member's .pkpass archive.
func (h *WalletHandler) GetApplePass(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("memberId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	pass, filename, err := h.cardService.GetApplePass(memberID)
	if err != nil {
		utils.LogError(err, "GetApplePass: Error from cardService.GetApplePass")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Apple pass generation failed.", "Internal error"))
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.apple.pkpass", pass)
}

// GetGoogleSave returns the signed save-to-wallet JWT and link.
func (h *WalletHandler) GetGoogleSave(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("memberId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	jwtToken, saveURL, err := h.cardService.GetGoogleSave(memberID)
	if err != nil {
		utils.LogError(err, "GetGoogleSave: Error from cardService.GetGoogleSave")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else if errors.Is(err, services.ErrWalletNotConfigured) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeNotConfigured, "Google Wallet is not configured. Set GOOGLE_WALLET_ISSUER_ID and GOOGLE_WALLET_SERVICE_ACCOUNT_KEY.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Google pass generation failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": jwtToken, "pass_url": saveURL})
}

// GetMemberCard returns the caller's active wallet card with its design.
func (h *WalletHandler) GetMemberCard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	card, err := h.cardService.GetMemberCard(userID)
	if err != nil {
		utils.LogError(err, "GetMemberCard: Error from cardService.GetMemberCard")
		if errors.Is(err, services.ErrMemberNotFound) || errors.Is(err, services.ErrCardNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No active wallet card.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load wallet card.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

// RequestWalletCard issues a card for the calling member.
func (h *WalletHandler) RequestWalletCard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	card, err := h.cardService.RequestWalletCard(userID)
	if err != nil {
		utils.LogError(err, "RequestWalletCard: Error from cardService.RequestWalletCard")
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member profile not found.", ""))
		case errors.Is(err, services.ErrMemberNotActive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Membership must be active to request a card.", ""))
		case errors.Is(err, services.ErrActiveCardExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, "An active wallet card already exists.", ""))
		case errors.Is(err, services.ErrNoActiveDesign):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "No active card design is configured.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Card request failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, card)
}

// TouchCardAccess records that the calling member opened their card.
func (h *WalletHandler) TouchCardAccess(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid card ID format.", err.Error()))
		return
	}

	if err := h.cardService.TouchCardAccess(cardID, userID); err != nil {
		utils.LogError(err, "TouchCardAccess: Error from cardService.TouchCardAccess")
		switch {
		case errors.Is(err, services.ErrCardNotFound), errors.Is(err, services.ErrMemberNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Wallet card not found.", ""))
		case errors.Is(err, services.ErrCardForbidden):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This card belongs to another member.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record card access.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Access recorded."})
}
