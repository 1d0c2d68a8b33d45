package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WalletCardAdminHandler exposes the back-office card fleet operations.
type WalletCardAdminHandler struct {
	cardService services.WalletCardService
}

// NewWalletCardAdminHandler creates a new WalletCardAdminHandler.
func NewWalletCardAdminHandler(cs services.WalletCardService) *WalletCardAdminHandler {
	return &WalletCardAdminHandler{cardService: cs}
}

// GetCards lists all issued cards with member and design summaries.
func (h *WalletCardAdminHandler) GetCards(c *gin.Context) {
	cards, err := h.cardService.GetCards()
	if err != nil {
		utils.LogError(err, "GetCards: Error from cardService.GetCards")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list wallet cards.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cards})
}

type createCardRequest struct {
	MemberID int64  `json:"member_id" binding:"required"`
	DesignID *int64 `json:"design_id"`
}

// CreateCard issues a card for a member from the back-office.
func (h *WalletCardAdminHandler) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	card, err := h.cardService.CreateCardForMember(req.MemberID, req.DesignID)
	if err != nil {
		utils.LogError(err, "CreateCard: Error from cardService.CreateCardForMember")
		switch {
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrDesignNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member or design not found.", ""))
		case errors.Is(err, services.ErrActiveCardExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, "Member already has an active wallet card.", ""))
		case errors.Is(err, services.ErrNoActiveDesign):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "No active card design is configured.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Card creation failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, card)
}

type updateCardPointsRequest struct {
	Points *int `json:"points" binding:"required"`
}

// UpdateCardPoints sets the card's displayed points. The difference is
// written through the member's points ledger.
func (h *WalletCardAdminHandler) UpdateCardPoints(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid card ID format.", err.Error()))
		return
	}

	var req updateCardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	card, err := h.cardService.UpdateCardPoints(cardID, *req.Points)
	if err != nil {
		utils.LogError(err, "UpdateCardPoints: Error from cardService.UpdateCardPoints")
		if errors.Is(err, services.ErrCardNotFound) || errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Wallet card not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update card points.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

type setCardActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetCardActive toggles a card on or off.
func (h *WalletCardAdminHandler) SetCardActive(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid card ID format.", err.Error()))
		return
	}

	var req setCardActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	card, err := h.cardService.SetCardActive(cardID, *req.IsActive)
	if err != nil {
		utils.LogError(err, "SetCardActive: Error from cardService.SetCardActive")
		switch {
		case errors.Is(err, services.ErrCardNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Wallet card not found.", ""))
		case errors.Is(err, services.ErrActiveCardExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, "Member already has an active wallet card.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to toggle wallet card.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

// ResendCardEmail re-delivers the wallet link mail for a card.
func (h *WalletCardAdminHandler) ResendCardEmail(c *gin.Context) {
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid card ID format.", err.Error()))
		return
	}

	if err := h.cardService.ResendCardEmail(cardID); err != nil {
		utils.LogError(err, "ResendCardEmail: Error from cardService.ResendCardEmail")
		if errors.Is(err, services.ErrCardNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Wallet card not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resend card email.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card email sent."})
}

// GetCardStats aggregates the card fleet.
func (h *WalletCardAdminHandler) GetCardStats(c *gin.Context) {
	stats, err := h.cardService.GetCardStats()
	if err != nil {
		utils.LogError(err, "GetCardStats: Error from cardService.GetCardStats")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load wallet card stats.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, stats)
}
