package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CheckinHandler holds the check-in service.
type CheckinHandler struct {
	checkinService services.CheckinService
}

// NewCheckinHandler creates a new CheckinHandler.
func NewCheckinHandler(cs services.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkinService: cs}
}

type scanRequest struct {
	MembershipID string `json:"membership_id"`
	MemberID     int64  `json:"member_id"`
}

// Scan processes a front-desk card scan. The member is addressed by the
// public membership ID or the internal row ID. A scan inside the cooldown
// window still answers 200 so the kiosk can show the wait instead of an error.
func (h *CheckinHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.MembershipID == "" && req.MemberID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Either membership_id or member_id is required.", ""))
		return
	}

	var result *services.CheckinResult
	var err error
	if req.MembershipID != "" {
		result, err = h.checkinService.Scan(req.MembershipID)
	} else {
		result, err = h.checkinService.ScanByID(req.MemberID)
	}
	if err != nil {
		utils.LogError(err, "Scan: Error from checkinService.Scan")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else if errors.Is(err, services.ErrMemberNotActive) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Member is not active.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Check-in failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

type adjustPointsRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// AdjustPoints applies an admin point correction to a member.
func (h *CheckinHandler) AdjustPoints(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.checkinService.AdjustPoints(memberID, req.Delta, req.Reason)
	if err != nil {
		utils.LogError(err, "AdjustPoints: Error from checkinService.AdjustPoints")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else if errors.Is(err, services.ErrPointsValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Point adjustment failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// GetLedger returns a member's point history with the balance reconciliation.
func (h *CheckinHandler) GetLedger(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	report, err := h.checkinService.GetLedger(memberID)
	if err != nil {
		utils.LogError(err, "GetLedger: Error from checkinService.GetLedger")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load point history.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, report)
}
