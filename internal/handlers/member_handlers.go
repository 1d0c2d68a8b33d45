package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitness_portal_backend/internal/middleware"
	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MemberHandler holds the member service.
type MemberHandler struct {
	memberService services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

// GetMe returns the calling member's profile.
func (h *MemberHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	member, err := h.memberService.GetMemberForUser(userID)
	if err != nil {
		utils.LogError(err, "GetMe: Error from memberService.GetMemberForUser")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member profile not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load member profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// GetMembers lists members for the back-office with search, status filter and
// pagination.
func (h *MemberHandler) GetMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := models.MemberFilters{Page: page, PageSize: pageSize}
	if search := c.Query("search"); search != "" {
		filters.Query = &search
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}

	members, total, err := h.memberService.GetMembers(filters)
	if err != nil {
		utils.LogError(err, "GetMembers: Error from memberService.GetMembers")
		if errors.Is(err, services.ErrInvalidMemberStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list members.", "Internal error"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      members,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetMemberByID loads one member for the back-office.
func (h *MemberHandler) GetMemberByID(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	member, err := h.memberService.GetMemberByID(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberByID: Error from memberService.GetMemberByID")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateMemberStatus switches a member between ACTIVE, BLOCKED and PENDING.
func (h *MemberHandler) UpdateMemberStatus(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.memberService.UpdateStatus(memberID, req.Status)
	if err != nil {
		utils.LogError(err, "UpdateMemberStatus: Error from memberService.UpdateStatus")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", ""))
		} else if errors.Is(err, services.ErrInvalidMemberStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update member status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// ExportData returns the caller's stored data as a JSON download.
func (h *MemberHandler) ExportData(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	export, err := h.memberService.ExportData(userID)
	if err != nil {
		utils.LogError(err, "ExportData: Error from memberService.ExportData")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Data export failed.", "Internal error"))
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="data-export.json"`)
	c.JSON(http.StatusOK, export)
}

// DeleteAccount erases the caller's account and all dependent records.
func (h *MemberHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	if err := h.memberService.DeleteAccount(userID); err != nil {
		utils.LogError(err, "DeleteAccount: Error from memberService.DeleteAccount")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Account deletion failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account and all associated data deleted."})
}
