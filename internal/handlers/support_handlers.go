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

// SupportHandler holds the support service.
type SupportHandler struct {
	supportService services.SupportService
}

// NewSupportHandler creates a new SupportHandler.
func NewSupportHandler(ss services.SupportService) *SupportHandler {
	return &SupportHandler{supportService: ss}
}

func (h *SupportHandler) respondSupportError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Ticket not found.", ""))
	case errors.Is(err, services.ErrTicketForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this ticket.", ""))
	case errors.Is(err, services.ErrTicketValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateTicket opens a ticket with its first message.
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	var req services.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.supportService.CreateTicket(userID, req)
	if err != nil {
		utils.LogError(err, "CreateTicket: Error from supportService.CreateTicket")
		h.respondSupportError(c, err, "Ticket creation failed.")
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// GetOwnTickets lists the caller's tickets.
func (h *SupportHandler) GetOwnTickets(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	tickets, err := h.supportService.GetOwnTickets(userID)
	if err != nil {
		utils.LogError(err, "GetOwnTickets: Error from supportService.GetOwnTickets")
		h.respondSupportError(c, err, "Failed to list tickets.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tickets})
}

// GetTicket loads one ticket. Internal notes stay hidden from members.
func (h *SupportHandler) GetTicket(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ticket ID format.", err.Error()))
		return
	}

	isAdmin := middleware.CurrentUserRole(c) == models.RoleAdmin
	ticket, err := h.supportService.GetTicket(ticketID, userID, isAdmin)
	if err != nil {
		utils.LogError(err, "GetTicket: Error from supportService.GetTicket")
		h.respondSupportError(c, err, "Failed to load ticket.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Reply appends a message to a ticket.
func (h *SupportHandler) Reply(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ticket ID format.", err.Error()))
		return
	}

	var req services.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	message, err := h.supportService.Reply(ticketID, userID, middleware.CurrentUserRole(c), req)
	if err != nil {
		utils.LogError(err, "Reply: Error from supportService.Reply")
		h.respondSupportError(c, err, "Reply failed.")
		return
	}
	c.JSON(http.StatusCreated, message)
}

// CountUnread returns the caller's unread reply count.
func (h *SupportHandler) CountUnread(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	count, err := h.supportService.CountUnread(userID)
	if err != nil {
		utils.LogError(err, "CountUnread: Error from supportService.CountUnread")
		h.respondSupportError(c, err, "Failed to count unread messages.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead clears the unread flag on a ticket the caller owns.
func (h *SupportHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ticket ID format.", err.Error()))
		return
	}

	if err := h.supportService.MarkRead(ticketID, userID); err != nil {
		utils.LogError(err, "MarkRead: Error from supportService.MarkRead")
		h.respondSupportError(c, err, "Failed to mark messages read.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages marked read."})
}

// GetAllTickets lists the full queue for admins, optionally filtered by status.
func (h *SupportHandler) GetAllTickets(c *gin.Context) {
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	tickets, err := h.supportService.GetAllTickets(status)
	if err != nil {
		utils.LogError(err, "GetAllTickets: Error from supportService.GetAllTickets")
		h.respondSupportError(c, err, "Failed to list tickets.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tickets})
}

// UpdateTicket patches status and priority from the back-office.
func (h *SupportHandler) UpdateTicket(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ticket ID format.", err.Error()))
		return
	}

	var req services.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.supportService.UpdateTicket(ticketID, req)
	if err != nil {
		utils.LogError(err, "UpdateTicket: Error from supportService.UpdateTicket")
		h.respondSupportError(c, err, "Ticket update failed.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// GetStats aggregates the queue for the dashboard.
func (h *SupportHandler) GetStats(c *gin.Context) {
	stats, err := h.supportService.GetStats()
	if err != nil {
		utils.LogError(err, "GetStats: Error from supportService.GetStats")
		h.respondSupportError(c, err, "Failed to load support stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
