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

// CardDesignHandler holds the design service.
type CardDesignHandler struct {
	designService services.CardDesignService
}

// NewCardDesignHandler creates a new CardDesignHandler.
func NewCardDesignHandler(ds services.CardDesignService) *CardDesignHandler {
	return &CardDesignHandler{designService: ds}
}

// CreateDesign stores a new inactive design.
func (h *CardDesignHandler) CreateDesign(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return
	}

	var req services.CreateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	design, err := h.designService.CreateDesign(req, userID)
	if err != nil {
		utils.LogError(err, "CreateDesign: Error from designService.CreateDesign")
		if errors.Is(err, services.ErrDesignValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Design creation failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, design)
}

// GetDesigns lists all designs.
func (h *CardDesignHandler) GetDesigns(c *gin.Context) {
	designs, err := h.designService.GetDesigns()
	if err != nil {
		utils.LogError(err, "GetDesigns: Error from designService.GetDesigns")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list designs.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": designs})
}

// GetDesignByID loads one design.
func (h *CardDesignHandler) GetDesignByID(c *gin.Context) {
	designID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid design ID format.", err.Error()))
		return
	}

	design, err := h.designService.GetDesignByID(designID)
	if err != nil {
		utils.LogError(err, "GetDesignByID: Error from designService.GetDesignByID")
		if errors.Is(err, services.ErrDesignNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Design not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load design.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, design)
}

// GetActiveDesign returns the parsed active design for the public card view.
func (h *CardDesignHandler) GetActiveDesign(c *gin.Context) {
	data, err := h.designService.GetActiveDesignData()
	if err != nil {
		utils.LogError(err, "GetActiveDesign: Error from designService.GetActiveDesignData")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to load active design.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, data)
}

// UpdateDesign patches name, description and design data.
func (h *CardDesignHandler) UpdateDesign(c *gin.Context) {
	designID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid design ID format.", err.Error()))
		return
	}

	var req services.UpdateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	design, err := h.designService.UpdateDesign(designID, req)
	if err != nil {
		utils.LogError(err, "UpdateDesign: Error from designService.UpdateDesign")
		if errors.Is(err, services.ErrDesignNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Design not found.", ""))
		} else if errors.Is(err, services.ErrDesignValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Design update failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, design)
}

// ActivateDesign makes one design live.
func (h *CardDesignHandler) ActivateDesign(c *gin.Context) {
	designID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid design ID format.", err.Error()))
		return
	}

	design, err := h.designService.ActivateDesign(designID)
	if err != nil {
		utils.LogError(err, "ActivateDesign: Error from designService.ActivateDesign")
		if errors.Is(err, services.ErrDesignNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Design not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Design activation failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, design)
}

// DeleteDesign removes a design.
func (h *CardDesignHandler) DeleteDesign(c *gin.Context) {
	designID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid design ID format.", err.Error()))
		return
	}

	if err := h.designService.DeleteDesign(designID); err != nil {
		utils.LogError(err, "DeleteDesign: Error from designService.DeleteDesign")
		if errors.Is(err, services.ErrDesignNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Design not found.", ""))
		} else if errors.Is(err, services.ErrDesignInUse) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Design is referenced by issued cards.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Design deletion failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Design deleted."})
}
