package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autovoice/calllog/internal/campaign"
	"github.com/autovoice/calllog/internal/parser"
)

// @Summary Start outbound campaign
// @Tags campaign
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/campaign/start [post]
func (h *Handler) CampaignStart(c *gin.Context) {
	if err := h.Campaign.Start(); err != nil {
		if errors.Is(err, campaign.ErrAlreadyRunning) {
			writeError(c, http.StatusConflict, "CAMPAIGN_RUNNING", "Campaign already running", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "CAMPAIGN_ERROR", "Failed to start campaign", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (h *Handler) CampaignStop(c *gin.Context) {
	if err := h.Campaign.Stop(); err != nil {
		if errors.Is(err, campaign.ErrNotRunning) {
			writeError(c, http.StatusConflict, "CAMPAIGN_NOT_RUNNING", "No campaign running", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "CAMPAIGN_ERROR", "Failed to stop campaign", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *Handler) CampaignStatus(c *gin.Context) {
	status, err := h.Campaign.Status(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to read campaign status", err.Error())
		return
	}
	c.JSON(http.StatusOK, status)
}

type EnqueueContactRequest struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
}

func (h *Handler) CampaignEnqueue(c *gin.Context) {
	var req EnqueueContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	phone, ok := parser.NormalizePhone(req.PhoneNumber)
	if !ok || phone == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid phone number", nil)
		return
	}

	id, err := h.Store.EnqueueContact(c.Request.Context(), req.Name, phone)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to enqueue contact", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued", "id": id, "phone_number": phone})
}
