package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/autovoice/calllog/internal/campaign"
	"github.com/autovoice/calllog/internal/db"
	"github.com/autovoice/calllog/internal/models"
	"github.com/autovoice/calllog/internal/parser"
	"github.com/autovoice/calllog/internal/routing"
	"github.com/autovoice/calllog/internal/writer"
)

type Handler struct {
	Store     *db.Store
	Writer    *writer.Writer
	Campaign  *campaign.Service
	Routes    routing.Table
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"agents_configured":   h.Routes.Agents(),
		"default_destination": h.Routes.Default(),
	})
}

// @Summary Receive end-of-call report
// @Description Validates an end-of-call report and appends one row to the agent's destination table
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "Body must be a JSON object", err.Error())
		return
	}

	if msgType := parser.MessageType(payload); msgType != parser.CallReportType {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ignored",
			"message_type": msgType,
			"info":         "Only end-of-call-report messages are processed",
		})
		return
	}

	rec, warnings, err := h.parse(c, payload)
	if err != nil {
		return
	}

	agentID := parser.AgentID(payload)
	result, err := h.Writer.Write(c.Request.Context(), agentID, rec)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "WRITE_ERROR", "Failed to append call row", err.Error())
		return
	}

	if h.Campaign != nil && rec.CallSummary != "" {
		matched, err := h.Campaign.RecordSummary(c.Request.Context(), rec.CallID, rec.CallSummary, rec.CallerPhoneNumber)
		if err != nil {
			h.Logger.Error().Err(err).Str("call_id", rec.CallID).Msg("failed to attach campaign summary")
		} else if matched {
			h.Logger.Info().Str("call_id", rec.CallID).Msg("campaign contact updated with summary")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "accepted",
		"call_id":        rec.CallID,
		"agent_id":       agentID,
		"destination":    result.Destination,
		"duplicate":      result.Duplicate,
		"routed_default": result.RoutedDefault,
		"warnings":       warnings,
	})
}

// @Summary Dry-run parse
// @Description Runs extraction and validation only; never writes a row
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /test [post]
func (h *Handler) DryRun(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "MALFORMED_PAYLOAD", "Body must be a JSON object", err.Error())
		return
	}

	rec, warnings, err := h.parse(c, payload)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "parsed",
		"record":   rec,
		"warnings": warnings,
	})
}

// parse runs the extractor and writes the rejection response itself on
// failure, so both entry points report identically.
func (h *Handler) parse(c *gin.Context, payload map[string]any) (models.NormalizedRecord, []parser.Warning, error) {
	rec, warnings, err := parser.Parse(payload, time.Now())
	if err != nil {
		var ignored parser.IgnoredError
		switch {
		case errors.As(err, &ignored):
			c.JSON(http.StatusOK, gin.H{
				"status":       "ignored",
				"message_type": ignored.MessageType,
			})
		case errors.Is(err, parser.ErrMissingCallID):
			writeError(c, http.StatusBadRequest, "MISSING_CALL_ID", "Payload has no call identifier", nil)
		default:
			writeError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Failed to extract call data", err.Error())
		}
		return rec, nil, err
	}

	for _, w := range warnings {
		h.Logger.Warn().
			Str("call_id", rec.CallID).
			Str("field", w.Field).
			Msg(w.Message)
	}
	return rec, warnings, nil
}

func (h *Handler) DestinationsList(c *gin.Context) {
	agents := h.Routes.Agents()
	byTable := map[string]string{h.Routes.Default(): ""}
	for agent, table := range agents {
		byTable[table] = agent
	}

	var items []models.DestinationStats
	for _, table := range h.Routes.Destinations() {
		rows, last, err := h.Store.DestinationStats(c.Request.Context(), table)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to read destination stats", err.Error())
			return
		}
		items = append(items, models.DestinationStats{
			Agent:      byTable[table],
			Table:      table,
			Rows:       rows,
			LastInsert: last,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
