package vapi

import (
	"context"

	"github.com/autovoice/calllog/internal/models"
)

// Dialer starts one outbound call for a campaign contact and returns
// the platform's call id.
type Dialer interface {
	StartCall(ctx context.Context, contact models.CampaignContact) (string, error)
}
