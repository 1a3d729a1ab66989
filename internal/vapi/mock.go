package vapi

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/autovoice/calllog/internal/models"
)

// MockDialer stands in when no platform token is configured. Call ids
// are deterministic per contact so repeated runs stay comparable.
type MockDialer struct{}

func (MockDialer) StartCall(_ context.Context, contact models.CampaignContact) (string, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(contact.ID + contact.PhoneNumber))
	return fmt.Sprintf("call_mock_%x", h.Sum64()), nil
}
