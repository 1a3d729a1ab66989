package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/autovoice/calllog/internal/models"
)

type HTTPDialer struct {
	BaseURL     string
	Token       string
	PhoneID     string
	AssistantID string
	Client      *http.Client
}

type callRequest struct {
	PhoneNumberID string            `json:"phoneNumberId"`
	AssistantID   string            `json:"assistantId"`
	Customer      customer          `json:"customer"`
	Metadata      map[string]string `json:"metadata"`
}

type customer struct {
	Number string `json:"number"`
}

type callResponse struct {
	ID string `json:"id"`
}

func (d HTTPDialer) StartCall(ctx context.Context, contact models.CampaignContact) (string, error) {
	if d.Client == nil {
		d.Client = &http.Client{Timeout: 30 * time.Second}
	}

	payload := callRequest{
		PhoneNumberID: d.PhoneID,
		AssistantID:   d.AssistantID,
		Customer:      customer{Number: contact.PhoneNumber},
		Metadata: map[string]string{
			"customer_name": contact.Name,
			"contact_id":    contact.ID,
			"attempt":       strconv.Itoa(contact.AttemptCount + 1),
		},
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/call/phone", bytes.NewBuffer(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.Token)

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("dialer api error: %s", resp.Status)
	}

	var r callResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if r.ID == "" {
		return "", fmt.Errorf("dialer returned empty call id")
	}
	return r.ID, nil
}
