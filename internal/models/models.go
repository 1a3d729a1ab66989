package models

import "time"

// NormalizedRecord is the fixed-shape row produced from one end-of-call
// report. Every field is always present; "" marks missing or unparseable
// source data. Field order here is the column order in the destination
// tables.
type NormalizedRecord struct {
	CallID            string `json:"call_id"`
	Timestamp         string `json:"timestamp"`
	CallSummary       string `json:"call_summary"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	CallerPhoneNumber string `json:"caller_phone_number"`
	CallerIntent      string `json:"caller_intent"`
	VehicleMake       string `json:"vehicle_make"`
	VehicleModel      string `json:"vehicle_model"`
	VehicleKM         string `json:"vehicle_km"`
	CallDuration      string `json:"call_duration"`
	CallStatus        string `json:"call_status"`
	EscalationStatus  string `json:"escalation_status"`
	FollowUpDue       string `json:"follow_up_due"`
	SuccessEvaluation string `json:"success_evaluation"`
	RawPayload        string `json:"raw_payload"`
}

// Columns lists the destination column names in row order.
func Columns() []string {
	return []string{
		"call_id", "timestamp", "call_summary", "name", "email",
		"phone_number", "caller_phone_number", "caller_intent",
		"vehicle_make", "vehicle_model", "vehicle_km",
		"call_duration", "call_status", "escalation_status",
		"follow_up_due", "success_evaluation", "raw_payload",
	}
}

// Values returns the record's fields in the same order as Columns.
func (r NormalizedRecord) Values() []any {
	return []any{
		r.CallID, r.Timestamp, r.CallSummary, r.Name, r.Email,
		r.PhoneNumber, r.CallerPhoneNumber, r.CallerIntent,
		r.VehicleMake, r.VehicleModel, r.VehicleKM,
		r.CallDuration, r.CallStatus, r.EscalationStatus,
		r.FollowUpDue, r.SuccessEvaluation, r.RawPayload,
	}
}

type WriteResult struct {
	Destination   string `json:"destination"`
	Appended      bool   `json:"appended"`
	Duplicate     bool   `json:"duplicate"`
	RoutedDefault bool   `json:"routed_default"`
	Attempts      int    `json:"attempts"`
}

type DestinationStats struct {
	Agent      string     `json:"agent"`
	Table      string     `json:"table"`
	Rows       int64      `json:"rows"`
	LastInsert *time.Time `json:"last_insert"`
}

// CampaignContact is one row of the outbound campaign ledger.
type CampaignContact struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	PhoneNumber  string     `json:"phone_number"`
	CallerPhone  string     `json:"caller_phone_number"`
	AttemptCount int        `json:"attempt_count"`
	Status       string     `json:"status"`
	LastCalled   *time.Time `json:"last_called"`
	CallSummary  string     `json:"call_summary"`
	CallID       string     `json:"call_id"`
	Notes        string     `json:"notes"`
}
