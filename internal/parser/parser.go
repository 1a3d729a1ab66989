package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/autovoice/calllog/internal/models"
)

const (
	CallReportType = "end-of-call-report"

	maxSummaryLen = 1000
	maxNameLen    = 100
	maxIntentLen  = 50
	maxPayloadLen = 500
	maxVehicleKM  = 999999
)

// ErrMissingCallID means the payload was a recognized call report but
// carried no call identifier; no record is produced.
var ErrMissingCallID = errors.New("call id missing from payload")

// IgnoredError marks a payload whose message type is not a call report.
// The event is acknowledged but produces no record.
type IgnoredError struct {
	MessageType string
}

func (e IgnoredError) Error() string {
	return fmt.Sprintf("ignoring message type %q", e.MessageType)
}

// Warning records a field that failed validation and was stored as its
// sentinel. Warnings never block the record.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validate     = validator.New()
	titleCaser   = cases.Title(language.English)
	groupPrinter = message.NewPrinter(language.English)
)

// Parse turns one decoded webhook payload into a NormalizedRecord. It is
// pure: no I/O, and a missing optional field always yields the field's
// sentinel rather than an error. receivedAt is the fallback timestamp
// when the payload's own timestamp is absent or unparseable.
func Parse(payload map[string]any, receivedAt time.Time) (models.NormalizedRecord, []Warning, error) {
	call, analysis, err := unwrap(payload)
	if err != nil {
		return models.NormalizedRecord{}, nil, err
	}

	callID := getString(call, "id")
	if callID == "" {
		return models.NormalizedRecord{}, nil, ErrMissingCallID
	}

	structured := getMap(analysis, "structuredData")
	summary := cleanText(getString(analysis, "summary"), maxSummaryLen)
	intent := normalizeIntent(structuredField(structured, "caller_intent", "CallerIntent"))

	var warnings []Warning
	warn := func(field, msg string) {
		warnings = append(warnings, Warning{Field: field, Message: msg})
	}

	ts, ok := parseTimestamp(getString(call, "created_at"), receivedAt)
	if !ok {
		warn("timestamp", "unparseable created_at, using receipt time")
	}

	email, ok := normalizeEmail(structuredField(structured, "customer_email", "Email"))
	if !ok {
		warn("email", "invalid email format")
	}

	phone, ok := NormalizePhone(structuredField(structured, "customer_phone", "PhoneNumber"))
	if !ok {
		warn("phone_number", "invalid phone number")
	}

	callerPhone, ok := NormalizePhone(callerPhoneSource(call))
	if !ok {
		warn("caller_phone_number", "invalid caller phone number")
	}

	km, ok := normalizeMileage(structuredValue(structured, "vehicle_km", "VehicleKM"))
	if !ok {
		warn("vehicle_km", "mileage missing, non-numeric, or out of range")
	}

	rec := models.NormalizedRecord{
		CallID:            callID,
		Timestamp:         ts.Format("2006-01-02 15:04:05"),
		CallSummary:       summary,
		Name:              formatName(structuredField(structured, "customer_name", "Name")),
		Email:             email,
		PhoneNumber:       phone,
		CallerPhoneNumber: callerPhone,
		CallerIntent:      intent,
		VehicleMake:       cleanText(structuredField(structured, "vehicle_make", "VehicleMake"), maxNameLen),
		VehicleModel:      cleanText(structuredField(structured, "vehicle_model", "VehicleModel"), maxNameLen),
		VehicleKM:         km,
		CallDuration:      numericString(call["duration"]),
		CallStatus:        callStatus(call),
		EscalationStatus:  DeriveEscalation(summary, intent),
		FollowUpDue:       FollowUpDue(intent, ts),
		SuccessEvaluation: stringify(analysis["successEvaluation"]),
		RawPayload:        payloadExcerpt(payload),
	}
	return rec, warnings, nil
}

// MessageType returns the payload's declared type, looking through the
// nested "message" envelope if needed.
func MessageType(payload map[string]any) string {
	if t := getString(payload, "type"); t != "" {
		return t
	}
	return getString(getMap(payload, "message"), "type")
}

// AgentID extracts the assistant identifier used for destination
// routing, from either the direct or the nested envelope.
func AgentID(payload map[string]any) string {
	call, _, err := unwrap(payload)
	if err != nil {
		return ""
	}
	return getString(getMap(call, "assistant"), "id")
}

// unwrap resolves the three envelope shapes the platform is known to
// send: type at the top level, type under "message", or the legacy
// shape with summary/structured at the root.
func unwrap(payload map[string]any) (call, analysis map[string]any, err error) {
	switch {
	case getString(payload, "type") == CallReportType:
		return getMap(payload, "call"), getMap(payload, "analysis"), nil
	case getString(getMap(payload, "message"), "type") == CallReportType:
		msg := getMap(payload, "message")
		return getMap(msg, "call"), getMap(msg, "analysis"), nil
	}

	msgType := getString(payload, "type")
	if msgType == "" {
		msgType = getString(getMap(payload, "message"), "type")
	}
	if msgType != "" {
		return nil, nil, IgnoredError{MessageType: msgType}
	}

	// Legacy shape: no type tag at all.
	analysis = map[string]any{
		"summary":        getString(getMap(payload, "summary"), "text"),
		"structuredData": getMap(payload, "structured"),
	}
	return getMap(payload, "call"), analysis, nil
}

func parseTimestamp(raw string, receivedAt time.Time) (time.Time, bool) {
	if raw == "" {
		return receivedAt.Local(), false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Local(), true
		}
	}
	return receivedAt.Local(), false
}

// cleanText collapses internal whitespace and caps the length, marking
// truncation with an ellipsis instead of dropping text silently.
func cleanText(text string, max int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > max {
		return cleaned[:max-3] + "..."
	}
	return cleaned
}

func formatName(name string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if cleaned == "" {
		return ""
	}
	formatted := titleCaser.String(strings.ToLower(cleaned))
	if len(formatted) > maxNameLen {
		formatted = formatted[:maxNameLen]
	}
	return formatted
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", true
	}
	_, domain, found := strings.Cut(email, "@")
	if !found || !strings.Contains(domain, ".") {
		return "", false
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return "", false
	}
	return email, true
}

// NormalizePhone strips everything but digits and formats a 10-digit
// number (optionally with a leading country digit 1) as (NNN) NNN-NNNN.
// Anything else comes back as the empty sentinel. Already-normalized
// input round-trips unchanged.
func NormalizePhone(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", true
	}
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return "", false
	}
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), true
}

// validIntents is advisory: matching input is re-cased to the canonical
// spelling, anything else passes through as free text.
var validIntents = []string{
	"Oil Change", "Tire Service", "Brake Service", "Engine Repair",
	"Transmission", "Battery", "Inspection", "General Inquiry",
	"Appointment Booking", "Price Quote", "Emergency",
}

func normalizeIntent(raw string) string {
	intent := strings.TrimSpace(raw)
	if intent == "" {
		return ""
	}
	for _, valid := range validIntents {
		if strings.EqualFold(intent, valid) {
			return valid
		}
	}
	if len(intent) > maxIntentLen {
		intent = intent[:maxIntentLen]
	}
	return intent
}

func normalizeMileage(value any) (string, bool) {
	raw := strings.TrimSpace(stringify(value))
	if raw == "" {
		return "", true
	}
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, ",", ""), " ", "")
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	km := int64(n)
	if km < 0 || km > maxVehicleKM {
		return "", false
	}
	return groupPrinter.Sprintf("%d", km), true
}

func callerPhoneSource(call map[string]any) string {
	if from := getString(call, "from"); from != "" {
		return from
	}
	return getString(getMap(call, "customer"), "number")
}

func callStatus(call map[string]any) string {
	if s := getString(call, "status"); s != "" {
		return s
	}
	return "unknown"
}

func payloadExcerpt(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	if len(b) > maxPayloadLen {
		return string(b[:maxPayloadLen])
	}
	return string(b)
}

func structuredField(structured map[string]any, keys ...string) string {
	return stringify(structuredValue(structured, keys...))
}

func structuredValue(structured map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := structured[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if sub, ok := m[key].(map[string]any); ok {
		return sub
	}
	return nil
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return stringify(m[key])
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return numericString(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func numericString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case string:
		return strings.TrimSpace(t)
	default:
		return ""
	}
}
