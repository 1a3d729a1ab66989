package parser

import "time"

// followUpOffsets maps caller intent to the staff callback deadline in
// days from the call timestamp. Unmapped intents get the default.
var followUpOffsets = map[string]int{
	"Emergency":           0,
	"Appointment Booking": 1,
	"Price Quote":         2,
	"Oil Change":          2,
	"Tire Service":        2,
	"Battery":             2,
	"Brake Service":       3,
	"Engine Repair":       3,
	"Transmission":        3,
	"Inspection":          3,
	"General Inquiry":     7,
}

const defaultFollowUpDays = 3

// FollowUpDue returns the callback target date for an intent, relative
// to the call timestamp.
func FollowUpDue(intent string, callTime time.Time) string {
	days, ok := followUpOffsets[intent]
	if !ok {
		days = defaultFollowUpDays
	}
	return callTime.AddDate(0, 0, days).Format("2006-01-02")
}
