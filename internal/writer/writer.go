package writer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/autovoice/calllog/internal/models"
	"github.com/autovoice/calllog/internal/routing"
)

// DestinationStore is the slice of the row store the writer needs.
type DestinationStore interface {
	AppendRow(ctx context.Context, table string, rec models.NormalizedRecord) (bool, error)
	HasRecentCall(ctx context.Context, table, callID string, window int) (bool, error)
}

// Writer appends normalized records to their destination table
// exactly-effectively-once: soft duplicate suppression over the recent
// row window, the table's unique constraint as the final arbiter, and
// bounded retries for transient store failures.
type Writer struct {
	Store       DestinationStore
	Routes      routing.Table
	Policy      RetryPolicy
	DedupWindow int
	Logger      zerolog.Logger
}

func (w *Writer) Write(ctx context.Context, agentID string, rec models.NormalizedRecord) (models.WriteResult, error) {
	dest, usedDefault := w.Routes.Resolve(agentID)
	result := models.WriteResult{Destination: dest, RoutedDefault: usedDefault}
	if usedDefault {
		w.Logger.Warn().
			Str("agent_id", agentID).
			Str("destination", dest).
			Str("call_id", rec.CallID).
			Msg("unknown agent, routing to default destination")
	}

	// Check-then-act: re-checked immediately before the append; the
	// unique constraint covers the remaining race window.
	dup, err := w.Store.HasRecentCall(ctx, dest, rec.CallID, w.DedupWindow)
	if err != nil {
		w.Logger.Warn().Err(err).Str("destination", dest).Msg("duplicate check failed, proceeding with append")
	} else if dup {
		result.Duplicate = true
		return result, nil
	}

	var lastErr error
	for attempt := 1; attempt <= w.Policy.MaxAttempts; attempt++ {
		result.Attempts = attempt
		inserted, err := w.Store.AppendRow(ctx, dest, rec)
		if err == nil {
			result.Appended = inserted
			result.Duplicate = !inserted
			return result, nil
		}
		lastErr = err

		if w.Policy.Retryable == nil || !w.Policy.Retryable(err) {
			w.Logger.Error().Err(err).
				Str("destination", dest).
				Str("call_id", rec.CallID).
				Msg("fatal write failure")
			return result, fmt.Errorf("append to %s: %w", dest, err)
		}
		if attempt == w.Policy.MaxAttempts {
			break
		}

		delay := w.Policy.delay(attempt)
		w.Logger.Warn().Err(err).
			Str("destination", dest).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("transient write failure, retrying")
		if err := w.Policy.Sleep(ctx, delay); err != nil {
			return result, fmt.Errorf("append to %s: %w", dest, err)
		}
	}

	w.Logger.Error().Err(lastErr).
		Str("destination", dest).
		Str("call_id", rec.CallID).
		Int("attempts", result.Attempts).
		Msg("write retries exhausted")
	return result, fmt.Errorf("append to %s after %d attempts: %w", dest, result.Attempts, lastErr)
}
