package db

import (
	"context"

	"github.com/autovoice/calllog/internal/models"
)

// Campaign contact statuses. QUEUED rows are picked up by the campaign
// service; SUMMARY_RECEIVED is set when the webhook feeds a summary back.
const (
	ContactQueued          = "QUEUED"
	ContactCalling         = "CALLING"
	ContactCompleted       = "COMPLETED"
	ContactFailed          = "FAILED"
	ContactSummaryReceived = "SUMMARY_RECEIVED"
)

func (s *Store) EnsureCampaignLedger(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS campaign_contacts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		caller_phone_number TEXT NOT NULL DEFAULT '',
		attempt_count INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'QUEUED',
		last_called TIMESTAMPTZ,
		call_summary TEXT NOT NULL DEFAULT '',
		call_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

func (s *Store) EnqueueContact(ctx context.Context, name, phone string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO campaign_contacts (name, phone_number) VALUES ($1, $2) RETURNING id`,
		name, phone,
	).Scan(&id)
	return id, err
}

func (s *Store) QueuedContacts(ctx context.Context, limit int) ([]models.CampaignContact, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, phone_number, caller_phone_number, attempt_count, status, last_called, call_summary, call_id, notes
		FROM campaign_contacts
		WHERE status = $1
		ORDER BY attempt_count ASC, name ASC
		LIMIT $2
	`, ContactQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CampaignContact
	for rows.Next() {
		var c models.CampaignContact
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.CallerPhone, &c.AttemptCount, &c.Status, &c.LastCalled, &c.CallSummary, &c.CallID, &c.Notes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) MarkContactCalling(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE campaign_contacts SET status = $1, last_called = NOW() WHERE id = $2`,
		ContactCalling, id,
	)
	return err
}

func (s *Store) MarkContactResult(ctx context.Context, id, status, callID, notes string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE campaign_contacts
		SET status = $1, call_id = $2, notes = $3, attempt_count = attempt_count + 1
		WHERE id = $4
	`, status, callID, notes, id)
	return err
}

// AttachContactSummary records the end-of-call summary a webhook carried
// for an outbound campaign call. Returns false when no contact matches
// the call id.
func (s *Store) AttachContactSummary(ctx context.Context, callID, summary, callerPhone string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE campaign_contacts
		SET status = $1, call_summary = $2,
			caller_phone_number = CASE WHEN $3 <> '' THEN $3 ELSE caller_phone_number END
		WHERE call_id = $4
	`, ContactSummaryReceived, summary, callerPhone, callID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) CampaignCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.Pool.Query(ctx, `SELECT status, COUNT(*) FROM campaign_contacts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
