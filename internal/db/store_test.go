package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/autovoice/calllog/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func tempTable(t *testing.T, store *Store) string {
	t.Helper()
	table := fmt.Sprintf("calls_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = store.Pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
	})
	return table
}

func TestAppendRowIntegration(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	table := tempTable(t, store)

	if err := store.EnsureDestinations(ctx, []string{table}); err != nil {
		t.Fatalf("ensure destinations: %v", err)
	}
	// Idempotent on re-run.
	if err := store.EnsureDestinations(ctx, []string{table}); err != nil {
		t.Fatalf("ensure destinations twice: %v", err)
	}

	rec := models.NormalizedRecord{
		CallID:       "call_itest_1",
		Timestamp:    "2024-01-15 10:30:00",
		CallSummary:  "integration row",
		CallStatus:   "completed",
		CallerIntent: "Oil Change",
	}
	inserted, err := store.AppendRow(ctx, table, rec)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !inserted {
		t.Fatal("first append reported conflict")
	}

	inserted, err = store.AppendRow(ctx, table, rec)
	if err != nil {
		t.Fatalf("duplicate append: %v", err)
	}
	if inserted {
		t.Fatal("duplicate call id was inserted twice")
	}

	dup, err := store.HasRecentCall(ctx, table, rec.CallID, 500)
	if err != nil {
		t.Fatalf("recent check: %v", err)
	}
	if !dup {
		t.Error("recent window missed the appended call id")
	}
	dup, err = store.HasRecentCall(ctx, table, "call_absent", 500)
	if err != nil {
		t.Fatalf("recent check: %v", err)
	}
	if dup {
		t.Error("recent window matched an absent call id")
	}

	rows, last, err := store.DestinationStats(ctx, table)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
	if last == nil {
		t.Error("expected a last insert time")
	}
}

func TestCampaignLedgerIntegration(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.EnsureCampaignLedger(ctx); err != nil {
		t.Fatalf("ensure ledger: %v", err)
	}

	id, err := store.EnqueueContact(ctx, "Ann Example", "(555) 111-2222")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Pool.Exec(context.Background(), "DELETE FROM campaign_contacts WHERE id = $1", id)
	})

	queued, err := store.QueuedContacts(ctx, 100)
	if err != nil {
		t.Fatalf("queued: %v", err)
	}
	var found bool
	for _, c := range queued {
		if c.ID == id {
			found = true
			if c.Status != ContactQueued {
				t.Errorf("status = %q", c.Status)
			}
		}
	}
	if !found {
		t.Fatal("enqueued contact not returned")
	}

	if err := store.MarkContactCalling(ctx, id); err != nil {
		t.Fatalf("mark calling: %v", err)
	}
	if err := store.MarkContactResult(ctx, id, ContactCompleted, "call_itest_2", ""); err != nil {
		t.Fatalf("mark result: %v", err)
	}

	matched, err := store.AttachContactSummary(ctx, "call_itest_2", "wants winter tires", "(555) 111-2222")
	if err != nil {
		t.Fatalf("attach summary: %v", err)
	}
	if !matched {
		t.Fatal("summary did not match the contact by call id")
	}

	counts, err := store.CampaignCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[ContactSummaryReceived] == 0 {
		t.Errorf("counts = %v", counts)
	}
}
