package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/autovoice/calllog/internal/db"
	"github.com/autovoice/calllog/internal/models"
	"github.com/autovoice/calllog/internal/vapi"
)

type contactState struct {
	status string
	callID string
	notes  string
}

// fakeLedger is an in-memory stand-in for the campaign tables.
type fakeLedger struct {
	mu       sync.Mutex
	queue    []models.CampaignContact
	states   map[string]*contactState
	attached map[string]string
	queueErr error
}

func newFakeLedger(contacts ...models.CampaignContact) *fakeLedger {
	l := &fakeLedger{states: map[string]*contactState{}, attached: map[string]string{}}
	for _, c := range contacts {
		l.queue = append(l.queue, c)
		l.states[c.ID] = &contactState{status: db.ContactQueued}
	}
	return l
}

func (l *fakeLedger) QueuedContacts(_ context.Context, limit int) ([]models.CampaignContact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queueErr != nil {
		return nil, l.queueErr
	}
	var out []models.CampaignContact
	for _, c := range l.queue {
		if l.states[c.ID].status != db.ContactQueued {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *fakeLedger) MarkContactCalling(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id].status = db.ContactCalling
	return nil
}

func (l *fakeLedger) MarkContactResult(_ context.Context, id, status, callID, notes string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = &contactState{status: status, callID: callID, notes: notes}
	return nil
}

func (l *fakeLedger) AttachContactSummary(_ context.Context, callID, summary, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.states {
		if st.callID == callID {
			st.status = db.ContactSummaryReceived
			l.attached[callID] = summary
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) CampaignCounts(_ context.Context) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := map[string]int{}
	for _, st := range l.states {
		counts[st.status]++
	}
	return counts, nil
}

func (l *fakeLedger) state(id string) contactState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.states[id]
}

// failingDialer rejects every call.
type failingDialer struct{}

func (failingDialer) StartCall(context.Context, models.CampaignContact) (string, error) {
	return "", errors.New("dial rejected")
}

func newTestService(ledger Ledger, dialer vapi.Dialer) *Service {
	return &Service{
		Ledger:    ledger,
		Dialer:    dialer,
		Logger:    zerolog.Nop(),
		BatchSize: 2,
		Interval:  time.Hour,
	}
}

func TestProcessBatch_DialsQueuedContacts(t *testing.T) {
	ledger := newFakeLedger(
		models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"},
		models.CampaignContact{ID: "id2", Name: "Bob", PhoneNumber: "(555) 333-4444"},
		models.CampaignContact{ID: "id3", Name: "Cid", PhoneNumber: "(555) 555-6666"},
	)
	svc := newTestService(ledger, &vapi.MockDialer{})

	if n := svc.ProcessBatch(context.Background()); n != 2 {
		t.Fatalf("ProcessBatch = %d, want batch size 2", n)
	}
	for _, id := range []string{"id1", "id2"} {
		st := ledger.state(id)
		if st.status != db.ContactCompleted {
			t.Errorf("%s status = %q", id, st.status)
		}
		if st.callID == "" {
			t.Errorf("%s has no call id", id)
		}
	}
	if st := ledger.state("id3"); st.status != db.ContactQueued {
		t.Errorf("id3 should stay queued, got %q", st.status)
	}
}

func TestProcessBatch_MarksFailures(t *testing.T) {
	ledger := newFakeLedger(models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"})
	svc := newTestService(ledger, failingDialer{})

	if n := svc.ProcessBatch(context.Background()); n != 1 {
		t.Fatalf("ProcessBatch = %d, want 1", n)
	}
	st := ledger.state("id1")
	if st.status != db.ContactFailed {
		t.Errorf("status = %q, want %q", st.status, db.ContactFailed)
	}
	if st.notes == "" {
		t.Error("expected failure notes")
	}
}

func TestProcessBatch_EmptyQueue(t *testing.T) {
	svc := newTestService(newFakeLedger(), &vapi.MockDialer{})
	if n := svc.ProcessBatch(context.Background()); n != 0 {
		t.Fatalf("ProcessBatch = %d, want 0", n)
	}
}

func TestStartStop(t *testing.T) {
	ledger := newFakeLedger(
		models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"},
		models.CampaignContact{ID: "id2", Name: "Bob", PhoneNumber: "(555) 333-4444"},
		models.CampaignContact{ID: "id3", Name: "Cid", PhoneNumber: "(555) 555-6666"},
	)
	svc := newTestService(ledger, &vapi.MockDialer{})

	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if svc.Running() {
		t.Error("service still reports running after Stop")
	}
	if err := svc.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Stop = %v, want ErrNotRunning", err)
	}
}

func TestRun_DrainsAndAllowsRestart(t *testing.T) {
	ledger := newFakeLedger(models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"})
	svc := newTestService(ledger, &vapi.MockDialer{})
	svc.Interval = 10 * time.Millisecond

	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for svc.Running() {
		select {
		case <-deadline:
			t.Fatal("campaign did not drain")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if st := ledger.state("id1"); st.status != db.ContactCompleted {
		t.Fatalf("status = %q", st.status)
	}
	// A drained campaign can be started again.
	if err := svc.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	_ = svc.Stop()
}

func TestRecordSummary(t *testing.T) {
	ledger := newFakeLedger(models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"})
	svc := newTestService(ledger, &vapi.MockDialer{})
	if svc.ProcessBatch(context.Background()) != 1 {
		t.Fatal("expected one dialed contact")
	}
	callID := ledger.state("id1").callID

	matched, err := svc.RecordSummary(context.Background(), callID, "caller wants a quote", "(555) 111-2222")
	if err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}
	if !matched {
		t.Fatal("summary did not match the dialed contact")
	}
	if st := ledger.state("id1"); st.status != db.ContactSummaryReceived {
		t.Errorf("status = %q", st.status)
	}

	matched, err = svc.RecordSummary(context.Background(), "call_unknown", "stray summary", "")
	if err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}
	if matched {
		t.Error("unknown call id should not match")
	}
}

func TestStatus(t *testing.T) {
	ledger := newFakeLedger(models.CampaignContact{ID: "id1", Name: "Ann", PhoneNumber: "(555) 111-2222"})
	svc := newTestService(ledger, &vapi.MockDialer{})

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status["is_running"] != false {
		t.Errorf("is_running = %v", status["is_running"])
	}
	stats, ok := status["statistics"].(map[string]int)
	if !ok || stats[db.ContactQueued] != 1 {
		t.Errorf("statistics = %v", status["statistics"])
	}
}
