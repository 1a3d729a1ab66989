package campaign

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/autovoice/calllog/internal/db"
	"github.com/autovoice/calllog/internal/models"
	"github.com/autovoice/calllog/internal/vapi"
)

var (
	ErrAlreadyRunning = errors.New("campaign already running")
	ErrNotRunning     = errors.New("no campaign running")
)

// Ledger is the slice of the store the campaign service needs.
type Ledger interface {
	QueuedContacts(ctx context.Context, limit int) ([]models.CampaignContact, error)
	MarkContactCalling(ctx context.Context, id string) error
	MarkContactResult(ctx context.Context, id, status, callID, notes string) error
	AttachContactSummary(ctx context.Context, callID, summary, callerPhone string) (bool, error)
	CampaignCounts(ctx context.Context) (map[string]int, error)
}

// Service runs outbound call batches against the queued contacts in the
// ledger, spacing batches by Interval to stay under platform rate
// limits. The webhook feeds summaries back via RecordSummary.
type Service struct {
	Ledger    Ledger
	Dialer    vapi.Dialer
	Logger    zerolog.Logger
	BatchSize int
	Interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start launches batch processing on a background context; the campaign
// outlives the request that started it and runs until drained or
// stopped.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
	s.Logger.Info().Int("batch_size", s.BatchSize).Dur("interval", s.Interval).Msg("campaign started")
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.cancel()
	<-s.done
	s.running = false
	s.Logger.Info().Msg("campaign stopped")
	return nil
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Service) runningLocked() bool {
	if !s.running {
		return false
	}
	// The run loop exits on its own once the queue drains.
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Service) Status(ctx context.Context) (map[string]any, error) {
	counts, err := s.Ledger.CampaignCounts(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"is_running": s.Running(),
		"statistics": counts,
		"configuration": map[string]any{
			"calls_per_batch": s.BatchSize,
			"batch_interval":  s.Interval.String(),
		},
	}, nil
}

// RecordSummary attaches an end-of-call summary to the matching
// campaign contact, if any.
func (s *Service) RecordSummary(ctx context.Context, callID, summary, callerPhone string) (bool, error) {
	return s.Ledger.AttachContactSummary(ctx, callID, summary, callerPhone)
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First batch goes out immediately.
	if s.ProcessBatch(ctx) == 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.ProcessBatch(ctx) == 0 {
				s.Logger.Info().Msg("campaign drained")
				return
			}
		}
	}
}

// ProcessBatch dials up to BatchSize queued contacts and returns how
// many it attempted.
func (s *Service) ProcessBatch(ctx context.Context) int {
	contacts, err := s.Ledger.QueuedContacts(ctx, s.BatchSize)
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to load queued contacts")
		return 0
	}
	if len(contacts) == 0 {
		return 0
	}

	s.Logger.Info().Int("count", len(contacts)).Msg("processing campaign batch")
	for _, c := range contacts {
		s.dial(ctx, c)
	}
	return len(contacts)
}

func (s *Service) dial(ctx context.Context, c models.CampaignContact) {
	if err := s.Ledger.MarkContactCalling(ctx, c.ID); err != nil {
		s.Logger.Error().Err(err).Str("contact_id", c.ID).Msg("failed to mark contact calling")
		return
	}

	callID, err := s.Dialer.StartCall(ctx, c)
	if err != nil {
		s.Logger.Error().Err(err).Str("contact_id", c.ID).Msg("outbound call failed")
		if err := s.Ledger.MarkContactResult(ctx, c.ID, db.ContactFailed, "", err.Error()); err != nil {
			s.Logger.Error().Err(err).Str("contact_id", c.ID).Msg("failed to record call failure")
		}
		return
	}

	if err := s.Ledger.MarkContactResult(ctx, c.ID, db.ContactCompleted, callID, ""); err != nil {
		s.Logger.Error().Err(err).Str("contact_id", c.ID).Msg("failed to record call result")
		return
	}
	s.Logger.Info().Str("contact_id", c.ID).Str("call_id", callID).Msg("call initiated")
}
