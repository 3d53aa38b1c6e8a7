package leads

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"Sparkle/internal/alert"
	"Sparkle/internal/repo"
	"Sparkle/internal/sheets"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSubmitInFlight = errors.New("this form is already being submitted")
	ErrBadToken       = errors.New("invalid export token")
	ErrFormReused     = errors.New("this form id belongs to a different submission")
	ErrExportInFlight = errors.New("an export for this submission is already running")
)

const backgroundTimeout = 30 * time.Second

type Exporter interface {
	Configured(kind repo.Kind) bool
	Export(ctx context.Context, l repo.Lead) sheets.Result
}

type Receipt struct {
	ID           int64  `json:"id"`
	ExportStatus string `json:"export_status"`
	ExportToken  string `json:"export_token"`
}

type ExportState struct {
	ID            int64  `json:"id"`
	Status        string `json:"export_status"`
	Error         string `json:"export_error,omitempty"`
	ConfigMissing bool   `json:"config_missing"`
}

type Service struct {
	Store    repo.LeadStore
	Exporter Exporter
	Notifier alert.Notifier
	Log      *zap.Logger

	now      func() time.Time
	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func NewService(store repo.LeadStore, exporter Exporter, notifier alert.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = alert.NoopNotifier{Log: log}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Store:    store,
		Exporter: exporter,
		Notifier: notifier,
		Log:      log,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// claim marks key as in flight. It reports false if it already was.
func (s *Service) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// Submit stores a lead and returns as soon as it is persisted. The spreadsheet
// export and the sales alert run afterwards in the background.
func (s *Service) Submit(ctx context.Context, kind repo.Kind, sub Submission) (Receipt, error) {
	if errs := Validate(kind, &sub); len(errs) > 0 {
		return Receipt{}, errs
	}

	if sub.FormID != "" {
		if !s.claim("form:" + sub.FormID) {
			return Receipt{}, ErrSubmitInFlight
		}
		defer s.release("form:" + sub.FormID)

		if prev, err := s.Store.LeadByFormID(ctx, sub.FormID); err == nil {
			return s.replay(prev, kind, sub)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return Receipt{}, fmt.Errorf("look up form %s: %w", sub.FormID, err)
		}
	}

	l := toLead(kind, sub)
	l.ExportToken = uuid.NewString()
	l.CreatedAt = s.now()
	l.ExportStatus = repo.ExportSkipped
	if s.Exporter != nil && s.Exporter.Configured(kind) {
		l.ExportStatus = repo.ExportPending
	}

	id, err := s.Store.CreateLead(ctx, l)
	if err != nil {
		// another instance may have stored the same form first
		if sub.FormID != "" {
			if prev, lookupErr := s.Store.LeadByFormID(ctx, sub.FormID); lookupErr == nil {
				return s.replay(prev, kind, sub)
			}
		}
		return Receipt{}, fmt.Errorf("store %s lead: %w", kind, err)
	}
	l.ID = id
	s.Log.Info("lead stored", zap.Int64("lead_id", id), zap.String("kind", string(kind)), zap.String("export", l.ExportStatus))

	exporting := l.ExportStatus == repo.ExportPending && s.claim(exportKey(id))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()

		if exporting {
			s.export(bg, l)
			s.release(exportKey(id))
		}
		if err := s.Notifier.LeadSubmitted(bg, l); err != nil {
			s.Log.Warn("lead alert failed", zap.Int64("lead_id", l.ID), zap.Error(err))
		}
	}()

	return receiptOf(l), nil
}

// replay returns the receipt of an already stored form, but only when the
// resubmission is the same lead.
func (s *Service) replay(prev repo.Lead, kind repo.Kind, sub Submission) (Receipt, error) {
	next := toLead(kind, sub)
	if prev.Kind != next.Kind || prev.Name != next.Name || prev.CompanyName != next.CompanyName ||
		prev.PhoneNumber != next.PhoneNumber || prev.Email != next.Email ||
		prev.Location != next.Location || prev.Details != next.Details {
		s.Log.Warn("form id reused", zap.String("form_id", sub.FormID),
			zap.String("stored_kind", string(prev.Kind)), zap.String("kind", string(kind)))
		return Receipt{}, ErrFormReused
	}
	return receiptOf(prev), nil
}

func exportKey(id int64) string { return fmt.Sprintf("export:%d", id) }

func receiptOf(l repo.Lead) Receipt {
	return Receipt{ID: l.ID, ExportStatus: l.ExportStatus, ExportToken: l.ExportToken}
}

func (s *Service) export(ctx context.Context, l repo.Lead) ExportState {
	res := s.Exporter.Export(ctx, l)
	state := ExportState{ID: l.ID}
	switch {
	case res.ConfigMissing:
		state.Status, state.ConfigMissing = repo.ExportSkipped, true
	case res.Success:
		state.Status = repo.ExportOK
	default:
		state.Status, state.Error = repo.ExportFailed, res.Error
		s.Log.Warn("spreadsheet export failed",
			zap.Int64("lead_id", l.ID), zap.String("delivery_id", res.DeliveryID), zap.String("error", res.Error))
	}
	if err := s.Store.UpdateExport(ctx, l.ID, state.Status, state.Error); err != nil {
		s.Log.Error("record export outcome", zap.Int64("lead_id", l.ID), zap.Error(err))
	}
	return state
}

func (s *Service) authorize(ctx context.Context, id int64, token string) (repo.Lead, error) {
	l, err := s.Store.GetLead(ctx, id)
	if err != nil {
		return repo.Lead{}, err
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(l.ExportToken)) != 1 {
		return repo.Lead{}, ErrBadToken
	}
	return l, nil
}

func (s *Service) ExportStatus(ctx context.Context, id int64, token string) (ExportState, error) {
	l, err := s.authorize(ctx, id, token)
	if err != nil {
		return ExportState{}, err
	}
	return ExportState{
		ID:            l.ID,
		Status:        l.ExportStatus,
		Error:         l.ExportError,
		ConfigMissing: l.ExportStatus == repo.ExportSkipped,
	}, nil
}

// RetryExport re-runs the export synchronously. A lead already exported is
// left alone, an unconfigured kind reports ConfigMissing instead of failing,
// and a retry while another export of the lead runs gets ErrExportInFlight.
func (s *Service) RetryExport(ctx context.Context, id int64, token string) (ExportState, error) {
	l, err := s.authorize(ctx, id, token)
	if err != nil {
		return ExportState{}, err
	}
	if l.ExportStatus == repo.ExportOK {
		return ExportState{ID: l.ID, Status: repo.ExportOK}, nil
	}
	if s.Exporter == nil || !s.Exporter.Configured(l.Kind) {
		return ExportState{ID: l.ID, Status: repo.ExportSkipped, ConfigMissing: true}, nil
	}
	if !s.claim(exportKey(l.ID)) {
		return ExportState{}, ErrExportInFlight
	}
	defer s.release(exportKey(l.ID))
	return s.export(ctx, l), nil
}

// Wait blocks until every background export and alert has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
