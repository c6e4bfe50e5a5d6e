package service

// alert_service.go keeps the unread alert board in memory. Alerts are
// inserted by database triggers; a LISTEN loop reloads the board on every
// insert and pushes the new state to stream subscribers.

import (
	"context"
	"sync"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/metrics"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is how many snapshots a slow stream client may lag
// before updates to it are dropped.
const subscriberBuffer = 4

// Notifier delivers change notifications until ctx is cancelled.
type Notifier interface {
	Run(ctx context.Context, onNotify func(payload string))
}

type AlertService interface {
	Unread(ctx context.Context) (*dto.UnreadAlertsResponse, error)
	All(ctx context.Context) ([]dto.AlertResponse, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error)

	// Refresh reloads the unread list from the database.
	Refresh(ctx context.Context) error
	// Run reloads the board whenever n fires. It blocks until ctx ends,
	// then closes every subscriber channel.
	Run(ctx context.Context, n Notifier)
	// Subscribe returns a channel of board snapshots and its cancel func.
	// The channel is closed when Run stops.
	Subscribe() (<-chan dto.UnreadAlertsResponse, func())
}

type alertService struct {
	repo      repository.AlertRepository
	dashboard DashboardInvalidator
	metrics   *metrics.Metrics
	board     domain.AlertBoard[model.Alert]

	mu     sync.Mutex
	subs   map[chan dto.UnreadAlertsResponse]struct{}
	closed bool
}

// NewAlertService builds the board. dashboard may be nil; otherwise it is
// told whenever the unread figures change.
func NewAlertService(repo repository.AlertRepository, dashboard DashboardInvalidator, m *metrics.Metrics) AlertService {
	return &alertService{
		repo:      repo,
		dashboard: dashboard,
		metrics:   m,
		subs:      make(map[chan dto.UnreadAlertsResponse]struct{}),
	}
}

func (s *alertService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.InvalidateDashboard(ctx)
	}
}

func alertResponses(alerts []model.Alert) []dto.AlertResponse {
	out := make([]dto.AlertResponse, len(alerts))
	for i := range alerts {
		out[i] = alertResponse(&alerts[i])
	}
	return out
}

func (s *alertService) snapshot() dto.UnreadAlertsResponse {
	items, critical, _ := s.board.Snapshot()
	return dto.UnreadAlertsResponse{
		Alerts:        alertResponses(items),
		UnreadCount:   len(items),
		CriticalCount: critical,
	}
}

// Refresh fetches the unread set under a new epoch. A fetch that finishes
// after a newer one started is discarded.
func (s *alertService) Refresh(ctx context.Context) error {
	epoch := s.board.Begin()
	alerts, err := s.repo.ListUnread(ctx)
	if err != nil {
		s.metrics.AlertRefresh("error")
		return err
	}
	if !s.board.Commit(epoch, alerts) {
		s.metrics.AlertRefresh("stale")
		log.Debug().Uint64("epoch", epoch).Msg("alerts: discarded stale reload")
		return nil
	}
	s.metrics.AlertRefresh("applied")
	s.invalidateDashboard(ctx)
	s.broadcast()
	return nil
}

func (s *alertService) reload(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("alerts: reload failed")
	}
}

func (s *alertService) Run(ctx context.Context, n Notifier) {
	s.reload(ctx)
	var wg sync.WaitGroup
	n.Run(ctx, func(string) {
		// Reloads may overlap; the board epoch keeps the newest one.
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reload(ctx)
		}()
	})
	wg.Wait()
	s.closeSubscribers()
}

func (s *alertService) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
}

func (s *alertService) Subscribe() (<-chan dto.UnreadAlertsResponse, func()) {
	ch := make(chan dto.UnreadAlertsResponse, subscriberBuffer)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.subs[ch] = struct{}{}
	}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *alertService) broadcast() {
	snap := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			log.Debug().Msg("alerts: subscriber lagging, update dropped")
		}
	}
}

func (s *alertService) Unread(ctx context.Context) (*dto.UnreadAlertsResponse, error) {
	if _, _, loaded := s.board.Snapshot(); !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	snap := s.snapshot()
	return &snap, nil
}

func (s *alertService) All(ctx context.Context) ([]dto.AlertResponse, error) {
	alerts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return alertResponses(alerts), nil
}

// MarkRead is idempotent: marking an alert that is already read succeeds.
func (s *alertService) MarkRead(ctx context.Context, id uuid.UUID) error {
	changed, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	s.board.MarkRead(id)
	if changed {
		s.metrics.AlertsRead(1)
		s.invalidateDashboard(ctx)
	}
	s.reload(ctx)
	return nil
}

// MarkAllRead marks the alerts currently on the board, or every unread
// alert when the board has not been loaded yet. The board only changes once
// the database write succeeds.
func (s *alertService) MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error) {
	var ids []uuid.UUID
	if items, _, loaded := s.board.Snapshot(); loaded {
		for _, a := range items {
			ids = append(ids, a.ID)
		}
	} else {
		unread, err := s.repo.ListUnread(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range unread {
			ids = append(ids, a.ID)
		}
	}
	n, err := s.repo.MarkManyRead(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.board.MarkManyRead(ids)
	s.metrics.AlertsRead(int(n))
	if n > 0 {
		s.invalidateDashboard(ctx)
	}
	s.reload(ctx)
	return &dto.MarkAllReadResponse{Marked: int(n)}, nil
}
