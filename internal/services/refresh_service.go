package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soltixdb/casetrend/internal/events"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/session"
	"github.com/soltixdb/casetrend/internal/utils"
)

// TableLoader produces a freshly validated table
type TableLoader interface {
	Load(ctx context.Context) (*series.Table, error)
}

// RefreshService reloads the case tables, swaps them into the store, moves
// sessions onto the new snapshot and tells other instances about it.
// Computations that already hold the previous snapshot finish against it.
type RefreshService struct {
	logger     *logging.Logger
	loader     TableLoader
	store      *series.Store
	sessions   *session.Manager
	bus        events.Bus
	subject    string
	instanceID string
	interval   time.Duration

	mu sync.Mutex
}

// NewRefreshService creates a new RefreshService. bus may be nil, in which
// case refreshes stay local.
func NewRefreshService(
	logger *logging.Logger,
	loader TableLoader,
	store *series.Store,
	sessions *session.Manager,
	bus events.Bus,
	subject, instanceID string,
	interval time.Duration,
) *RefreshService {
	return &RefreshService{
		logger:     logger,
		loader:     loader,
		store:      store,
		sessions:   sessions,
		bus:        bus,
		subject:    subject,
		instanceID: instanceID,
		interval:   interval,
	}
}

// Reload loads and installs a new table without notifying other instances
func (s *RefreshService) Reload(ctx context.Context) (*series.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	table, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("Table reload failed", "error", err)
		var integrityErr *series.DataIntegrityError
		if errors.As(err, &integrityErr) {
			return nil, translate(err)
		}
		return nil, NewServiceErrorWithDetails(CodeRefreshFailed, "failed to load case tables",
			map[string]interface{}{"error": err.Error()})
	}

	snap := s.store.Swap(table)
	failed := s.sessions.RebindAll(snap)

	s.logger.Info("Table installed",
		"version", snap.Version,
		"countries", len(table.Countries()),
		"dates", table.Len(),
		"sessions", s.sessions.Len(),
		"rebind_failures", failed,
		"latency_ms", time.Since(startTime).Milliseconds())
	return snap, nil
}

// Refresh reloads the table and broadcasts a RefreshEvent. A failed broadcast
// is logged; the local refresh still counts.
func (s *RefreshService) Refresh(ctx context.Context) (*series.Snapshot, error) {
	snap, err := s.Reload(ctx)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, snap)
	return snap, nil
}

func (s *RefreshService) publish(ctx context.Context, snap *series.Snapshot) {
	if s.bus == nil {
		return
	}

	event := events.RefreshEvent{
		Origin:    s.instanceID,
		Version:   snap.Version,
		Countries: len(snap.Table.Countries()),
		Dates:     snap.Table.Len(),
		LoadedAt:  snap.LoadedAt,
	}
	data, err := event.Encode()
	if err != nil {
		s.logger.Error("Failed to encode refresh event", "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, utils.EventPublishTimeout)
	defer cancel()
	if err := s.bus.Publish(pubCtx, s.subject, data); err != nil {
		s.logger.Warn("Failed to publish refresh event", "subject", s.subject, "error", err)
		return
	}
	s.logger.Debug("Refresh event published", "subject", s.subject, "version", snap.Version)
}

// HandleEvent reacts to a RefreshEvent from another instance by reloading.
// Events published by this instance are ignored.
func (s *RefreshService) HandleEvent(ctx context.Context, subject string, data []byte) error {
	event, err := events.DecodeRefreshEvent(data)
	if err != nil {
		return err
	}
	if event.Origin == s.instanceID {
		return nil
	}

	s.logger.Info("Refresh event received", "origin", event.Origin, "remote_version", event.Version)
	_, err = s.Reload(ctx)
	return err
}

// Start subscribes to refresh events and, when an interval is configured,
// refreshes periodically until ctx is cancelled
func (s *RefreshService) Start(ctx context.Context) error {
	if s.bus != nil {
		if err := s.bus.Subscribe(ctx, s.subject, s.HandleEvent); err != nil {
			return err
		}
	}

	if s.interval > 0 {
		go s.loop(ctx)
	}
	return nil
}

func (s *RefreshService) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn("Scheduled refresh failed, keeping previous table", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
