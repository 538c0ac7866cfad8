package services

import (
	"fmt"
	"time"

	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/session"
	"github.com/soltixdb/casetrend/internal/view"
)

// DashboardService answers dataset, ranking and session requests against the
// current table snapshot
type DashboardService struct {
	logger   *logging.Logger
	store    *series.Store
	sessions *session.Manager
	defaults view.Parameters
	rule     ranking.ExclusionRule
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	logger *logging.Logger,
	store *series.Store,
	sessions *session.Manager,
	defaults view.Parameters,
	rule ranking.ExclusionRule,
) *DashboardService {
	return &DashboardService{
		logger:   logger,
		store:    store,
		sessions: sessions,
		defaults: defaults,
		rule:     rule,
	}
}

// DatasetResult is a dataset together with the parameters that produced it
type DatasetResult struct {
	Params       view.Parameters
	Dataset      *dataset.Flat
	TableVersion uint64
}

// TableInfo describes the loaded table
type TableInfo struct {
	Version   uint64
	LoadedAt  time.Time
	Countries int
	Dates     int
	FirstDate time.Time
	LastDate  time.Time
	Sessions  int
}

// snapshot returns the current table or TABLE_NOT_LOADED
func (s *DashboardService) snapshot() (*series.Snapshot, error) {
	snap := s.store.Current()
	if snap == nil || snap.Table == nil {
		return nil, NewServiceError(CodeTableNotLoaded, "case tables have not been loaded yet")
	}
	return snap, nil
}

// Defaults returns a copy of the default parameters
func (s *DashboardService) Defaults() view.Parameters {
	return s.defaults.Clone()
}

// Countries lists every country of the current table in table order
func (s *DashboardService) Countries() ([]string, uint64, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, 0, err
	}
	return snap.Table.Countries(), snap.Version, nil
}

// Resolve maps free-form text to a canonical country identifier
func (s *DashboardService) Resolve(name string) (string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return "", err
	}
	country, ok := snap.Table.ResolveCountry(name)
	if !ok {
		return "", NewServiceErrorWithDetails(CodeCountryNotFound,
			fmt.Sprintf("country not found: %q", name),
			map[string]interface{}{"name": name})
	}
	return country, nil
}

// Dataset builds a dataset from request arguments without storing any state
func (s *DashboardService) Dataset(query map[string][]string) (*DatasetResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	params, err := view.ParseQuery(query, snap.Table, s.defaults)
	if err != nil {
		return nil, translate(err)
	}

	flat, err := view.Recompute(params, snap.Table)
	if err != nil {
		return nil, translate(err)
	}

	s.logger.Debug("Dataset computed",
		"countries", len(params.Countries),
		"category", params.Category,
		"per_capita", params.PerCapita,
		"window_size", params.WindowSize,
		"series", flat.Len())

	return &DatasetResult{Params: params, Dataset: flat, TableVersion: snap.Version}, nil
}

// Ranking ranks every country for the category, per-capita and window
// arguments of query
func (s *DashboardService) Ranking(query map[string][]string) (*ranking.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	params, err := view.ParseQuery(query, snap.Table, s.defaults)
	if err != nil {
		return nil, translate(err)
	}

	result, err := ranking.Rank(snap.Table, params.Category, params.PerCapita, params.WindowSize, s.rule)
	if err != nil {
		return nil, translate(&view.InvalidParameterError{Param: view.ArgData, Value: params.Category, Err: err})
	}
	return result, nil
}

// CreateSession starts a session whose initial parameters come from query
func (s *DashboardService) CreateSession(query map[string][]string) (*session.Session, view.Snapshot, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, view.Snapshot{}, err
	}

	params, err := view.ParseQuery(query, snap.Table, s.defaults)
	if err != nil {
		return nil, view.Snapshot{}, translate(err)
	}

	sess, err := s.sessions.Create(snap, params, s.rule)
	if err != nil {
		return nil, view.Snapshot{}, translate(err)
	}
	// a refresh may have swapped and rebound before the session was stored
	s.catchUp(sess)

	s.logger.Info("Session created", "session_id", sess.ID, "countries", len(params.Countries))
	return sess, sess.State.Snapshot(), nil
}

// Session returns the current view of a session
func (s *DashboardService) Session(id string) (*session.Session, view.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, view.Snapshot{}, err
	}
	return sess, sess.State.Snapshot(), nil
}

// UpdateSession applies u to a session. A rejected update leaves the session
// unchanged.
func (s *DashboardService) UpdateSession(id string, u view.Update) (*session.Session, view.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, view.Snapshot{}, err
	}

	if !u.IsEmpty() {
		if err := sess.State.Apply(u); err != nil {
			s.logger.Debug("Session update rejected", "session_id", id, "error", err)
			return nil, view.Snapshot{}, translate(err)
		}
	}
	return sess, sess.State.Snapshot(), nil
}

// DeleteSession removes a session
func (s *DashboardService) DeleteSession(id string) error {
	if !s.sessions.Delete(id) {
		return sessionNotFound(id)
	}
	s.logger.Info("Session deleted", "session_id", id)
	return nil
}

// TableInfo describes the current table
func (s *DashboardService) TableInfo() (*TableInfo, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	dates := snap.Table.Dates()
	info := &TableInfo{
		Version:   snap.Version,
		LoadedAt:  snap.LoadedAt,
		Countries: len(snap.Table.Countries()),
		Dates:     len(dates),
		Sessions:  s.sessions.Len(),
	}
	if len(dates) > 0 {
		info.FirstDate = dates[0]
		info.LastDate = dates[len(dates)-1]
	}
	return info, nil
}

func (s *DashboardService) lookup(id string) (*session.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, sessionNotFound(id)
	}
	s.catchUp(sess)
	return sess, nil
}

// catchUp rebinds sess when the store holds a newer table than the session.
// Rebind ignores snapshots that are not newer.
func (s *DashboardService) catchUp(sess *session.Session) {
	snap := s.store.Current()
	if snap == nil || snap.Table == nil {
		return
	}
	if err := sess.State.Rebind(snap); err != nil {
		s.logger.Warn("Failed to rebind session to current table",
			"session_id", sess.ID, "version", snap.Version, "error", err)
	}
}

func sessionNotFound(id string) error {
	return NewServiceErrorWithDetails(CodeSessionNotFound,
		"session not found or expired",
		map[string]interface{}{"session_id": id})
}
