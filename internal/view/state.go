package view

import (
	"fmt"
	"sync"

	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/series"
)

// Update carries a partial parameter change. Nil fields are left unchanged.
type Update struct {
	Countries  []string             `json:"countries,omitempty"`
	Category   *series.Category     `json:"category,omitempty"`
	PerCapita  *bool                `json:"per_capita,omitempty"`
	Averaging  *Averaging           `json:"averaging,omitempty"`
	WindowSize *int                 `json:"window_size,omitempty"`
	Variants   []derivation.Variant `json:"variants,omitempty"`
	Scale      *Scale               `json:"scale,omitempty"`

	// Show toggles single variants on top of the current (or replaced)
	// variant set. Variants not named keep their visibility.
	Show map[derivation.Variant]bool `json:"show,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u Update) IsEmpty() bool {
	return u.Countries == nil && u.Category == nil && u.PerCapita == nil &&
		u.Averaging == nil && u.WindowSize == nil && u.Variants == nil && u.Scale == nil &&
		len(u.Show) == 0
}

// Snapshot is a consistent read of a State
type Snapshot struct {
	Params       Parameters
	Dataset      *dataset.Flat
	Ranking      *ranking.Result
	TableVersion uint64
}

type rankingKey struct {
	category  series.Category
	perCapita bool
	window    int
	version   uint64
}

// State holds the parameters of one dashboard together with the dataset and
// rankings derived from them. Every change rebuilds the dataset from the raw
// table; a change that fails leaves the state untouched.
type State struct {
	mu sync.Mutex

	params   Parameters
	table    *series.Snapshot
	dataset  *dataset.Flat
	ranking  *ranking.Result
	rankedBy rankingKey
	rule     ranking.ExclusionRule
}

// NewState builds a State for params against snap. Unknown countries in
// params are dropped.
func NewState(snap *series.Snapshot, params Parameters, rule ranking.ExclusionRule) (*State, error) {
	if snap == nil || snap.Table == nil {
		return nil, fmt.Errorf("view state: no table loaded")
	}

	s := &State{table: snap, rule: rule}
	next := params.Clone()
	next.Countries = resolveCountries(snap.Table, next.Countries)
	next.Variants = normalizeVariants(next.Variants)

	if err := s.commit(next, snap); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current parameters, dataset and ranking
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Params:       s.params.Clone(),
		Dataset:      s.dataset,
		Ranking:      s.ranking,
		TableVersion: s.table.Version,
	}
}

// Params returns a copy of the current parameters
func (s *State) Params() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// SetCountries replaces the selected countries. Names are resolved
// case-insensitively and unknown ones are dropped.
func (s *State) SetCountries(countries []string) error {
	return s.Apply(Update{Countries: nonNil(countries)})
}

// SetCategory switches the case table
func (s *State) SetCategory(category series.Category) error {
	return s.Apply(Update{Category: &category})
}

// SetPerCapita toggles per-million scaling
func (s *State) SetPerCapita(perCapita bool) error {
	return s.Apply(Update{PerCapita: &perCapita})
}

// SetAveraging switches the rolling statistic
func (s *State) SetAveraging(averaging Averaging) error {
	return s.Apply(Update{Averaging: &averaging})
}

// SetWindowSize changes the rolling and trend window
func (s *State) SetWindowSize(window int) error {
	return s.Apply(Update{WindowSize: &window})
}

// SetVariants changes which variants are drawn
func (s *State) SetVariants(variants []derivation.Variant) error {
	return s.Apply(Update{Variants: nonNil(variants)})
}

// SetScale changes the y-axis scale
func (s *State) SetScale(scale Scale) error {
	return s.Apply(Update{Scale: &scale})
}

// Apply changes several parameters at once and rebuilds the dataset
func (s *State) Apply(u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.params.Clone()
	if u.Countries != nil {
		next.Countries = resolveCountries(s.table.Table, u.Countries)
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.PerCapita != nil {
		next.PerCapita = *u.PerCapita
	}
	if u.Averaging != nil {
		next.Averaging = *u.Averaging
	}
	if u.WindowSize != nil {
		next.WindowSize = *u.WindowSize
	}
	if u.Variants != nil {
		next.Variants = normalizeVariants(u.Variants)
	}
	if len(u.Show) > 0 {
		next.Variants = toggleVariants(next, u.Show)
	}
	if u.Scale != nil {
		next.Scale = *u.Scale
	}

	return s.commit(next, s.table)
}

// Rebind recomputes the current parameters against a newer table. Countries
// that no longer exist are dropped. Older or identical snapshots are ignored.
func (s *State) Rebind(snap *series.Snapshot) error {
	if snap == nil || snap.Table == nil {
		return fmt.Errorf("view state: no table loaded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Version <= s.table.Version {
		return nil
	}

	next := s.params.Clone()
	kept := next.Countries[:0]
	for _, c := range next.Countries {
		if snap.Table.Has(c) {
			kept = append(kept, c)
		}
	}
	next.Countries = kept

	return s.commit(next, snap)
}

// commit rebuilds everything for next and swaps it in. Caller holds s.mu or
// has exclusive access.
func (s *State) commit(next Parameters, snap *series.Snapshot) error {
	flat, err := Recompute(next, snap.Table)
	if err != nil {
		return err
	}

	key := rankingKey{
		category:  next.Category,
		perCapita: next.PerCapita,
		window:    next.WindowSize,
		version:   snap.Version,
	}
	rank := s.ranking
	if rank == nil || key != s.rankedBy {
		rank, err = ranking.Rank(snap.Table, next.Category, next.PerCapita, next.WindowSize, s.rule)
		if err != nil {
			return &InvalidParameterError{Param: ArgData, Value: next.Category, Err: err}
		}
	}

	s.params = next
	s.table = snap
	s.dataset = flat
	s.ranking = rank
	s.rankedBy = key
	return nil
}

// toggleVariants applies show on top of the variants of p
func toggleVariants(p Parameters, show map[derivation.Variant]bool) []derivation.Variant {
	variants := []derivation.Variant{}
	for _, v := range derivation.Variants() {
		visible := p.ShowsVariant(v)
		if set, ok := show[v]; ok {
			visible = set
		}
		if visible {
			variants = append(variants, v)
		}
	}
	return variants
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
