package models

import (
	"time"

	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/derivation"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/view"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Version      string `json:"version"`
	TableVersion uint64 `json:"table_version"`
}

// CountryListResponse represents list countries response
type CountryListResponse struct {
	Countries    []string `json:"countries"`
	Count        int      `json:"count"`
	TableVersion uint64   `json:"table_version"`
}

// ResolveResponse represents a resolved country name
type ResolveResponse struct {
	Query   string `json:"query"`
	Country string `json:"country"`
}

// DatasetResponse represents a computed dataset. Visible lists, per kind, the
// series keys selected by the requested variants.
type DatasetResponse struct {
	Params       view.Parameters     `json:"params"`
	TableVersion uint64              `json:"table_version"`
	Visible      map[string][]string `json:"visible"`
	Dataset      *dataset.Flat       `json:"dataset"`
}

// NewDatasetResponse builds a DatasetResponse
func NewDatasetResponse(params view.Parameters, flat *dataset.Flat, tableVersion uint64) DatasetResponse {
	return DatasetResponse{
		Params:       params,
		TableVersion: tableVersion,
		Visible:      visibleKeys(flat, params.Variants),
		Dataset:      flat,
	}
}

func visibleKeys(flat *dataset.Flat, variants []derivation.Variant) map[string][]string {
	out := make(map[string][]string, len(derivation.Kinds()))
	for _, kind := range derivation.Kinds() {
		keys := flat.Filter(kind, variants)
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		out[string(kind)] = names
	}
	return out
}

// RankingResponse represents the two ranking tables
type RankingResponse struct {
	*ranking.Result
}

// SessionResponse represents the full state of one session
type SessionResponse struct {
	ID           string              `json:"id"`
	CreatedAt    string              `json:"created_at"`
	ExpiresAt    string              `json:"expires_at"`
	Params       view.Parameters     `json:"params"`
	TableVersion uint64              `json:"table_version"`
	Visible      map[string][]string `json:"visible"`
	Dataset      *dataset.Flat       `json:"dataset"`
	Ranking      *ranking.Result     `json:"ranking"`
}

// NewSessionResponse builds a SessionResponse from a view snapshot
func NewSessionResponse(id string, createdAt, expiresAt time.Time, snap view.Snapshot) SessionResponse {
	return SessionResponse{
		ID:           id,
		CreatedAt:    createdAt.Format(time.RFC3339),
		ExpiresAt:    expiresAt.Format(time.RFC3339),
		Params:       snap.Params,
		TableVersion: snap.TableVersion,
		Visible:      visibleKeys(snap.Dataset, snap.Params.Variants),
		Dataset:      snap.Dataset,
		Ranking:      snap.Ranking,
	}
}

// TableInfoResponse describes the loaded table
type TableInfoResponse struct {
	Version   uint64 `json:"version"`
	LoadedAt  string `json:"loaded_at"`
	Countries int    `json:"countries"`
	Dates     int    `json:"dates"`
	FirstDate string `json:"first_date,omitempty"` // Format: YYYY-MM-DD
	LastDate  string `json:"last_date,omitempty"`  // Format: YYYY-MM-DD
	Sessions  int    `json:"sessions"`
}

// RefreshResponse represents the outcome of a manual refresh
type RefreshResponse struct {
	Version   uint64 `json:"version"`
	LoadedAt  string `json:"loaded_at"`
	Countries int    `json:"countries"`
	Dates     int    `json:"dates"`
	LatencyMs int64  `json:"latency_ms"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
