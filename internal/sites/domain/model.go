package domain

import (
	"encoding/json"
	"time"
)

// Coordinates is a WGS84 point captured when a site is first located.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProjectRecord represents a single site-design workstream. The canonical
// slug in Name is the primary key; it is unique among non-archived-or-not
// records alike (archiving does not free the name).
type ProjectRecord struct {
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Stage results are opaque references to externally stored analysis
	// output. A nil entry means the stage has not run yet.
	TerrainResults    json.RawMessage `json:"terrain_results,omitempty"`
	LayoutResults     json.RawMessage `json:"layout_results,omitempty"`
	SimulationResults json.RawMessage `json:"simulation_results,omitempty"`
	ReportResults     json.RawMessage `json:"report_results,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Metadata keys managed by the lifecycle engine.
const (
	MetaArchived   = "archived"
	MetaArchivedAt = "archived_at"
)

// StageCount returns how many of the four analysis stages have results.
func (p *ProjectRecord) StageCount() int {
	n := 0
	for _, stage := range []json.RawMessage{p.TerrainResults, p.LayoutResults, p.SimulationResults, p.ReportResults} {
		if stage != nil {
			n++
		}
	}
	return n
}

// CompletionPercentage is derived from the stage results and never stored.
func (p *ProjectRecord) CompletionPercentage() int {
	return p.StageCount() * 100 / 4
}

// Complete reports whether all four stages have results.
func (p *ProjectRecord) Complete() bool {
	return p.StageCount() == 4
}

// Archived reports whether the record has been soft-deleted via metadata.
func (p *ProjectRecord) Archived() bool {
	if p.Metadata == nil {
		return false
	}
	v, ok := p.Metadata[MetaArchived].(bool)
	return ok && v
}

// Clone returns a deep copy so callers can mutate freely. Stage results are
// copied by reference; they are immutable blobs once written.
func (p *ProjectRecord) Clone() *ProjectRecord {
	cp := *p
	if p.Coordinates != nil {
		c := *p.Coordinates
		cp.Coordinates = &c
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// DuplicateMatch pairs a record with its distance from a query point.
type DuplicateMatch struct {
	Record     *ProjectRecord `json:"record"`
	DistanceKm float64        `json:"distance_km"`
}

// DuplicateGroup is a cluster of records that sit within scan radius of one
// another. Solitary records never form a group.
type DuplicateGroup struct {
	Count    int              `json:"count"`
	Projects []*ProjectRecord `json:"projects"`
}
