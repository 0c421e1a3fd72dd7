package domain

import (
	"encoding/json"
	"time"
)

// DeleteOutcome reports a single-record deletion attempt.
type DeleteOutcome struct {
	Success bool      `json:"success"`
	Error   ErrorCode `json:"error,omitempty"`
	Message string    `json:"message"`
}

// BulkDeleteOutcome reports a pattern deletion. Counts and per-item lists
// reflect the actual outcome even when some deletions failed.
type BulkDeleteOutcome struct {
	Success         bool      `json:"success"`
	Error           ErrorCode `json:"error,omitempty"`
	Message         string    `json:"message"`
	DeletedCount    int       `json:"deleted_count"`
	DeletedProjects []string  `json:"deleted_projects,omitempty"`
	FailedProjects  []string  `json:"failed_projects,omitempty"`
}

// RenameOutcome reports a rename attempt.
type RenameOutcome struct {
	Success bool      `json:"success"`
	Error   ErrorCode `json:"error,omitempty"`
	Message string    `json:"message"`
	OldName string    `json:"old_name,omitempty"`
	NewName string    `json:"new_name,omitempty"`
}

// MergeOutcome reports a merge attempt. MergedProject is the surviving
// name, DeletedProject the one folded into it.
type MergeOutcome struct {
	Success        bool      `json:"success"`
	Error          ErrorCode `json:"error,omitempty"`
	Message        string    `json:"message"`
	MergedProject  string    `json:"merged_project,omitempty"`
	DeletedProject string    `json:"deleted_project,omitempty"`
}

// ArchiveOutcome reports an archive or unarchive attempt.
type ArchiveOutcome struct {
	Success bool      `json:"success"`
	Error   ErrorCode `json:"error,omitempty"`
	Message string    `json:"message"`
	Project string    `json:"project,omitempty"`
}

// ExportBundle is a versioned snapshot of a single record plus its
// externally stored artifacts. The only supported version is "1.0".
type ExportBundle struct {
	Version    string                     `json:"version"`
	ExportedAt time.Time                  `json:"exported_at"`
	Project    *ProjectRecord             `json:"project"`
	Artifacts  map[string]json.RawMessage `json:"artifacts"`
}

// BundleVersion is the export format understood by Import.
const BundleVersion = "1.0"

// ImportOutcome reports a bundle import. ProjectName is the name the record
// was saved under, which differs from the bundle's name on collision.
type ImportOutcome struct {
	Success     bool      `json:"success"`
	Error       ErrorCode `json:"error,omitempty"`
	Message     string    `json:"message"`
	ProjectName string    `json:"project_name,omitempty"`
}

// DashboardEntry is one row of the maintenance dashboard.
type DashboardEntry struct {
	Name                 string       `json:"name"`
	CompletionPercentage int          `json:"completion_percentage"`
	IsActive             bool         `json:"is_active"`
	IsDuplicate          bool         `json:"is_duplicate"`
	Archived             bool         `json:"archived"`
	UpdatedAt            time.Time    `json:"updated_at"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
}

// Dashboard aggregates every record for the maintenance view, ordered by
// recency.
type Dashboard struct {
	TotalProjects int              `json:"total_projects"`
	ActiveProject string           `json:"active_project,omitempty"`
	Projects      []DashboardEntry `json:"projects"`
}
