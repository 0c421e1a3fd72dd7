package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
	"github.com/windscape-energy/go-site-backend/internal/sites/geo"
)

// LifecycleService implements the project lifecycle engine: deletion,
// rename, merge, archiving, search, duplicate grouping, export/import and
// dashboard aggregation over the record store. Every mutating path
// invalidates the resolution cache before returning.
type LifecycleService struct {
	store      RecordStore
	cache      ResolutionCache
	sessions   SessionStore
	normalizer Normalizer
	radiusKm   float64
}

// NewLifecycleService creates a new LifecycleService. radiusKm <= 0 selects
// the default proximity radius for duplicate grouping.
func NewLifecycleService(store RecordStore, cache ResolutionCache, sessions SessionStore, normalizer Normalizer, radiusKm float64) *LifecycleService {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &LifecycleService{
		store:      store,
		cache:      cache,
		sessions:   sessions,
		normalizer: normalizer,
		radiusKm:   radiusKm,
	}
}

// DeleteOne removes a single record. Without confirmed the record is left
// untouched and the caller gets a confirmation prompt back.
func (s *LifecycleService) DeleteOne(ctx context.Context, name string, confirmed bool) domain.DeleteOutcome {
	_, err := s.store.Load(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DeleteOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("Project %s not found", name),
		}
	}
	if err != nil {
		log.Printf("delete %q: load failed: %v", name, err)
		return domain.DeleteOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to delete %s", name),
		}
	}

	if !confirmed {
		return domain.DeleteOutcome{
			Error:   domain.CodeConfirmationRequired,
			Message: fmt.Sprintf("Are you sure you want to delete %s? This cannot be undone.", name),
		}
	}

	if err := s.store.Delete(ctx, name); err != nil {
		log.Printf("delete %q: %v", name, err)
		return domain.DeleteOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to delete %s", name),
		}
	}
	s.invalidateCache(ctx)

	return domain.DeleteOutcome{
		Success: true,
		Message: fmt.Sprintf("%s has been deleted", name),
	}
}

// DeleteByPattern removes every record whose name contains pattern. Each
// deletion is attempted independently; the outcome reports exactly which
// records went away even when some deletions failed. The cache is
// invalidated once after the batch.
func (s *LifecycleService) DeleteByPattern(ctx context.Context, pattern string, confirmed bool) domain.BulkDeleteOutcome {
	matches, err := s.store.FindByPartialName(ctx, pattern)
	if err != nil {
		log.Printf("bulk delete %q: search failed: %v", pattern, err)
		return domain.BulkDeleteOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to delete projects matching '%s'", pattern),
		}
	}

	if len(matches) == 0 {
		return domain.BulkDeleteOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("No projects match '%s'", pattern),
		}
	}

	if !confirmed {
		return domain.BulkDeleteOutcome{
			Error:   domain.CodeConfirmationRequired,
			Message: fmt.Sprintf("Type 'yes' to delete all %d projects matching '%s'", len(matches), pattern),
		}
	}

	deleted := make([]string, 0, len(matches))
	failed := make([]string, 0)
	for _, rec := range matches {
		if err := s.store.Delete(ctx, rec.Name); err != nil {
			log.Printf("bulk delete %q: %v", rec.Name, err)
			failed = append(failed, rec.Name)
			continue
		}
		deleted = append(deleted, rec.Name)
	}
	s.invalidateCache(ctx)

	out := domain.BulkDeleteOutcome{
		Success:         len(failed) == 0,
		DeletedCount:    len(deleted),
		DeletedProjects: deleted,
		FailedProjects:  failed,
		Message:         fmt.Sprintf("Deleted %d of %d projects matching '%s'", len(deleted), len(matches), pattern),
	}
	if !out.Success {
		out.Error = domain.CodeInternalError
	}
	return out
}

// Rename moves a record to the canonical slug of newTitle. The renamed copy
// is written before the old key is removed, so a crash between the two
// writes leaves both names loadable rather than losing the record.
func (s *LifecycleService) Rename(ctx context.Context, oldName, newTitle string) domain.RenameOutcome {
	rec, err := s.store.Load(ctx, oldName)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RenameOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("Project %s not found", oldName),
		}
	}
	if err != nil {
		log.Printf("rename %q: load failed: %v", oldName, err)
		return domain.RenameOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to rename %s", oldName),
		}
	}

	newName := s.normalizer.Normalize(newTitle)
	if newName == oldName {
		return domain.RenameOutcome{
			Success: true,
			OldName: oldName,
			NewName: newName,
			Message: fmt.Sprintf("Project is already named %s", newName),
		}
	}

	_, err = s.store.Load(ctx, newName)
	if err == nil {
		return domain.RenameOutcome{
			Error:   domain.CodeNameAlreadyExists,
			Message: fmt.Sprintf("A project named %s already exists", newName),
		}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Printf("rename %q: check %q failed: %v", oldName, newName, err)
		return domain.RenameOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to rename %s", oldName),
		}
	}

	renamed := rec.Clone()
	renamed.Name = newName
	renamed.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, renamed); err != nil {
		log.Printf("rename %q: save %q failed: %v", oldName, newName, err)
		return domain.RenameOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to rename %s", oldName),
		}
	}
	if err := s.store.Delete(ctx, oldName); err != nil {
		log.Printf("rename %q: delete old key failed: %v", oldName, err)
		s.invalidateCache(ctx)
		return domain.RenameOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to rename %s", oldName),
		}
	}
	s.invalidateCache(ctx)

	return domain.RenameOutcome{
		Success: true,
		OldName: oldName,
		NewName: newName,
		Message: fmt.Sprintf("%s has been renamed to %s", oldName, newName),
	}
}

// Merge folds two records into one. keepName picks the surviving record and
// defaults to targetName; the other record is deleted after the merged
// record has been saved. For every stage result and for coordinates the
// kept side wins when both are present and the other side fills gaps;
// metadata is a union with the same kept-side precedence.
func (s *LifecycleService) Merge(ctx context.Context, sourceName, targetName, keepName string) domain.MergeOutcome {
	if sourceName == targetName {
		return domain.MergeOutcome{
			Error:   domain.CodeMergeConflict,
			Message: fmt.Sprintf("Cannot merge %s with itself", sourceName),
		}
	}

	source, err := s.store.Load(ctx, sourceName)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.MergeOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("Project %s not found", sourceName),
		}
	}
	if err != nil {
		return s.mergeFailed(sourceName, targetName, err)
	}
	target, err := s.store.Load(ctx, targetName)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.MergeOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("Project %s not found", targetName),
		}
	}
	if err != nil {
		return s.mergeFailed(sourceName, targetName, err)
	}

	kept, other := target, source
	switch keepName {
	case "", targetName:
		keepName = targetName
	case sourceName:
		kept, other = source, target
	default:
		return domain.MergeOutcome{
			Error:   domain.CodeMergeConflict,
			Message: fmt.Sprintf("keep name %s matches neither %s nor %s", keepName, sourceName, targetName),
		}
	}

	merged := mergeRecords(kept, other)
	merged.Name = keepName
	merged.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, merged); err != nil {
		return s.mergeFailed(sourceName, targetName, err)
	}
	if err := s.store.Delete(ctx, other.Name); err != nil {
		s.invalidateCache(ctx)
		return s.mergeFailed(sourceName, targetName, err)
	}
	s.invalidateCache(ctx)

	return domain.MergeOutcome{
		Success:        true,
		MergedProject:  keepName,
		DeletedProject: other.Name,
		Message:        fmt.Sprintf("%s has been merged into %s", other.Name, keepName),
	}
}

func (s *LifecycleService) mergeFailed(sourceName, targetName string, err error) domain.MergeOutcome {
	log.Printf("merge %q into %q: %v", sourceName, targetName, err)
	return domain.MergeOutcome{
		Error:   domain.CodeInternalError,
		Message: fmt.Sprintf("Failed to merge %s and %s", sourceName, targetName),
	}
}

// mergeRecords combines two records with kept-side precedence: the kept
// record's stage results, coordinates and metadata values win when both
// sides are present, and the other side fills the gaps.
func mergeRecords(kept, other *domain.ProjectRecord) *domain.ProjectRecord {
	merged := kept.Clone()
	if merged.TerrainResults == nil {
		merged.TerrainResults = other.TerrainResults
	}
	if merged.LayoutResults == nil {
		merged.LayoutResults = other.LayoutResults
	}
	if merged.SimulationResults == nil {
		merged.SimulationResults = other.SimulationResults
	}
	if merged.ReportResults == nil {
		merged.ReportResults = other.ReportResults
	}
	if merged.Coordinates == nil && other.Coordinates != nil {
		c := *other.Coordinates
		merged.Coordinates = &c
	}

	if len(other.Metadata) > 0 {
		union := make(map[string]any, len(other.Metadata)+len(merged.Metadata))
		for k, v := range other.Metadata {
			union[k] = v
		}
		for k, v := range merged.Metadata {
			union[k] = v
		}
		merged.Metadata = union
	}
	return merged
}

// Archive soft-deletes a record by flagging it in metadata. Archiving an
// already archived record is a no-op success.
func (s *LifecycleService) Archive(ctx context.Context, name string) domain.ArchiveOutcome {
	return s.setArchived(ctx, name, true)
}

// Unarchive clears the archive flag. Unarchiving a live record is a no-op
// success.
func (s *LifecycleService) Unarchive(ctx context.Context, name string) domain.ArchiveOutcome {
	return s.setArchived(ctx, name, false)
}

func (s *LifecycleService) setArchived(ctx context.Context, name string, archived bool) domain.ArchiveOutcome {
	verb := "archive"
	if !archived {
		verb = "unarchive"
	}

	rec, err := s.store.Load(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ArchiveOutcome{
			Error:   domain.CodeProjectNotFound,
			Message: fmt.Sprintf("Project %s not found", name),
		}
	}
	if err != nil {
		log.Printf("%s %q: load failed: %v", verb, name, err)
		return domain.ArchiveOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to %s %s", verb, name),
		}
	}

	if rec.Archived() == archived {
		return domain.ArchiveOutcome{
			Success: true,
			Project: name,
			Message: fmt.Sprintf("%s is already %sd", name, verb),
		}
	}

	if rec.Metadata == nil {
		rec.Metadata = make(map[string]any, 2)
	}
	if archived {
		rec.Metadata[domain.MetaArchived] = true
		rec.Metadata[domain.MetaArchivedAt] = time.Now().UTC().Format(time.RFC3339)
	} else {
		rec.Metadata[domain.MetaArchived] = false
		delete(rec.Metadata, domain.MetaArchivedAt)
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, rec); err != nil {
		log.Printf("%s %q: save failed: %v", verb, name, err)
		return domain.ArchiveOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to %s %s", verb, name),
		}
	}
	s.invalidateCache(ctx)

	return domain.ArchiveOutcome{
		Success: true,
		Project: name,
		Message: fmt.Sprintf("%s has been %sd", name, verb),
	}
}

// ListArchived returns every archived record.
func (s *LifecycleService) ListArchived(ctx context.Context) ([]*domain.ProjectRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived: %w", err)
	}

	out := make([]*domain.ProjectRecord, 0, len(records))
	for _, rec := range records {
		if rec.Archived() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SearchFilters are combined with logical AND; every field is optional.
// When Archived is unset the search covers live records only.
type SearchFilters struct {
	Location   string
	DateFrom   *time.Time
	DateTo     *time.Time
	Incomplete *bool
	Archived   *bool
}

// Search returns the records matching every supplied filter. Date bounds
// are inclusive and apply to UpdatedAt.
func (s *LifecycleService) Search(ctx context.Context, filters SearchFilters) ([]*domain.ProjectRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	needle := strings.ToLower(filters.Location)
	out := make([]*domain.ProjectRecord, 0, len(records))
	for _, rec := range records {
		if filters.Archived == nil {
			if rec.Archived() {
				continue
			}
		} else if rec.Archived() != *filters.Archived {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.Name), needle) {
			continue
		}
		if filters.DateFrom != nil && rec.UpdatedAt.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && rec.UpdatedAt.After(*filters.DateTo) {
			continue
		}
		if filters.Incomplete != nil && rec.Complete() == *filters.Incomplete {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindDuplicateGroups clusters non-archived, coordinate-bearing records by
// proximity: two records belong to the same group when a chain of records,
// each within radiusKm of the next, connects them. Solitary records are
// excluded. radiusKm <= 0 selects the service default.
func (s *LifecycleService) FindDuplicateGroups(ctx context.Context, radiusKm float64) ([]*domain.DuplicateGroup, error) {
	if radiusKm <= 0 {
		radiusKm = s.radiusKm
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("duplicate scan: %w", err)
	}

	candidates := make([]*domain.ProjectRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Archived() && rec.Coordinates != nil {
			candidates = append(candidates, rec)
		}
	}

	// connected components via union-find over the proximity graph
	parent := make([]int, len(candidates))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			d := geo.DistanceKm(*candidates[i].Coordinates, *candidates[j].Coordinates)
			if d <= radiusKm {
				parent[find(i)] = find(j)
			}
		}
	}

	byRoot := make(map[int][]*domain.ProjectRecord)
	order := make([]int, 0)
	for i, rec := range candidates {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], rec)
	}

	groups := make([]*domain.DuplicateGroup, 0)
	for _, root := range order {
		members := byRoot[root]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, &domain.DuplicateGroup{
			Count:    len(members),
			Projects: members,
		})
	}
	return groups, nil
}

// Export snapshots one record into a versioned bundle.
func (s *LifecycleService) Export(ctx context.Context, name string) (*domain.ExportBundle, error) {
	rec, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("export %q: %w", name, err)
	}

	return &domain.ExportBundle{
		Version:    domain.BundleVersion,
		ExportedAt: time.Now().UTC(),
		Project:    rec,
		Artifacts:  map[string]json.RawMessage{},
	}, nil
}

// Import rehydrates a bundle into the store. When the bundle's name is
// already taken a unique alternative is generated; existing records are
// never overwritten. A structurally invalid bundle is a caller error.
func (s *LifecycleService) Import(ctx context.Context, bundle *domain.ExportBundle) (domain.ImportOutcome, error) {
	if bundle == nil || bundle.Project == nil || bundle.Project.Name == "" {
		return domain.ImportOutcome{}, fmt.Errorf("import: bundle has no project")
	}

	if bundle.Version != domain.BundleVersion {
		return domain.ImportOutcome{
			Error:   domain.CodeUnsupportedVersion,
			Message: fmt.Sprintf("Unsupported bundle version %q", bundle.Version),
		}, nil
	}

	rec := bundle.Project.Clone()
	finalName := rec.Name

	_, err := s.store.Load(ctx, finalName)
	switch {
	case err == nil:
		finalName, err = s.normalizer.EnsureUnique(ctx, rec.Name)
		if err != nil {
			log.Printf("import %q: uniqueness check failed: %v", rec.Name, err)
			return domain.ImportOutcome{
				Error:   domain.CodeInternalError,
				Message: fmt.Sprintf("Failed to import %s", rec.Name),
			}, nil
		}
		rec.Name = finalName
		rec.UpdatedAt = time.Now().UTC()
	case !errors.Is(err, domain.ErrNotFound):
		log.Printf("import %q: load failed: %v", rec.Name, err)
		return domain.ImportOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to import %s", rec.Name),
		}, nil
	}

	if err := s.store.Save(ctx, rec); err != nil {
		log.Printf("import %q: save failed: %v", finalName, err)
		return domain.ImportOutcome{
			Error:   domain.CodeInternalError,
			Message: fmt.Sprintf("Failed to import %s", finalName),
		}, nil
	}
	s.invalidateCache(ctx)

	return domain.ImportOutcome{
		Success:     true,
		ProjectName: finalName,
		Message:     fmt.Sprintf("Imported project as %s", finalName),
	}, nil
}

// BuildDashboard aggregates every record for the maintenance view: derived
// completion, whether the record is the session's active project, and
// whether it participates in any proximity group. Rows are ordered most
// recently updated first.
func (s *LifecycleService) BuildDashboard(ctx context.Context, sessionID string) (*domain.Dashboard, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	active, err := s.sessions.ActiveProject(ctx, sessionID)
	if err != nil {
		log.Printf("dashboard: active project for session %q: %v", sessionID, err)
		active = ""
	}

	groups, err := s.FindDuplicateGroups(ctx, s.radiusKm)
	if err != nil {
		return nil, err
	}
	inGroup := make(map[string]bool)
	for _, g := range groups {
		for _, rec := range g.Projects {
			inGroup[rec.Name] = true
		}
	}

	entries := make([]domain.DashboardEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, domain.DashboardEntry{
			Name:                 rec.Name,
			CompletionPercentage: rec.CompletionPercentage(),
			IsActive:             rec.Name == active,
			IsDuplicate:          inGroup[rec.Name],
			Archived:             rec.Archived(),
			UpdatedAt:            rec.UpdatedAt,
			Coordinates:          rec.Coordinates,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return &domain.Dashboard{
		TotalProjects: len(records),
		ActiveProject: active,
		Projects:      entries,
	}, nil
}

func (s *LifecycleService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("invalidate resolution cache: %v", err)
	}
}
