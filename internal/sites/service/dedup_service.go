package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
	"github.com/windscape-energy/go-site-backend/internal/sites/geo"
)

// DefaultRadiusKm is the proximity radius used when a caller does not
// supply one.
const DefaultRadiusKm = 1.0

const noNearbyMessage = "No existing projects found at this location"

// NearbyResult is the outcome of a proximity check at a candidate location.
type NearbyResult struct {
	HasDuplicates bool                    `json:"has_duplicates"`
	Duplicates    []domain.DuplicateMatch `json:"duplicates"`
	Message       string                  `json:"message"`
	UserPrompt    string                  `json:"user_prompt"`
}

// ResolutionAction says how the caller should proceed after the user picked
// an option from the resolution prompt.
type ResolutionAction string

const (
	ActionContinue    ResolutionAction = "continue"
	ActionCreateNew   ResolutionAction = "create_new"
	ActionViewDetails ResolutionAction = "view_details"
)

// Choice is the parsed form of the raw menu input. Unknown input degrades
// to the least destructive action, creating a new project.
type Choice int

const (
	ChoiceUnknown Choice = iota
	ChoiceContinue
	ChoiceCreateNew
	ChoiceViewDetails
)

// ParseChoice maps raw menu input onto a closed choice set. Surrounding
// whitespace is ignored.
func ParseChoice(raw string) Choice {
	switch strings.TrimSpace(raw) {
	case "1":
		return ChoiceContinue
	case "2":
		return ChoiceCreateNew
	case "3":
		return ChoiceViewDetails
	default:
		return ChoiceUnknown
	}
}

// Resolution is the decision produced from a user's prompt choice.
type Resolution struct {
	Action      ResolutionAction `json:"action"`
	ProjectName string           `json:"project_name,omitempty"`
	Message     string           `json:"message"`
}

// DedupService performs geospatial duplicate detection for new site
// locations and drives the interactive resolution flow.
type DedupService struct {
	store    RecordStore
	sessions SessionStore
	radiusKm float64
}

// NewDedupService creates a new DedupService. radiusKm <= 0 selects the
// default radius.
func NewDedupService(store RecordStore, sessions SessionStore, radiusKm float64) *DedupService {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &DedupService{store: store, sessions: sessions, radiusKm: radiusKm}
}

// FindNearby returns all non-archived records whose coordinates lie within
// radiusKm of point, closest first. Records without coordinates never match.
// radiusKm <= 0 selects the service default.
func (s *DedupService) FindNearby(ctx context.Context, point domain.Coordinates, radiusKm float64) (*NearbyResult, error) {
	if radiusKm <= 0 {
		radiusKm = s.radiusKm
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records for proximity check: %w", err)
	}

	matches := make([]domain.DuplicateMatch, 0, 4)
	for _, rec := range records {
		if rec.Archived() || rec.Coordinates == nil {
			continue
		}
		d := geo.DistanceKm(point, *rec.Coordinates)
		if d <= radiusKm {
			matches = append(matches, domain.DuplicateMatch{Record: rec, DistanceKm: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) == 0 {
		return &NearbyResult{
			Duplicates: matches,
			Message:    noNearbyMessage,
		}, nil
	}

	return &NearbyResult{
		HasDuplicates: true,
		Duplicates:    matches,
		Message:       fmt.Sprintf("Found %d existing project(s) near this location", len(matches)),
		UserPrompt:    BuildResolutionPrompt(matches),
	}, nil
}

// BuildResolutionPrompt renders the numbered match list and the fixed
// three-option menu. Empty input yields an empty prompt, which callers must
// not surface.
func BuildResolutionPrompt(matches []domain.DuplicateMatch) string {
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Found existing projects near this location:\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s (%.2f km away)\n", i+1, m.Record.Name, m.DistanceKm)
	}
	b.WriteString("\nWhat would you like to do?\n")
	b.WriteString("1. Continue with an existing project\n")
	b.WriteString("2. Create a new project\n")
	b.WriteString("3. View details of these projects")
	return b.String()
}

// ResolveChoice applies the user's menu choice. Only the continue path has
// side effects: the session's active project is switched to the first match
// and recorded in its history. Invalid input falls back to creating a new
// project and never fails.
func (s *DedupService) ResolveChoice(ctx context.Context, rawChoice string, matches []domain.DuplicateMatch, sessionID string) Resolution {
	switch ParseChoice(rawChoice) {
	case ChoiceContinue:
		if len(matches) == 0 {
			return Resolution{
				Action:  ActionCreateNew,
				Message: "No project to continue with; a new project will be created",
			}
		}
		name := matches[0].Record.Name
		if err := s.sessions.SetActiveProject(ctx, sessionID, name); err != nil {
			log.Printf("set active project %q for session %q: %v", name, sessionID, err)
		}
		if err := s.sessions.AddToHistory(ctx, sessionID, name); err != nil {
			log.Printf("append history %q for session %q: %v", name, sessionID, err)
		}
		return Resolution{
			Action:      ActionContinue,
			ProjectName: name,
			Message:     fmt.Sprintf("Continuing with existing project %s", name),
		}

	case ChoiceCreateNew:
		return Resolution{
			Action:  ActionCreateNew,
			Message: "A new project will be created at this location",
		}

	case ChoiceViewDetails:
		return Resolution{
			Action:  ActionViewDetails,
			Message: formatMatchDetails(matches),
		}

	default:
		return Resolution{
			Action:  ActionCreateNew,
			Message: fmt.Sprintf("Invalid choice %q; a new project will be created", strings.TrimSpace(rawChoice)),
		}
	}
}

func formatMatchDetails(matches []domain.DuplicateMatch) string {
	if len(matches) == 0 {
		return "No nearby projects to show"
	}

	var b strings.Builder
	b.WriteString("Nearby project details:\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s - %d%% complete (%.2f km away)\n",
			i+1, m.Record.Name, m.Record.CompletionPercentage(), m.DistanceKm)
	}
	return strings.TrimRight(b.String(), "\n")
}
