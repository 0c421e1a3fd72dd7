package http

import (
	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
)

// Handler bundles the dependencies for the sites HTTP endpoints.
type Handler struct {
	lifecycle *service.LifecycleService
	dedup     *service.DedupService
	store     service.RecordStore
	cache     *repository.ResolutionCache
	scans     *repository.ScanRepository
}

// New creates a sites handler.
func New(lifecycle *service.LifecycleService, dedup *service.DedupService, store service.RecordStore, cache *repository.ResolutionCache, scans *repository.ScanRepository) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		dedup:     dedup,
		store:     store,
		cache:     cache,
		scans:     scans,
	}
}

type bulkDeleteReq struct {
	Pattern   string `json:"pattern"`
	Confirmed bool   `json:"confirmed"`
}

type renameReq struct {
	Name string `json:"name"`
}

type mergeReq struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Keep   string `json:"keep,omitempty"`
}

type nearbyReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km,omitempty"`
}

type resolveReq struct {
	Choice    string  `json:"choice"`
	SessionID string  `json:"session_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km,omitempty"`
}
