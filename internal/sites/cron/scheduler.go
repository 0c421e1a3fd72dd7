package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
)

// Scheduler runs the nightly duplicate scan and stores the snapshot for the
// dashboards.
type Scheduler struct {
	lifecycle *service.LifecycleService
	scans     *repository.ScanRepository
	radiusKm  float64
}

// NewScheduler creates a scheduler.
func NewScheduler(lifecycle *service.LifecycleService, scans *repository.ScanRepository, radiusKm float64) *Scheduler {
	if radiusKm <= 0 {
		radiusKm = service.DefaultRadiusKm
	}
	return &Scheduler{lifecycle: lifecycle, scans: scans, radiusKm: radiusKm}
}

// Start initializes cron tasks. The scan also runs once immediately so a
// fresh deployment has a snapshot before midnight.
func (s *Scheduler) Start() (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	// nightly at 12:00 AM
	if _, err := c.AddFunc("0 0 0 * * *", s.RunScan); err != nil {
		return nil, err
	}

	log.Println("Cron scheduler started (duplicate scan nightly at 12:00AM)")
	c.Start()

	go s.RunScan()
	return c, nil
}

// RunScan performs one duplicate scan and stores the snapshot.
func (s *Scheduler) RunScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	groups, err := s.lifecycle.FindDuplicateGroups(ctx, s.radiusKm)
	if err != nil {
		log.Printf("duplicate scan failed: %v", err)
		return
	}

	scan := &repository.DuplicateScan{
		ScannedAt: time.Now().UTC(),
		RadiusKm:  s.radiusKm,
		Groups:    groups,
	}
	if err := s.scans.StoreScan(ctx, scan); err != nil {
		log.Printf("store duplicate scan: %v", err)
		return
	}

	log.Printf("Duplicate scan completed: %d group(s) found", len(groups))
}
