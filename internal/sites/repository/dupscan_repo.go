package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

const dupScanKey = "site:dupscan:latest"

// DuplicateScan is a stored snapshot of the latest scheduled proximity scan.
type DuplicateScan struct {
	ScannedAt time.Time                `json:"scanned_at"`
	RadiusKm  float64                  `json:"radius_km"`
	Groups    []*domain.DuplicateGroup `json:"groups"`
}

// ScanRepository stores the duplicate-scan snapshot produced by the
// maintenance worker.
type ScanRepository struct {
	client *redis.Client
}

// NewScanRepository creates a new ScanRepository.
func NewScanRepository(client *redis.Client) *ScanRepository {
	return &ScanRepository{client: client}
}

// StoreScan replaces the latest snapshot.
func (s *ScanRepository) StoreScan(ctx context.Context, scan *DuplicateScan) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal duplicate scan: %w", err)
	}
	if err := s.client.Set(ctx, dupScanKey, data, 0).Err(); err != nil {
		return fmt.Errorf("store duplicate scan: %w", err)
	}
	return nil
}

// LatestScan returns the last stored snapshot, or nil when no scan has run.
func (s *ScanRepository) LatestScan(ctx context.Context) (*DuplicateScan, error) {
	data, err := s.client.Get(ctx, dupScanKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load duplicate scan: %w", err)
	}

	var scan DuplicateScan
	if err := json.Unmarshal([]byte(data), &scan); err != nil {
		return nil, fmt.Errorf("unmarshal duplicate scan: %w", err)
	}
	return &scan, nil
}
