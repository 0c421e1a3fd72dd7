package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
)

func TestDistanceKm_Identity(t *testing.T) {
	points := []domain.Coordinates{
		{Latitude: 0, Longitude: 0},
		{Latitude: 35.0675, Longitude: -101.3955},
		{Latitude: -89.9, Longitude: 179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p, p))
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := domain.Coordinates{Latitude: 35.0675, Longitude: -101.3955}
	b := domain.Coordinates{Latitude: 40.0, Longitude: -100.0}

	assert.Equal(t, DistanceKm(a, b), DistanceKm(b, a))
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	t.Run("adjacent wind farm sites are well under a kilometer apart", func(t *testing.T) {
		a := domain.Coordinates{Latitude: 35.0675, Longitude: -101.3955}
		b := domain.Coordinates{Latitude: 35.0680, Longitude: -101.3960}

		d := DistanceKm(a, b)
		assert.InDelta(t, 0.072, d, 0.005)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		a := domain.Coordinates{Latitude: 35.0, Longitude: -101.0}
		b := domain.Coordinates{Latitude: 36.0, Longitude: -101.0}

		d := DistanceKm(a, b)
		assert.InDelta(t, 111.2, d, 0.5)
	})

	t.Run("distant site never counts as nearby", func(t *testing.T) {
		a := domain.Coordinates{Latitude: 35.0675, Longitude: -101.3955}
		b := domain.Coordinates{Latitude: 40.0, Longitude: -100.0}

		assert.Greater(t, DistanceKm(a, b), 500.0)
	})
}
