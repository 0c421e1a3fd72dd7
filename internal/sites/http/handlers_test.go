package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
	"github.com/windscape-energy/go-site-backend/internal/sites/slug"
)

type testServer struct {
	router *gin.Engine
	store  *repository.RecordRepository
	cache  *repository.ResolutionCache
}

func setupServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := repository.NewRecordRepository(client)
	cache := repository.NewResolutionCache(client)
	sessions := repository.NewSessionRepository(client)
	scans := repository.NewScanRepository(client)
	normalizer := slug.NewNormalizer(store)

	lifecycle := service.NewLifecycleService(store, cache, sessions, normalizer, service.DefaultRadiusKm)
	dedup := service.NewDedupService(store, sessions, service.DefaultRadiusKm)

	router := gin.New()
	handler := New(lifecycle, dedup, store, cache, scans)
	handler.Register(router.Group("/api/v1/sites"))

	return &testServer{router: router, store: store, cache: cache}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func seedRecord(t *testing.T, s *testServer, name string, coords *domain.Coordinates) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.store.Save(context.Background(), &domain.ProjectRecord{
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
		Coordinates: coords,
	}))
}

func TestDeleteEndpoint(t *testing.T) {
	t.Run("unconfirmed delete is refused and the record survives", func(t *testing.T) {
		s := setupServer(t)
		seedRecord(t, s, "wind-farm-alpha", nil)

		w := s.do(t, http.MethodDelete, "/api/v1/sites/wind-farm-alpha", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		var out domain.DeleteOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, domain.CodeConfirmationRequired, out.Error)

		_, err := s.store.Load(context.Background(), "wind-farm-alpha")
		require.NoError(t, err)
	})

	t.Run("confirmed delete succeeds", func(t *testing.T) {
		s := setupServer(t)
		seedRecord(t, s, "wind-farm-alpha", nil)

		w := s.do(t, http.MethodDelete, "/api/v1/sites/wind-farm-alpha?confirmed=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		_, err := s.store.Load(context.Background(), "wind-farm-alpha")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing record is 404", func(t *testing.T) {
		s := setupServer(t)
		w := s.do(t, http.MethodDelete, "/api/v1/sites/nope?confirmed=true", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBulkDeleteEndpoint(t *testing.T) {
	t.Run("no matching projects is 404", func(t *testing.T) {
		s := setupServer(t)

		w := s.do(t, http.MethodPost, "/api/v1/sites/bulk-delete", bulkDeleteReq{
			Pattern:   "no-such-project",
			Confirmed: true,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)

		var out domain.BulkDeleteOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.False(t, out.Success)
		assert.Equal(t, domain.CodeProjectNotFound, out.Error)
	})

	t.Run("confirmed pattern delete removes every match", func(t *testing.T) {
		s := setupServer(t)
		seedRecord(t, s, "wind-farm-alpha", nil)
		seedRecord(t, s, "wind-farm-beta", nil)
		seedRecord(t, s, "solar-ridge", nil)

		w := s.do(t, http.MethodPost, "/api/v1/sites/bulk-delete", bulkDeleteReq{
			Pattern:   "wind-farm",
			Confirmed: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var out domain.BulkDeleteOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.True(t, out.Success)
		assert.Equal(t, 2, out.DeletedCount)

		_, err := s.store.Load(context.Background(), "solar-ridge")
		require.NoError(t, err)
	})
}

func TestGetEndpointReadsThroughCache(t *testing.T) {
	s := setupServer(t)
	seedRecord(t, s, "wind-farm-alpha", nil)

	w := s.do(t, http.MethodGet, "/api/v1/sites/wind-farm-alpha", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var first struct {
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.False(t, first.Cached)

	w = s.do(t, http.MethodGet, "/api/v1/sites/wind-farm-alpha", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var second struct {
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Cached)
}

func TestNearbyEndpoint(t *testing.T) {
	s := setupServer(t)
	seedRecord(t, s, "wind-farm-alpha", &domain.Coordinates{Latitude: 35.0675, Longitude: -101.3955})

	w := s.do(t, http.MethodPost, "/api/v1/sites/nearby", nearbyReq{
		Latitude:  35.0676,
		Longitude: -101.3955,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res service.NearbyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.HasDuplicates)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "wind-farm-alpha", res.Duplicates[0].Record.Name)
	assert.NotEmpty(t, res.UserPrompt)
}

func TestMergeEndpoint(t *testing.T) {
	s := setupServer(t)
	seedRecord(t, s, "wind-farm-alpha", nil)
	seedRecord(t, s, "wind-farm-beta", nil)

	w := s.do(t, http.MethodPost, "/api/v1/sites/merge", mergeReq{
		Source: "wind-farm-alpha",
		Target: "wind-farm-beta",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var out domain.MergeOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "wind-farm-beta", out.MergedProject)

	_, err := s.store.Load(context.Background(), "wind-farm-alpha")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportEndpoint(t *testing.T) {
	t.Run("bad version is rejected", func(t *testing.T) {
		s := setupServer(t)

		w := s.do(t, http.MethodPost, "/api/v1/sites/import", domain.ExportBundle{
			Version: "2.0",
			Project: &domain.ProjectRecord{Name: "wind-farm-alpha"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid bundle imports", func(t *testing.T) {
		s := setupServer(t)

		now := time.Now().UTC()
		w := s.do(t, http.MethodPost, "/api/v1/sites/import", domain.ExportBundle{
			Version:    domain.BundleVersion,
			ExportedAt: now,
			Project: &domain.ProjectRecord{
				Name:      "wind-farm-alpha",
				CreatedAt: now,
				UpdatedAt: now,
			},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var out domain.ImportOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.True(t, out.Success)
		assert.Equal(t, "wind-farm-alpha", out.ProjectName)
	})
}

func TestArchiveEndpoints(t *testing.T) {
	s := setupServer(t)
	seedRecord(t, s, "wind-farm-alpha", nil)

	w := s.do(t, http.MethodPost, "/api/v1/sites/wind-farm-alpha/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sites/archived", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wind-farm-alpha")

	w = s.do(t, http.MethodPost, "/api/v1/sites/wind-farm-alpha/unarchive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sites/archived", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "wind-farm-alpha")
}

func TestDashboardEndpoint(t *testing.T) {
	s := setupServer(t)
	seedRecord(t, s, "wind-farm-alpha", nil)
	seedRecord(t, s, "wind-farm-beta", nil)

	w := s.do(t, http.MethodGet, "/api/v1/sites/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dash domain.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Equal(t, 2, dash.TotalProjects)
	assert.Len(t, dash.Projects, 2)
}
