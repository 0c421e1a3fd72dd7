package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/windscape-energy/go-site-backend/internal/sites/domain"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
)

// statusFor maps business-rule error codes onto HTTP status codes.
func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeProjectNotFound:
		return http.StatusNotFound
	case domain.CodeNameAlreadyExists, domain.CodeMergeConflict, domain.CodeConfirmationRequired:
		return http.StatusConflict
	case domain.CodeUnsupportedVersion:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func outcomeStatus(success bool, code domain.ErrorCode) int {
	if success {
		return http.StatusOK
	}
	return statusFor(code)
}

func (h *Handler) search(c *gin.Context) {
	var filters service.SearchFilters
	filters.Location = c.Query("location")

	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid date_from"})
			return
		}
		filters.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid date_to"})
			return
		}
		filters.DateTo = &t
	}
	if v := c.Query("incomplete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid incomplete"})
			return
		}
		filters.Incomplete = &b
	}
	if v := c.Query("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid archived"})
			return
		}
		filters.Archived = &b
	}

	records, err := h.lifecycle.Search(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": records})
}

// get resolves a single record, reading through the resolution cache.
func (h *Handler) get(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	if rec, err := h.cache.Lookup(ctx, name); err == nil && rec != nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "project": rec, "cached": true})
		return
	}

	rec, err := h.store.Load(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := h.cache.Store(ctx, rec); err != nil {
		log.Printf("cache store %q: %v", name, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": rec, "cached": false})
}

func (h *Handler) delete(c *gin.Context) {
	name := c.Param("name")
	confirmed, _ := strconv.ParseBool(c.Query("confirmed"))

	out := h.lifecycle.DeleteOne(c.Request.Context(), name, confirmed)
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var req bulkDeleteReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Pattern) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	out := h.lifecycle.DeleteByPattern(c.Request.Context(), strings.TrimSpace(req.Pattern), req.Confirmed)
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) rename(c *gin.Context) {
	name := c.Param("name")

	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	out := h.lifecycle.Rename(c.Request.Context(), name, strings.TrimSpace(req.Name))
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) merge(c *gin.Context) {
	var req mergeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Source == "" || req.Target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	out := h.lifecycle.Merge(c.Request.Context(), req.Source, req.Target, req.Keep)
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) archive(c *gin.Context) {
	out := h.lifecycle.Archive(c.Request.Context(), c.Param("name"))
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) unarchive(c *gin.Context) {
	out := h.lifecycle.Unarchive(c.Request.Context(), c.Param("name"))
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) listArchived(c *gin.Context) {
	records, err := h.lifecycle.ListArchived(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": records})
}

func (h *Handler) export(c *gin.Context) {
	bundle, err := h.lifecycle.Export(c.Request.Context(), c.Param("name"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (h *Handler) importBundle(c *gin.Context) {
	var bundle domain.ExportBundle
	if err := c.ShouldBindJSON(&bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	out, err := h.lifecycle.Import(c.Request.Context(), &bundle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(outcomeStatus(out.Success, out.Error), out)
}

func (h *Handler) nearby(c *gin.Context) {
	var req nearbyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	point := domain.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	result, err := h.dedup.FindNearby(c.Request.Context(), point, req.RadiusKm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) resolve(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	point := domain.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	nearby, err := h.dedup.FindNearby(c.Request.Context(), point, req.RadiusKm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	resolution := h.dedup.ResolveChoice(c.Request.Context(), req.Choice, nearby.Duplicates, req.SessionID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "session_id": req.SessionID, "resolution": resolution})
}

func (h *Handler) duplicateGroups(c *gin.Context) {
	radius := 0.0
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid radius_km"})
			return
		}
		radius = r
	}

	groups, err := h.lifecycle.FindDuplicateGroups(c.Request.Context(), radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "groups": groups})
}

// latestScan serves the snapshot produced by the maintenance worker.
func (h *Handler) latestScan(c *gin.Context) {
	scan, err := h.scans.LatestScan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if scan == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no scan available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "scan": scan})
}

func (h *Handler) dashboard(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = c.GetHeader("X-Session-ID")
	}

	dash, err := h.lifecycle.BuildDashboard(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dash)
}
