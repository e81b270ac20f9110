package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"navcheck/internal/links"
	"navcheck/internal/report"
	"navcheck/internal/store"
)

const maxLinksPerRequest = 500

// CheckLinksRequest is the body of POST /api/links/check.
type CheckLinksRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// ScanRequest is the body of POST /api/links/scan. With Check set the
// discovered links are also verified.
type ScanRequest struct {
	Content string `json:"content"`
	Check   bool   `json:"check"`
}

// TrustedDomainRequest is the body of POST /api/links/trusted-domains.
type TrustedDomainRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// RuleRequest is the body of POST /api/links/rules.
type RuleRequest struct {
	Pattern     string `json:"pattern" binding:"required"`
	Description string `json:"description" binding:"required"`
	MinLength   int    `json:"min_length"`
	MaxLength   int    `json:"max_length"`
}

// Health reports liveness and the size of the route table.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"routes":       h.routeVerifier().Registry().Len(),
		"origin":       h.links.Origin(),
		"storeEnabled": h.store != nil,
	})
}

// VerifyRoutes runs a full verification pass and returns its report.
func (h *Handlers) VerifyRoutes(c *gin.Context) {
	v := h.routeVerifier()
	records := v.RunFullVerification(c.Request.Context())
	h.logger.Info("route verification pass", zap.Int("routes", len(records)))
	c.JSON(http.StatusOK, v.GenerateReport())
}

func (h *Handlers) RouteReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.routeVerifier().GenerateReport())
}

func (h *Handlers) FailedRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.routeVerifier().FailedRoutes()})
}

func (h *Handlers) WarningRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.routeVerifier().WarningRoutes()})
}

func (h *Handlers) MissingBreadcrumbs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": h.routeVerifier().MissingBreadcrumbs()})
}

func (h *Handlers) RouteAccessibility(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"issues": h.routeVerifier().AccessibilityIssues()})
}

func (h *Handlers) RoutePerformance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": h.routeVerifier().PerformanceMetrics()})
}

// CheckLinks verifies each URL in the request body.
func (h *Handlers) CheckLinks(c *gin.Context) {
	var req CheckLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if len(req.URLs) > maxLinksPerRequest {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many urls, limit is " + strconv.Itoa(maxLinksPerRequest)})
		return
	}

	records := h.links.CheckMultipleLinks(c.Request.Context(), req.URLs)
	c.JSON(http.StatusOK, gin.H{"results": records})
}

// ScanLinks extracts links from page content.
func (h *Handlers) ScanLinks(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	found, err := h.links.ScanPageForLinks(c.Request.Context(), req.Content)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"links": found}
	if req.Check {
		resp["results"] = h.links.CheckMultipleLinks(c.Request.Context(), found)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) LinkReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.links.GenerateReport())
}

func (h *Handlers) InvalidLinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.links.InvalidLinks()})
}

func (h *Handlers) SlowLinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.links.SlowLinks()})
}

func (h *Handlers) ExternalLinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.links.ExternalLinks()})
}

func (h *Handlers) RedirectLinks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.links.RedirectLinks()})
}

func (h *Handlers) LinkAccessibility(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"issues": h.links.AccessibilityIssues()})
}

// ClearLinkCache empties the link result cache.
func (h *Handlers) ClearLinkCache(c *gin.Context) {
	h.links.ClearCache()
	c.Status(http.StatusNoContent)
}

// AddTrustedDomain registers an external domain as trusted.
func (h *Handlers) AddTrustedDomain(c *gin.Context) {
	var req TrustedDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "domain is required"})
		return
	}

	h.links.AddTrustedDomain(domain)
	c.JSON(http.StatusCreated, gin.H{"domains": h.links.TrustedDomains()})
}

// AddValidationRule registers a segment length rule.
func (h *Handlers) AddValidationRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rule, err := links.SegmentLengthRule(req.Pattern, req.Description, req.MinLength, req.MaxLength)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.links.AddValidationRule(rule)
	c.JSON(http.StatusCreated, gin.H{
		"pattern":     rule.Pattern.String(),
		"description": rule.Description,
	})
}

// SaveRun snapshots both verifiers into the archive.
func (h *Handlers) SaveRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	nav := report.Build(h.routeVerifier(), h.links)
	if err := h.store.SaveRun(c.Request.Context(), nav); err != nil {
		h.logger.Error("failed to save run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save run"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"run_id":         nav.RunID,
		"overall_status": nav.OverallStatus(),
		"report":         nav,
	})
}

// ListRuns returns archived run summaries, newest first.
func (h *Handlers) ListRuns(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one archived report.
func (h *Handlers) GetRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	nav, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load run", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}
	c.JSON(http.StatusOK, nav)
}

// DeleteRun removes one archived report.
func (h *Handlers) DeleteRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	err := h.store.DeleteRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete run", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete run"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Run archive is not configured"})
		return false
	}
	return true
}
