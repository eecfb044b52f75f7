package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"time"

	"chainverify/internal/domain"
	"chainverify/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxSpecBytes = 10 << 20

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type specSummaryResponse struct {
	SpecID        string   `json:"spec_id"`
	Title         string   `json:"title"`
	Version       string   `json:"version"`
	SourceVersion string   `json:"source_version"`
	BaseURL       string   `json:"base_url,omitempty"`
	EndpointCount int      `json:"endpoint_count"`
	Methods       []string `json:"methods"`
}

type adminTenantRequest struct {
	Name           string           `json:"name"`
	IsolationLevel string           `json:"isolation_level,omitempty"`
	Quota          map[string]int64 `json:"quota,omitempty"`
}

type runRequest struct {
	TenantID            string   `json:"tenant_id"`
	SpecID              string   `json:"spec_id"`
	Strategies          []string `json:"strategies"`
	ChaosDimensions     []string `json:"chaos_dimensions,omitempty"`
	MaxTestsPerEndpoint int      `json:"max_tests_per_endpoint,omitempty"`
	Seed                int64    `json:"seed,omitempty"`
	Mode                string   `json:"mode,omitempty"`
	BaseURL             string   `json:"base_url,omitempty"`
}

type runResponse struct {
	SuiteID    string                    `json:"suite_id"`
	BatchID    string                    `json:"batch_id"`
	ReportID   string                    `json:"report_id"`
	TotalTests int                       `json:"total_tests"`
	Report     domain.VerificationReport `json:"report"`
}

func (s *Server) handleIngestSpec(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSpecBytes))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "unreadable body")
		return
	}
	specID := c.Query("spec_id")
	spec, err := s.ingestor.IngestJSON(c.Request.Context(), raw, specID)
	if err != nil {
		writeError(c, err)
		return
	}
	key := specID
	if key == "" {
		key = spec.Title + ":" + spec.Version
	}
	c.JSON(http.StatusOK, buildSpecSummary(key, *spec))
}

func (s *Server) handleListSpecs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"spec_ids": s.ingestor.List()})
}

func (s *Server) handleGetSpec(c *gin.Context) {
	specID := c.Param("spec_id")
	spec, ok := s.ingestor.Get(specID)
	if !ok {
		writeError(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (s *Server) handleRunVerification(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.TenantID == "" || req.SpecID == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "tenant_id and spec_id are required")
		return
	}

	tenant, err := s.registry.Get(req.TenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.registry.VerifySeal(req.TenantID); err != nil {
		writeError(c, err)
		return
	}
	spec, ok := s.ingestor.Get(req.SpecID)
	if !ok {
		writeError(c, domain.ErrNotFound)
		return
	}
	if !s.registry.CheckQuota(req.TenantID, domain.QuotaEndpoints, int64(len(spec.Endpoints))) {
		writeError(c, domain.ErrQuotaExceeded)
		return
	}

	strategies, err := parseStrategies(req.Strategies)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	dimensions, err := parseDimensions(req.ChaosDimensions)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	mode, err := parseMode(req.Mode, s.cfg.ExecutionMode)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	maxPerEndpoint := req.MaxTestsPerEndpoint
	if maxPerEndpoint <= 0 {
		maxPerEndpoint = s.cfg.MaxTestsPerEndpoint
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.FuzzSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	suite, err := s.generator.GenerateSuite(usecase.GenerateSuiteRequest{
		Spec:                *spec,
		Strategies:          strategies,
		ChaosDimensions:     dimensions,
		MaxTestsPerEndpoint: maxPerEndpoint,
		Seed:                seed,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if !s.registry.CheckQuota(req.TenantID, domain.QuotaTests, int64(len(suite.TestCases))) {
		writeError(c, domain.ErrQuotaExceeded)
		return
	}
	_ = s.registry.RecordUsage(req.TenantID, domain.QuotaTests, int64(len(suite.TestCases)))

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = spec.BaseURL
	}
	batch, err := s.executor.ExecuteBatch(c.Request.Context(), usecase.ExecuteBatchRequest{
		TenantID: req.TenantID,
		Suite:    *suite,
		Mode:     mode,
		BaseURL:  baseURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	score := s.scorer.ComputeScore(*batch, *suite)
	report, err := s.reporter.GenerateReport(c.Request.Context(), *tenant, score, *batch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, runResponse{
		SuiteID:    suite.SuiteID,
		BatchID:    batch.BatchID,
		ReportID:   report.ReportID,
		TotalTests: batch.TotalCount(),
		Report:     *report,
	})
}

func (s *Server) handleGetReport(c *gin.Context) {
	report, err := s.reporter.GetReport(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"expired": report.Expired(time.Now().UTC()),
	})
}

func (s *Server) handleGetReportMarkdown(c *gin.Context) {
	report, err := s.reporter.GetReport(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if report.Expired(time.Now().UTC()) {
		c.Header("X-Report-Expired", "true")
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(usecase.RenderMarkdown(*report)))
}

func (s *Server) handleAdminCreateTenant(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req adminTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.Name == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}
	var quota domain.ResourceQuota
	if len(req.Quota) > 0 {
		quota = domain.ResourceQuota{}
		for k, v := range req.Quota {
			quota[domain.QuotaResource(k)] = v
		}
	}
	tenant, err := s.registry.CreateTenant(c.Request.Context(), req.Name, domain.IsolationLevel(req.IsolationLevel), quota)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) handleAdminGetTenant(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	tenant, err := s.registry.Get(c.Param("tenant_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) handleAdminActivateTenant(c *gin.Context) {
	s.handleTransition(c, s.registry.ActivateTenant)
}

func (s *Server) handleAdminSuspendTenant(c *gin.Context) {
	s.handleTransition(c, s.registry.SuspendTenant)
}

func (s *Server) handleAdminTerminateTenant(c *gin.Context) {
	s.handleTransition(c, s.registry.TerminateTenant)
}

func (s *Server) handleAdminKillTenant(c *gin.Context) {
	s.handleTransition(c, s.registry.KillTenant)
}

func (s *Server) handleTransition(c *gin.Context, apply func(ctx context.Context, tenantID string) error) {
	if !s.requireAdmin(c) {
		return
	}
	tenantID := c.Param("tenant_id")
	if err := apply(c.Request.Context(), tenantID); err != nil {
		writeError(c, err)
		return
	}
	tenant, err := s.registry.Get(tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) handleAdminResetRateLimit(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	tenantID := c.Param("tenant_id")
	if _, err := s.registry.Get(tenantID); err != nil {
		writeError(c, err)
		return
	}
	if err := s.executor.ResetRateLimit(c.Request.Context(), tenantID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAdminListAudit(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.auditRepo == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	events, err := s.auditRepo.ListByTenant(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleAdminVerifyAudit(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.auditRepo == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	err := usecase.VerifyTenantAuditChain(c.Request.Context(), s.auditRepo, c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func buildSpecSummary(specID string, spec domain.CanonicalSpec) specSummaryResponse {
	methods := make([]string, 0, len(spec.MethodsUsed()))
	for _, m := range []domain.HTTPMethod{
		domain.MethodGet, domain.MethodPost, domain.MethodPut, domain.MethodPatch,
		domain.MethodDelete, domain.MethodHead, domain.MethodOptions,
	} {
		if spec.MethodsUsed()[m] {
			methods = append(methods, string(m))
		}
	}
	return specSummaryResponse{
		SpecID:        specID,
		Title:         spec.Title,
		Version:       spec.Version,
		SourceVersion: spec.SourceVersion,
		BaseURL:       spec.BaseURL,
		EndpointCount: spec.EndpointCount(),
		Methods:       methods,
	}
}

func parseStrategies(in []string) ([]domain.FuzzStrategy, error) {
	valid := map[domain.FuzzStrategy]bool{
		domain.StrategyBoundary:      true,
		domain.StrategyTypeConfusion: true,
		domain.StrategyInjection:     true,
		domain.StrategyOverflow:      true,
		domain.StrategyUnicode:       true,
		domain.StrategyNull:          true,
		domain.StrategyFormat:        true,
		domain.StrategyRandom:        true,
	}
	out := make([]domain.FuzzStrategy, 0, len(in))
	for _, s := range in {
		strategy := domain.FuzzStrategy(s)
		if !valid[strategy] {
			return nil, errors.New("unknown strategy " + s)
		}
		out = append(out, strategy)
	}
	return out, nil
}

func parseDimensions(in []string) ([]domain.ChaosDimension, error) {
	valid := map[domain.ChaosDimension]bool{}
	for _, d := range domain.AllChaosDimensions {
		valid[d] = true
	}
	out := make([]domain.ChaosDimension, 0, len(in))
	for _, d := range in {
		dim := domain.ChaosDimension(d)
		if !valid[dim] {
			return nil, errors.New("unknown chaos dimension " + d)
		}
		out = append(out, dim)
	}
	return out, nil
}

func parseMode(requested, configured string) (domain.ExecutionMode, error) {
	raw := requested
	if raw == "" {
		raw = configured
	}
	switch domain.ExecutionMode(raw) {
	case "", domain.ModeReadOnly:
		return domain.ModeReadOnly, nil
	case domain.ModeMock:
		return domain.ModeMock, nil
	case domain.ModeDryRun:
		return domain.ModeDryRun, nil
	default:
		return "", errors.New("unknown execution mode " + raw)
	}
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidSpec):
		status, code = http.StatusBadRequest, "INVALID_SPEC"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		status, code = http.StatusBadRequest, "UNSUPPORTED_FORMAT"
	case errors.Is(err, domain.ErrTenantNotFound):
		status, code = http.StatusNotFound, "TENANT_NOT_FOUND"
	case errors.Is(err, domain.ErrTenantKilled):
		status, code = http.StatusForbidden, "TENANT_KILLED"
	case errors.Is(err, domain.ErrTenantNotActive):
		status, code = http.StatusConflict, "TENANT_NOT_ACTIVE"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, code = http.StatusTooManyRequests, "QUOTA_EXCEEDED"
	case errors.Is(err, domain.ErrIsolationViolation):
		status, code = http.StatusForbidden, "ISOLATION_VIOLATION"
	case errors.Is(err, domain.ErrSealInvalid):
		status, code = http.StatusForbidden, "SEAL_INVALID"
	case errors.Is(err, domain.ErrForbiddenLanguage):
		status, code = http.StatusUnprocessableEntity, "FORBIDDEN_LANGUAGE"
	case errors.Is(err, domain.ErrReportExpired):
		status, code = http.StatusGone, "REPORT_EXPIRED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
