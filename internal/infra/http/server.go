package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"chainverify/internal/config"
	"chainverify/internal/domain"
	"chainverify/internal/infra/auditmem"
	"chainverify/internal/infra/db"
	"chainverify/internal/infra/dispatch"
	"chainverify/internal/infra/policyopa"
	"chainverify/internal/infra/ratelimit"
	"chainverify/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	ingestor  *usecase.SpecIngestor
	registry  *usecase.TenantRegistry
	generator *usecase.FuzzGenerator
	executor  *usecase.SafeExecutor
	scorer    *usecase.Scorer
	reporter  *usecase.Reporter
	audit     *usecase.AuditEmitter
	auditRepo usecase.AuditEventRepository

	adminAPIKey string
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Ingestor    *usecase.SpecIngestor
	Registry    *usecase.TenantRegistry
	Generator   *usecase.FuzzGenerator
	Executor    *usecase.SafeExecutor
	Scorer      *usecase.Scorer
	Reporter    *usecase.Reporter
	Audit       *usecase.AuditEmitter
	AuditRepo   usecase.AuditEventRepository
	AdminAPIKey string
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		ingestor:    deps.Ingestor,
		registry:    deps.Registry,
		generator:   deps.Generator,
		executor:    deps.Executor,
		scorer:      deps.Scorer,
		reporter:    deps.Reporter,
		audit:       deps.Audit,
		auditRepo:   deps.AuditRepo,
		adminAPIKey: deps.AdminAPIKey,
	}
	if s.ingestor == nil {
		s.ingestor = usecase.NewSpecIngestor()
	}
	if s.registry == nil {
		s.registry = usecase.NewTenantRegistry()
	}
	if s.generator == nil {
		s.generator = usecase.NewFuzzGenerator()
	}
	if s.scorer == nil {
		s.scorer = usecase.NewScorer()
	}
	if s.reporter == nil {
		s.reporter = usecase.NewReporter()
	}
	if s.executor == nil {
		s.executor = &usecase.SafeExecutor{Registry: s.registry}
	}
	s.routes()
	return s
}

func (s *Server) initDeps() {
	s.adminAPIKey = s.cfg.AdminAPIKey

	var (
		tenantRepo usecase.TenantRepository
		specRepo   usecase.SpecRepository
		reportRepo usecase.ReportRepository
	)
	if s.store != nil && s.store.DB != nil {
		tenantRepo = db.NewTenantRepository(s.store.DB)
		specRepo = db.NewSpecRepository(s.store.DB)
		reportRepo = db.NewReportRepository(s.store.DB)
		s.auditRepo = db.NewAuditEventRepository(s.store.DB)
	} else {
		s.auditRepo = auditmem.New()
	}
	s.audit = usecase.NewAuditEmitter(s.auditRepo)

	s.registry = usecase.NewTenantRegistry()
	s.registry.Repo = tenantRepo
	s.registry.Audit = s.audit

	s.ingestor = usecase.NewSpecIngestor()
	s.ingestor.Repo = specRepo
	s.ingestor.Audit = s.audit

	s.generator = usecase.NewFuzzGenerator()
	s.scorer = usecase.NewScorer()

	s.reporter = usecase.NewReporter()
	s.reporter.Repo = reportRepo
	s.reporter.Audit = s.audit

	var limiter domain.RateLimiter
	if s.cfg.RedisAddr != "" {
		if redisLimiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB); err == nil {
			limiter = redisLimiter
		} else {
			log.Printf("redis limiter unavailable: %v; falling back to memory", err)
		}
	}
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
			MaxKeys: s.cfg.RateLimitMaxKeys,
		})
	}

	var safety usecase.SafetyEngine
	if s.cfg.SafetyBundlePath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		engine, err := policyopa.NewEngineFromBundlePath(ctx, s.cfg.SafetyBundlePath, s.cfg.SafetyBundleID)
		cancel()
		if err != nil {
			log.Printf("safety bundle %q failed to load: %v; continuing without policy gate", s.cfg.SafetyBundlePath, err)
		} else {
			safety = engine
		}
	}

	s.executor = &usecase.SafeExecutor{
		Registry:       s.registry,
		Dispatcher:     dispatch.NewHTTPDispatcher(s.cfg.DispatchTimeout()),
		Limiter:        limiter,
		Safety:         safety,
		Audit:          s.audit,
		ExecutionLimit: s.cfg.RateLimitExecutions,
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/specs", s.handleIngestSpec)
		v1.GET("/specs", s.handleListSpecs)
		v1.GET("/specs/:spec_id", s.handleGetSpec)

		v1.POST("/runs", s.handleRunVerification)
		v1.GET("/reports/:report_id", s.handleGetReport)
		v1.GET("/reports/:report_id/markdown", s.handleGetReportMarkdown)

		v1.POST("/tenants", s.handleAdminCreateTenant)
		v1.GET("/tenants/:tenant_id", s.handleAdminGetTenant)
		v1.POST("/tenants/:tenant_id/activate", s.handleAdminActivateTenant)
		v1.POST("/tenants/:tenant_id/suspend", s.handleAdminSuspendTenant)
		v1.POST("/tenants/:tenant_id/terminate", s.handleAdminTerminateTenant)
		v1.POST("/tenants/:tenant_id/kill", s.handleAdminKillTenant)
		v1.POST("/tenants/:tenant_id/ratelimit/reset", s.handleAdminResetRateLimit)
		v1.GET("/tenants/:tenant_id/audit", s.handleAdminListAudit)
		v1.GET("/tenants/:tenant_id/audit/verify", s.handleAdminVerifyAudit)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}
