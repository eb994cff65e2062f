package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"campusevents/internal/auth"
	"campusevents/internal/catalog"
	"campusevents/internal/domain"
	"campusevents/internal/httpmiddleware"
	"campusevents/internal/identity"
	"campusevents/internal/ledger"
	"campusevents/internal/reports"
	"campusevents/internal/store"
)

// TokenConfig parameterizes token issuance and verification.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
}

// API wires the domain services to the HTTP surface.
type API struct {
	log      zerolog.Logger
	tokens   TokenConfig
	identity *identity.Service
	catalog  *catalog.Service
	ledger   *ledger.Service
	reports  *reports.Service
	db       *store.DB
	redis    *store.Redis
	limiter  httpmiddleware.Limiter
}

// New assembles the API.
func New(log zerolog.Logger, tokens TokenConfig, ids *identity.Service, cat *catalog.Service,
	led *ledger.Service, rep *reports.Service, db *store.DB, rds *store.Redis, limiter httpmiddleware.Limiter) *API {
	return &API{
		log:      log,
		tokens:   tokens,
		identity: ids,
		catalog:  cat,
		ledger:   led,
		reports:  rep,
		db:       db,
		redis:    rds,
		limiter:  limiter,
	}
}

// Router builds the gin engine with the full middleware chain and route table.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(a.requestLogger())
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	if a.limiter != nil {
		r.Use(httpmiddleware.RateLimit(a.limiter))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", a.health)

	r.POST("/api/auth/admin/login", a.adminLogin)
	r.POST("/api/auth/student/login", a.studentLogin)
	r.POST("/api/auth/student/register", a.studentRegister)

	authed := r.Group("/api", auth.Require(a.tokens.SigningKey, a.tokens.Issuer))
	authed.GET("/events", a.listEvents)
	authed.POST("/events", a.createEvent)
	authed.GET("/events/:id", a.getEvent)
	authed.PUT("/events/:id", a.updateEvent)
	authed.DELETE("/events/:id", a.retireEvent)
	authed.POST("/events/:id/register", a.register)
	authed.DELETE("/events/:id/register", a.cancelRegistration)
	authed.POST("/events/:id/checkin", a.checkIn)
	authed.POST("/events/:id/feedback", a.submitFeedback)
	authed.GET("/events/:id/certificate/:studentID", a.certificate)
	authed.GET("/admin/dashboard", a.adminDashboard)
	authed.GET("/student/dashboard", a.studentDashboard)
	authed.GET("/leaderboard", a.leaderboard)
	authed.GET("/reports/events", a.eventReport)

	return r
}

func (a *API) health(c *gin.Context) {
	redisHealthy := a.redis.Healthy(c.Request.Context())
	dbHealthy := a.db != nil && a.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// fail maps domain errors onto HTTP statuses. Anything outside the taxonomy is
// a 500 and logged; the taxonomy itself is client-reportable.
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrNotRegistered),
		errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/healthz" || c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		a.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
