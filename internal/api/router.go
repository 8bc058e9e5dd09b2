package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/dbpool"
	"github.com/reliefline/fundledger/internal/middleware"
)

// RouterDeps carries everything the HTTP layer needs from main.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool
	Budgets       BudgetService
	Ledger        LedgerService
	History       HistoryService
	Imports       ImportService
	Reconcile     ReconcileService
	Notifications NotificationService
	APIKeys       []string
	CORSOrigins   []string
	Version       string
}

// Throttling defaults for the shared rate limiter.
const (
	rateLimit = 100 // requests per second per caller
	rateBurst = 200 // token bucket burst size
)

// setupMiddleware installs the shared middleware chain and the metrics
// endpoint.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Prometheus scrapes are served outside the authenticated group.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes mounts every versioned endpoint on the group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	budgets := NewBudgetHandler(deps.Budgets, log)
	ledger := NewLedgerHandler(deps.Ledger, log)
	history := NewHistoryHandler(deps.History, log)
	imports := NewImportHandler(deps.Imports, log)
	reconcile := NewReconcileHandler(deps.Reconcile, log)
	notifications := NewNotificationHandler(deps.Notifications, log)

	// Probes stay reachable without a key.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication. Repeated failures for the
	// same key lock it out before the auth check runs.
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(deps.APIKeys, log, bfGuard))

	// Budget records.
	api.POST("/budgets", budgets.Create)
	api.GET("/budgets", budgets.List)
	api.GET("/budgets/:project_id", budgets.Get)
	api.POST("/budgets/:project_id/archive", budgets.Archive)

	// Mutation engine.
	api.POST("/budgets/:project_id/validate", ledger.Validate)
	api.POST("/budgets/:project_id/disbursements", ledger.Disburse)
	api.POST("/budgets/:project_id/rollbacks", ledger.Rollback)

	// Reconciliation.
	api.GET("/budgets/:project_id/reconciliation", reconcile.Run)

	// Ledger history.
	api.GET("/ledger", history.List)
	api.GET("/ledger/batches/:batch_id", history.Batch)
	api.GET("/ledger/entries/:id", history.Entry)

	// Bulk import.
	api.POST("/imports", imports.Run)

	// Notifications.
	api.GET("/notifications", notifications.List)
	api.POST("/notifications/:id/resolve", notifications.Resolve)
	api.DELETE("/notifications", notifications.Purge)
}

// NewRouter assembles the engine, its middleware chain, and the versioned
// routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
