package router

import (
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/config"
	"github.com/OskolkovOleg/sklad-monitoring/internal/handler"
	"github.com/OskolkovOleg/sklad-monitoring/internal/infra"
	"github.com/OskolkovOleg/sklad-monitoring/internal/middleware"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"
	"github.com/OskolkovOleg/sklad-monitoring/internal/service"
	"github.com/OskolkovOleg/sklad-monitoring/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the application service graph. The worker pool and the tick
// cron share it with the HTTP handlers.
type Services struct {
	Aggregations service.AggregationService
	Monitoring   service.MonitoringService
	Structure    service.StructureService
	SKUs         service.SKUService
	Inventory    service.InventoryService
	Norms        service.NormService
	Simulation   service.SimulationService
	Reports      service.ReportService
	Settings     service.SettingsService
}

// NewServices wires repositories and services.
// Dependency graph: Service ← Repository ← DB/Redis
// Without Redis the query cache is a no-op and async recomputes are refused.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, pdf service.PDFRenderer) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	aggRepo := repository.NewAggregationRepository(db)
	sourceRepo := repository.NewSourceReader(db)
	structureRepo := repository.NewStructureRepository(db)
	skuRepo := repository.NewSKURepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	normRepo := repository.NewNormRepository(db)
	importLogRepo := repository.NewImportLogRepository(db)
	exportRepo := repository.NewReportExportRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var jobs service.JobQueue
	if rdb != nil {
		jobs = worker.NewDispatcher(rdb)
	}
	cache := infra.NewQueryCache(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	aggSvc := service.NewAggregationService(aggRepo, sourceRepo, inventoryRepo, normRepo, settingsRepo, cache, jobs, cfg.CompanyName)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.CompanyName)

	return &Services{
		Aggregations: aggSvc,
		Monitoring:   service.NewMonitoringService(aggRepo, inventoryRepo),
		Structure:    service.NewStructureService(structureRepo, importLogRepo, aggSvc),
		SKUs:         service.NewSKUService(skuRepo, aggSvc),
		Inventory:    service.NewInventoryService(inventoryRepo, skuRepo, structureRepo, importLogRepo, aggSvc),
		Norms:        service.NewNormService(normRepo, skuRepo, structureRepo, importLogRepo, aggSvc),
		Simulation:   service.NewSimulationService(inventoryRepo, structureRepo, aggSvc),
		Reports:      service.NewReportService(aggSvc, exportRepo, settingsSvc, pdf),
		Settings:     settingsSvc,
	}
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services, mailCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimit, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	aggH := handler.NewAggregationsHandler(svcs.Aggregations)
	monitoringH := handler.NewMonitoringHandler(svcs.Monitoring)
	structureH := handler.NewStructureHandler(svcs.Structure)
	skuH := handler.NewSKUHandler(svcs.SKUs)
	importH := handler.NewImportHandler(svcs.Inventory, svcs.Norms)
	inventoryH := handler.NewInventoryHandler(svcs.Inventory)
	normsH := handler.NewNormsHandler(svcs.Norms)
	simH := handler.NewSimulationHandler(svcs.Simulation)
	reportsH := handler.NewReportsHandler(svcs.Reports)
	settingsH := handler.NewSettingsHandler(svcs.Settings)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, mailCB))

	v1 := r.Group("/v1")
	{
		agg := v1.Group("/aggregations")
		{
			agg.POST("/recalculate", aggH.Recalculate)
			agg.GET("", aggH.List)
			agg.GET("/:entityType/:id", aggH.Details)
		}
		v1.GET("/dashboard/bars", aggH.Bars)
		v1.GET("/kpi", monitoringH.KPI)
		v1.GET("/alerts", monitoringH.Alerts)

		v1.POST("/warehouses/sync", structureH.Sync)
		v1.GET("/warehouses", structureH.List)
		v1.PATCH("/warehouses/:id/active", structureH.SetActive(model.EntityWarehouse))
		v1.PATCH("/zones/:id/active", structureH.SetActive(model.EntityZone))
		v1.PATCH("/locations/:id/active", structureH.SetActive(model.EntityLocation))

		skus := v1.Group("/skus")
		{
			skus.POST("", skuH.Create)
			skus.GET("", skuH.List)
			skus.PUT("/:id", skuH.Update)
			skus.DELETE("/:id", skuH.Deactivate)
		}

		imp := v1.Group("/import")
		{
			imp.POST("/inventory", importH.Inventory)
			imp.POST("/norms", importH.Norms)
			imp.GET("/logs", importH.Logs)
		}

		v1.GET("/inventory", inventoryH.List)

		v1.GET("/norms", normsH.List)
		v1.PUT("/norms", normsH.Put)
		v1.DELETE("/norms/:id", normsH.Delete)

		v1.POST("/simulate/tick", simH.Tick)

		reports := v1.Group("/reports")
		{
			reports.GET("/aggregations.csv", reportsH.CSV)
			reports.GET("/aggregations.pdf", reportsH.PDF)
			reports.GET("/history", reportsH.History)
		}

		v1.GET("/settings", settingsH.Get)
		v1.PUT("/settings", settingsH.Update)
	}

	// Swagger UI (disabled in production)
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
