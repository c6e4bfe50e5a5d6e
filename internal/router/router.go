package router

import (
	"time"

	"sosstock/internal/auth"
	"sosstock/internal/config"
	"sosstock/internal/domain"
	"sosstock/internal/handler"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/middleware"
	"sosstock/internal/repository"
	"sosstock/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CachePrefix namespaces read-model keys in the shared Redis database.
const CachePrefix = "sosstock:"

// Deps are the long-lived resources built by the composition root.
type Deps struct {
	DB      *gorm.DB
	ReadDB  *sqlx.DB
	Redis   *redis.Client
	Tokens  *auth.Store
	Emails  service.EmailQueue
	Metrics *metrics.Metrics
	MailCB  *infra.CircuitBreaker
	// Alerts is shared with the change feed goroutine.
	Alerts service.AlertService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	issuer := auth.NewIssuer(cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.JWTRefreshHours)*time.Hour)

	// ── Repositories ─────────────────────────────────────────────────────────
	profileRepo := repository.NewProfileRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	locationRepo := repository.NewLocationRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	supplierRepo := repository.NewSupplierRepository(d.DB)
	inventoryRepo := repository.NewInventoryRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	reportRepo := repository.NewReportRepository(d.ReadDB)

	// ── Services ─────────────────────────────────────────────────────────────
	cache := infra.NewRedisCache(d.Redis, CachePrefix)
	dashboardSvc := service.NewDashboardService(locationRepo, inventoryRepo, reportRepo, cache,
		time.Duration(cfg.DashboardCacheTTLSec)*time.Second, d.Metrics)

	authSvc := service.NewAuthService(profileRepo, issuer, d.Tokens, d.Emails, cfg, d.Metrics)
	userSvc := service.NewUserService(profileRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	locationSvc := service.NewLocationService(locationRepo, inventoryRepo, dashboardSvc)
	productSvc := service.NewProductService(productRepo, categoryRepo, inventoryRepo, dashboardSvc)
	supplierSvc := service.NewSupplierService(supplierRepo)
	inventorySvc := service.NewInventoryService(inventoryRepo, productRepo, locationRepo, dashboardSvc, d.Metrics)
	orderSvc := service.NewOrderService(orderRepo, productRepo, supplierRepo, inventoryRepo, d.Emails, dashboardSvc, cfg, d.Metrics)
	reportSvc := service.NewReportService(reportRepo, inventoryRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(userSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	locationsH := handler.NewLocationsHandler(locationSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	productsH := handler.NewProductsHandler(productSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc, orderSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	alertsH := handler.NewAlertsHandler(d.Alerts)
	reportsH := handler.NewReportsHandler(reportSvc, cfg.ExpiringWithinDays)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.MailCB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Auth (public)
	pub := r.Group("/v1/auth")
	{
		pub.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		pub.POST("/refresh", authH.Refresh)
		pub.POST("/password/forgot", middleware.LoginRateLimiter(), authH.ForgotPassword)
		pub.POST("/password/reset", middleware.LoginRateLimiter(), authH.ResetPassword)
	}

	// Protected routes. Reads are open to every signed-in role; writes
	// that shape the catalogue are admin only.
	jwtMW := middleware.JWTAuth(issuer, profileRepo, d.Tokens)
	admin := middleware.RequireRole(domain.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		session := v1.Group("/auth")
		{
			session.GET("/session", authH.Session)
			session.POST("/logout", authH.Logout)
			session.PUT("/profile", authH.UpdateProfile)
			session.PUT("/password", authH.UpdatePassword)
		}

		v1.GET("/dashboard", dashboardH.Get)

		v1.GET("/locations", locationsH.List)
		v1.GET("/locations/:id", locationsH.Get)
		locs := v1.Group("/locations", admin)
		{
			locs.POST("", locationsH.Create)
			locs.PUT("/:id", locationsH.Update)
			locs.DELETE("/:id", locationsH.Delete)
		}

		v1.GET("/categories", categoriesH.List)
		cats := v1.Group("/categories", admin)
		{
			cats.POST("", categoriesH.Create)
			cats.PUT("/:id", categoriesH.Update)
			cats.DELETE("/:id", categoriesH.Delete)
		}

		v1.GET("/products", productsH.List)
		v1.GET("/products/:id", productsH.Get)
		v1.GET("/products/:id/suppliers", productsH.ListSuppliers)
		v1.GET("/products/:id/variants", productsH.ListVariants)
		v1.GET("/products/:id/batches", productsH.ListBatches)
		prods := v1.Group("/products", admin)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
			prods.POST("/:id/suppliers", productsH.AddSupplier)
			prods.DELETE("/:id/suppliers/:link_id", productsH.RemoveSupplier)
			prods.POST("/:id/variants", productsH.AddVariant)
			prods.POST("/:id/batches", productsH.AddBatch)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("/movements", inventoryH.ListMovements)
			inv.POST("/movements", inventoryH.RecordMovement)
			inv.GET("/movements/export", inventoryH.ExportMovements)
			inv.GET("/summary", inventoryH.Summary)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("", ordersH.List)
			orders.GET("/active", ordersH.Active)
			orders.POST("", ordersH.Create)
			orders.GET("/:id", ordersH.Get)
			orders.PUT("/:id", ordersH.Update)
			orders.POST("/:id/items", ordersH.AddItem)
			orders.DELETE("/:id/items/:item_id", ordersH.RemoveItem)
			orders.POST("/:id/cancel", ordersH.Cancel)
			orders.POST("/:id/receive", ordersH.Receive)
			orders.GET("/:id/pdf", ordersH.PDF)
			orders.POST("/:id/send", ordersH.Send)
		}

		v1.GET("/suppliers", suppliersH.List)
		v1.GET("/suppliers/:id", suppliersH.Get)
		v1.GET("/suppliers/:id/price", suppliersH.Price)
		sups := v1.Group("/suppliers", admin)
		{
			sups.POST("", suppliersH.Create)
			sups.PUT("/:id", suppliersH.Update)
			sups.DELETE("/:id", suppliersH.Delete)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", alertsH.List)
			alerts.GET("/unread", alertsH.Unread)
			alerts.GET("/stream", alertsH.Stream)
			alerts.POST("/read-all", alertsH.MarkAllRead)
			alerts.POST("/:id/read", alertsH.MarkRead)
		}

		users := v1.Group("/users", admin)
		{
			users.GET("", usersH.List)
			users.POST("", usersH.Create)
			users.GET("/:id", usersH.Get)
			users.PUT("/:id", usersH.Update)
		}

		reports := v1.Group("/reports", admin)
		{
			reports.GET("/to-order", reportsH.ToOrder)
			reports.GET("/expiring", reportsH.Expiring)
			reports.GET("/inventory.xlsx", reportsH.Workbook)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
