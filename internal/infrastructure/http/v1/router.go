package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/auth"
	"tiendero/internal/domain/catalogs/employee"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/catalogs/warehouse"
	"tiendero/internal/domain/debts"
	"tiendero/internal/domain/payroll"
	"tiendero/internal/domain/sales"
	"tiendero/internal/domain/stock"
	"tiendero/internal/infrastructure/http/v1/handlers"
	"tiendero/internal/infrastructure/http/v1/middleware"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/internal/infrastructure/storage/postgres/catalog_repo"
	"tiendero/internal/infrastructure/storage/postgres/document_repo"
	"tiendero/internal/infrastructure/storage/postgres/stock_repo"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks only).
	Pool *postgres.Pool

	// TxManager drives all repository transactions.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints.
	AuthService *auth.Service

	// Numerator for document number generation.
	Numerator *numerator.Service

	// Audit records who changed what. Optional; nil disables the trail.
	Audit *postgres.AuditService

	// Idempotency replays duplicate mutating requests. Optional; nil
	// disables the middleware.
	Idempotency *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerCatalogRoutes(protected, cfg)
		registerStockRoutes(protected, cfg)
		registerSalesRoutes(protected, cfg)
		registerDebtRoutes(protected, cfg)
		registerPayrollRoutes(protected, cfg)
		registerAuditRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	public := rg.Group("/auth")
	{
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
	}

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)

		// User management is admin territory.
		admin := protected.Group("", middleware.RequireRole(appctx.RoleAdmin))
		admin.POST("/register", authHandler.Register)
		admin.GET("/users", authHandler.ListUsers)
		admin.PUT("/users/:id/active", authHandler.SetActive)
	}
}

// registerCatalogRoutes registers catalog endpoints.
// Any authenticated user may read; only admins and managers may mutate.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()
	writeRoles := []string{appctx.RoleAdmin, appctx.RoleManager}

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
		registerAuditHooks(service.CatalogService, cfg.Audit, "product")
		handler := handlers.NewProductHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/products"), handler, writeRoles...)
	}

	// --- WAREHOUSES ---
	{
		repo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
		service := warehouse.NewService(repo, cfg.TxManager, cfg.Numerator)
		registerAuditHooks(service.CatalogService, cfg.Audit, "warehouse")
		handler := handlers.NewWarehouseHandler(baseHandler, service)
		RegisterCatalogRoutes(catalogs.Group("/warehouses"), handler, writeRoles...)
	}

	// --- EMPLOYEES ---
	{
		repo := catalog_repo.NewEmployeeRepo(cfg.TxManager)
		service := employee.NewService(repo, cfg.TxManager, cfg.Numerator)
		registerAuditHooks(service.CatalogService, cfg.Audit, "employee")
		handler := handlers.NewEmployeeHandler(baseHandler, service)

		group := catalogs.Group("/employees")
		group.GET("/active", handler.ListActive)
		RegisterCatalogRoutes(group, handler, writeRoles...)
	}
}

// auditable is what a catalog entity must expose for audit logging.
type auditable interface {
	entity.Validatable
	GetID() id.ID
}

// registerAuditHooks attaches audit trail hooks to a catalog service.
func registerAuditHooks[T auditable](svc *domain.CatalogService[T], audit *postgres.AuditService, entityType string) {
	if audit == nil {
		return
	}

	svc.Hooks().OnBeforeCreate(func(ctx context.Context, item T) error {
		return audit.LogChange(ctx, entityType, item.GetID(), postgres.AuditActionCreate, postgres.StructToMap(item))
	})
	svc.Hooks().OnBeforeUpdate(func(ctx context.Context, item T) error {
		changes := postgres.StructToMap(item)
		// Diff against the stored state so the entry records only what moved.
		if old, err := svc.GetByID(ctx, item.GetID()); err == nil {
			changes = postgres.Diff(postgres.StructToMap(old), changes)
		}
		return audit.LogChange(ctx, entityType, item.GetID(), postgres.AuditActionUpdate, changes)
	})
	svc.Hooks().OnBeforeDelete(func(ctx context.Context, item T) error {
		return audit.LogChange(ctx, entityType, item.GetID(), postgres.AuditActionDelete, nil)
	})
}

// registerStockRoutes registers stock ledger endpoints.
// Manual movements are restricted; sales post their movements internally.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	repo := stock_repo.NewStockRepo(cfg.TxManager)
	service := stock.NewService(repo, cfg.TxManager)
	handler := handlers.NewStockHandler(baseHandler, service)

	group := rg.Group("/stock")
	group.POST("/movements", middleware.RequireRole(appctx.RoleAdmin, appctx.RoleManager), handler.ApplyMovement)
	group.GET("/movements", handler.ListMovements)
	group.GET("/levels/:warehouseId", handler.ListLevels)
	group.GET("/levels/:warehouseId/:productId", handler.GetQuantity)
}

// registerSalesRoutes registers sale lifecycle endpoints.
// Cashiers create sales and take payments; cancelling needs a manager.
func registerSalesRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	productService := product.NewService(productRepo, cfg.TxManager, cfg.Numerator)

	stockRepo := stock_repo.NewStockRepo(cfg.TxManager)
	stockService := stock.NewService(stockRepo, cfg.TxManager)

	repo := document_repo.NewSaleRepo(cfg.TxManager)
	service := sales.NewService(repo, productService, stockService, cfg.TxManager, cfg.Numerator)
	handler := handlers.NewSalesHandler(baseHandler, service, cfg.Audit)

	group := rg.Group("/sales")
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("/:id/payments", handler.AddPayment)
	group.POST("/:id/refunds", handler.AddRefund)
	group.POST("/:id/cancel", middleware.RequireRole(appctx.RoleAdmin, appctx.RoleManager), handler.Cancel)
}

// registerDebtRoutes registers debt ledger endpoints (admin/manager only).
func registerDebtRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	employeeRepo := catalog_repo.NewEmployeeRepo(cfg.TxManager)
	employeeService := employee.NewService(employeeRepo, cfg.TxManager, cfg.Numerator)

	repo := document_repo.NewDebtRepo(cfg.TxManager)
	service := debts.NewService(repo, employeeService, cfg.TxManager)
	handler := handlers.NewDebtsHandler(baseHandler, service)

	group := rg.Group("/debts")
	group.Use(middleware.RequireRole(appctx.RoleAdmin, appctx.RoleManager))
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("/:id/payments", handler.AddPayment)
}

// registerAuditRoutes exposes entity change history (admin only).
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}

	handler := handlers.NewAuditHandler(handlers.NewBaseHandler(), cfg.Audit)

	group := rg.Group("/audit")
	group.Use(middleware.RequireRole(appctx.RoleAdmin))
	group.GET("/:entityType/:id", handler.History)
}

// registerPayrollRoutes registers payroll run endpoints (admin/manager only).
func registerPayrollRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	employeeRepo := catalog_repo.NewEmployeeRepo(cfg.TxManager)
	employeeService := employee.NewService(employeeRepo, cfg.TxManager, cfg.Numerator)

	debtRepo := document_repo.NewDebtRepo(cfg.TxManager)
	debtService := debts.NewService(debtRepo, employeeService, cfg.TxManager)

	repo := document_repo.NewPayrollRepo(cfg.TxManager)
	service := payroll.NewService(repo, employeeService, debtService, cfg.TxManager, cfg.Numerator)
	handler := handlers.NewPayrollHandler(baseHandler, service)

	group := rg.Group("/payroll")
	group.Use(middleware.RequireRole(appctx.RoleAdmin, appctx.RoleManager))
	group.POST("/runs", handler.Run)
	group.GET("/runs", handler.List)
	group.GET("/runs/:id", handler.Get)
}
