package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/services"
)

// Services are the business services the API is served from
type Services struct {
	Auth      services.AuthService
	Settings  services.SettingsService
	Customers services.CustomerService
	Products  services.ProductService
	Invoices  services.InvoiceService
	Documents services.InvoiceDocumentService
	Dashboard services.DashboardService
	Reports   services.ReportService
	Imports   services.ImportService
	Audit     services.AuditService
}

// RouterConfig holds the HTTP concerns of the router
type RouterConfig struct {
	Logger             *logrus.Logger
	CORSAllowedOrigins []string
	LoginRatePerMinute int
	CookieSecure       bool
	AccessLog          bool
	// UploadsDir is served under /static/uploads when files are stored locally
	UploadsDir   string
	HealthChecks map[string]CheckFunc
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.RequestID())
	if cfg.AccessLog {
		router.Use(gin.Logger())
	}
	router.Use(middleware.SetupCORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler(cfg.Logger))

	health := NewHealthHandler(cfg.HealthChecks)
	router.GET("/health", health.HealthCheck)
	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.UploadsDir != "" {
		router.Static("/static/uploads", cfg.UploadsDir)
	}

	authHandler := NewAuthHandler(svc.Auth, cfg.CookieSecure)
	gstHandler := NewGSTHandler()
	customerHandler := NewCustomerHandler(svc.Customers)
	productHandler := NewProductHandler(svc.Products)
	importHandler := NewImportHandler(svc.Imports)
	invoiceHandler := NewInvoiceHandler(svc.Invoices, svc.Documents)
	reportHandler := NewReportHandler(svc.Dashboard, svc.Reports)
	settingsHandler := NewSettingsHandler(svc.Settings)
	auditHandler := NewAuditHandler(svc.Audit)

	api := router.Group("/api/v1")

	// Public routes
	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMinute)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", middleware.RateLimit(loginLimiter), authHandler.Signup)
		auth.POST("/login", middleware.RateLimit(loginLimiter), authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}
	gstRoutes := api.Group("/gst")
	{
		gstRoutes.POST("/calculate", gstHandler.Calculate)
		gstRoutes.POST("/words", gstHandler.Words)
		gstRoutes.GET("/states", gstHandler.States)
	}
	api.POST("/validate/:kind", gstHandler.Validate)

	protected := api.Group("")
	protected.Use(middleware.Auth(svc.Auth))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/dashboard", reportHandler.Dashboard)

		customers := protected.Group("/customers")
		{
			customers.GET("", customerHandler.ListCustomers)
			customers.POST("", customerHandler.CreateCustomer)
			customers.GET("/import/template", importHandler.GetImportTemplate(services.ImportCustomers))
			customers.POST("/import", importHandler.Import(services.ImportCustomers))
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
		}

		products := protected.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.POST("", productHandler.CreateProduct)
			products.GET("/import/template", importHandler.GetImportTemplate(services.ImportProducts))
			products.POST("/import", importHandler.Import(services.ImportProducts))
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.GET("", invoiceHandler.ListInvoices)
			invoices.POST("", invoiceHandler.CreateInvoice)
			invoices.GET("/next-number", invoiceHandler.NextNumber)
			invoices.POST("/preview", invoiceHandler.PreviewInvoice)
			invoices.GET("/:id", invoiceHandler.GetInvoice)
			invoices.GET("/:id/pdf", invoiceHandler.DownloadPDF)
			invoices.GET("/:id/html", invoiceHandler.PrintHTML)
			invoices.POST("/:id/paid", invoiceHandler.MarkPaid)
			invoices.POST("/:id/cancel", invoiceHandler.CancelInvoice)
			invoices.POST("/:id/email", invoiceHandler.EmailInvoice)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/gst-summary", reportHandler.GSTSummary)
			reports.GET("/gst-summary/export", reportHandler.ExportGSTSummary)
			reports.GET("/ledger", reportHandler.CustomerLedger)
			reports.GET("/ledger/export", reportHandler.ExportLedger)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/profile", settingsHandler.GetProfile)
			settings.PUT("/profile", settingsHandler.UpdateProfile)
			settings.POST("/profile/avatar", settingsHandler.UploadAvatar)
			settings.GET("/shop", settingsHandler.GetShop)
			settings.PUT("/shop", settingsHandler.UpdateShop)
			settings.POST("/shop/logo", settingsHandler.UploadLogo)
			settings.POST("/shop/signature", settingsHandler.UploadSignature)
			settings.GET("/bank", settingsHandler.GetBankDetails)
			settings.PUT("/bank", settingsHandler.UpdateBankDetails)
			settings.POST("/bank/qr", settingsHandler.UploadBankQR)
			settings.GET("/notifications", settingsHandler.GetNotifications)
			settings.PUT("/notifications", settingsHandler.UpdateNotifications)
			settings.GET("/branches", settingsHandler.ListBranches)
			settings.POST("/branches", settingsHandler.CreateBranch)
			settings.DELETE("/branches/:id", settingsHandler.DeleteBranch)
			settings.POST("/security/change-password", authHandler.ChangePassword)
			settings.POST("/security/logout-all", authHandler.LogoutAll)
			settings.GET("/tokens", authHandler.ListAPITokens)
			settings.POST("/tokens", authHandler.CreateAPIToken)
			settings.DELETE("/tokens/:id", authHandler.RevokeAPIToken)
		}

		protected.GET("/audit-logs", auditHandler.ListAuditLogs)
	}

	return router
}
