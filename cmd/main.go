package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/cache"
	"gst-billing-service/internal/clients"
	"gst-billing-service/internal/config"
	"gst-billing-service/internal/database"
	"gst-billing-service/internal/encryption"
	"gst-billing-service/internal/events"
	"gst-billing-service/internal/handlers"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
	"gst-billing-service/internal/storage"
)

// @title GST Billing API
// @version 1.0.0
// @description Multi-tenant GST invoicing service for Indian small businesses

// @host localhost:8000
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Container health probe
	if len(os.Args) > 1 && os.Args[1] == "health" {
		os.Exit(probeHealth())
	}

	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := config.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Cache
	redisClient := config.InitRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}
	appCache := cache.New(redisClient, cfg.CacheTTL(), log)

	publisher := events.NewPublisher(ctx, cfg.App.NATSURL, log)
	defer publisher.Close()

	files, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize file storage")
	}
	var uploadsDir string
	if local, ok := files.(*storage.LocalStorage); ok {
		uploadsDir = local.Root()
	}

	encryptor, err := encryption.NewAccountEncryptor(ctx, encryption.Config{
		GCPProjectID:    cfg.Crypto.GCPProjectID,
		SecretName:      cfg.Crypto.SecretName,
		LocalKey:        cfg.Crypto.LocalKey,
		DerivedFrom:     cfg.Auth.SecretKey,
		AllowDerivedKey: !cfg.IsProduction(),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize account encryption")
	}
	defer encryptor.Close()

	mailer := clients.NewMailer(cfg.Mail, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	shopRepo := repository.NewShopRepository(db)
	apiTokenRepo := repository.NewAPITokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db, appCache)

	// Services
	auditService := services.NewAuditService(auditRepo, log)
	authService := services.NewAuthService(userRepo, shopRepo, apiTokenRepo, auditService, cfg.Auth.SecretKey, cfg.AccessTokenTTL(), log)
	documentService := services.NewInvoiceDocumentService(shopRepo, encryptor, log)
	invoiceService := services.NewInvoiceService(services.InvoiceServiceDeps{
		Invoices:  invoiceRepo,
		Customers: customerRepo,
		Products:  productRepo,
		Shops:     shopRepo,
		Documents: documentService,
		Mailer:    mailer,
		Publisher: publisher,
		Cache:     appCache,
		Audit:     auditService,
	}, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		CookieSecure:       cfg.Auth.CookieSecure,
		AccessLog:          cfg.App.Debug,
		UploadsDir:         uploadsDir,
		HealthChecks: map[string]handlers.CheckFunc{
			"database": sqlDB.PingContext,
			"cache":    appCache.Ping,
		},
	}, handlers.Services{
		Auth:      authService,
		Settings:  services.NewSettingsService(userRepo, shopRepo, files, encryptor, auditService, log),
		Customers: services.NewCustomerService(customerRepo, invoiceRepo, auditService),
		Products:  services.NewProductService(productRepo, auditService),
		Invoices:  invoiceService,
		Documents: documentService,
		Dashboard: services.NewDashboardService(invoiceRepo, customerRepo, productRepo, appCache, log),
		Reports:   services.NewReportService(invoiceRepo, customerRepo),
		Imports:   services.NewImportService(customerRepo, productRepo, auditService, log),
		Audit:     auditService,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"address":     srv.Addr,
			"environment": cfg.App.Environment,
			"storage":     cfg.Storage.Provider,
			"mail":        cfg.MailEnabled(),
		}).Info("GST billing service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// probeHealth calls the local /health endpoint and returns the exit code
func probeHealth() int {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 3 * time.Second
	client.Logger = nil

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		return 1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
