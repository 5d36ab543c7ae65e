package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradocs/config"
	"tradocs/cron"
	"tradocs/database"
	documentRepo "tradocs/database/repository/document"
	folderRepo "tradocs/database/repository/folder"
	notificationRepo "tradocs/database/repository/notification"
	paymentRepo "tradocs/database/repository/payment"
	profileRepo "tradocs/database/repository/profile"
	translatedRepo "tradocs/database/repository/translated"
	verificationRepo "tradocs/database/repository/verification"
	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/handlers"
	"tradocs/middleware"
	"tradocs/routes"
	"tradocs/services/account"
	"tradocs/services/admin"
	"tradocs/services/affiliate"
	"tradocs/services/authenticator"
	"tradocs/services/cleanup"
	"tradocs/services/document"
	"tradocs/services/finance"
	"tradocs/services/notification"
	"tradocs/services/payment"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeSecretKey

	if err := utils.RegisterValidators(); err != nil {
		logger.Fatal("main: failed to register validators", zap.Error(err))
	}

	store, closeStore, err := utils.NewStorage(context.Background())
	if err != nil {
		logger.Fatal("main: failed to initialize storage", zap.Error(err))
	}
	defer closeStore()

	// repositories.
	profiles := profileRepo.NewMongoProfileRepo()
	docs := documentRepo.NewMongoDocumentRepo()
	folders := folderRepo.NewMongoFolderRepo()
	verifications := verificationRepo.NewMongoVerificationRepo()
	translations := translatedRepo.NewMongoTranslatedRepo()
	payments := paymentRepo.NewMongoPaymentRepo()
	notes := notificationRepo.NewMongoNotificationRepo()
	withdrawals := withdrawalRepo.NewMongoWithdrawalRepo()

	// background queue.
	redisOpt := cron.RedisOpt()
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()

	// services.
	authCache := utils.NewRedisAuthCache(utils.GetAuthCacheClient())
	accountService := account.NewAccountService(profiles, authCache, time.Duration(config.AppConfig.TokenTTLHours)*time.Hour)

	notificationService, err := notification.NewDefaultNotificationService(
		notes,
		profiles,
		notification.NewRedisBroker(utils.GetCacheClient()),
		&notification.AsynqPushQueue{Client: queue},
		notification.NewFCMPusher(utils.FCMClient),
	)
	if err != nil {
		logger.Fatal("main: failed to initialize notifications", zap.Error(err))
	}

	documentService := &document.DefaultDocumentService{
		Docs:          docs,
		Verifications: verifications,
		Translations:  translations,
		Folders:       folders,
		Storage:       store,
		Notifier:      notificationService,
		Pricing:       document.NewPricing(config.AppConfig.PricePerPageCents, config.AppConfig.Currency),
	}

	affiliateService, err := affiliate.NewAffiliateService(
		profiles, payments, withdrawals, notificationService,
		config.AppConfig.AffiliateCommissionRate, config.AppConfig.AffiliateMinWithdrawal,
	)
	if err != nil {
		logger.Fatal("main: invalid affiliate settings", zap.Error(err))
	}

	paymentService := &payment.DefaultPaymentService{
		Payments:   payments,
		Docs:       docs,
		Profiles:   profiles,
		Documents:  documentService,
		Affiliates: affiliateService,
		Notifier:   notificationService,
		Gateway:    payment.StripeGateway{},
		Settings: payment.Settings{
			SecretKey:         config.AppConfig.StripeSecretKey,
			WebhookSecretTest: config.AppConfig.StripeWebhookSecretTest,
			WebhookSecretLive: config.AppConfig.StripeWebhookSecretLive,
			SuccessURL:        config.AppConfig.CheckoutSuccessURL,
			CancelURL:         config.AppConfig.CheckoutCancelURL,
			Currency:          config.AppConfig.Currency,
		},
	}

	authenticatorService := &authenticator.DefaultAuthenticatorService{
		Verifications: verifications,
		Translations:  translations,
		Docs:          docs,
		Documents:     documentService,
		Notifier:      notificationService,
	}

	financeService := &finance.DefaultFinanceService{
		Docs:          docs,
		Verifications: verifications,
		Translations:  translations,
		Payments:      payments,
		Withdrawals:   withdrawals,
		Cache:         finance.NewRedisStatsCache(utils.GetCacheClient()),
	}

	adminService := &admin.DefaultAdminService{
		Finance:  financeService,
		Profiles: accountService,
	}

	cleanupService := cleanup.NewCleanupService(
		docs, payments, notes, store,
		config.AppConfig.DraftRetentionDays, config.AppConfig.NotificationRetentionDays,
	)

	worker, err := cron.StartWorker(redisOpt, notificationService, cleanupService, config.AppConfig.CleanupCron)
	if err != nil {
		logger.Fatal("main: failed to start background worker", zap.Error(err))
	}
	health := utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()}, database.MongoClient)

	handlerBundle := &handlers.HandlerBundle{
		Accounts:       accountService,
		Documents:      documentService,
		Payments:       paymentService,
		Notifications:  notificationService,
		Affiliates:     affiliateService,
		Authenticators: authenticatorService,
		Finance:        financeService,
		Admin:          adminService,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.AccessLogger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle, routes.Deps{
		Profiles:  profiles,
		AuthCache: authCache,
		Origins:   config.AllowedOrigins(),
	})

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	<-health.Stop().Done()
	worker.Shutdown()
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
