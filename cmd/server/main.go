package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/api/handlers"
	"github.com/tradehq/backflow/internal/api/middleware"
	job "github.com/tradehq/backflow/internal/jobs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/publisher"
	"github.com/tradehq/backflow/internal/queue"
	"github.com/tradehq/backflow/internal/repository"
	"github.com/tradehq/backflow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	accountRepo := repository.NewChannelAccountRepository(db)
	contentItemRepo := repository.NewContentItemRepository(db)
	instanceRepo := repository.NewPostInstanceRepository(db)
	publishJobRepo := repository.NewPublishJobRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	reviewRepo := repository.NewReviewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	transitionRepo := repository.NewTransitionRepository(db)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	accountService := service.NewAccountService(accountRepo, channelRepo)
	connectService := service.NewConnectService(cfg, accountRepo)
	r2Service := service.NewR2Service(cfg)
	mediaService := service.NewMediaService(mediaAssetRepo, r2Service)
	contentService := service.NewContentService(contentItemRepo, instanceRepo, mediaAssetRepo, reviewRepo)
	instanceService := service.NewInstanceService(instanceRepo, accountRepo, contentItemRepo)
	lifecycleService := service.NewLifecycleService(instanceRepo, contentItemRepo, publishJobRepo, transitionRepo)
	topoffService := service.NewTopoffService(db, accountRepo, instanceRepo)
	mixService := service.NewMixService(accountRepo, instanceRepo, contentItemRepo)
	reviewService := service.NewReviewService(reviewRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	registry := publisher.NewRegistry()
	registry.Register(models.ChannelGoogleBusiness, publisher.NewGBPPublisher(cfg))
	registry.Register(models.ChannelFacebookPage, publisher.NewFacebookPublisher(cfg))
	registry.Register(models.ChannelInstagram, publisher.NewInstagramPublisher(cfg))

	authMiddleware := middleware.NewAuthMiddleware(cfg, apiKeyService)

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	marketing := handlers.NewMarketingHandler(cfg, topoffService, mixService, lifecycleService, accountService)
	app.Post("/marketing/channels/seed", marketing.SeedChannels)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	account := handlers.NewAccountHandler(accountService, connectService)
	api.Get("/channels", account.ListChannels)
	api.Post("/accounts/create", account.CreateAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/update", account.UpdateAccount)
	api.Post("/accounts/remove", account.RemoveAccount)
	api.Get("/accounts/connect", account.ConnectAccount)
	api.Get("/accounts/connect/callback", account.ConnectCallbackHandler)
	api.Post("/accounts/disconnect", account.DisconnectAccount)

	content := handlers.NewContentHandler(contentService)
	api.Post("/content/create", content.CreateItem)
	api.Get("/content", content.ListItems)
	api.Post("/content/update", content.UpdateItem)
	api.Post("/content/submit", content.SubmitItem)
	api.Post("/content/recall", content.RecallItem)
	api.Post("/content/remove", content.RemoveItem)
	api.Post("/content/media", content.AttachMedia)
	api.Post("/content/from-review", content.ConvertReview)

	instance := handlers.NewInstanceHandler(instanceService, lifecycleService, client)
	api.Post("/instances/create", instance.CreateInstance)
	api.Get("/instances", instance.ListInstances)
	api.Post("/instances/update", instance.UpdateInstance)
	api.Post("/instances/bind", instance.BindContent)
	api.Post("/instances/submit", instance.SubmitInstance)
	api.Post("/instances/approve", instance.ApproveInstance)
	api.Post("/instances/schedule", instance.ScheduleInstance)
	api.Post("/instances/retry", instance.RetryInstance)
	api.Post("/instances/remove", instance.RemoveInstance)
	api.Get("/instances/history", instance.InstanceHistory)
	api.Post("/instances/publish", instance.PublishNow)

	api.Post("/marketing/scheduler/topoff", marketing.Topoff)
	api.Get("/marketing/content-mix/summary", marketing.MixSummary)
	api.Post("/marketing/mark-posted", marketing.MarkPosted)
	api.Post("/marketing/mark-failed", marketing.MarkFailed)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Get("/media", media.ListMedia)
	api.Post("/media/remove", media.RemoveMedia)

	review := handlers.NewReviewHandler(reviewService, client)
	api.Post("/reviews/create", review.CreateRequest)
	api.Get("/reviews", review.ListRequests)
	api.Post("/reviews/complete", review.CompleteRequest)

	notification := handlers.NewNotificationHandler(notificationService)
	api.Get("/notifications", notification.ListNotifications)
	api.Post("/notifications/read", notification.MarkRead)

	// cron jobs
	topoffJob := job.NewTopoffJob(topoffService, cfg.TopoffHorizonDays)
	reviewExpiryJob := job.NewReviewExpiryJob(reviewRepo)
	overdueJob := job.NewOverdueJob(accountRepo, instanceRepo, notificationRepo)
	tokenRefreshJob := job.NewTokenRefreshJob(cfg, accountRepo)

	autoposter := job.NewAutoposter(cfg, instanceRepo, publishJobRepo, channelRepo, registry)

	//queue
	queueW := queue.NewQueue(instanceRepo, contentItemRepo, accountRepo, reviewRepo, autoposter)

	c := cron.New()
	c.AddFunc(job.TopoffCronSpec, topoffJob.Run)
	c.AddFunc("@every 00h15m00s", reviewExpiryJob.Run)
	c.AddFunc("@every 01h00m00s", overdueJob.Run)
	c.AddFunc("@every 00h10m00s", tokenRefreshJob.RefreshTokens)
	c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go autoposter.Run(ctx)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSendReviewRequest, queueW.HandleSendReviewRequestTask)
		mux.HandleFunc(queue.TaskTypePublishNow, queueW.HandlePublishNowTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, cancel)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	cancel()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
