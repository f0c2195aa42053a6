package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloom-planner/api/checkout"
	"bloom-planner/api/db"
	"bloom-planner/api/entitlement"
	"bloom-planner/api/handlers"
	"bloom-planner/api/kafka"
	"bloom-planner/api/logger"
	"bloom-planner/api/middleware"
	"bloom-planner/api/notify"
	"bloom-planner/api/store"
	"bloom-planner/api/tracker"
	"bloom-planner/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v82"
)

const appName = "bloom-planner"

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
}

func main() {
	if err := logger.Init(os.Getenv("GIN_MODE") != "release", logger.InfoLevel); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.InitDB(); err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer db.CloseDB()

	entities, err := store.Connect(ctx)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer entities.Close(context.Background())

	if err := kafka.InitProducer(); err != nil {
		log.Fatal("Failed to initialize Kafka producer:", err)
	}

	users := db.NewUserStore(db.DB)
	gate := entitlement.NewGate(users, logger.Get())
	records := tracker.New(entities, logger.Get())
	scanner := notify.NewScanner(entities, logger.Get())
	orchestrator := checkout.NewOrchestrator(
		checkout.NewStripeCreator(),
		appName,
		os.Getenv("APP_ORIGIN"),
		logger.Get(),
	)

	pool := worker.NewPool(4, records)
	pool.Start()
	defer pool.Stop()

	if err := kafka.StartConsumer(pool); err != nil {
		log.Fatal("Failed to start Kafka consumer:", err)
	}

	sweeper := tracker.NewSweeper(records, 10*time.Minute, time.Minute, logger.Get())
	go sweeper.Run(ctx)

	checkoutHandler := handlers.NewCheckoutHandler(orchestrator)
	chatHandler := handlers.NewChatHandler(records, kafka.ProduceMessage, kafka.MessageTopic)
	accessHandler := handlers.NewAccessHandler(gate)
	notificationHandler := handlers.NewNotificationHandler(users, scanner)
	webhookHandler := handlers.NewWebhookHandler(users, appName)
	plannerHandler := handlers.NewPlannerHandler(entities)
	internalHandler := handlers.NewInternalHandler(sweeper)

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"}) // Only trust local proxies
	router.Use(middleware.CORS)

	// Chat accepts anonymous submissions; a presented token still has to
	// be valid.
	chat := router.Group("/chat", middleware.OptionalAuthMiddleware)
	{
		chat.POST("/messages", chatHandler.HandleSendMessage)
		chat.GET("/records/:sessionKey", chatHandler.HandleGetSessionRecords)
		chat.GET("/stream/:sessionKey", handlers.HandleRecordStream)
		chat.GET("/ws/:sessionKey", handlers.HandleRecordFeed)
	}

	api := router.Group("/api", middleware.AuthMiddleware)
	{
		api.POST("/checkout/session", checkoutHandler.HandleCreateCheckoutSession)
		api.POST("/access/check", accessHandler.HandleCheckAccess)
		api.GET("/notifications/due", notificationHandler.HandleFindDueItems)
		api.POST("/tasks", plannerHandler.HandleCreateTask)
		api.PUT("/tasks/:id/completed", plannerHandler.HandleCompleteTask)
		api.POST("/events", plannerHandler.HandleCreateEvent)
		api.PUT("/events/:id/completed", plannerHandler.HandleCompleteEvent)
	}

	router.POST("/webhooks/stripe", middleware.StripeWebhookVerifier, webhookHandler.HandleStripeWebhook)

	internal := router.Group("/internal", middleware.MicroserviceAuthMiddleware)
	{
		internal.POST("/sweep", internalHandler.HandleSweep)
		internal.GET("/metrics", gin.WrapF(pool.MetricsHandler))
	}

	// Stop the sweeper and workers on SIGINT/SIGTERM.
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		cancel()
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
