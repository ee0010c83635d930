package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicle-auction/internal/api/handlers"
	"vehicle-auction/internal/config"
	"vehicle-auction/internal/infrastructure/leader"
	"vehicle-auction/internal/infrastructure/mysql"
	"vehicle-auction/internal/infrastructure/redis"
	"vehicle-auction/internal/infrastructure/websocket"
	"vehicle-auction/internal/services"
	"vehicle-auction/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting Bidding Service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Initialize repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	auditRepo := mysql.NewMySQLAuditRepository(db)
	autoBidRepo := mysql.NewMySQLAutoBidRepository(db)
	schedulerRepo := mysql.NewMySQLSchedulerRepository(db)

	// Initialize Redis based components
	stateCache := redis.NewRedisStateCache(rdb)
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Bidding rules
	ladder, err := services.NewIncrementLadder(cfg.Bidding.Ladder)
	if err != nil {
		log.Error("Invalid increment ladder configuration", "error", err)
		os.Exit(1)
	}
	clock := services.NewAuctionClock(cfg.Clock.ExtensionWindow, cfg.Clock.ExtensionDuration)
	locks := services.NewAuctionLocks(cfg.Bidding.LockTimeout)
	feeCalculator := services.NewFeeCalculator(cfg.Fees)

	// Realtime fan-out
	connManager := websocket.NewConnectionManager(log)
	notifier := websocket.NewWebSocketNotifier(connManager)

	// Core services. The cron scheduler depends on the lifecycle and the
	// proxy bid pass, which both depend on services constructed here, so
	// the scheduler is injected after construction.
	bidService := services.NewBidService(
		auctionRepo,
		bidRepo,
		auditRepo,
		stateCache,
		eventPublisher,
		ladder,
		clock,
		locks,
		cfg.Bidding.AllowSellerBids,
		log,
	)

	lifecycle := services.NewAuctionLifecycle(
		auctionRepo,
		bidRepo,
		autoBidRepo,
		stateCache,
		eventPublisher,
		locks,
		log,
	)

	proxyBids := services.NewProxyBidScheduler(
		autoBidRepo,
		auctionRepo,
		bidService,
		ladder,
		auditRepo,
		notifier,
		log,
	)

	scheduler := services.NewCronScheduler(
		schedulerRepo,
		lifecycle,
		proxyBids,
		leaderElection,
		cfg.Instance.ID,
		cfg.Scheduler.TickSpec,
		log,
	)

	bidService.SetScheduler(scheduler)
	lifecycle.SetScheduler(scheduler)

	// Incremental auto-bids react to each committed bid instead of
	// waiting for the next tick.
	bidService.SetOnBidAccepted(func(auctionID string) {
		triggerCtx, triggerCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer triggerCancel()
		proxyBids.TriggerForAuction(triggerCtx, auctionID)
	})

	autoBidService := services.NewAutoBidService(autoBidRepo, auctionRepo, ladder, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
			"X-User-ID",
		},
		MaxAge: 86400,
	}))

	// Initialize handlers
	bidHandler := handlers.NewBidHandler(bidService, log)
	feeHandler := handlers.NewFeeHandler(feeCalculator, log)
	autoBidHandler := handlers.NewAutoBidHandler(autoBidService, log)
	auctionHandler := handlers.NewAuctionHandler(lifecycle, log)

	// API routes
	api := e.Group("/api/v1")
	api.POST("/bids", bidHandler.PlaceBid)
	api.POST("/fees/calculate", feeHandler.CalculateFees)
	api.POST("/auto-bids", autoBidHandler.CreateAutoBid)
	api.PUT("/auto-bids/:id", autoBidHandler.UpdateAutoBid)
	api.DELETE("/auto-bids/:id", autoBidHandler.DeleteAutoBid)
	api.POST("/auctions", auctionHandler.CreateAuction)
	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/:id", bidHandler.GetSnapshot)
	api.GET("/auctions/:id/bids", bidHandler.GetBidHistory)
	api.GET("/auctions/:id/audit", bidHandler.GetAuditTrail)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidding-service",
			"timestamp": time.Now().Format(time.RFC3339),
			"port":      cfg.Server.Port,
			"version":   "1.0.0",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Realtime WebSocket server on its own port so fan-out can scale
	// apart from the bid API.
	subscriptionHandler := websocket.NewSubscriptionHandler(auctionRepo, stateCache, connManager, log)
	wsRouter := mux.NewRouter()
	wsRouter.HandleFunc("/ws/auctions/{auctionID}", subscriptionHandler.HandleConnection)
	wsServer := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Realtime.Port),
		Handler: wsRouter,
	}

	// Start background services
	listenerCtx, listenerCancel := context.WithCancel(context.Background())
	defer listenerCancel()

	eventListener := services.NewEventListener(connManager, notifier, log)
	go func() {
		if err := eventListener.Start(listenerCtx, eventSubscriber); err != nil {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	go func() {
		if err := scheduler.Start(context.Background()); err != nil {
			log.Error("Failed to start scheduler", "error", err)
		}
	}()

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became bidding service leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	go func() {
		log.Info("Starting realtime server", "port", cfg.Realtime.Port)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Realtime server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting bidding server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	listenerCancel()
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Realtime server forced to shutdown", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bidding service stopped")
}
