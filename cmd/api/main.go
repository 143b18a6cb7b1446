package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/config"
	"casino-engine/internal/handlers"
	"casino-engine/internal/logger"
	"casino-engine/internal/middleware"
	"casino-engine/internal/monitoring"
	"casino-engine/internal/services"
)

const expiryInterval = time.Minute

type backend struct {
	store   services.Store
	custody services.Custody
	limiter services.RateLimiter
	close   func()
}

func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		logger.Log.Warn("using in-memory store; state is lost on restart")
		return &backend{
			store:   services.NewMemoryStore(),
			custody: services.NewMemoryCustody(),
			limiter: services.NewMemoryRateLimiter(services.SystemClock{}),
			close:   func() {},
		}, nil
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		return nil, err
	}
	return &backend{
		store:   redisService,
		custody: redisService,
		limiter: redisService,
		close:   func() { redisService.Close() },
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	monitoring.Init()

	b, err := openBackend(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer b.close()

	hub := handlers.NewWebSocketHub()
	defer hub.Close()

	opts := []services.EngineOption{
		services.WithLogger(logger.Log),
		services.WithBroadcaster(hub),
		services.WithGameTTL(cfg.GameTTL),
	}
	if cfg.Store == config.StoreMemory {
		opts = append(opts, services.WithSeedBalance(cfg.SeedBalance))
	}

	var auditLog *audit.PostgresRecorder
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		auditLog, err = audit.NewPostgresRecorder(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Log.Fatal("failed to open audit log", zap.Error(err))
		}
		defer auditLog.Close()
		opts = append(opts, services.WithRecorder(auditLog))
	}

	engine := services.NewEngine(cfg.CasinoID, b.store, b.custody, opts...)
	tournaments := services.NewTournamentManager(engine, nil)
	jwtService := services.NewJWTService(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(expiryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := engine.ExpireStaleGames(ctx)
				if err != nil {
					logger.Log.Error("stale game sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Log.Info("expired stale games", zap.Int("count", n))
				}
			}
		}
	}()

	casinoHandler := handlers.NewCasinoHandler(engine)
	gameHandler := handlers.NewGameHandler(engine)
	playerHandler := handlers.NewPlayerHandler(engine)
	tournamentHandler := handlers.NewTournamentHandler(tournaments)
	wsHandler := handlers.NewWebSocketHandler(engine, hub)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.MetricsMiddleware())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "casino": engine.CasinoID()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/verify", gameHandler.Verify)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		casino := protected.Group("/casino")
		{
			casino.POST("", casinoHandler.Initialize)
			casino.GET("", casinoHandler.Get)
			casino.PATCH("", casinoHandler.UpdateConfig)
			casino.POST("/pause", casinoHandler.Pause)
			casino.POST("/resume", casinoHandler.Resume)
			casino.POST("/treasury/withdraw", casinoHandler.WithdrawTreasury)
			casino.POST("/vault/fund", casinoHandler.FundVault)
		}

		games := protected.Group("/games")
		{
			games.POST("", middleware.RateLimitMiddleware(b.limiter, "games", cfg.RateLimitGames, cfg.RateLimitWindow), gameHandler.Create)
			games.GET("/:id", gameHandler.Get)
			games.POST("/:id/resolve", gameHandler.Resolve)
			games.POST("/:id/claim", gameHandler.Claim)
			games.POST("/:id/cancel", gameHandler.Cancel)
			games.POST("/:id/expire", gameHandler.Expire)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", gameHandler.GetBalance)
			wallet.GET("/transfers", gameHandler.GetTransfers)
		}

		players := protected.Group("/players")
		{
			players.POST("", playerHandler.Initialize)
			players.GET("/me", playerHandler.GetCurrentPlayer)
			players.POST("/stats", playerHandler.UpdateStats)
		}

		t := protected.Group("/tournaments")
		{
			t.POST("", tournamentHandler.Create)
			t.GET("/:id", tournamentHandler.Get)
			t.POST("/:id/join", tournamentHandler.Join)
			t.POST("/:id/finalize", tournamentHandler.Finalize)
		}

		if auditLog != nil {
			protected.GET("/audit", handlers.NewAuditHandler(engine, auditLog).Recent)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.Store), zap.String("casino", cfg.CasinoID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}
