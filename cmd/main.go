package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/events"
	"github.com/RezaAbdollahigit/StoreTrack/internal/handler"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
	"github.com/RezaAbdollahigit/StoreTrack/internal/service"
	"github.com/RezaAbdollahigit/StoreTrack/internal/shipper"
	"github.com/RezaAbdollahigit/StoreTrack/pkg/config"
	"github.com/RezaAbdollahigit/StoreTrack/pkg/middleware"
	pkgtls "github.com/RezaAbdollahigit/StoreTrack/pkg/tls"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := repository.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}
	store := repository.NewStore(db)

	var cache *redis.Client
	if !cfg.LocalMode {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unreachable, caching disabled", zap.Error(err))
			cache = nil
		}
	}

	var publisher events.Publisher
	if cfg.LocalMode {
		publisher = events.NewLogPublisher(logger)
	} else {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
	}
	defer publisher.Close()

	var productCache service.ProductCache
	if cache != nil {
		productCache = service.NewRedisProductCache(cache)
	}

	orderService := service.NewOrderService(store, publisher, productCache, logger, service.OrderConfig{
		LowStockThreshold: cfg.LowStockThreshold,
		AutoSendDelay:     cfg.AutoSendDelay,
	})
	catalogService := service.NewCatalogService(store, productCache, logger)
	authService := service.NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL, logger)

	orderHandler := handler.NewOrderHandler(orderService, logger)
	productHandler := handler.NewProductHandler(catalogService, cfg.LowStockThreshold, logger)
	authHandler := handler.NewAuthHandler(authService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "healthy"})
		})

		rateLimited := middleware.RateLimiter(cache, cfg.RateLimitCount, cfg.RateLimitPeriod)
		v1.POST("/signup", rateLimited, authHandler.Signup)
		v1.POST("/signin", rateLimited, authHandler.Signin)

		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.GET("/categories", productHandler.ListCategories)
		v1.GET("/reports/low-stock", productHandler.LowStockReport)
		v1.GET("/reports/sales", orderHandler.SalesSummary)
		v1.GET("/stock/history", productHandler.StockHistory)

		authorized := v1.Group("/")
		authorized.Use(middleware.RequireAuth(authService))
		{
			authorized.POST("/products", productHandler.CreateProduct)
			authorized.PUT("/products/:id", productHandler.UpdateProduct)
			authorized.DELETE("/products/:id", productHandler.DeleteProduct)
			authorized.POST("/products/:id/stock", productHandler.AdjustStock)

			authorized.POST("/categories", productHandler.CreateCategory)
			authorized.DELETE("/categories/:id", productHandler.DeleteCategory)

			authorized.POST("/orders", orderHandler.PlaceOrder)
			authorized.GET("/orders", orderHandler.ListOrders)
			authorized.GET("/orders/:id", orderHandler.GetOrder)
			authorized.PATCH("/orders/:id", orderHandler.UpdateStatus)
			authorized.DELETE("/orders/:id", orderHandler.DeleteOrder)
		}
	}

	// Background loop for the deferred Pending -> Sent transition.
	shipCtx, stopShipper := context.WithCancel(context.Background())
	ship := shipper.New(store, orderService, cfg.ShipperInterval, logger)
	go ship.Run(shipCtx)

	tlsConfig, err := pkgtls.LoadTLSConfig(&cfg.TLS, logger)
	if err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	defer pkgtls.Cleanup()

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsConfig,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		var err error
		if tlsConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopShipper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
