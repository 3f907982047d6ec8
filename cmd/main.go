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

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/iyoadidey/mother-julie/internal/api"
	"github.com/iyoadidey/mother-julie/internal/config"
	"github.com/iyoadidey/mother-julie/internal/consumer"
	"github.com/iyoadidey/mother-julie/internal/repository"
	"github.com/iyoadidey/mother-julie/internal/service"
	"github.com/iyoadidey/mother-julie/internal/watcher"
	"github.com/iyoadidey/mother-julie/migrations"
)

func connectDBEnv(host, port, user, pass, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		log.Printf("Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, dbname, host, port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", dbname, host, port, err)
}

func main() {
	_ = godotenv.Load()

	db, err := connectDBEnv(
		config.Env("DB_HOST", "localhost"),
		config.Env("DB_PORT", "3306"),
		config.Env("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		config.Env("DB_NAME", "motherjulie"),
	)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrateOrders(3, db); err != nil {
		log.Fatalf("Failed to migrate orders table: %v", err)
	}
	if err := migrations.AutoMigrateOrderItems(3, db); err != nil {
		log.Fatalf("Failed to migrate order_items table: %v", err)
	}
	if err := migrations.AutoMigrateProducts(3, db); err != nil {
		log.Fatalf("Failed to migrate products table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.RedisAddr(),
	})

	kafkaWriter := config.NewKafkaWriter("order-topic")

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)

	productService := service.NewProductService(productRepo, rdb)
	orderService := service.NewOrderService(orderRepo, productService, kafkaWriter, rdb)
	cartService := service.NewCartService(rdb, productRepo)
	analyticsService := service.NewAnalyticsService(orderRepo, rdb)
	paymentService := service.NewPaymentService(service.StubVerifier{}, rdb)
	authService := service.NewAuthService(rdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := productService.PreWarmCache(ctx); err != nil {
		log.Printf("Cache pre-warm failed: %v", err)
	}

	pollInterval, _ := time.ParseDuration(config.Env("ORDER_POLL_INTERVAL", "10s"))
	orderWatcher := watcher.New(orderRepo, watcher.NewRedisViewedStore(rdb), pollInterval)
	orderWatcher.Start(ctx)

	stockConsumer := consumer.New(productService, config.NewKafkaReader("order-topic", "stock-release-group"))
	go func() {
		if err := stockConsumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Consumer stopped: %v", err)
		}
	}()

	orderHandler := api.NewOrderHandler(ctx, orderService, orderWatcher)
	productHandler := api.NewProductHandler(productService)
	cartHandler := api.NewCartHandler(cartService)
	analyticsHandler := api.NewAnalyticsHandler(analyticsService)
	paymentHandler := api.NewPaymentHandler(paymentService)
	authHandler := api.NewAuthHandler(authService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     60,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))
	// Mutating requests carry a CSRF token from the form field, header or
	// cookie, matching the templates the dashboard already renders.
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup: "header:X-CSRF-Token,form:csrfmiddlewaretoken,cookie:_csrf",
	}))

	// Customer-facing routes
	e.GET("/api/products/public/", productHandler.ListPublicProducts)
	e.GET("/api/cart/", cartHandler.GetCart)
	e.POST("/api/cart/items/", cartHandler.AddItem)
	e.POST("/api/cart/items/:index/quantity/", cartHandler.ChangeQuantity)
	e.POST("/api/cart/items/:index/delete/", cartHandler.RemoveItem)
	e.POST("/api/cart/clear/", cartHandler.ClearCart)
	e.GET("/api/cart/totals/", cartHandler.Totals)
	e.POST("/api/orders/", orderHandler.CreateOrder)
	e.POST("/api/orders/:id/cancel/", orderHandler.CancelOrder)
	e.POST("/api/payments/verify/", paymentHandler.Verify)
	e.POST("/api/auth/login/", authHandler.Login)
	e.Static("/uploads", config.Env("UPLOAD_DIR", "uploads"))

	// Admin routes
	admin := e.Group("/api", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(config.JWTSecret()),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
	}))
	admin.GET("/orders/all/", orderHandler.ListOrders)
	admin.POST("/orders/:id/update-status/", orderHandler.UpdateStatus)
	admin.POST("/orders/:id/complete/", orderHandler.CompleteOrder)
	admin.POST("/orders/:id/delete/", orderHandler.DeleteOrder)
	admin.POST("/orders/delete-all/", orderHandler.DeleteAllOrders)
	admin.GET("/orders/unread/", orderHandler.Unread)
	admin.POST("/orders/:id/viewed/", orderHandler.MarkViewed)
	admin.POST("/orders/watch/", orderHandler.Watch)
	admin.GET("/products/", productHandler.ListProducts)
	admin.POST("/products/create/", productHandler.CreateProduct)
	admin.POST("/products/:id/update/", productHandler.UpdateProduct)
	admin.POST("/products/:id/delete/", productHandler.DeleteProduct)
	admin.GET("/analytics/", analyticsHandler.Report)
	admin.GET("/reports/:period/", analyticsHandler.PeriodReport)

	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "mother-julie",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(":" + config.Env("PORT", "8080")))
}
