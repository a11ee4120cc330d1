package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"nevermore-backend/internal/api"
	"nevermore-backend/internal/config"
	"nevermore-backend/internal/consumer"
	"nevermore-backend/internal/mailer"
	"nevermore-backend/internal/repository"
	"nevermore-backend/internal/service"
	"nevermore-backend/migrations"
)

func connectDB(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", cfg.DBName)
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to DB %s (%s:%s): %v",
			i+1, cfg.DBName, cfg.DBHost, cfg.DBPort, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v",
		cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func main() {
	cfg := config.Load()

	db, err := connectDB(cfg)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrate(db, 3); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	kafkaWriter := config.NewKafkaWriter("order-topic")
	kafkaReader := config.NewKafkaReader("order-topic", "nevermore-backend-group")

	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	designRepo := repository.NewDesignRepository(db)

	orderService := service.NewOrderService(orderRepo, refundRepo, kafkaWriter)
	discountService := service.NewDiscountService(discountRepo)
	stockService := service.NewStockService(inventoryRepo)
	productService := service.NewProductService(productRepo, rdb)
	userService := service.NewUserService(userRepo, rdb, mail, cfg.JWTSecret, cfg.APIURL, cfg.FrontendURL)
	designService := service.NewDesignService(designRepo, cfg.UploadDir, cfg.APIURL)

	orderHandler := api.NewOrderHandler(orderService)
	discountHandler := api.NewDiscountHandler(discountService)
	stockHandler := api.NewStockHandler(stockService)
	productHandler := api.NewProductHandler(productService)
	authHandler := api.NewAuthHandler(userService, cfg.FrontendURL)
	profileHandler := api.NewProfileHandler(userService, cfg.FrontendURL)
	designHandler := api.NewDesignHandler(designService)
	adminProductHandler := api.NewAdminProductHandler(productService, designService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     60,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	e.Static("/uploads", cfg.UploadDir)

	// Public routes
	pub := e.Group("/api")
	pub.POST("/auth/register", authHandler.Register)
	pub.POST("/auth/login", authHandler.Login)
	pub.GET("/auth/verify-email", authHandler.VerifyEmail)
	pub.POST("/auth/resend-verification", authHandler.ResendVerification)
	pub.POST("/auth/forgot-password", authHandler.ForgotPassword)
	pub.POST("/auth/verify-reset-token", authHandler.VerifyResetToken)
	pub.POST("/auth/reset-password", authHandler.ResetPassword)
	pub.GET("/user/verify-email-change", profileHandler.VerifyEmailChange)

	pub.GET("/products", productHandler.Index)
	pub.GET("/products/search", productHandler.Search)
	pub.GET("/products/popular", productHandler.Popular)
	pub.GET("/products/:id", productHandler.Show)
	pub.GET("/products/:id/variations", productHandler.Variations)
	pub.POST("/products/:id/click", productHandler.TrackClick)
	pub.GET("/categories", productHandler.Categories)
	pub.GET("/categories/images", productHandler.CategoryImages)

	pub.GET("/stock", stockHandler.Availability)
	pub.POST("/cart/validate", stockHandler.ValidateCart)
	pub.POST("/cart/remove", stockHandler.RemoveFromCart)
	pub.POST("/stock/confirm", stockHandler.ConfirmStock)

	pub.GET("/discounts/validate", discountHandler.Quote)
	pub.POST("/discounts/validate", discountHandler.Validate)

	jwtConfig := echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
	}

	// Authenticated routes
	auth := e.Group("/api", echojwt.WithConfig(jwtConfig), api.RequireSession(userService))
	auth.POST("/auth/logout", authHandler.Logout)

	auth.GET("/user/profile", profileHandler.Show)
	auth.PUT("/user/profile", profileHandler.Update)
	auth.PUT("/user/password", profileHandler.ChangePassword)
	auth.POST("/user/request-email-change", profileHandler.RequestEmailChange)

	auth.POST("/orders", orderHandler.PlaceOrder)
	auth.GET("/orders", orderHandler.MyOrders)
	auth.GET("/orders/:ref", orderHandler.GetOrder)
	auth.POST("/orders/:ref/refund", orderHandler.FileRefund)

	auth.GET("/designs", designHandler.Index)
	auth.GET("/designs/:id", designHandler.Show)
	auth.POST("/designs", designHandler.Save)
	auth.POST("/designs/:id/assets", designHandler.UploadAsset)

	// Admin routes
	admin := e.Group("/api/admin", echojwt.WithConfig(jwtConfig), api.RequireSession(userService), api.RequireAdmin)
	admin.GET("/orders", orderHandler.AdminListOrders)
	admin.PUT("/orders/:ref/status", orderHandler.AdminUpdateStatus)
	admin.POST("/refunds/process", orderHandler.AdminProcessRefund)

	admin.GET("/discounts", discountHandler.AdminList)
	admin.POST("/discounts", discountHandler.AdminCreate)
	admin.DELETE("/discounts/:id", discountHandler.AdminDelete)

	admin.POST("/products", adminProductHandler.Create)
	admin.PUT("/products/:id", adminProductHandler.Update)
	admin.DELETE("/products/:id", adminProductHandler.Delete)
	admin.POST("/products/upload-image", adminProductHandler.UploadImage)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "nevermore-backend",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	go consumer.NewConsumer(productService, kafkaReader).Start(context.Background())

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
