// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pfw-commerce/cache"
	"pfw-commerce/config"
	"pfw-commerce/controllers"
	"pfw-commerce/repository"
	"pfw-commerce/routes"
	"pfw-commerce/services"
	"pfw-commerce/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		repository.EnsureUserIndexes,
		repository.EnsureCatalogIndexes,
		repository.EnsureCartIndexes,
		repository.EnsureOrderIndexes,
		repository.EnsureActivityIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	// Connect to MongoDB
	ctx := context.Background()
	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.WithField("uri", cfg.MongoURI).Info("Connected to MongoDB")

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Connect to redis for the cart-view cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.WithField("addr", cfg.RedisAddr).Info("Connected to redis")
	cartCache := cache.NewRedisCache(redisClient)

	// Initialize EmailService
	var emailService *utils.EmailService
	if cfg.PostmarkToken != "" {
		emailService = utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender, cfg.Port)
	} else {
		log.Warn("POSTMARK_API_TOKEN not set; emails disabled")
	}

	// Repositories
	userRepo := repository.NewMongoUserRepository(db)
	catalogRepo := repository.NewMongoCatalogRepository(db)
	cartRepo := repository.NewMongoCartRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	activityRepo := repository.NewMongoActivityRepository(db)

	// Services
	cartService := services.NewCartService(cartRepo, catalogRepo, activityRepo, cartCache, log)
	orderService := services.NewOrderService(orderRepo, cartRepo, catalogRepo, cartCache, emailService, log)
	catalogService := services.NewCatalogService(catalogRepo, activityRepo, log)

	// Controllers
	userController := controllers.NewUserController(userRepo, emailService, log)
	productController := controllers.NewProductController(catalogService)
	cartController := controllers.NewCartController(cartService, userRepo)
	orderController := controllers.NewOrderController(orderService, userRepo)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController, orderController)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server is running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		log.Errorf("MongoDB disconnect: %v", err)
	}
	log.Info("Server stopped")
}
