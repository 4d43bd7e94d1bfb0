package main

import (
	"context" // context package is needed for the Redis ping
	"log"     // log package is needed for logging

	"tabshare/internal/api"        // Custom package for API handlers
	"tabshare/internal/config"     // Custom package for configuration
	"tabshare/internal/content"    // Content store
	"tabshare/internal/db"         // Schema verification
	"tabshare/internal/identity"   // Identity store
	"tabshare/internal/middleware" // Custom package for middleware
	"tabshare/internal/relation"   // Relationship engine
	"tabshare/internal/storage"    // Avatar object store
	"tabshare/internal/utils"      // Redis cache wrapper

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database. TranslateError surfaces duplicate-key
	// violations as gorm.ErrDuplicatedKey, which the stores and the
	// relationship engine rely on.
	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// An un-migrated schema is a fatal startup error; the server never
	// creates or repairs tables itself. Run cmd/migrate at deploy time.
	if err := db.VerifySchema(gdb); err != nil {
		logrus.Fatalf("schema verification failed: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	cache := utils.NewCache(redisClient)

	// Setup the avatar object store
	avatars, err := storage.NewAvatarStore(cfg.MinioAddr, cfg.MinioKey, cfg.MinioSecret, cfg.MinioBucket, cfg.MinioSSL)
	if err != nil {
		logrus.Fatalf("failed to connect to MinIO: %v", err)
	}

	// Stores and the relationship engine share the database handle
	users := identity.NewStore(gdb)
	tabs := content.NewStore(gdb)
	engine := relation.NewEngine(gdb)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(users, cfg.JWTSecret)) // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(users, cfg.JWTSecret))       // Login endpoint
	r.GET("/auth/logout", api.LogoutHandler())                          // Logout endpoint

	// Public read routes; an identity, when presented, only decorates the
	// response with following/favorited state
	public := r.Group("/", middleware.OptionalJWTMiddleware(cfg.JWTSecret))
	public.GET("/api/tabs", api.ListTabsAPIHandler(tabs, cache))                 // JSON tab listing
	public.GET("/api/tabs/:id", api.GetTabHandler(tabs, users, engine))          // Tab detail with highlighting
	public.GET("/api/recent", api.ListRecentTabsHandler(tabs))                   // Newest tabs
	public.GET("/api/search", api.SearchTabsHandler(tabs))                       // Title/artist search
	public.GET("/api/users/:id", api.ProfileHandler(users, tabs, engine))        // Public profile with counts
	public.GET("/api/users/:id/followers", api.ListFollowersHandler(users, engine)) // Followers, username asc
	public.GET("/api/users/:id/following", api.ListFollowingHandler(users, engine)) // Following, username asc

	// Tab mutations; creation allows anonymous authorship, edit/delete apply
	// the ownership policy inside the content store
	public.POST("/tabs", api.CreateTabHandler(tabs, cache))       // Create tab endpoint
	public.PUT("/tabs/:id", api.UpdateTabHandler(tabs, cache))    // Edit tab endpoint
	public.DELETE("/tabs/:id", api.DeleteTabHandler(tabs, cache)) // Delete tab endpoint

	// Toggles resolve the identity themselves so they can answer
	// login_required as JSON or a login redirect depending on the caller
	public.POST("/follow/:id", api.ToggleFollowHandler(engine))     // Toggle follow endpoint
	public.POST("/favorite/:id", api.ToggleFavoriteHandler(engine)) // Toggle favorite endpoint

	// Account routes (protected by JWT)
	account := r.Group("/", middleware.JWTAuthMiddleware(cfg.JWTSecret))
	account.GET("/api/favorites", api.ListFavoritesHandler(engine))           // Own favorites, most recent first
	account.PUT("/account", api.UpdateAccountHandler(users))                  // Profile edit endpoint
	account.POST("/account/avatar", api.UploadAvatarHandler(users, avatars))  // Avatar upload endpoint
	account.DELETE("/account", api.DeleteAccountHandler(users, avatars))      // Account deletion endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
