package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/auth"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/cache"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/diag"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/handlers"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/middleware"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/signer"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/store"
)

func init() {

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ Loaded .env file")
	}
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("✓ Config loaded successfully")

	if missing := cfg.MissingProviderSettings(true); len(missing) > 0 {
		log.Printf("⚠️  LinkedIn settings missing: %s (login will report a configuration error)", strings.Join(missing, ", "))
	}
	if cfg.LinkedIn.HMACKey == "" {
		log.Println("⚠️  LINKEDIN_HMAC_KEY not set, handoff tokens cannot be signed")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer redisCache.Close()
	log.Printf("✓ Redis connected")

	db, err := store.Open(cfg.Database.Path, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetReservedNames(cfg.Accounts.ReservedNames)
	log.Printf("✓ Database ready at %s", cfg.Database.Path)

	logger := diag.New(cfg.Debug, cfg.LogPath)
	if logger.Enabled() {
		log.Printf("ℹ️  Debug trace enabled, writing to %s", cfg.LogPath)
	}

	var stateStore models.StateStore
	switch cfg.OAuthSession.Backend {
	case "memory":
		stateStore = auth.NewMemoryStateStore(cfg.OAuthSession.TTL)
		log.Println("ℹ️  OAuth state kept in memory, use a single instance")
	default:
		stateStore = auth.NewRedisStateStore(redisCache.GetClient())
	}

	sessionStore := auth.NewSessionStore(redisCache.GetClient(), cfg.Session.Duration)

	authHandler := auth.NewHandler(
		cfg,
		auth.NewLinkedInProvider(&cfg.LinkedIn, logger),
		auth.NewOAuthSessions(stateStore, cfg.OAuthSession),
		signer.New(cfg.LinkedIn.HMACKey),
		db,
		sessionStore,
		logger,
	)
	authMiddleware := middleware.NewAuthMiddleware(sessionStore, db, cfg.Session.CookieName)
	linkedInHandler := handlers.NewLinkedInHandler(cfg, redisCache)
	usersHandler := handlers.NewUsersHandler(db)
	log.Printf("✓ Authentication system initialized")

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	linkedIn := r.Group("/auth/linkedin")
	{
		linkedIn.GET("/login", authHandler.Login)
		linkedIn.GET("/callback", authHandler.Callback)
		linkedIn.GET("/autologin", authMiddleware.OptionalAuth(), authHandler.AutoLogin)
		linkedIn.GET("/button", linkedInHandler.LoginButton)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", linkedInHandler.HealthCheck)

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		v1.GET("/linkedin/welcome", authMiddleware.OptionalAuth(), linkedInHandler.Welcome)

		admin := v1.Group("/linkedin")
		admin.Use(authMiddleware.RequireAuth(), middleware.RequirePermission(cfg.Accounts.AdminGroup))
		{
			admin.GET("/status", linkedInHandler.Status)
			admin.GET("/users", usersHandler.ListUsers)
			admin.DELETE("/users/:sub", usersHandler.DeleteUser)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Printf("🚀 LinkedIn login service running on port %s", cfg.Server.Port)
	log.Printf("🔗 Callback URL: %s", cfg.LinkedIn.RedirectURI)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
