package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"familyledger/internal/config"
	"familyledger/internal/database"
	"familyledger/internal/handlers"
	"familyledger/internal/repository"
	"familyledger/internal/security"
	"familyledger/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, emailService, tokens)
	familyService := service.NewFamilyService(familyRepo, memberRepo)
	transactionService := service.NewTransactionService(db, memberRepo, transactionRepo)
	transferService := service.NewTransferService(db, userRepo, memberRepo, transactionRepo)

	oauthProviders := handlers.DefaultOAuthProviders(
		cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.FacebookClientID, cfg.FacebookClientSecret,
	)

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens)
	authHandler := handlers.NewAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL)
	familyHandler := handlers.NewFamilyHandler(familyService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, transferService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/verify", authHandler.Verify)
	mux.HandleFunc("POST /auth/resend-verification", authHandler.ResendVerification)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Protected account routes
	mux.HandleFunc("PUT /auth/change-password", middleware.RequireAuth(authHandler.ChangePassword))

	// Family routes
	mux.HandleFunc("POST /family", middleware.RequireAuth(familyHandler.CreateFamily))
	mux.HandleFunc("POST /family/join", middleware.RequireAuth(familyHandler.JoinFamily))
	mux.HandleFunc("POST /family/grant", middleware.RequireAuth(familyHandler.GrantPermissions))
	mux.HandleFunc("GET /family", middleware.RequireAuth(familyHandler.GetFamily))
	mux.HandleFunc("GET /family/members", middleware.RequireAuth(familyHandler.GetMembers))

	// Transaction routes
	mux.HandleFunc("GET /transactions/balance", middleware.RequireAuth(transactionHandler.GetBalance))
	mux.HandleFunc("GET /transactions/total", middleware.RequireAuth(transactionHandler.TotalTransactions))
	mux.HandleFunc("GET /transactions/family", middleware.RequireAuth(transactionHandler.ListFamilyTransactions))
	mux.HandleFunc("GET /transactions", middleware.RequireAuth(transactionHandler.ListTransactions))
	mux.HandleFunc("POST /transactions", middleware.RequireAuth(transactionHandler.CreateTransaction))
	mux.HandleFunc("POST /transactions/transfer", middleware.RequireAuth(transactionHandler.Transfer))
	mux.HandleFunc("PUT /transactions/{id}", middleware.RequireAuth(transactionHandler.UpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", middleware.RequireAuth(transactionHandler.DeleteTransaction))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
