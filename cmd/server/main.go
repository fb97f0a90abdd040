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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tandafin/lending-engine/internal/config"
	"github.com/tandafin/lending-engine/internal/handler"
	"github.com/tandafin/lending-engine/internal/repository"
	"github.com/tandafin/lending-engine/internal/service"
	"github.com/tandafin/lending-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	txRunner := repository.NewTxRunner(db)
	walletRepo := repository.NewWalletRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// Initialize services
	originationService := service.NewOriginationService(txRunner, walletRepo, loanRepo, movementRepo, redisClient, cfg)
	collectionService := service.NewCollectionService(txRunner, walletRepo, loanRepo, repaymentRepo, movementRepo, redisClient, cfg)
	walletService := service.NewWalletService(txRunner, walletRepo, movementRepo)
	reportService := service.NewReportService(loanRepo, repaymentRepo, redisClient, cfg)

	loanHandler := handler.NewLoanHandler(originationService, collectionService, reportService)
	walletHandler := handler.NewWalletHandler(walletService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(loanHandler, walletHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(loanHandler *handler.LoanHandler, walletHandler *handler.WalletHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/wallets", walletHandler.Create).Methods("POST")
	api.HandleFunc("/wallets", walletHandler.List).Methods("GET")
	api.HandleFunc("/wallets/{walletId}/deactivate", walletHandler.Deactivate).Methods("PATCH")
	api.HandleFunc("/wallets/{walletId}/movements", walletHandler.ApplyMovement).Methods("POST")
	api.HandleFunc("/wallets/{walletId}/movements", walletHandler.Movements).Methods("GET")

	api.HandleFunc("/loans", loanHandler.Disburse).Methods("POST")
	api.HandleFunc("/loans/{loanId}", loanHandler.Get).Methods("GET")
	api.HandleFunc("/loans/{loanId}/status", loanHandler.Status).Methods("GET")
	api.HandleFunc("/loans/{loanId}/repayments", loanHandler.Collect).Methods("POST")
	api.HandleFunc("/loans/{loanId}/repayments", loanHandler.ListRepayments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/penalty", loanHandler.ApplyPenalty).Methods("POST")
	api.HandleFunc("/loans/{loanId}/write-off", loanHandler.WriteOff).Methods("POST")

	api.HandleFunc("/reports/collections", loanHandler.CollectionReport).Methods("GET")

	return router
}
