package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/ddanilov/bank-cards/internal/config"
	"github.com/ddanilov/bank-cards/internal/handler"
	"github.com/ddanilov/bank-cards/internal/middleware"
	"github.com/ddanilov/bank-cards/internal/repository"
	"github.com/ddanilov/bank-cards/internal/service"
	"github.com/ddanilov/bank-cards/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	cards := repository.NewCardRepository(db)
	users := repository.NewUserRepository(db)
	var mail service.Notifier
	if cfg.SMTPHost != "" {
		mail = email.NewSender(cfg, logger)
	}
	svc := service.NewService(cards, users, mail, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Schedule the card expiry sweep
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.ExpirySweepSpec, func() {
		if _, err := svc.ExpireOverdueCards(context.Background()); err != nil {
			logger.Errorf("Expiry sweep failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule expiry sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// User routes
	userRouter := r.PathPrefix("/api/v1/user").Subrouter()
	userRouter.Use(middleware.Authenticate(cfg))
	userRouter.HandleFunc("/cards", h.ListCards).Methods("GET")
	userRouter.HandleFunc("/cards/{cardId:[0-9]+}", h.GetCard).Methods("GET")
	userRouter.HandleFunc("/cards/top-up", h.TopUp).Methods("PATCH")
	userRouter.HandleFunc("/cards/transfer", h.Transfer).Methods("PATCH")
	userRouter.HandleFunc("/cards/request/create", h.RequestCreateCard).Methods("POST")
	userRouter.HandleFunc("/cards/request/block", h.RequestBlockCard).Methods("PUT")
	// Admin routes
	adminRouter := r.PathPrefix("/api/v1/admin").Subrouter()
	adminRouter.Use(middleware.Authenticate(cfg), middleware.RequireAdmin)
	adminRouter.HandleFunc("/cards", h.ListAllCards).Methods("GET")
	adminRouter.HandleFunc("/cards/commit-creations", h.CommitCreations).Methods("POST")
	adminRouter.HandleFunc("/cards/commit-blocks", h.CommitBlocks).Methods("POST")
	adminRouter.HandleFunc("/cards", h.RemoveCard).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
