package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/velmart/storefront/internal/config"
	"github.com/velmart/storefront/internal/es"
	"github.com/velmart/storefront/internal/handlers"
	"github.com/velmart/storefront/internal/httpserver"
	"github.com/velmart/storefront/internal/logging"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
	"github.com/velmart/storefront/internal/mykafka"
	"github.com/velmart/storefront/internal/service/order"
	"github.com/velmart/storefront/internal/service/search"
	"github.com/velmart/storefront/internal/service/token"
	"github.com/velmart/storefront/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer, err = mykafka.NewProducer(strings.Split(cfg.KafkaAddress, ","))
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	}

	var searchSvc *search.Service
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchSvc = &search.Service{ES: esClient, Index: "products"}
	}

	catalog := &store.Catalog{DB: db}
	cart := &store.Cart{DB: db}

	pricing := order.Pricing{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		FlatShippingFee:       decimal.NewFromFloat(cfg.FlatShippingFee),
	}
	engine := order.NewEngine(db, pricing)

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler(cfg.LogLevel == "debug")
	httpserver.Use(e, logger)

	deps := &httpserver.Deps{
		Auth:       &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer, Timeout: cfg.StoreTimeout},
		Users:      &handlers.UserHandler{DB: db, Timeout: cfg.StoreTimeout},
		Categories: &handlers.CategoryHandler{Catalog: catalog, Timeout: cfg.StoreTimeout},
		Products:   &handlers.ProductHandler{Catalog: catalog, Producer: producer, Search: searchSvc, Timeout: cfg.StoreTimeout},
		Cart:       &handlers.CartHandler{Cart: cart, Producer: producer, Timeout: cfg.StoreTimeout},
		Orders:     &handlers.OrderHandler{Engine: engine, Producer: producer, Timeout: cfg.StoreTimeout},
		Gate:       &mwauth.Gate{JWTSecret: []byte(cfg.JWTSecret)},
	}
	if searchSvc != nil {
		deps.Search = &handlers.SearchHandler{Search: searchSvc}
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server_started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown_complete")
}
