package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billingDesk/config"
	"billingDesk/handlers"
	"billingDesk/repository"
	"billingDesk/services"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := repository.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("db connect", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	if err = repository.Migrate(context.Background(), db, cfg.DBDriver); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("db connected", zap.String("driver", cfg.DBDriver))

	var cache repository.SearchCacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		ctx, cncl := context.WithTimeout(context.Background(), 5*time.Second)
		cache, err = repository.NewSearchCacheRepository(ctx, rdb, cfg.SearchCacheTTL, logger)
		cncl()
		if err != nil {
			logger.Fatal("redis is not working", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("search cache disabled")
	}

	pR, err := repository.NewProductRepository(db, logger)
	if err != nil {
		logger.Fatal("product repository", zap.Error(err))
	}
	cR, err := repository.NewCustomerRepository(db, logger)
	if err != nil {
		logger.Fatal("customer repository", zap.Error(err))
	}
	sR, err := repository.NewSaleRepository(db, cR, logger)
	if err != nil {
		logger.Fatal("sale repository", zap.Error(err))
	}

	hp := handlers.HandlerParams{
		PrdService: services.NewProductService(pR, cache, logger),
		BilService: services.NewBillingService(pR, cR, sR, logger),
		CusService: services.NewCustomerService(cR, sR, logger),
		RepService: services.NewReportService(pR, sR, logger),
		Logger:     logger,
	}
	router := mux.NewRouter()
	handlers.NewHandler(hp).Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cncl := context.WithTimeout(context.Background(), 10*time.Second)
	defer cncl()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
