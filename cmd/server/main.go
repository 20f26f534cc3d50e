package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TFMV/DupeFinder/internal/handlers"
	"github.com/TFMV/DupeFinder/internal/matcher"
	"github.com/TFMV/DupeFinder/pkg/api"
	"github.com/TFMV/DupeFinder/pkg/config"
	"github.com/TFMV/DupeFinder/pkg/db"
	"github.com/TFMV/DupeFinder/pkg/geocode"
	"github.com/TFMV/DupeFinder/pkg/utils"
)

func main() {
	logger, err := utils.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, cfg.DatabaseURL())
	if err != nil {
		logger.Fatal("failed to create database connection pool", zap.Error(err))
	}
	defer pool.Close()

	engine, err := matcher.NewEngine(cfg.Matching)
	if err != nil {
		logger.Fatal("invalid matching config", zap.Error(err))
	}

	var geocoder geocode.Geocoder = geocode.Noop{}
	if cfg.Geocoder.BaseURL != "" {
		geocoder = geocode.NewClient(
			cfg.Geocoder.BaseURL,
			cfg.Geocoder.UserAgent,
			time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second,
			logger,
		)
	}

	deps := handlers.Deps{
		Repo:     db.NewRepository(pool, logger),
		Engine:   engine,
		Geocoder: geocoder,
		Logger:   logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, deps, cfg.DBCreds.LoadTable)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
