package main

import (
	"context"

	"github.com/gbasileGP/chess-card/internal/api"
	"github.com/gbasileGP/chess-card/internal/client"
	"github.com/gbasileGP/chess-card/internal/config"
	"github.com/gbasileGP/chess-card/internal/render"
	"github.com/gbasileGP/chess-card/internal/store"
	"github.com/gbasileGP/chess-card/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// Configure the logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.Info("Starting chess card service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Unknown LOG_LEVEL %q, keeping info", cfg.LogLevel)
	} else {
		logger.SetLevel(level)
	}

	fonts, err := render.LoadFonts()
	if err != nil {
		logger.Fatalf("Error loading fonts: %v", err)
	}

	chessClient := client.NewChessClient(cfg, logger)
	imageLoader := render.NewHTTPImageLoader(cfg.UpstreamTimeout, cfg.UserAgent, cfg.AvatarMaxBytes, logger)
	rasterizer := render.NewRasterizer(fonts, imageLoader, logger)

	var opts []service.Option
	var counter api.RenderCounter

	if cfg.TallyEnabled() {
		redisClient, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("Error initializing Redis client: %v", err)
		}
		opts = append(opts, service.WithTally(redisClient))
		counter = redisClient
		logger.WithField("addr", cfg.RedisAddr).Info("Render tally enabled")
	}

	if cfg.ArchiveEnabled() {
		minioClient, err := store.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Fatalf("Error initializing MinIO client: %v", err)
		}
		if err := minioClient.EnsureBucket(context.Background()); err != nil {
			logger.Fatalf("Error preparing card archive: %v", err)
		}
		opts = append(opts, service.WithArchive(minioClient))
		logger.WithField("bucket", cfg.MinioBucket).Info("Card archive enabled")
	}

	cardService := service.NewCardService(chessClient, rasterizer, logger, opts...)

	// Initialize the server with the card service and logger
	server := api.NewServer(cardService, counter, logger)

	// Start the server
	if err := server.Run(":" + cfg.AppPort); err != nil {
		logger.Fatalf("Error running server: %v", err)
	}
}
