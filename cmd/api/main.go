package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anime-shed/image-srcset-go/internal/config"
	"github.com/anime-shed/image-srcset-go/internal/container"
	"github.com/anime-shed/image-srcset-go/internal/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	// Load the size catalog up front; requests retry the load if this fails
	warmCtx, warmCancel := context.WithTimeout(context.Background(), cfg.CatalogFetchTimeout)
	if meta, err := c.WarmUp(warmCtx); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"source":   cfg.CatalogSource,
			"location": cfg.CatalogLocation,
		}).Warn("Size catalog not loaded at startup")
	} else {
		logger.WithFields(logrus.Fields{
			"source":        meta.Source,
			"variant_types": meta.VariantTypes,
			"sizes":         meta.Sizes,
		}).Info("Size catalog loaded")
	}
	warmCancel()

	// Create HTTP server with configurable timeouts
	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server exited")
}
