package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/image-srcset-go/internal/config"
	"github.com/anime-shed/image-srcset-go/internal/factory"
	"github.com/anime-shed/image-srcset-go/internal/logger"
	"github.com/anime-shed/image-srcset-go/internal/markup"
	"github.com/anime-shed/image-srcset-go/internal/observer"
	"github.com/anime-shed/image-srcset-go/internal/repository"
	"github.com/anime-shed/image-srcset-go/internal/service"
	"github.com/anime-shed/image-srcset-go/internal/strategy"
	"github.com/anime-shed/image-srcset-go/internal/transport"
	"github.com/anime-shed/image-srcset-go/internal/worker"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"
	"github.com/anime-shed/image-srcset-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	catalogRepository repository.CatalogRepository
	publisher         *observer.EventPublisher
	metrics           *observer.MetricsObserver
	pool              *worker.Pool
	srcsetService     service.SrcsetService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	validator := validation.NewURLValidator()
	if err := validator.ValidateTemplate(cfg.URLTemplate); err != nil {
		return nil, fmt.Errorf("invalid URL_TEMPLATE: %w", err)
	}
	if cfg.CatalogSource == config.CatalogSourceHTTP {
		if err := validator.ValidateURL(cfg.CatalogLocation); err != nil {
			return nil, fmt.Errorf("invalid CATALOG_LOCATION: %w", err)
		}
	}

	// Build dependency graph
	components := factory.NewComponentFactory(cfg)
	catalogRepository, err := components.RepositoryFactory.CreateRepository(factory.StorageType(cfg.CatalogSource), cfg.CatalogLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog repository: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	pool := worker.NewPool(cfg.BatchWorkers)
	pool.Start()

	srcsetService := service.NewSrcsetService(
		catalogRepository,
		srcset.PlaceholderTemplate(cfg.URLTemplate),
		strategy.NewVariantContext(),
		publisher,
		pool,
	)
	handler := transport.NewHandler(srcsetService, markup.NewRewriter(srcsetService), metrics, pool, cfg)

	return &Container{
		config:            cfg,
		catalogRepository: catalogRepository,
		publisher:         publisher,
		metrics:           metrics,
		pool:              pool,
		srcsetService:     srcsetService,
		handler:           handler,
	}, nil
}

// WarmUp loads the size catalog ahead of the first request
func (c *Container) WarmUp(ctx context.Context) (*repository.CatalogMetadata, error) {
	if _, err := c.catalogRepository.Catalog(ctx); err != nil {
		return nil, err
	}
	return c.catalogRepository.Metadata(), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the srcset service
func (c *Container) Service() service.SrcsetService {
	return c.srcsetService
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the batch workers and waits for pending event notifications
func (c *Container) Close() {
	c.pool.Close()
	c.publisher.Wait()
}
