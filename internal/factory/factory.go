package factory

import (
	"fmt"
	"time"

	"github.com/anime-shed/image-srcset-go/internal/config"
	"github.com/anime-shed/image-srcset-go/internal/repository"
	"github.com/anime-shed/image-srcset-go/internal/storage"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// StorageType represents different types of catalog storage backends
type StorageType string

const (
	// BuiltinStorage serves the compiled-in size table
	BuiltinStorage StorageType = config.CatalogSourceBuiltin
	// HTTPStorage for HTTP-based catalog fetching
	HTTPStorage StorageType = config.CatalogSourceHTTP
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = config.CatalogSourceAzure
	// LocalStorage for local file system
	LocalStorage StorageType = config.CatalogSourceLocal
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.CatalogFetcher, error)
}

// RepositoryFactory creates catalog repositories
type RepositoryFactory interface {
	CreateRepository(storageType StorageType, location string) (repository.CatalogRepository, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	fetchTimeout     time.Duration
	azureAccountName string
	azureAccountKey  string
}

// NewStorageFactory creates a new storage factory from configuration
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{
		fetchTimeout:     cfg.CatalogFetchTimeout,
		azureAccountName: cfg.AzureAccountName,
		azureAccountKey:  cfg.AzureAccountKey,
	}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.CatalogFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPCatalogFetcher(f.fetchTimeout), nil
	case AzureStorage:
		return storage.NewAzureStorage(f.azureAccountName, f.azureAccountKey)
	case LocalStorage:
		return storage.NewFileCatalogFetcher(), nil
	case BuiltinStorage:
		return nil, fmt.Errorf("builtin catalog has no storage backend")
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// repositoryFactory implements RepositoryFactory
type repositoryFactory struct {
	storage StorageFactory
}

// NewRepositoryFactory creates a repository factory backed by storage
func NewRepositoryFactory(storage StorageFactory) RepositoryFactory {
	return &repositoryFactory{storage: storage}
}

// CreateRepository creates the catalog repository for storageType
func (f *repositoryFactory) CreateRepository(storageType StorageType, location string) (repository.CatalogRepository, error) {
	if storageType == BuiltinStorage {
		return repository.NewStaticCatalogRepository(string(BuiltinStorage), srcset.DefaultCatalog()), nil
	}

	fetcher, err := f.storage.CreateStorage(storageType)
	if err != nil {
		return nil, err
	}
	return repository.NewFetchedCatalogRepository(fetcher, string(storageType), location), nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory    StorageFactory
	RepositoryFactory RepositoryFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	storageFactory := NewStorageFactory(cfg)
	return &ComponentFactory{
		StorageFactory:    storageFactory,
		RepositoryFactory: NewRepositoryFactory(storageFactory),
	}
}
