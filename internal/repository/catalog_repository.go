package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anime-shed/image-srcset-go/internal/storage"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// StaticCatalogRepository serves a catalog fixed at construction
type StaticCatalogRepository struct {
	catalog  srcset.SizeCatalog
	metadata *CatalogMetadata
}

// NewStaticCatalogRepository wraps catalog, typically srcset.DefaultCatalog()
func NewStaticCatalogRepository(source string, catalog srcset.SizeCatalog) CatalogRepository {
	return &StaticCatalogRepository{
		catalog:  catalog,
		metadata: describe(source, "", catalog, time.Now()),
	}
}

func (r *StaticCatalogRepository) Catalog(ctx context.Context) (srcset.SizeCatalog, error) {
	return r.catalog, nil
}

func (r *StaticCatalogRepository) Reload(ctx context.Context) (*CatalogMetadata, error) {
	return r.metadata, nil
}

func (r *StaticCatalogRepository) Metadata() *CatalogMetadata {
	return r.metadata
}

// FetchedCatalogRepository loads a YAML catalog through a storage fetcher
// and caches it until Reload
type FetchedCatalogRepository struct {
	fetcher  storage.CatalogFetcher
	source   string
	location string

	mu       sync.RWMutex
	catalog  srcset.SizeCatalog
	metadata *CatalogMetadata
}

// NewFetchedCatalogRepository creates a repository reading location via fetcher
func NewFetchedCatalogRepository(fetcher storage.CatalogFetcher, source, location string) CatalogRepository {
	return &FetchedCatalogRepository{
		fetcher:  fetcher,
		source:   source,
		location: location,
	}
}

func (r *FetchedCatalogRepository) Catalog(ctx context.Context) (srcset.SizeCatalog, error) {
	r.mu.RLock()
	catalog := r.catalog
	r.mu.RUnlock()
	if catalog != nil {
		return catalog, nil
	}

	if _, err := r.Reload(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog, nil
}

// Reload fetches and decodes the catalog. A failed reload keeps the
// previously cached catalog.
func (r *FetchedCatalogRepository) Reload(ctx context.Context) (*CatalogMetadata, error) {
	data, err := r.fetcher.FetchCatalog(ctx, r.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}

	catalog, err := DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	metadata := describe(r.source, r.location, catalog, time.Now())

	r.mu.Lock()
	r.catalog = catalog
	r.metadata = metadata
	r.mu.Unlock()

	return metadata, nil
}

func (r *FetchedCatalogRepository) Metadata() *CatalogMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata
}

func describe(source, location string, catalog srcset.SizeCatalog, at time.Time) *CatalogMetadata {
	sizes := 0
	for _, s := range catalog {
		sizes += len(s)
	}
	return &CatalogMetadata{
		Source:       source,
		Location:     location,
		VariantTypes: catalog.VariantTypes(),
		Sizes:        sizes,
		LoadedAt:     at.UTC().Format(time.RFC3339),
	}
}
