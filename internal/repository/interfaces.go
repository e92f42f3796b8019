package repository

import (
	"context"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// CatalogRepository defines the interface for size catalog access
type CatalogRepository interface {
	// Catalog returns the current size catalog, loading it on first use
	Catalog(ctx context.Context) (srcset.SizeCatalog, error)

	// Reload re-reads the catalog from its source and replaces the cached copy
	Reload(ctx context.Context) (*CatalogMetadata, error)

	// Metadata describes the cached catalog, nil before the first load
	Metadata() *CatalogMetadata
}

// CatalogMetadata describes a loaded catalog
type CatalogMetadata struct {
	Source       string   `json:"source"`
	Location     string   `json:"location,omitempty"`
	VariantTypes []string `json:"variant_types"`
	Sizes        int      `json:"sizes"`
	LoadedAt     string   `json:"loaded_at"`
}
