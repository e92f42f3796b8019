package storage

import (
	"context"
	"fmt"
	"os"
)

// FileCatalogFetcher reads catalog documents from the local filesystem
type FileCatalogFetcher struct{}

// NewFileCatalogFetcher creates a local file catalog fetcher
func NewFileCatalogFetcher() *FileCatalogFetcher {
	return &FileCatalogFetcher{}
}

func (f *FileCatalogFetcher) FetchCatalog(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	data, err := readCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return data, nil
}
