package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// blobDownloader is the slice of *azblob.Client used here.
type blobDownloader interface {
	DownloadStream(ctx context.Context, containerName string, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

type azureStorage struct {
	client blobDownloader
}

// NewAzureStorage returns a fetcher reading catalogs from the given storage
// account. Locations take the form "container/path/to/blob".
func NewAzureStorage(accountName string, accountKey string) (CatalogFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

func (s *azureStorage) FetchCatalog(ctx context.Context, location string) ([]byte, error) {
	containerName, blobName, err := splitBlobLocation(location)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := readCatalog(retryReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// splitBlobLocation splits "container/blob/name" into its two parts.
func splitBlobLocation(location string) (string, string, error) {
	containerName, blobName, ok := strings.Cut(strings.TrimPrefix(location, "/"), "/")
	if !ok || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("invalid blob location %q: want container/blob", location)
	}
	return containerName, blobName, nil
}
