package storage

import (
	"context"
	"errors"
	"time"

	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
)

// StubDocumentStorage is a placeholder DocumentStorage for deployments
// without a blob backend. URLs are synthesized, existence checks succeed
// and deletes are no-ops.
type StubDocumentStorage struct {
	// BaseURL is the base URL for synthesized document URLs
	BaseURL string
}

// NewStubDocumentStorage creates a new StubDocumentStorage
func NewStubDocumentStorage() *StubDocumentStorage {
	return &StubDocumentStorage{
		BaseURL: "https://storage.example.com",
	}
}

// GetDocumentURL returns a synthesized document URL
func (s *StubDocumentStorage) GetDocumentURL(_ context.Context, blobName string, expiresIn time.Duration) (string, error) {
	if blobName == "" {
		return "", errors.New("blob name is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/documents/" + blobName + "?expires=" + expiresAt.Format(time.RFC3339), nil
}

// GetDocumentURLs returns synthesized URLs for every named blob
func (s *StubDocumentStorage) GetDocumentURLs(ctx context.Context, blobNames []string, expiresIn time.Duration) (map[string]string, error) {
	urls := make(map[string]string, len(blobNames))
	for _, blobName := range blobNames {
		if blobName == "" {
			continue
		}
		signedURL, err := s.GetDocumentURL(ctx, blobName, expiresIn)
		if err != nil {
			continue
		}
		urls[blobName] = signedURL
	}
	return urls, nil
}

// DocumentExists always reports true in stub mode
func (s *StubDocumentStorage) DocumentExists(_ context.Context, blobName string) (bool, error) {
	if blobName == "" {
		return false, errors.New("blob name is required")
	}
	return true, nil
}

// DeleteDocument is a no-op that always reports success
func (s *StubDocumentStorage) DeleteDocument(_ context.Context, blobName string) (bool, error) {
	if blobName == "" {
		return false, errors.New("blob name is required")
	}
	return true, nil
}

// Ensure StubDocumentStorage implements DocumentStorage
var _ invoicingapp.DocumentStorage = (*StubDocumentStorage)(nil)
