package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suppliers/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// fakePresigner presigns deterministically and can fail selected blobs
type fakePresigner struct {
	failKeys map[string]bool
	calls    atomic.Int64
}

func (f *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.calls.Add(1)
	key := *params.Key
	if f.failKeys[key] {
		return nil, errors.New("presign failed")
	}
	return &v4.PresignedHTTPRequest{
		URL: fmt.Sprintf("https://s3.example.com/%s/%s?signed", *params.Bucket, key),
	}, nil
}

// fakeObjectAPI simulates head and delete against an in-memory key set
type fakeObjectAPI struct {
	objects map[string]bool
	headErr error
	deleted []string
}

func (f *fakeObjectAPI) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if !f.objects[*params.Key] {
		return nil, errors.New("operation error S3: HeadObject, NotFound")
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *params.Key)
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStorage(api *fakeObjectAPI, presigner *fakePresigner) *S3DocumentStorage {
	return &S3DocumentStorage{
		client:    api,
		presigner: presigner,
		bucket:    "supplier-documents",
		logger:    zap.NewNop(),
	}
}

func TestNewS3DocumentStorage_Validation(t *testing.T) {
	logger := zap.NewNop()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(nil, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.StorageConfig{
			AccessKey: "test-key",
			SecretKey: "test-secret",
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.StorageConfig{
			Bucket:    "supplier-documents",
			SecretKey: "test-secret",
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.StorageConfig{
			Bucket:    "supplier-documents",
			AccessKey: "test-key",
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		store, err := NewS3DocumentStorage(&config.StorageConfig{
			Bucket:       "supplier-documents",
			AccessKey:    "test-key",
			SecretKey:    "test-secret",
			Endpoint:     "localhost:9000",
			UsePathStyle: true,
		}, logger)
		require.NoError(t, err)
		require.NotNil(t, store)
		assert.Equal(t, "supplier-documents", store.bucket)
	})
}

func TestS3DocumentStorage_GetDocumentURL(t *testing.T) {
	store := newTestStorage(&fakeObjectAPI{}, &fakePresigner{})

	url, err := store.GetDocumentURL(context.Background(), "documents/doc-001.pdf", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/supplier-documents/documents/doc-001.pdf?signed", url)
}

func TestS3DocumentStorage_GetDocumentURL_EmptyBlobName(t *testing.T) {
	store := newTestStorage(&fakeObjectAPI{}, &fakePresigner{})

	_, err := store.GetDocumentURL(context.Background(), "", 24*time.Hour)
	assert.Error(t, err)
}

func TestS3DocumentStorage_GetDocumentURLs(t *testing.T) {
	presigner := &fakePresigner{}
	store := newTestStorage(&fakeObjectAPI{}, presigner)

	blobNames := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		blobNames = append(blobNames, fmt.Sprintf("documents/doc-%03d.pdf", i))
	}

	urls, err := store.GetDocumentURLs(context.Background(), blobNames, 48*time.Hour)
	require.NoError(t, err)
	assert.Len(t, urls, 20)
	assert.Equal(t, int64(20), presigner.calls.Load())
	for _, blobName := range blobNames {
		assert.Contains(t, urls, blobName)
	}
}

func TestS3DocumentStorage_GetDocumentURLs_SkipsFailures(t *testing.T) {
	presigner := &fakePresigner{failKeys: map[string]bool{"documents/bad.pdf": true}}
	store := newTestStorage(&fakeObjectAPI{}, presigner)

	urls, err := store.GetDocumentURLs(context.Background(),
		[]string{"documents/good.pdf", "documents/bad.pdf", ""}, 48*time.Hour)

	require.NoError(t, err)
	assert.Len(t, urls, 1)
	assert.Contains(t, urls, "documents/good.pdf")
}

func TestS3DocumentStorage_DocumentExists(t *testing.T) {
	api := &fakeObjectAPI{objects: map[string]bool{"documents/doc-001.pdf": true}}
	store := newTestStorage(api, &fakePresigner{})
	ctx := context.Background()

	exists, err := store.DocumentExists(ctx, "documents/doc-001.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.DocumentExists(ctx, "documents/missing.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3DocumentStorage_DocumentExists_TransportError(t *testing.T) {
	api := &fakeObjectAPI{headErr: errors.New("connection refused")}
	store := newTestStorage(api, &fakePresigner{})

	_, err := store.DocumentExists(context.Background(), "documents/doc-001.pdf")
	assert.Error(t, err)
}

func TestS3DocumentStorage_DeleteDocument(t *testing.T) {
	api := &fakeObjectAPI{objects: map[string]bool{"documents/doc-001.pdf": true}}
	store := newTestStorage(api, &fakePresigner{})
	ctx := context.Background()

	deleted, err := store.DeleteDocument(ctx, "documents/doc-001.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"documents/doc-001.pdf"}, api.deleted)

	// Deleting a blob that is already gone is not an error.
	deleted, err = store.DeleteDocument(ctx, "documents/doc-001.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)
}
