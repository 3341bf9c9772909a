// Package storage provides access to the blob store holding source documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	infraconfig "github.com/suppliers/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// batchConcurrency bounds the fan-out when presigning a batch of blobs
const batchConcurrency = 8

// objectPresigner is the presigning slice of *s3.PresignClient
type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// objectAPI is the object-management slice of *s3.Client
type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3DocumentStorage implements DocumentStorage against any S3-compatible
// backend (AWS S3, MinIO, RustFS)
type S3DocumentStorage struct {
	client    objectAPI
	presigner objectPresigner
	bucket    string
	logger    *zap.Logger
}

// NewS3DocumentStorage creates a new S3DocumentStorage from configuration
func NewS3DocumentStorage(cfg *infraconfig.StorageConfig, logger *zap.Logger) (*S3DocumentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &S3DocumentStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		logger:    logger,
	}, nil
}

// GetDocumentURL returns a time-limited presigned GET URL for a stored
// document
func (s *S3DocumentStorage) GetDocumentURL(ctx context.Context, blobName string, expiresIn time.Duration) (string, error) {
	if blobName == "" {
		return "", errors.New("blob name is required")
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobName),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("failed to presign document URL: %w", err)
	}

	return presigned.URL, nil
}

// GetDocumentURLs presigns a batch of blobs concurrently. Blobs that fail to
// presign are logged and absent from the result; one bad blob must not hold
// back the rest of the batch.
func (s *S3DocumentStorage) GetDocumentURLs(ctx context.Context, blobNames []string, expiresIn time.Duration) (map[string]string, error) {
	urls := make(map[string]string, len(blobNames))
	if len(blobNames) == 0 {
		return urls, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, batchConcurrency)
	)

	for _, blobName := range blobNames {
		if blobName == "" {
			continue
		}
		wg.Add(1)
		go func(blobName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			signedURL, err := s.GetDocumentURL(ctx, blobName, expiresIn)
			if err != nil {
				s.logger.Warn("failed to presign document in batch",
					zap.String("blob_name", blobName),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			urls[blobName] = signedURL
			mu.Unlock()
		}(blobName)
	}
	wg.Wait()

	return urls, nil
}

// DocumentExists checks whether a document blob exists
func (s *S3DocumentStorage) DocumentExists(ctx context.Context, blobName string) (bool, error) {
	if blobName == "" {
		return false, errors.New("blob name is required")
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobName),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}

	return true, nil
}

// DeleteDocument removes a document blob. Returns false without error when
// the blob did not exist.
func (s *S3DocumentStorage) DeleteDocument(ctx context.Context, blobName string) (bool, error) {
	exists, err := s.DocumentExists(ctx, blobName)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobName),
	}); err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	return true, nil
}

// isNotFound recognizes the missing-object errors S3-compatible backends
// return in their various spellings
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}

// Ensure S3DocumentStorage implements DocumentStorage
var _ invoicingapp.DocumentStorage = (*S3DocumentStorage)(nil)
