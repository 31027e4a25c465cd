package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"venuemap/internal/logger"
	"venuemap/internal/models"
)

const (
	photoKeyPrefix     = "events"
	maxParallelUploads = 3
	// DeleteObjects accepts at most this many keys per call.
	s3DeleteBatch = 1000
)

// PhotoStore keeps event photo bytes outside the database.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (url string, err error)
	Delete(ctx context.Context, keys ...string) error
}

// ErrPhotoStoreNotConfigured is returned by DisabledPhotoStore.
var ErrPhotoStoreNotConfigured = errors.New("photo storage not configured")

// DisabledPhotoStore rejects uploads. It stands in when no bucket is set.
type DisabledPhotoStore struct{}

func (DisabledPhotoStore) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrPhotoStoreNotConfigured
}

func (DisabledPhotoStore) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return ErrPhotoStoreNotConfigured
}

// S3API is the part of the S3 client the photo store uses.
type S3API interface {
	manager.UploadAPIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3PhotoStore struct {
	client        S3API
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

func NewS3PhotoStore(client S3API, bucket, publicBaseURL string) *S3PhotoStore {
	return &S3PhotoStore{
		client:        client,
		uploader:      manager.NewUploader(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *S3PhotoStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *S3PhotoStore) Delete(ctx context.Context, keys ...string) error {
	for start := 0; start < len(keys); start += s3DeleteBatch {
		end := min(start+s3DeleteBatch, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete photos: %w", err)
		}
		if len(out.Errors) > 0 {
			return fmt.Errorf("delete photos: %d objects failed, first %s: %s",
				len(out.Errors), aws.ToString(out.Errors[0].Key), aws.ToString(out.Errors[0].Message))
		}
	}
	return nil
}

// PhotoUploader stores validated uploads and cleans up after partial failure.
type PhotoUploader struct {
	store PhotoStore
	log   *zap.Logger
	now   func() time.Time
}

func NewPhotoUploader(store PhotoStore, log *zap.Logger) *PhotoUploader {
	return &PhotoUploader{store: store, log: logger.OrNop(log), now: time.Now}
}

// Upload stores all photos concurrently and returns them in input order. If
// any upload fails the ones that succeeded are deleted before returning.
func (u *PhotoUploader) Upload(ctx context.Context, uploads []models.PhotoUpload) ([]models.EventPhoto, error) {
	photos := make([]models.EventPhoto, len(uploads))
	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, up := range uploads {
		g.Go(func() error {
			id := uuid.NewString()
			key := photoKeyPrefix + "/" + id + strings.ToLower(filepath.Ext(up.FileName))

			body, err := up.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", up.FileName, err)
			}
			defer body.Close()

			url, err := u.store.Put(gctx, key, up.ContentType, body)
			if err != nil {
				return err
			}
			mu.Lock()
			uploaded = append(uploaded, key)
			mu.Unlock()

			photos[i] = models.EventPhoto{
				ID:          id,
				FileName:    up.FileName,
				ContentType: up.ContentType,
				Size:        up.Size,
				ObjectKey:   key,
				URL:         url,
				Position:    i,
				CreatedAt:   u.now().UTC(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.Discard(context.WithoutCancel(ctx), uploaded)
		return nil, err
	}
	return photos, nil
}

// Discard deletes stored photos and logs any failure.
func (u *PhotoUploader) Discard(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := u.store.Delete(ctx, keys...); err != nil {
		u.log.Error("failed to delete photos", zap.Strings("keys", keys), zap.Error(err))
	}
}
