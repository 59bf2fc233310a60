package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIORepository is the object store used for self-hosted deployments.
type MinIORepository struct {
	client *minio.Client

	mu      sync.Mutex
	ensured map[string]bool
}

// InitMinIOClient initializes and returns a MinIO client
func InitMinIOClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init error: %w", err)
	}
	return client, nil
}

func NewMinIORepository(client *minio.Client) *MinIORepository {
	return &MinIORepository{client: client, ensured: make(map[string]bool)}
}

// PutObject creates or overwrites bucket/key, creating the bucket first
// when it does not exist yet.
func (r *MinIORepository) PutObject(ctx context.Context, bucket, key string, content []byte, contentType string) error {
	if err := r.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err := r.client.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (r *MinIORepository) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := r.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (r *MinIORepository) ensureBucket(ctx context.Context, bucket string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensured[bucket] {
		return nil
	}

	exists, err := r.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket: %w", err)
	}
	if !exists {
		if err := r.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("error creating bucket: %w", err)
		}
	}
	r.ensured[bucket] = true
	return nil
}
