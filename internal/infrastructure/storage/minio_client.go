package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"lumisync/internal/domain/service"
)

// MinioClient stores blobs in any S3 compatible bucket.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

var _ service.BlobStore = (*MinioClient)(nil)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func NewMinioClient(ctx context.Context, opts MinioOptions) (*MinioClient, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %v", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %v", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %v", opts.Bucket, err)
		}
	}

	return &MinioClient{
		client:     client,
		bucketName: opts.Bucket,
	}, nil
}

func (c *MinioClient) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := c.client.PutObject(ctx, c.bucketName, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %v", path, err)
	}

	u := *c.client.EndpointURL()
	u.Path = "/" + c.bucketName + "/" + path
	return u.String(), nil
}

func (c *MinioClient) Close() error {
	return nil
}
