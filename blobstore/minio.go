package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/alnah/go-printables/assetstore"
)

var _ assetstore.BlobStore = (*MinioStore)(nil)

// MinioConfig holds the connection settings for S3-compatible storage.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
}

// MinioStore keeps blobs in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	opts   remoteOptions
}

// NewMinioStore connects to the endpoint and creates the bucket if it does
// not exist yet.
func NewMinioStore(ctx context.Context, cfg MinioConfig, opts ...Option) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, opts: o}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func (m *MinioStore) Get(ctx context.Context, ref string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.mapError(err, ref)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.mapError(err, ref)
	}
	return data, nil
}

// URL returns the public URL when configured, else a presigned GET URL.
func (m *MinioStore) URL(ctx context.Context, ref string) (string, error) {
	if m.opts.publicBaseURL != "" {
		return publicURL(m.opts.publicBaseURL, ref), nil
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, ref, m.opts.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return u.String(), nil
}

// Delete stats the object first: S3 deletes succeed for missing keys, and
// callers need to tell "already gone" apart.
func (m *MinioStore) Delete(ctx context.Context, ref string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, ref, minio.StatObjectOptions{}); err != nil {
		return m.mapError(err, ref)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (m *MinioStore) mapError(err error, ref string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s/%s", assetstore.ErrBlobNotFound, m.bucket, ref)
	}
	return fmt.Errorf("object %s/%s: %w", m.bucket, ref, err)
}
