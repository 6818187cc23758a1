package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/alnah/go-printables/assetstore"
)

var _ assetstore.BlobStore = (*GCSStore)(nil)

// GCSConfig selects the bucket and credentials. CredentialsFile may hold a
// path to a service account key or the JSON itself; empty uses Application
// Default Credentials.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSStore keeps blobs in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	opts   remoteOptions
}

// NewGCSStore creates a storage client for cfg.Bucket.
func NewGCSStore(ctx context.Context, cfg GCSConfig, opts ...Option) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	clientOpts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if strings.HasPrefix(creds, "{") {
			clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
		}
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return newGCSStore(client, cfg.Bucket, opts...), nil
}

func newGCSStore(client *storage.Client, bucket string, opts ...Option) *GCSStore {
	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &GCSStore{client: client, bucket: client.Bucket(bucket), name: bucket, opts: o}
}

// Close releases the storage client.
func (g *GCSStore) Close() error { return g.client.Close() }

func (g *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer %s: %w", key, err)
	}
	return key, nil
}

func (g *GCSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	r, err := g.bucket.Object(ref).NewReader(ctx)
	if err != nil {
		return nil, g.mapError(err, ref)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, g.mapError(err, ref)
	}
	return data, nil
}

// URL returns the public URL when configured, else a V4 signed GET URL.
func (g *GCSStore) URL(_ context.Context, ref string) (string, error) {
	if g.opts.publicBaseURL != "" {
		return publicURL(g.opts.publicBaseURL, ref), nil
	}
	u, err := g.bucket.SignedURL(ref, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(g.opts.urlExpiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", ref, err)
	}
	return u, nil
}

func (g *GCSStore) Delete(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := g.bucket.Object(ref).Delete(ctx); err != nil {
		return g.mapError(err, ref)
	}
	return nil
}

func (g *GCSStore) mapError(err error, ref string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", assetstore.ErrBlobNotFound, g.name, ref)
	}
	return fmt.Errorf("object gs://%s/%s: %w", g.name, ref, err)
}
