package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/assetstore/gormstore"
	"github.com/alnah/go-printables/blobstore"
	"github.com/alnah/go-printables/internal/config"
	"github.com/alnah/go-printables/internal/locks"
	"github.com/alnah/go-printables/internal/logging"
)

// defaultSQLitePath is used when the sqlite driver has no DSN.
const defaultSQLitePath = "printables.db"

// pingTimeout bounds the Redis reachability check at startup.
const pingTimeout = 5 * time.Second

// storage owns the repository and the connections behind it.
type storage struct {
	repo    *assetstore.Repository
	closers []func() error
}

// Close releases connections in reverse opening order.
func (s *storage) Close() error {
	var errs []error
	for _, c := range slices.Backward(s.closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openStorage builds the asset repository described by cfg.Storage.
// On error everything opened so far is closed.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *storage, err error) {
	s := &storage{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	records, err := s.openRecords(cfg.Storage.Records, logger)
	if err != nil {
		return nil, err
	}
	blobs, err := s.openBlobs(ctx, cfg.Storage.Blobs)
	if err != nil {
		return nil, err
	}

	opts := []assetstore.Option{assetstore.WithLogger(logger.Named("assets"))}
	locker, err := s.openLocker(ctx, cfg.Storage.Lock)
	if err != nil {
		return nil, err
	}
	if locker != nil {
		opts = append(opts, assetstore.WithLocker(locker))
	}
	if cfg.Generator.Endpoint != "" {
		opts = append(opts, assetstore.WithGenerator(newHTTPGenerator(cfg.Generator)))
	}

	logger.Debug("storage ready",
		zap.String("records", driverName(cfg.Storage.Records.Driver)),
		zap.String("blobs", driverName(cfg.Storage.Blobs.Driver)),
		zap.String("lock", driverName(cfg.Storage.Lock.Driver)),
		logging.Secret("blobs.secretKey", cfg.Storage.Blobs.SecretKey),
		logging.Secret("generator.apiKey", cfg.Generator.APIKey),
	)

	s.repo, err = assetstore.New(records, blobs, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func driverName(d string) string {
	if d == "" {
		return "default"
	}
	return strings.ToLower(d)
}

func (s *storage) openRecords(cfg config.RecordStoreConfig, logger *zap.Logger) (assetstore.RecordStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return assetstore.NewMemoryRecords(), nil
	case gormstore.DriverSQLite, gormstore.DriverPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		store, err := gormstore.Open(cfg.Driver, dsn, gormstore.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: records: %v", ErrStorage, err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("%w: storage.records.driver %q", config.ErrInvalidValue, cfg.Driver)
}

func (s *storage) openBlobs(ctx context.Context, cfg config.BlobStoreConfig) (assetstore.BlobStore, error) {
	var remote []blobstore.Option
	if cfg.PublicBaseURL != "" {
		remote = append(remote, blobstore.WithPublicBaseURL(cfg.PublicBaseURL))
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return blobstore.NewMemoryStore(), nil
	case "filesystem":
		store, err := blobstore.NewFSStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: blobs: %v", ErrStorage, err)
		}
		return store, nil
	case "minio":
		store, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
			Region:    cfg.Region,
		}, remote...)
		if err != nil {
			return nil, fmt.Errorf("%w: blobs: %v", ErrStorage, err)
		}
		return store, nil
	case "gcs":
		store, err := blobstore.NewGCSStore(ctx, blobstore.GCSConfig{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		}, remote...)
		if err != nil {
			return nil, fmt.Errorf("%w: blobs: %v", ErrStorage, err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("%w: storage.blobs.driver %q", config.ErrInvalidValue, cfg.Driver)
}

// openLocker returns nil for the local driver; the repository then uses its
// in-process lock.
func (s *storage) openLocker(ctx context.Context, cfg config.LockConfig) (assetstore.Locker, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		s.closers = append(s.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("%w: redis %s: %v", locks.ErrLockBackend, cfg.Addr, err)
		}

		var opts []locks.RedisOption
		if cfg.TTL > 0 {
			opts = append(opts, locks.WithTTL(cfg.TTL))
		}
		return locks.NewRedisLocker(client, opts...)
	}
	return nil, fmt.Errorf("%w: storage.lock.driver %q", config.ErrInvalidValue, cfg.Driver)
}
