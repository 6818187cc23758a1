// Package gormstore is an assetstore.RecordStore on gorm, backed by SQLite
// for single-machine use or PostgreSQL when several processes share assets.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alnah/go-printables/assetstore"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("unknown record store driver")

var _ assetstore.RecordStore = (*Store)(nil)

// Option configures Open.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// WithLogger routes gorm's warnings and slow-query reports to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSlowThreshold sets the duration above which queries are logged.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.slowThreshold = d
		}
	}
}

// Store keeps assets and versions in SQL tables.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema. For sqlite, dsn is
// a file path (or "file::memory:"); for postgres it is a connection URL.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	o := options{logger: zap.NewNop(), slowThreshold: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	gormLog := gormlogger.New(
		zap.NewStdLog(o.logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             o.slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if strings.EqualFold(driver, DriverSQLite) {
		// One writer at a time; concurrent sqlite writers fail with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormstore: nil db")
	}
	if err := db.AutoMigrate(&assetModel{}, &versionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) FindAsset(ctx context.Context, key assetstore.Key) (*assetstore.Asset, error) {
	var m assetModel
	err := s.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND kind = ? AND name = ?",
			string(key.Owner.Type), key.Owner.ID.String(), key.Kind, key.Name).
		Take(&m).Error
	if err != nil {
		return nil, notFound(err, "asset "+key.String())
	}
	return m.toDomain()
}

func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (*assetstore.Asset, error) {
	var m assetModel
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&m).Error; err != nil {
		return nil, notFound(err, "asset "+id.String())
	}
	return m.toDomain()
}

func (s *Store) InsertAsset(ctx context.Context, a *assetstore.Asset) error {
	if err := s.db.WithContext(ctx).Create(assetToModel(a)).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: asset %s", assetstore.ErrConflict, a.Key)
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *Store) ListAssets(ctx context.Context, owner assetstore.Owner) ([]*assetstore.Asset, error) {
	var rows []assetModel
	err := s.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", string(owner.Type), owner.ID.String()).
		Order("kind ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	out := make([]*assetstore.Asset, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// UpdateCurrentVersion is a conditional UPDATE on revision: zero affected
// rows means another writer moved the pointer first.
func (s *Store) UpdateCurrentVersion(ctx context.Context, assetID, versionID uuid.UUID, expectedRevision int64, at time.Time) (*assetstore.Asset, error) {
	var out *assetstore.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v versionModel
		err := tx.Select("id").
			Where("id = ? AND asset_id = ?", versionID.String(), assetID.String()).
			Take(&v).Error
		if err != nil {
			return notFound(err, fmt.Sprintf("version %s of asset %s", versionID, assetID))
		}

		res := tx.Model(&assetModel{}).
			Where("id = ? AND revision = ?", assetID.String(), expectedRevision).
			Updates(map[string]any{
				"current_version_id": versionID.String(),
				"revision":           gorm.Expr("revision + 1"),
				"updated_at":         at.UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("update current version: %w", res.Error)
		}

		var m assetModel
		if err := tx.Where("id = ?", assetID.String()).Take(&m).Error; err != nil {
			return notFound(err, "asset "+assetID.String())
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: have %d, expected %d", assetstore.ErrStaleRevision, m.Revision, expectedRevision)
		}
		out, err = m.toDomain()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertVersion(ctx context.Context, v *assetstore.Version) error {
	m, err := versionToModel(v)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&assetModel{}).Where("id = ?", m.AssetID).Count(&count).Error; err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: asset %s", assetstore.ErrNotFound, v.AssetID)
		}
		if err := tx.Create(m).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: version %s", assetstore.ErrConflict, v.ID)
			}
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	})
}

func (s *Store) GetVersion(ctx context.Context, id uuid.UUID) (*assetstore.Version, error) {
	var m versionModel
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&m).Error; err != nil {
		return nil, notFound(err, "version "+id.String())
	}
	return m.toDomain()
}

func (s *Store) ListVersions(ctx context.Context, assetID uuid.UUID) ([]*assetstore.Version, error) {
	var rows []versionModel
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID.String()).
		Order("created_at DESC, seq DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]*assetstore.Version, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) SetPinned(ctx context.Context, versionID uuid.UUID, pinned bool) error {
	res := s.db.WithContext(ctx).Model(&versionModel{}).
		Where("id = ?", versionID.String()).
		Update("pinned", pinned)
	if res.Error != nil {
		return fmt.Errorf("set pinned: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Setting the same value affects zero rows on some drivers.
		var count int64
		if err := s.db.WithContext(ctx).Model(&versionModel{}).Where("id = ?", versionID.String()).Count(&count).Error; err != nil {
			return fmt.Errorf("set pinned: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: version %s", assetstore.ErrNotFound, versionID)
		}
	}
	return nil
}

func (s *Store) DeleteVersion(ctx context.Context, versionID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", versionID.String()).Delete(&versionModel{})
	if res.Error != nil {
		return fmt.Errorf("delete version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: version %s", assetstore.ErrNotFound, versionID)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", assetstore.ErrNotFound, what)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// isUniqueViolation covers drivers that do not translate their errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
