package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

// Store is the gorm-backed account directory. All provisioning writes go
// through a single SQLite connection so racing requests are serialized.
type Store struct {
	db            *gorm.DB
	reservedNames map[string]struct{}
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(path string, debug bool) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Account{},
		&models.IdentityBinding{},
		&models.UserGroup{},
		&models.UserPreference{},
		&models.WatchlistItem{},
		&models.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return New(db), nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, reservedNames: map[string]struct{}{}}
}

// SetReservedNames replaces the list of usernames that may never be created.
func (s *Store) SetReservedNames(names []string) {
	s.reservedNames = make(map[string]struct{}, len(names))
	for _, n := range names {
		s.reservedNames[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTransaction runs fn against a Store bound to one transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(models.Directory) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, reservedNames: s.reservedNames})
	})
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}
