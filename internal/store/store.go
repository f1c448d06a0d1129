// internal/store/store.go
// Package store persists recorded training examples in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

// DefaultFile is the database file name used when no path is configured
const DefaultFile = "examples.sqlite3"

var (
	// ErrStoreClosed indicates the store is nil or has been closed
	ErrStoreClosed = errors.New("example store is not open")
	// ErrEmptyExample indicates an example must contain at least one frame
	ErrEmptyExample = errors.New("example must contain at least one frame")
	// ErrInvalidClassKey indicates class keys must be non-negative
	ErrInvalidClassKey = errors.New("class key must be non-negative")
)

// record is the persisted row. Seq preserves insertion order.
type record struct {
	Seq         uint      `gorm:"primaryKey;autoIncrement"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex:idx_example_uuid"`
	ClassKey    int       `gorm:"index:idx_example_class"`
	Frequencies []float64 `gorm:"serializer:json"`
	ToneFlags   []bool    `gorm:"serializer:json"`
	CreatedAt   time.Time
}

func (record) TableName() string { return "examples" }

// Example is one recorded training example.
type Example struct {
	ID          string
	ClassKey    int
	Frequencies []float64
	ToneFlags   []bool
	CreatedAt   time.Time
}

// Samples returns the example as detector input, oldest frame first
func (e Example) Samples() []tonal.Sample {
	out := make([]tonal.Sample, len(e.Frequencies))
	for i, f := range e.Frequencies {
		out[i] = tonal.Sample{ToneActive: i < len(e.ToneFlags) && e.ToneFlags[i], FrequencyHz: f}
	}
	return out
}

// ClassSummary counts the examples stored under one class key.
type ClassSummary struct {
	ClassKey int
	Count    int
}

// Store is a SQLite-backed example archive. It is safe for concurrent use.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// SQLite serialises writers; one connection avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&record{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Close releases the database
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.db, s.sqlDB = nil, nil
	return err
}

// Append stores one example under classKey.
func (s *Store) Append(ctx context.Context, classKey int, samples []tonal.Sample) (Example, error) {
	if s == nil || s.db == nil {
		return Example{}, ErrStoreClosed
	}
	if classKey < 0 {
		return Example{}, ErrInvalidClassKey
	}
	if len(samples) == 0 {
		return Example{}, ErrEmptyExample
	}

	rec := record{
		UUID:        uuid.NewString(),
		ClassKey:    classKey,
		Frequencies: make([]float64, len(samples)),
		ToneFlags:   make([]bool, len(samples)),
	}
	for i, smp := range samples {
		rec.Frequencies[i] = smp.FrequencyHz
		rec.ToneFlags[i] = smp.ToneActive
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return Example{}, fmt.Errorf("creating example: %w", err)
	}
	return rec.example(), nil
}

// Examples returns every example of classKey in recording order.
func (s *Store) Examples(ctx context.Context, classKey int) ([]Example, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	var recs []record
	if err := s.db.WithContext(ctx).Where("class_key = ?", classKey).Order("seq").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("querying examples: %w", err)
	}
	out := make([]Example, len(recs))
	for i, r := range recs {
		out[i] = r.example()
	}
	return out, nil
}

// Classes returns the example count per class key, ordered by key.
func (s *Store) Classes(ctx context.Context) ([]ClassSummary, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	var rows []ClassSummary
	err := s.db.WithContext(ctx).Model(&record{}).
		Select("class_key, count(*) as count").
		Group("class_key").
		Order("class_key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summarising classes: %w", err)
	}
	return rows, nil
}

// NextClassKey returns one more than the highest stored class key, or 0 when empty.
func (s *Store) NextClassKey(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrStoreClosed
	}
	var highest sql.NullInt64
	if err := s.db.WithContext(ctx).Model(&record{}).Select("max(class_key)").Scan(&highest).Error; err != nil {
		return 0, fmt.Errorf("querying class keys: %w", err)
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}

// Delete removes the example with the given id. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	if err := s.db.WithContext(ctx).Where("uuid = ?", id).Delete(&record{}).Error; err != nil {
		return fmt.Errorf("deleting example: %w", err)
	}
	return nil
}

func (r record) example() Example {
	return Example{
		ID:          r.UUID,
		ClassKey:    r.ClassKey,
		Frequencies: r.Frequencies,
		ToneFlags:   r.ToneFlags,
		CreatedAt:   r.CreatedAt,
	}
}
