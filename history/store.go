// Package history keeps a ledger of finished batch runs in SQLite.
package history

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tubeforge/models"
)

// Run is one batch.
type Run struct {
	ID         string    `gorm:"primaryKey;type:varchar(26)"` // ULID, sorts by start time
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt time.Time
	Encode     bool
	Upload     bool
	Cancelled  bool

	Total   int
	Done    int
	Failed  int
	Pending int

	Items []Item `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// Item is the recorded outcome of one pipeline item.
type Item struct {
	ID             uint   `gorm:"primaryKey"`
	RunID          string `gorm:"type:varchar(26);not null;index"`
	Position       int    `gorm:"not null"`
	SourceID       string `gorm:"not null;index"`
	Title          string
	Stage          string `gorm:"type:varchar(16);not null"`
	RemoteID       string
	RemoteURL      string
	Error          string
	Warnings       string
	EncodeFallback bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRunID returns a new ULID for a run started at t.
func NewRunID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Store persists runs.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, models.NewError(models.ErrInvalidArgument, "history", errors.New("database path cannot be empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	store := &Store{db: db}
	if err := db.AutoMigrate(&Run{}, &Item{}); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return store, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun stores run together with the outcome of every item. Counters on
// run are derived from items.
func (s *Store) RecordRun(ctx context.Context, run *Run, items []*models.PipelineItem) error {
	if run.ID == "" {
		run.ID = NewRunID(run.StartedAt)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	run.Total = len(items)
	run.Done, run.Failed, run.Pending = 0, 0, 0
	run.Items = make([]Item, 0, len(items))

	for _, it := range items {
		switch it.Stage {
		case models.StageDone:
			run.Done++
		case models.StageFailed:
			run.Failed++
		default:
			run.Pending++
		}
		warnings := make([]string, 0, len(it.Warnings))
		for _, w := range it.Warnings {
			warnings = append(warnings, w.Error())
		}
		run.Items = append(run.Items, Item{
			RunID:          run.ID,
			Position:       it.Index,
			SourceID:       it.Source.ID,
			Title:          it.Source.Title,
			Stage:          string(it.Stage),
			RemoteID:       it.RemoteID,
			RemoteURL:      it.RemoteURL,
			Error:          it.Reason(),
			Warnings:       strings.Join(warnings, "; "),
			EncodeFallback: it.EncodeFallback,
			StartedAt:      it.StartedAt,
			FinishedAt:     it.FinishedAt,
		})
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns up to n runs, newest first, without their items.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}
	var runs []Run
	err := s.db.WithContext(ctx).Order("started_at desc").Order("id desc").Limit(n).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Items returns the items of a run in batch order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Run{}).Where("id = ?", runID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("find run %s: %w", runID, err)
	}
	if n == 0 {
		return nil, models.NewError(models.ErrNotFound, "history", fmt.Errorf("no run %s", runID))
	}
	var items []Item
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("position").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items of run %s: %w", runID, err)
	}
	return items, nil
}
