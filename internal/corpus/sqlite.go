// Package corpus maintains a sqlite index of decoded project captures so that
// labeled reference files can be listed, queried, and diffed against each
// other without re-decoding the raw buffers every time.
package corpus

import (
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

	"github.com/kmorrill/xy-format-sub001/internal/format"
)

const DefaultDBFile = "xycorpus.sqlite3"

var ErrStoreClosed = errors.New("corpus store is nil or closed")
var ErrCaptureNotFound = errors.New("capture not found")

// Capture is one indexed project file.
type Capture struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Path       string `gorm:"uniqueIndex:idx_capture_path"`
	Label      string `gorm:"index:idx_capture_label"`
	Size       int
	TempoBPM   float64
	TrackCount int
	EventCount int
	CreatedAt  time.Time
}

// TrackRow is the per-track decode summary for a capture.
type TrackRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	CaptureID     string `gorm:"type:varchar(36);index:idx_track_capture"`
	TrackIndex    int
	BlockOffset   int
	EngineID      int // -1 when absent
	Scale         int
	PatternLength int
	Filter        string
	Mod           string
	QuantEvents   int
	LiveEvents    int
}

type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (or creates) the corpus database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Capture{}, &TrackRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IndexProject stores the decode summary of one project under path. Indexing
// the same path again replaces the previous rows so the index tracks the file
// on disk, not its history.
func (s *Store) IndexProject(path, label string, p *format.Project) (string, error) {
	if s == nil || s.DB == nil {
		return "", ErrStoreClosed
	}

	id := uuid.NewString()
	capture := Capture{
		ID:         id,
		Path:       path,
		Label:      label,
		Size:       p.Size,
		TempoBPM:   p.Header.BPM(),
		TrackCount: len(p.Tracks),
		EventCount: p.EventCount(),
	}

	rows := make([]TrackRow, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		engine := -1
		if t.HasEngine {
			engine = int(t.EngineID)
		}
		rows = append(rows, TrackRow{
			CaptureID:     id,
			TrackIndex:    t.Index,
			BlockOffset:   t.Block.Offset,
			EngineID:      engine,
			Scale:         int(t.Scale),
			PatternLength: t.PatternLength,
			Filter:        t.Filter.String(),
			Mod:           t.Mod.String(),
			QuantEvents:   len(t.Events),
			LiveEvents:    len(t.Meta),
		})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prev Capture
		if err := tx.Where("path = ?", path).First(&prev).Error; err == nil {
			if err := tx.Where("capture_id = ?", prev.ID).Delete(&TrackRow{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&prev).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&capture).Error; err != nil {
			return fmt.Errorf("creating capture: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 64).Error; err != nil {
				return fmt.Errorf("batch insert tracks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("indexing %s: %w", path, err)
	}
	return id, nil
}

// ListCaptures returns every indexed capture, newest first.
func (s *Store) ListCaptures() ([]Capture, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreClosed
	}
	var caps []Capture
	if err := s.DB.Order("created_at DESC").Find(&caps).Error; err != nil {
		return nil, fmt.Errorf("listing captures: %w", err)
	}
	return caps, nil
}

// GetCapture resolves a capture by id or, failing that, by label.
func (s *Store) GetCapture(ref string) (*Capture, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreClosed
	}
	var capture Capture
	err := s.DB.Where("id = ?", ref).First(&capture).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.DB.Where("label = ?", ref).First(&capture).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%q: %w", ref, ErrCaptureNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying capture: %w", err)
	}
	return &capture, nil
}

// TracksFor returns the per-track rows of a capture in track order.
func (s *Store) TracksFor(captureID string) ([]TrackRow, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreClosed
	}
	var rows []TrackRow
	if err := s.DB.Where("capture_id = ?", captureID).Order("track_index").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	return rows, nil
}

// DeleteCapture removes a capture and its track rows.
func (s *Store) DeleteCapture(captureID string) error {
	if s == nil || s.DB == nil {
		return ErrStoreClosed
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("capture_id = ?", captureID).Delete(&TrackRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", captureID).Delete(&Capture{}).Error
	})
}
