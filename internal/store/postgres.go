package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// RoomSnapshot is the gorm model: one row per room, JSON blob column.
type RoomSnapshot struct {
	RoomID    string         `gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// Postgres implements Store on top of a single snapshots table. The
// upsert is one statement, so a crash mid-save cannot corrupt the
// previous row.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&RoomSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(ctx context.Context, roomID string, data []byte) error {
	row := RoomSnapshot{RoomID: roomID, Data: datatypes.JSON(data), UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomID, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, roomID string) ([]byte, error) {
	var row RoomSnapshot
	err := p.db.WithContext(ctx).First(&row, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", roomID, err)
	}
	return []byte(row.Data), nil
}

func (p *Postgres) Delete(ctx context.Context, roomID string) error {
	err := p.db.WithContext(ctx).Delete(&RoomSnapshot{}, "room_id = ?", roomID).Error
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", roomID, err)
	}
	return nil
}
