package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/types"
)

// userRecordModel maps to the user_records table.
type userRecordModel struct {
	UserID string `gorm:"primaryKey"`
	// Data holds the whole record as JSONB.
	Data             json.RawMessage `gorm:"type:jsonb;not null"`
	InteractionCount int
	Preferred        string `gorm:"column:preferred_personality"`
	UpdatedAt        time.Time
}

func (userRecordModel) TableName() string {
	return "user_records"
}

// PostgresBackend stores records in PostgreSQL through gorm.
type PostgresBackend struct {
	db *gorm.DB
}

// NewPostgresBackend opens and pings the database. Open also runs Migrate.
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database url is required", ErrStorage)
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, wrap("open gorm database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrap("get sql db", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, wrap("ping database", err)
	}
	return &PostgresBackend{db: db}, nil
}

// Migrate creates or updates the user_records table.
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(&userRecordModel{}); err != nil {
		return wrap("migrate user_records", err)
	}
	return nil
}

func (b *PostgresBackend) LoadAll(ctx context.Context) (map[string]*types.UserRecord, error) {
	var rows []userRecordModel
	if err := b.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, wrap("query user records", err)
	}
	out := make(map[string]*types.UserRecord, len(rows))
	for _, row := range rows {
		rec, err := recordFromModel(row)
		if err != nil {
			return nil, err
		}
		out[rec.UserID] = rec
	}
	return out, nil
}

func (b *PostgresBackend) Load(ctx context.Context, userID string) (*types.UserRecord, error) {
	var row userRecordModel
	err := b.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, wrap("query user record", err)
	}
	return recordFromModel(row)
}

func (b *PostgresBackend) Save(ctx context.Context, rec *types.UserRecord) error {
	if rec == nil || rec.UserID == "" {
		return fmt.Errorf("%w: record without user id", ErrStorage)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return wrap("encode user record", err)
	}
	row := userRecordModel{
		UserID:           rec.UserID,
		Data:             data,
		InteractionCount: rec.InteractionCount,
		Preferred:        string(rec.PreferredPersonality),
		UpdatedAt:        rec.LastSeen,
	}
	err = b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "interaction_count", "preferred_personality", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return wrap("upsert user record", err)
	}
	return nil
}

func (b *PostgresBackend) Close(context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return wrap("get sql db", err)
	}
	if err := sqlDB.Close(); err != nil {
		return wrap("close database", err)
	}
	return nil
}

func recordFromModel(row userRecordModel) (*types.UserRecord, error) {
	var rec types.UserRecord
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		return nil, wrap(fmt.Sprintf("decode user record %s", row.UserID), err)
	}
	rec.UserID = row.UserID
	return &rec, nil
}
