package kvstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

type ledgerStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewLedger returns a Store backed by the team_ledger table.
func NewLedger(db *gorm.DB, baseLog *logger.Logger) Store {
	return &ledgerStore{db: db, log: baseLog.With("store", "LedgerStore")}
}

func (s *ledgerStore) Get(ctx context.Context, key string, out any) (bool, error) {
	var entry types.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ledgerStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := types.LedgerEntry{Key: key, Value: raw}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *ledgerStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&types.LedgerEntry{}).Error
}
