package types

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEntry backs the local durable key-value store (read state, setting
// overrides). Local-only: never replicated to the document store.
type LedgerEntry struct {
	Key       string         `gorm:"column:key;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (LedgerEntry) TableName() string { return "team_ledger" }
