package models

import (
	"time"

	"github.com/google/uuid"
)

// Balance is the materialized per-photographer cache of available and held
// funds. It is only mutated in the same transaction as the ledger entry that
// justifies the change, and both columns must stay non-negative.
type Balance struct {
	PhotographerID uuid.UUID `gorm:"column:photographer_id;type:uuid;primaryKey"`
	AvailableCents int64     `gorm:"column:available_cents;not null;default:0"`
	HeldCents      int64     `gorm:"column:held_cents;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
