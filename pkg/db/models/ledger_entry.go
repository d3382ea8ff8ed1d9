package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/pkg/enums"
)

// LedgerEntry records an immutable balance change for one photographer.
// Entries are append-only; the materialized balance is always recomputable as
// the sum of entries.
type LedgerEntry struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PhotographerID      uuid.UUID             `gorm:"column:photographer_id;type:uuid;not null;index"`
	Kind                enums.LedgerEntryKind `gorm:"column:kind;type:text;not null"`
	AmountCents         int64                 `gorm:"column:amount_cents;not null"`
	RelatedOrderID      *uuid.UUID            `gorm:"column:related_order_id;type:uuid"`
	RelatedWithdrawalID *uuid.UUID            `gorm:"column:related_withdrawal_id;type:uuid"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
}
