package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/pkg/enums"
)

// WithdrawalRequest is a photographer's request to cash out available funds.
// Creating one reserves the amount (available → held) atomically.
type WithdrawalRequest struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PhotographerID uuid.UUID              `gorm:"column:photographer_id;type:uuid;not null;index"`
	AmountCents    int64                  `gorm:"column:amount_cents;not null"`
	Status         enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'PENDENTE'"`
	RejectReason   *string                `gorm:"column:reject_reason"`
	RequestedAt    time.Time              `gorm:"column:requested_at;autoCreateTime"`
	ResolvedAt     *time.Time             `gorm:"column:resolved_at"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
