package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/pkg/enums"
)

// PaymentEvent is the deduplication record for a provider notification. The
// composite primary key (provider, event_id) is the idempotency boundary:
// inserting a duplicate fails and the delivery is treated as already handled.
type PaymentEvent struct {
	Provider    enums.PaymentProvider `gorm:"column:provider;type:text;primaryKey"`
	EventID     string                `gorm:"column:event_id;primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	Outcome     enums.PaymentOutcome  `gorm:"column:outcome;type:text;not null"`
	ReceivedAt  time.Time             `gorm:"column:received_at;autoCreateTime"`
	ProcessedAt *time.Time            `gorm:"column:processed_at"`
}
