package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/pkg/enums"
)

// Order is a buyer's purchase transaction. Orders are financial records and
// are never deleted; PAID is terminal and immutable once set.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID           uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	TotalCents        int64             `gorm:"column:total_cents;not null"`
	ExternalPaymentID *string           `gorm:"column:external_payment_id"`
	Lines             []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine is one purchased photo license inside an order.
type OrderLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	PhotographerID uuid.UUID `gorm:"column:photographer_id;type:uuid;not null"`
	PhotoID        uuid.UUID `gorm:"column:photo_id;type:uuid;not null"`
	LicenseType    string    `gorm:"column:license_type;not null;default:'standard'"`
	PriceCents     int64     `gorm:"column:price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
