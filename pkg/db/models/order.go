package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Order is the aggregate the state machine governs. TotalCents is computed
// server side from the captured items and never trusted from the client.
// DeliveryDistanceKm and DeliveryFeeCents stay null until payment settles and
// are immutable afterwards.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	RestaurantID       uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null;index"`
	CourierID          *uuid.UUID        `gorm:"column:courier_id;type:uuid;index"`
	Status             enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'created'"`
	TotalCents         int64             `gorm:"column:total_cents;not null"`
	DeliveryAddress    string            `gorm:"column:delivery_address;not null"`
	ConfirmationCode   string            `gorm:"column:confirmation_code;not null"`
	DeliveryDistanceKm *float64          `gorm:"column:delivery_distance_km"`
	DeliveryFeeCents   *int64            `gorm:"column:delivery_fee_cents"`
	PaymentRef         *string           `gorm:"column:payment_ref;index"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt             *time.Time        `gorm:"column:paid_at"`
	DeliveredAt        *time.Time        `gorm:"column:delivered_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
