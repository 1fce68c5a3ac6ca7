package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the selling side of the marketplace. Only approved
// restaurants appear in public listings. BalanceCents is mutated exclusively
// through the ledger (settlement credits, cashout debits).
type Restaurant struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Address      string    `gorm:"column:address;not null"`
	Approved     bool      `gorm:"column:approved;not null;default:false"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	Dishes       []Dish    `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
