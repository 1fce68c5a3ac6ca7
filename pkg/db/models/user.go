package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// User is any authenticated account: customers, restaurant owners, couriers,
// and admins. Courier earnings accumulate on BalanceCents; only the ledger
// writes that column.
type User struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Email        string            `gorm:"column:email;not null;uniqueIndex"`
	Role         enums.UserRole    `gorm:"column:role;type:user_role;not null;default:'customer'"`
	Approved     bool              `gorm:"column:approved;not null;default:false"`
	BalanceCents int64             `gorm:"column:balance_cents;not null;default:0"`
	PixKey       *string           `gorm:"column:pix_key"`
	PixKeyType   *enums.PixKeyType `gorm:"column:pix_key_type;type:pix_key_type"`
	PushToken    *string           `gorm:"column:push_token"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
