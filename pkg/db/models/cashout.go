package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Cashout records a withdrawal request. Rows are created pending and settle
// into exactly one terminal state; the pix key is snapshotted so later
// profile edits do not change what was paid out.
type Cashout struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Status      enums.CashoutStatus `gorm:"column:status;type:cashout_status;not null;default:'pending'"`
	PixKey      string              `gorm:"column:pix_key;not null"`
	ErrorDetail *string             `gorm:"column:error_detail"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
