package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// LedgerEvent is an immutable record of a balance mutation. Every credit or
// debit the ledger applies appends exactly one row, keyed to the order or
// cashout that caused it.
type LedgerEvent struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountType enums.LedgerAccountType `gorm:"column:account_type;type:ledger_account_type;not null"`
	AccountID   uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID              `gorm:"column:order_id;type:uuid;index"`
	CashoutID   *uuid.UUID              `gorm:"column:cashout_id;type:uuid;index"`
	Type        enums.LedgerEventType   `gorm:"column:type;type:ledger_event_type;not null"`
	AmountCents int64                   `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}
