package enums

import "fmt"

// LedgerAccountType names the balance an entry applies to.
type LedgerAccountType string

const (
	LedgerAccountRestaurant LedgerAccountType = "restaurant"
	LedgerAccountCourier    LedgerAccountType = "courier"
)

// IsValid reports whether the value is a known LedgerAccountType.
func (t LedgerAccountType) IsValid() bool {
	return t == LedgerAccountRestaurant || t == LedgerAccountCourier
}

// LedgerEventType maps to the ledger_event_type enum in Postgres.
type LedgerEventType string

const (
	LedgerEventTypeSettlementCredit  LedgerEventType = "settlement_credit"
	LedgerEventTypeDeliveryFeeCredit LedgerEventType = "delivery_fee_credit"
	LedgerEventTypeCashoutDebit      LedgerEventType = "cashout_debit"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypeSettlementCredit,
	LedgerEventTypeDeliveryFeeCredit,
	LedgerEventTypeCashoutDebit,
}

// IsValid reports whether the value matches the canonical ledger event enum.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
