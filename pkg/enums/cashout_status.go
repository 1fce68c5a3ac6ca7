package enums

import "fmt"

// CashoutStatus tracks the lifecycle of a withdrawal request.
// Cashouts are created pending and settle into exactly one terminal state.
type CashoutStatus string

const (
	CashoutStatusPending   CashoutStatus = "pending"
	CashoutStatusCompleted CashoutStatus = "completed"
	CashoutStatusFailed    CashoutStatus = "failed"
)

var validCashoutStatuses = []CashoutStatus{
	CashoutStatusPending,
	CashoutStatusCompleted,
	CashoutStatusFailed,
}

// String implements fmt.Stringer.
func (s CashoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CashoutStatus.
func (s CashoutStatus) IsValid() bool {
	for _, candidate := range validCashoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the cashout can no longer change state.
func (s CashoutStatus) IsTerminal() bool {
	return s == CashoutStatusCompleted || s == CashoutStatusFailed
}

// ParseCashoutStatus converts raw input into a CashoutStatus.
func ParseCashoutStatus(value string) (CashoutStatus, error) {
	for _, candidate := range validCashoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashout status %q", value)
}
