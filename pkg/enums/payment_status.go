package enums

// PaymentStatus mirrors the status values the payment gateway reports.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusApproved   PaymentStatus = "approved"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusChargeback PaymentStatus = "charged_back"
)

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsApproved reports whether the gateway considers the payment settled.
func (s PaymentStatus) IsApproved() bool {
	return s == PaymentStatusApproved
}
