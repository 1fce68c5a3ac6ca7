package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

// Breakdown is the money split produced when a payment settles. All values
// are cents and always satisfy fee + commission + net == total.
type Breakdown struct {
	DeliveryFeeCents   int64
	CommissionCents    int64
	RestaurantNetCents int64
}

// Calculator derives the settlement split from the configured fee tiers and
// commission rate.
type Calculator struct {
	shortDistanceKm float64
	shortFeeCents   int64
	longFeeCents    int64
	commissionRate  decimal.Decimal
}

// NewCalculator validates the fee configuration once so Compute never fails
// on config problems.
func NewCalculator(cfg config.FeeConfig) (*Calculator, error) {
	rate, err := cfg.CommissionRateDecimal()
	if err != nil {
		return nil, err
	}
	if cfg.ShortFeeCents < 0 || cfg.LongFeeCents < 0 {
		return nil, fmt.Errorf("delivery fee tiers must be non-negative")
	}
	if cfg.ShortDistanceKm <= 0 {
		return nil, fmt.Errorf("short distance threshold must be positive")
	}
	return &Calculator{
		shortDistanceKm: cfg.ShortDistanceKm,
		shortFeeCents:   cfg.ShortFeeCents,
		longFeeCents:    cfg.LongFeeCents,
		commissionRate:  rate,
	}, nil
}

// DeliveryFee picks the fee tier for the given distance.
func (c *Calculator) DeliveryFee(distanceKm float64) int64 {
	if distanceKm < c.shortDistanceKm {
		return c.shortFeeCents
	}
	return c.longFeeCents
}

// Compute splits a paid total into delivery fee, platform commission, and
// the restaurant's net. The commission applies to the total minus the fee,
// rounded half-up to whole cents.
func (c *Calculator) Compute(totalCents int64, distanceKm float64) (Breakdown, error) {
	fee := c.DeliveryFee(distanceKm)
	if fee >= totalCents {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeSettlementUnderflow,
			fmt.Sprintf("delivery fee %d cents exceeds order total %d cents", fee, totalCents))
	}
	gross := totalCents - fee
	commission := decimal.NewFromInt(gross).Mul(c.commissionRate).Round(0).IntPart()
	return Breakdown{
		DeliveryFeeCents:   fee,
		CommissionCents:    commission,
		RestaurantNetCents: gross - commission,
	}, nil
}
