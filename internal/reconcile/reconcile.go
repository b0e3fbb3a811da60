// Package reconcile compares the cash a shift should hold with the cash that
// was physically counted at close.
package reconcile

import (
	"fmt"

	"cashdesk-backend/internal/denomination"
	"cashdesk-backend/internal/money"
)

type Classification string

const (
	WithinTolerance Classification = "WITHIN_TOLERANCE"
	Shortage        Classification = "SHORTAGE"
	Overage         Classification = "OVERAGE"
)

// Signed is anything that contributes a signed amount to the drawer balance.
type Signed interface {
	Signed() money.Money
}

// Total sums count × face value over a validated denomination count.
func Total(count denomination.Count) (money.Money, error) {
	if err := count.Validate(); err != nil {
		return money.Zero, err
	}
	total := money.Zero
	for key, n := range count {
		d, _ := denomination.Lookup(key)
		sub, err := d.Value.MulInt(n)
		if err != nil {
			return money.Zero, fmt.Errorf("denomination %q: %w", key, err)
		}
		if total, err = total.Add(sub); err != nil {
			return money.Zero, fmt.Errorf("counted total: %w", err)
		}
	}
	return total, nil
}

// Expected is the opening float plus the net effect of every movement.
// It fails with money.ErrOutOfRange rather than wrap.
func Expected[S Signed](opening money.Money, movements []S) (money.Money, error) {
	expected := opening
	for _, m := range movements {
		var err error
		if expected, err = expected.Add(m.Signed()); err != nil {
			return money.Zero, fmt.Errorf("expected cash: %w", err)
		}
	}
	return expected, nil
}

// Difference is counted minus expected: negative means cash is missing.
func Difference(expected, closing money.Money) (money.Money, error) {
	diff, err := closing.Sub(expected)
	if err != nil {
		return money.Zero, fmt.Errorf("difference: %w", err)
	}
	return diff, nil
}

// Classify treats |difference| == tolerance as within tolerance. Tolerance
// is never negative.
func Classify(difference, tolerance money.Money) Classification {
	switch {
	case difference.Cmp(tolerance.Neg()) < 0:
		return Shortage
	case difference.Cmp(tolerance) > 0:
		return Overage
	}
	return WithinTolerance
}
