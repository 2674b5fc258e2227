package domain

import "github.com/saiputravu/predictex/internal/xdecimal"

// OutcomeQuantities is the LMSR input q: one decimal per outcome,
// representing net LONG minus net SHORT collateral held for that
// outcome. Derived from Positions; never stored directly (spec §3).
type OutcomeQuantities []xdecimal.Decimal

// Clone returns an independent copy so callers can apply a trade vector
// without mutating the caller's slice.
func (q OutcomeQuantities) Clone() OutcomeQuantities {
	out := make(OutcomeQuantities, len(q))
	copy(out, q)
	return out
}
