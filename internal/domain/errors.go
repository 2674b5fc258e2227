package domain

import "errors"

var (
	errInvalidOutcomeCount     = errors.New("domain: market must have between 2 and 255 outcomes")
	errOutcomePositionMismatch = errors.New("domain: len(outcomePositionIds) must equal len(outcomes) when set")
	errNonPositiveB            = errors.New("domain: LMSR liquidity parameter b must be positive")
)
