package book

import (
	"fmt"

	"github.com/google/uuid"
)

// tradeNamespace roots the deterministic trade-id derivation below. A
// fixed namespace plus a unique seed string make a trade ID a pure
// function of (marketID, outcomeIndex, a monotonic counter, a timestamp)
// rather than of uuid's random source (spec §9). ProcessOrder takes the
// timestamp from the clock at match time, so re-running the same match
// loop later yields different IDs.
var tradeNamespace = uuid.MustParse("d1c8f36a-8b47-4e1e-9b0a-2f7f2d9b6b31")

func nextTradeID(marketID string, outcomeIndex int, seq uint64, seedNanos int64) string {
	seed := fmt.Sprintf("%s:%d:%d:%d", marketID, outcomeIndex, seq, seedNanos)
	return uuid.NewSHA1(tradeNamespace, []byte(seed)).String()
}
