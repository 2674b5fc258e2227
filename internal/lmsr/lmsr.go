// Package lmsr implements the Logarithmic Market Scoring Rule pricing
// engine: a set of stateless pure functions over an outcome-quantity
// vector q and a liquidity parameter b. It has no analogue in the
// teacher repo (a single-instrument equities matcher has no automated
// market maker); it is built in C1's idiom — xdecimal.Decimal
// throughout, never a raw float64 — and grounded on spec §4.3's
// shifted-log-sum-exp construction.
package lmsr

import (
	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
	"github.com/saiputravu/predictex/internal/xerr"
)

// Cost computes C(q, b) = b * log(sum_i exp(q_i / b)) using the
// shifted-max form b * (m/b + log(sum exp((q_i - m)/b))), m = max(q_i),
// per spec §9 "LMSR stability".
func Cost(q domain.OutcomeQuantities, b xdecimal.Decimal) (xdecimal.Decimal, error) {
	if len(q) == 0 {
		return xdecimal.Zero, xerr.New(xerr.Validation, "lmsr: q must be non-empty")
	}
	m := q[0]
	for _, qi := range q[1:] {
		m = xdecimal.Max(m, qi)
	}

	sum := xdecimal.Zero
	for _, qi := range q {
		shifted := qi.Sub(m).Div(b)
		sum = sum.Add(shifted.Exp())
	}
	logSum, err := sum.Ln()
	if err != nil {
		return xdecimal.Zero, xerr.Wrap(xerr.Validation, "lmsr: cost function diverged", err)
	}
	return b.Mul(m.Div(b).Add(logSum)), nil
}

// Prices returns the instantaneous marginal price of every outcome: a
// softmax of q scaled by b. Computed from the same shifted exponentials
// as Cost so Σ p_i is exactly 1 within floating error of the Ln/Exp
// approximation (spec §4.3, tested to 1e-10).
func Prices(q domain.OutcomeQuantities, b xdecimal.Decimal) ([]xdecimal.Decimal, error) {
	if len(q) == 0 {
		return nil, xerr.New(xerr.Validation, "lmsr: q must be non-empty")
	}
	m := q[0]
	for _, qi := range q[1:] {
		m = xdecimal.Max(m, qi)
	}

	exps := make([]xdecimal.Decimal, len(q))
	sum := xdecimal.Zero
	for i, qi := range q {
		e := qi.Sub(m).Div(b).Exp()
		exps[i] = e
		sum = sum.Add(e)
	}

	prices := make([]xdecimal.Decimal, len(q))
	for i, e := range exps {
		prices[i] = e.Div(sum)
	}
	return prices, nil
}

// ApplyTradeVector returns q + delta, rejecting any resulting negative
// outstanding quantity with xerr.LMSRInsufficient (spec §4.3).
func ApplyTradeVector(q domain.OutcomeQuantities, delta []xdecimal.Decimal) (domain.OutcomeQuantities, error) {
	if len(q) != len(delta) {
		return nil, xerr.New(xerr.Validation, "lmsr: q and delta must have equal length")
	}
	out := make(domain.OutcomeQuantities, len(q))
	for i := range q {
		out[i] = q[i].Add(delta[i])
		if out[i].IsNegative() {
			return nil, xerr.New(xerr.LMSRInsufficient, "lmsr: trade vector drives outstanding quantity negative")
		}
	}
	return out, nil
}

// Quote is the result of a buy or sell quote: the post-trade quantity
// vector, the instantaneous price of the traded outcome after the
// trade, and the signed trade cost (positive: user pays; negative: user
// receives), per spec §4.3.
type Quote struct {
	QAfter       domain.OutcomeQuantities
	InstantPrice xdecimal.Decimal
	TradeCost    xdecimal.Decimal
}

// BuyQuote quotes buying size units of outcome i.
func BuyQuote(q domain.OutcomeQuantities, b xdecimal.Decimal, outcomeIndex int, size xdecimal.Decimal) (Quote, error) {
	if !size.IsPositive() {
		return Quote{}, xerr.New(xerr.Validation, "lmsr: buy size must be positive")
	}
	return tradeQuote(q, b, outcomeIndex, size)
}

// SellQuote quotes selling size units of outcome i. Fails with
// xerr.LMSRInsufficient when q[outcomeIndex] - size < 0.
func SellQuote(q domain.OutcomeQuantities, b xdecimal.Decimal, outcomeIndex int, size xdecimal.Decimal) (Quote, error) {
	if !size.IsPositive() {
		return Quote{}, xerr.New(xerr.Validation, "lmsr: sell size must be positive")
	}
	return tradeQuote(q, b, outcomeIndex, size.Neg())
}

func tradeQuote(q domain.OutcomeQuantities, b xdecimal.Decimal, outcomeIndex int, signedSize xdecimal.Decimal) (Quote, error) {
	if outcomeIndex < 0 || outcomeIndex >= len(q) {
		return Quote{}, xerr.New(xerr.Validation, "lmsr: outcome index out of range")
	}

	delta := make([]xdecimal.Decimal, len(q))
	delta[outcomeIndex] = signedSize

	costBefore, err := Cost(q, b)
	if err != nil {
		return Quote{}, err
	}
	qAfter, err := ApplyTradeVector(q, delta)
	if err != nil {
		return Quote{}, err
	}
	costAfter, err := Cost(qAfter, b)
	if err != nil {
		return Quote{}, err
	}
	pricesAfter, err := Prices(qAfter, b)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		QAfter:       qAfter,
		InstantPrice: pricesAfter[outcomeIndex],
		TradeCost:    costAfter.Sub(costBefore),
	}, nil
}

// WorstCaseLoss is the subsidiser's bound b * ln(n), reported to
// operators per spec §4.3.
func WorstCaseLoss(b xdecimal.Decimal, n int) (xdecimal.Decimal, error) {
	if n <= 0 {
		return xdecimal.Zero, xerr.New(xerr.Validation, "lmsr: n must be positive")
	}
	logN, err := xdecimal.FromInt64(int64(n)).Ln()
	if err != nil {
		return xdecimal.Zero, xerr.Wrap(xerr.Validation, "lmsr: worst-case loss computation failed", err)
	}
	return b.Mul(logN), nil
}
