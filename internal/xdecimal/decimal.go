// Package xdecimal is the exchange-wide fixed-precision decimal façade.
//
// Every price, quantity, and monetary value in the core crosses package
// boundaries as a Decimal, never a float64. Add/Sub/Mul/Div/Cmp/Sign are
// exact, backed by shopspring/decimal. Ln/Exp are the one place this
// façade tolerates a bounded-precision binary intermediate (math/big.Float)
// because LMSR's log-sum-exp form has no exact rational closed form; the
// result is rounded back to Precision fractional digits before it leaves
// this package.
package xdecimal

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits carried at every wire and
// storage boundary. Spec §6 names DECIMAL_PRECISION as a configuration
// knob (default 18), but since Precision is a compile-time const, not a
// runtime value, there is nothing to apply it to — internal/config does
// not read DECIMAL_PRECISION for the same reason.
const Precision = 18

// workingBits is the math/big.Float precision used internally by Ln/Exp.
// 200 bits gives ~60 decimal digits of headroom, comfortably more than
// Precision, so the final round-to-18dp step dominates the error budget.
const workingBits = 200

var (
	// ErrMalformed is returned by Parse when the input is not a canonical
	// base-10 decimal string.
	ErrMalformed = errors.New("xdecimal: malformed decimal string")
	// ErrNegativeLn is returned by Ln for non-positive input.
	ErrNegativeLn = errors.New("xdecimal: Ln requires a strictly positive argument")
)

// canonicalForm accepts an optional leading '-', one or more digits, an
// optional '.' followed by one or more digits. No leading '+', no
// exponents, no leading/trailing whitespace.
var canonicalForm = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Decimal is an immutable 18dp fixed-precision value.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Decimal{d: decimal.Zero}

// Parse validates and parses a canonical base-10 string. Scientific
// notation, leading '+', and multiple sign characters are rejected.
func Parse(s string) (Decimal, error) {
	if !canonicalForm.MatchString(s) {
		return Decimal{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return Decimal{d: d.Truncate(Precision)}, nil
}

// MustParse parses s and panics on error. Intended for literals in tests
// and constant-like call sites, never for untrusted input.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt64 builds a Decimal from an integer quantity.
func FromInt64(n int64) Decimal {
	return Decimal{d: decimal.NewFromInt(n)}
}

// String renders the canonical 18dp form.
func (a Decimal) String() string {
	return a.d.StringFixed(Precision)
}

// Value implements driver.Valuer so GORM persists a Decimal through its
// underlying shopspring/decimal column type (spec §9's canonical string
// form applies to wire boundaries; the DB column is a native decimal).
func (a Decimal) Value() (driver.Value, error) {
	return a.d.Value()
}

// Scan implements sql.Scanner, the inverse of Value.
func (a *Decimal) Scan(value any) error {
	return a.d.Scan(value)
}

// Add returns a+b, exact.
func (a Decimal) Add(b Decimal) Decimal { return Decimal{d: a.d.Add(b.d)} }

// Sub returns a-b, exact.
func (a Decimal) Sub(b Decimal) Decimal { return Decimal{d: a.d.Sub(b.d)} }

// Mul returns a*b truncated to Precision fractional digits.
func (a Decimal) Mul(b Decimal) Decimal { return Decimal{d: a.d.Mul(b.d).Truncate(Precision)} }

// Div returns a/b rounded half-to-even to Precision fractional digits.
// Panics if b is zero, mirroring shopspring/decimal's own QuoRem contract;
// callers at system boundaries must check b.IsZero() first.
func (a Decimal) Div(b Decimal) Decimal {
	// q is truncated toward zero; r carries the sign of a.
	q, r := a.d.QuoRem(b.d, int32(Precision))
	if r.IsZero() {
		return Decimal{d: q}
	}
	ulp := decimal.New(1, -int32(Precision))
	c := r.Abs().Mul(decimal.NewFromInt(2)).Cmp(b.d.Abs().Mul(ulp))
	odd := q.Shift(int32(Precision)).BigInt().Bit(0) == 1
	if c > 0 || (c == 0 && odd) {
		if a.d.Sign()*b.d.Sign() < 0 {
			q = q.Sub(ulp)
		} else {
			q = q.Add(ulp)
		}
	}
	return Decimal{d: q}
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Decimal) Cmp(b Decimal) int { return a.d.Cmp(b.d) }

// Sign returns -1, 0, or 1.
func (a Decimal) Sign() int { return a.d.Sign() }

// IsZero reports whether a == 0.
func (a Decimal) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether a > 0.
func (a Decimal) IsPositive() bool { return a.d.Sign() > 0 }

// IsNegative reports whether a < 0.
func (a Decimal) IsNegative() bool { return a.d.Sign() < 0 }

// GreaterThan reports whether a > b.
func (a Decimal) GreaterThan(b Decimal) bool { return a.d.Cmp(b.d) > 0 }

// LessThan reports whether a < b.
func (a Decimal) LessThan(b Decimal) bool { return a.d.Cmp(b.d) < 0 }

// GreaterThanOrEqual reports whether a >= b.
func (a Decimal) GreaterThanOrEqual(b Decimal) bool { return a.d.Cmp(b.d) >= 0 }

// LessThanOrEqual reports whether a <= b.
func (a Decimal) LessThanOrEqual(b Decimal) bool { return a.d.Cmp(b.d) <= 0 }

// Equal reports whether a == b.
func (a Decimal) Equal(b Decimal) bool { return a.d.Equal(b.d) }

// Neg returns -a.
func (a Decimal) Neg() Decimal { return Decimal{d: a.d.Neg()} }

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// toBigFloat converts through the exact decimal string so no float64
// ever observes the value.
func (a Decimal) toBigFloat() *big.Float {
	f, _, _ := big.ParseFloat(a.d.String(), 10, workingBits, big.ToNearestEven)
	return f
}

func fromBigFloat(f *big.Float) Decimal {
	s := f.Text('f', Precision+8)
	d, err := decimal.NewFromString(s)
	if err != nil {
		// f.Text always produces a parseable decimal string at this
		// precision; a failure here means workingBits was corrupted.
		panic(fmt.Sprintf("xdecimal: unreachable: %v", err))
	}
	return Decimal{d: d.Truncate(Precision)}
}

// Ln returns the natural logarithm of a, computed in big.Float by
// lnBigFloat's argument reduction and atanh series, accurate to well
// beyond Precision digits. Returns ErrNegativeLn if a <= 0.
func (a Decimal) Ln() (Decimal, error) {
	if !a.IsPositive() {
		return Decimal{}, fmt.Errorf("%w: got %s", ErrNegativeLn, a.String())
	}
	x := a.toBigFloat()
	y := lnBigFloat(x)
	return fromBigFloat(y), nil
}

// Exp returns e^a, computed via a big.Float scaling-and-squaring Taylor
// series, rounded to Precision fractional digits on return.
func (a Decimal) Exp() Decimal {
	x := a.toBigFloat()
	y := expBigFloat(x)
	return fromBigFloat(y)
}

// lnBigFloat computes ln(x) for x > 0 using argument reduction (divide by
// powers of 2 until near 1) followed by the atanh series
// ln(x) = 2*atanh((x-1)/(x+1)), then adds back k*ln(2).
func lnBigFloat(x *big.Float) *big.Float {
	prec := x.Prec()
	if prec < workingBits {
		prec = workingBits
	}
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	two := new(big.Float).SetPrec(prec).SetInt64(2)

	k := 0
	y := new(big.Float).SetPrec(prec).Set(x)
	for y.Cmp(two) >= 0 {
		y.Quo(y, two)
		k++
	}
	half := new(big.Float).SetPrec(prec).Quo(one, two)
	for y.Cmp(half) < 0 {
		y.Mul(y, two)
		k--
	}

	num := new(big.Float).SetPrec(prec).Sub(y, one)
	den := new(big.Float).SetPrec(prec).Add(y, one)
	z := new(big.Float).SetPrec(prec).Quo(num, den)

	sum := new(big.Float).SetPrec(prec).Set(z)
	term := new(big.Float).SetPrec(prec).Set(z)
	zSq := new(big.Float).SetPrec(prec).Mul(z, z)

	terms := prec/2 + 16
	for n := 1; n < terms; n++ {
		term.Mul(term, zSq)
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(2*n + 1))
		contribution := new(big.Float).SetPrec(prec).Quo(term, denom)
		sum.Add(sum, contribution)
	}
	sum.Mul(sum, two)

	ln2 := ln2BigFloat(prec)
	kLn2 := new(big.Float).SetPrec(prec).Mul(ln2, new(big.Float).SetPrec(prec).SetInt64(int64(k)))
	return sum.Add(sum, kLn2)
}

// ln2BigFloat computes ln(2) via the same atanh series around x=2 split
// as 2 = 1 * 2^1, i.e. directly via the series for z=(2-1)/(2+1)=1/3.
func ln2BigFloat(prec uint) *big.Float {
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	three := new(big.Float).SetPrec(prec).SetInt64(3)
	z := new(big.Float).SetPrec(prec).Quo(one, three)

	sum := new(big.Float).SetPrec(prec).Set(z)
	term := new(big.Float).SetPrec(prec).Set(z)
	zSq := new(big.Float).SetPrec(prec).Mul(z, z)

	terms := prec/2 + 16
	for n := 1; n < terms; n++ {
		term.Mul(term, zSq)
		denom := new(big.Float).SetPrec(prec).SetInt64(int64(2*n + 1))
		contribution := new(big.Float).SetPrec(prec).Quo(term, denom)
		sum.Add(sum, contribution)
	}
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	return sum.Mul(sum, two)
}

// expBigFloat computes e^x by halving |x| k times until it is at most 1,
// summing a Taylor series for e^(|x|/2^k), squaring the result back up k
// times, and taking the reciprocal when x is negative.
func expBigFloat(x *big.Float) *big.Float {
	prec := x.Prec()
	if prec < workingBits {
		prec = workingBits
	}

	neg := x.Sign() < 0
	y := new(big.Float).SetPrec(prec).Abs(x)

	two := new(big.Float).SetPrec(prec).SetInt64(2)
	k := 0
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	for y.Cmp(one) > 0 {
		y.Quo(y, two)
		k++
	}

	sum := new(big.Float).SetPrec(prec).SetInt64(1)
	term := new(big.Float).SetPrec(prec).SetInt64(1)
	terms := prec/2 + 24
	for n := 1; n < terms; n++ {
		term.Mul(term, y)
		fn := new(big.Float).SetPrec(prec).SetInt64(int64(n))
		term.Quo(term, fn)
		sum.Add(sum, term)
	}

	for i := 0; i < k; i++ {
		sum.Mul(sum, sum)
	}

	if neg {
		return new(big.Float).SetPrec(prec).Quo(one, sum)
	}
	return sum
}
