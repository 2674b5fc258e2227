package xdecimal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Canonical(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"integer", "100", false},
		{"fraction", "100.5", false},
		{"negative", "-3.25", false},
		{"zero", "0", false},
		{"scientific_rejected", "1e10", true},
		{"leading_plus_rejected", "+5", true},
		{"empty_rejected", "", true},
		{"double_sign_rejected", "--5", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArithmetic_Exact(t *testing.T) {
	a := MustParse("10.000000000000000001")
	b := MustParse("0.000000000000000001")
	assert.Equal(t, "10.000000000000000002", a.Add(b).String())
	assert.Equal(t, "10.000000000000000000", a.Sub(b).String())
}

func TestDiv_HalfToEven(t *testing.T) {
	a := MustParse("1")
	b := MustParse("3")
	got := a.Div(b)
	assert.Equal(t, "0.333333333333333333", got.String())

	// Exact ties at the 18th digit round to the even neighbour.
	tiny := MustParse("0.000000000000000001")
	two := MustParse("2")
	assert.Equal(t, "0.000000000000000000", tiny.Div(two).String())
	assert.Equal(t, "0.000000000000000002", MustParse("0.000000000000000003").Div(two).String())
}

func TestCmpSign(t *testing.T) {
	a := MustParse("5")
	b := MustParse("7")
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.Equal(t, 1, a.Sign())
	assert.Equal(t, 0, Zero.Sign())
	assert.Equal(t, -1, a.Neg().Sign())
}

func TestExpLn_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "2", "0.5", "-1", "3.14159265358979"} {
		x := MustParse(s)
		y := x.Exp()
		back, err := y.Ln()
		require.NoError(t, err)
		diff := back.Sub(x)
		if diff.IsNegative() {
			diff = diff.Neg()
		}
		assert.True(t, diff.LessThan(MustParse("0.000001")), "Ln(Exp(%s)) = %s, want ~%s", s, back.String(), s)
	}
}

func TestLn_KnownValues(t *testing.T) {
	one := MustParse("1")
	lnOne, err := one.Ln()
	require.NoError(t, err)
	assert.Equal(t, "0.000000000000000000", lnOne.String())

	e := MustParse("1").Exp()
	lnE, err := e.Ln()
	require.NoError(t, err)
	diff := lnE.Sub(MustParse("1"))
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	assert.True(t, diff.LessThan(MustParse("0.000001")))
}

func TestLn_RejectsNonPositive(t *testing.T) {
	_, err := Zero.Ln()
	assert.ErrorIs(t, err, ErrNegativeLn)

	_, err = MustParse("-1").Ln()
	assert.ErrorIs(t, err, ErrNegativeLn)
}

func TestMinMax(t *testing.T) {
	a := MustParse("3")
	b := MustParse("7")
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, b, Max(a, b))
}
