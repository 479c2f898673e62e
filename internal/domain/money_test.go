package domain

import (
	"encoding/json"
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"89.90": 8990,
		"89.9":  8990,
		"120":   12000,
		"0.01":  1,
		".5":    50,
		"-1.25": -125,
		" 10 ":  1000,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		assert.NilError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "1.", "1e3", "--1", "1,50"} {
		_, err := ParseMoney(in)
		assert.ErrorIs(t, err, ErrInvalidMoney, in)
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "89.90", Money(8990).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.25", Money(-125).String())
	assert.Equal(t, "0.00", Money(0).String())
}

func TestMoney_MulIsExact(t *testing.T) {
	// 0.10 * 3 drifts in float64, not in minor units.
	assert.Equal(t, MustParseMoney("0.30"), MustParseMoney("0.10").Mul(3))
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{Price: 3590})
	assert.NilError(t, err)
	assert.Equal(t, `{"price":35.90}`, string(data))

	var decoded struct {
		Price Money  `json:"price"`
		Old   *Money `json:"old"`
	}
	assert.NilError(t, json.Unmarshal([]byte(`{"price":89.9,"old":"99.90"}`), &decoded))
	assert.Equal(t, Money(8990), decoded.Price)
	assert.Equal(t, Money(9990), *decoded.Old)

	err = json.Unmarshal([]byte(`{"price":1.999}`), &decoded)
	assert.ErrorContains(t, err, "more than two decimals")
}

func TestMoney_CheckedArithmetic(t *testing.T) {
	p, ok := Money(1000).MulChecked(999)
	assert.Assert(t, ok)
	assert.Equal(t, Money(999000), p)

	_, ok = Money(math.MaxInt64/2 + 1).MulChecked(2)
	assert.Assert(t, !ok)
	_, ok = Money(10).MulChecked(math.MaxInt)
	assert.Assert(t, !ok)
	_, ok = Money(math.MinInt64).MulChecked(-1)
	assert.Assert(t, !ok)

	sum, ok := Money(1).AddChecked(2)
	assert.Assert(t, ok)
	assert.Equal(t, Money(3), sum)
	_, ok = Money(math.MaxInt64).AddChecked(1)
	assert.Assert(t, !ok)
	_, ok = Money(math.MinInt64).AddChecked(-1)
	assert.Assert(t, !ok)
}
