package media

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
)

// NoPTS marks a missing timestamp.
const NoPTS int64 = math.MinInt64

// Rational is a num/den pair, used for time bases and frame rates.
type Rational struct {
	Num int
	Den int
}

// Valid reports whether both components are non-zero.
func (r Rational) Valid() bool {
	return r.Num != 0 && r.Den != 0
}

// Float returns num/den, or 0 for an invalid rational.
func (r Rational) Float() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert swaps numerator and denominator.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// TicksToMillis converts a timestamp in tb units to milliseconds,
// raw*1000*num/den rounded toward negative infinity. Invalid time bases and
// NoPTS yield 0.
func TicksToMillis(raw int64, tb Rational) int64 {
	if !tb.Valid() || raw == NoPTS {
		return 0
	}
	return mulDivFloor(raw, 1000*int64(tb.Num), int64(tb.Den))
}

// MillisToTicks converts milliseconds to tb units, ms*den/(1000*num) rounded
// toward negative infinity so that the result never lands after ms.
func MillisToTicks(ms int64, tb Rational) int64 {
	if !tb.Valid() {
		return 0
	}
	return mulDivFloor(ms, int64(tb.Den), 1000*int64(tb.Num))
}

// mulDivFloor returns floor(a*b/c) without intermediate overflow.
func mulDivFloor(a, b, c int64) int64 {
	if c < 0 {
		b, c = -b, -c
	}
	if p, ok := mul64(a, b); ok {
		q := p / c
		if (p%c != 0) && (p < 0) {
			q--
		}
		return q
	}
	n := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	q := new(big.Int)
	m := new(big.Int)
	// Euclidean division with a positive divisor is floor division.
	q.DivMod(n, big.NewInt(c), m)
	if !q.IsInt64() {
		if q.Sign() < 0 {
			return math.MinInt64 + 1
		}
		return math.MaxInt64
	}
	return q.Int64()
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := abs64(a), abs64(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	if neg {
		return -int64(lo), true
	}
	return int64(lo), true
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
