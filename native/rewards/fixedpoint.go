package rewards

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Precision scales per-share accumulators so integer division keeps twelve
// decimal places. Accumulators and debts are stored at full precision; the
// division back to token units happens only when pending value is computed.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

// Accumulators, debts and entitlements must fit an unsigned 128-bit lane;
// raw token amounts must fit 64 bits. Anything wider is a fault, never a
// wrap.
const accumulatorBits = 128

// fitsAmount reports whether v is a well-formed token amount.
func fitsAmount(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.IsUint64()
}

// fitsAccumulator reports whether v fits the wide lane used for
// reward-per-share values, debts and entitlements.
func fitsAccumulator(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	wide, overflow := uint256.FromBig(v)
	if overflow {
		return false
	}
	return wide.BitLen() <= accumulatorBits
}

// AccrualDelta returns the accumulator increase produced by amount landing on
// a pool with the given total weight. Division truncates toward zero; the
// remainder stays in the pool balance.
func AccrualDelta(amount, totalWeight *big.Int) (*big.Int, error) {
	if totalWeight == nil || totalWeight.Sign() == 0 {
		return nil, ErrNoWeightToDistribute
	}
	if !fitsAmount(amount) {
		return nil, ErrArithmeticOverflow
	}
	delta := new(big.Int).Mul(amount, Precision)
	delta.Quo(delta, totalWeight)
	if !fitsAccumulator(delta) {
		return nil, ErrArithmeticOverflow
	}
	return delta, nil
}

// Entitlement returns weight multiplied by the accumulator at full precision.
func Entitlement(weight uint64, rps *big.Int) (*big.Int, error) {
	if rps == nil || rps.Sign() < 0 {
		return nil, ErrArithmeticOverflow
	}
	entitled := new(big.Int).Mul(new(big.Int).SetUint64(weight), rps)
	if !fitsAccumulator(entitled) {
		return nil, ErrArithmeticOverflow
	}
	return entitled, nil
}

// Pending converts a full-precision entitlement and recorded debt into
// claimable token units. The subtraction saturates at zero: a debt recorded
// against a fresher accumulator never produces a negative claim.
func Pending(entitled, debt *big.Int) *big.Int {
	if entitled == nil {
		return big.NewInt(0)
	}
	diff := new(big.Int).Set(entitled)
	if debt != nil {
		diff.Sub(diff, debt)
	}
	if diff.Sign() <= 0 {
		return big.NewInt(0)
	}
	return diff.Quo(diff, Precision)
}

// ShareOf returns amount scaled by an integer percentage, truncating toward
// zero. The distributor and the projector both route through this helper so
// a projected share and the share later swept for real are always the same
// number.
func ShareOf(amount *big.Int, percent uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || percent == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(percent)))
	return share.Quo(share, big.NewInt(100))
}
