package engine

import (
	"github.com/holiman/uint256"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// Precision is the fixed-point scale factor applied to reward_per_share
// (spec §4.1, §6): PRECISION = 10^12.
const Precision uint64 = 1_000_000_000_000

// RewardFeeBps and PlatformFeeBps are the basis-point constants named in
// spec §6; they describe the fee split a deployment payment is split into
// before it reaches credit_fee_to_pool/create_deploy_request, not a fee this
// engine re-derives on its own (the off-chain collaborator computes the
// split and presents the two amounts already separated).
const (
	RewardFeeBps   = 100
	PlatformFeeBps = 10
	MaxApyBps      = 10_000
)

// SecondsPerMonth is the subscription period unit used by pay_subscription.
const SecondsPerMonth = 30 * 86_400

var precisionInt = uint256.NewInt(Precision)

// rewardPerShareIncrement computes the per-share accumulator increment for a
// revenue event of `amount`, scaled by Precision, over `totalDeposited`
// active principal. Returns zero, without error, when totalDeposited is zero
// (spec §4.1's division-by-zero guard: the accumulator is left untouched and
// the revenue still lands in the pool balance and vault).
func rewardPerShareIncrement(amount, totalDeposited uint64) (*uint256.Int, error) {
	if totalDeposited == 0 {
		return uint256.NewInt(0), nil
	}
	amt := uint256.NewInt(amount)
	total := uint256.NewInt(totalDeposited)
	scaled, overflow := new(uint256.Int).MulOverflow(amt, precisionInt)
	if overflow {
		return nil, types.NewError(types.ErrKindMathOverflow, "reward-per-share increment overflow")
	}
	return new(uint256.Int).Div(scaled, total), nil
}

// snapshotDebt computes deposited_amount * reward_per_share, the reward_debt
// snapshot taken at every settlement point (spec §4.1).
func snapshotDebt(depositedAmount uint64, rewardPerShare *uint256.Int) (*uint256.Int, error) {
	amt := uint256.NewInt(depositedAmount)
	debt, overflow := new(uint256.Int).MulOverflow(amt, rewardPerShare)
	if overflow {
		return nil, types.NewError(types.ErrKindMathOverflow, "reward debt snapshot overflow")
	}
	return debt, nil
}

// claimableOf computes (deposited_amount * reward_per_share - reward_debt) / Precision,
// clamped at zero the way invariant 3 (claimable never negative) guarantees
// it should already be, but a defensive clamp costs nothing and guards
// against any caller that has not kept reward_debt in lockstep.
func claimableOf(depositedAmount uint64, rewardPerShare, rewardDebt *uint256.Int) (uint64, error) {
	accrued, err := snapshotDebt(depositedAmount, rewardPerShare)
	if err != nil {
		return 0, err
	}
	if accrued.Cmp(rewardDebt) <= 0 {
		return 0, nil
	}
	diff := new(uint256.Int).Sub(accrued, rewardDebt)
	claimable := new(uint256.Int).Div(diff, precisionInt)
	if !claimable.IsUint64() {
		return 0, types.NewError(types.ErrKindMathOverflow, "claimable exceeds u64 range")
	}
	return claimable.Uint64(), nil
}
