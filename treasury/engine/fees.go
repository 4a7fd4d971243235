package engine

import (
	"github.com/holiman/uint256"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// creditReward adds amount to reward_pool_balance, records the same amount
// as landed in the Reward Vault's ledger balance, and, if bump is true,
// immediately folds it into reward_per_share using the current
// total_deposited (spec.md §4.1's division-by-zero guard: if
// total_deposited is zero the accumulator is left untouched while the
// balance still increases). bump is false for the deferred-credit path
// taken by create_deploy_request (spec.md §9 point 4); every other revenue
// path bumps immediately.
func (e *Engine) creditReward(amount uint64, bump bool) error {
	e.pool.RewardPoolBalance += amount
	e.ledger.Credit(e.vaults.Reward, amount)
	if !bump {
		return nil
	}
	return e.bumpRewardPerShare(amount)
}

// bumpRewardPerShare folds a reward amount into reward_per_share against the
// current total_deposited, without touching reward_pool_balance. Used both
// by creditReward(bump=true) and by confirm_deployment_success realizing a
// DeployRequest's deferred PendingRewardCredit.
func (e *Engine) bumpRewardPerShare(amount uint64) error {
	increment, err := rewardPerShareIncrement(amount, e.pool.TotalDeposited)
	if err != nil {
		return err
	}
	if increment.IsZero() {
		return nil
	}
	sum, overflow := new(uint256.Int).AddOverflow(e.pool.RewardPerShare, increment)
	if overflow {
		return types.NewError(types.ErrKindMathOverflow, "reward_per_share overflow")
	}
	e.pool.RewardPerShare = sum
	return nil
}

// creditPlatform adds amount to platform_pool_balance and to the Platform
// Vault's ledger balance. The platform vault has no per-share accumulator
// (spec.md §3.1 tracks only reward_per_share).
func (e *Engine) creditPlatform(amount uint64) {
	e.pool.PlatformPoolBalance += amount
	e.ledger.Credit(e.vaults.Platform, amount)
}
