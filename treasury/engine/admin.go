package engine

import (
	"strconv"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// CreditFeeToPool implements `credit_fee_to_pool` (spec.md §4.6): the raw
// fee-credit interface, identical arithmetic to the deploy/subscription
// paths, exposed directly for callers (or tests) that want to credit
// revenue without going through the deploy-funding state machine.
func (e *Engine) CreditFeeToPool(admin types.Pubkey, feeReward, feePlatform uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}

	if err := e.creditReward(feeReward, true); err != nil {
		return err
	}
	e.creditPlatform(feePlatform)

	e.persistPool()
	e.emit(events.KindFeeCredited, map[string]string{
		"fee_reward":   strconv.FormatUint(feeReward, 10),
		"fee_platform": strconv.FormatUint(feePlatform, 10),
	})
	return nil
}

// EmergencyPause implements `emergency_pause` (spec.md §4.6).
func (e *Engine) EmergencyPause(admin types.Pubkey, flag bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	e.pool.EmergencyPause = flag
	e.persistPool()
	e.emit(events.KindEmergencyPauseToggled, map[string]string{
		"flag": strconv.FormatBool(flag),
	})
	return nil
}

// UpdateApy implements `update_apy` (spec.md §4.6): metadata only, not
// consumed by the distribution math (spec.md §1 Non-goals: no APY-based
// time accrual).
func (e *Engine) UpdateApy(admin types.Pubkey, bps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	if bps > MaxApyBps {
		return types.NewError(types.ErrKindInvalidApy, "bps exceeds MAX_APY_BPS")
	}
	e.pool.CurrentApyBps = bps
	e.persistPool()
	return nil
}

// AdminWithdrawPlatform implements `admin_withdraw_platform` (spec.md §4.6):
// bounded by platform_pool_balance.
func (e *Engine) AdminWithdrawPlatform(admin, recipient types.Pubkey, amount uint64, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	if amount > e.pool.PlatformPoolBalance {
		return types.NewError(types.ErrKindInsufficientPlatformPoolBalance, "amount exceeds platform_pool_balance")
	}
	if err := e.ledger.Transfer(e.vaults.Platform, recipient, amount); err != nil {
		return err
	}
	e.pool.PlatformPoolBalance -= amount

	e.persistPool()
	e.emit(events.KindAdminWithdraw, map[string]string{
		"pool":      "platform",
		"recipient": recipient.Hex(),
		"amount":    strconv.FormatUint(amount, 10),
		"reason":    reason,
	})
	return nil
}

// AdminWithdrawRewardPool implements `admin_withdraw_reward_pool`
// (spec.md §4.6). This is a break-glass operation (spec.md §9 point 5): it
// is bounded only by reward_pool_balance, not by aggregate backer
// claimable, so it can violate invariant 4 in the general case. The engine
// does not block it; it always emits AdminWithdraw so the violation is at
// least auditable.
func (e *Engine) AdminWithdrawRewardPool(admin, recipient types.Pubkey, amount uint64, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	if amount > e.pool.RewardPoolBalance {
		return types.NewError(types.ErrKindInsufficientRewardPoolBalance, "amount exceeds reward_pool_balance")
	}
	if err := e.ledger.Transfer(e.vaults.Reward, recipient, amount); err != nil {
		return err
	}
	e.pool.RewardPoolBalance -= amount

	e.persistPool()
	e.emit(events.KindAdminWithdraw, map[string]string{
		"pool":      "reward",
		"recipient": recipient.Hex(),
		"amount":    strconv.FormatUint(amount, 10),
		"reason":    reason,
	})
	return nil
}

// SuspendExpiredPrograms implements `suspend_expired_programs`
// (spec.md §4.6): batch-transitions Active → Suspended for every hash whose
// subscription_paid_until has lapsed. Hashes that are not found, or are not
// Active, or have not lapsed, are skipped rather than failing the whole
// batch, the way a maintenance sweep should not abort on one stale entry.
func (e *Engine) SuspendExpiredPrograms(admin types.Pubkey, hashes []types.Hash) []types.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return nil
	}
	if err := e.requireAdmin(admin); err != nil {
		return nil
	}

	now := e.now().Unix()
	var suspended []types.Hash
	for _, h := range hashes {
		req, ok := e.deployRequests[h]
		if !ok || req.Status != StatusActive || now <= req.SubscriptionPaidUntil {
			continue
		}
		req.Status = StatusSuspended
		e.persistDeployRequest(req)
		suspended = append(suspended, h)
	}
	return suspended
}
