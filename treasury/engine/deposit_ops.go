package engine

import (
	"strconv"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// StakeSol implements `stake_sol` (spec.md §4.2). lockPeriod is recorded as
// metadata only; the core never enforces it (spec.md §1 Non-goals).
func (e *Engine) StakeSol(backer types.Pubkey, amount uint64, lockPeriod int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if amount == 0 {
		return types.NewError(types.ErrKindInvalidAmount, "amount must be greater than zero")
	}
	if err := e.ledger.Debit(backer, amount); err != nil {
		return err
	}

	deposit, ok := e.deposits[backer]
	if !ok {
		deposit = newBackerDeposit(backer)
		e.deposits[backer] = deposit
	} else if err := deposit.settle(e.pool); err != nil {
		e.ledger.Credit(backer, amount)
		return err
	}

	// Open Question 1 (spec.md §9): the deposit lands in the program-owned
	// Treasury Principal Vault, never in dev_wallet.
	e.ledger.Credit(e.vaults.Treasury, amount)

	e.pool.TotalDeposited += amount
	e.pool.LiquidBalance += amount
	deposit.DepositedAmount += amount
	deposit.IsActive = true

	debt, err := snapshotDebt(deposit.DepositedAmount, e.pool.RewardPerShare)
	if err != nil {
		return err
	}
	deposit.RewardDebt = debt

	e.persistPool()
	e.persistDeposit(deposit)
	e.emit(events.KindSolStaked, map[string]string{
		"backer":       backer.Hex(),
		"amount":       strconv.FormatUint(amount, 10),
		"new_total":    strconv.FormatUint(e.pool.TotalDeposited, 10),
		"lock_period":  strconv.FormatInt(lockPeriod, 10),
	})
	return nil
}

// UnstakeSol implements `unstake_sol` (spec.md §4.3).
func (e *Engine) UnstakeSol(backer types.Pubkey, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if amount == 0 {
		return types.NewError(types.ErrKindInvalidAmount, "amount must be greater than zero")
	}
	deposit, ok := e.deposits[backer]
	if !ok || amount > deposit.DepositedAmount {
		return types.NewError(types.ErrKindInsufficientDeposit, "amount exceeds deposited_amount")
	}
	if amount > e.pool.LiquidBalance {
		return types.NewError(types.ErrKindInsufficientLiquidBalance, "amount exceeds liquid_balance")
	}

	if err := deposit.settle(e.pool); err != nil {
		return err
	}

	if err := e.ledger.Transfer(e.vaults.Treasury, backer, amount); err != nil {
		return err
	}

	deposit.DepositedAmount -= amount
	e.pool.TotalDeposited -= amount
	e.pool.LiquidBalance -= amount
	if deposit.DepositedAmount == 0 {
		deposit.IsActive = false
	}

	debt, err := snapshotDebt(deposit.DepositedAmount, e.pool.RewardPerShare)
	if err != nil {
		return err
	}
	deposit.RewardDebt = debt

	e.persistPool()
	e.persistDeposit(deposit)
	e.emit(events.KindSolUnstaked, map[string]string{
		"backer":    backer.Hex(),
		"amount":    strconv.FormatUint(amount, 10),
		"new_total": strconv.FormatUint(e.pool.TotalDeposited, 10),
	})
	return nil
}

// ClaimRewards implements `claim_rewards` (spec.md §4.4). It first settles
// any unrealized accrual into PendingRewards, then pays out the whole
// pending bucket.
func (e *Engine) ClaimRewards(backer types.Pubkey) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return 0, err
	}
	if err := e.requireNotPaused(); err != nil {
		return 0, err
	}
	deposit, ok := e.deposits[backer]
	if !ok {
		return 0, types.NewError(types.ErrKindNoRewardsToClaim, "no deposit on record")
	}
	if err := deposit.settle(e.pool); err != nil {
		return 0, err
	}

	claimable := deposit.PendingRewards
	if claimable == 0 {
		return 0, types.NewError(types.ErrKindNoRewardsToClaim, "nothing to claim")
	}
	if claimable > e.pool.RewardPoolBalance {
		return 0, types.NewError(types.ErrKindInsufficientRewardPoolBalance, "claimable exceeds reward pool balance")
	}

	if err := e.ledger.Transfer(e.vaults.Reward, backer, claimable); err != nil {
		return 0, err
	}

	e.pool.RewardPoolBalance -= claimable
	deposit.PendingRewards = 0
	deposit.ClaimedTotal += claimable

	e.persistPool()
	e.persistDeposit(deposit)
	e.emit(events.KindClaimed, map[string]string{
		"backer":    backer.Hex(),
		"claimable": strconv.FormatUint(claimable, 10),
	})
	return claimable, nil
}
