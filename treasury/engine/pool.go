package engine

import (
	"github.com/holiman/uint256"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// TreasuryPool is the singleton aggregate named in spec.md §2 component C and
// §3.1: admin identity, the fixed-point reward accumulator, and the three
// tracked pool balances every other component reconciles against.
type TreasuryPool struct {
	Admin     types.Pubkey
	DevWallet types.Pubkey

	// RewardPerShare is scaled by Precision (spec.md §4.1) and is
	// monotonically non-decreasing (invariant 2).
	RewardPerShare *uint256.Int

	TotalDeposited      uint64
	LiquidBalance       uint64
	BorrowedAmount      uint64
	RewardPoolBalance   uint64
	PlatformPoolBalance uint64

	EmergencyPause bool
	CurrentApyBps  uint64

	Initialized bool
}

// NewTreasuryPool returns a zeroed, uninitialized pool. Initialize must be
// called before any other operation runs against it.
func NewTreasuryPool() *TreasuryPool {
	return &TreasuryPool{RewardPerShare: uint256.NewInt(0)}
}

// BackerDeposit is the per-backer ledger entry of spec.md §3.1. PendingRewards
// is the carry-forward bucket decided in the pre-settlement open question
// (spec.md §9 point 3): a stake-size change credits any
// already-accrued claimable here instead of silently forfeiting it by
// re-snapshotting reward_debt against the new size.
type BackerDeposit struct {
	Backer         types.Pubkey
	DepositedAmount uint64
	RewardDebt     *uint256.Int
	PendingRewards uint64
	ClaimedTotal   uint64
	IsActive       bool
}

func newBackerDeposit(backer types.Pubkey) *BackerDeposit {
	return &BackerDeposit{Backer: backer, RewardDebt: uint256.NewInt(0)}
}

// Claimable computes this backer's currently realizable reward, including
// anything already carried in PendingRewards, against the pool's current
// RewardPerShare.
func (d *BackerDeposit) Claimable(pool *TreasuryPool) (uint64, error) {
	fromAccumulator, err := claimableOf(d.DepositedAmount, pool.RewardPerShare, d.RewardDebt)
	if err != nil {
		return 0, err
	}
	total := fromAccumulator + d.PendingRewards
	if total < fromAccumulator {
		return 0, types.NewError(types.ErrKindMathOverflow, "claimable overflow")
	}
	return total, nil
}

// settle folds the currently accrued (but not yet debt-snapshotted) reward
// into PendingRewards and re-snapshots RewardDebt at the deposit's current
// size. Every mutation of DepositedAmount, and claim_rewards itself, must
// call settle first so invariant 3 (claimable never negative) and the
// non-forfeiting pre-settlement decision both hold.
func (d *BackerDeposit) settle(pool *TreasuryPool) error {
	accrued, err := claimableOf(d.DepositedAmount, pool.RewardPerShare, d.RewardDebt)
	if err != nil {
		return err
	}
	newPending := d.PendingRewards + accrued
	if newPending < d.PendingRewards {
		return types.NewError(types.ErrKindMathOverflow, "pending rewards overflow")
	}
	d.PendingRewards = newPending
	debt, err := snapshotDebt(d.DepositedAmount, pool.RewardPerShare)
	if err != nil {
		return err
	}
	d.RewardDebt = debt
	return nil
}
