package engine

import (
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// Status is a DeployRequest lifecycle state, spec.md §4.5.
type Status uint8

const (
	StatusPendingDeployment Status = iota
	StatusActive
	StatusFailed
	StatusCancelled
	StatusSubscriptionExpired
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusPendingDeployment:
		return "PendingDeployment"
	case StatusActive:
		return "Active"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	case StatusSubscriptionExpired:
		return "SubscriptionExpired"
	case StatusSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// transition validates a status change against the diagram in spec.md §4.5,
// returning nil if the edge exists and InvalidStatus if it does not. It does
// not mutate status; callers assign the new Status themselves.
func transition(from, to Status) error {
	allowed := map[Status][]Status{
		StatusPendingDeployment: {StatusActive, StatusFailed, StatusCancelled},
		StatusActive:            {StatusSubscriptionExpired, StatusSuspended},
		StatusSubscriptionExpired: {StatusSuspended, StatusActive},
		StatusSuspended:         {StatusFailed},
	}
	for _, candidate := range allowed[from] {
		if candidate == to {
			return nil
		}
	}
	return types.NewError(types.ErrKindInvalidStatus, from.String()+" -> "+to.String())
}

// DeployRequest is the per-deployment record of spec.md §3.1, keyed by
// ProgramHash.
type DeployRequest struct {
	Developer      types.Pubkey
	ProgramHash    types.Hash
	ServiceFee     uint64
	MonthlyFee     uint64
	InitialMonths  uint32
	DeploymentCost uint64
	BorrowedAmount uint64

	EphemeralKey      types.Pubkey
	DeployedProgramID types.Pubkey

	SubscriptionPaidUntil int64
	Status                Status

	// PendingRewardCredit is the deferred-credit bucket of the Open
	// Question 4 decision (spec.md §9 point 4): the reward portion paid in
	// at create_deploy_request time that has not yet been folded into
	// TreasuryPool.RewardPerShare. pay_subscription does not use it; it
	// bumps RewardPerShare immediately. It is realized into the
	// accumulator only once the request reaches Active, and simply
	// discarded (refunded) on Failed, so no rollback arithmetic is ever
	// needed and RewardPerShare's monotonicity is never violated.
	PendingRewardCredit uint64
}
