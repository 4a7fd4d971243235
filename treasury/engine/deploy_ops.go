package engine

import (
	"strconv"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// CreateDeployRequest implements `create_deploy_request` (spec.md §4.5).
// The off-chain collaborator has already verified the developer paid
// service_fee + monthly_fee*initial_months into the Reward Vault and
// platform_fee into the Platform Vault; this call only records the ledger
// effects. Per the deferred-credit decision (spec.md §9 point 4), the paid
// reward amount increases reward_pool_balance immediately but is only
// folded into reward_per_share once the request reaches Active.
func (e *Engine) CreateDeployRequest(admin types.Pubkey, programHash types.Hash, developer types.Pubkey, serviceFee, monthlyFee uint64, initialMonths uint32, deploymentCost, paidPlatform uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	if _, exists := e.deployRequests[programHash]; exists {
		return types.NewError(types.ErrKindInvalidStatus, "deploy request already exists for program_hash")
	}

	paidRewards := serviceFee + uint64(initialMonths)*monthlyFee

	if err := e.creditReward(paidRewards, false); err != nil {
		return err
	}
	e.creditPlatform(paidPlatform)

	req := &DeployRequest{
		Developer:            developer,
		ProgramHash:          programHash,
		ServiceFee:           serviceFee,
		MonthlyFee:           monthlyFee,
		InitialMonths:        initialMonths,
		DeploymentCost:       deploymentCost,
		SubscriptionPaidUntil: e.now().Unix() + int64(initialMonths)*SecondsPerMonth,
		Status:               StatusPendingDeployment,
		PendingRewardCredit:  paidRewards,
	}
	e.deployRequests[programHash] = req

	e.persistPool()
	e.persistDeployRequest(req)
	e.emit(events.KindDeployRequestCreated, map[string]string{
		"program_hash": programHash.Hex(),
		"developer":    developer.Hex(),
		"paid_rewards": strconv.FormatUint(paidRewards, 10),
		"paid_platform": strconv.FormatUint(paidPlatform, 10),
	})
	return nil
}

// FundTemporaryWallet implements `fund_temporary_wallet` (spec.md §4.5):
// advances cost from the Treasury Principal Vault to an ephemeral key. cost
// is not checked against the request's DeploymentCost.
func (e *Engine) FundTemporaryWallet(admin types.Pubkey, programHash types.Hash, ephemeralKey types.Pubkey, cost uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	req, ok := e.deployRequests[programHash]
	if !ok {
		return types.NewError(types.ErrKindInvalidStatus, "no deploy request for program_hash")
	}
	if req.Status != StatusPendingDeployment {
		return types.NewError(types.ErrKindInvalidStatus, "deploy request not PendingDeployment")
	}
	if cost > e.pool.LiquidBalance {
		return types.NewError(types.ErrKindInsufficientLiquidBalance, "cost exceeds liquid_balance")
	}

	if err := e.ledger.Transfer(e.vaults.Treasury, ephemeralKey, cost); err != nil {
		return err
	}

	e.pool.LiquidBalance -= cost
	e.pool.BorrowedAmount += cost
	req.EphemeralKey = ephemeralKey
	req.BorrowedAmount += cost

	e.persistPool()
	e.persistDeployRequest(req)
	e.emit(events.KindTemporaryWalletFunded, map[string]string{
		"program_hash":  programHash.Hex(),
		"ephemeral_key": ephemeralKey.Hex(),
		"cost":          strconv.FormatUint(cost, 10),
	})
	return nil
}

// ConfirmDeploymentSuccess implements `confirm_deployment_success`
// (spec.md §4.5): recovers funds from the ephemeral key, transitions the
// request to Active, and realizes its deferred reward credit into
// reward_per_share.
func (e *Engine) ConfirmDeploymentSuccess(admin types.Pubkey, programHash types.Hash, deployedProgramID types.Pubkey, recoveredFunds uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	req, ok := e.deployRequests[programHash]
	if !ok {
		return types.NewError(types.ErrKindInvalidStatus, "no deploy request for program_hash")
	}
	if err := transition(req.Status, StatusActive); err != nil {
		return err
	}
	if recoveredFunds > req.BorrowedAmount {
		return types.NewError(types.ErrKindInvalidAmount, "recovered_funds exceeds borrowed_amount")
	}

	if err := e.ledger.Transfer(req.EphemeralKey, e.vaults.Treasury, recoveredFunds); err != nil {
		return err
	}

	e.pool.LiquidBalance += recoveredFunds
	e.pool.BorrowedAmount -= req.BorrowedAmount
	req.BorrowedAmount = 0
	req.DeployedProgramID = deployedProgramID
	req.Status = StatusActive

	if req.PendingRewardCredit > 0 {
		if err := e.bumpRewardPerShare(req.PendingRewardCredit); err != nil {
			return err
		}
		req.PendingRewardCredit = 0
	}

	e.persistPool()
	e.persistDeployRequest(req)
	e.emit(events.KindDeploymentConfirmed, map[string]string{
		"program_hash":        programHash.Hex(),
		"deployed_program_id": deployedProgramID.Hex(),
		"recovered_funds":     strconv.FormatUint(recoveredFunds, 10),
	})
	return nil
}

// ConfirmDeploymentFailure implements `confirm_deployment_failure`
// (spec.md §4.5): fully refunds the developer and discards the deferred
// reward credit without ever having touched reward_per_share, so no
// rollback arithmetic is needed (spec.md §9 point 4).
func (e *Engine) ConfirmDeploymentFailure(admin types.Pubkey, programHash types.Hash, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(admin); err != nil {
		return err
	}
	req, ok := e.deployRequests[programHash]
	if !ok {
		return types.NewError(types.ErrKindInvalidStatus, "no deploy request for program_hash")
	}
	if err := transition(req.Status, StatusFailed); err != nil {
		return err
	}

	refund := req.ServiceFee + uint64(req.InitialMonths)*req.MonthlyFee
	if refund > e.pool.RewardPoolBalance {
		return types.NewError(types.ErrKindInsufficientRewardPoolBalance, "refund exceeds reward_pool_balance")
	}
	if err := e.ledger.Transfer(e.vaults.Reward, req.Developer, refund); err != nil {
		return err
	}
	e.pool.RewardPoolBalance -= refund

	if req.BorrowedAmount > 0 {
		if err := e.ledger.Transfer(req.EphemeralKey, e.vaults.Treasury, req.BorrowedAmount); err != nil {
			return err
		}
		e.pool.LiquidBalance += req.BorrowedAmount
		e.pool.BorrowedAmount -= req.BorrowedAmount
		req.BorrowedAmount = 0
	}

	req.PendingRewardCredit = 0
	req.Status = StatusFailed

	e.persistPool()
	e.persistDeployRequest(req)
	e.emit(events.KindDeploymentFailed, map[string]string{
		"program_hash": programHash.Hex(),
		"reason":       reason,
		"refund":       strconv.FormatUint(refund, 10),
	})
	return nil
}

// PaySubscription implements `pay_subscription` (spec.md §4.5). The
// developer is assumed to have already transferred monthly_fee*months into
// the Reward Vault off-chain; this call extends subscription_paid_until and
// immediately bumps reward_per_share, the same as any other live-fee-credit
// path (unlike the deferred create_deploy_request credit, a paid-up Active
// or SubscriptionExpired request is already earning its backers reward).
func (e *Engine) PaySubscription(developer types.Pubkey, programHash types.Hash, months uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireInitialized(); err != nil {
		return err
	}
	req, ok := e.deployRequests[programHash]
	if !ok {
		return types.NewError(types.ErrKindInvalidStatus, "no deploy request for program_hash")
	}
	if !req.Developer.Equal(developer) {
		return types.NewError(types.ErrKindUnauthorized, "signer is not the request's developer")
	}
	if req.Status != StatusActive && req.Status != StatusSubscriptionExpired {
		return types.NewError(types.ErrKindInvalidStatus, "subscription not payable in current status")
	}

	amount := uint64(months) * req.MonthlyFee
	if err := e.creditReward(amount, true); err != nil {
		return err
	}

	req.SubscriptionPaidUntil += int64(months) * SecondsPerMonth
	if req.Status == StatusSubscriptionExpired {
		req.Status = StatusActive
	}

	e.persistPool()
	e.persistDeployRequest(req)
	e.emit(events.KindSubscriptionPaid, map[string]string{
		"program_hash": programHash.Hex(),
		"months":       strconv.FormatUint(uint64(months), 10),
		"amount":       strconv.FormatUint(amount, 10),
	})
	return nil
}
