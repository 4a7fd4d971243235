package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// registerMethods wires every instruction of spec.md §6 to a JSON-RPC
// method name matching the instruction name verbatim.
func (s *Server) registerMethods() {
	s.methods["initialize"] = s.rpcInitialize
	s.methods["stake_sol"] = s.rpcStakeSol
	s.methods["unstake_sol"] = s.rpcUnstakeSol
	s.methods["claim_rewards"] = s.rpcClaimRewards
	s.methods["credit_fee_to_pool"] = s.rpcCreditFeeToPool
	s.methods["create_deploy_request"] = s.rpcCreateDeployRequest
	s.methods["fund_temporary_wallet"] = s.rpcFundTemporaryWallet
	s.methods["confirm_deployment_success"] = s.rpcConfirmDeploymentSuccess
	s.methods["confirm_deployment_failure"] = s.rpcConfirmDeploymentFailure
	s.methods["pay_subscription"] = s.rpcPaySubscription
	s.methods["emergency_pause"] = s.rpcEmergencyPause
	s.methods["update_apy"] = s.rpcUpdateApy
	s.methods["admin_withdraw_platform"] = s.rpcAdminWithdrawPlatform
	s.methods["admin_withdraw_reward_pool"] = s.rpcAdminWithdrawRewardPool
	s.methods["suspend_expired_programs"] = s.rpcSuspendExpiredPrograms
	s.methods["get_pool"] = s.rpcGetPool
	s.methods["get_deposit"] = s.rpcGetDeposit
	s.methods["get_deploy_request"] = s.rpcGetDeployRequest
}

func unmarshalParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

type initializeParams struct {
	Admin         string `json:"admin"`
	DevWallet     string `json:"dev_wallet"`
	InitialApyBps uint64 `json:"initial_apy_bps"`
}

func (s *Server) rpcInitialize(raw json.RawMessage) (interface{}, error) {
	var p initializeParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	devWallet, err := types.HexToPubkey(p.DevWallet)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Initialize(admin, devWallet, p.InitialApyBps); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type stakeSolParams struct {
	Backer     string `json:"backer"`
	Amount     uint64 `json:"amount"`
	LockPeriod int64  `json:"lock_period"`
}

func (s *Server) rpcStakeSol(raw json.RawMessage) (interface{}, error) {
	var p stakeSolParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	backer, err := types.HexToPubkey(p.Backer)
	if err != nil {
		return nil, err
	}
	if err := s.engine.StakeSol(backer, p.Amount, p.LockPeriod); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type unstakeSolParams struct {
	Backer string `json:"backer"`
	Amount uint64 `json:"amount"`
}

func (s *Server) rpcUnstakeSol(raw json.RawMessage) (interface{}, error) {
	var p unstakeSolParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	backer, err := types.HexToPubkey(p.Backer)
	if err != nil {
		return nil, err
	}
	if err := s.engine.UnstakeSol(backer, p.Amount); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type claimRewardsParams struct {
	Backer string `json:"backer"`
}

func (s *Server) rpcClaimRewards(raw json.RawMessage) (interface{}, error) {
	var p claimRewardsParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	backer, err := types.HexToPubkey(p.Backer)
	if err != nil {
		return nil, err
	}
	claimed, err := s.engine.ClaimRewards(backer)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"claimed": claimed}, nil
}

type creditFeeParams struct {
	Admin       string `json:"admin"`
	FeeReward   uint64 `json:"fee_reward"`
	FeePlatform uint64 `json:"fee_platform"`
}

func (s *Server) rpcCreditFeeToPool(raw json.RawMessage) (interface{}, error) {
	var p creditFeeParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CreditFeeToPool(admin, p.FeeReward, p.FeePlatform); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type createDeployRequestParams struct {
	Admin          string `json:"admin"`
	ProgramHash    string `json:"program_hash"`
	Developer      string `json:"developer"`
	ServiceFee     uint64 `json:"service_fee"`
	MonthlyFee     uint64 `json:"monthly_fee"`
	InitialMonths  uint32 `json:"initial_months"`
	DeploymentCost uint64 `json:"deployment_cost"`
	PaidPlatform   uint64 `json:"paid_platform"`
}

func (s *Server) rpcCreateDeployRequest(raw json.RawMessage) (interface{}, error) {
	var p createDeployRequestParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	developer, err := types.HexToPubkey(p.Developer)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CreateDeployRequest(admin, programHash, developer, p.ServiceFee, p.MonthlyFee, p.InitialMonths, p.DeploymentCost, p.PaidPlatform); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type fundTemporaryWalletParams struct {
	Admin        string `json:"admin"`
	ProgramHash  string `json:"program_hash"`
	EphemeralKey string `json:"ephemeral_key"`
	Cost         uint64 `json:"cost"`
}

func (s *Server) rpcFundTemporaryWallet(raw json.RawMessage) (interface{}, error) {
	var p fundTemporaryWalletParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	ephemeralKey, err := types.HexToPubkey(p.EphemeralKey)
	if err != nil {
		return nil, err
	}
	if err := s.engine.FundTemporaryWallet(admin, programHash, ephemeralKey, p.Cost); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type confirmDeploymentSuccessParams struct {
	Admin              string `json:"admin"`
	ProgramHash        string `json:"program_hash"`
	DeployedProgramID  string `json:"deployed_program_id"`
	RecoveredFunds     uint64 `json:"recovered_funds"`
}

func (s *Server) rpcConfirmDeploymentSuccess(raw json.RawMessage) (interface{}, error) {
	var p confirmDeploymentSuccessParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	deployedProgramID, err := types.HexToPubkey(p.DeployedProgramID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ConfirmDeploymentSuccess(admin, programHash, deployedProgramID, p.RecoveredFunds); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type confirmDeploymentFailureParams struct {
	Admin       string `json:"admin"`
	ProgramHash string `json:"program_hash"`
	Reason      string `json:"reason"`
}

func (s *Server) rpcConfirmDeploymentFailure(raw json.RawMessage) (interface{}, error) {
	var p confirmDeploymentFailureParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ConfirmDeploymentFailure(admin, programHash, p.Reason); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type paySubscriptionParams struct {
	Developer   string `json:"developer"`
	ProgramHash string `json:"program_hash"`
	Months      uint32 `json:"months"`
}

func (s *Server) rpcPaySubscription(raw json.RawMessage) (interface{}, error) {
	var p paySubscriptionParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	developer, err := types.HexToPubkey(p.Developer)
	if err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	if err := s.engine.PaySubscription(developer, programHash, p.Months); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type emergencyPauseParams struct {
	Admin string `json:"admin"`
	Flag  bool   `json:"flag"`
}

func (s *Server) rpcEmergencyPause(raw json.RawMessage) (interface{}, error) {
	var p emergencyPauseParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	if err := s.engine.EmergencyPause(admin, p.Flag); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type updateApyParams struct {
	Admin string `json:"admin"`
	Bps   uint64 `json:"bps"`
}

func (s *Server) rpcUpdateApy(raw json.RawMessage) (interface{}, error) {
	var p updateApyParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	if err := s.engine.UpdateApy(admin, p.Bps); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type adminWithdrawParams struct {
	Admin     string `json:"admin"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Reason    string `json:"reason"`
}

func (s *Server) rpcAdminWithdrawPlatform(raw json.RawMessage) (interface{}, error) {
	var p adminWithdrawParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	recipient, err := types.HexToPubkey(p.Recipient)
	if err != nil {
		return nil, err
	}
	if err := s.engine.AdminWithdrawPlatform(admin, recipient, p.Amount, p.Reason); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) rpcAdminWithdrawRewardPool(raw json.RawMessage) (interface{}, error) {
	var p adminWithdrawParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	recipient, err := types.HexToPubkey(p.Recipient)
	if err != nil {
		return nil, err
	}
	if err := s.engine.AdminWithdrawRewardPool(admin, recipient, p.Amount, p.Reason); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type suspendExpiredProgramsParams struct {
	Admin  string   `json:"admin"`
	Hashes []string `json:"hashes"`
}

func (s *Server) rpcSuspendExpiredPrograms(raw json.RawMessage) (interface{}, error) {
	var p suspendExpiredProgramsParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	admin, err := types.HexToPubkey(p.Admin)
	if err != nil {
		return nil, err
	}
	hashes := make([]types.Hash, 0, len(p.Hashes))
	for _, h := range p.Hashes {
		parsed, err := types.HexToHash(h)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, parsed)
	}
	suspended := s.engine.SuspendExpiredPrograms(admin, hashes)
	out := make([]string, 0, len(suspended))
	for _, h := range suspended {
		out = append(out, h.Hex())
	}
	return map[string][]string{"suspended": out}, nil
}

func (s *Server) rpcGetPool(raw json.RawMessage) (interface{}, error) {
	pool := s.engine.Pool()
	rewardPerShare := "0"
	if pool.RewardPerShare != nil {
		rewardPerShare = pool.RewardPerShare.String()
	}
	return map[string]interface{}{
		"admin":                 pool.Admin.Hex(),
		"dev_wallet":            pool.DevWallet.Hex(),
		"reward_per_share":      rewardPerShare,
		"total_deposited":       pool.TotalDeposited,
		"liquid_balance":        pool.LiquidBalance,
		"borrowed_amount":       pool.BorrowedAmount,
		"reward_pool_balance":   pool.RewardPoolBalance,
		"platform_pool_balance": pool.PlatformPoolBalance,
		"emergency_pause":       pool.EmergencyPause,
		"current_apy_bps":       pool.CurrentApyBps,
		"initialized":           pool.Initialized,
	}, nil
}

type getDepositParams struct {
	Backer string `json:"backer"`
}

func (s *Server) rpcGetDeposit(raw json.RawMessage) (interface{}, error) {
	var p getDepositParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	backer, err := types.HexToPubkey(p.Backer)
	if err != nil {
		return nil, err
	}
	deposit, ok := s.engine.Deposit(backer)
	if !ok {
		return nil, fmt.Errorf("no deposit on record for backer")
	}
	rewardDebt := "0"
	if deposit.RewardDebt != nil {
		rewardDebt = deposit.RewardDebt.String()
	}
	return map[string]interface{}{
		"backer":          deposit.Backer.Hex(),
		"deposited_amount": deposit.DepositedAmount,
		"reward_debt":     rewardDebt,
		"pending_rewards": deposit.PendingRewards,
		"claimed_total":   deposit.ClaimedTotal,
		"is_active":       deposit.IsActive,
	}, nil
}

type getDeployRequestParams struct {
	ProgramHash string `json:"program_hash"`
}

func (s *Server) rpcGetDeployRequest(raw json.RawMessage) (interface{}, error) {
	var p getDeployRequestParams
	if err := unmarshalParams(raw, &p); err != nil {
		return nil, err
	}
	programHash, err := types.HexToHash(p.ProgramHash)
	if err != nil {
		return nil, err
	}
	req, ok := s.engine.DeployRequest(programHash)
	if !ok {
		return nil, fmt.Errorf("no deploy request for program_hash")
	}
	return map[string]interface{}{
		"developer":               req.Developer.Hex(),
		"program_hash":            req.ProgramHash.Hex(),
		"service_fee":             req.ServiceFee,
		"monthly_fee":             req.MonthlyFee,
		"initial_months":          req.InitialMonths,
		"deployment_cost":         req.DeploymentCost,
		"borrowed_amount":         req.BorrowedAmount,
		"ephemeral_key":           req.EphemeralKey.Hex(),
		"deployed_program_id":     req.DeployedProgramID.Hex(),
		"subscription_paid_until": req.SubscriptionPaidUntil,
		"status":                  req.Status.String(),
		"pending_reward_credit":   req.PendingRewardCredit,
	}, nil
}
