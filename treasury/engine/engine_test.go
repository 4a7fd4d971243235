package engine

import (
	"testing"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
	"github.com/SaitamaCoderVN/d2d-program/treasury/vault"
)

func newTestEngine(t *testing.T) (*Engine, *vault.Ledger) {
	t.Helper()
	vaults := vault.Vaults{
		Treasury: types.BytesToPubkey([]byte("treasury-vault")),
		Reward:   types.BytesToPubkey([]byte("reward-vault")),
		Platform: types.BytesToPubkey([]byte("platform-vault")),
	}
	ledger := vault.NewLedger()
	sink := events.NewSink()
	eng := New(vaults, ledger, sink)

	admin := types.BytesToPubkey([]byte("admin"))
	devWallet := types.BytesToPubkey([]byte("dev-wallet"))
	if err := eng.Initialize(admin, devWallet, 500); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return eng, ledger
}

func adminPubkey() types.Pubkey {
	return types.BytesToPubkey([]byte("admin"))
}

// S1 — two-backer proportional distribution (spec.md §8 scenario S1).
func TestTwoBackerProportionalDistribution(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backerA := types.BytesToPubkey([]byte("backer-a"))
	backerB := types.BytesToPubkey([]byte("backer-b"))

	const sol = 1_000_000_000
	ledger.Seed(backerA, 10*sol)
	ledger.Seed(backerB, 5 * sol)

	if err := eng.StakeSol(backerA, 10*sol, 0); err != nil {
		t.Fatalf("stake A: %v", err)
	}
	if err := eng.StakeSol(backerB, 5*sol, 0); err != nil {
		t.Fatalf("stake B: %v", err)
	}

	pool := eng.Pool()
	if pool.TotalDeposited != 15*sol {
		t.Fatalf("total_deposited = %d, want %d", pool.TotalDeposited, 15*sol)
	}

	admin := adminPubkey()
	if err := eng.CreditFeeToPool(admin, 1_500_000_000, 150_000_000); err != nil {
		t.Fatalf("credit_fee_to_pool: %v", err)
	}

	pool = eng.Pool()
	wantRPS := Precision / 10 // 1.5e9 * PRECISION / 15e9 = 1e11
	if !pool.RewardPerShare.IsUint64() || pool.RewardPerShare.Uint64() != wantRPS {
		t.Fatalf("reward_per_share = %s, want %d", pool.RewardPerShare.String(), wantRPS)
	}

	depositA, _ := eng.Deposit(backerA)
	claimableA, err := depositA.Claimable(&pool)
	if err != nil {
		t.Fatalf("claimable A: %v", err)
	}
	if claimableA != sol {
		t.Fatalf("claimable A = %d, want %d", claimableA, sol)
	}

	depositB, _ := eng.Deposit(backerB)
	claimableB, err := depositB.Claimable(&pool)
	if err != nil {
		t.Fatalf("claimable B: %v", err)
	}
	if claimableB != sol/2 {
		t.Fatalf("claimable B = %d, want %d", claimableB, sol/2)
	}

	if _, err := eng.ClaimRewards(backerA); err != nil {
		t.Fatalf("claim A: %v", err)
	}
	if _, err := eng.ClaimRewards(backerB); err != nil {
		t.Fatalf("claim B: %v", err)
	}

	pool = eng.Pool()
	if pool.RewardPoolBalance != 0 {
		t.Fatalf("reward_pool_balance = %d, want 0", pool.RewardPoolBalance)
	}
}

// S2 — stake-change does not forfeit pending rewards, per the Open
// Question 3 decision (non-forfeiting pre-settlement).
func TestStakeChangeDoesNotForfeitPending(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backer := types.BytesToPubkey([]byte("backer-a"))
	const sol = 1_000_000_000
	ledger.Seed(backer, 20*sol)

	if err := eng.StakeSol(backer, 10*sol, 0); err != nil {
		t.Fatalf("stake 1: %v", err)
	}
	admin := adminPubkey()
	if err := eng.CreditFeeToPool(admin, sol, 0); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := eng.StakeSol(backer, 10*sol, 0); err != nil {
		t.Fatalf("stake 2: %v", err)
	}

	pool := eng.Pool()
	deposit, _ := eng.Deposit(backer)
	claimable, err := deposit.Claimable(&pool)
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	if claimable != sol {
		t.Fatalf("claimable after second stake = %d, want %d (pending rewards must not be forfeited)", claimable, sol)
	}
}

// S3 — a failed deployment refunds in full and never advances
// reward_per_share (the deferred-credit decision for Open Question 4).
func TestFailedDeploymentRefundsInFull(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backer := types.BytesToPubkey([]byte("backer-a"))
	developer := types.BytesToPubkey([]byte("developer"))
	const sol = 1_000_000_000
	ledger.Seed(backer, 100*sol)

	if err := eng.StakeSol(backer, 100*sol, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}

	admin := adminPubkey()
	programHash := types.Keccak256Hash([]byte("program-1"))
	if err := eng.CreateDeployRequest(admin, programHash, developer, 5*sol, 3*sol, 1, 10*sol, 0); err != nil {
		t.Fatalf("create_deploy_request: %v", err)
	}

	poolBefore := eng.Pool()
	if !poolBefore.RewardPerShare.IsZero() {
		t.Fatalf("reward_per_share advanced before confirm_deployment_success: %s", poolBefore.RewardPerShare.String())
	}

	ephemeral := types.BytesToPubkey([]byte("ephemeral-1"))
	if err := eng.FundTemporaryWallet(admin, programHash, ephemeral, 10*sol); err != nil {
		t.Fatalf("fund_temporary_wallet: %v", err)
	}
	liquidAfterFund := eng.Pool().LiquidBalance
	if liquidAfterFund != 90*sol {
		t.Fatalf("liquid_balance after funding = %d, want %d", liquidAfterFund, 90*sol)
	}

	devBalanceBefore := ledger.Balance(developer)
	if err := eng.ConfirmDeploymentFailure(admin, programHash, "compilation error"); err != nil {
		t.Fatalf("confirm_deployment_failure: %v", err)
	}

	pool := eng.Pool()
	if pool.LiquidBalance != 100*sol {
		t.Fatalf("liquid_balance after failure = %d, want restored to %d", pool.LiquidBalance, 100*sol)
	}
	if pool.RewardPoolBalance != 0 {
		t.Fatalf("reward_pool_balance after failure = %d, want 0", pool.RewardPoolBalance)
	}
	if !pool.RewardPerShare.IsZero() {
		t.Fatalf("reward_per_share must never have been advanced: %s", pool.RewardPerShare.String())
	}
	devBalanceAfter := ledger.Balance(developer)
	if devBalanceAfter-devBalanceBefore != 8*sol {
		t.Fatalf("developer refund = %d, want %d", devBalanceAfter-devBalanceBefore, 8*sol)
	}

	req, ok := eng.DeployRequest(programHash)
	if !ok || req.Status != StatusFailed {
		t.Fatalf("status = %v, want Failed", req.Status)
	}
}

// S4 — unstake is blocked by outstanding borrow against liquid_balance.
func TestUnstakeBlockedByOutstandingBorrow(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backerA := types.BytesToPubkey([]byte("backer-a"))
	backerB := types.BytesToPubkey([]byte("backer-b"))
	developer := types.BytesToPubkey([]byte("developer"))
	const sol = 1_000_000_000
	ledger.Seed(backerA, 50*sol)
	ledger.Seed(backerB, 50*sol)

	if err := eng.StakeSol(backerA, 50*sol, 0); err != nil {
		t.Fatalf("stake A: %v", err)
	}
	if err := eng.StakeSol(backerB, 50*sol, 0); err != nil {
		t.Fatalf("stake B: %v", err)
	}

	admin := adminPubkey()
	programHash := types.Keccak256Hash([]byte("program-2"))
	if err := eng.CreateDeployRequest(admin, programHash, developer, 0, 0, 0, 80*sol, 0); err != nil {
		t.Fatalf("create_deploy_request: %v", err)
	}
	ephemeral := types.BytesToPubkey([]byte("ephemeral-2"))
	if err := eng.FundTemporaryWallet(admin, programHash, ephemeral, 80*sol); err != nil {
		t.Fatalf("fund_temporary_wallet: %v", err)
	}

	pool := eng.Pool()
	if pool.LiquidBalance != 20*sol || pool.BorrowedAmount != 80*sol {
		t.Fatalf("liquid_balance=%d borrowed_amount=%d, want 20e9/80e9", pool.LiquidBalance, pool.BorrowedAmount)
	}

	if err := eng.UnstakeSol(backerA, 30*sol); types.KindOf(err) != types.ErrKindInsufficientLiquidBalance {
		t.Fatalf("unstake(30) err = %v, want InsufficientLiquidBalance", err)
	}
	if err := eng.UnstakeSol(backerA, 20*sol); err != nil {
		t.Fatalf("unstake(20) should succeed: %v", err)
	}
}

// S5 — a fee credit with zero deposits must not panic and must not advance
// reward_per_share (spec.md §4.1's division-by-zero guard).
func TestDivisionByZeroGuard(t *testing.T) {
	eng, _ := newTestEngine(t)
	admin := adminPubkey()

	if err := eng.CreditFeeToPool(admin, 1_000_000_000, 0); err != nil {
		t.Fatalf("credit_fee_to_pool: %v", err)
	}

	pool := eng.Pool()
	if !pool.RewardPerShare.IsZero() {
		t.Fatalf("reward_per_share = %s, want 0", pool.RewardPerShare.String())
	}
	if pool.RewardPoolBalance != 1_000_000_000 {
		t.Fatalf("reward_pool_balance = %d, want 1e9", pool.RewardPoolBalance)
	}
}

// S6 — a second initialize fails with AlreadyInitialized.
func TestIdempotentInitialize(t *testing.T) {
	eng, _ := newTestEngine(t)
	err := eng.Initialize(adminPubkey(), types.BytesToPubkey([]byte("dev-wallet")), 0)
	if types.KindOf(err) != types.ErrKindAlreadyInitialized {
		t.Fatalf("second initialize err = %v, want AlreadyInitialized", err)
	}
}

func TestStakeRejectedWhilePaused(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backer := types.BytesToPubkey([]byte("backer-a"))
	ledger.Seed(backer, 1_000_000_000)

	if err := eng.EmergencyPause(adminPubkey(), true); err != nil {
		t.Fatalf("emergency_pause: %v", err)
	}
	if err := eng.StakeSol(backer, 1_000_000_000, 0); types.KindOf(err) != types.ErrKindEmergencyPauseActive {
		t.Fatalf("stake_sol during pause err = %v, want EmergencyPauseActive", err)
	}
}

func TestClaimRewardsNoneToClaimFails(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backer := types.BytesToPubkey([]byte("backer-a"))
	ledger.Seed(backer, 1_000_000_000)
	if err := eng.StakeSol(backer, 1_000_000_000, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := eng.ClaimRewards(backer); types.KindOf(err) != types.ErrKindNoRewardsToClaim {
		t.Fatalf("claim with nothing accrued err = %v, want NoRewardsToClaim", err)
	}
}

func TestAdminWithdrawRewardPoolIsBreakGlass(t *testing.T) {
	eng, ledger := newTestEngine(t)
	backer := types.BytesToPubkey([]byte("backer-a"))
	ledger.Seed(backer, 10_000_000_000)
	if err := eng.StakeSol(backer, 10_000_000_000, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	admin := adminPubkey()
	if err := eng.CreditFeeToPool(admin, 1_000_000_000, 0); err != nil {
		t.Fatalf("credit: %v", err)
	}

	recipient := types.BytesToPubkey([]byte("ops-wallet"))
	if err := eng.AdminWithdrawRewardPool(admin, recipient, 1_000_000_000, "incident response"); err != nil {
		t.Fatalf("admin_withdraw_reward_pool: %v", err)
	}

	pool := eng.Pool()
	if pool.RewardPoolBalance != 0 {
		t.Fatalf("reward_pool_balance = %d, want 0", pool.RewardPoolBalance)
	}

	deposit, _ := eng.Deposit(backer)
	claimable, err := deposit.Claimable(&pool)
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	if claimable == 0 {
		t.Fatalf("backer should still show nonzero claimable even though the reward pool was drained (that is the documented break-glass hazard)")
	}
	if _, err := eng.ClaimRewards(backer); types.KindOf(err) != types.ErrKindInsufficientRewardPoolBalance {
		t.Fatalf("claim after break-glass drain err = %v, want InsufficientRewardPoolBalance", err)
	}
}
