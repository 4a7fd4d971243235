package engine

import (
	"testing"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/store"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
	"github.com/SaitamaCoderVN/d2d-program/treasury/vault"
)

func TestRestoreResumesAfterRestart(t *testing.T) {
	dir := t.TempDir()
	vaults := vault.Vaults{
		Treasury: types.BytesToPubkey([]byte("treasury-vault")),
		Reward:   types.BytesToPubkey([]byte("reward-vault")),
		Platform: types.BytesToPubkey([]byte("platform-vault")),
	}
	backer := types.BytesToPubkey([]byte("backer-a"))
	developer := types.BytesToPubkey([]byte("developer"))
	admin := types.BytesToPubkey([]byte("admin"))
	const sol = 1_000_000_000

	db, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ledger := vault.NewLedger()
	ledger.Seed(backer, 10*sol)
	sink := events.NewSink()
	eng := New(vaults, ledger, sink)
	eng.AttachStore(db)

	if err := eng.Initialize(admin, types.BytesToPubkey([]byte("dev-wallet")), 500); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := eng.StakeSol(backer, 10*sol, 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := eng.CreditFeeToPool(admin, sol, 0); err != nil {
		t.Fatalf("credit: %v", err)
	}
	programHash := types.Keccak256Hash([]byte("program-1"))
	if err := eng.CreateDeployRequest(admin, programHash, developer, 0, 0, 0, 0, 0); err != nil {
		t.Fatalf("create_deploy_request: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := store.Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	restarted := New(vaults, vault.NewLedger(), events.NewSink())
	restarted.AttachStore(reopened)
	if err := restarted.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}

	pool := restarted.Pool()
	if !pool.Initialized {
		t.Fatalf("restored pool is not initialized")
	}
	if pool.TotalDeposited != 10*sol {
		t.Fatalf("total_deposited after restore = %d, want %d", pool.TotalDeposited, 10*sol)
	}
	if pool.RewardPoolBalance != sol {
		t.Fatalf("reward_pool_balance after restore = %d, want %d", pool.RewardPoolBalance, sol)
	}
	if !pool.RewardPerShare.IsUint64() || pool.RewardPerShare.Uint64() != Precision/10 { // 1e9 * PRECISION / 10e9
		t.Fatalf("reward_per_share after restore = %s", pool.RewardPerShare.String())
	}

	deposit, ok := restarted.Deposit(backer)
	if !ok {
		t.Fatalf("deposit not restored")
	}
	if deposit.DepositedAmount != 10*sol {
		t.Fatalf("deposited_amount after restore = %d, want %d", deposit.DepositedAmount, 10*sol)
	}

	req, ok := restarted.DeployRequest(programHash)
	if !ok || req.Status != StatusPendingDeployment {
		t.Fatalf("deploy request not restored correctly: ok=%v status=%v", ok, req.Status)
	}
}
