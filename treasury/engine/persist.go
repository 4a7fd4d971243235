package engine

import (
	"encoding/json"
	"log"

	"github.com/holiman/uint256"

	"github.com/SaitamaCoderVN/d2d-program/treasury/store"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// poolRecord is TreasuryPool's on-disk shape. RewardPerShare is carried as a
// decimal string: encoding/json's reflection-based codec cannot see into
// uint256.Int's unexported limbs, so the accumulator is round-tripped through
// its own String()/FromDecimal the same way it is already rendered in error
// messages and test assertions.
type poolRecord struct {
	Admin     types.Pubkey
	DevWallet types.Pubkey

	RewardPerShare string

	TotalDeposited      uint64
	LiquidBalance       uint64
	BorrowedAmount      uint64
	RewardPoolBalance   uint64
	PlatformPoolBalance uint64

	EmergencyPause bool
	CurrentApyBps  uint64

	Initialized bool
}

func toPoolRecord(p *TreasuryPool) poolRecord {
	return poolRecord{
		Admin:               p.Admin,
		DevWallet:           p.DevWallet,
		RewardPerShare:      p.RewardPerShare.String(),
		TotalDeposited:      p.TotalDeposited,
		LiquidBalance:       p.LiquidBalance,
		BorrowedAmount:      p.BorrowedAmount,
		RewardPoolBalance:   p.RewardPoolBalance,
		PlatformPoolBalance: p.PlatformPoolBalance,
		EmergencyPause:      p.EmergencyPause,
		CurrentApyBps:       p.CurrentApyBps,
		Initialized:         p.Initialized,
	}
}

func (r poolRecord) toPool() (*TreasuryPool, error) {
	rps, err := parseUint256(r.RewardPerShare)
	if err != nil {
		return nil, err
	}
	return &TreasuryPool{
		Admin:               r.Admin,
		DevWallet:           r.DevWallet,
		RewardPerShare:      rps,
		TotalDeposited:      r.TotalDeposited,
		LiquidBalance:       r.LiquidBalance,
		BorrowedAmount:      r.BorrowedAmount,
		RewardPoolBalance:   r.RewardPoolBalance,
		PlatformPoolBalance: r.PlatformPoolBalance,
		EmergencyPause:      r.EmergencyPause,
		CurrentApyBps:       r.CurrentApyBps,
		Initialized:         r.Initialized,
	}, nil
}

// depositRecord is BackerDeposit's on-disk shape, for the same reason
// poolRecord exists: RewardDebt needs an explicit textual round trip.
type depositRecord struct {
	Backer          types.Pubkey
	DepositedAmount uint64
	RewardDebt      string
	PendingRewards  uint64
	ClaimedTotal    uint64
	IsActive        bool
}

func toDepositRecord(d *BackerDeposit) depositRecord {
	return depositRecord{
		Backer:          d.Backer,
		DepositedAmount: d.DepositedAmount,
		RewardDebt:      d.RewardDebt.String(),
		PendingRewards:  d.PendingRewards,
		ClaimedTotal:    d.ClaimedTotal,
		IsActive:        d.IsActive,
	}
}

func (r depositRecord) toDeposit() (*BackerDeposit, error) {
	debt, err := parseUint256(r.RewardDebt)
	if err != nil {
		return nil, err
	}
	return &BackerDeposit{
		Backer:          r.Backer,
		DepositedAmount: r.DepositedAmount,
		RewardDebt:      debt,
		PendingRewards:  r.PendingRewards,
		ClaimedTotal:    r.ClaimedTotal,
		IsActive:        r.IsActive,
	}, nil
}

func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, types.NewError(types.ErrKindMathOverflow, "failed to parse persisted reward_per_share: "+err.Error())
	}
	return v, nil
}

// AttachStore binds a durable store to the engine. Every mutating
// instruction from this point on writes its changed pool/deposit/deploy
// request/event record through s, the way StateDB commits every balance
// change to its underlying leveldb.DB.
func (e *Engine) AttachStore(s *store.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persist = s
}

// Restore rebuilds the engine's in-memory pool, deposits and deploy requests
// from a previously attached store. Call once, immediately after
// AttachStore and before the first instruction is accepted, so a restarted
// node resumes from exactly where it left off instead of from a zeroed
// pool.
func (e *Engine) Restore() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.persist == nil {
		return nil
	}

	var rec poolRecord
	ok, err := e.persist.LoadPool(&rec)
	if err != nil {
		return err
	}
	if ok {
		pool, err := rec.toPool()
		if err != nil {
			return err
		}
		e.pool = pool
	}

	if err := e.persist.IterateDeposits(func(raw []byte) error {
		var rec depositRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		deposit, err := rec.toDeposit()
		if err != nil {
			return err
		}
		e.deposits[deposit.Backer] = deposit
		return nil
	}); err != nil {
		return err
	}

	if err := e.persist.IterateDeployRequests(func(raw []byte) error {
		var req DeployRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		e.deployRequests[req.ProgramHash] = &req
		return nil
	}); err != nil {
		return err
	}

	return nil
}

func (e *Engine) persistPool() {
	if e.persist == nil {
		return
	}
	if err := e.persist.SavePool(toPoolRecord(e.pool)); err != nil {
		log.Printf("treasury: failed to persist pool: %v", err)
	}
}

func (e *Engine) persistDeposit(d *BackerDeposit) {
	if e.persist == nil {
		return
	}
	if err := e.persist.SaveDeposit(d.Backer, toDepositRecord(d)); err != nil {
		log.Printf("treasury: failed to persist deposit %s: %v", d.Backer.Hex(), err)
	}
}

func (e *Engine) persistDeployRequest(r *DeployRequest) {
	if e.persist == nil {
		return
	}
	if err := e.persist.SaveDeployRequest(r.ProgramHash, r); err != nil {
		log.Printf("treasury: failed to persist deploy request %s: %v", r.ProgramHash.Hex(), err)
	}
}
