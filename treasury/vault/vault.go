// Package vault models the lamport-holding accounts of spec.md §2 component
// A: the three program-owned pool vaults, plus the ordinary principal
// accounts (backers, developers, ephemeral keys) that move funds into and
// out of them. It is the Go-native stand-in for a Solana vault PDA's actual
// balance, grounded in chain/node/blockchain.go's StateDB balance map
// (`s.db.Get([]byte("balance-"+addr.Bytes()), nil)`), reworked from a
// leveldb-backed global account store into the in-process ledger this
// engine's vaults need.
package vault

import (
	"sync"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// RentExemptReserve is the lamport buffer every program-owned account is
// assumed to hold to stay rent-exempt (spec.md §3.2 invariant 5/6: "tracked
// balance must reconcile to actual on-chain balance minus rent_exempt
// reserve"). The source runtime computes this from account size; this port
// fixes it to a constant, since the engine never models account byte-size.
const RentExemptReserve uint64 = 890_880

// Ledger holds every account's actual lamport balance: the three pool
// vaults plus any principal (backer, developer, ephemeral key) the engine
// has ever credited or debited. It is the single source of truth an
// Engine's tracked counters (TreasuryPool.liquid_balance,
// reward_pool_balance, platform_pool_balance) must reconcile against.
type Ledger struct {
	mu       sync.RWMutex
	balances map[types.Pubkey]uint64
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[types.Pubkey]uint64)}
}

// Balance returns the actual balance of addr.
func (l *Ledger) Balance(addr types.Pubkey) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr]
}

// Credit increases addr's balance by amount, creating the account if it did
// not exist yet (the same semantics as StateDB.AddBalance).
func (l *Ledger) Credit(addr types.Pubkey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// Debit decreases addr's balance by amount. Returns InsufficientLiquidBalance
// if the account does not hold enough; callers that need a more specific
// error kind should check the balance themselves before calling Debit.
func (l *Ledger) Debit(addr types.Pubkey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[addr] < amount {
		return types.NewError(types.ErrKindInsufficientLiquidBalance, "vault balance too low")
	}
	l.balances[addr] -= amount
	return nil
}

// Transfer moves amount from one account to another atomically with
// respect to the ledger's lock.
func (l *Ledger) Transfer(from, to types.Pubkey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return types.NewError(types.ErrKindInsufficientLiquidBalance, "vault balance too low")
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Reconcile reports whether the vault at addr's actual balance, net of the
// rent-exempt reserve, equals the tracked balance the engine believes it
// holds (spec.md §3.2 invariant 5, tested directly by invariant 6).
func (l *Ledger) Reconcile(addr types.Pubkey, tracked uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	actual := l.balances[addr]
	if actual < RentExemptReserve {
		return tracked == 0
	}
	return actual-RentExemptReserve == tracked
}

// Seed credits an account directly, used by tests to fund a backer or
// developer wallet before the first instruction.
func (l *Ledger) Seed(addr types.Pubkey, amount uint64) {
	l.Credit(addr, amount)
}

// Vaults names the three program-owned pool accounts an Engine transfers
// through, derived once at construction via treasury/pda and held fixed for
// the engine's lifetime.
type Vaults struct {
	Treasury types.Pubkey
	Reward   types.Pubkey
	Platform types.Pubkey
}
