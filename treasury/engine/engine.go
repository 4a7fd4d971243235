// Package engine implements the core accounting state machine of spec.md:
// the reward-per-share fee-distribution math (component D), the TreasuryPool
// aggregate (component C), the per-backer ledger (component B), and the
// deploy-funding state machine (component E), all serialized behind a single
// mutex the way spec.md §5 describes the host runtime's total ordering
// guarantee — grounded in chain/node/node.go's Node struct, which guards its
// blockchain/consensus/mempool state behind one `sync.RWMutex` and exposes a
// method per external instruction.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/store"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
	"github.com/SaitamaCoderVN/d2d-program/treasury/vault"
)

// Engine is the in-process stand-in for the on-chain program: it owns the
// TreasuryPool singleton, every BackerDeposit, every DeployRequest, and
// serializes all instructions behind mu exactly as spec.md §5 requires
// ("the host provides total order over instructions touching the same
// accounts").
type Engine struct {
	mu sync.Mutex

	pool           *TreasuryPool
	deposits       map[types.Pubkey]*BackerDeposit
	deployRequests map[types.Hash]*DeployRequest

	vaults  vault.Vaults
	ledger  *vault.Ledger
	sink    *events.Sink
	persist *store.Store

	now func() time.Time
}

// New constructs an uninitialized Engine bound to the given vault addresses,
// ledger and event sink. Initialize must be called before any other
// operation is accepted.
func New(vaults vault.Vaults, ledger *vault.Ledger, sink *events.Sink) *Engine {
	return &Engine{
		pool:           NewTreasuryPool(),
		deposits:       make(map[types.Pubkey]*BackerDeposit),
		deployRequests: make(map[types.Hash]*DeployRequest),
		vaults:         vaults,
		ledger:         ledger,
		sink:           sink,
		now:            time.Now,
	}
}

// Pool returns a copy of the current TreasuryPool snapshot, safe for readers
// (monitoring, RPC) that must not race with in-flight instructions.
func (e *Engine) Pool() TreasuryPool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.pool
}

// Deposit returns a copy of a backer's ledger entry, or ok=false if the
// backer has never deposited.
func (e *Engine) Deposit(backer types.Pubkey) (BackerDeposit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.deposits[backer]
	if !ok {
		return BackerDeposit{}, false
	}
	return *d, true
}

// DeployRequest returns a copy of a deploy request, or ok=false if no
// request exists for programHash.
func (e *Engine) DeployRequest(programHash types.Hash) (DeployRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.deployRequests[programHash]
	if !ok {
		return DeployRequest{}, false
	}
	return *r, true
}

func (e *Engine) requireInitialized() error {
	if !e.pool.Initialized {
		return types.NewError(types.ErrKindNotInitialized, "treasury pool not initialized")
	}
	return nil
}

func (e *Engine) requireAdmin(signer types.Pubkey) error {
	if !signer.Equal(e.pool.Admin) {
		return types.NewError(types.ErrKindUnauthorized, "signer is not admin")
	}
	return nil
}

func (e *Engine) requireNotPaused() error {
	if e.pool.EmergencyPause {
		return types.NewError(types.ErrKindEmergencyPauseActive, "emergency pause active")
	}
	return nil
}

// emit appends an event to the sink and, if a store is attached, persists it
// durably under its sequence number so the event log survives a restart.
func (e *Engine) emit(kind events.Kind, fields map[string]string) {
	ev := e.sink.Emit(kind, fields)
	if e.persist == nil {
		return
	}
	if err := e.persist.SaveEvent(ev.Seq, ev); err != nil {
		log.Printf("treasury: failed to persist event %d (%s): %v", ev.Seq, ev.Kind, err)
	}
}

// Initialize implements spec.md §4.6's `initialize`: creates the singleton
// pool, zeroes counters, and fails if already initialized (spec.md §8
// scenario S6).
func (e *Engine) Initialize(admin, devWallet types.Pubkey, initialApyBps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool.Initialized {
		return types.NewError(types.ErrKindAlreadyInitialized, "treasury pool already initialized")
	}
	if initialApyBps > MaxApyBps {
		return types.NewError(types.ErrKindInvalidApy, fmt.Sprintf("apy %d exceeds max %d bps", initialApyBps, MaxApyBps))
	}
	if devWallet.IsZero() {
		return types.NewError(types.ErrKindInvalidTreasuryWallet, "dev_wallet must not be the zero pubkey")
	}

	e.pool.Admin = admin
	e.pool.DevWallet = devWallet
	e.pool.CurrentApyBps = initialApyBps
	e.pool.EmergencyPause = false
	e.pool.Initialized = true

	e.persistPool()
	e.emit(events.KindTreasuryPoolInitialized, map[string]string{
		"admin":      admin.Hex(),
		"dev_wallet": devWallet.Hex(),
	})
	return nil
}
