// Package store persists the treasury's durable state to LevelDB, grounded
// in chain/node/blockchain.go's StateDB, which keys balances, nonces and
// contract storage into a single `*leveldb.DB` under string prefixes
// (`"balance-"+addr.Bytes()`, `"nonce-"+addr.Bytes()`, ...). This package
// applies the same prefixed-key convention to the treasury's own records:
// the TreasuryPool singleton, every BackerDeposit, every DeployRequest, and
// the event log, so a restarted node resumes from exactly where it left
// off instead of re-deriving state from nothing.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

const (
	poolKey         = "treasury-pool"
	depositPrefix   = "backer-deposit-"
	deployReqPrefix = "deploy-request-"
	eventPrefix     = "event-"
)

// Store wraps a LevelDB handle the way StateDB does, persisting the
// engine's records as JSON blobs under prefixed keys.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open treasury store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying LevelDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) putJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.db.Put([]byte(key), b, nil)
}

func (s *Store) getJSON(key string, v any) (bool, error) {
	b, err := s.db.Get([]byte(key), nil)
	if err == errors.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SavePool persists the TreasuryPool singleton snapshot.
func (s *Store) SavePool(pool any) error {
	return s.putJSON(poolKey, pool)
}

// LoadPool loads the TreasuryPool singleton snapshot into dst, returning
// ok=false if no pool has ever been saved.
func (s *Store) LoadPool(dst any) (bool, error) {
	return s.getJSON(poolKey, dst)
}

// SaveDeposit persists one backer's ledger entry.
func (s *Store) SaveDeposit(backer types.Pubkey, deposit any) error {
	return s.putJSON(depositPrefix+backer.Hex(), deposit)
}

// LoadDeposit loads one backer's ledger entry into dst.
func (s *Store) LoadDeposit(backer types.Pubkey, dst any) (bool, error) {
	return s.getJSON(depositPrefix+backer.Hex(), dst)
}

// IterateDeposits calls fn for every persisted BackerDeposit's raw JSON
// bytes, used to rebuild the in-memory map on startup.
func (s *Store) IterateDeposits(fn func(raw []byte) error) error {
	return s.iteratePrefix(depositPrefix, fn)
}

// SaveDeployRequest persists one deploy request, keyed by its program hash.
func (s *Store) SaveDeployRequest(programHash types.Hash, req any) error {
	return s.putJSON(deployReqPrefix+programHash.Hex(), req)
}

// LoadDeployRequest loads one deploy request into dst.
func (s *Store) LoadDeployRequest(programHash types.Hash, dst any) (bool, error) {
	return s.getJSON(deployReqPrefix+programHash.Hex(), dst)
}

// IterateDeployRequests calls fn for every persisted DeployRequest's raw
// JSON bytes.
func (s *Store) IterateDeployRequests(fn func(raw []byte) error) error {
	return s.iteratePrefix(deployReqPrefix, fn)
}

// SaveEvent persists one event log entry under a sequence-ordered key.
func (s *Store) SaveEvent(seq uint64, ev any) error {
	return s.putJSON(fmt.Sprintf("%s%020d", eventPrefix, seq), ev)
}

func (s *Store) iteratePrefix(prefix string, fn func(raw []byte) error) error {
	var it iterator.Iterator
	it = s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()
	for it.Next() {
		raw := make([]byte, len(it.Value()))
		copy(raw, it.Value())
		if err := fn(raw); err != nil {
			return err
		}
	}
	return it.Error()
}
