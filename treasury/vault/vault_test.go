package vault

import (
	"testing"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

func TestTransferMovesBalance(t *testing.T) {
	l := NewLedger()
	from := types.BytesToPubkey([]byte("from"))
	to := types.BytesToPubkey([]byte("to"))
	l.Seed(from, 100)

	if err := l.Transfer(from, to, 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if l.Balance(from) != 60 {
		t.Fatalf("from balance = %d, want 60", l.Balance(from))
	}
	if l.Balance(to) != 40 {
		t.Fatalf("to balance = %d, want 40", l.Balance(to))
	}
}

func TestTransferFailsOnInsufficientBalance(t *testing.T) {
	l := NewLedger()
	from := types.BytesToPubkey([]byte("from"))
	to := types.BytesToPubkey([]byte("to"))
	l.Seed(from, 10)

	if err := l.Transfer(from, to, 20); types.KindOf(err) != types.ErrKindInsufficientLiquidBalance {
		t.Fatalf("err = %v, want InsufficientLiquidBalance", err)
	}
	if l.Balance(from) != 10 {
		t.Fatalf("from balance must be unchanged on failed transfer, got %d", l.Balance(from))
	}
}

func TestReconcile(t *testing.T) {
	l := NewLedger()
	addr := types.BytesToPubkey([]byte("vault"))
	l.Seed(addr, RentExemptReserve+1_000)

	if !l.Reconcile(addr, 1_000) {
		t.Fatalf("expected reconciliation to hold for tracked=1000")
	}
	if l.Reconcile(addr, 999) {
		t.Fatalf("expected reconciliation to fail for mismatched tracked balance")
	}
}
