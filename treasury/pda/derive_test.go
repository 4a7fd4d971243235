package pda

import (
	"testing"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

func TestDeriveIsDeterministic(t *testing.T) {
	program := types.BytesToPubkey([]byte("program"))
	a := TreasuryPoolAddress(program)
	b := TreasuryPoolAddress(program)
	if !a.Equal(b) {
		t.Fatalf("TreasuryPoolAddress is not deterministic: %s != %s", a.Hex(), b.Hex())
	}
}

func TestDerivedAddressesDoNotCollide(t *testing.T) {
	program := types.BytesToPubkey([]byte("program"))
	addrs := []types.Hash{
		TreasuryPoolAddress(program),
		RewardVaultAddress(program),
		PlatformVaultAddress(program),
		TreasuryVaultAddress(program),
	}
	for i := range addrs {
		for j := range addrs {
			if i == j {
				continue
			}
			if addrs[i].Equal(addrs[j]) {
				t.Fatalf("addresses %d and %d collide: %s", i, j, addrs[i].Hex())
			}
		}
	}
}

func TestBackerDepositAddressVariesByBacker(t *testing.T) {
	program := types.BytesToPubkey([]byte("program"))
	a := BytesToPubkeyHelper("backer-a")
	b := BytesToPubkeyHelper("backer-b")
	if BackerDepositAddress(program, a).Equal(BackerDepositAddress(program, b)) {
		t.Fatalf("BackerDepositAddress must vary by backer")
	}
}

func TestEphemeralKeySeedVariesByNonce(t *testing.T) {
	program := types.BytesToPubkey([]byte("program"))
	hash := types.Keccak256Hash([]byte("program-hash"))
	first := EphemeralKeySeed(program, hash, 0)
	second := EphemeralKeySeed(program, hash, 1)
	if first.Equal(second) {
		t.Fatalf("EphemeralKeySeed must vary by nonce")
	}
}

func BytesToPubkeyHelper(s string) types.Pubkey {
	return types.BytesToPubkey([]byte(s))
}
