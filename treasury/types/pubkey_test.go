package types

import "testing"

func TestHexRoundTrip(t *testing.T) {
	pk := BytesToPubkey([]byte("some-principal"))
	parsed, err := HexToPubkey(pk.Hex())
	if err != nil {
		t.Fatalf("HexToPubkey: %v", err)
	}
	if !parsed.Equal(pk) {
		t.Fatalf("round trip mismatch: %s != %s", parsed.Hex(), pk.Hex())
	}
}

func TestIsZero(t *testing.T) {
	if !(Pubkey{}).IsZero() {
		t.Fatalf("empty pubkey must report IsZero")
	}
	if BytesToPubkey([]byte("x")).IsZero() {
		t.Fatalf("non-empty pubkey must not report IsZero")
	}
}

func TestKeccak256HashIsDeterministic(t *testing.T) {
	a := Keccak256Hash([]byte("seed-one"), []byte("seed-two"))
	b := Keccak256Hash([]byte("seed-one"), []byte("seed-two"))
	if !a.Equal(b) {
		t.Fatalf("Keccak256Hash is not deterministic")
	}
	c := Keccak256Hash([]byte("seed-one"))
	if a.Equal(c) {
		t.Fatalf("Keccak256Hash should vary with the seed set")
	}
}

func TestHexToPubkeyRejectsBadLength(t *testing.T) {
	if _, err := HexToPubkey("0x1234"); err == nil {
		t.Fatalf("expected error for short hex string")
	}
}
