package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	// PubkeyLength matches the size of an ed25519 public key, the way every
	// principal in the source program (admin, backer, developer, ephemeral
	// key, dev wallet) is addressed.
	PubkeyLength = 32
	// HashLength is the size of a derived-address / program hash.
	HashLength = 32
)

// Pubkey identifies a signing principal or a derived program account.
type Pubkey [PubkeyLength]byte

// Hash is a 32-byte digest, used for program hashes and derived seeds.
type Hash [HashLength]byte

// ZeroPubkey is the empty principal.
var ZeroPubkey = Pubkey{}

// ZeroHash is the empty hash.
var ZeroHash = Hash{}

// BytesToPubkey converts bytes to a Pubkey, right-aligning short input the
// way BytesToAddress does for EVM addresses.
func BytesToPubkey(b []byte) Pubkey {
	var pk Pubkey
	if len(b) > PubkeyLength {
		copy(pk[:], b[len(b)-PubkeyLength:])
	} else {
		copy(pk[PubkeyLength-len(b):], b)
	}
	return pk
}

// BytesToHash converts bytes to a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		copy(h[:], b[len(b)-HashLength:])
	} else {
		copy(h[HashLength-len(b):], b)
	}
	return h
}

// Hex returns the hex representation of the pubkey.
func (pk Pubkey) Hex() string {
	return "0x" + hex.EncodeToString(pk[:])
}

// String returns the hex representation of the pubkey.
func (pk Pubkey) String() string {
	return pk.Hex()
}

// Bytes returns the pubkey as a byte slice.
func (pk Pubkey) Bytes() []byte {
	return pk[:]
}

// Equal reports whether two pubkeys are the same.
func (pk Pubkey) Equal(other Pubkey) bool {
	return bytes.Equal(pk[:], other[:])
}

// IsZero reports whether the pubkey is the zero value.
func (pk Pubkey) IsZero() bool {
	return pk.Equal(ZeroPubkey)
}

// Hex returns the hex representation of the hash.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return h.Hex()
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Equal reports whether two hashes are the same.
func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h[:], other[:])
}

// IsZero reports whether the hash is the zero value.
func (h Hash) IsZero() bool {
	return h.Equal(ZeroHash)
}

// HexToPubkey parses a hex string (with or without the 0x prefix) into a Pubkey.
func HexToPubkey(s string) (Pubkey, error) {
	if len(s) > 2 && s[:2] == "0x" {
		s = s[2:]
	}
	if len(s) != PubkeyLength*2 {
		return ZeroPubkey, fmt.Errorf("invalid pubkey length: expected %d hex chars, got %d", PubkeyLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroPubkey, fmt.Errorf("invalid hex string: %w", err)
	}
	return BytesToPubkey(b), nil
}

// HexToHash parses a hex string (with or without the 0x prefix) into a Hash.
func HexToHash(s string) (Hash, error) {
	if len(s) > 2 && s[:2] == "0x" {
		s = s[2:]
	}
	if len(s) != HashLength*2 {
		return ZeroHash, fmt.Errorf("invalid hash length: expected %d hex chars, got %d", HashLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hex string: %w", err)
	}
	return BytesToHash(b), nil
}

// Keccak256 hashes data with Keccak-256, the digest used throughout for PDA
// derivation and program hashes.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// Keccak256Hash hashes data and returns it as a Hash.
func Keccak256Hash(data ...[]byte) Hash {
	return BytesToHash(Keccak256(data...))
}
