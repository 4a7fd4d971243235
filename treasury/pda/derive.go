// Package pda derives the deterministic, program-owned addresses spec.md §6
// names (TreasuryPool, the three vaults, BackerDeposit, DeployRequest). The
// source runtime derives these as Solana program-derived addresses; this
// port abstracts that as "hash the seeds under a program namespace", per the
// design note in spec.md §9 ("the core should not hard-code any runtime's
// signing mechanism — it expresses what must happen, not how").
package pda

import (
	"encoding/binary"

	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
)

// Seed seeds of the well-known singleton accounts.
const (
	SeedTreasuryPool = "treasury_pool"
	SeedRewardPool   = "reward_pool"
	SeedPlatformPool = "platform_pool"
	SeedLenderStake  = "lender_stake"
	SeedDeployReq    = "deploy_request"
)

// Derive computes a deterministic address for the given program and seeds,
// the same way every PDA in spec.md §6 is keyed: a namespace string plus
// zero or more additional seed components.
func Derive(program types.Pubkey, seeds ...[]byte) types.Hash {
	parts := make([][]byte, 0, len(seeds)+1)
	parts = append(parts, program.Bytes())
	parts = append(parts, seeds...)
	return types.Keccak256Hash(parts...)
}

// TreasuryPoolAddress derives the singleton TreasuryPool account address.
func TreasuryPoolAddress(program types.Pubkey) types.Hash {
	return Derive(program, []byte(SeedTreasuryPool))
}

// RewardVaultAddress derives the Reward Vault address.
func RewardVaultAddress(program types.Pubkey) types.Hash {
	return Derive(program, []byte(SeedRewardPool))
}

// PlatformVaultAddress derives the Platform Vault address.
func PlatformVaultAddress(program types.Pubkey) types.Hash {
	return Derive(program, []byte(SeedPlatformPool))
}

// TreasuryVaultAddress derives the Treasury Principal Vault address. This
// vault does not appear in spec.md §6's PDA table under its own seed (the
// table only lists the three named components); it is keyed off the
// TreasuryPool seed with a discriminator suffix so it stays deterministic
// and collision-free with the other two vaults.
func TreasuryVaultAddress(program types.Pubkey) types.Hash {
	return Derive(program, []byte(SeedTreasuryPool), []byte("vault"))
}

// BackerDepositAddress derives a backer's deposit ledger entry address.
func BackerDepositAddress(program types.Pubkey, backer types.Pubkey) types.Hash {
	return Derive(program, []byte(SeedLenderStake), backer.Bytes())
}

// DeployRequestAddress derives a deploy request's address from its program hash.
func DeployRequestAddress(program types.Pubkey, programHash types.Hash) types.Hash {
	return Derive(program, []byte(SeedDeployReq), programHash.Bytes())
}

// EphemeralKeySeed derives a deterministic seed for an ephemeral deployment
// wallet, scoped to a program hash and a monotonic nonce so repeated deploy
// attempts for the same program hash never collide.
func EphemeralKeySeed(program types.Pubkey, programHash types.Hash, nonce uint64) types.Hash {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	return Derive(program, []byte("ephemeral"), programHash.Bytes(), nonceBytes[:])
}
