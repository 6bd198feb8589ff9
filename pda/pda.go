// Package pda derives program-derived addresses (PDAs): deterministic keys
// with no private key, computed from a seed tuple and a program id. This is
// a black-box contract with the upstream metadata program — the bump search
// and off-curve check below MUST reproduce its result bit-exactly.
package pda

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// ErrNoValidBump is returned in the practically-impossible case that no
// bump seed in [0, 255] produces an off-curve address.
var ErrNoValidBump = errors.New("pda: no valid bump seed found")

const maxBump = 255

var pdaMarker = []byte("ProgramDerivedAddress")

// MetadataProgramID is the metadata program's own address, one of the two
// programs this system replays instructions for.
var MetadataProgramID = mustPubkey("metaqbxxUvudxC9XPVtjWHQWBkGXHKSGVf7ZghZCfjKp")

// Find derives the PDA for the given seeds under program, searching bump
// seeds from 255 down to 0 the same way solana-program's
// Pubkey::find_program_address does, and returns the first bump that lands
// off the ed25519 curve.
func Find(program ledger.Pubkey, seeds ...[]byte) (ledger.Pubkey, uint8, error) {
	for bump := maxBump; bump >= 0; bump-- {
		candidate, err := CreateWithSeeds(program, append(append([][]byte{}, seeds...), []byte{byte(bump)}))
		if err == nil {
			return candidate, uint8(bump), nil
		}
	}
	return ledger.Pubkey{}, 0, ErrNoValidBump
}

// CreateWithSeeds hashes the seed tuple (seeds..., program, "ProgramDerivedAddress")
// and returns the resulting key iff it does NOT lie on the ed25519 curve —
// the defining property of a program-derived address (it has no associated
// private key).
func CreateWithSeeds(program ledger.Pubkey, seeds [][]byte) (ledger.Pubkey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(pdaMarker)
	sum := h.Sum(nil)

	if _, err := new(edwards25519.Point).SetBytes(sum); err == nil {
		// sum is a valid curve point, i.e. has an associated private key:
		// not usable as a program-derived address.
		return ledger.Pubkey{}, errInvalidSeeds
	}

	return ledger.PubkeyFromBytes(sum)
}

var errInvalidSeeds = errors.New("pda: seeds produce a point on the curve")

// FindMetadataAccount derives the metadata account address for mint:
// PDA(("metadata", metadata_program_id, mint_key), metadata_program_id).
func FindMetadataAccount(mint ledger.Pubkey) (ledger.Pubkey, uint8, error) {
	return Find(MetadataProgramID, []byte("metadata"), MetadataProgramID[:], mint[:])
}

func mustPubkey(s string) ledger.Pubkey {
	k, err := ledger.PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return k
}
