// Package ledger holds the small, program-agnostic primitives the rest of
// the indexer builds on: fixed-size keys and the total order over
// instructions within a transaction.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey is a fixed 32-byte ledger identifier (a mint, an owner, a token
// account, a program, ...). The zero value is the all-zero key used as a
// Bonbon's unset mint/metadata/authority before it is first observed.
type Pubkey [32]byte

// Zero is the all-zero key.
var Zero Pubkey

// String returns the base58 encoding, matching how every wallet, explorer,
// and on-chain program represents a key.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero reports whether p is the unset key.
func (p Pubkey) IsZero() bool {
	return p == Zero
}

// MarshalJSON renders the key as its base58 string.
func (p Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a base58 string into the key.
func (p *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	k, err := PubkeyFromBase58(s)
	if err != nil {
		return err
	}
	*p = k
	return nil
}

// PubkeyFromBase58 decodes a base58-encoded key. It returns ErrBadPubkeyString
// if s does not decode to exactly 32 bytes.
func PubkeyFromBase58(s string) (Pubkey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("%w: %s", ErrBadPubkeyString, err)
	}
	return PubkeyFromBytes(b)
}

// PubkeyFromBytes wraps a byte slice into a Pubkey. It returns
// ErrBadPubkeyString if b is not exactly 32 bytes.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != 32 {
		return Pubkey{}, fmt.Errorf("%w: expected 32 bytes, got %d", ErrBadPubkeyString, len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}
