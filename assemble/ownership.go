package assemble

import (
	"errors"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// Ownership names the token account holding a mint's one unit and the
// wallet that holds it. A Transfer's Start/End are each an Ownership, not
// a bare owner: the account changes across a burn/re-mint boundary even
// when the owner does not.
type Ownership struct {
	Owner   ledger.Pubkey
	Account ledger.Pubkey
}

// Transfer is one link in an asset's ownership chain. Start is nil for the
// mint that creates the asset's first token account; End is nil for the
// burn that destroys it. Every non-boundary transfer's Start must equal
// the prior transfer's End — ApplyOwnership is the only thing that is
// allowed to append one, and it enforces that invariant.
type Transfer struct {
	Index ledger.InstructionIndex
	Start *Ownership
	End   *Ownership
}

// ErrBrokenOwnershipChain is returned when an incoming transfer's start
// owner does not match the asset's current holder — the underlying ledger
// data is inconsistent (a double-spend, a bug in the decoder, or a
// partition error), and nothing downstream can be trusted once it happens.
var ErrBrokenOwnershipChain = errors.New("assemble: transfer does not chain from the current holder")

// ErrCouldNotResolveAccountOwner is returned when a token instruction names
// an account neither this Bonbon's own bookkeeping nor the cross-mint
// owner tracker has ever seen initialized.
var ErrCouldNotResolveAccountOwner = errors.New("assemble: could not resolve token account owner")
