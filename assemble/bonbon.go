package assemble

import "github.com/bonbon-indexer/bonbon/ledger"

// EditionStatus classifies an asset's place in a master/limited edition
// lineage.
type EditionStatus int

const (
	EditionNone EditionStatus = iota
	EditionMaster
	EditionLimited
)

// LimitedEdition records a limited edition's back-reference to the master
// it was printed from.
type LimitedEdition struct {
	Master        ledger.Pubkey
	EditionNumber uint64
}

// Bonbon is the full reconstructed history of one mint: every metadata
// revision (oldest first), the edition lineage it belongs to, and the
// chain of token-account transfers from mint to (if it happened) burn.
type Bonbon struct {
	Mint          ledger.Pubkey
	MetadataKey   ledger.Pubkey // PDA(Mint) under the metadata program, set by CreateMetadataAccount*
	MintAuthority ledger.Pubkey // set by MintTo/MintToChecked, account[2]
	Glazings      []Glazing
	Transfers     []Transfer
	EditionStatus EditionStatus
	Limited       *LimitedEdition
	CurrentOwner  *Ownership

	// ownerships is transient per-run bookkeeping (never persisted): which
	// token account currently holds this mint's one unit, learned from
	// InitializeAccount/InitializeAccount{2,3} and kept current by every
	// instruction that moves or closes that account. It exists because a
	// Transfer instruction names token accounts, not owning wallets, and
	// this mint's own instruction stream is the cheapest place to resolve
	// most of them without consulting the cross-mint owner tracker.
	ownerships map[ledger.Pubkey]ledger.Pubkey
}

// New returns an empty Bonbon for mint.
func New(mint ledger.Pubkey) *Bonbon {
	return &Bonbon{
		Mint:       mint,
		ownerships: make(map[ledger.Pubkey]ledger.Pubkey),
	}
}

// ApplyOwnership appends a Transfer reflecting the token account now held
// by newOwner (nil for a burn). It is a no-op if newOwner already matches
// the current holder: instructions like SetAuthority can be replayed
// against an owner that has not actually changed, and that must not
// fabricate a spurious Transfer.
func (b *Bonbon) ApplyOwnership(idx ledger.InstructionIndex, newOwner *Ownership) {
	if newOwner == nil && b.CurrentOwner == nil {
		return
	}
	if newOwner != nil && b.CurrentOwner != nil && *newOwner == *b.CurrentOwner {
		return
	}

	b.Transfers = append(b.Transfers, Transfer{
		Index: idx,
		Start: b.CurrentOwner,
		End:   newOwner,
	})
	b.CurrentOwner = newOwner
}

// ApplyCreatorVerification appends a new Glazing identical to the most
// recent one except that creator's Verified flag, set to verified. If
// the asset has no Glazing yet, or no prior creator entry for this
// address, one is synthesized so the verification is never silently
// dropped.
func (b *Bonbon) ApplyCreatorVerification(idx ledger.InstructionIndex, creator ledger.Pubkey, verified bool) {
	next := b.lastGlazingOrEmpty()
	next.Index = idx
	next.Creators = append([]Creator(nil), next.Creators...)

	for i := range next.Creators {
		if next.Creators[i].Address == creator {
			next.Creators[i].Verified = verified
			b.Glazings = append(b.Glazings, next)
			return
		}
	}
	next.Creators = append(next.Creators, Creator{Address: creator, Verified: verified})
	b.Glazings = append(b.Glazings, next)
}

// ApplyCollectionVerification appends a new Glazing identical to the most
// recent one except for its Collection, which becomes collectionMint with
// the given verified flag.
func (b *Bonbon) ApplyCollectionVerification(idx ledger.InstructionIndex, collectionMint ledger.Pubkey, verified bool) {
	next := b.lastGlazingOrEmpty()
	next.Index = idx
	next.Collection = &Collection{Verified: verified, Key: collectionMint}
	b.Glazings = append(b.Glazings, next)
}

// ApplyMetadata appends a new Glazing carrying a fresh name/symbol/uri/
// royalty/creator revision, as produced by a Create- or
// UpdateMetadataAccount instruction.
func (b *Bonbon) ApplyMetadata(idx ledger.InstructionIndex, g Glazing) {
	g.Index = idx
	b.Glazings = append(b.Glazings, g)
}

func (b *Bonbon) lastGlazingOrEmpty() Glazing {
	if len(b.Glazings) == 0 {
		return Glazing{}
	}
	last := b.Glazings[len(b.Glazings)-1]
	last.Creators = append([]Creator(nil), last.Creators...)
	return last
}

// ValidateTransferChain checks the invariant ApplyOwnership maintains by
// construction: every transfer's Start equals the prior transfer's End.
// It exists for property tests and for validating transfers reloaded from
// storage, where that guarantee no longer comes for free.
func ValidateTransferChain(transfers []Transfer) error {
	var current *Ownership
	for _, tr := range transfers {
		if !ownershipPtrEqual(current, tr.Start) {
			return ErrBrokenOwnershipChain
		}
		current = tr.End
	}
	return nil
}

func ownershipPtrEqual(a, b *Ownership) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
