package assemble

import "github.com/bonbon-indexer/bonbon/ledger"

// Creator mirrors a metadata creator entry, normalized from whichever wire
// shape (Data or DataV2) produced it.
type Creator struct {
	Address  ledger.Pubkey
	Verified bool
	Share    uint8
}

// Collection mirrors a DataV2 collection reference.
type Collection struct {
	Verified bool
	Key      ledger.Pubkey
}

// Glazing is one immutable snapshot of an asset's metadata: name, symbol,
// uri, royalty, creators, and collection membership as of the instruction
// that produced it. A Bonbon accumulates one Glazing per metadata-mutating
// instruction, oldest first, so the full edit history survives rather than
// only the current state.
type Glazing struct {
	Index                ledger.InstructionIndex
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	Collection           *Collection
}
