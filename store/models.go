// Package store persists the pipeline's output in a relational column
// store: confirmed transactions, the account key table each one resolved,
// partition assignments, and the assembled Bonbon/Glazing/Transfer rows.
// Composite and array-shaped fields (instruction indices, instruction
// lists, balance snapshots, creator lists, collection refs) are stored as
// gorm.io/datatypes JSON columns rather than normalized further; transfers
// and metadata revisions are stored one row each.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// InstructionIndexRow is the JSON shape persisted for every
// ledger.InstructionIndex value embedded in another row.
type InstructionIndexRow struct {
	Slot       int64  `json:"slot"`
	BlockIndex int64  `json:"block_index"`
	OuterIndex int64  `json:"outer_index"`
	InnerIndex *int64 `json:"inner_index,omitempty"`
}

// TransactionRow is one confirmed transaction fetched from the block
// store, kept so later pipeline stages never need to re-fetch it. Outer/
// Inner/balances are stored as JSON rather than the raw wire bytes: the
// partitioner and assembler only ever need the already-decoded
// instruction shape, never the original encoding.
type TransactionRow struct {
	Slot         int64     `gorm:"primaryKey;column:slot"`
	Signature    string    `gorm:"primaryKey;column:signature"`
	BlockIndex   int64     `gorm:"column:block_index"` // position within the block, the total order's second term
	BlockTime    *time.Time
	Outer        datatypes.JSON `gorm:"column:outer_instructions"`
	Inner        datatypes.JSON `gorm:"column:inner_instructions"`
	PreBalances  datatypes.JSON `gorm:"column:pre_balances"`
	PostBalances datatypes.JSON `gorm:"column:post_balances"`
}

func (TransactionRow) TableName() string { return "transactions" }

// AccountKeyRow is one entry of a transaction's resolved account key
// table (static keys plus any address-lookup-table keys already resolved
// by the block store).
type AccountKeyRow struct {
	Slot      int64  `gorm:"primaryKey;column:slot"`
	Signature string `gorm:"primaryKey;column:signature"`
	Index     int32  `gorm:"primaryKey;column:index"`
	Key       string `gorm:"column:key"` // base58
}

func (AccountKeyRow) TableName() string { return "account_keys" }

// PartitionRow is one partitioner decision: either an instruction assigned
// to a mint, or one recorded as Other with its reason.
type PartitionRow struct {
	Slot       int64                                    `gorm:"primaryKey;column:slot"`
	Signature  string                                   `gorm:"primaryKey;column:signature"`
	OuterIndex int64                                    `gorm:"primaryKey;column:outer_index"`
	InnerIndex *int64                                   `gorm:"primaryKey;column:inner_index"`
	Mint       *string                                  `gorm:"column:mint"` // base58, null if Other
	Reason     *string                                  `gorm:"column:reason"`
	Index      datatypes.JSONType[InstructionIndexRow]  `gorm:"column:instruction_index"`
}

func (PartitionRow) TableName() string { return "partitions" }

// CreatorRow is the JSON shape of one Glazing's creator entry.
type CreatorRow struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Share    uint8  `json:"share"`
}

// CollectionRow is the JSON shape of a Glazing's optional collection ref.
type CollectionRow struct {
	Verified bool   `json:"verified"`
	Key      string `json:"key"`
}

// BonbonRow is a mint's current reconstructed state: its latest edition
// status and current holder. Its full metadata and ownership history live
// in GlazingRow/TransferRow, one row per revision/transfer.
type BonbonRow struct {
	Mint                string  `gorm:"primaryKey;column:mint"` // base58
	MetadataKey         string  `gorm:"column:metadata_key"`    // base58, PDA(mint)
	MintAuthority       string  `gorm:"column:mint_authority"`  // base58, from the latest MintTo
	EditionStatus       string  `gorm:"column:edition_status"`  // "none" | "master" | "limited"
	MasterKey           *string `gorm:"column:master_key"`
	EditionNumber       *int64  `gorm:"column:edition_number"`
	CurrentOwnerOwner   *string `gorm:"column:current_owner_owner"`
	CurrentOwnerAccount *string `gorm:"column:current_owner_account"`
}

func (BonbonRow) TableName() string { return "bonbons" }

// GlazingRow is one metadata revision in a mint's history, oldest first.
type GlazingRow struct {
	Mint                 string                                    `gorm:"primaryKey;column:mint"`
	Index                datatypes.JSONType[InstructionIndexRow]    `gorm:"primaryKey;column:instruction_index"`
	Name                 string                                    `gorm:"column:name"`
	Symbol               string                                    `gorm:"column:symbol"`
	URI                  string                                    `gorm:"column:uri"`
	SellerFeeBasisPoints uint16                                    `gorm:"column:seller_fee_basis_points"`
	Creators             datatypes.JSONType[[]CreatorRow]          `gorm:"column:creators"`
	Collection           datatypes.JSONType[*CollectionRow]        `gorm:"column:collection"`
}

func (GlazingRow) TableName() string { return "glazings" }

// TransferRow is one link in a mint's ownership chain. Start/StartAccount
// and End/EndAccount are each nil together (a transfer boundary is the
// mint-to or the burn, never a partial owner-without-account).
type TransferRow struct {
	Mint         string                                  `gorm:"primaryKey;column:mint"`
	Index        datatypes.JSONType[InstructionIndexRow] `gorm:"primaryKey;column:instruction_index"`
	Start        *string                                 `gorm:"column:start_owner"`
	StartAccount *string                                 `gorm:"column:start_account"`
	End          *string                                 `gorm:"column:end_owner"`
	EndAccount   *string                                 `gorm:"column:end_account"`
}

func (TransferRow) TableName() string { return "transfers" }
