// Package blockstore is the system's only network-facing boundary: it
// fetches confirmed blocks from an RPC node and converts them into this
// repo's own ledger types. Everything downstream (partition, assemble)
// depends only on those types, never on the RPC client's wire shapes, so
// a different block source could be dropped in by implementing BlockStore
// alone.
package blockstore

import (
	"context"
	"fmt"

	"github.com/portto/solana-go-sdk/client"
	"github.com/portto/solana-go-sdk/rpc"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// Transaction is one confirmed transaction within a fetched block, already
// converted into this repo's own instruction/account-key shapes.
type Transaction struct {
	Signature    string
	TxIndex      int64 // position within the block; the second term of the total instruction order
	AccountKeys  ledger.AccountKeys
	Outer        []ledger.CompiledInstruction
	Inner        map[int][]ledger.CompiledInstruction
	PreBalances  []TokenBalance
	PostBalances []TokenBalance
}

// TokenBalance mirrors the pre/post token balance snapshot the ledger
// attaches to a transaction, ahead of any partition-time filtering.
type TokenBalance struct {
	AccountIndex uint8
	Mint         ledger.Pubkey
	Owner        ledger.Pubkey
	Decimals     uint8
	Amount       string
}

// Block is one fetched slot's confirmed transactions.
type Block struct {
	Slot         int64
	Transactions []Transaction
}

// BlockStore fetches confirmed blocks by slot.
type BlockStore interface {
	GetBlock(ctx context.Context, slot int64) (*Block, error)
}

// RPCBlockStore implements BlockStore against a Solana JSON-RPC endpoint,
// the teacher's own client.Client wrapped the same way its top-level
// Client type wraps it: a thin struct over *client.Client configured with
// functional options.
type RPCBlockStore struct {
	rpc *client.Client
}

// Option configures an RPCBlockStore.
type Option func(*RPCBlockStore)

// WithEndpoint points the store at a JSON-RPC endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(s *RPCBlockStore) {
		if s.rpc != nil {
			panic("blockstore: rpc client is already set")
		}
		s.rpc = client.NewClient(endpoint)
	}
}

// WithClient injects an already-constructed RPC client, for tests and for
// callers that need custom transport/retry behavior.
func WithClient(c *client.Client) Option {
	return func(s *RPCBlockStore) {
		if s.rpc != nil {
			panic("blockstore: rpc client is already set")
		}
		s.rpc = c
	}
}

// New builds an RPCBlockStore. Exactly one of WithEndpoint/WithClient must
// be supplied.
func New(opts ...Option) *RPCBlockStore {
	s := &RPCBlockStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rpc == nil {
		panic("blockstore: missing rpc client")
	}
	return s
}

// GetBlock fetches slot's confirmed block and converts every transaction
// and its balance snapshots into this repo's own types. A slot with no
// block (skipped by the validator) is reported as ErrSlotSkipped, not as
// an error: the fetch stage must tolerate gaps in the slot sequence.
func (s *RPCBlockStore) GetBlock(ctx context.Context, slot int64) (*Block, error) {
	raw, err := s.rpc.GetBlockWithConfig(ctx, uint64(slot), client.GetBlockConfig{
		Encoding:                       rpc.GetBlockConfigEncodingBase64,
		TransactionDetails:             rpc.GetBlockConfigTransactionDetailsFull,
		MaxSupportedTransactionVersion: client.PointerToUint8(0),
		Rewards:                        client.PointerToBool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("blockstore: get block %d: %w", slot, err)
	}

	block := &Block{Slot: slot}
	for i, tx := range raw.Transactions {
		converted, err := convertTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("blockstore: convert transaction in slot %d: %w", slot, err)
		}
		converted.TxIndex = int64(i)
		block.Transactions = append(block.Transactions, converted)
	}

	return block, nil
}
