package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonbon-indexer/bonbon/blockstore"
	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/pipeline"
	"github.com/bonbon-indexer/bonbon/store"
)

func pkey(b byte) ledger.Pubkey {
	var p ledger.Pubkey
	p[0] = b
	return p
}

func TestFetchBlockRangeSkipsUnrelatedTransactions(t *testing.T) {
	bs := &fakeBlockStore{
		blocks: map[int64]*blockstore.Block{
			10: {
				Slot: 10,
				Transactions: []blockstore.Transaction{
					{
						Signature:   "relevant",
						TxIndex:     0,
						AccountKeys: ledger.AccountKeys{pkey(1), partition.TokenProgramID},
						Outer: []ledger.CompiledInstruction{
							{ProgramIDIndex: 1, Accounts: []uint8{0}, Data: append([]byte{0}, make([]byte, 37)...)},
						},
					},
					{
						Signature:   "irrelevant",
						TxIndex:     1,
						AccountKeys: ledger.AccountKeys{pkey(99)},
						Outer: []ledger.CompiledInstruction{
							{ProgramIDIndex: 0, Data: []byte{1}},
						},
					},
				},
			},
		},
	}
	cs := newFakeStore()

	require.NoError(t, pipeline.FetchBlockRange(context.Background(), bs, cs, 10, 10))

	_, ok := cs.transactions["relevant"]
	assert.True(t, ok)
	_, ok = cs.transactions["irrelevant"]
	assert.False(t, ok)
}

func TestFetchBlockRangeToleratesSkippedSlot(t *testing.T) {
	bs := &fakeBlockStore{blocks: map[int64]*blockstore.Block{}}
	cs := newFakeStore()

	err := pipeline.FetchBlockRange(context.Background(), bs, cs, 5, 5)
	require.NoError(t, err)
	assert.Empty(t, cs.transactions)
}

func TestPartitionSlotRangeAssignsMintAndSavesRows(t *testing.T) {
	ctx := context.Background()
	cs := newFakeStore()

	mint := pkey(1)
	ix := ledger.CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       []uint8{0},
		Data:           append([]byte{0}, make([]byte, 37)...), // InitializeMint, zero decimals
	}
	tx := blockstore.Transaction{
		Signature:   "sig1",
		AccountKeys: ledger.AccountKeys{mint, partition.TokenProgramID},
		Outer:       []ledger.CompiledInstruction{ix},
	}
	row, keys, err := pipelineEncodeTransaction(ctx, 10, tx)
	require.NoError(t, err)
	require.NoError(t, cs.SaveTransaction(ctx, row, keys))

	require.NoError(t, pipeline.PartitionSlotRange(ctx, cs, 10, 10))

	require.Len(t, cs.partitions, 1)
	require.NotNil(t, cs.partitions[0].Mint)
	assert.Equal(t, mint.String(), *cs.partitions[0].Mint)
}

// pipelineEncodeTransaction exercises the same encode path FetchBlockRange
// uses, without requiring direct access to pipeline's unexported codec.
func pipelineEncodeTransaction(ctx context.Context, slot int64, tx blockstore.Transaction) (store.TransactionRow, []store.AccountKeyRow, error) {
	bs := &fakeBlockStore{blocks: map[int64]*blockstore.Block{slot: {Slot: slot, Transactions: []blockstore.Transaction{tx}}}}
	cs := newFakeStore()
	if err := pipeline.FetchBlockRange(ctx, bs, cs, slot, slot); err != nil {
		return store.TransactionRow{}, nil, err
	}
	return cs.transactions[tx.Signature], cs.accountKeys[tx.Signature], nil
}
