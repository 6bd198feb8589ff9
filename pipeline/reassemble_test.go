package pipeline_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonbon-indexer/bonbon/blockstore"
	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/ownertrack"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/pipeline"
	"github.com/bonbon-indexer/bonbon/tokenprog"
)

func initializeMintData() []byte {
	return append([]byte{byte(tokenprog.KindInitializeMint)}, make([]byte, 37)...)
}

func initializeAccount2Data(owner ledger.Pubkey) []byte {
	return append([]byte{byte(tokenprog.KindInitializeAccount2)}, owner[:]...)
}

func mintToData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = byte(tokenprog.KindMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func burnData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = byte(tokenprog.KindBurn)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// TestReassembleMintFullMintThenBurnLifecycle runs a single transaction
// (InitializeMint, InitializeAccount2, MintTo, Burn, CloseAccount) through
// fetch, partition, and reassemble, and checks the resulting Bonbon
// reflects a mint followed immediately by a burn.
func TestReassembleMintFullMintThenBurnLifecycle(t *testing.T) {
	ctx := context.Background()

	var mint, account, owner ledger.Pubkey
	mint[0], account[0], owner[0] = 1, 2, 3

	keys := ledger.AccountKeys{mint, account, owner, partition.TokenProgramID}
	outer := []ledger.CompiledInstruction{
		{ProgramIDIndex: 3, Accounts: []uint8{0}, Data: initializeMintData()},
		{ProgramIDIndex: 3, Accounts: []uint8{1, 0, 2}, Data: initializeAccount2Data(owner)},
		{ProgramIDIndex: 3, Accounts: []uint8{0, 1, 2}, Data: mintToData(1)},
		{ProgramIDIndex: 3, Accounts: []uint8{1, 0, 2}, Data: burnData(1)},
		{ProgramIDIndex: 3, Accounts: []uint8{1, 2}, Data: []byte{byte(tokenprog.KindCloseAccount)}},
	}

	tx := blockstore.Transaction{Signature: "sig1", AccountKeys: keys, Outer: outer}
	bs := &fakeBlockStore{blocks: map[int64]*blockstore.Block{7: {Slot: 7, Transactions: []blockstore.Transaction{tx}}}}
	cs := newFakeStore()

	require.NoError(t, pipeline.FetchBlockRange(ctx, bs, cs, 7, 7))
	require.NoError(t, pipeline.PartitionSlotRange(ctx, cs, 7, 7))

	tracker := ownertrack.New()
	require.NoError(t, pipeline.ReassembleMint(ctx, cs, tracker, mint.String()))

	bonbonRow, _, transferRows, err := cs.LoadBonbon(ctx, mint.String())
	require.NoError(t, err)
	require.NotNil(t, bonbonRow)

	assert.Nil(t, bonbonRow.CurrentOwnerOwner, "burned asset has no current owner")
	assert.Nil(t, bonbonRow.CurrentOwnerAccount, "burned asset has no current owner")
	require.Len(t, transferRows, 2)
	assert.Nil(t, transferRows[0].Start)
	assert.Nil(t, transferRows[0].StartAccount)
	require.NotNil(t, transferRows[0].End)
	require.NotNil(t, transferRows[0].EndAccount)
	assert.Equal(t, owner.String(), *transferRows[0].End)
	assert.Equal(t, account.String(), *transferRows[0].EndAccount)
	require.NotNil(t, transferRows[1].Start)
	require.NotNil(t, transferRows[1].StartAccount)
	assert.Equal(t, owner.String(), *transferRows[1].Start)
	assert.Equal(t, account.String(), *transferRows[1].StartAccount)
	assert.Nil(t, transferRows[1].End)
	assert.Nil(t, transferRows[1].EndAccount)
}

func TestReassembleAllSkipsMintsWithNoPartitions(t *testing.T) {
	cs := newFakeStore()
	require.NoError(t, pipeline.ReassembleAll(context.Background(), cs))
	assert.Empty(t, cs.bonbons)
}
