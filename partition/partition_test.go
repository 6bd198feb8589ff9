package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/metaplex"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/pda"
	"github.com/bonbon-indexer/bonbon/tokenprog"
	"github.com/near/borsh-go"
)

func key(b byte) ledger.Pubkey {
	var p ledger.Pubkey
	p[0] = b
	return p
}

func TestPartitionInitializeMintAdmitsZeroDecimals(t *testing.T) {
	mint := key(1)
	keysWithProgram := ledger.AccountKeys{mint, partition.TokenProgramID}

	ix := ledger.CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       []uint8{0},
		Data:           append([]byte{byte(tokenprog.KindInitializeMint)}, make([]byte, 37)...),
	}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        1,
		BlockIndex:  0,
		AccountKeys: keysWithProgram,
		Outer:       []ledger.CompiledInstruction{ix},
		Inner:       map[int][]ledger.CompiledInstruction{},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, mint, result.Assigned[0].Mint)
}

func TestPartitionRejectsNonZeroDecimalsMint(t *testing.T) {
	mint := key(1)
	keysWithProgram := ledger.AccountKeys{mint, partition.TokenProgramID}

	data := append([]byte{byte(tokenprog.KindInitializeMint)}, make([]byte, 37)...)
	data[1] = 9 // decimals
	ix := ledger.CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       []uint8{0},
		Data:           data,
	}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        1,
		AccountKeys: keysWithProgram,
		Outer:       []ledger.CompiledInstruction{ix},
		Inner:       map[int][]ledger.CompiledInstruction{},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Assigned)
	require.Len(t, result.Other, 1)
	assert.Equal(t, partition.ReasonNotNFTPlausible, result.Other[0].Reason)
}

func TestPartitionCreateMetadataAccountSeedsRegistryForLaterLookup(t *testing.T) {
	metadataAccount := key(2)
	mint := key(3)
	keysWithProgram := ledger.AccountKeys{metadataAccount, mint, pda.MetadataProgramID}

	createArgs := struct {
		Data      metaplex.DataV2
		IsMutable bool
	}{
		Data: metaplex.DataV2{
			Name:                 "x",
			Symbol:               "y",
			Uri:                  "z",
			SellerFeeBasisPoints: 0,
		},
		IsMutable: true,
	}
	body, err := borsh.Serialize(createArgs)
	require.NoError(t, err)

	createIx := ledger.CompiledInstruction{
		ProgramIDIndex: 2,
		Accounts:       []uint8{0, 1},
		Data:           append([]byte{byte(metaplex.KindCreateMetadataAccountV2)}, body...),
	}

	signIx := ledger.CompiledInstruction{
		ProgramIDIndex: 2,
		Accounts:       []uint8{0},
		Data:           []byte{byte(metaplex.KindSignMetadata)},
	}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        1,
		AccountKeys: keysWithProgram,
		Outer:       []ledger.CompiledInstruction{createIx, signIx},
		Inner:       map[int][]ledger.CompiledInstruction{},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 2)
	assert.Equal(t, mint, result.Assigned[0].Mint)
	assert.Equal(t, mint, result.Assigned[1].Mint)
}

// TestPartitionInitializeAccountWithoutCloseResolvesViaTransient covers a
// historical-range transaction (no balance snapshot) that opens a token
// account and mints into it without ever closing it in the same
// transaction — the shape of a real NFT mint, and exactly the case that
// must not trip ErrUnresolvedTransientMeta: the MintTo resolves the
// account against the transient bookkeeping InitializeAccount2 seeded,
// which is enough to count the account as resolved.
func TestPartitionInitializeAccountWithoutCloseResolvesViaTransient(t *testing.T) {
	mint := key(1)
	account := key(2)
	owner := key(3)
	keysWithProgram := ledger.AccountKeys{mint, account, owner, partition.TokenProgramID}

	initMintIx := ledger.CompiledInstruction{
		ProgramIDIndex: 3,
		Accounts:       []uint8{0},
		Data:           append([]byte{byte(tokenprog.KindInitializeMint)}, make([]byte, 37)...),
	}
	initAccountIx := ledger.CompiledInstruction{
		ProgramIDIndex: 3,
		Accounts:       []uint8{1, 0, 2},
		Data:           append([]byte{byte(tokenprog.KindInitializeAccount2)}, owner[:]...),
	}
	mintToData := make([]byte, 9)
	mintToData[0] = byte(tokenprog.KindMintTo)
	mintToIx := ledger.CompiledInstruction{
		ProgramIDIndex: 3,
		Accounts:       []uint8{0, 1, 2},
		Data:           mintToData,
	}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        1,
		AccountKeys: keysWithProgram,
		Outer:       []ledger.CompiledInstruction{initMintIx, initAccountIx, mintToIx},
		Inner:       map[int][]ledger.CompiledInstruction{},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 3)
	for _, a := range result.Assigned {
		assert.Equal(t, mint, a.Mint)
	}
}

func TestPartitionUnrelatedProgramGoesToOther(t *testing.T) {
	otherProgram := key(99)
	keys := ledger.AccountKeys{otherProgram}
	ix := ledger.CompiledInstruction{ProgramIDIndex: 0, Data: []byte{1, 2, 3}}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        1,
		AccountKeys: keys,
		Outer:       []ledger.CompiledInstruction{ix},
		Inner:       map[int][]ledger.CompiledInstruction{},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Assigned)
	require.Len(t, result.Other, 1)
	assert.Equal(t, partition.ReasonUnrelatedProgram, result.Other[0].Reason)
}

func TestPartitionInnerInstructionOrdersBeforeOuter(t *testing.T) {
	mint := key(1)
	keysWithProgram := ledger.AccountKeys{mint, partition.TokenProgramID}

	outer := ledger.CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       []uint8{0},
		Data:           append([]byte{byte(tokenprog.KindInitializeMint)}, make([]byte, 37)...),
	}
	inner := ledger.CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       []uint8{0},
		Data:           append([]byte{byte(tokenprog.KindInitializeMint2)}, make([]byte, 37)...),
	}

	p := partition.NewPartitioner()
	result, err := p.PartitionTransaction(partition.Transaction{
		Slot:        5,
		AccountKeys: keysWithProgram,
		Outer:       []ledger.CompiledInstruction{outer},
		Inner:       map[int][]ledger.CompiledInstruction{0: {inner}},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 2)
	assert.NotNil(t, result.Assigned[0].Index.InnerIndex)
	assert.Nil(t, result.Assigned[1].Index.InnerIndex)
	assert.True(t, result.Assigned[0].Index.Less(result.Assigned[1].Index))
}
