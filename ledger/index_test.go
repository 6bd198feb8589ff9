package ledger_test

import (
	"testing"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestInstructionIndexCompare(t *testing.T) {
	outer := ledger.InstructionIndex{Slot: 10, BlockIndex: 0, OuterIndex: 1}
	inner0 := ledger.InstructionIndex{Slot: 10, BlockIndex: 0, OuterIndex: 1, InnerIndex: ptr(0)}
	inner1 := ledger.InstructionIndex{Slot: 10, BlockIndex: 0, OuterIndex: 1, InnerIndex: ptr(1)}

	assert.True(t, inner0.Less(inner1))
	assert.True(t, inner1.Less(outer))
	assert.False(t, outer.Less(inner0))

	nextOuter := ledger.InstructionIndex{Slot: 10, BlockIndex: 0, OuterIndex: 2}
	assert.True(t, outer.Less(nextOuter))

	nextSlot := ledger.InstructionIndex{Slot: 11, BlockIndex: 0, OuterIndex: 0}
	assert.True(t, nextOuter.Less(nextSlot))
}

func TestPubkeyBase58RoundTrip(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	key := ledger.Pubkey(raw)

	parsed, err := ledger.PubkeyFromBase58(key.String())
	assert.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ledger.PubkeyFromBase58("not-base58-!!!")
	assert.ErrorIs(t, err, ledger.ErrBadPubkeyString)
}
