package store_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonbon-indexer/bonbon/store"
)

func TestInstructionIndexRowJSONRoundTrip(t *testing.T) {
	inner := int64(2)
	row := store.InstructionIndexRow{Slot: 10, BlockIndex: 1, OuterIndex: 3, InnerIndex: &inner}

	encoded, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded store.InstructionIndexRow
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.Equal(t, row, decoded)
}

func TestInstructionIndexRowOmitsNilInnerIndex(t *testing.T) {
	row := store.InstructionIndexRow{Slot: 1, BlockIndex: 0, OuterIndex: 0}

	encoded, err := json.Marshal(row)
	require.NoError(t, err)

	assert.NotContains(t, string(encoded), "inner_index")
}
