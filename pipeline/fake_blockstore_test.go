package pipeline_test

import (
	"context"

	"github.com/bonbon-indexer/bonbon/blockstore"
)

// fakeBlockStore implements blockstore.BlockStore over a fixed slot->block
// map, standing in for the RPC-backed implementation in tests.
type fakeBlockStore struct {
	blocks map[int64]*blockstore.Block
}

func (f *fakeBlockStore) GetBlock(ctx context.Context, slot int64) (*blockstore.Block, error) {
	return f.blocks[slot], nil
}

var _ blockstore.BlockStore = (*fakeBlockStore)(nil)
