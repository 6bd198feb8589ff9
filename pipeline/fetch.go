package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/bonbon-indexer/bonbon/blockstore"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/pda"
	"github.com/bonbon-indexer/bonbon/store"
)

// FetchWorkers is the bounded fan-out for concurrent block fetches. Slots
// are fetched 16 at a time, the same chunk size the original fetch stage
// used against its Bigtable-backed ledger source, to stay within an RPC
// node's typical concurrent-request budget.
const FetchWorkers = 16

// FetchBlockRange fetches every slot in [startSlot, endSlot], filters out
// transactions that touch neither the token program nor the metadata
// program (nothing downstream can ever care about them), and persists the
// rest. A skipped slot is not an error; any other fetch failure aborts the
// whole range so a partial, silently-incomplete range is never persisted
// as if it were complete.
func FetchBlockRange(ctx context.Context, bs blockstore.BlockStore, cs store.ColumnStore, startSlot, endSlot int64) error {
	pool, err := ants.NewPool(FetchWorkers)
	if err != nil {
		return fmt.Errorf("pipeline: create fetch pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for slot := startSlot; slot <= endSlot; slot++ {
		slot := slot
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := fetchOneBlock(ctx, bs, cs, slot); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("pipeline: submit fetch for slot %d: %w", slot, submitErr)
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	return firstErr
}

func fetchOneBlock(ctx context.Context, bs blockstore.BlockStore, cs store.ColumnStore, slot int64) error {
	block, err := bs.GetBlock(ctx, slot)
	if err != nil {
		return fmt.Errorf("pipeline: fetch slot %d: %w", slot, err)
	}
	if block == nil {
		return nil // skipped slot
	}

	for _, tx := range block.Transactions {
		if !touchesRelevantProgram(tx) {
			continue
		}
		row, keyRows, err := encodeTransaction(slot, tx)
		if err != nil {
			return fmt.Errorf("pipeline: encode slot %d signature %s: %w", slot, tx.Signature, err)
		}
		if err := cs.SaveTransaction(ctx, row, keyRows); err != nil {
			return fmt.Errorf("pipeline: save slot %d signature %s: %w", slot, tx.Signature, err)
		}
	}

	return nil
}

func touchesRelevantProgram(tx blockstore.Transaction) bool {
	for _, key := range tx.AccountKeys {
		if key == partition.TokenProgramID || key == pda.MetadataProgramID {
			return true
		}
	}
	return false
}
