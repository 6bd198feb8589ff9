package pipeline

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/datatypes"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/store"
)

// PartitionSlotRange runs the partition stage over every transaction
// persisted in [startSlot, endSlot]: each transaction's instructions are
// classified by mint and the result is saved back through the column
// store. A single shared Partitioner is used across the whole range so a
// metadata account registered by an early transaction's
// CreateMetadataAccount is visible to a later transaction's SignMetadata,
// which is why this stage runs transactions in slot order rather than
// fanning them out concurrently.
func PartitionSlotRange(ctx context.Context, cs store.ColumnStore, startSlot, endSlot int64) error {
	p := partition.NewPartitioner()

	txs, keysBySignature, err := cs.TransactionsInSlotRange(ctx, startSlot, endSlot)
	if err != nil {
		return fmt.Errorf("pipeline: load transactions: %w", err)
	}

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Slot != txs[j].Slot {
			return txs[i].Slot < txs[j].Slot
		}
		return txs[i].BlockIndex < txs[j].BlockIndex
	})

	for _, row := range txs {
		decoded, err := decodeTransaction(row, keysBySignature[row.Signature])
		if err != nil {
			return fmt.Errorf("pipeline: decode signature %s: %w", row.Signature, err)
		}

		result, err := p.PartitionTransaction(decoded)
		if err != nil {
			return fmt.Errorf("pipeline: partition signature %s: %w", row.Signature, err)
		}

		rows := partitionRows(row.Slot, row.Signature, result)
		if err := cs.SavePartitions(ctx, rows); err != nil {
			return fmt.Errorf("pipeline: save partitions for signature %s: %w", row.Signature, err)
		}
	}

	return nil
}

// partitionRows converts one transaction's Partitions into the rows the
// column store persists, covering both assigned and Other instructions so
// the reassemble stage never has to re-derive why an instruction was
// dropped.
func partitionRows(slot int64, signature string, result partition.Partitions) []store.PartitionRow {
	rows := make([]store.PartitionRow, 0, len(result.Assigned)+len(result.Other))

	for _, a := range result.Assigned {
		mint := a.Mint.String()
		rows = append(rows, store.PartitionRow{
			Slot:       slot,
			Signature:  signature,
			OuterIndex: a.Index.OuterIndex,
			InnerIndex: a.Index.InnerIndex,
			Mint:       &mint,
			Index:      datatypes.NewJSONType(indexRow(a.Index)),
		})
	}

	for _, o := range result.Other {
		reason := o.Reason.String()
		rows = append(rows, store.PartitionRow{
			Slot:       slot,
			Signature:  signature,
			OuterIndex: o.Index.OuterIndex,
			InnerIndex: o.Index.InnerIndex,
			Reason:     &reason,
			Index:      datatypes.NewJSONType(indexRow(o.Index)),
		})
	}

	return rows
}

func indexRow(idx ledger.InstructionIndex) store.InstructionIndexRow {
	return store.InstructionIndexRow{
		Slot:       idx.Slot,
		BlockIndex: idx.BlockIndex,
		OuterIndex: idx.OuterIndex,
		InnerIndex: idx.InnerIndex,
	}
}
