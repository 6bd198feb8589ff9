package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"gorm.io/datatypes"

	"github.com/bonbon-indexer/bonbon/assemble"
	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/ownertrack"
	"github.com/bonbon-indexer/bonbon/store"
)

// ReassembleWorkers is the bounded fan-out for concurrent per-mint
// reassembly. Every worker shares one ownertrack.Tracker, since an account
// opened while replaying one mint's history may be the account a later
// transfer on a different mint resolves against.
const ReassembleWorkers = 16

// ReassembleAll replays every mint the partition stage has assigned at
// least one instruction to, and persists the resulting Bonbon. Mints are
// processed concurrently; instructions within one mint are always replayed
// in ledger order, never concurrently, since Bonbon.Update depends on the
// accumulated state of every instruction before it.
func ReassembleAll(ctx context.Context, cs store.ColumnStore) error {
	mints, err := cs.MintsWithPartitions(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: list mints: %w", err)
	}

	pool, err := ants.NewPool(ReassembleWorkers)
	if err != nil {
		return fmt.Errorf("pipeline: create reassemble pool: %w", err)
	}
	defer pool.Release()

	tracker := ownertrack.New()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, mint := range mints {
		mint := mint
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ReassembleMint(ctx, cs, tracker, mint); err != nil {
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
				firstErr = fmt.Errorf("pipeline: submit reassemble for mint %s: %w", mint, submitErr)
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	return firstErr
}

// ReassembleMint replays every instruction partitioned to mint, in ledger
// order, into a Bonbon and persists it.
func ReassembleMint(ctx context.Context, cs store.ColumnStore, resolver assemble.OwnerResolver, mint string) error {
	rows, keysBySignature, err := cs.PartitionsForMint(ctx, mint)
	if err != nil {
		return fmt.Errorf("pipeline: load partitions for mint %s: %w", mint, err)
	}
	if len(rows) == 0 {
		return nil
	}

	sort.Slice(rows, func(i, j int) bool {
		return rowIndex(rows[i]).Less(rowIndex(rows[j]))
	})

	signatures := distinctSignatures(rows)
	txRows, err := cs.TransactionsBySignatures(ctx, signatures)
	if err != nil {
		return fmt.Errorf("pipeline: load transactions for mint %s: %w", mint, err)
	}

	decoded := make(map[string]decodedTx, len(txRows))
	for sig, row := range txRows {
		tx, err := decodeTransaction(row, keysBySignature[sig])
		if err != nil {
			return fmt.Errorf("pipeline: decode signature %s: %w", sig, err)
		}
		decoded[sig] = decodedTx{accountKeys: tx.AccountKeys, outer: tx.Outer, inner: tx.Inner}
	}

	mintKey, err := ledger.PubkeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("pipeline: mint %s: %w", mint, err)
	}
	bonbon := assemble.New(mintKey)

	for _, row := range rows {
		tx, ok := decoded[row.Signature]
		if !ok {
			return fmt.Errorf("pipeline: missing decoded transaction for signature %s", row.Signature)
		}

		ix, err := instructionAt(tx, row.OuterIndex, row.InnerIndex)
		if err != nil {
			return fmt.Errorf("pipeline: locate instruction for mint %s signature %s: %w", mint, row.Signature, err)
		}

		programKey, err := tx.accountKeys.ProgramKey(&ix)
		if err != nil {
			return fmt.Errorf("pipeline: program key for mint %s signature %s: %w", mint, row.Signature, err)
		}

		// The back-reference from a limited edition to its master mint is
		// resolved by the partition stage's registry, which does not
		// survive across pipeline stages; a Bonbon's Limited.Master is left
		// zero-valued here until that registry is itself persisted.
		err = bonbon.Update(assemble.UpdateContext{
			Index:       rowIndex(row),
			ProgramKey:  programKey,
			Instruction: ix,
			AccountKeys: tx.accountKeys,
			Resolver:    resolver,
		})
		if err != nil {
			return fmt.Errorf("pipeline: update mint %s signature %s: %w", mint, row.Signature, err)
		}
	}

	bonbonRow, glazingRows, transferRows := encodeBonbon(bonbon)
	if err := cs.SaveBonbon(ctx, bonbonRow, glazingRows, transferRows); err != nil {
		return fmt.Errorf("pipeline: save bonbon %s: %w", mint, err)
	}
	return nil
}

type decodedTx struct {
	accountKeys ledger.AccountKeys
	outer       []ledger.CompiledInstruction
	inner       map[int][]ledger.CompiledInstruction
}

func instructionAt(tx decodedTx, outerIndex int64, innerIndex *int64) (ledger.CompiledInstruction, error) {
	if innerIndex != nil {
		group := tx.inner[int(outerIndex)]
		if int(*innerIndex) >= len(group) {
			return ledger.CompiledInstruction{}, fmt.Errorf("inner index %d out of range for outer %d", *innerIndex, outerIndex)
		}
		return group[*innerIndex], nil
	}
	if int(outerIndex) >= len(tx.outer) {
		return ledger.CompiledInstruction{}, fmt.Errorf("outer index %d out of range", outerIndex)
	}
	return tx.outer[outerIndex], nil
}

func rowIndex(row store.PartitionRow) ledger.InstructionIndex {
	r := row.Index.Data()
	return ledger.InstructionIndex{
		Slot:       r.Slot,
		BlockIndex: r.BlockIndex,
		OuterIndex: r.OuterIndex,
		InnerIndex: r.InnerIndex,
	}
}

func distinctSignatures(rows []store.PartitionRow) []string {
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if !seen[r.Signature] {
			seen[r.Signature] = true
			out = append(out, r.Signature)
		}
	}
	return out
}

// encodeBonbon converts an assembled Bonbon into the rows the column store
// persists.
func encodeBonbon(b *assemble.Bonbon) (store.BonbonRow, []store.GlazingRow, []store.TransferRow) {
	row := store.BonbonRow{
		Mint:          b.Mint.String(),
		MetadataKey:   b.MetadataKey.String(),
		MintAuthority: b.MintAuthority.String(),
		EditionStatus: editionStatusString(b.EditionStatus),
	}
	if b.Limited != nil {
		master := b.Limited.Master.String()
		row.MasterKey = &master
		editionNumber := int64(b.Limited.EditionNumber)
		row.EditionNumber = &editionNumber
	}
	if b.CurrentOwner != nil {
		owner := b.CurrentOwner.Owner.String()
		account := b.CurrentOwner.Account.String()
		row.CurrentOwnerOwner = &owner
		row.CurrentOwnerAccount = &account
	}

	glazings := make([]store.GlazingRow, len(b.Glazings))
	for i, g := range b.Glazings {
		creators := make([]store.CreatorRow, len(g.Creators))
		for j, c := range g.Creators {
			creators[j] = store.CreatorRow{Address: c.Address.String(), Verified: c.Verified, Share: c.Share}
		}
		var collection *store.CollectionRow
		if g.Collection != nil {
			collection = &store.CollectionRow{Verified: g.Collection.Verified, Key: g.Collection.Key.String()}
		}
		glazings[i] = store.GlazingRow{
			Mint:                 row.Mint,
			Index:                datatypes.NewJSONType(indexRow(g.Index)),
			Name:                 g.Name,
			Symbol:               g.Symbol,
			URI:                  g.URI,
			SellerFeeBasisPoints: g.SellerFeeBasisPoints,
			Creators:             datatypes.NewJSONType(creators),
			Collection:           datatypes.NewJSONType(collection),
		}
	}

	transfers := make([]store.TransferRow, len(b.Transfers))
	for i, t := range b.Transfers {
		tr := store.TransferRow{Mint: row.Mint, Index: datatypes.NewJSONType(indexRow(t.Index))}
		if t.Start != nil {
			startOwner, startAccount := t.Start.Owner.String(), t.Start.Account.String()
			tr.Start = &startOwner
			tr.StartAccount = &startAccount
		}
		if t.End != nil {
			endOwner, endAccount := t.End.Owner.String(), t.End.Account.String()
			tr.End = &endOwner
			tr.EndAccount = &endAccount
		}
		transfers[i] = tr
	}

	return row, glazings, transfers
}

func editionStatusString(s assemble.EditionStatus) string {
	switch s {
	case assemble.EditionMaster:
		return "master"
	case assemble.EditionLimited:
		return "limited"
	default:
		return "none"
	}
}
