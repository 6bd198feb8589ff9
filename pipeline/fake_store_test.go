package pipeline_test

import (
	"context"
	"sync"

	"github.com/bonbon-indexer/bonbon/store"
)

// fakeStore is an in-memory store.ColumnStore for testing the pipeline
// drivers without a real database, mirroring only the query shapes the
// drivers actually issue.
type fakeStore struct {
	mu sync.Mutex

	transactions map[string]store.TransactionRow
	accountKeys  map[string][]store.AccountKeyRow
	partitions   []store.PartitionRow
	bonbons      map[string]store.BonbonRow
	glazings     map[string][]store.GlazingRow
	transfers    map[string][]store.TransferRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[string]store.TransactionRow),
		accountKeys:  make(map[string][]store.AccountKeyRow),
		bonbons:      make(map[string]store.BonbonRow),
		glazings:     make(map[string][]store.GlazingRow),
		transfers:    make(map[string][]store.TransferRow),
	}
}

func (f *fakeStore) SaveTransaction(ctx context.Context, row store.TransactionRow, keys []store.AccountKeyRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[row.Signature] = row
	f.accountKeys[row.Signature] = keys
	return nil
}

func (f *fakeStore) SavePartitions(ctx context.Context, rows []store.PartitionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partitions = append(f.partitions, rows...)
	return nil
}

func (f *fakeStore) SaveBonbon(ctx context.Context, bonbon store.BonbonRow, glazings []store.GlazingRow, transfers []store.TransferRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bonbons[bonbon.Mint] = bonbon
	f.glazings[bonbon.Mint] = glazings
	f.transfers[bonbon.Mint] = transfers
	return nil
}

func (f *fakeStore) LoadBonbon(ctx context.Context, mint string) (*store.BonbonRow, []store.GlazingRow, []store.TransferRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.bonbons[mint]
	if !ok {
		return nil, nil, nil, nil
	}
	return &row, f.glazings[mint], f.transfers[mint], nil
}

func (f *fakeStore) TransactionsInSlotRange(ctx context.Context, startSlot, endSlot int64) ([]store.TransactionRow, map[string][]store.AccountKeyRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.TransactionRow
	keys := make(map[string][]store.AccountKeyRow)
	for sig, row := range f.transactions {
		if row.Slot < startSlot || row.Slot > endSlot {
			continue
		}
		out = append(out, row)
		keys[sig] = f.accountKeys[sig]
	}
	return out, keys, nil
}

func (f *fakeStore) MintsWithPartitions(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range f.partitions {
		if p.Mint == nil || seen[*p.Mint] {
			continue
		}
		seen[*p.Mint] = true
		out = append(out, *p.Mint)
	}
	return out, nil
}

func (f *fakeStore) PartitionsForMint(ctx context.Context, mint string) ([]store.PartitionRow, map[string][]store.AccountKeyRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []store.PartitionRow
	seen := make(map[string]bool)
	keys := make(map[string][]store.AccountKeyRow)
	for _, p := range f.partitions {
		if p.Mint == nil || *p.Mint != mint {
			continue
		}
		rows = append(rows, p)
		if !seen[p.Signature] {
			seen[p.Signature] = true
			keys[p.Signature] = f.accountKeys[p.Signature]
		}
	}
	return rows, keys, nil
}

func (f *fakeStore) TransactionsBySignatures(ctx context.Context, signatures []string) (map[string]store.TransactionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]store.TransactionRow, len(signatures))
	for _, sig := range signatures {
		if row, ok := f.transactions[sig]; ok {
			out[sig] = row
		}
	}
	return out, nil
}

var _ store.ColumnStore = (*fakeStore)(nil)
