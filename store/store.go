package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ColumnStore is the pipeline's persistence boundary: every stage reads
// and writes through it, never touching *gorm.DB directly, so a stage can
// be retried or re-run without re-deriving what it already wrote.
type ColumnStore interface {
	SaveTransaction(ctx context.Context, row TransactionRow, keys []AccountKeyRow) error
	SavePartitions(ctx context.Context, rows []PartitionRow) error
	SaveBonbon(ctx context.Context, bonbon BonbonRow, glazings []GlazingRow, transfers []TransferRow) error

	LoadBonbon(ctx context.Context, mint string) (*BonbonRow, []GlazingRow, []TransferRow, error)

	// TransactionsInSlotRange returns every persisted transaction whose
	// slot falls in [startSlot, endSlot], along with its account key table.
	TransactionsInSlotRange(ctx context.Context, startSlot, endSlot int64) ([]TransactionRow, map[string][]AccountKeyRow, error)

	// MintsWithPartitions returns every distinct mint the partitioner has
	// assigned at least one instruction to, so the reassemble stage knows
	// which per-mint workers to start.
	MintsWithPartitions(ctx context.Context) ([]string, error)

	// PartitionsForMint returns every instruction assigned to mint, in no
	// guaranteed order, along with the owning transaction's account keys.
	PartitionsForMint(ctx context.Context, mint string) ([]PartitionRow, map[string][]AccountKeyRow, error)

	// TransactionsBySignatures returns the persisted transaction rows for
	// exactly the given signatures, keyed by signature, so the reassemble
	// stage can recover the raw instructions a PartitionRow only names by
	// (outer_index, inner_index).
	TransactionsBySignatures(ctx context.Context, signatures []string) (map[string]TransactionRow, error)
}

// gormStore implements ColumnStore over PostgreSQL via gorm: a thin
// struct wrapping *gorm.DB with one method per operation rather than
// exposing the DB handle.
type gormStore struct {
	db *gorm.DB
}

// Open connects to dsn and runs AutoMigrate for every row model.
func Open(dsn string) (ColumnStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := db.AutoMigrate(
		&TransactionRow{},
		&AccountKeyRow{},
		&PartitionRow{},
		&BonbonRow{},
		&GlazingRow{},
		&TransferRow{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &gormStore{db: db}, nil
}

func (s *gormStore) SaveTransaction(ctx context.Context, row TransactionRow, keys []AccountKeyRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("store: save transaction: %w", err)
		}
		if len(keys) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&keys).Error; err != nil {
			return fmt.Errorf("store: save account keys: %w", err)
		}
		return nil
	})
}

func (s *gormStore) SavePartitions(ctx context.Context, rows []PartitionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("store: save partitions: %w", err)
	}
	return nil
}

func (s *gormStore) SaveBonbon(ctx context.Context, bonbon BonbonRow, glazings []GlazingRow, transfers []TransferRow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&bonbon).Error; err != nil {
			return fmt.Errorf("store: save bonbon: %w", err)
		}
		if len(glazings) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&glazings).Error; err != nil {
				return fmt.Errorf("store: save glazings: %w", err)
			}
		}
		if len(transfers) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&transfers).Error; err != nil {
				return fmt.Errorf("store: save transfers: %w", err)
			}
		}
		return nil
	})
}

func (s *gormStore) LoadBonbon(ctx context.Context, mint string) (*BonbonRow, []GlazingRow, []TransferRow, error) {
	var bonbon BonbonRow
	if err := s.db.WithContext(ctx).First(&bonbon, "mint = ?", mint).Error; err != nil {
		if gorm.ErrRecordNotFound == err {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, fmt.Errorf("store: load bonbon: %w", err)
	}

	var glazings []GlazingRow
	if err := s.db.WithContext(ctx).Where("mint = ?", mint).Find(&glazings).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("store: load glazings: %w", err)
	}

	var transfers []TransferRow
	if err := s.db.WithContext(ctx).Where("mint = ?", mint).Find(&transfers).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("store: load transfers: %w", err)
	}

	return &bonbon, glazings, transfers, nil
}

func (s *gormStore) TransactionsInSlotRange(ctx context.Context, startSlot, endSlot int64) ([]TransactionRow, map[string][]AccountKeyRow, error) {
	var txs []TransactionRow
	if err := s.db.WithContext(ctx).Where("slot BETWEEN ? AND ?", startSlot, endSlot).Find(&txs).Error; err != nil {
		return nil, nil, fmt.Errorf("store: load transactions: %w", err)
	}

	keys, err := s.accountKeysBySignature(ctx, startSlot, endSlot)
	if err != nil {
		return nil, nil, err
	}
	return txs, keys, nil
}

func (s *gormStore) accountKeysBySignature(ctx context.Context, startSlot, endSlot int64) (map[string][]AccountKeyRow, error) {
	var rows []AccountKeyRow
	if err := s.db.WithContext(ctx).Where("slot BETWEEN ? AND ?", startSlot, endSlot).Order("index asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load account keys: %w", err)
	}

	out := make(map[string][]AccountKeyRow)
	for _, r := range rows {
		out[r.Signature] = append(out[r.Signature], r)
	}
	return out, nil
}

func (s *gormStore) TransactionsBySignatures(ctx context.Context, signatures []string) (map[string]TransactionRow, error) {
	if len(signatures) == 0 {
		return map[string]TransactionRow{}, nil
	}

	var rows []TransactionRow
	if err := s.db.WithContext(ctx).Where("signature IN ?", signatures).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: load transactions by signature: %w", err)
	}

	out := make(map[string]TransactionRow, len(rows))
	for _, r := range rows {
		out[r.Signature] = r
	}
	return out, nil
}

func (s *gormStore) MintsWithPartitions(ctx context.Context) ([]string, error) {
	var mints []string
	if err := s.db.WithContext(ctx).Model(&PartitionRow{}).Where("mint IS NOT NULL").Distinct("mint").Pluck("mint", &mints).Error; err != nil {
		return nil, fmt.Errorf("store: list mints: %w", err)
	}
	return mints, nil
}

func (s *gormStore) PartitionsForMint(ctx context.Context, mint string) ([]PartitionRow, map[string][]AccountKeyRow, error) {
	var rows []PartitionRow
	if err := s.db.WithContext(ctx).Where("mint = ?", mint).Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("store: load partitions for mint: %w", err)
	}

	if len(rows) == 0 {
		return rows, nil, nil
	}

	signatures := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Signature] {
			seen[r.Signature] = true
			signatures = append(signatures, r.Signature)
		}
	}

	var keyRows []AccountKeyRow
	if err := s.db.WithContext(ctx).Where("signature IN ?", signatures).Order("index asc").Find(&keyRows).Error; err != nil {
		return nil, nil, fmt.Errorf("store: load account keys for mint: %w", err)
	}

	keys := make(map[string][]AccountKeyRow)
	for _, kr := range keyRows {
		keys[kr.Signature] = append(keys[kr.Signature], kr)
	}

	return rows, keys, nil
}
