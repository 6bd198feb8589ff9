// Package pipeline wires the three stages (fetch, partition, reassemble)
// together through the column store, running each with a bounded
// panjf2000/ants worker pool rather than one goroutine per block or mint.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/bonbon-indexer/bonbon/blockstore"
	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/partition"
	"github.com/bonbon-indexer/bonbon/store"
)

// instructionDTO is the JSON-on-disk shape of a ledger.CompiledInstruction.
type instructionDTO struct {
	ProgramIDIndex uint8  `json:"program_id_index"`
	Accounts       []byte `json:"accounts"`
	Data           []byte `json:"data"`
}

func toInstructionDTO(ix ledger.CompiledInstruction) instructionDTO {
	return instructionDTO{ProgramIDIndex: ix.ProgramIDIndex, Accounts: ix.Accounts, Data: ix.Data}
}

func (d instructionDTO) toInstruction() ledger.CompiledInstruction {
	return ledger.CompiledInstruction{ProgramIDIndex: d.ProgramIDIndex, Accounts: d.Accounts, Data: d.Data}
}

type tokenBalanceDTO struct {
	AccountIndex uint8  `json:"account_index"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner"`
	Decimals     uint8  `json:"decimals"`
	Amount       string `json:"amount"`
}

func toTokenBalanceDTO(b blockstore.TokenBalance) tokenBalanceDTO {
	return tokenBalanceDTO{
		AccountIndex: b.AccountIndex,
		Mint:         b.Mint.String(),
		Owner:        b.Owner.String(),
		Decimals:     b.Decimals,
		Amount:       b.Amount,
	}
}

func (d tokenBalanceDTO) toTokenBalance() (partition.TokenBalance, error) {
	mint, err := ledger.PubkeyFromBase58(d.Mint)
	if err != nil {
		return partition.TokenBalance{}, fmt.Errorf("pipeline: token balance mint: %w", err)
	}
	var owner ledger.Pubkey
	if d.Owner != "" {
		owner, err = ledger.PubkeyFromBase58(d.Owner)
		if err != nil {
			return partition.TokenBalance{}, fmt.Errorf("pipeline: token balance owner: %w", err)
		}
	}
	return partition.TokenBalance{
		AccountIndex: d.AccountIndex,
		Mint:         mint,
		Owner:        owner,
		Decimals:     d.Decimals,
		Amount:       d.Amount,
	}, nil
}

// encodeTransaction converts a fetched block transaction into the row
// shape persisted by the fetch stage.
func encodeTransaction(slot int64, tx blockstore.Transaction) (store.TransactionRow, []store.AccountKeyRow, error) {
	outerDTOs := make([]instructionDTO, len(tx.Outer))
	for i, ix := range tx.Outer {
		outerDTOs[i] = toInstructionDTO(ix)
	}
	outerJSON, err := json.Marshal(outerDTOs)
	if err != nil {
		return store.TransactionRow{}, nil, fmt.Errorf("pipeline: encode outer instructions: %w", err)
	}

	innerDTOs := make(map[string][]instructionDTO, len(tx.Inner))
	for outerIdx, ixs := range tx.Inner {
		dtos := make([]instructionDTO, len(ixs))
		for i, ix := range ixs {
			dtos[i] = toInstructionDTO(ix)
		}
		innerDTOs[fmt.Sprintf("%d", outerIdx)] = dtos
	}
	innerJSON, err := json.Marshal(innerDTOs)
	if err != nil {
		return store.TransactionRow{}, nil, fmt.Errorf("pipeline: encode inner instructions: %w", err)
	}

	preDTOs := make([]tokenBalanceDTO, len(tx.PreBalances))
	for i, b := range tx.PreBalances {
		preDTOs[i] = toTokenBalanceDTO(b)
	}
	preJSON, err := json.Marshal(preDTOs)
	if err != nil {
		return store.TransactionRow{}, nil, fmt.Errorf("pipeline: encode pre balances: %w", err)
	}

	postDTOs := make([]tokenBalanceDTO, len(tx.PostBalances))
	for i, b := range tx.PostBalances {
		postDTOs[i] = toTokenBalanceDTO(b)
	}
	postJSON, err := json.Marshal(postDTOs)
	if err != nil {
		return store.TransactionRow{}, nil, fmt.Errorf("pipeline: encode post balances: %w", err)
	}

	row := store.TransactionRow{
		Slot:         slot,
		Signature:    tx.Signature,
		BlockIndex:   tx.TxIndex,
		Outer:        outerJSON,
		Inner:        innerJSON,
		PreBalances:  preJSON,
		PostBalances: postJSON,
	}

	keyRows := make([]store.AccountKeyRow, len(tx.AccountKeys))
	for i, k := range tx.AccountKeys {
		keyRows[i] = store.AccountKeyRow{Slot: slot, Signature: tx.Signature, Index: int32(i), Key: k.String()}
	}

	return row, keyRows, nil
}

// decodeTransaction is encodeTransaction's inverse, used by the partition
// stage to rebuild a partition.Transaction from persisted rows.
func decodeTransaction(row store.TransactionRow, keyRows []store.AccountKeyRow) (partition.Transaction, error) {
	var outerDTOs []instructionDTO
	if err := json.Unmarshal(row.Outer, &outerDTOs); err != nil {
		return partition.Transaction{}, fmt.Errorf("pipeline: decode outer instructions: %w", err)
	}
	outer := make([]ledger.CompiledInstruction, len(outerDTOs))
	for i, d := range outerDTOs {
		outer[i] = d.toInstruction()
	}

	var innerDTOs map[string][]instructionDTO
	if err := json.Unmarshal(row.Inner, &innerDTOs); err != nil {
		return partition.Transaction{}, fmt.Errorf("pipeline: decode inner instructions: %w", err)
	}
	inner := make(map[int][]ledger.CompiledInstruction, len(innerDTOs))
	for k, dtos := range innerDTOs {
		var outerIdx int
		if _, err := fmt.Sscanf(k, "%d", &outerIdx); err != nil {
			return partition.Transaction{}, fmt.Errorf("pipeline: decode inner instruction key %q: %w", k, err)
		}
		ixs := make([]ledger.CompiledInstruction, len(dtos))
		for i, d := range dtos {
			ixs[i] = d.toInstruction()
		}
		inner[outerIdx] = ixs
	}

	pre, err := decodeTokenBalances(row.PreBalances)
	if err != nil {
		return partition.Transaction{}, err
	}
	post, err := decodeTokenBalances(row.PostBalances)
	if err != nil {
		return partition.Transaction{}, err
	}

	keys := make(ledger.AccountKeys, len(keyRows))
	for _, kr := range keyRows {
		pk, err := ledger.PubkeyFromBase58(kr.Key)
		if err != nil {
			return partition.Transaction{}, fmt.Errorf("pipeline: decode account key: %w", err)
		}
		if int(kr.Index) >= len(keys) {
			grown := make(ledger.AccountKeys, kr.Index+1)
			copy(grown, keys)
			keys = grown
		}
		keys[kr.Index] = pk
	}

	return partition.Transaction{
		Slot:         row.Slot,
		BlockIndex:   row.BlockIndex,
		AccountKeys:  keys,
		Outer:        outer,
		Inner:        inner,
		PreBalances:  pre,
		PostBalances: post,
	}, nil
}

func decodeTokenBalances(raw []byte) ([]partition.TokenBalance, error) {
	var dtos []tokenBalanceDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("pipeline: decode token balances: %w", err)
	}
	out := make([]partition.TokenBalance, len(dtos))
	for i, d := range dtos {
		b, err := d.toTokenBalance()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
