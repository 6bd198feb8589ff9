package blockstore

import (
	"fmt"

	"github.com/portto/solana-go-sdk/client"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// convertTransaction adapts one RPC-shaped confirmed transaction into this
// repo's own types. This is the one place in the repo that trusts an
// external library's exact field shapes rather than a bit-exact protocol
// this system defines itself; everything past this function operates only
// on ledger.CompiledInstruction/AccountKeys.
func convertTransaction(tx client.GetBlockTransaction) (Transaction, error) {
	keys, err := convertAccountKeys(tx)
	if err != nil {
		return Transaction{}, err
	}

	outer := make([]ledger.CompiledInstruction, 0, len(tx.Transaction.Message.Instructions))
	for _, ix := range tx.Transaction.Message.Instructions {
		outer = append(outer, ledger.CompiledInstruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       ix.Accounts,
			Data:           ix.Data,
		})
	}

	inner := make(map[int][]ledger.CompiledInstruction)
	if tx.Meta != nil {
		for _, group := range tx.Meta.InnerInstructions {
			converted := make([]ledger.CompiledInstruction, 0, len(group.Instructions))
			for _, ix := range group.Instructions {
				converted = append(converted, ledger.CompiledInstruction{
					ProgramIDIndex: ix.ProgramIDIndex,
					Accounts:       ix.Accounts,
					Data:           ix.Data,
				})
			}
			inner[group.Index] = converted
		}
	}

	var pre, post []TokenBalance
	if tx.Meta != nil {
		pre, err = convertTokenBalances(tx.Meta.PreTokenBalances)
		if err != nil {
			return Transaction{}, err
		}
		post, err = convertTokenBalances(tx.Meta.PostTokenBalances)
		if err != nil {
			return Transaction{}, err
		}
	}

	return Transaction{
		Signature:    firstSignature(tx),
		AccountKeys:  keys,
		Outer:        outer,
		Inner:        inner,
		PreBalances:  pre,
		PostBalances: post,
	}, nil
}

// convertAccountKeys flattens the transaction's static account keys and
// any address-lookup-table keys the RPC node already resolved, in the
// order the wire format defines: static keys, then writable lookup keys,
// then readonly lookup keys.
func convertAccountKeys(tx client.GetBlockTransaction) (ledger.AccountKeys, error) {
	var keys ledger.AccountKeys

	for _, k := range tx.Transaction.Message.AccountKeys {
		pk, err := ledger.PubkeyFromBase58(k)
		if err != nil {
			return nil, fmt.Errorf("account key: %w", err)
		}
		keys = append(keys, pk)
	}

	if tx.Meta != nil {
		for _, k := range tx.Meta.LoadedAddresses.Writable {
			pk, err := ledger.PubkeyFromBase58(k)
			if err != nil {
				return nil, fmt.Errorf("loaded writable key: %w", err)
			}
			keys = append(keys, pk)
		}
		for _, k := range tx.Meta.LoadedAddresses.Readonly {
			pk, err := ledger.PubkeyFromBase58(k)
			if err != nil {
				return nil, fmt.Errorf("loaded readonly key: %w", err)
			}
			keys = append(keys, pk)
		}
	}

	return keys, nil
}

func convertTokenBalances(in []client.TransactionMetaTokenBalance) ([]TokenBalance, error) {
	out := make([]TokenBalance, 0, len(in))
	for _, b := range in {
		mint, err := ledger.PubkeyFromBase58(b.Mint)
		if err != nil {
			return nil, fmt.Errorf("token balance mint: %w", err)
		}
		var owner ledger.Pubkey
		if b.Owner != "" {
			owner, err = ledger.PubkeyFromBase58(b.Owner)
			if err != nil {
				return nil, fmt.Errorf("token balance owner: %w", err)
			}
		}
		out = append(out, TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         mint,
			Owner:        owner,
			Decimals:     b.UiTokenAmount.Decimals,
			Amount:       b.UiTokenAmount.Amount,
		})
	}
	return out, nil
}

func firstSignature(tx client.GetBlockTransaction) string {
	if len(tx.Transaction.Signatures) == 0 {
		return ""
	}
	return tx.Transaction.Signatures[0]
}
