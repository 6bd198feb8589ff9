package partition

import "github.com/bonbon-indexer/bonbon/ledger"

// TokenBalance is one entry of a transaction's pre- or post-token-balance
// snapshot list, as attached to a confirmed transaction by the ledger.
type TokenBalance struct {
	AccountIndex uint8
	Mint         ledger.Pubkey
	Owner        ledger.Pubkey
	Decimals     uint8
	Amount       string // raw base-unit amount, as a decimal string
}

// TransactionTokenMeta is what the Partitioner actually needs to know about
// a token account touched within one transaction: its mint and owner, and
// whatever amount it held immediately before and after the transaction.
// Either amount may be absent — a freshly initialized or fully closed
// account has no balance on one side.
type TransactionTokenMeta struct {
	Mint       ledger.Pubkey
	Owner      ledger.Pubkey
	Decimals   uint8
	PreAmount  *string
	PostAmount *string
}

// metaFromBalances merges a transaction's pre- and post-balance snapshot
// lists into one TransactionTokenMeta per touched account index. A pre-only
// entry means the account was closed during the transaction; a post-only
// entry means it was created during it.
func metaFromBalances(pre, post []TokenBalance) map[uint8]TransactionTokenMeta {
	out := make(map[uint8]TransactionTokenMeta)

	for _, b := range pre {
		amount := b.Amount
		out[b.AccountIndex] = TransactionTokenMeta{
			Mint:      b.Mint,
			Owner:     b.Owner,
			Decimals:  b.Decimals,
			PreAmount: &amount,
		}
	}
	for _, b := range post {
		amount := b.Amount
		if existing, ok := out[b.AccountIndex]; ok {
			// The pre snapshot, seen first, keeps its mint/owner/decimals;
			// the post snapshot only contributes its amount.
			existing.PostAmount = &amount
			out[b.AccountIndex] = existing
			continue
		}
		out[b.AccountIndex] = TransactionTokenMeta{
			Mint:       b.Mint,
			Owner:      b.Owner,
			Decimals:   b.Decimals,
			PostAmount: &amount,
		}
	}

	return out
}

// heuristicTokenMetaOK is the NFT-plausibility admission rule: zero
// decimals, and any recorded amount is absent or a single base-unit digit
// ("0" or "1"). A fungible token with many decimals, or any account ever
// observed holding more than one base unit, can never be an NFT's token
// account and is rejected up front rather than threaded through the
// assembler.
func heuristicTokenMetaOK(meta TransactionTokenMeta) bool {
	if meta.Decimals != 0 {
		return false
	}
	return amountPlausible(meta.PreAmount) && amountPlausible(meta.PostAmount)
}

func amountPlausible(amount *string) bool {
	if amount == nil {
		return true
	}
	switch *amount {
	case "", "0", "1":
		return true
	default:
		return false
	}
}
