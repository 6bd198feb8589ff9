// Package partition implements the first pipeline stage: classifying every
// instruction in a confirmed transaction by which mint's history it belongs
// to (its "partition key"), or recording why it was not assigned one.
package partition

import (
	"errors"
	"sort"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/metaplex"
	"github.com/bonbon-indexer/bonbon/pda"
	"github.com/bonbon-indexer/bonbon/tokenprog"
)

// TokenProgramID is the fungible-token program's own address.
var TokenProgramID = mustPubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

func mustPubkey(s string) ledger.Pubkey {
	k, err := ledger.PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Reason records why an instruction was not assigned to a partition.
type Reason int

const (
	ReasonUnrelatedProgram Reason = iota
	ReasonUninterestingVariant
	ReasonNotNFTPlausible
	ReasonUnknownMetadataAccount
	ReasonCouldNotResolveMint
)

func (r Reason) String() string {
	switch r {
	case ReasonUnrelatedProgram:
		return "unrelated_program"
	case ReasonUninterestingVariant:
		return "uninteresting_variant"
	case ReasonNotNFTPlausible:
		return "not_nft_plausible"
	case ReasonUnknownMetadataAccount:
		return "unknown_metadata_account"
	case ReasonCouldNotResolveMint:
		return "could_not_resolve_mint"
	default:
		return "unknown"
	}
}

// OtherInstruction is an instruction the Partitioner deliberately did not
// assign to any mint's history, along with why.
type OtherInstruction struct {
	Index  ledger.InstructionIndex
	Reason Reason
}

// PartitionedInstruction is an instruction assigned to a mint's history.
type PartitionedInstruction struct {
	Index ledger.InstructionIndex
	Mint  ledger.Pubkey
}

// Partitions is the Partitioner's output for one transaction.
type Partitions struct {
	Assigned []PartitionedInstruction
	Other    []OtherInstruction
}

// ErrUnresolvedTransientMeta is returned when a transaction ends with
// provisional token-account bookkeeping still open: every account a
// transaction initializes without a balance snapshot covering it must be
// closed before the transaction ends.
var ErrUnresolvedTransientMeta = errors.New("partition: unresolved transient token account at end of transaction")

// transientMeta is what the Partitioner remembers about a token account
// initialized mid-transaction, for transactions old enough that the ledger
// attaches no pre/post balance snapshot for it.
type transientMeta struct {
	mint  ledger.Pubkey
	owner ledger.Pubkey
}

// Partitioner holds the cross-transaction state the partition stage needs:
// the metadata-account-to-mint registry. It is safe to reuse across many
// transactions in a run, and must be, since later transactions may
// reference metadata accounts only ever seen as a CreateMetadataAccount in
// an earlier one.
type Partitioner struct {
	Registry *Registry
}

// NewPartitioner returns a Partitioner with a fresh registry.
func NewPartitioner() *Partitioner {
	return &Partitioner{Registry: NewRegistry()}
}

// Transaction is the instruction data partition_transaction needs: the
// account key table, the outer instruction list in program order, any
// inner (CPI) instructions keyed by their containing outer index, and the
// pre/post token balance snapshots.
type Transaction struct {
	Slot         int64
	BlockIndex   int64
	AccountKeys  ledger.AccountKeys
	Outer        []ledger.CompiledInstruction
	Inner        map[int][]ledger.CompiledInstruction
	PreBalances  []TokenBalance
	PostBalances []TokenBalance
}

// PartitionTransaction classifies every instruction in tx, inner
// instructions before the outer instruction that invoked them, per the
// ledger's total instruction order.
func (p *Partitioner) PartitionTransaction(tx Transaction) (Partitions, error) {
	metaByAccount := metaFromBalances(tx.PreBalances, tx.PostBalances)
	transients := make(map[ledger.Pubkey]transientMeta)

	var out Partitions

	for outerIdx, outer := range tx.Outer {
		for innerIdx, inner := range tx.Inner[outerIdx] {
			idx := ledger.InstructionIndex{
				Slot:       tx.Slot,
				BlockIndex: tx.BlockIndex,
				OuterIndex: int64(outerIdx),
				InnerIndex: int64Ptr(int64(innerIdx)),
			}
			if err := p.partitionOne(idx, inner, tx.AccountKeys, metaByAccount, transients, &out); err != nil {
				return Partitions{}, err
			}
		}

		idx := ledger.InstructionIndex{
			Slot:       tx.Slot,
			BlockIndex: tx.BlockIndex,
			OuterIndex: int64(outerIdx),
		}
		if err := p.partitionOne(idx, outer, tx.AccountKeys, metaByAccount, transients, &out); err != nil {
			return Partitions{}, err
		}
	}

	if len(transients) != 0 {
		return Partitions{}, ErrUnresolvedTransientMeta
	}

	sort.Slice(out.Assigned, func(i, j int) bool { return out.Assigned[i].Index.Less(out.Assigned[j].Index) })
	sort.Slice(out.Other, func(i, j int) bool { return out.Other[i].Index.Less(out.Other[j].Index) })

	return out, nil
}

func int64Ptr(v int64) *int64 { return &v }

func (p *Partitioner) partitionOne(
	idx ledger.InstructionIndex,
	ix ledger.CompiledInstruction,
	keys ledger.AccountKeys,
	metaByAccount map[uint8]TransactionTokenMeta,
	transients map[ledger.Pubkey]transientMeta,
	out *Partitions,
) error {
	programKey, err := keys.ProgramKey(&ix)
	if err != nil {
		return err
	}

	switch programKey {
	case TokenProgramID:
		mint, reason, err := partitionTokenInstruction(ix, keys, metaByAccount, transients)
		if err != nil {
			return err
		}
		recordResult(out, idx, mint, reason)

	case pda.MetadataProgramID:
		mint, reason, err := partitionMetadataInstruction(ix, keys, p.Registry)
		if err != nil {
			return err
		}
		recordResult(out, idx, mint, reason)

	default:
		out.Other = append(out.Other, OtherInstruction{Index: idx, Reason: ReasonUnrelatedProgram})
	}

	return nil
}

func recordResult(out *Partitions, idx ledger.InstructionIndex, mint *ledger.Pubkey, reason Reason) {
	if mint != nil {
		out.Assigned = append(out.Assigned, PartitionedInstruction{Index: idx, Mint: *mint})
		return
	}
	out.Other = append(out.Other, OtherInstruction{Index: idx, Reason: reason})
}

// partitionTokenInstruction classifies one fungible-token-program
// instruction. It resolves the touched account's mint from the
// transaction's balance snapshot when available, falling back to
// transient bookkeeping seeded by an earlier InitializeAccount in the same
// transaction for historical ranges that carry no snapshot.
func partitionTokenInstruction(
	ix ledger.CompiledInstruction,
	keys ledger.AccountKeys,
	metaByAccount map[uint8]TransactionTokenMeta,
	transients map[ledger.Pubkey]transientMeta,
) (*ledger.Pubkey, Reason, error) {
	decoded, err := tokenprog.Unpack(ix.Data)
	if err != nil {
		return nil, 0, err
	}

	switch decoded.Kind {
	case tokenprog.KindInitializeMint, tokenprog.KindInitializeMint2:
		if decoded.Decimals != 0 {
			return nil, ReasonNotNFTPlausible, nil
		}
		mintKey, err := keys.Account(&ix, 0)
		if err != nil {
			return nil, 0, err
		}
		return &mintKey, 0, nil

	case tokenprog.KindInitializeAccount, tokenprog.KindInitializeAccount2, tokenprog.KindInitializeAccount3:
		accountKey, err := keys.Account(&ix, 0)
		if err != nil {
			return nil, 0, err
		}
		mintKey, err := keys.Account(&ix, 1)
		if err != nil {
			return nil, 0, err
		}

		meta, ok := metaByAccount[ix.Accounts[0]]
		if !ok {
			// No balance snapshot covers this account (old slot range, or
			// an account opened and used entirely within this
			// transaction) — remember it ourselves until CloseAccount
			// removes it.
			var owner ledger.Pubkey
			if decoded.HasOwner {
				owner = decoded.Owner
			} else if o, err := keys.Account(&ix, 2); err == nil {
				owner = o
			}
			transients[accountKey] = transientMeta{mint: mintKey, owner: owner}
			return &mintKey, 0, nil
		}

		if !heuristicTokenMetaOK(meta) {
			return nil, ReasonNotNFTPlausible, nil
		}
		return &mintKey, 0, nil

	case tokenprog.KindTransfer, tokenprog.KindTransferChecked,
		tokenprog.KindBurn, tokenprog.KindBurnChecked,
		tokenprog.KindSetAuthority:
		mint, reason, err := resolveMint(ix, keys, 0, metaByAccount, transients)
		if err != nil || reason != 0 {
			return nil, reason, err
		}
		return mint, 0, nil

	case tokenprog.KindMintTo, tokenprog.KindMintToChecked:
		// MintTo's account order is [mint, destination_account, authority] —
		// the reverse of Transfer/Burn, whose first account is the token
		// account the balance snapshot and transient bookkeeping are keyed
		// on. The destination account is accounts[1] here.
		mint, reason, err := resolveMint(ix, keys, 1, metaByAccount, transients)
		if err != nil || reason != 0 {
			return nil, reason, err
		}
		return mint, 0, nil

	case tokenprog.KindCloseAccount:
		accountKey, err := keys.Account(&ix, 0)
		if err == nil {
			delete(transients, accountKey)
		}
		return nil, ReasonUninterestingVariant, nil

	default:
		return nil, ReasonUninterestingVariant, nil
	}
}

// resolveMint finds the mint backing the token account at accounts[position],
// preferring the transaction's balance snapshot and falling back to
// transient bookkeeping, then applies the NFT-plausibility heuristic.
func resolveMint(
	ix ledger.CompiledInstruction,
	keys ledger.AccountKeys,
	position int,
	metaByAccount map[uint8]TransactionTokenMeta,
	transients map[ledger.Pubkey]transientMeta,
) (*ledger.Pubkey, Reason, error) {
	if position >= len(ix.Accounts) {
		return nil, 0, ledger.ErrBadAccountKeyIndex
	}
	accountIndex := ix.Accounts[position]

	if meta, ok := metaByAccount[accountIndex]; ok {
		if !heuristicTokenMetaOK(meta) {
			return nil, ReasonNotNFTPlausible, nil
		}
		mint := meta.Mint
		return &mint, 0, nil
	}

	accountKey, err := keys.Account(&ix, position)
	if err != nil {
		return nil, 0, err
	}
	if t, ok := transients[accountKey]; ok {
		mint := t.mint
		return &mint, 0, nil
	}

	return nil, ReasonCouldNotResolveMint, nil
}

// partitionMetadataInstruction classifies one token-metadata-program
// instruction. The Create* variants carry the mint directly and seed the
// registry; every other variant resolves its mint by looking up the
// metadata account it names.
func partitionMetadataInstruction(
	ix ledger.CompiledInstruction,
	keys ledger.AccountKeys,
	registry *Registry,
) (*ledger.Pubkey, Reason, error) {
	decoded, err := metaplex.Unpack(ix.Data)
	if err != nil {
		return nil, 0, err
	}

	switch decoded.Kind {
	case metaplex.KindCreateMetadataAccount, metaplex.KindCreateMetadataAccountV2, metaplex.KindCreateMetadataAccountV3:
		metadataAccount, err := keys.Account(&ix, 0)
		if err != nil {
			return nil, 0, err
		}
		mintKey, err := keys.Account(&ix, 1)
		if err != nil {
			return nil, 0, err
		}
		registry.Record(metadataAccount, mintKey)
		return &mintKey, 0, nil

	case metaplex.KindCreateMasterEdition, metaplex.KindCreateMasterEditionV3, metaplex.KindDeprecatedCreateMasterEdition:
		mintKey, err := keys.Account(&ix, 1)
		if err != nil {
			return nil, 0, err
		}
		if metadataAccount, err := keys.Account(&ix, 5); err == nil {
			registry.Record(metadataAccount, mintKey)
		}
		return &mintKey, 0, nil

	case metaplex.KindDeprecatedMintNewEditionFromMasterEditionViaPrintingToken:
		// ABI evolution left two account layouts live: the master
		// metadata reference sits at index 11 in one, index 10 in the
		// other. Try both; whichever resolves in the registry wins.
		if masterMetadata, err := keys.Account(&ix, 11); err == nil {
			if mint, ok := registry.Lookup(masterMetadata); ok {
				return &mint, 0, nil
			}
		}
		if masterMetadata, err := keys.Account(&ix, 10); err == nil {
			if mint, ok := registry.Lookup(masterMetadata); ok {
				return &mint, 0, nil
			}
		}
		return nil, ReasonUnknownMetadataAccount, nil

	case metaplex.KindMintNewEditionFromMasterEditionViaToken, metaplex.KindMintNewEditionFromMasterEditionViaVaultProxy:
		masterMetadata, err := keys.Account(&ix, 10)
		if err != nil {
			return nil, 0, err
		}
		if mint, ok := registry.Lookup(masterMetadata); ok {
			return &mint, 0, nil
		}
		return nil, ReasonUnknownMetadataAccount, nil

	default:
		metadataAccount, err := keys.Account(&ix, 0)
		if err != nil {
			return nil, 0, err
		}
		if mint, ok := registry.Lookup(metadataAccount); ok {
			return &mint, 0, nil
		}
		return nil, ReasonUnknownMetadataAccount, nil
	}
}
