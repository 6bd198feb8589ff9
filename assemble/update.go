// Package assemble implements the third pipeline stage: replaying one
// mint's partitioned instructions, in order, into a Bonbon.
package assemble

import (
	"errors"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/metaplex"
	"github.com/bonbon-indexer/bonbon/pda"
	"github.com/bonbon-indexer/bonbon/tokenprog"
)

// ErrInvalidMetadataCreate is returned when a CreateMetadataAccount*
// instruction's named metadata account does not equal PDA(mint_key).
var ErrInvalidMetadataCreate = errors.New("assemble: metadata account is not the mint's derived address")

// OwnerResolver is the second tier of token-account ownership resolution:
// the cross-mint, cross-transaction owner tracker (pipeline stage two).
// OwnerOf is consulted only when a Bonbon's own transient bookkeeping has
// no record of the account a token instruction names; SetOwner/Remove are
// called whenever this mint's own instruction stream learns or retires an
// account's owner, so a different mint's worker can resolve against it
// later, the same way this mint falls back to the tracker for accounts it
// did not itself open.
type OwnerResolver interface {
	OwnerOf(account ledger.Pubkey) (ledger.Pubkey, bool)
	SetOwner(account, owner ledger.Pubkey)
	Remove(account ledger.Pubkey)
}

// UpdateContext is everything Update needs to replay one instruction.
type UpdateContext struct {
	Index       ledger.InstructionIndex
	ProgramKey  ledger.Pubkey
	Instruction ledger.CompiledInstruction
	AccountKeys ledger.AccountKeys
	Resolver    OwnerResolver

	// MasterMint is the master edition's mint, supplied by the caller when
	// this instruction is one of the MintNewEditionFromMasterEdition*
	// variants. The instruction itself only names the master's metadata/
	// edition accounts; resolving those back to a mint is the registry's
	// job (see partition.Registry), not this package's.
	MasterMint *ledger.Pubkey
}

// TokenProgramID and MetadataProgramID let callers route instructions to
// Update without importing partition or pda just for the program ids.
var (
	TokenProgramID    = mustTokenProgramID()
	MetadataProgramID = mustMetadataProgramID()
)

// Update replays one instruction against b. Instructions for programs or
// variants with no NFT-history effect are accepted as a no-op: reaching
// Update at all means the partitioner already decided this instruction
// belongs to this mint, so an unrecognized variant is not an error, just
// inert.
func (b *Bonbon) Update(ctx UpdateContext) error {
	switch ctx.ProgramKey {
	case TokenProgramID:
		return b.updateToken(ctx)
	case MetadataProgramID:
		return b.updateMetadata(ctx)
	default:
		return nil
	}
}

func (b *Bonbon) updateToken(ctx UpdateContext) error {
	decoded, err := tokenprog.Unpack(ctx.Instruction.Data)
	if err != nil {
		return err
	}

	switch decoded.Kind {
	case tokenprog.KindInitializeMint, tokenprog.KindInitializeMint2:
		return nil

	case tokenprog.KindInitializeAccount, tokenprog.KindInitializeAccount2, tokenprog.KindInitializeAccount3:
		account, err := ctx.AccountKeys.Account(&ctx.Instruction, 0)
		if err != nil {
			return err
		}
		var owner ledger.Pubkey
		if decoded.HasOwner {
			owner = decoded.Owner
		} else if o, err := ctx.AccountKeys.Account(&ctx.Instruction, 2); err == nil {
			owner = o
		}
		b.ownerships[account] = owner
		if ctx.Resolver != nil {
			ctx.Resolver.SetOwner(account, owner)
		}
		return nil

	case tokenprog.KindTransfer, tokenprog.KindTransferChecked:
		dest, err := ctx.AccountKeys.Account(&ctx.Instruction, 1)
		if err != nil {
			return err
		}
		return b.applyOwnershipForAccount(ctx.Index, dest, ctx.Resolver)

	case tokenprog.KindMintTo, tokenprog.KindMintToChecked:
		dest, err := ctx.AccountKeys.Account(&ctx.Instruction, 1)
		if err != nil {
			return err
		}
		if authority, err := ctx.AccountKeys.Account(&ctx.Instruction, 2); err == nil {
			b.MintAuthority = authority
		}
		return b.applyOwnershipForAccount(ctx.Index, dest, ctx.Resolver)

	case tokenprog.KindBurn, tokenprog.KindBurnChecked:
		account, err := ctx.AccountKeys.Account(&ctx.Instruction, 0)
		if err != nil {
			return err
		}
		delete(b.ownerships, account)
		b.ApplyOwnership(ctx.Index, nil)
		return nil

	case tokenprog.KindSetAuthority:
		if decoded.AuthorityType != tokenprog.AuthorityAccountOwner {
			return nil
		}
		account, err := ctx.AccountKeys.Account(&ctx.Instruction, 0)
		if err != nil {
			return err
		}
		if !decoded.HasNewAuthority {
			delete(b.ownerships, account)
			b.ApplyOwnership(ctx.Index, nil)
			return nil
		}
		b.ownerships[account] = decoded.NewAuthority
		if ctx.Resolver != nil {
			ctx.Resolver.SetOwner(account, decoded.NewAuthority)
		}
		b.ApplyOwnership(ctx.Index, &Ownership{Owner: decoded.NewAuthority, Account: account})
		return nil

	case tokenprog.KindCloseAccount:
		account, err := ctx.AccountKeys.Account(&ctx.Instruction, 0)
		if err != nil {
			return err
		}
		delete(b.ownerships, account)
		if ctx.Resolver != nil {
			ctx.Resolver.Remove(account)
		}
		return nil

	default:
		return nil
	}
}

// applyOwnershipForAccount resolves account's owner, preferring this
// Bonbon's own transient bookkeeping and falling back to the cross-mint
// owner tracker, then applies it.
func (b *Bonbon) applyOwnershipForAccount(idx ledger.InstructionIndex, account ledger.Pubkey, resolver OwnerResolver) error {
	if owner, ok := b.ownerships[account]; ok {
		if resolver != nil {
			resolver.SetOwner(account, owner)
		}
		b.ApplyOwnership(idx, &Ownership{Owner: owner, Account: account})
		return nil
	}
	if resolver != nil {
		if owner, ok := resolver.OwnerOf(account); ok {
			b.ownerships[account] = owner
			b.ApplyOwnership(idx, &Ownership{Owner: owner, Account: account})
			return nil
		}
	}
	return ErrCouldNotResolveAccountOwner
}

func (b *Bonbon) updateMetadata(ctx UpdateContext) error {
	decoded, err := metaplex.Unpack(ctx.Instruction.Data)
	if err != nil {
		return err
	}

	switch decoded.Kind {
	case metaplex.KindCreateMetadataAccount, metaplex.KindCreateMetadataAccountV2, metaplex.KindCreateMetadataAccountV3:
		metadataKey, err := ctx.AccountKeys.Account(&ctx.Instruction, 0)
		if err != nil {
			return err
		}
		expected, _, err := pda.FindMetadataAccount(b.Mint)
		if err != nil {
			return err
		}
		if metadataKey != expected {
			return ErrInvalidMetadataCreate
		}
		b.MetadataKey = metadataKey
		if decoded.Data == nil {
			return nil
		}
		b.ApplyMetadata(ctx.Index, glazingFromDataV2(*decoded.Data))
		return nil

	case metaplex.KindUpdateMetadataAccount, metaplex.KindUpdateMetadataAccountV2:
		if decoded.Data == nil {
			return nil
		}
		b.ApplyMetadata(ctx.Index, glazingFromDataV2(*decoded.Data))
		return nil

	case metaplex.KindDeprecatedCreateMasterEdition, metaplex.KindCreateMasterEdition, metaplex.KindCreateMasterEditionV3:
		b.EditionStatus = EditionMaster
		b.Limited = nil
		return nil

	case metaplex.KindDeprecatedMintNewEditionFromMasterEditionViaPrintingToken,
		metaplex.KindMintNewEditionFromMasterEditionViaToken,
		metaplex.KindMintNewEditionFromMasterEditionViaVaultProxy:
		b.EditionStatus = EditionLimited
		limited := &LimitedEdition{}
		if ctx.MasterMint != nil {
			limited.Master = *ctx.MasterMint
		}
		b.Limited = limited
		return nil

	case metaplex.KindVerifyCollection, metaplex.KindVerifySizedCollectionItem:
		collectionMint, err := ctx.AccountKeys.Account(&ctx.Instruction, 3)
		if err != nil {
			return err
		}
		b.ApplyCollectionVerification(ctx.Index, collectionMint, true)
		return nil

	case metaplex.KindSetAndVerifyCollection, metaplex.KindSetAndVerifySizedCollectionItem:
		collectionMint, err := ctx.AccountKeys.Account(&ctx.Instruction, 4)
		if err != nil {
			return err
		}
		b.ApplyCollectionVerification(ctx.Index, collectionMint, true)
		return nil

	case metaplex.KindUnverifyCollection, metaplex.KindUnverifySizedCollectionItem:
		collectionMint, err := ctx.AccountKeys.Account(&ctx.Instruction, 3)
		if err != nil {
			return err
		}
		b.ApplyCollectionVerification(ctx.Index, collectionMint, false)
		return nil

	case metaplex.KindSignMetadata:
		creator, err := ctx.AccountKeys.Account(&ctx.Instruction, 1)
		if err != nil {
			return err
		}
		b.ApplyCreatorVerification(ctx.Index, creator, true)
		return nil

	case metaplex.KindRemoveCreatorVerification:
		creator, err := ctx.AccountKeys.Account(&ctx.Instruction, 1)
		if err != nil {
			return err
		}
		b.ApplyCreatorVerification(ctx.Index, creator, false)
		return nil

	case metaplex.KindBurnNft:
		b.ApplyOwnership(ctx.Index, nil)
		return nil

	default:
		// Every remaining variant (PuffMetadata, Utilize, the Approve/
		// Revoke{Use,Collection}Authority pairs, Freeze/ThawDelegatedAccount,
		// SetCollectionSize, SetTokenStandard, and the deprecated
		// reservation-list/printing-token arms) has no effect on an asset's
		// reconstructed history.
		return nil
	}
}

func glazingFromDataV2(d metaplex.DataV2) Glazing {
	g := Glazing{
		Name:                 d.Name,
		Symbol:               d.Symbol,
		URI:                  d.Uri,
		SellerFeeBasisPoints: d.SellerFeeBasisPoints,
	}
	if d.Creators != nil {
		g.Creators = make([]Creator, len(*d.Creators))
		for i, c := range *d.Creators {
			g.Creators[i] = Creator{Address: c.Address, Verified: c.Verified, Share: c.Share}
		}
	}
	if d.Collection != nil {
		g.Collection = &Collection{Verified: d.Collection.Verified, Key: d.Collection.Key}
	}
	return g
}

func mustTokenProgramID() ledger.Pubkey {
	k, err := ledger.PubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	if err != nil {
		panic(err)
	}
	return k
}

func mustMetadataProgramID() ledger.Pubkey {
	k, err := ledger.PubkeyFromBase58("metaqbxxUvudxC9XPVtjWHQWBkGXHKSGVf7ZghZCfjKp")
	if err != nil {
		panic(err)
	}
	return k
}
