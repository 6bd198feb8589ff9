// Package metaplex decodes instructions for the token-metadata program.
// Unlike tokenprog, this program's instruction payloads are borsh-encoded:
// a one-byte variant tag followed by the borsh serialization of that
// variant's argument struct. The tag order below is the program's own
// declared enum order and MUST NOT be reordered or renumbered.
package metaplex

import (
	"errors"

	"github.com/near/borsh-go"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// Kind is the borsh enum discriminant for MetadataInstruction.
type Kind uint8

const (
	KindCreateMetadataAccount Kind = iota
	KindUpdateMetadataAccount
	KindDeprecatedCreateMasterEdition
	KindDeprecatedMintNewEditionFromMasterEditionViaPrintingToken
	KindUpdatePrimarySaleHappenedViaToken
	KindDeprecatedSetReservationList
	KindDeprecatedCreateReservationList
	KindSignMetadata
	KindDeprecatedMintPrintingTokensViaToken
	KindDeprecatedMintPrintingTokens
	KindCreateMasterEdition
	KindMintNewEditionFromMasterEditionViaToken
	KindConvertMasterEditionV1ToV2
	KindMintNewEditionFromMasterEditionViaVaultProxy
	KindPuffMetadata
	KindUpdateMetadataAccountV2
	KindCreateMetadataAccountV2
	KindCreateMasterEditionV3
	KindVerifyCollection
	KindUtilize
	KindApproveUseAuthority
	KindRevokeUseAuthority
	KindUnverifyCollection
	KindApproveCollectionAuthority
	KindRevokeCollectionAuthority
	KindSetAndVerifyCollection
	KindFreezeDelegatedAccount
	KindThawDelegatedAccount
	KindRemoveCreatorVerification
	KindBurnNft
	KindVerifySizedCollectionItem
	KindSetAndVerifySizedCollectionItem
	KindSetCollectionSize
	KindSetTokenStandard
	KindCreateMetadataAccountV3
	KindUnverifySizedCollectionItem
)

// ErrMalformed wraps any borsh decoding failure, empty payload, or tag
// outside the known range.
var ErrMalformed = errors.New("metaplex: malformed instruction payload")

// Creator mirrors the on-chain creator entry within Data/DataV2.
type Creator struct {
	Address  ledger.Pubkey
	Verified bool
	Share    uint8
}

// Collection mirrors DataV2's optional on-chain collection reference.
type Collection struct {
	Verified bool
	Key      ledger.Pubkey
}

// Uses mirrors DataV2's optional print/burn use budget.
type Uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// Data is the legacy (V1) metadata payload shape.
type Data struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
}

// DataV2 adds the optional collection and uses fields introduced alongside
// collections; Data is always normalized up to this shape by decode.
type DataV2 struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
	Collection           *Collection
	Uses                 *Uses
}

func (d Data) toV2() DataV2 {
	return DataV2{
		Name:                 d.Name,
		Symbol:               d.Symbol,
		Uri:                  d.Uri,
		SellerFeeBasisPoints: d.SellerFeeBasisPoints,
		Creators:             d.Creators,
	}
}

type createMetadataAccountArgs struct {
	Data      Data
	IsMutable bool
}

type createMetadataAccountArgsV2 struct {
	Data      DataV2
	IsMutable bool
}

type createMetadataAccountArgsV3 struct {
	Data      DataV2
	IsMutable bool
	// CollectionDetails (an optional enum) follows on the wire but is not
	// consumed: nothing downstream reads it, and borsh.Deserialize does not
	// require the input to be fully drained.
}

type updateMetadataAccountArgs struct {
	Data                *Data
	UpdateAuthority     *ledger.Pubkey
	PrimarySaleHappened *bool
}

type updateMetadataAccountArgsV2 struct {
	Data                *DataV2
	UpdateAuthority     *ledger.Pubkey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

// Instruction is the decode result. Data is populated, normalized to
// DataV2, for every Create*/Update* variant that carries a payload; it is
// nil for variants whose effect is driven entirely by their account list
// (verification, burn, collection-size, and the deprecated/no-op arms).
type Instruction struct {
	Kind Kind
	Data *DataV2
}

// Unpack decodes a single token-metadata instruction.
func Unpack(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, ErrMalformed
	}
	kind := Kind(data[0])
	rest := data[1:]

	switch kind {
	case KindCreateMetadataAccount:
		var args createMetadataAccountArgs
		if err := borsh.Deserialize(&args, rest); err != nil {
			return Instruction{}, errWrap(err)
		}
		v2 := args.Data.toV2()
		return Instruction{Kind: kind, Data: &v2}, nil

	case KindCreateMetadataAccountV2:
		var args createMetadataAccountArgsV2
		if err := borsh.Deserialize(&args, rest); err != nil {
			return Instruction{}, errWrap(err)
		}
		return Instruction{Kind: kind, Data: &args.Data}, nil

	case KindCreateMetadataAccountV3:
		var args createMetadataAccountArgsV3
		if err := borsh.Deserialize(&args, rest); err != nil {
			return Instruction{}, errWrap(err)
		}
		return Instruction{Kind: kind, Data: &args.Data}, nil

	case KindUpdateMetadataAccount:
		var args updateMetadataAccountArgs
		if err := borsh.Deserialize(&args, rest); err != nil {
			return Instruction{}, errWrap(err)
		}
		if args.Data == nil {
			return Instruction{Kind: kind}, nil
		}
		v2 := args.Data.toV2()
		return Instruction{Kind: kind, Data: &v2}, nil

	case KindUpdateMetadataAccountV2:
		var args updateMetadataAccountArgsV2
		if err := borsh.Deserialize(&args, rest); err != nil {
			return Instruction{}, errWrap(err)
		}
		return Instruction{Kind: kind, Data: args.Data}, nil

	// Every variant below is recognized by tag only: either its effect is
	// carried entirely by the instruction's account list (verification,
	// collection membership, burn, size, standard), or it is a
	// deprecated/no-op arm with no history-relevant effect.
	case KindDeprecatedCreateMasterEdition,
		KindDeprecatedMintNewEditionFromMasterEditionViaPrintingToken,
		KindUpdatePrimarySaleHappenedViaToken,
		KindDeprecatedSetReservationList,
		KindDeprecatedCreateReservationList,
		KindSignMetadata,
		KindDeprecatedMintPrintingTokensViaToken,
		KindDeprecatedMintPrintingTokens,
		KindCreateMasterEdition,
		KindMintNewEditionFromMasterEditionViaToken,
		KindConvertMasterEditionV1ToV2,
		KindMintNewEditionFromMasterEditionViaVaultProxy,
		KindPuffMetadata,
		KindCreateMasterEditionV3,
		KindVerifyCollection,
		KindUtilize,
		KindApproveUseAuthority,
		KindRevokeUseAuthority,
		KindUnverifyCollection,
		KindApproveCollectionAuthority,
		KindRevokeCollectionAuthority,
		KindSetAndVerifyCollection,
		KindFreezeDelegatedAccount,
		KindThawDelegatedAccount,
		KindRemoveCreatorVerification,
		KindBurnNft,
		KindVerifySizedCollectionItem,
		KindSetAndVerifySizedCollectionItem,
		KindSetCollectionSize,
		KindSetTokenStandard,
		KindUnverifySizedCollectionItem:
		return Instruction{Kind: kind}, nil

	default:
		return Instruction{}, ErrMalformed
	}
}

func errWrap(err error) error {
	return errors.Join(ErrMalformed, err)
}
