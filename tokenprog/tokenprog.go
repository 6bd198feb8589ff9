// Package tokenprog decodes instructions for the generic fungible-token
// program. The wire format is the program's own hand-rolled packing (a
// one-byte tag followed by fixed-width little-endian fields) — it is NOT
// borsh, and is bit-for-bit compatible with the upstream program's ABI, so
// it MUST NOT be changed to make decoding more convenient.
package tokenprog

import (
	"encoding/binary"
	"errors"

	"github.com/bonbon-indexer/bonbon/ledger"
)

// Kind is the one-byte instruction tag.
type Kind uint8

// Instruction tags, in the upstream program's declared order. Only about
// ten of these carry NFT-relevant effects (see partition/assemble); the
// rest are recognized so an opaque-payload failure is never mistaken for a
// merely-uninteresting instruction.
const (
	KindInitializeMint Kind = iota
	KindInitializeAccount
	KindInitializeMultisig
	KindTransfer
	KindApprove
	KindRevoke
	KindSetAuthority
	KindMintTo
	KindBurn
	KindCloseAccount
	KindFreezeAccount
	KindThawAccount
	KindTransferChecked
	KindApproveChecked
	KindMintToChecked
	KindBurnChecked
	KindInitializeAccount2
	KindSyncNative
	KindInitializeAccount3
	KindInitializeMultisig2
	KindInitializeMint2
	KindGetAccountDataSize
	KindInitializeImmutableOwner
	KindAmountToUiAmount
	KindUiAmountToAmount
	KindInitializeMintCloseAuthority
	KindTransferFeeExtension
	KindConfidentialTransferExtension
	KindDefaultAccountStateExtension
	KindReallocate
	KindMemoTransferExtension
	KindCreateNativeMint
	KindInitializeNonTransferableMint
	KindInterestBearingMintExtension
)

// AuthorityType discriminates SetAuthority's target.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
	AuthorityAccountOwner
	AuthorityCloseAccount
)

// ErrMalformed is returned whenever the payload is empty or shorter than
// its tag requires.
var ErrMalformed = errors.New("tokenprog: malformed instruction payload")

// ErrUnknownTag is returned for a tag byte outside the known range.
var ErrUnknownTag = errors.New("tokenprog: unknown instruction tag")

// Instruction is the decoded result. Only the fields relevant to a given
// Kind are populated; the comment beside each field names the Kinds that
// set it.
type Instruction struct {
	Kind Kind

	Decimals uint8 // InitializeMint{,2}, {Transfer,Approve,MintTo,Burn}Checked

	Owner    ledger.Pubkey // InitializeAccount{2,3}, InitializeMintCloseAuthority
	HasOwner bool

	Amount uint64 // Transfer, Approve, MintTo, Burn, and their Checked variants

	AuthorityType   AuthorityType // SetAuthority
	NewAuthority    ledger.Pubkey // SetAuthority
	HasNewAuthority bool
}

// Unpack decodes a single SPL token instruction from its raw data payload.
func Unpack(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, ErrMalformed
	}
	kind := Kind(data[0])
	rest := data[1:]

	switch kind {
	case KindInitializeMint, KindInitializeMint2:
		// decimals(1) + mint_authority(32) + freeze_authority COption tag(4),
		// the freeze authority's pubkey itself (present or not) is never
		// read since nothing downstream needs it.
		if len(rest) < 1+32+4 {
			return Instruction{}, ErrMalformed
		}
		decimals := rest[0]
		return Instruction{Kind: kind, Decimals: decimals}, nil

	case KindInitializeAccount, KindInitializeMultisig, KindRevoke,
		KindCloseAccount, KindFreezeAccount, KindThawAccount, KindSyncNative,
		KindInitializeMultisig2, KindGetAccountDataSize,
		KindInitializeImmutableOwner, KindTransferFeeExtension,
		KindConfidentialTransferExtension, KindDefaultAccountStateExtension,
		KindReallocate, KindMemoTransferExtension, KindCreateNativeMint,
		KindInitializeNonTransferableMint, KindInterestBearingMintExtension:
		return Instruction{Kind: kind}, nil

	case KindInitializeAccount2, KindInitializeAccount3:
		owner, err := unpackPubkey(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: kind, Owner: owner, HasOwner: true}, nil

	case KindTransfer, KindApprove, KindMintTo, KindBurn:
		amount, err := unpackU64(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: kind, Amount: amount}, nil

	case KindSetAuthority:
		if len(rest) < 1 {
			return Instruction{}, ErrMalformed
		}
		authorityType := AuthorityType(rest[0])
		newAuthority, has, err := unpackPubkeyOption(rest[1:])
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{
			Kind:            kind,
			AuthorityType:   authorityType,
			NewAuthority:    newAuthority,
			HasNewAuthority: has,
		}, nil

	case KindTransferChecked, KindApproveChecked, KindMintToChecked, KindBurnChecked:
		if len(rest) < 9 {
			return Instruction{}, ErrMalformed
		}
		amount := binary.LittleEndian.Uint64(rest[:8])
		decimals := rest[8]
		return Instruction{Kind: kind, Amount: amount, Decimals: decimals}, nil

	case KindAmountToUiAmount:
		amount, err := unpackU64(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: kind, Amount: amount}, nil

	case KindUiAmountToAmount:
		return Instruction{Kind: kind}, nil

	case KindInitializeMintCloseAuthority:
		owner, has, err := unpackPubkeyOption(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: kind, Owner: owner, HasOwner: has}, nil

	default:
		return Instruction{}, ErrUnknownTag
	}
}

func unpackU64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, ErrMalformed
	}
	return binary.LittleEndian.Uint64(b[:8]), nil
}

func unpackPubkey(b []byte) (ledger.Pubkey, error) {
	if len(b) < 32 {
		return ledger.Pubkey{}, ErrMalformed
	}
	var p ledger.Pubkey
	copy(p[:], b[:32])
	return p, nil
}

// unpackPubkeyOption decodes the program's hand-rolled COption<Pubkey>: a
// four-byte little-endian presence tag (0 or 1) followed by 32 bytes iff
// the tag is 1. This is the program's own Pack impl, not borsh — its
// Option discriminant is a full u32, not the single byte borsh would use.
func unpackPubkeyOption(b []byte) (ledger.Pubkey, bool, error) {
	if len(b) < 4 {
		return ledger.Pubkey{}, false, ErrMalformed
	}
	tag := binary.LittleEndian.Uint32(b[:4])
	if tag == 0 {
		return ledger.Pubkey{}, false, nil
	}
	key, err := unpackPubkey(b[4:])
	if err != nil {
		return ledger.Pubkey{}, false, err
	}
	return key, true, nil
}
