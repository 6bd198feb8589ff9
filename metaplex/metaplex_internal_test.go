package metaplex

import (
	"testing"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonbon-indexer/bonbon/ledger"
)

func TestUnpackCreateMetadataAccountV2RoundTrip(t *testing.T) {
	args := createMetadataAccountArgsV2{
		Data: DataV2{
			Name:                 "Bonbon #1",
			Symbol:               "BON",
			Uri:                  "https://example.test/1.json",
			SellerFeeBasisPoints: 500,
			Creators: &[]Creator{
				{Address: ledger.Pubkey{1, 2, 3}, Verified: true, Share: 100},
			},
		},
		IsMutable: true,
	}
	body, err := borsh.Serialize(args)
	require.NoError(t, err)

	data := append([]byte{byte(KindCreateMetadataAccountV2)}, body...)
	ix, err := Unpack(data)
	require.NoError(t, err)

	require.NotNil(t, ix.Data)
	assert.Equal(t, "Bonbon #1", ix.Data.Name)
	assert.Equal(t, uint16(500), ix.Data.SellerFeeBasisPoints)
	require.NotNil(t, ix.Data.Creators)
	assert.Len(t, *ix.Data.Creators, 1)
}

func TestUnpackUpdateMetadataAccountV2WithNoData(t *testing.T) {
	args := updateMetadataAccountArgsV2{}
	body, err := borsh.Serialize(args)
	require.NoError(t, err)

	data := append([]byte{byte(KindUpdateMetadataAccountV2)}, body...)
	ix, err := Unpack(data)
	require.NoError(t, err)
	assert.Nil(t, ix.Data)
}

func TestUnpackVerifyCollectionHasNoPayload(t *testing.T) {
	ix, err := Unpack([]byte{byte(KindVerifyCollection)})
	require.NoError(t, err)
	assert.Equal(t, KindVerifyCollection, ix.Kind)
	assert.Nil(t, ix.Data)
}

func TestUnpackEmptyDataFails(t *testing.T) {
	_, err := Unpack(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
