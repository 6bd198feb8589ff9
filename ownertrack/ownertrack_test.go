package ownertrack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bonbon-indexer/bonbon/ledger"
	"github.com/bonbon-indexer/bonbon/ownertrack"
)

func key(b byte) ledger.Pubkey {
	var p ledger.Pubkey
	p[0] = b
	return p
}

func TestSetOwnerThenOwnerOf(t *testing.T) {
	tr := ownertrack.New()
	account := key(1)
	owner := key(2)

	_, ok := tr.OwnerOf(account)
	assert.False(t, ok)

	tr.SetOwner(account, owner)
	got, ok := tr.OwnerOf(account)
	assert.True(t, ok)
	assert.Equal(t, owner, got)
}

func TestRemoveForgetsOwner(t *testing.T) {
	tr := ownertrack.New()
	account := key(1)
	tr.SetOwner(account, key(2))
	tr.Remove(account)

	_, ok := tr.OwnerOf(account)
	assert.False(t, ok)
}
