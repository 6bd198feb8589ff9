package bonbonutil_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bonbon-indexer/bonbon/bonbonutil"
)

func TestStackErrorsIsMatchesAnyWrapped(t *testing.T) {
	sentinel := errors.New("boom")
	stacked := bonbonutil.StackErrors(errors.New("unrelated"), sentinel)

	assert.True(t, errors.Is(stacked, sentinel))
}

func TestStackErrorsSingleErrorPassesThroughMessage(t *testing.T) {
	sentinel := errors.New("boom")
	stacked := bonbonutil.StackErrors(sentinel)

	assert.Equal(t, "boom", stacked.Error())
}

func TestBase58ToBytesDecodes(t *testing.T) {
	decoded, err := bonbonutil.Base58ToBytes("2NEpo7TZRRrLZSi2U")
	assert.NoError(t, err)
	assert.NotEmpty(t, decoded)
}
