package bonbonutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bonbon-indexer/bonbon/bonbonutil"
)

func TestPointer(t *testing.T) {
	var i int = 123
	assert.IsType(t, &i, bonbonutil.Pointer(i))
	assert.Equal(t, &i, bonbonutil.Pointer(i))

	var s string = "abc"
	assert.IsType(t, &s, bonbonutil.Pointer(s))
	assert.Equal(t, &s, bonbonutil.Pointer(s))

	var b bool = true
	assert.IsType(t, &b, bonbonutil.Pointer(b))
	assert.Equal(t, &b, bonbonutil.Pointer(b))
}
