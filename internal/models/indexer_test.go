package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexerHasAddress(t *testing.T) {
	indexer := &Indexer{
		Addresses: []string{"addr-one", "addr-two"},
	}

	assert.True(t, indexer.HasAddress("addr-one"))
	assert.True(t, indexer.HasAddress("addr-two"))
	assert.False(t, indexer.HasAddress("addr-three"))

	empty := &Indexer{}
	assert.False(t, empty.HasAddress("addr-one"))
}
