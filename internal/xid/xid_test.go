package xid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsPrefixedAndOrdered(t *testing.T) {
	first := New("bat")
	second := New("bat")

	require.True(t, strings.HasPrefix(first, "bat_"))
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestNewWithoutPrefix(t *testing.T) {
	id := New("")
	assert.Len(t, id, 36)
}
