package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s1, err := MakeRandHexString(8)
	require.NoError(t, err)
	assert.Len(t, s1, 16)

	s2, err := MakeRandHexString(8)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}
