package vaapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNodesAreSorted(t *testing.T) {
	paths, err := renderNodes()
	require.NoError(t, err)
	assert.IsNonDecreasing(t, paths)
}

func TestDevicesAreIndexedInOrder(t *testing.T) {
	devices, err := Devices()
	require.NoError(t, err)
	for i, d := range devices {
		assert.Equal(t, i, d.Index)
		assert.NotEmpty(t, d.Name())
	}
}
