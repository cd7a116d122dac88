package bootloader

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_RowWriteAllowed(t *testing.T) {
	l, err := LayoutForPage(512)
	require.NoError(t, err)
	tests := []struct {
		address  uint32
		expected bool
	}{
		{0x0000, false},
		{0x0002, false},
		{IVTBase, true},
		{0x03fe, true},
		{0x0400, false},
		{0x1000, false},
		{DefaultApplicationStart - 2, false},
		{DefaultApplicationStart, true},
		{0x2a000, true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#06x", test.address), func(t *testing.T) {
			assert.Equal(t, test.expected, l.RowWriteAllowed(test.address))
		})
	}
}

func TestLayout_EraseAllowed(t *testing.T) {
	l, err := LayoutForPage(1024)
	require.NoError(t, err)
	assert.True(t, l.EraseAllowed(0))
	assert.False(t, l.EraseAllowed(0x800))
	assert.True(t, l.EraseAllowed(DefaultApplicationStart))
	assert.Equal(t, [2]uint32{0x040800, 0}, l.ResetVector())
}

func TestLayoutForPage(t *testing.T) {
	l, err := LayoutForPage(128)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x200), l.BootloaderStart)
	_, err = LayoutForPage(256)
	assert.Error(t, err)
}
