package charger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnected(t *testing.T) {
	assert.True(t, Connected(0xdada))
	assert.False(t, Connected(0))
	assert.False(t, Connected(0xdad0))
}
