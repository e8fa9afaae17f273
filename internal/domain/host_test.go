package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHost(t *testing.T) {
	h, ok := ExtractHost("  Z2R8P4 \n 3h05 ")
	assert.True(t, ok)
	assert.Equal(t, "z2r8p4", h)

	_, ok = ExtractHost("printer")
	assert.False(t, ok)
}

func TestZone(t *testing.T) {
	assert.Equal(t, "z2", Zone("z2r8p4"))
	assert.Equal(t, "z10", Zone("Z10R1P1"))
	assert.Equal(t, "", Zone("lab-a"))
}
