package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-ten", truncate("exactly-ten", 11))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijk", 10))

	// Multibyte names must not be split mid-rune
	assert.Equal(t, "Müncheners...", truncate("Münchenerstraße Nord", 13))
	assert.Equal(t, "Straße", truncate("Straße", 6))
}
