package bidrequests

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestShortenKeepsRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 200) // 400 bytes of two-byte runes

	cut := shorten(long, 281) // lands mid-rune
	assert.True(t, utf8.ValidString(cut))
	assert.LessOrEqual(t, len(cut), 281)
	assert.NotEmpty(t, cut)

	short := shorten("plain overview", 280)
	assert.Equal(t, "plain overview", short)
}
