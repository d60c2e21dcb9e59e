package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeckSkipsCommentsAndBlankLines(t *testing.T) {
	deck := "" +
		"* this is a header comment\n" +
		"\n" +
		"nlevels = 2,2\n" +
		"nspline = 6\n"
	m, err := parseDeck(deck)
	require.NoError(t, err)
	require.Equal(t, "2,2", m["nlevels"])
	require.Equal(t, "6", m["nspline"])
	require.Len(t, m, 2)
}

func TestParseDeckRejectsMalformedLine(t *testing.T) {
	_, err := parseDeck("not a key value line")
	require.Error(t, err)
}

func TestNorm2(t *testing.T) {
	require.InDelta(t, 5.0, norm2([]float64{3, 4}), 1e-12)
}
