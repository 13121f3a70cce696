package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitChunksSmallContentSingleChunk(t *testing.T) {
	chunks := splitChunks("a\nb\nc\n", 100)
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].StartLine)
	require.Equal(t, "a\nb\nc\n", chunks[0].Content)
}

func TestSplitChunksLineBoundariesAndOffsets(t *testing.T) {
	// 10 lines of 8 bytes each ("line-00\n"), budget of 24 → 3 lines per chunk.
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("line-0")
		b.WriteByte(byte('0' + i))
		b.WriteByte('\n')
	}
	chunks := splitChunks(b.String(), 24)
	require.Len(t, chunks, 4)

	require.Equal(t, 1, chunks[0].StartLine)
	require.Equal(t, 4, chunks[1].StartLine)
	require.Equal(t, 7, chunks[2].StartLine)
	require.Equal(t, 10, chunks[3].StartLine)

	// Reassembly loses nothing.
	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Content)
	}
	require.Equal(t, b.String(), joined.String())

	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.True(t, strings.HasSuffix(c.Content, "\n"))
	}
}

func TestSplitChunksOversizedLineKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := splitChunks("short\n"+long+"\nshort\n", 20)
	require.Len(t, chunks, 3)
	require.Equal(t, long+"\n", chunks[1].Content)
	require.Equal(t, 2, chunks[1].StartLine)
}
