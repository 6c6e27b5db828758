package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCharsShortTextSingleChunk(t *testing.T) {
	chunks := ChunkChars("hello world", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkCharsBoundsAndOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 100) // 1000 chars
	maxChars, overlap := 300, 50

	chunks := ChunkChars(text, maxChars, overlap)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), maxChars, "chunk %d exceeds max", i)
	}

	// consecutive chunks share exactly overlap characters
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap], "chunks %d/%d overlap mismatch", i-1, i)
	}
}

func TestChunkCharsLosslessCoverage(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	overlap := 30
	chunks := ChunkChars(text, 200, overlap)
	require.NotEmpty(t, chunks)

	// stitching chunks back together, dropping each chunk's leading
	// overlap, reproduces the input exactly
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		sb.WriteString(chunk[overlap:])
	}
	assert.Equal(t, text, sb.String())
}

func TestChunkCharsEmptyAndInvalid(t *testing.T) {
	assert.Nil(t, ChunkChars("", 100, 10))
	assert.Nil(t, ChunkChars("text", 0, 0))
}

func TestChunkCharsMultibyteSafe(t *testing.T) {
	text := strings.Repeat("日本語のテキスト ", 50)
	for _, chunk := range ChunkChars(text, 40, 5) {
		assert.True(t, strings.ToValidUTF8(chunk, "") == chunk, "chunk split a rune")
	}
}

func TestChunkWordsWindowing(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")

	chunks := ChunkWords(text, 10, 2)
	// step 8: windows at 0, 8, 16; the last window is partial and stops
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 10)
	assert.Len(t, strings.Fields(chunks[2]), 9)
}

func TestChunkWordsShortText(t *testing.T) {
	chunks := ChunkWords("just a few words", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few words", chunks[0])
}
