package services

import "strings"

// ChunkChars splits text into ordered segments of at most maxChars
// characters, consecutive segments sharing exactly overlap characters.
// The segments cover the input without gaps; a text shorter than
// maxChars yields a single chunk. Operates on runes so multi-byte
// characters are never split.
func ChunkChars(text string, maxChars, overlap int) []string {
	if maxChars <= 0 || text == "" {
		return nil
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// ChunkWords windows over whitespace-separated words with step
// chunkSize-overlap, stopping after the first partial window.
func ChunkWords(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	words := strings.Fields(text)
	var chunks []string
	step := chunkSize - overlap
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end-i < chunkSize {
			break
		}
	}
	return chunks
}
