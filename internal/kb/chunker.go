package kb

import "strings"

// chunkText splits text into word windows of roughly chunkSize characters
// with chunkOverlap characters carried between neighbouring chunks, so a
// policy sentence cut at a boundary still appears whole in one chunk.
func chunkText(text string, chunkSize, chunkOverlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentSize := 0

	for _, word := range words {
		wordLen := len(word) + 1

		if currentSize+wordLen > chunkSize && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))

			overlapWords := strings.Fields(current.String())
			overlapStart := len(overlapWords) - chunkOverlap/10
			if overlapStart < 0 {
				overlapStart = 0
			}
			current.Reset()
			current.WriteString(strings.Join(overlapWords[overlapStart:], " ") + " ")
			currentSize = current.Len()
		}

		current.WriteString(word + " ")
		currentSize += wordLen
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}
