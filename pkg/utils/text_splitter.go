package utils

// SplitText splits a long string into chunks of approximately chunkSize
// characters with an overlap to preserve context at boundaries. Rune-safe,
// character based; a tokenizer-aware splitter would be better but is not
// needed for the corpus sizes ingested here.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	total := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	for i := 0; i < total; i += step {
		end := i + chunkSize
		if end > total {
			end = total
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == total {
			break
		}
	}

	return chunks
}
