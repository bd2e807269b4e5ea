// Package tokenizer splits raw document and query text into words. The
// wire format is ASCII words separated by space runs; a single 0x20 byte
// is the only delimiter, and words may not contain control bytes.
package tokenizer

// Split breaks text into its words: every maximal run of non-space bytes
// becomes one word. The returned words are substrings of text and share
// its backing storage, so callers that retain text keep the words alive
// at no extra cost.
func Split(text string) []string {
	words := make([]string, 0, len(text)/6)
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

// IsValid reports whether word is free of control bytes. Words carrying
// bytes below 0x20 are rejected at every entry point: stop-word lists,
// documents, and queries.
func IsValid(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < 0x20 {
			return false
		}
	}
	return true
}
