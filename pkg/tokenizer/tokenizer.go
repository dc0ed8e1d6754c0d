package tokenizer

import "strings"

// Estimate returns a rough token count for text. Good enough for context
// window budgeting; exact counts would need a model-specific tokenizer.
func Estimate(text string) int {
	words := strings.Fields(text)
	n := len(words) * 4 / 3
	if n < 1 {
		n = 1
	}
	return n
}
