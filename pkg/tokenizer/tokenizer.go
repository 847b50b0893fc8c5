package tokenizer

// Estimate returns a rough token count for text, assuming ~4 characters
// per token for English. Good enough for budget checks; exact counts
// would need a model-specific tokenizer.
func Estimate(text string) int {
	return max(len(text)/4, 1)
}

// BudgetChars converts a token budget into a character allowance under
// the same approximation.
func BudgetChars(maxTokens int) int {
	return maxTokens * 4
}
