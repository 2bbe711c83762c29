package tokens

import "unicode/utf8"

const charactersPerToken = 4

// CharEstimator approximates BPE token counts at four characters per token,
// rounding up so that budgets are never underestimated.
type CharEstimator struct{}

func (CharEstimator) CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + charactersPerToken - 1) / charactersPerToken
}
