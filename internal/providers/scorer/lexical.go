package scorer

import (
	"context"
	"regexp"
	"strings"
)

// BM25 term saturation parameters (Okapi defaults).
const (
	paramK1 = 1.2
	paramB  = 0.75

	// referenceLength stands in for the corpus average document length,
	// since a single item is scored without a corpus.
	referenceLength = 64.0
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Lexical scores content by BM25-style term saturation over the distinct
// query terms, normalised to [0,1]. It needs no network and never fails.
type Lexical struct{}

func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Score(ctx context.Context, query, content string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	queryTerms := uniqueTerms(Tokenize(query))
	if len(queryTerms) == 0 {
		return 0, nil
	}

	docTokens := Tokenize(content)
	if len(docTokens) == 0 {
		return 0, nil
	}
	termFrequency := make(map[string]int, len(docTokens))
	for _, tok := range docTokens {
		termFrequency[tok]++
	}

	lengthNorm := 1 - paramB + paramB*float64(len(docTokens))/referenceLength
	var total float64
	for _, term := range queryTerms {
		tf := float64(termFrequency[term])
		if tf == 0 {
			continue
		}
		// BM25 term weight without the (k1+1) factor, so each term stays below 1.
		total += tf / (tf + paramK1*lengthNorm)
	}

	score := total / float64(len(queryTerms))
	if score > 1 {
		score = 1
	}
	return score, nil
}

// Tokenize lowercases text and splits it into letter and digit runs.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
