package extract

import "regexp"

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]\s+`)

const (
	maxQuoteSentences = 120
	minQuoteLength    = 40
	maxQuoteLength    = 320
)

// SplitSentences splits text on terminal punctuation followed by whitespace
func SplitSentences(text string) []string {
	return sentenceBoundaryRe.Split(text, -1)
}

// Quote picks the sentence sharing the most keywords with the claim.
// Only the first 120 sentences are considered. Those shorter than 40
// characters are skipped and the earliest sentence wins ties.
func Quote(text, claim string) string {
	claimWords := make(map[string]bool)
	for _, w := range Keywords(claim, 12) {
		claimWords[w] = true
	}

	best := ""
	bestScore := -1
	for _, s := range Head(SplitSentences(text), maxQuoteSentences) {
		ns := Normalize(s)
		if len([]rune(ns)) < minQuoteLength {
			continue
		}
		score := 0
		for _, w := range Keywords(ns, 12) {
			if claimWords[w] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = ns
		}
	}
	return Truncate(best, maxQuoteLength)
}
