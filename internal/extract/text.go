package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	wordRe       = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]{3,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// stopwords are dropped before keyword ranking
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "from": true, "have": true, "will": true, "would": true,
	"could": true, "about": true, "http": true, "https": true, "www": true,
	"news": true, "report": true, "article": true, "update": true, "said": true,
	"says": true, "saying": true, "also": true, "into": true, "over": true,
	"after": true, "before": true, "their": true, "there": true, "where": true,
	"when": true, "what": true, "which": true,
}

// Normalize collapses whitespace runs to single spaces and trims
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Keywords returns up to k lowercase terms of at least four alphanumeric
// characters, most frequent first. Ties keep first-occurrence order.
func Keywords(text string, k int) []string {
	if k <= 0 {
		return nil
	}

	freq := make(map[string]int)
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		if _, ok := freq[w]; !ok {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

// SlugKeywords ranks the terms found in a URL's path and host
func SlugKeywords(rawURL string, k int) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	slug := parsed.Path + " " + parsed.Host
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return Keywords(slug, k)
}

// Truncate returns at most n characters of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Dedupe drops repeated strings, keeping the first occurrence
func Dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// Head returns the first n items of a slice, or all of them
func Head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
