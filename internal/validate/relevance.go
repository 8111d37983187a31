package validate

import (
	"strings"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/util"
)

// Relevance thresholds
const (
	MinBodyLength      = 240
	AnchorTermLimit    = 12
	SubClaimTermLimit  = 14
	BodyKeywordLimit   = 30
	StrongOverlap      = 0.22
	SameDomainOverlap  = 0.14
	subClaimTermSource = 20
)

// Topic is the relevance ruler of a run
type Topic struct {
	AnchorTerms   []string
	SubClaimTerms []string
	SourceDomain  string
}

// NewTopic derives the ruler from anchor terms, sub-claims and the source URL
func NewTopic(anchorTerms, subClaims []string, sourceURL string) Topic {
	topic := Topic{
		AnchorTerms:   anchorTerms,
		SubClaimTerms: extract.Keywords(strings.Join(subClaims, " "), subClaimTermSource),
	}
	if sourceURL != "" {
		topic.SourceDomain = util.Domain(sourceURL)
	}
	return topic
}

// Gate rejects off-topic or blocked candidates
type Gate struct {
	blocked *util.Blocklist
}

// NewGate creates a relevance gate over the given blocklist
func NewGate(blocked *util.Blocklist) *Gate {
	if blocked == nil {
		blocked = util.NewBlocklist()
	}
	return &Gate{blocked: blocked}
}

// Evaluate returns whether the candidate is accepted and a short reason
func (g *Gate) Evaluate(rawURL, body string, topic Topic) (bool, string) {
	if g.blocked.Blocked(rawURL) {
		return false, "blocked domain"
	}
	if len([]rune(body)) < MinBodyLength {
		return false, "body too short"
	}

	bodyTerms := make(map[string]bool, BodyKeywordLimit)
	for _, w := range extract.Keywords(body, BodyKeywordLimit) {
		bodyTerms[w] = true
	}
	anchor := overlap(bodyTerms, extract.Head(topic.AnchorTerms, AnchorTermLimit))
	sub := overlap(bodyTerms, extract.Head(topic.SubClaimTerms, SubClaimTermLimit))

	if anchor >= StrongOverlap || sub >= StrongOverlap {
		return true, "topic overlap"
	}

	d := util.Domain(rawURL)
	sameDomain := topic.SourceDomain != "" && strings.HasSuffix(d, topic.SourceDomain)
	if sameDomain && (anchor >= SameDomainOverlap || sub >= SameDomainOverlap) {
		return true, "same-domain overlap"
	}
	return false, "low overlap"
}

// IsRelevant reports whether the candidate passes the gate
func (g *Gate) IsRelevant(rawURL, body string, topic Topic) bool {
	ok, _ := g.Evaluate(rawURL, body, topic)
	return ok
}

func overlap(bodyTerms map[string]bool, terms []string) float64 {
	if len(terms) == 0 || len(bodyTerms) == 0 {
		return 0
	}
	hits := 0
	for _, t := range terms {
		if bodyTerms[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
