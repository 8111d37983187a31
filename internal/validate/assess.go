package validate

import (
	"strings"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
)

// SnippetChars bounds Source.Snippet
const SnippetChars = 260

// Assessor turns a fetched candidate into a Source when it passes the gate.
// The crawler and the critic share one per run so both phases apply the same
// acceptance rules.
type Assessor struct {
	gate    *Gate
	quality *QualityClassifier
	topic   Topic
	claim   string
}

// NewAssessor creates an Assessor for one run
func NewAssessor(gate *Gate, quality *QualityClassifier, topic Topic, claim string) *Assessor {
	if gate == nil {
		gate = NewGate(nil)
	}
	if quality == nil {
		quality = NewQualityClassifier(nil)
	}
	return &Assessor{gate: gate, quality: quality, topic: topic, claim: claim}
}

// Assess gates a candidate body and, on acceptance, builds its Source.
// The string result is the gate's reason.
func (a *Assessor) Assess(canonicalURL, title, body string) (model.Source, string, bool) {
	ok, reason := a.gate.Evaluate(canonicalURL, body, a.topic)
	if !ok {
		return model.Source{}, reason, false
	}

	// Stance reads the whole quote; only the stored snippet is cut
	quote := extract.Quote(body, a.claim)
	excerpt := quote
	if excerpt == "" {
		excerpt = extract.Truncate(body, SnippetChars)
	}

	return model.Source{
		Title:   title,
		URL:     canonicalURL,
		Snippet: extract.Truncate(excerpt, SnippetChars),
		Backend: Origin(canonicalURL),
		Quality: a.quality.Classify(canonicalURL),
		Stance:  Stance(a.claim, excerpt),
		Quote:   quote,
	}, reason, true
}

// Origin attributes encyclopedia articles to the encyclopedia channel; every
// other page counts as web
func Origin(rawURL string) model.Backend {
	host := util.Domain(rawURL)
	if host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org") {
		return model.BackendWikipedia
	}
	return model.BackendWeb
}
