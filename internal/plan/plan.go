package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/model"
)

// MaxQueries bounds downstream network fan-out
const MaxQueries = 12

// baseSuffixes produce the fixed query template. The empty suffix is the
// bare anchor base.
var baseSuffixes = []string{
	"",
	"official statement",
	"Reuters AP",
	"debunked false",
	"criticism",
	"retracted",
	"filetype:pdf",
	"site:.gov",
	"site:pubmed.ncbi.nlm.nih.gov",
	"site:scholar.google.com",
	"fact check",
	"primary source",
}

var (
	documentSuffixes = []string{"official pdf", "document verification", "legal filing statement"}
	imageSuffixes    = []string{"reverse image search", "image fact check", "visual match source", "photo verification"}
)

// Planner expands anchor terms into a bounded set of search queries
type Planner struct{}

// New creates a Planner
func New() *Planner { return &Planner{} }

// Name returns the stage name
func (p *Planner) Name() string { return "planner" }

// Run populates Queries
func (p *Planner) Run(_ context.Context, rc *model.RunContext) {
	rc.Queries = Queries(rc)
	rc.Log(fmt.Sprintf("Planner: generated %d diverse queries.", len(rc.Queries)))
}

// Queries builds the deduplicated, capped query list for a run
func Queries(rc *model.RunContext) []string {
	kws := extract.Keywords(rc.Claim+" "+rc.Context+" "+rc.AnchorText, 12)
	base := joinOr(extract.Head(kws, 6), rc.Claim)
	anchorBase := joinOr(extract.Head(rc.AnchorTerms, 6), base)

	queries := withSuffixes(anchorBase, baseSuffixes)

	switch rc.InputType {
	case model.InputDocument:
		docTerms := extract.Keywords(rc.Context+" "+rc.FileName, 10)
		queries = append(queries, withSuffixes(joinOr(extract.Head(docTerms, 6), anchorBase), documentSuffixes)...)
	case model.InputImage:
		imgTerms := extract.Keywords(rc.Context+" "+rc.FileName+" "+rc.Claim, 10)
		queries = append(queries, withSuffixes(joinOr(extract.Head(imgTerms, 6), anchorBase), imageSuffixes)...)
	}

	var normalized []string
	for _, q := range queries {
		if q = extract.Normalize(q); q != "" {
			normalized = append(normalized, q)
		}
	}
	return extract.Head(extract.Dedupe(normalized), MaxQueries)
}

func withSuffixes(base string, suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, strings.TrimSpace(base+" "+s))
	}
	return out
}

func joinOr(terms []string, fallback string) string {
	if len(terms) == 0 {
		return fallback
	}
	return strings.Join(terms, " ")
}
