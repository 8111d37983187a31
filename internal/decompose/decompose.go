package decompose

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/fetch"
	"github.com/ppiankov/trustlens/internal/model"
)

// Limits of the decomposition
const (
	AnchorChars        = 45000
	ClaimFromAnchor    = 240
	ClaimFromContext   = 360
	MaxAnchorTerms     = 18
	MaxSubClaims       = 8
	MinSubClaims       = 4
	MinSubClaimLength  = 15
	claimKeywordCount  = 14
	slugKeywordCount   = 8
	windowKeywordCount = 12
	windowSize         = 6
	windowStep         = 2
)

var (
	splitRe     = regexp.MustCompile(`\b(?:and|but|while|because)\b|[,;]`)
	extensionRe = regexp.MustCompile(`(?i)\.[a-z0-9]{2,5}$`)
)

// Reader fetches readable page text
type Reader interface {
	Readable(ctx context.Context, rawURL string, maxChars int) (*fetch.Document, error)
}

// Decomposer derives the working claim, anchor terms and sub-claims
type Decomposer struct {
	reader Reader
	logger *zap.Logger
}

// New creates a Decomposer
func New(reader Reader, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{reader: reader, logger: logger}
}

// Name returns the stage name
func (d *Decomposer) Name() string { return "decomposer" }

// Run populates Claim, AnchorText, AnchorTerms and SubClaims
func (d *Decomposer) Run(ctx context.Context, rc *model.RunContext) {
	claim := extract.Normalize(rc.Claim)
	fileName := extract.Normalize(rc.FileName)

	anchor := ""
	if rc.SourceURL != "" && d.reader != nil {
		doc, err := d.reader.Readable(ctx, rc.SourceURL, AnchorChars)
		if err != nil {
			d.logger.Debug("anchor fetch failed", zap.String("url", rc.SourceURL), zap.Error(err))
		} else {
			anchor = doc.Text
		}
		if anchor != "" && claim == "" {
			claim = extract.Normalize(extract.Truncate(anchor, ClaimFromAnchor))
		}
	}

	if (rc.InputType == model.InputImage || rc.InputType == model.InputDocument) && rc.Context != "" && claim == "" {
		claim = extract.Normalize(extract.Truncate(rc.Context, ClaimFromContext))
	}
	if claim == "" && fileName != "" {
		claim = ClaimFromFileName(fileName)
	}

	rc.AnchorText = anchor
	rc.AnchorTerms = AnchorTerms(claim, anchor, rc.SourceURL)

	if claim == "" && rc.SourceURL != "" {
		claim = extract.Normalize(rc.SourceURL)
	}
	rc.Claim = claim
	rc.SubClaims = SubClaims(claim)

	rc.Log(fmt.Sprintf("Decomposer: generated %d sub-claims with %d anchor terms.", len(rc.SubClaims), len(rc.AnchorTerms)))
}

// ClaimFromFileName turns "flood_photo-2019.jpg" into "flood photo 2019"
func ClaimFromFileName(name string) string {
	name = extensionRe.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return extract.Normalize(name)
}

// AnchorTerms ranks claim and anchor keywords, appends URL slug terms and
// keeps the first 18 distinct ones
func AnchorTerms(claim, anchor, sourceURL string) []string {
	terms := extract.Keywords(claim+" "+anchor, claimKeywordCount)
	if sourceURL != "" {
		terms = append(terms, extract.SlugKeywords(sourceURL, slugKeywordCount)...)
	}
	return extract.Head(extract.Dedupe(terms), MaxAnchorTerms)
}

// SubClaims splits a claim on conjunctions and clause punctuation. When fewer
// than four fragments survive, keyword windows pad the list. A claim without
// usable fragments or keywords is its own single sub-claim.
func SubClaims(claim string) []string {
	var subClaims []string
	for _, p := range splitRe.Split(claim, -1) {
		if p = extract.Normalize(p); len([]rune(p)) > MinSubClaimLength {
			subClaims = append(subClaims, p)
		}
	}
	subClaims = extract.Head(subClaims, MaxSubClaims)

	if len(subClaims) < MinSubClaims {
		kws := extract.Keywords(claim, windowKeywordCount)
		for len(subClaims) < MinSubClaims && len(kws) > 0 {
			subClaims = append(subClaims, strings.Join(extract.Head(kws, windowSize), " "))
			if len(kws) <= windowStep {
				break
			}
			kws = kws[windowStep:]
		}
	}

	if len(subClaims) == 0 && claim != "" {
		subClaims = []string{claim}
	}
	return extract.Head(subClaims, MaxSubClaims)
}
