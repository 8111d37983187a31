package score

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/validate"
)

const (
	// MinSources is the evidence depth below which no verdict is reached
	MinSources = 30
	// MaxRecommendations bounds the recommended reading list
	MaxRecommendations = 8
	// ThinEvidenceConfidence is reported with the thin-evidence verdict
	ThinEvidenceConfidence = 38

	strongestPerSide    = 2
	recommendationWhy   = "High-overlap source from deep chain."
	gapThinSources      = "Thin source depth (<30 sources) after chaining."
	gapNoCounterClaims  = "Limited explicit counter-claim evidence discovered."
	subClaimMajority    = 2
	subClaimMinCombined = 3
)

// ratioBuckets maps the smoothed support/oppose ratio to a verdict. The first
// bucket whose threshold is exceeded wins.
var ratioBuckets = []struct {
	above      float64
	verdict    model.Verdict
	confidence int
}{
	{2.8, model.VerdictTrue, 84},
	{1.7, model.VerdictMostlyTrue, 76},
	{0.8, model.VerdictMixed, 62},
	{0.45, model.VerdictMostlyFalse, 70},
}

// Synthesizer turns the accepted sources into the verdict, the sub-claim
// evidence table, gaps and recommendations
type Synthesizer struct {
	logger *zap.Logger
}

// NewSynthesizer creates a Synthesizer
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{logger: logger}
}

// Name returns the stage name
func (s *Synthesizer) Name() string { return "synthesizer" }

// Run populates Verdict, Confidence, Table, Gaps and Recommendations
func (s *Synthesizer) Run(_ context.Context, rc *model.RunContext) {
	support, oppose := 0, 0
	for _, src := range rc.Sources {
		switch src.Stance {
		case model.StanceSupport:
			support++
		case model.StanceOppose:
			oppose++
		}
	}

	rc.Verdict, rc.Confidence = Verdict(support, oppose, len(rc.Sources))

	rc.Table = make([]model.SubClaimVerdict, 0, len(rc.SubClaims))
	for _, sc := range rc.SubClaims {
		rc.Table = append(rc.Table, SubClaimRow(sc, rc.Sources))
	}

	rc.Gaps = Gaps(len(rc.Sources), oppose)
	rc.Recommendations = Recommendations(rc.Sources)

	s.logger.Debug("synthesized",
		zap.Int("support", support),
		zap.Int("oppose", oppose),
		zap.Int("sources", len(rc.Sources)))
	rc.Log(fmt.Sprintf("Synthesizer: verdict %s at confidence %d%%.", rc.Verdict, rc.Confidence))
}

// Verdict maps stance counts to the overall verdict and its fixed confidence
func Verdict(support, oppose, total int) (model.Verdict, int) {
	if total < MinSources {
		return model.VerdictUnverifiable, ThinEvidenceConfidence
	}

	ratio := float64(support+1) / float64(oppose+1)
	for _, b := range ratioBuckets {
		if ratio > b.above {
			return b.verdict, b.confidence
		}
	}
	return model.VerdictFalse, 78
}

// SubClaimRow re-classifies every source snippet against one sub-claim
func SubClaimRow(subClaim string, sources []model.Source) model.SubClaimVerdict {
	var sup, opp []model.Source
	for _, src := range sources {
		switch validate.Stance(subClaim, src.Snippet) {
		case model.StanceSupport:
			sup = append(sup, src)
		case model.StanceOppose:
			opp = append(opp, src)
		}
	}

	verdict := model.VerdictUnverifiable
	switch {
	case len(sup) > len(opp)*subClaimMajority && len(sup) >= subClaimMajority:
		verdict = model.VerdictMostlyTrue
	case len(opp) > len(sup)*subClaimMajority && len(opp) >= subClaimMajority:
		verdict = model.VerdictMostlyFalse
	case len(sup)+len(opp) >= subClaimMinCombined:
		verdict = model.VerdictMixed
	}

	var strongest []model.Source
	strongest = append(strongest, head(sup, strongestPerSide)...)
	strongest = append(strongest, head(opp, strongestPerSide)...)
	links := make([]string, 0, len(strongest))
	quotes := make([]string, 0, len(strongest))
	for _, src := range strongest {
		links = append(links, src.URL)
		if src.Quote != "" {
			quotes = append(quotes, src.Quote)
		}
	}

	return model.SubClaimVerdict{
		SubClaim:        subClaim,
		Verdict:         verdict,
		Supporting:      len(sup),
		Opposing:        len(opp),
		StrongestLinks:  links,
		StrongestQuotes: quotes,
	}
}

// Gaps names what the evidence set is missing
func Gaps(total, oppose int) []string {
	gaps := []string{}
	if total < MinSources {
		gaps = append(gaps, gapThinSources)
	}
	if oppose == 0 {
		gaps = append(gaps, gapNoCounterClaims)
	}
	return gaps
}

// Recommendations lists the first sources as suggested reading
func Recommendations(sources []model.Source) []model.Recommendation {
	recs := make([]model.Recommendation, 0, MaxRecommendations)
	for _, src := range head(sources, MaxRecommendations) {
		recs = append(recs, model.Recommendation{
			Title: src.Title,
			URL:   src.URL,
			Why:   recommendationWhy,
		})
	}
	return recs
}

func head(sources []model.Source, n int) []model.Source {
	if len(sources) > n {
		return sources[:n]
	}
	return sources
}
