package validate

import (
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
)

// QualityClassifier buckets sources by domain heuristics
type QualityClassifier struct {
	highSuffixes   []string
	highContains   []string
	mediumContains []string
}

// NewQualityClassifier creates a classifier from config; nil uses defaults
func NewQualityClassifier(config *model.AuthorityConfig) *QualityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	return &QualityClassifier{
		highSuffixes:   lowerAll(config.HighSuffixes),
		highContains:   lowerAll(config.HighContains),
		mediumContains: lowerAll(config.MediumContains),
	}
}

// Classify returns the quality bucket for a URL
func (q *QualityClassifier) Classify(rawURL string) model.Quality {
	d := util.Domain(rawURL)
	if d == "" {
		return model.QualityLow
	}

	for _, suffix := range q.highSuffixes {
		if strings.HasSuffix(d, suffix) {
			return model.QualityHigh
		}
	}
	for _, part := range q.highContains {
		if strings.Contains(d, part) {
			return model.QualityHigh
		}
	}
	for _, part := range q.mediumContains {
		if strings.Contains(d, part) {
			return model.QualityMedium
		}
	}

	return model.QualityLow
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
