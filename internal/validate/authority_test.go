package validate

import (
	"testing"

	"github.com/ppiankov/trustlens/internal/model"
)

func TestQualityClassifier_Defaults(t *testing.T) {
	classifier := NewQualityClassifier(nil)

	tests := []struct {
		url      string
		expected model.Quality
		desc     string
	}{
		{"https://www.cdc.gov/flu/index.html", model.QualityHigh, "government suffix"},
		{"https://news.mit.edu/2024/story", model.QualityHigh, "academic suffix"},
		{"https://pubmed.ncbi.nlm.nih.gov/123456", model.QualityHigh, "pubmed"},
		{"https://www.nature.com/articles/x", model.QualityHigh, "nature"},
		{"https://en.wikipedia.org/wiki/Laksa", model.QualityMedium, "encyclopedia"},
		{"https://www.reuters.com/world/", model.QualityMedium, "wire service"},
		{"https://apnews.com/article/abc", model.QualityMedium, "wire service AP"},
		{"https://someblog.example.com/post", model.QualityLow, "long tail"},
		{"not-a-url", model.QualityLow, "unparseable"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := classifier.Classify(tt.url)
			if result != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.url, result)
			}
		})
	}
}

func TestQualityClassifier_CustomConfig(t *testing.T) {
	config := &model.AuthorityConfig{
		HighSuffixes:   []string{".ac.uk"},
		MediumContains: []string{"BBC.co.uk"},
	}

	classifier := NewQualityClassifier(config)

	if got := classifier.Classify("https://www.ox.ac.uk/news"); got != model.QualityHigh {
		t.Errorf("Expected high for .ac.uk, got %v", got)
	}
	if got := classifier.Classify("https://www.bbc.co.uk/news/1"); got != model.QualityMedium {
		t.Errorf("Expected medium for bbc, got %v", got)
	}
	if got := classifier.Classify("https://www.cdc.gov/"); got != model.QualityLow {
		t.Errorf("Expected low when .gov is not configured, got %v", got)
	}
}
