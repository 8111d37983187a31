package model

// RunRequest is the caller-facing input of a fact-check run
type RunRequest struct {
	Claim     string `json:"claim"`
	SourceURL string `json:"source_url"`
	Context   string `json:"context"`
	InputType string `json:"input_type" binding:"omitempty,oneof=url image document"`
	FileName  string `json:"file_name"`
}

// Report is the finished result of a run
type Report struct {
	Claim           string            `json:"claim"`
	Verdict         Verdict           `json:"verdict"`
	Confidence      int               `json:"confidence"`
	Timeline        []string          `json:"timeline"`
	SourceCount     int               `json:"source_count"`
	Sources         []Source          `json:"sources"`
	SubClaims       []string          `json:"sub_claims"`
	Table           []SubClaimVerdict `json:"table"`
	Gaps            []string          `json:"gaps"`
	Recommendations []Recommendation  `json:"recommendations"`

	RunID string `json:"-"`
}

// StanceCounts tallies the report sources by stance
func (r *Report) StanceCounts() (support, oppose, neutral int) {
	for _, s := range r.Sources {
		switch s.Stance {
		case StanceSupport:
			support++
		case StanceOppose:
			oppose++
		default:
			neutral++
		}
	}
	return support, oppose, neutral
}
