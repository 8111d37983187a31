package model

// InputType describes what the caller submitted alongside the claim
type InputType string

const (
	InputURL      InputType = "url"
	InputImage    InputType = "image"
	InputDocument InputType = "document"
)

// ParseInputType maps a raw string to an InputType, defaulting to url
func ParseInputType(s string) InputType {
	switch InputType(s) {
	case InputImage:
		return InputImage
	case InputDocument:
		return InputDocument
	default:
		return InputURL
	}
}

// Verdict is the overall or per-sub-claim outcome
type Verdict string

const (
	VerdictTrue         Verdict = "True"
	VerdictMostlyTrue   Verdict = "Mostly True"
	VerdictMixed        Verdict = "Mixed"
	VerdictMostlyFalse  Verdict = "Mostly False"
	VerdictFalse        Verdict = "False"
	VerdictUnverifiable Verdict = "Unverifiable"
)

// Stance classifies a snippet relative to a claim
type Stance string

const (
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
	StanceNeutral Stance = "neutral"
)

// Quality is the domain-heuristic trust bucket of a source
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Backend records which discovery channel produced a source
type Backend string

const (
	BackendWeb       Backend = "web"
	BackendWikipedia Backend = "wikipedia"
)

// Source is one accepted piece of evidence. Immutable once appended to a run.
type Source struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`     // Canonical form
	Snippet string  `json:"snippet"` // At most 260 characters
	Backend Backend `json:"source"`
	Quality Quality `json:"quality"`
	Stance  Stance  `json:"stance"`
	Quote   string  `json:"quote"`
}

// SubClaimVerdict is one row of the evidence table
type SubClaimVerdict struct {
	SubClaim        string   `json:"sub_claim"`
	Verdict         Verdict  `json:"verdict"`
	Supporting      int      `json:"supporting"`
	Opposing        int      `json:"opposing"`
	StrongestLinks  []string `json:"strongest_links"`
	StrongestQuotes []string `json:"strongest_quotes"`
}

// Recommendation points the reader at a source worth opening first
type Recommendation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Why   string `json:"why"`
}

// RunContext is the record threaded through the stages of a single run.
// A run owns it exclusively; it is never shared between runs.
type RunContext struct {
	// Inputs, fixed once the decomposer has run
	Claim     string
	SourceURL string
	Context   string
	InputType InputType
	FileName  string

	AnchorText      string
	AnchorTerms     []string
	SubClaims       []string
	Queries         []string
	PivotQueries    []string
	DiscoveredLinks []string
	Sources         []Source

	Table           []SubClaimVerdict
	Verdict         Verdict
	Confidence      int
	Gaps            []string
	Recommendations []Recommendation

	Timeline []string
}

// NewRunContext creates the initial record for a request
func NewRunContext(req RunRequest) *RunContext {
	return &RunContext{
		Claim:      req.Claim,
		SourceURL:  req.SourceURL,
		Context:    req.Context,
		InputType:  ParseInputType(req.InputType),
		FileName:   req.FileName,
		Verdict:    VerdictUnverifiable,
		Confidence: 25,
	}
}

// Log appends an entry to the run timeline
func (rc *RunContext) Log(entry string) {
	rc.Timeline = append(rc.Timeline, entry)
}
