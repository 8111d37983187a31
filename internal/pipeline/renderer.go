package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

const footer = "_Generated by TrustLens. Verdicts are heuristic summaries of the sources found, not rulings._\n"

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a Renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown formats the report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fact-check: %s\n\n", report.Claim)
	fmt.Fprintf(&b, "**Verdict:** %s (%d%% confidence)  \n", report.Verdict, report.Confidence)
	support, oppose, neutral := report.StanceCounts()
	fmt.Fprintf(&b, "**Sources:** %d (%d supporting, %d opposing, %d neutral)\n\n",
		report.SourceCount, support, oppose, neutral)

	if len(report.Table) > 0 {
		b.WriteString("## Evidence table\n\n")
		b.WriteString("| Sub-claim | Verdict | Supporting | Opposing | Strongest links |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, row := range report.Table {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
				cell(row.SubClaim), row.Verdict, row.Supporting, row.Opposing,
				cell(strings.Join(row.StrongestLinks, " ")))
		}
		b.WriteString("\n")
	}

	if len(report.Gaps) > 0 {
		b.WriteString("## Gaps\n\n")
		for _, g := range report.Gaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
		b.WriteString("\n")
	}

	if len(report.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for i, s := range report.Sources {
			fmt.Fprintf(&b, "%d. [%s](%s) (%s, %s)\n", i+1, s.Title, s.URL, s.Quality, s.Stance)
			if s.Quote != "" {
				fmt.Fprintf(&b, "   > %s\n", s.Quote)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommended reading\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "- [%s](%s): %s\n", rec.Title, rec.URL, rec.Why)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Timeline\n\n")
	for _, entry := range report.Timeline {
		fmt.Fprintf(&b, "- %s\n", entry)
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString(footer)
	}
	return b.String()
}

// RenderSummary prints a short summary of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	support, oppose, neutral := report.StanceCounts()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Claim:      %s\n", report.Claim)
	fmt.Fprintf(w, "Verdict:    %s (%d%%)\n", report.Verdict, report.Confidence)
	fmt.Fprintf(w, "Sources:    %d (support %d, oppose %d, neutral %d)\n", report.SourceCount, support, oppose, neutral)
	for _, g := range report.Gaps {
		fmt.Fprintf(w, "Gap:        %s\n", g)
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", report.RunID)
	}
	fmt.Fprintln(w)
}

func cell(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
