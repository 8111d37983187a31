package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/trustlens/internal/util"
)

var linkRe = regexp.MustCompile(`https?://[^\s"'<>)]+`)

// Links finds absolute http(s) URLs in free text and returns their
// canonical forms, deduplicated in order of appearance
func Links(text string) []string {
	found := linkRe.FindAllString(text, -1)
	out := make([]string, 0, len(found))
	for _, l := range found {
		out = append(out, util.Canonical(strings.TrimRight(l, ".,);")))
	}
	return Dedupe(out)
}
