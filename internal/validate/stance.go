package validate

import (
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

var (
	opposeMarkers  = []string{"debunk", "false", "hoax", "not true", "retracted", "denied"}
	supportMarkers = []string{"confirmed", "official", "announced", "reported", "verified"}
)

// Stance classifies a snippet relative to a claim by substring markers over
// both texts. Oppose markers take precedence.
func Stance(claim, snippet string) model.Stance {
	t := strings.ToLower(claim + " " + snippet)
	for _, m := range opposeMarkers {
		if strings.Contains(t, m) {
			return model.StanceOppose
		}
	}
	for _, m := range supportMarkers {
		if strings.Contains(t, m) {
			return model.StanceSupport
		}
	}
	return model.StanceNeutral
}
