// Package tags derives play tags from caption text.
package tags

import (
	"strings"

	"github.com/samber/lo"
)

// Formations are offensive alignments.
var Formations = []string{
	"trips", "doubles", "bunch", "empty", "wing", "tight",
	"stack", "pistol", "under center", "gun", "singleback", "offset",
}

// PlayTypes are run and pass concepts.
var PlayTypes = []string{
	"inside zone", "outside zone", "power", "counter", "jet sweep",
	"toss", "iso", "bootleg", "play action", "rpo", "screen", "slant",
	"post", "fade", "corner", "wheel", "flood", "mesh", "snag", "levels",
}

// Strategies are situational and game-management keywords.
var Strategies = []string{
	"motion", "red zone", "third down", "goal line", "two minute",
	"tempo", "trick play", "double pass", "reverse", "fake",
}

// Generate returns every vocabulary keyword contained in caption, matched
// case-insensitively as a substring. Results follow vocabulary order
// (formations, play types, strategies) with duplicates removed.
func Generate(caption string) []string {
	lc := strings.ToLower(caption)
	if strings.TrimSpace(lc) == "" {
		return []string{}
	}

	var out []string
	for _, list := range [][]string{Formations, PlayTypes, Strategies} {
		out = append(out, lo.Filter(list, func(kw string, _ int) bool {
			return strings.Contains(lc, kw)
		})...)
	}
	if out == nil {
		return []string{}
	}
	return lo.Uniq(out)
}

// Normalize trims caller-supplied tags and drops empties and duplicates.
func Normalize(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}

// Resolve picks the tags stored on a play. policy is "caller", "caption"
// or "merge"; anything else behaves as merge.
func Resolve(policy string, caller []string, caption string) []string {
	switch policy {
	case "caller":
		return Normalize(caller)
	case "caption":
		return Generate(caption)
	default:
		return Normalize(append(Normalize(caller), Generate(caption)...))
	}
}
