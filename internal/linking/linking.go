// Package linking resolves typed issue links against the fixed set of hops
// that connect the rings of a traversal.
package linking

import (
	"strings"

	"github.com/danielolaszy/starburst/pkg/models"
)

// Hop is one parent to child relationship between two rings.
type Hop int

const (
	// HopPlannedIn connects a PI to its goals. It is resolved by fix version,
	// never by link, so it carries no labels.
	HopPlannedIn Hop = iota
	// HopAchievedThrough connects a goal to its impacts.
	HopAchievedThrough
	// HopRealisedBy connects an impact to its delivery items.
	HopRealisedBy
	// HopRelatesTo connects a delivery item to its objectives.
	HopRelatesTo
)

// Hops lists every hop in ring order.
var Hops = []Hop{HopPlannedIn, HopAchievedThrough, HopRealisedBy, HopRelatesTo}

// Matcher holds the accepted labels for each side of a link, already
// normalised.
type Matcher struct {
	Outward []string
	Inward  []string
}

var synonyms = []struct{ from, to string }{
	{"realized", "realised"},
	{"achieves", "achieve"},
	{"helps to", "helps"},
}

// hopLabels is the canonical label table. The realised-by outward side also
// accepts the reversed phrasing some projects use on custom link types.
var hopLabels = map[Hop]struct{ outward, inward []string }{
	HopAchievedThrough: {outward: []string{"is achieved through"}, inward: []string{"helps achieve"}},
	HopRealisedBy:      {outward: []string{"realises", "is realised by"}, inward: []string{"realised by"}},
	HopRelatesTo:       {outward: []string{"relates to"}, inward: []string{"relates to"}},
}

var matchers = buildMatchers()

func buildMatchers() map[Hop]Matcher {
	out := make(map[Hop]Matcher, len(hopLabels))
	for hop, labels := range hopLabels {
		m := Matcher{}
		for _, l := range labels.outward {
			m.Outward = append(m.Outward, Normalize(l))
		}
		for _, l := range labels.inward {
			m.Inward = append(m.Inward, Normalize(l))
		}
		out[hop] = m
	}
	return out
}

// String returns the hop name used in logs and metrics.
func (h Hop) String() string {
	switch h {
	case HopPlannedIn:
		return "planned_in"
	case HopAchievedThrough:
		return "achieved_through"
	case HopRealisedBy:
		return "realised_by"
	case HopRelatesTo:
		return "relates_to"
	default:
		return "unknown"
	}
}

// Matcher returns the normalised label table of the hop. The second return
// value is false for hops that are not resolved through links.
func (h Hop) Matcher() (Matcher, bool) {
	m, ok := matchers[h]
	return m, ok
}

// Normalize lower-cases and trims a label, strips a leading "is ", folds the
// known spelling variants and collapses whitespace.
func Normalize(label string) string {
	n := strings.ToLower(strings.TrimSpace(label))
	n = strings.TrimPrefix(n, "is ")
	for _, s := range synonyms {
		n = strings.ReplaceAll(n, s.from, s.to)
	}
	return strings.Join(strings.Fields(n), " ")
}

// Matches reports whether an actual link label matches an expected one. The
// normalised labels match when equal or when either contains the other.
func Matches(actual, expected string) bool {
	if strings.TrimSpace(actual) == "" {
		return false
	}
	return matchNormalized(Normalize(actual), Normalize(expected))
}

func matchNormalized(actual, expected string) bool {
	if actual == "" || expected == "" {
		return false
	}
	return actual == expected ||
		strings.Contains(actual, expected) ||
		strings.Contains(expected, actual)
}

func matchAny(actual string, expected []string) bool {
	if strings.TrimSpace(actual) == "" {
		return false
	}
	n := Normalize(actual)
	for _, e := range expected {
		if matchNormalized(n, e) {
			return true
		}
	}
	return false
}

// ResolveLinkedKey returns the key at the other end of link when the link
// matches hop. Links pointing back at currentKey are ignored.
func ResolveLinkedKey(link models.Link, currentKey string, hop Hop) (string, bool) {
	m, ok := hop.Matcher()
	if !ok {
		return "", false
	}

	if link.OutwardKey != "" && link.OutwardKey != currentKey && matchAny(link.LabelOutward, m.Outward) {
		return link.OutwardKey, true
	}

	if link.InwardKey != "" && link.InwardKey != currentKey && matchAny(link.LabelInward, m.Inward) {
		return link.InwardKey, true
	}

	return "", false
}

// CollectLinkedKeys resolves every link of issue against hop and returns the
// linked keys in link order, without duplicates.
func CollectLinkedKeys(issue models.Issue, hop Hop) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, link := range issue.Links {
		key, ok := ResolveLinkedKey(link, issue.Key, hop)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}
