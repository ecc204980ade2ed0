// Package geofence decides whether a free-text location lies inside the
// service area.
package geofence

import "strings"

// Matcher matches against a gazetteer of place-name substrings. Matching is
// substring based, not whole-word, so "burgos st." and "brgy. burgosville"
// both pass.
type Matcher struct {
	places []string
}

func NewMatcher(gazetteer []string) *Matcher {
	places := make([]string, 0, len(gazetteer))
	for _, p := range gazetteer {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			places = append(places, p)
		}
	}
	return &Matcher{places: places}
}

func (m *Matcher) Contains(text string) bool {
	_, ok := m.Match(text)
	return ok
}

// Match returns the first gazetteer entry found in text.
func (m *Matcher) Match(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, p := range m.places {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}
