package matching

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// MatchMode selects how a keyword phrase has to occur in text to count.
type MatchMode string

const (
	// ModeSubstring counts any literal occurrence, so "art" matches inside "heart".
	ModeSubstring MatchMode = "substring"
	// ModeWordBoundary requires the phrase to be delimited by non-alphanumeric runes.
	ModeWordBoundary MatchMode = "word"
)

// ParseMatchMode returns the mode named s, defaulting to ModeSubstring.
func ParseMatchMode(s string) MatchMode {
	if MatchMode(strings.ToLower(strings.TrimSpace(s))) == ModeWordBoundary {
		return ModeWordBoundary
	}
	return ModeSubstring
}

// Matcher finds which causes' keywords occur in a piece of text.
// One Aho-Corasick pass covers every phrase in the taxonomy.
type Matcher struct {
	taxonomy *Taxonomy
	mode     MatchMode

	keywords   []string
	kwToCauses map[string][]CauseID

	// ahocorasick.Matcher keeps per-call counters on its nodes, so Match is not reentrant.
	ac lockedAutomaton
}

type lockedAutomaton struct {
	sync.Mutex
	m *ahocorasick.Matcher
}

// NewMatcher builds the automaton for every phrase in t.
func NewMatcher(t *Taxonomy, mode MatchMode) *Matcher {
	m := &Matcher{
		taxonomy:   t,
		mode:       mode,
		kwToCauses: make(map[string][]CauseID),
	}
	for _, c := range t.AllCauses() {
		for _, kw := range t.KeywordsFor(c) {
			if _, ok := m.kwToCauses[kw]; !ok {
				m.keywords = append(m.keywords, kw)
			}
			m.kwToCauses[kw] = append(m.kwToCauses[kw], c)
		}
	}
	if len(m.keywords) > 0 {
		m.ac.m = ahocorasick.NewStringMatcher(m.keywords)
	}
	return m
}

// Mode reports the matching mode in use.
func (m *Matcher) Mode() MatchMode {
	return m.mode
}

// Taxonomy returns the taxonomy the matcher was built from.
func (m *Matcher) Taxonomy() *Taxonomy {
	return m.taxonomy
}

// phrases returns the taxonomy phrases present in text under the matcher's mode.
func (m *Matcher) phrases(text string) []string {
	if m.ac.m == nil || text == "" {
		return nil
	}
	text = strings.ToLower(text)

	m.ac.Lock()
	idx := m.ac.m.Match([]byte(text))
	m.ac.Unlock()

	out := make([]string, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(m.keywords) {
			continue
		}
		kw := m.keywords[i]
		if m.mode == ModeWordBoundary && !containsWord(text, kw) {
			continue
		}
		out = append(out, kw)
	}
	return out
}

// hits returns the set of causes with at least one keyword present in text.
func (m *Matcher) hits(text string) map[CauseID]struct{} {
	out := make(map[CauseID]struct{})
	for _, kw := range m.phrases(text) {
		for _, c := range m.kwToCauses[kw] {
			out[c] = struct{}{}
		}
	}
	return out
}

// MatchesAny reports whether any of keywords occurs in text. Phrases outside the
// taxonomy are checked directly.
func (m *Matcher) MatchesAny(text string, keywords []string) bool {
	if len(keywords) == 0 || text == "" {
		return false
	}
	present := make(map[string]struct{})
	for _, kw := range m.phrases(text) {
		present[kw] = struct{}{}
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := present[kw]; ok {
			return true
		}
		if _, known := m.kwToCauses[kw]; known {
			continue
		}
		if m.mode == ModeWordBoundary {
			if containsWord(lower, kw) {
				return true
			}
		} else if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchedCauses returns the candidates, in their given order and without repeats,
// that have a keyword present in text.
func (m *Matcher) MatchedCauses(text string, candidates []CauseID) []CauseID {
	found := m.hits(text)
	out := []CauseID{}
	seen := make(map[CauseID]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := found[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// DiscoverCauses scans text against the whole taxonomy and returns hits in taxonomy order.
func (m *Matcher) DiscoverCauses(text string) []CauseID {
	return m.MatchedCauses(text, m.taxonomy.AllCauses())
}

// containsWord reports whether kw occurs in text with non-alphanumeric runes (or the
// text edges) on both sides.
func containsWord(text, kw string) bool {
	for start := 0; start <= len(text)-len(kw); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if boundaryBefore(text, i) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
