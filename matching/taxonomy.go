// Package matching pairs organizers with speakers by the advocacy causes found in video text.
// Everything here is in-memory and side-effect free; callers fetch candidates from storage
// and hand them to an Engine.
package matching

import "strings"

// CauseID identifies an advocacy topic.
type CauseID string

const (
	CauseClimate          CauseID = "climate"
	CauseEducation        CauseID = "education"
	CauseCivilRights      CauseID = "civil-rights"
	CauseMentalHealth     CauseID = "mental-health"
	CauseGunViolence      CauseID = "gun-violence"
	CauseImmigration      CauseID = "immigration"
	CauseHealthcare       CauseID = "healthcare"
	CausePoverty          CauseID = "poverty"
	CauseDemocracy        CauseID = "democracy"
	CauseYouthEmpowerment CauseID = "youth-empowerment"
	CauseLGBTQ            CauseID = "lgbtq"
	CauseRacialJustice    CauseID = "racial-justice"
	CauseWomensRights     CauseID = "womens-rights"
	CauseTechnology       CauseID = "technology"
	CauseCriminalJustice  CauseID = "criminal-justice"
	CauseOther            CauseID = "other"
)

// TaxonomyEntry is one cause and its keyword phrases.
type TaxonomyEntry struct {
	Cause    CauseID
	Keywords []string
}

// Taxonomy maps causes to keyword phrases. It is never mutated after construction.
type Taxonomy struct {
	causes   []CauseID
	keywords map[CauseID][]string
}

// NewTaxonomy builds a taxonomy from entries. Phrases are lower-cased and trimmed;
// a repeated cause keeps its first entry.
func NewTaxonomy(entries []TaxonomyEntry) *Taxonomy {
	t := &Taxonomy{
		causes:   make([]CauseID, 0, len(entries)),
		keywords: make(map[CauseID][]string, len(entries)),
	}
	for _, e := range entries {
		if _, dup := t.keywords[e.Cause]; dup {
			continue
		}
		phrases := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				phrases = append(phrases, kw)
			}
		}
		t.causes = append(t.causes, e.Cause)
		t.keywords[e.Cause] = phrases
	}
	return t
}

// KeywordsFor returns the phrases for cause; unknown causes have none.
func (t *Taxonomy) KeywordsFor(cause CauseID) []string {
	kws := t.keywords[cause]
	out := make([]string, len(kws))
	copy(out, kws)
	return out
}

// AllCauses returns every cause in declaration order.
func (t *Taxonomy) AllCauses() []CauseID {
	out := make([]CauseID, len(t.causes))
	copy(out, t.causes)
	return out
}

// Has reports whether cause is part of the taxonomy.
func (t *Taxonomy) Has(cause CauseID) bool {
	_, ok := t.keywords[cause]
	return ok
}

// KeywordsForAll returns the union of phrases for causes, first occurrence wins.
func (t *Taxonomy) KeywordsForAll(causes []CauseID) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range causes {
		for _, kw := range t.keywords[c] {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

var defaultTaxonomy = NewTaxonomy([]TaxonomyEntry{
	{CauseClimate, []string{"climate", "environment", "carbon", "renewable", "sustainability", "pollution", "green", "emissions", "fossil fuel", "global warming"}},
	{CauseEducation, []string{"education", "school", "student", "teacher", "learning", "college", "university", "curriculum", "academic"}},
	{CauseCivilRights, []string{"civil rights", "equality", "discrimination", "freedom", "rights", "justice", "liberty", "constitutional"}},
	{CauseMentalHealth, []string{"mental health", "depression", "anxiety", "therapy", "wellness", "suicide", "counseling", "psychological"}},
	{CauseGunViolence, []string{"gun", "firearm", "shooting", "second amendment", "gun control", "gun violence", "mass shooting"}},
	{CauseImmigration, []string{"immigration", "immigrant", "border", "refugee", "asylum", "deportation", "citizenship", "migrant"}},
	{CauseHealthcare, []string{"healthcare", "health care", "medical", "insurance", "hospital", "medicine", "doctor", "patient", "affordable care"}},
	{CausePoverty, []string{"poverty", "homeless", "hunger", "welfare", "low-income", "food insecurity", "economic inequality"}},
	{CauseDemocracy, []string{"democracy", "voting", "election", "ballot", "voter", "gerrymandering", "representation", "civic"}},
	{CauseYouthEmpowerment, []string{"youth", "young people", "generation", "student voice", "teen", "adolescent", "young adult"}},
	{CauseLGBTQ, []string{"lgbtq", "gay", "lesbian", "transgender", "queer", "pride", "sexual orientation", "gender identity"}},
	{CauseRacialJustice, []string{"racial", "racism", "black lives", "police brutality", "systemic racism", "racial justice", "discrimination"}},
	{CauseWomensRights, []string{"women", "feminist", "gender equality", "reproductive", "abortion", "pay gap", "metoo", "sexism"}},
	{CauseTechnology, []string{"technology", "privacy", "data", "surveillance", "social media", "artificial intelligence", "internet", "digital"}},
	{CauseCriminalJustice, []string{"criminal justice", "prison", "incarceration", "police", "reform", "bail", "sentencing", "rehabilitation"}},
	{CauseOther, nil},
})

// DefaultTaxonomy returns the built-in advocacy taxonomy.
func DefaultTaxonomy() *Taxonomy {
	return defaultTaxonomy
}
