package matching

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomy_KeywordsFor(t *testing.T) {
	tax := DefaultTaxonomy()

	assert.Contains(t, tax.KeywordsFor(CauseClimate), "fossil fuel")
	assert.Empty(t, tax.KeywordsFor("not-a-cause"))
	assert.Empty(t, tax.KeywordsFor(CauseOther))
	assert.True(t, tax.Has(CauseOther))
	assert.False(t, tax.Has("not-a-cause"))

	all := tax.AllCauses()
	require.Len(t, all, 16)
	assert.Equal(t, CauseClimate, all[0])
	assert.Equal(t, CauseOther, all[len(all)-1])
}

func TestTaxonomy_IsImmutable(t *testing.T) {
	tax := NewTaxonomy([]TaxonomyEntry{{Cause: "climate", Keywords: []string{" Climate ", "CARBON", ""}}})

	kws := tax.KeywordsFor("climate")
	require.Equal(t, []string{"climate", "carbon"}, kws)
	kws[0] = "mutated"
	assert.Equal(t, []string{"climate", "carbon"}, tax.KeywordsFor("climate"))

	causes := tax.AllCauses()
	causes[0] = "mutated"
	assert.Equal(t, []CauseID{"climate"}, tax.AllCauses())
}

func TestTaxonomy_KeywordsForAll(t *testing.T) {
	tax := NewTaxonomy([]TaxonomyEntry{
		{Cause: "a", Keywords: []string{"one", "shared"}},
		{Cause: "b", Keywords: []string{"shared", "two"}},
	})

	assert.Equal(t, []string{"one", "shared", "two"}, tax.KeywordsForAll([]CauseID{"a", "b", "missing"}))
	assert.Empty(t, tax.KeywordsForAll(nil))
}

func TestExtract_LowercasesAndToleratesEmptyFields(t *testing.T) {
	v := VideoContent{Title: "Carbon TAXES", Script: "Now"}
	assert.Equal(t, "carbon taxes   now", Extract(v))
	assert.Equal(t, "   ", Extract(VideoContent{}))
}

func TestMatcher_SubstringMatchesInsideWords(t *testing.T) {
	// Substring containment is the long-standing behaviour: "art" is found in "heart".
	tax := NewTaxonomy([]TaxonomyEntry{{Cause: "arts", Keywords: []string{"art"}}})
	m := NewMatcher(tax, ModeSubstring)

	text := Extract(VideoContent{Title: "I have a heart for justice"})
	assert.Equal(t, []CauseID{"arts"}, m.MatchedCauses(text, []CauseID{"arts"}))
}

func TestMatcher_WordBoundaryRejectsInnerWords(t *testing.T) {
	tax := NewTaxonomy([]TaxonomyEntry{{Cause: "arts", Keywords: []string{"art"}}})
	m := NewMatcher(tax, ModeWordBoundary)

	assert.Empty(t, m.MatchedCauses("i have a heart for justice", []CauseID{"arts"}))
	assert.Equal(t, []CauseID{"arts"}, m.MatchedCauses("state of the art, again", []CauseID{"arts"}))
	assert.Equal(t, []CauseID{"arts"}, m.MatchedCauses("art", []CauseID{"arts"}))
	assert.Equal(t, []CauseID{"arts"}, m.MatchedCauses("heart art", []CauseID{"arts"}))
}

func TestMatcher_MatchedCausesRespectsCandidates(t *testing.T) {
	m := NewMatcher(DefaultTaxonomy(), ModeSubstring)
	text := "the carbon economy and our schools"

	got := m.MatchedCauses(text, []CauseID{CauseEducation, CauseClimate, CauseEducation, CauseHealthcare})
	assert.Equal(t, []CauseID{CauseEducation, CauseClimate}, got)

	assert.Empty(t, m.MatchedCauses(text, nil))
	assert.Empty(t, m.MatchedCauses("", []CauseID{CauseClimate}))
	assert.Empty(t, m.MatchedCauses(text, []CauseID{"unknown"}))
}

func TestMatcher_CaseInsensitive(t *testing.T) {
	m := NewMatcher(DefaultTaxonomy(), ModeSubstring)
	assert.Equal(t, []CauseID{CauseClimate}, m.MatchedCauses("GLOBAL WARMING", []CauseID{CauseClimate}))
}

func TestMatcher_DiscoverCausesUsesTaxonomyOrder(t *testing.T) {
	m := NewMatcher(DefaultTaxonomy(), ModeSubstring)

	// "discrimination" belongs to both civil-rights and racial-justice.
	got := m.DiscoverCauses("voting rules and discrimination")
	assert.Equal(t, []CauseID{CauseCivilRights, CauseDemocracy, CauseRacialJustice}, got)
}

func TestMatcher_EmptyTaxonomy(t *testing.T) {
	m := NewMatcher(NewTaxonomy(nil), ModeSubstring)
	assert.Empty(t, m.DiscoverCauses("anything at all"))
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	m := NewMatcher(DefaultTaxonomy(), ModeSubstring)
	want := m.DiscoverCauses("carbon emissions in every school")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, want, m.DiscoverCauses("carbon emissions in every school"))
			}
		}()
	}
	wg.Wait()
}

func TestParseMatchMode(t *testing.T) {
	assert.Equal(t, ModeWordBoundary, ParseMatchMode(" Word "))
	assert.Equal(t, ModeSubstring, ParseMatchMode("substring"))
	assert.Equal(t, ModeSubstring, ParseMatchMode(""))
}

func TestMatcher_MatchesAny(t *testing.T) {
	m := NewMatcher(DefaultTaxonomy(), ModeSubstring)

	assert.True(t, m.MatchesAny("Carbon taxes now", []string{"carbon"}))
	assert.False(t, m.MatchesAny("carbon taxes now", []string{"school"}))
	assert.True(t, m.MatchesAny("a debate about chess", []string{"chess"}), "phrases outside the taxonomy")
	assert.False(t, m.MatchesAny("carbon", nil))

	w := NewMatcher(DefaultTaxonomy(), ModeWordBoundary)
	assert.False(t, w.MatchesAny("greenery", []string{"green"}))
	assert.True(t, w.MatchesAny("go green!", []string{"green"}))
}
