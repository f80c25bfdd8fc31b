package synonym

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoadDictionaryColonFormat(t *testing.T) {
	s := New(discardLogger())
	require.NoError(t, s.LoadDictionary(strings.NewReader("fast: quick, rapid, speedy\n# comment\nslow: sluggish\n")))
	assert.Equal(t, []string{"quick", "rapid", "speedy"}, s.GetSynonyms("fast"))
}

func TestLoadDictionarySpaceFormat(t *testing.T) {
	s := New(discardLogger())
	require.NoError(t, s.LoadDictionary(strings.NewReader("car automobile vehicle\n")))
	assert.Equal(t, []string{"automobile", "vehicle"}, s.GetSynonyms("car"))
}

func TestGetSynonymsShortWordReturnsEmpty(t *testing.T) {
	s := New(discardLogger())
	assert.Empty(t, s.GetSynonyms("a"))
}

func TestGetSynonymsTruncatesAndSorts(t *testing.T) {
	s := New(discardLogger())
	s.AddCustomSynonyms("big", []string{"zeta", "alpha", "gamma", "beta", "delta", "epsilon"})
	result := s.GetSynonyms("big")
	assert.Len(t, result, defaultMaxSynonyms)
	assert.True(t, sortedStrings(result))
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i-1] > ss[i] {
			return false
		}
	}
	return true
}

func TestExpandQuerySkipsStopWordsAndShortWords(t *testing.T) {
	s := New(discardLogger())
	s.AddCustomSynonyms("fast", []string{"quick", "rapid"})
	expanded := s.ExpandQuery("the fast car", 3)
	assert.Equal(t, "the fast quick rapid car", expanded)
}

func TestExpandQueryRespectsMaxExpansions(t *testing.T) {
	s := New(discardLogger())
	s.AddCustomSynonyms("fast", []string{"quick"})
	s.AddCustomSynonyms("car", []string{"auto"})
	expanded := s.ExpandQuery("fast car", 1)
	assert.Equal(t, "fast quick car", expanded)
}

type fakeExternal struct{ syns []string }

func (f fakeExternal) Lookup(string) []string { return f.syns }

func TestExternalLookupCombinesWithCustomDict(t *testing.T) {
	s := New(discardLogger(), WithExternalLookup(fakeExternal{syns: []string{"wordnetsyn"}}))
	s.AddCustomSynonyms("fast", []string{"quick"})
	result := s.GetSynonyms("fast")
	assert.ElementsMatch(t, []string{"quick", "wordnetsyn"}, result)
}

func TestIsAvailable(t *testing.T) {
	s := New(discardLogger())
	assert.False(t, s.IsAvailable())
	s.AddCustomSynonyms("x", []string{"y"})
	assert.True(t, s.IsAvailable())
}
