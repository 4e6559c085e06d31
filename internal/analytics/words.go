package analytics

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopwords are excluded from title word counts unless overridden
var DefaultStopwords = []string{"the", "a", "and", "of", "to", "in", "on", "for", "with"}

// WordCount is a word and its number of occurrences
type WordCount struct {
	Word  string
	Count int
}

// foldTitle decomposes accented letters, drops combining marks, lowercases,
// and keeps only ASCII letters and whitespace.
func foldTitle(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// TopWordsInTrackTitles counts words across catalog track names and returns
// the n most frequent, ties broken alphabetically. A nil stopwords uses
// DefaultStopwords; an empty non-nil slice disables filtering.
func (a *Analyzer) TopWordsInTrackTitles(n int, stopwords []string) ([]WordCount, error) {
	if a.catalog == nil {
		return nil, ErrNoCatalog
	}
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	skip := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		skip[strings.ToLower(w)] = true
	}

	counts := make(map[string]int)
	for i := range a.catalog {
		for _, w := range strings.Fields(foldTitle(a.catalog[i].TrackName)) {
			if !skip[w] {
				counts[w]++
			}
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
