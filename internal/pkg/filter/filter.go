/*
Package filter implements the default content predicate used to reject chat messages.

Detection is delegated to go-away, which lowercases the text and undoes common leet
speak, accent and punctuation tricks before matching. Default loads go-away's built-in
dictionary; operators can add their own words with With.
*/
package filter

import (
	"sort"
	"strings"

	goaway "github.com/TwiN/go-away"
)

// Filter is an immutable profanity dictionary.
type Filter struct {
	words    []string
	detector *goaway.ProfanityDetector
}

// New builds a Filter matching only the given words. Blank entries are ignored.
func New(words ...string) *Filter {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = struct{}{}
		}
	}

	list := make([]string, 0, len(set))
	for w := range set {
		list = append(list, w)
	}
	sort.Strings(list)

	return &Filter{
		words: list,
		detector: goaway.NewProfanityDetector().
			WithCustomDictionary(list, goaway.DefaultFalsePositives, goaway.DefaultFalseNegatives),
	}
}

// Default returns a Filter loaded with go-away's built-in dictionary.
func Default() *Filter {
	return New(goaway.DefaultProfanities...)
}

// With returns a new Filter containing the receiver's words plus extra.
func (f *Filter) With(extra ...string) *Filter {
	all := make([]string, 0, len(f.words)+len(extra))
	all = append(all, f.words...)
	return New(append(all, extra...)...)
}

// IsDisallowed reports whether text contains any dictionary word.
func (f *Filter) IsDisallowed(text string) bool {
	if len(f.words) == 0 || strings.TrimSpace(text) == "" {
		return false
	}
	return f.detector.IsProfane(text)
}

// Len returns the number of words in the dictionary.
func (f *Filter) Len() int {
	return len(f.words)
}
