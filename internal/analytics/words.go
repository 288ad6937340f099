// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package analytics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// DefaultStopwords are dropped from word counts. The feature text is built
// from possessive amenity names, which leave a stray "s" token.
var DefaultStopwords = []string{"s"}

// WordCount is one word cloud entry.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// wordPattern matches a word character followed by word characters or
// apostrophes.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']*`)

// WordFrequencies counts lower-cased words in text, dropping stopwords,
// pure numbers and trailing possessive "'s". The result is ordered by count
// then word and truncated to limit entries when limit > 0.
func WordFrequencies(text string, stopwords []string, limit int) []WordCount {
	stop := lo.SliceToMap(stopwords, func(w string) (string, struct{}) {
		return strings.ToLower(w), struct{}{}
	})

	tokens := lo.FilterMap(wordPattern.FindAllString(text, -1), func(tok string, _ int) (string, bool) {
		word := strings.ToLower(tok)
		word = strings.TrimSuffix(word, "'s")
		word = strings.Trim(word, "'")
		if word == "" || isNumber(word) {
			return "", false
		}
		if _, skip := stop[word]; skip {
			return "", false
		}
		return word, true
	})

	out := lo.MapToSlice(lo.CountValues(tokens), func(word string, n int) WordCount {
		return WordCount{Word: word, Count: n}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func isNumber(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
