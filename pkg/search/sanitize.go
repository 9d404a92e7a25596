package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxQueryLength = 100
	trigramLength  = 3
)

// NormalizeQuery trims the input and caps it at maxQueryLength runes.
func NormalizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) > maxQueryLength {
		input = strings.TrimSpace(string([]rune(input)[:maxQueryLength]))
	}
	return input
}

// SanitizeFTSQuery escapes FTS5 special characters and wraps in quotes for literal matching.
// FTS5 has its own query language with operators (AND, OR, NOT, *, NEAR(), :, ", etc.).
// Even with parameterized queries, the FTS5 engine interprets these.
func SanitizeFTSQuery(input string) string {
	input = NormalizeQuery(input)
	if input == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(input, `"`, `""`) + `"`
}

// Words splits text into lower-cased words made of letters and digits.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// BuildTrigramQuery creates an FTS5 query that matches any row sharing at
// least one trigram with one of the words. Words shorter than a trigram can't
// be matched this way and are skipped; the query is empty when nothing is
// left.
func BuildTrigramQuery(words []string) string {
	seen := map[string]struct{}{}
	var phrases []string
	for _, word := range words {
		runes := []rune(word)
		for i := 0; i+trigramLength <= len(runes); i++ {
			gram := string(runes[i : i+trigramLength])
			if _, ok := seen[gram]; ok {
				continue
			}
			seen[gram] = struct{}{}
			phrases = append(phrases, SanitizeFTSQuery(gram))
		}
	}
	return strings.Join(phrases, " OR ")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a LIKE pattern, escaped with '!', that matches text
// anywhere in a column.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
