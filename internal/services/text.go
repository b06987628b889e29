package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\s().\-]{8,}\d`)
	numberPattern = regexp.MustCompile(`[$€£]?\d[\d,.]*%?`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
)

var stopwords = toSet(
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "during", "each", "etc", "for", "from", "had", "has", "have", "having", "he",
	"her", "here", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "just", "like",
	"may", "me", "more", "most", "must", "my", "no", "not", "of", "on", "one", "only", "or", "other",
	"our", "out", "over", "own", "per", "same", "she", "should", "so", "some", "such", "than", "that",
	"the", "their", "them", "then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "us", "very", "was", "we", "well", "were", "what", "when", "where", "which",
	"while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
	"able", "ability", "experience", "including", "strong", "work", "working", "role", "team", "years",
	"year", "candidate", "looking", "join", "required", "requirements", "preferred", "plus", "using",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// tokenize lower-cases text and splits it into words. '+', '#' and inner dots are kept so
// terms like "c++", "c#" and "node.js" survive.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.' && r != '\''
	})

	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

// keywords returns up to limit distinct content words ranked by frequency, then alphabetically.
func keywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len(tok) < 3 || isNumeric(tok) {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}

	out := make([]string, 0, len(counts))
	for tok := range counts {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// coverage is the fraction of terms present in set. An empty term list covers nothing.
func coverage(terms []string, set map[string]struct{}) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, t := range terms {
		if _, ok := set[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// countTerms counts occurrences of single words and multi-word phrases in lower-cased text.
func countTerms(lower string, tokens []string, terms []string) int {
	set := make(map[string]int, len(tokens))
	for _, t := range tokens {
		set[t]++
	}

	n := 0
	for _, term := range terms {
		if strings.Contains(term, " ") {
			n += strings.Count(lower, term)
			continue
		}
		n += set[term]
	}
	return n
}

// distinctTerms counts how many of terms appear at least once.
func distinctTerms(lower string, tokens []string, terms []string) int {
	set := toSet(tokens...)
	n := 0
	for _, term := range terms {
		if strings.Contains(term, " ") {
			if strings.Contains(lower, term) {
				n++
			}
			continue
		}
		if _, ok := set[term]; ok {
			n++
		}
	}
	return n
}

func sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
