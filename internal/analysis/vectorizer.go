package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern keeps runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Terms splits text into lowercase unigrams followed by adjacent bigrams.
func Terms(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// Vectorizer is a bag-of-terms extractor over a bounded vocabulary.
type Vectorizer struct {
	vocab map[string]bool
}

// FitVectorizer keeps the maxFeatures most frequent terms of the corpus.
// Ties are broken alphabetically so fitting is deterministic.
func FitVectorizer(corpus []string, maxFeatures int) *Vectorizer {
	counts := make(map[string]int)
	for _, doc := range corpus {
		for _, term := range Terms(doc) {
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	vocab := make(map[string]bool, len(terms))
	for _, term := range terms {
		vocab[term] = true
	}
	return &Vectorizer{vocab: vocab}
}

// Size returns the vocabulary size.
func (v *Vectorizer) Size() int {
	return len(v.vocab)
}

// Transform returns the in-vocabulary terms of text.
func (v *Vectorizer) Transform(text string) []string {
	var out []string
	for _, term := range Terms(text) {
		if v.vocab[term] {
			out = append(out, term)
		}
	}
	return out
}
