package classifier

import (
	"math"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Normalize lower-cases s after NFC normalisation.
func Normalize(s string) string {
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// Tokenize normalises s and returns its vocabulary candidates, with stop
// words removed. Order and multiplicity are preserved.
func Tokenize(s string) []string {
	raw := tokenPattern.FindAllString(Normalize(s), -1)
	out := raw[:0]
	for _, tok := range raw {
		if !IsStopWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// feature is one non-zero entry of a sparse vector.
type feature struct {
	index  int
	weight float64
}

// vector is a sparse feature vector sorted by vocabulary index.
type vector []feature

// Vectorizer is a fitted TF-IDF transform. Read-only after fit.
type Vectorizer struct {
	vocab map[string]int
	terms []string
	idf   []float64
}

// fitVectorizer learns the vocabulary and smoothed idf weights from docs:
// idf(t) = ln((1+n)/(1+df(t))) + 1. Vocabulary indices follow term order.
func fitVectorizer(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		vocab: make(map[string]int, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Transform maps doc to an L2-normalised tf-idf vector. Terms outside the
// vocabulary are dropped; the result is empty when nothing is left.
func (v *Vectorizer) Transform(doc string) vector {
	tf := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if i, ok := v.vocab[tok]; ok {
			tf[i]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	x := make(vector, 0, len(tf))
	for i, n := range tf {
		x = append(x, feature{index: i, weight: n * v.idf[i]})
	}
	sort.Slice(x, func(a, b int) bool { return x[a].index < x[b].index })

	var sum float64
	for _, f := range x {
		sum += f.weight * f.weight
	}
	norm := math.Sqrt(sum)
	for i := range x {
		x[i].weight /= norm
	}
	return x
}

// Vocabulary returns the learned terms in index order.
func (v *Vectorizer) Vocabulary() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns the idf weight of term, and whether term is in the vocabulary.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	i, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[i], true
}
