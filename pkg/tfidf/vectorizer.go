package tfidf

import (
	"math"
	"strings"
)

// Vectorizer turns documents into TF-IDF vectors over a vocabulary learned
// from the fitted corpus. Terms unseen during Fit are ignored at transform
// time.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// NewVectorizer creates a new Vectorizer
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		vocabulary: make(map[string]int),
	}
}

// Fit learns the vocabulary and inverse document frequencies from docs.
func (v *Vectorizer) Fit(docs []string) {
	docCount := len(docs)
	termDocCount := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range strings.Fields(doc) {
			term = strings.ToLower(term)
			if _, exists := v.vocabulary[term]; !exists {
				v.vocabulary[term] = len(v.vocabulary)
			}
			if !seen[term] {
				termDocCount[term]++
				seen[term] = true
			}
		}
	}

	v.idf = make([]float64, len(v.vocabulary))
	for term, count := range termDocCount {
		v.idf[v.vocabulary[term]] = math.Log(float64(docCount) / float64(count+1))
	}
}

// Transform maps docs onto the fitted vocabulary as TF-IDF vectors.
func (v *Vectorizer) Transform(docs []string) [][]float64 {
	vectors := make([][]float64, len(docs))

	for i, doc := range docs {
		tf := make([]float64, len(v.vocabulary))
		for _, term := range strings.Fields(doc) {
			if idx, ok := v.vocabulary[strings.ToLower(term)]; ok {
				tf[idx]++
			}
		}

		vec := make([]float64, len(v.vocabulary))
		for j, termFreq := range tf {
			vec[j] = termFreq * v.idf[j]
		}
		vectors[i] = vec
	}

	return vectors
}

// FitTransform fits the vectorizer to the input documents and then transforms them
func (v *Vectorizer) FitTransform(docs []string) [][]float64 {
	v.Fit(docs)
	return v.Transform(docs)
}

// VocabularySize reports the number of learned terms.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}
