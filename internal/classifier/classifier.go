// Package classifier implements the bag-of-words intent classifier: a TF-IDF
// vectorizer feeding a multinomial naive Bayes model. A Model is trained once
// and is safe for concurrent use afterwards.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/avvvet/intentbot/internal/models"
)

var (
	// ErrNotTrained indicates Predict was called on a model that was never fitted.
	ErrNotTrained = errors.New("classifier not trained")

	// ErrNoFeatures indicates the input has no terms from the training vocabulary.
	ErrNoFeatures = errors.New("no known terms in input")

	// ErrEmptyVocabulary indicates every training text reduced to stop words.
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrNotEnoughExamples indicates the split left nothing to train on.
	ErrNotEnoughExamples = errors.New("not enough training examples")
)

// Options controls training.
type Options struct {
	// TestSize is the fraction of examples held out for evaluation, in [0, 1).
	TestSize float64
	// Seed fixes the held-out partition.
	Seed uint64
	// Alpha is the additive smoothing parameter.
	Alpha float64
}

// DefaultOptions holds out 20% with seed 42 and uses Laplace smoothing.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, Seed: 42, Alpha: 1.0}
}

// Prediction is a successful classification.
type Prediction struct {
	Tag    string
	Score  float64            // joint log likelihood of Tag
	Scores map[string]float64 // per-tag joint log likelihood
}

// Model is a trained classifier.
type Model struct {
	vectorizer *Vectorizer
	nb         *naiveBayes
	trainSize  int
	heldOut    []models.Example
}

// Train fits a model on examples, holding out opts.TestSize of them.
func Train(examples []models.Example, opts Options) (*Model, error) {
	if opts.TestSize < 0 || opts.TestSize >= 1 {
		return nil, fmt.Errorf("test size %.2f out of range [0, 1)", opts.TestSize)
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 1.0
	}

	train, heldOut := split(examples, opts.TestSize, opts.Seed)
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: %d examples, %d held out", ErrNotEnoughExamples, len(examples), len(heldOut))
	}

	docs := make([]string, len(train))
	labels := make([]string, len(train))
	for i, ex := range train {
		docs[i] = Normalize(ex.Text)
		labels[i] = ex.Tag
	}

	vec := fitVectorizer(docs)
	if len(vec.terms) == 0 {
		return nil, ErrEmptyVocabulary
	}

	xs := make([]vector, len(docs))
	for i, d := range docs {
		xs[i] = vec.Transform(d)
	}

	return &Model{
		vectorizer: vec,
		nb:         fitNaiveBayes(xs, labels, len(vec.terms), opts.Alpha),
		trainSize:  len(train),
		heldOut:    heldOut,
	}, nil
}

// split deterministically partitions examples. The held-out part has
// ceil(testSize*n) examples; both parts keep their original relative order.
func split(examples []models.Example, testSize float64, seed uint64) (train, heldOut []models.Example) {
	n := len(examples)
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest == 0 {
		return append([]models.Example(nil), examples...), nil
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	test := make(map[int]bool, nTest)
	for _, i := range rng.Perm(n)[:nTest] {
		test[i] = true
	}
	for i, ex := range examples {
		if test[i] {
			heldOut = append(heldOut, ex)
		} else {
			train = append(train, ex)
		}
	}
	return train, heldOut
}

// Predict returns the most likely tag for text. There is no confidence
// threshold: any input with at least one known term gets a tag.
func (m *Model) Predict(text string) (Prediction, error) {
	if m == nil || m.vectorizer == nil || m.nb == nil {
		return Prediction{}, ErrNotTrained
	}

	x := m.vectorizer.Transform(Normalize(text))
	if len(x) == 0 {
		return Prediction{}, ErrNoFeatures
	}

	scores, best := m.nb.scores(x)
	p := Prediction{
		Tag:    m.nb.classes[best],
		Score:  scores[best],
		Scores: make(map[string]float64, len(scores)),
	}
	for i, c := range m.nb.classes {
		p.Scores[c] = scores[i]
	}
	return p, nil
}

// Classes returns the tags the model can predict, sorted. It is nil for an
// untrained model.
func (m *Model) Classes() []string {
	if m == nil || m.nb == nil {
		return nil
	}
	return append([]string(nil), m.nb.classes...)
}

// Vectorizer exposes the fitted vectorizer, or nil for an untrained model.
func (m *Model) Vectorizer() *Vectorizer {
	if m == nil {
		return nil
	}
	return m.vectorizer
}

// TrainSize is the number of examples the model was fitted on.
func (m *Model) TrainSize() int {
	if m == nil {
		return 0
	}
	return m.trainSize
}

// HeldOut returns the examples set aside during training.
func (m *Model) HeldOut() []models.Example {
	if m == nil {
		return nil
	}
	return append([]models.Example(nil), m.heldOut...)
}

// TagReport counts correct predictions for one expected tag.
type TagReport struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Report summarises an evaluation run.
type Report struct {
	Total    int                  `json:"total"`
	Correct  int                  `json:"correct"`
	Accuracy float64              `json:"accuracy"`
	PerTag   map[string]TagReport `json:"per_tag"`
}

// Evaluate measures accuracy over examples. Examples the model cannot
// classify count as wrong. Accuracy is 0 for an empty set.
func (m *Model) Evaluate(examples []models.Example) Report {
	r := Report{PerTag: make(map[string]TagReport)}
	for _, ex := range examples {
		tr := r.PerTag[ex.Tag]
		tr.Total++
		r.Total++

		p, err := m.Predict(ex.Text)
		if err == nil && p.Tag == ex.Tag {
			tr.Correct++
			r.Correct++
		}
		r.PerTag[ex.Tag] = tr
	}
	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}
	return r
}

// Tags returns the report's tags sorted, for stable output.
func (r Report) Tags() []string {
	tags := make([]string, 0, len(r.PerTag))
	for t := range r.PerTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
