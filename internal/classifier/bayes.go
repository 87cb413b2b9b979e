package classifier

import (
	"math"
	"sort"
)

// naiveBayes is a multinomial naive Bayes model over tf-idf features.
type naiveBayes struct {
	classes  []string    // sorted
	logPrior []float64   // per class
	logProb  [][]float64 // [class][feature]
}

// fitNaiveBayes estimates class priors from label frequencies and smoothed
// per-class feature log probabilities:
// log P(f|c) = log((count(f,c)+alpha) / (sum_f count(f,c) + alpha*nFeatures)).
func fitNaiveBayes(xs []vector, labels []string, nFeatures int, alpha float64) *naiveBayes {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, nFeatures)
	}
	for d, x := range xs {
		row := featureCount[index[labels[d]]]
		for _, f := range x {
			row[f.index] += f.weight
		}
	}

	nb := &naiveBayes{
		classes:  classes,
		logPrior: make([]float64, len(classes)),
		logProb:  make([][]float64, len(classes)),
	}
	total := float64(len(labels))
	for i, c := range classes {
		nb.logPrior[i] = math.Log(float64(counts[c]) / total)

		var sum float64
		for _, v := range featureCount[i] {
			sum += v + alpha
		}
		logSum := math.Log(sum)
		nb.logProb[i] = make([]float64, nFeatures)
		for f, v := range featureCount[i] {
			nb.logProb[i][f] = math.Log(v+alpha) - logSum
		}
	}
	return nb
}

// scores returns the joint log likelihood of x for every class, and the index
// of the best one. Ties go to the first class in sorted order.
func (nb *naiveBayes) scores(x vector) ([]float64, int) {
	out := make([]float64, len(nb.classes))
	best := 0
	for i := range nb.classes {
		s := nb.logPrior[i]
		for _, f := range x {
			s += f.weight * nb.logProb[i][f.index]
		}
		out[i] = s
		if s > out[best] {
			best = i
		}
	}
	return out, best
}
