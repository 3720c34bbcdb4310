// Package ahp derives criterion priorities with the Analytic Hierarchy Process
// and scores a parcel's features against them.
//
// The pairwise matrix is built from the declared weights (a_ij = w_i / w_j),
// so the consistency ratio of any all-positive weight set is ~0.
package ahp

import (
	"cmp"
	"fmt"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/Salah021-coder/start-up-sub000/internal/criteria"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// ConsistencyThreshold is the largest acceptable consistency ratio (exclusive).
const ConsistencyThreshold = 0.1

// Methodology is reported on every Result.
const Methodology = "AHP"

// noWeightScore is the total when no sub-score is paired with a weight.
const noWeightScore = 5.0

// randomIndex is Saaty's random consistency index by matrix order.
var randomIndex = map[int]float64{
	1: 0, 2: 0, 3: 0.58, 4: 0.90, 5: 1.12,
	6: 1.24, 7: 1.32, 8: 1.41, 9: 1.45, 10: 1.49,
}

const randomIndexMax = 1.49

// Result is the AHP outcome for one parcel.
type Result struct {
	Weights          model.OrderedValues `json:"weights"`
	ConsistencyRatio float64             `json:"consistency_ratio"`
	IsConsistent     bool                `json:"is_consistent"`
	LambdaMax        float64             `json:"lambda_max"`
	CriterionScores  model.OrderedValues `json:"criterion_scores"`
	TotalScore       float64             `json:"total_score"`
	Methodology      string              `json:"methodology"`
}

// Solve builds the ratio matrix from w, derives the priority vector, checks
// consistency and blends the feature sub-scores into a total.
//
// Sub-scores are paired with priorities by position (the i-th sub-score
// with criterion_i), not by name.
func Solve(fs *model.FeatureSet, w criteria.Weights) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, eris.Wrap(err, "ahp: invalid weights")
	}

	a := RatioMatrix(w.Flatten())
	priorities, err := PriorityVector(a)
	if err != nil {
		return nil, err
	}
	cr, lambda := ConsistencyRatio(a, priorities)

	weights := make(model.OrderedValues, len(priorities))
	for i, p := range priorities {
		weights[i] = model.NamedValue{Name: fmt.Sprintf("criterion_%d", i), Value: p}
	}

	scores := ScoreCriteria(fs, w)

	return &Result{
		Weights:          weights,
		ConsistencyRatio: cr,
		IsConsistent:     cr < ConsistencyThreshold,
		LambdaMax:        lambda,
		CriterionScores:  scores,
		TotalScore:       totalScore(scores, priorities),
		Methodology:      Methodology,
	}, nil
}

// RatioMatrix returns the n×n matrix with entry (i,j) = w_i / w_j.
func RatioMatrix(flat model.OrderedValues) *mat.Dense {
	n := len(flat)
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				a.Set(i, j, 1)
				continue
			}
			a.Set(i, j, flat[i].Value/flat[j].Value)
		}
	}
	return a
}

// PriorityVector returns the real part of the eigenvector of the largest
// eigenvalue, normalized to sum to 1. Eigenvalues are ordered by real part,
// then imaginary part.
func PriorityVector(a *mat.Dense) ([]float64, error) {
	n, _ := a.Dims()

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, eris.New("ahp: eigen decomposition did not converge")
	}
	values := eig.Values(nil)

	best := 0
	for i := 1; i < len(values); i++ {
		if c := cmp.Compare(real(values[i]), real(values[best])); c > 0 ||
			(c == 0 && imag(values[i]) > imag(values[best])) {
			best = i
		}
	}

	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	out := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		out[i] = real(vecs.At(i, best))
		sum += out[i]
	}
	if sum == 0 {
		return nil, eris.New("ahp: principal eigenvector sums to zero")
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// ConsistencyRatio returns CR and λmax for matrix a and priority vector w.
// CR is 0 when the random index is 0 (n <= 2).
func ConsistencyRatio(a *mat.Dense, w []float64) (cr, lambdaMax float64) {
	n := len(w)
	weighted := mat.NewVecDense(n, nil)
	weighted.MulVec(a, mat.NewVecDense(n, append([]float64(nil), w...)))

	for i := 0; i < n; i++ {
		lambdaMax += weighted.AtVec(i) / w[i]
	}
	lambdaMax /= float64(n)

	ri, ok := randomIndex[n]
	if !ok {
		ri = randomIndexMax
	}
	if ri == 0 {
		return 0, lambdaMax
	}
	ci := (lambdaMax - float64(n)) / float64(n-1)
	return ci / ri, lambdaMax
}

func totalScore(scores model.OrderedValues, priorities []float64) float64 {
	var total, used float64
	for i, s := range scores {
		if i >= len(priorities) {
			break
		}
		total += s.Value * priorities[i]
		used += priorities[i]
	}
	if used <= 0 {
		return noWeightScore
	}
	return total / used
}
