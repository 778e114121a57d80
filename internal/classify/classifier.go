package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"radex/internal/features"
)

// ErrModel indicates a classifier misuse: predicting before fitting, or
// feature shapes that do not match the fitted model.
var ErrModel = errors.New("classify: invalid model state")

// Classifier is the model capability the runner needs. Implementations fit on
// a feature matrix with integer targets, predict targets for new rows, and
// expose per-column importance scores aligned with the fitted columns.
type Classifier interface {
	Fit(matrix *features.Matrix, targets []int) error
	Predict(matrix *features.Matrix) ([]int, error)
	FeatureImportances() []float64
}

// NearestCentroid is a deterministic baseline classifier: one centroid per
// target class, predictions by smallest Euclidean distance. Importances are
// the normalized per-column spreads between class centroids, so columns that
// separate the classes score high.
type NearestCentroid struct {
	columns   []string
	classes   []int
	centroids map[int][]float64
}

// NewNearestCentroid builds an unfitted baseline classifier.
func NewNearestCentroid() *NearestCentroid {
	return &NearestCentroid{}
}

// Fit computes per-class centroids over the training rows.
func (n *NearestCentroid) Fit(matrix *features.Matrix, targets []int) error {
	if len(matrix.Rows) != len(targets) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrModel, len(matrix.Rows), len(targets))
	}
	if len(matrix.Rows) == 0 {
		return fmt.Errorf("%w: empty training set", ErrModel)
	}

	sums := map[int][]float64{}
	counts := map[int]int{}
	for i, row := range matrix.Rows {
		target := targets[i]
		if sums[target] == nil {
			sums[target] = make([]float64, len(matrix.Columns))
		}
		for j, value := range row {
			sums[target][j] += value
		}
		counts[target]++
	}

	n.columns = append([]string(nil), matrix.Columns...)
	n.centroids = make(map[int][]float64, len(sums))
	n.classes = n.classes[:0]
	for class, sum := range sums {
		centroid := make([]float64, len(sum))
		for j, total := range sum {
			centroid[j] = total / float64(counts[class])
		}
		n.centroids[class] = centroid
		n.classes = append(n.classes, class)
	}
	sort.Ints(n.classes)
	return nil
}

// Predict assigns each row the class of its nearest centroid. Distance ties
// resolve to the smallest class value.
func (n *NearestCentroid) Predict(matrix *features.Matrix) ([]int, error) {
	if n.centroids == nil {
		return nil, fmt.Errorf("%w: predict before fit", ErrModel)
	}
	if len(matrix.Columns) != len(n.columns) {
		return nil, fmt.Errorf("%w: fitted on %d columns, got %d", ErrModel, len(n.columns), len(matrix.Columns))
	}

	predictions := make([]int, len(matrix.Rows))
	for i, row := range matrix.Rows {
		best := n.classes[0]
		bestDistance := math.Inf(1)
		for _, class := range n.classes {
			distance := squaredDistance(row, n.centroids[class])
			if distance < bestDistance {
				bestDistance = distance
				best = class
			}
		}
		predictions[i] = best
	}
	return predictions, nil
}

// FeatureImportances returns per-column centroid spreads normalized to sum to
// one, aligned with the fitted columns. All-zero spreads stay all-zero.
func (n *NearestCentroid) FeatureImportances() []float64 {
	if n.centroids == nil {
		return nil
	}

	spreads := make([]float64, len(n.columns))
	for j := range n.columns {
		low := math.Inf(1)
		high := math.Inf(-1)
		for _, class := range n.classes {
			value := n.centroids[class][j]
			if value < low {
				low = value
			}
			if value > high {
				high = value
			}
		}
		spreads[j] = high - low
	}

	var total float64
	for _, spread := range spreads {
		total += spread
	}
	if total == 0 {
		return spreads
	}
	for j := range spreads {
		spreads[j] /= total
	}
	return spreads
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		delta := a[i] - b[i]
		sum += delta * delta
	}
	return sum
}
