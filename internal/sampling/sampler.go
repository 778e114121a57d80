package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrOutOfRange indicates a fractional sample size outside [0, 1].
	ErrOutOfRange = errors.New("sampling: fractional count must be between 0 and 1")
	// ErrCount indicates a non-fractional sample size that is not a whole number.
	ErrCount = errors.New("sampling: count must be a whole number")
	// ErrInsufficientData indicates the requested sample exceeds the smallest
	// category. Retrying with the same parameters cannot succeed.
	ErrInsufficientData = errors.New("sampling: sample larger than smallest category")
)

// Labeled is the collection surface the sampler needs: the full ID universe
// and a per-metric label lookup. A false second return marks the item as
// unlabeled for that metric; such items are excluded from stratification but
// remain part of the universe.
type Labeled interface {
	IDs() []string
	Label(id, metric string) (int, bool)
}

// EqualSample draws the same number of IDs from every label category, chosen
// uniformly without replacement. If fractional, count is a fraction of the
// smallest category; otherwise count is taken verbatim. The same seed and
// collection contents always produce the same selection regardless of
// category iteration order.
func EqualSample(collection Labeled, count float64, fractional bool, metric string, seed int64) ([]string, error) {
	categories := partition(collection, metric)
	minCount := smallestCategory(categories)

	var toChoose int
	if fractional {
		if count < 0 || count > 1 {
			return nil, fmt.Errorf("%w: %v", ErrOutOfRange, count)
		}
		toChoose = int(math.Round(count * float64(minCount)))
	} else {
		if count != math.Trunc(count) {
			return nil, fmt.Errorf("%w: %v", ErrCount, count)
		}
		toChoose = int(count)
	}
	if toChoose > minCount {
		return nil, fmt.Errorf("%w: requested %d, smallest category has %d", ErrInsufficientData, toChoose, minCount)
	}

	// One root PRNG consumed in sorted-category order keeps the draw
	// independent of map iteration.
	rng := rand.New(rand.NewSource(seed))
	values := make([]int, 0, len(categories))
	for value := range categories {
		values = append(values, value)
	}
	sort.Ints(values)

	chosen := make([]string, 0, toChoose*len(values))
	for _, value := range values {
		ids := categories[value]
		sort.Strings(ids)
		for _, index := range rng.Perm(len(ids))[:toChoose] {
			chosen = append(chosen, ids[index])
		}
	}
	sort.Strings(chosen)
	return chosen, nil
}

// Complement returns every ID in the collection that was not chosen.
func Complement(collection Labeled, chosen []string) []string {
	taken := make(map[string]struct{}, len(chosen))
	for _, id := range chosen {
		taken[id] = struct{}{}
	}

	var remaining []string
	for _, id := range collection.IDs() {
		if _, ok := taken[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	return remaining
}

// DropUnlabeled filters out IDs whose label for metric is null.
func DropUnlabeled(collection Labeled, ids []string, metric string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := collection.Label(id, metric); ok {
			kept = append(kept, id)
		}
	}
	return kept
}

// TargetValues returns the metric labels aligned with the order of ids.
// Every ID must be labeled; drop unlabeled items first.
func TargetValues(collection Labeled, ids []string, metric string) ([]int, error) {
	values := make([]int, len(ids))
	for i, id := range ids {
		value, ok := collection.Label(id, metric)
		if !ok {
			return nil, fmt.Errorf("sampling: %s has no %s label", id, metric)
		}
		values[i] = value
	}
	return values, nil
}

func partition(collection Labeled, metric string) map[int][]string {
	categories := make(map[int][]string)
	for _, id := range collection.IDs() {
		if value, ok := collection.Label(id, metric); ok {
			categories[value] = append(categories[value], id)
		}
	}
	return categories
}

func smallestCategory(categories map[int][]string) int {
	minCount := 0
	first := true
	for _, ids := range categories {
		if first || len(ids) < minCount {
			minCount = len(ids)
			first = false
		}
	}
	return minCount
}
