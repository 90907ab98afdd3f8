// Package containment computes containment indices between clusters.
//
// The containment index of cluster A in cluster B is the fraction of A's
// members that are also members of B:
//
//	CI(A, B) = |A ∩ B| / |A|
//
// It is asymmetric: a small cluster nested inside a large one has index 1.0
// in the large one, while the large one has a low index in the small one.
// An index is undefined for an empty A, which is reported as an error.
//
// Rows of the result matrix are independent and are computed in parallel;
// the result never depends on the number of workers.
package containment

import (
	"cmp"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hiweave/internal/parallel"
	"github.com/matzehuels/hiweave/pkg/errors"
)

// Indices returns CI[i][j] = |a[i] ∩ b[j]| / |a[i]| for membership bitmaps
// over the same terminal set. Up to workers rows are computed concurrently
// (workers <= 0 uses GOMAXPROCS).
func Indices(a, b []*roaring.Bitmap, workers int) ([][]float64, error) {
	for i, row := range a {
		if row == nil || row.IsEmpty() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cluster %d is empty", i)
		}
	}

	ci := make([][]float64, len(a))
	var eg errgroup.Group
	eg.SetLimit(parallel.Limit(workers))
	for i, ai := range a {
		eg.Go(func() error {
			size := float64(ai.GetCardinality())
			row := make([]float64, len(b))
			for j, bj := range b {
				if bj == nil {
					continue
				}
				row[j] = float64(ai.AndCardinality(bj)) / size
			}
			ci[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return ci, nil
}

// Boolean is [Indices] for dense boolean membership matrices: a is m×n,
// b is k×n, and the result is m×k.
func Boolean(a, b [][]bool, workers int) ([][]float64, error) {
	width := -1
	for _, m := range [][][]bool{a, b} {
		for _, row := range m {
			if width < 0 {
				width = len(row)
			} else if len(row) != width {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"membership rows have different widths (%d and %d)", width, len(row))
			}
		}
	}
	return Indices(FromBools(a), FromBools(b), workers)
}

// Labels computes containment indices between the clusters induced by two
// label arrays over the same terminals. Clusters are the sorted unique labels
// of each array; la and lb name the rows and columns of ci.
func Labels[L cmp.Ordered](a, b []L) (ci [][]float64, la, lb []L, err error) {
	if len(a) != len(b) {
		return nil, nil, nil, errors.New(errors.ErrCodeInvalidInput,
			"label arrays differ in length (%d and %d)", len(a), len(b))
	}
	la, ma := Induce(a)
	lb, mb := Induce(b)
	ci, err = Indices(ma, mb, 1)
	if err != nil {
		return nil, nil, nil, err
	}
	return ci, la, lb, nil
}

// Induce splits a label array into clusters: one membership bitmap per
// distinct label, in sorted label order.
func Induce[L cmp.Ordered](labels []L) ([]L, []*roaring.Bitmap) {
	uniq := slices.Clone(labels)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)

	sets := make([]*roaring.Bitmap, len(uniq))
	for i := range sets {
		sets[i] = roaring.New()
	}
	for t, l := range labels {
		k, _ := slices.BinarySearch(uniq, l)
		sets[k].Add(uint32(t))
	}
	for _, s := range sets {
		s.RunOptimize()
	}
	return uniq, sets
}

// FromBools converts boolean membership rows to bitmaps.
func FromBools(rows [][]bool) []*roaring.Bitmap {
	sets := make([]*roaring.Bitmap, len(rows))
	for i, row := range rows {
		s := roaring.New()
		for t, in := range row {
			if in {
				s.Add(uint32(t))
			}
		}
		s.RunOptimize()
		sets[i] = s
	}
	return sets
}

