// Package partition normalizes flat partitions into an assignment matrix:
// one membership bitmap per cluster, in a fixed row order.
//
// A partition assigns each of n terminals to exactly one cluster. Given as
// a label array, each distinct label induces one cluster; clusters of one
// partition are ordered by label. Given in boolean form, each row is itself
// a cluster. Rows are numbered across partitions in input order, and that
// numbering drives every deterministic ordering downstream.
package partition

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/hiweave/pkg/containment"
	"github.com/matzehuels/hiweave/pkg/errors"
)

// Cluster is one row of the assignment matrix.
type Cluster struct {
	Row        int     // position in the assignment matrix
	Partition  int     // originating partition
	Occurrence int     // position within the originating partition
	Level      float64 // ordering key of the originating partition
	Label      string  // source label, "true" for boolean rows
	Members    *roaring.Bitmap
}

// Size returns the number of terminals in the cluster.
func (c Cluster) Size() int { return int(c.Members.GetCardinality()) }

// Assignment is the normalized input of a weave.
type Assignment struct {
	Clusters     []Cluster
	Terminals    []string
	Partitions   int
	AssumeLevels bool
}

// NumTerminals returns n, the number of terminals every partition covers.
func (a *Assignment) NumTerminals() int { return len(a.Terminals) }

// Rows returns the membership bitmaps in row order.
func (a *Assignment) Rows() []*roaring.Bitmap {
	rows := make([]*roaring.Bitmap, len(a.Clusters))
	for i, c := range a.Clusters {
		rows[i] = c.Members
	}
	return rows
}

// FromLabels builds an assignment from label partitions. Every partition
// must label the same number of terminals.
func FromLabels[L cmp.Ordered](parts [][]L, opts ...Option) (*Assignment, error) {
	lengths := make([]int, len(parts))
	for i, p := range parts {
		lengths[i] = len(p)
	}
	a, levels, err := prepare(lengths, opts)
	if err != nil {
		return nil, err
	}

	for i, p := range parts {
		labels, sets := containment.Induce(p)
		for k, set := range sets {
			a.Clusters = append(a.Clusters, Cluster{
				Row:        len(a.Clusters),
				Partition:  i,
				Occurrence: k,
				Level:      levels[i],
				Label:      fmt.Sprint(labels[k]),
				Members:    set,
			})
		}
	}
	return a, nil
}

// FromBoolean builds an assignment from boolean membership rows, each row
// being one cluster. Rows must not be empty.
func FromBoolean(parts [][]bool, opts ...Option) (*Assignment, error) {
	lengths := make([]int, len(parts))
	for i, p := range parts {
		lengths[i] = len(p)
	}
	a, levels, err := prepare(lengths, opts)
	if err != nil {
		return nil, err
	}

	for i, set := range containment.FromBools(parts) {
		if set.IsEmpty() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "partition %d has no members", i)
		}
		a.Clusters = append(a.Clusters, Cluster{
			Row:       i,
			Partition: i,
			Level:     levels[i],
			Label:     "true",
			Members:   set,
		})
	}
	return a, nil
}

// ParseBits parses boolean partitions written as strings of '0' and '1',
// e.g. "11110000".
func ParseBits(lines []string) ([][]bool, error) {
	parts := make([][]bool, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		row := make([]bool, len(line))
		for k, ch := range line {
			switch ch {
			case '1':
				row[k] = true
			case '0':
			default:
				return nil, errors.New(errors.ErrCodeInvalidFormat,
					"partition %d: unexpected character %q at position %d", i, ch, k)
			}
		}
		parts[i] = row
	}
	return parts, nil
}

func prepare(lengths []int, opts []Option) (*Assignment, []float64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(lengths) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "partitions cannot be empty")
	}
	n := lengths[0]
	for i, l := range lengths {
		if l != n {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput,
				"partitions must have the same length: partition %d has %d terminals, want %d", i, l, n)
		}
	}
	if n == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "partitions cannot be empty")
	}

	terminals := o.terminals
	if terminals == nil {
		terminals = make([]string, n)
		for i := range terminals {
			terminals[i] = strconv.Itoa(i)
		}
	} else if len(terminals) != n {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput,
			"terminal nodes size mismatch: %d instead of %d", len(terminals), n)
	}
	seen := make(map[string]struct{}, n)
	for _, t := range terminals {
		if _, dup := seen[t]; dup {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "duplicate terminal label %q", t)
		}
		seen[t] = struct{}{}
	}

	levels := o.levelKeys
	if levels == nil {
		levels = make([]float64, len(lengths))
		for i := range levels {
			levels[i] = float64(i)
		}
	} else if len(levels) != len(lengths) {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput,
			"levels/partitions length mismatch: %d/%d", len(levels), len(lengths))
	}

	return &Assignment{
		Terminals:    terminals,
		Partitions:   len(lengths),
		AssumeLevels: o.assumeLevels,
	}, levels, nil
}
