package containment

import (
	"math/rand/v2"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hiweave/pkg/errors"
)

func randomMatrix(rng *rand.Rand, rows, cols int) [][]bool {
	m := make([][]bool, rows)
	for i := range m {
		m[i] = make([]bool, cols)
		for k := range m[i] {
			m[i][k] = rng.IntN(3) == 0
		}
		m[i][rng.IntN(cols)] = true // no empty rows
	}
	return m
}

func TestBoolean_ExactFormula(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	a := randomMatrix(rng, 12, 40)
	b := randomMatrix(rng, 9, 40)

	ci, err := Boolean(a, b, 3)
	require.NoError(t, err)
	require.Len(t, ci, len(a))

	for i := range a {
		nonzero := 0
		for _, v := range a[i] {
			if v {
				nonzero++
			}
		}
		for j := range b {
			both := 0
			for k := range a[i] {
				if a[i][k] && b[j][k] {
					both++
				}
			}
			want := float64(both) / float64(nonzero)
			if ci[i][j] != want {
				t.Errorf("CI[%d][%d] = %v, want %v", i, j, ci[i][j], want)
			}
		}
	}
}

func TestIndices_WorkerIndependence(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	a := FromBools(randomMatrix(rng, 30, 64))
	b := FromBools(randomMatrix(rng, 25, 64))

	serial, err := Indices(a, b, 1)
	require.NoError(t, err)
	for _, w := range []int{0, 2, 16} {
		got, err := Indices(a, b, w)
		require.NoError(t, err)
		assert.Equal(t, serial, got, "workers=%d", w)
	}
}

func TestIndices_Asymmetric(t *testing.T) {
	small := roaring.BitmapOf(0, 1)
	large := roaring.BitmapOf(0, 1, 2, 3)

	ci, err := Indices([]*roaring.Bitmap{small, large}, []*roaring.Bitmap{small, large}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, ci[0][1], "small in large")
	assert.Equal(t, 0.5, ci[1][0], "large in small")
	assert.Equal(t, 1.0, ci[0][0])
	assert.Equal(t, 1.0, ci[1][1])
}

func TestIndices_EmptyCluster(t *testing.T) {
	_, err := Indices([]*roaring.Bitmap{roaring.BitmapOf(1), roaring.New()}, nil, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestBoolean_RaggedRows(t *testing.T) {
	_, err := Boolean([][]bool{{true, false}}, [][]bool{{true}}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestLabels(t *testing.T) {
	ci, la, lb, err := Labels([]int{2, 2, 1, 1}, []int{0, 0, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, la)
	assert.Equal(t, []int{0, 1}, lb)
	// cluster 1 = {2, 3}, cluster 2 = {0, 1}
	assert.Equal(t, [][]float64{{0.5, 0.5}, {1, 0}}, ci)
}

func TestLabels_LengthMismatch(t *testing.T) {
	_, _, _, err := Labels([]string{"a"}, []string{"a", "b"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestInduce(t *testing.T) {
	labels, sets := Induce([]string{"b", "a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, labels)
	require.Len(t, sets, 3)
	assert.Equal(t, []uint32{1}, sets[0].ToArray())
	assert.Equal(t, []uint32{0, 2}, sets[1].ToArray())
	assert.Equal(t, []uint32{3}, sets[2].ToArray())
}
