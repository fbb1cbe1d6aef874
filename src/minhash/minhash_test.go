package minhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-rowe/ppsketch/src/countmin"
)

var (
	kmerSize   = uint(7)
	sketchSize = 10
	sequence   = []byte("ACTGCGTGCGTGAAACGTGCACGTGACGTG")
	sequence2  = []byte("TGACGCACGCACTTTGCACGTGCACTGCAC")
)

func TestMinHashConstructor(t *testing.T) {
	mhBK := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	assert.Len(t, mhBK.GetSketch(), 0)
	assert.Equal(t, sketchSize, mhBK.sketchSize)
	assert.Equal(t, kmerSize, mhBK.kmerSize)
}

func TestAdd(t *testing.T) {
	mhBK := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	require.Error(t, mhBK.Add(sequence[0:1]), "should fault as sequences must be >= kmerSize")
	require.Error(t, mhBK.Add([]byte("ACGNNNACGTNN")), "should fault with no usable stretch")
	require.NoError(t, mhBK.Add(sequence))
	sketch := mhBK.GetSketch()
	assert.Len(t, sketch, sketchSize)
	for i := 1; i < len(sketch); i++ {
		assert.Less(t, sketch[i-1], sketch[i], "sketch must be sorted and free of duplicates")
	}
	// adding the same sequence again must not change the bottom-k
	require.NoError(t, mhBK.Add(sequence))
	assert.Equal(t, sketch, mhBK.GetSketch())
}

func TestCounterFilter(t *testing.T) {
	unfiltered := NewBottomKsketch(kmerSize, 100, false, nil)
	require.NoError(t, unfiltered.Add(sequence))

	filtered := NewBottomKsketch(kmerSize, 100, false, countmin.NewHashCounter(2))
	require.NoError(t, filtered.Add(sequence))
	firstPass := len(filtered.GetSketch())
	assert.Less(t, firstPass, len(unfiltered.GetSketch()), "k-mers seen once should be dropped")
	require.NoError(t, filtered.Add(sequence))
	assert.Equal(t, unfiltered.GetSketch(), filtered.GetSketch())

	cm, err := countmin.NewCountMin(2, countmin.Config{WidthBits: 12, Rows: 4})
	require.NoError(t, err)
	approx := NewBottomKsketch(kmerSize, 100, false, cm)
	require.NoError(t, approx.Add(sequence))
	require.NoError(t, approx.Add(sequence))
	assert.Equal(t, unfiltered.GetSketch(), approx.GetSketch())
}

func TestSimilarityEstimates(t *testing.T) {
	mhBK1 := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	require.NoError(t, mhBK1.Add(sequence))
	mhBK2 := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	require.NoError(t, mhBK2.Add(sequence))
	js, err := mhBK1.GetSimilarity(mhBK2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, js)

	mhBK3 := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	require.NoError(t, mhBK3.Add(sequence2))
	js, err = mhBK1.GetSimilarity(mhBK3)
	require.NoError(t, err)
	assert.True(t, js >= 0.0 && js < 1.0, "incorrect similarity estimate: %f", js)

	_, err = mhBK1.GetSimilarity(NewBottomKsketch(kmerSize, sketchSize+1, true, nil))
	assert.Equal(t, ErrSketchSize, err)
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.5, Jaccard([]uint64{1, 2, 3, 4}, []uint64{1, 2, 5, 6}, 4))
	assert.Equal(t, 1.0, Jaccard([]uint64{1, 2, 3}, []uint64{1, 2, 3}, 3))
	assert.Equal(t, 0.0, Jaccard([]uint64{1, 2}, []uint64{3, 4}, 4))
	assert.Equal(t, 0.0, Jaccard(nil, []uint64{3, 4}, 4))
	// the union is filled from the leftovers of the longer sketch
	assert.Equal(t, 0.25, Jaccard([]uint64{1}, []uint64{1, 2, 3, 4}, 4))
}

// benchmark Bottom-K
func BenchmarkBottomK(b *testing.B) {
	mhBK1 := NewBottomKsketch(kmerSize, sketchSize, true, nil)
	for n := 0; n < b.N; n++ {
		if err := mhBK1.Add(sequence); err != nil {
			b.Fatal(err)
		}
	}
}
