package kmers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kmerSize = 7
	sequence = []byte("ACTGCGTGCGTGAAACGTGCACGTGACGTG")
)

func TestIterator(t *testing.T) {
	_, err := NewIterator(sequence[0:3], uint(kmerSize), 2, true)
	require.Error(t, err, "should fault as sequences must be >= kmerSize")
	_, err = NewIterator(sequence, uint(kmerSize), 0, true)
	require.Error(t, err, "should fault with zero hashes per k-mer")

	iterator, err := NewIterator(sequence, uint(kmerSize), 3, true)
	require.NoError(t, err)
	assert.Equal(t, 3, iterator.NumHashes())
	positions := 0
	for iterator.Next() {
		positions++
		assert.Len(t, iterator.Hashes(), 3)
	}
	assert.Equal(t, len(sequence)-kmerSize+1, positions)
}

func TestIteratorClose(t *testing.T) {
	iterator, err := NewIterator(sequence, uint(kmerSize), 1, false)
	require.NoError(t, err)
	require.True(t, iterator.Next())
	iterator.Close()
	assert.False(t, iterator.Next())
}

func TestSplitACGT(t *testing.T) {
	fragments := SplitACGT([]byte("acgtaNNACGTACGTAcXGT"), 4)
	require.Len(t, fragments, 2)
	assert.Equal(t, "ACGTA", string(fragments[0]))
	assert.Equal(t, "ACGTACGTAC", string(fragments[1]))
	assert.Empty(t, SplitACGT([]byte("ACNGT"), 3))
}

func TestComposition(t *testing.T) {
	comp := Composition([]byte("AACGTNNT"))
	assert.InDeltaSlice(t, []float64{2.0 / 6, 1.0 / 6, 1.0 / 6, 2.0 / 6}, comp[:], 1e-12)
	assert.Equal(t, [4]float64{}, Composition([]byte("NNN")))
}

func TestBaseCounts(t *testing.T) {
	assert.Equal(t, [4]int{3, 1, 1, 2}, BaseCounts([]byte("aACGTNNTxA")))
	assert.Equal(t, [4]int{}, BaseCounts([]byte("NNN")))
}

func TestProbe(t *testing.T) {
	var source HashSource = Probe{1, 2, 3}
	assert.Equal(t, []uint64{1, 2, 3}, source.Hashes())
}
