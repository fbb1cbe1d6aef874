package distances

import (
	"math"
	"strings"
	"testing"

	rng "github.com/leesper/go_rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-rowe/ppsketch/src/randommatch"
	"github.com/will-rowe/ppsketch/src/reference"
)

var testKs = []int{9, 13, 17}

// mutate copies a sequence, substituting bases at the given rate
func mutate(seq []byte, rate float64, seed int64) []byte {
	generator := rng.NewUniformGenerator(seed)
	mutant := append([]byte(nil), seq...)
	for i := range mutant {
		if generator.Float64() < rate {
			base := strings.IndexByte("ACGT", mutant[i])
			mutant[i] = "ACGT"[(base+1+int(generator.Int64n(3)))%4]
		}
	}
	return mutant
}

func randomGenome(seed int64, length int) []byte {
	generator := rng.NewUniformGenerator(seed)
	genome := make([]byte, length)
	for i := range genome {
		genome[i] = "ACGT"[generator.Int64n(4)]
	}
	return genome
}

func testRefs(t *testing.T) []*reference.Reference {
	opts := reference.Options{SketchSize: 256, UseRC: true}
	base := randomGenome(1, 5000)
	seqs := [][]byte{base, mutate(base, 0.01, 2), randomGenome(3, 5000)}
	refs := make([]*reference.Reference, len(seqs))
	for i, name := range []string{"base", "close", "unrelated"} {
		ref, err := reference.Sketch(name, [][]byte{seqs[i]}, testKs, opts)
		require.NoError(t, err)
		refs[i] = ref
	}
	return refs
}

func TestCorrectJaccard(t *testing.T) {
	assert.Equal(t, 1.0, CorrectJaccard(1.0, 0.2))
	assert.InDelta(t, 0.5, CorrectJaccard(0.6, 0.2), 1e-12)
	assert.Equal(t, 0.0, CorrectJaccard(0.1, 0.2))
	assert.Equal(t, 0.0, CorrectJaccard(0.5, 1.0))
	assert.Equal(t, 0.4, CorrectJaccard(0.4, 0.0))
}

func TestCoreAccessory(t *testing.T) {
	core, accessory := 0.01, 0.1
	jaccards := make([]float64, len(testKs))
	for i, k := range testKs {
		jaccards[i] = (1 - accessory) * math.Pow(1-core, float64(k))
	}
	gotCore, gotAccessory := CoreAccessory(testKs, jaccards)
	assert.InDelta(t, core, gotCore, 1e-9)
	assert.InDelta(t, accessory, gotAccessory, 1e-9)

	gotCore, gotAccessory = CoreAccessory(testKs, []float64{1, 1, 1})
	assert.InDelta(t, 0.0, gotCore, 1e-12)
	assert.InDelta(t, 0.0, gotAccessory, 1e-12)

	gotCore, gotAccessory = CoreAccessory(testKs, []float64{0.5, 0, 0})
	assert.Equal(t, 1.0, gotCore)
	assert.Equal(t, 1.0, gotAccessory)
}

func TestQueryDB(t *testing.T) {
	refs := testRefs(t)
	results, err := QueryDB(refs, refs, testKs, randommatch.NewBernoulli(true), Options{Threads: 2})
	require.NoError(t, err)
	rows, cols := results.Dims()
	assert.Equal(t, 9, rows)
	assert.Equal(t, 2, cols)

	// self comparisons sit on every fourth row
	for i := range refs {
		row := i*len(refs) + i
		assert.InDelta(t, 0.0, results.At(row, 0), 1e-9)
		assert.InDelta(t, 0.0, results.At(row, 1), 1e-9)
	}
	baseClose, baseUnrelated := results.At(1, 0), results.At(2, 0)
	assert.Greater(t, baseClose, 0.0)
	assert.Less(t, baseClose, baseUnrelated)

	jaccards, err := QueryDB(refs, refs[:1], testKs, randommatch.NewNoAdjustment(), Options{Jaccard: true})
	require.NoError(t, err)
	rows, cols = jaccards.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	for ki := range testKs {
		assert.Equal(t, 1.0, jaccards.At(0, ki))
		raw, err := refs[1].Jaccard(refs[0], testKs[ki])
		require.NoError(t, err)
		assert.Equal(t, raw, jaccards.At(1, ki))
	}
}

func TestQueryDBMonteCarlo(t *testing.T) {
	refs := testRefs(t)
	randomRefs := make([]randommatch.Reference, len(refs))
	for i, ref := range refs {
		randomRefs[i] = ref
	}
	opts := randommatch.DefaultMCOptions()
	opts.NClusters = 2
	opts.NMC = 2
	opts.SketchSize = 256
	opts.Threads = 2
	rmc, err := randommatch.NewMonteCarlo(randomRefs, opts)
	require.NoError(t, err)

	results, err := QueryDB(refs, refs, testKs, rmc, Options{Jaccard: true, Threads: 2})
	require.NoError(t, err)
	for i := range refs {
		for ki := range testKs {
			assert.InDelta(t, 1.0, results.At(i*len(refs)+i, ki), 1e-9)
		}
	}

	// the flattened table and the per-pair lookup agree
	ids, err := rmc.LookupArray([]string{"base", "close"})
	require.NoError(t, err)
	random, err := rmc.RandomMatch(refs[0], ids[1], refs[1].SeqLength(), 13)
	require.NoError(t, err)
	raw, err := refs[0].Jaccard(refs[1], 13)
	require.NoError(t, err)
	assert.InDelta(t, CorrectJaccard(raw, random), results.At(1, 1), 1e-6)

	_, err = QueryDB(refs, refs, []int{5, 9}, rmc, Options{})
	assert.Error(t, err, "k-mer lengths outside the calibrated range")
}

func TestQueryDBErrors(t *testing.T) {
	refs := testRefs(t)
	rmc := randommatch.NewBernoulli(true)
	_, err := QueryDB(nil, refs, testKs, rmc, Options{})
	assert.Error(t, err)
	_, err = QueryDB(refs, refs, nil, rmc, Options{})
	assert.Error(t, err)
	_, err = QueryDB(refs, refs, []int{13}, rmc, Options{})
	assert.Error(t, err)
	_, err = QueryDB(refs, refs, []int{13}, rmc, Options{Jaccard: true})
	assert.NoError(t, err)
	_, err = QueryDB(refs, refs, []int{13, 21}, rmc, Options{})
	assert.Error(t, err, "no sketch at k=21")
}
