package countmin

import (
	"testing"

	rng "github.com/leesper/go_rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-rowe/ppsketch/src/kmers"
)

var smallTable = Config{WidthBits: 4, Rows: 3}

func TestConfig(t *testing.T) {
	_, err := NewCountMin(2, Config{WidthBits: 24, Rows: 0})
	require.Error(t, err, "zero rows should be rejected")
	_, err = NewCountMin(2, Config{WidthBits: 0, Rows: 6})
	require.Error(t, err, "zero width should be rejected")
	_, err = NewCountMin(2, Config{WidthBits: 33, Rows: 6})
	require.Error(t, err, "width wider than half a hash should be rejected")

	cm, err := NewCountMin(2, Config{WidthBits: 20, Rows: 6})
	require.NoError(t, err)
	assert.Equal(t, 2, cm.NumHashes(), "three 20 bit windows per hash, six rows")
	assert.Equal(t, uint8(2), cm.MinCount())
	assert.Equal(t, 1, NewHashCounter(2).NumHashes())

	if testing.Short() {
		t.Skip("skipping full size table")
	}
	counter, err := New(3, false)
	require.NoError(t, err)
	assert.Equal(t, 3, counter.NumHashes(), "two 24 bit windows per hash, six rows")
}

func TestColumn(t *testing.T) {
	cm, err := NewCountMin(1, smallTable)
	require.NoError(t, err)
	hashes := []uint64{0x321}
	assert.Equal(t, uint64(1), cm.column(hashes, 0))
	assert.Equal(t, uint64(2), cm.column(hashes, 1))
	assert.Equal(t, uint64(3), cm.column(hashes, 2))
}

func TestMonotonicCounting(t *testing.T) {
	for _, exact := range []bool{true, false} {
		var counter KmerCounter
		var err error
		if exact {
			counter = NewHashCounter(3)
		} else {
			counter, err = NewCountMin(3, smallTable)
			require.NoError(t, err)
		}
		kmer := kmers.Probe{0xABCDEF}
		seenAbove := false
		for i := 1; i <= 10; i++ {
			count := counter.AddCount(kmer)
			assert.Equal(t, uint8(i), count)
			above := counter.AboveMin(kmer)
			assert.Equal(t, count >= 3, above, "exact=%v observation %d", exact, i)
			if seenAbove {
				assert.True(t, above, "above_min must not flip back")
			}
			seenAbove = above
		}
	}
}

func TestAboveMinDoesNotCount(t *testing.T) {
	counter := NewHashCounter(1)
	kmer := kmers.Probe{42}
	for i := 0; i < 5; i++ {
		assert.False(t, counter.AboveMin(kmer))
	}
	assert.Equal(t, uint8(1), counter.AddCount(kmer))
	assert.True(t, counter.AboveMin(kmer))
	assert.Equal(t, 1, counter.Distinct())
}

func TestSaturation(t *testing.T) {
	cm, err := NewCountMin(1, smallTable)
	require.NoError(t, err)
	hc := NewHashCounter(1)
	kmer := kmers.Probe{7}
	for i := 0; i < 300; i++ {
		cm.AddCount(kmer)
		hc.AddCount(kmer)
	}
	assert.Equal(t, MaxCount, cm.AddCount(kmer))
	assert.Equal(t, MaxCount, hc.AddCount(kmer))
	assert.Equal(t, MaxCount, cm.Probe(kmer))
	assert.Equal(t, MaxCount, hc.Probe(kmer))
}

func TestNoUndercount(t *testing.T) {
	cm, err := NewCountMin(1, smallTable)
	require.NoError(t, err)
	hc := NewHashCounter(1)
	generator := rng.NewUniformGenerator(1234)
	pool := make([]kmers.Probe, 50)
	for i := range pool {
		pool[i] = kmers.Probe{uint64(generator.Int64())}
	}
	for i := 0; i < 2000; i++ {
		kmer := pool[generator.Int64n(int64(len(pool)))]
		estimate := cm.AddCount(kmer)
		exact := hc.AddCount(kmer)
		require.GreaterOrEqual(t, estimate, exact)
	}
	for _, kmer := range pool {
		assert.GreaterOrEqual(t, cm.Probe(kmer), hc.Probe(kmer))
	}
}

func TestShortProbe(t *testing.T) {
	cm, err := NewCountMin(1, Config{WidthBits: 20, Rows: 6})
	require.NoError(t, err)
	assert.Panics(t, func() { cm.AddCount(kmers.Probe{1}) })
}

// benchmark the count-min table
func BenchmarkCountMin(b *testing.B) {
	cm, err := NewCountMin(2, Config{WidthBits: 16, Rows: 6})
	if err != nil {
		b.Fatal(err)
	}
	kmer := kmers.Probe{0x123456789, 0x987654321, 0xABCDEF}
	for n := 0; n < b.N; n++ {
		kmer[0] += uint64(n)
		cm.AddCount(kmer)
	}
}

// benchmark the exact counter
func BenchmarkHashCounter(b *testing.B) {
	hc := NewHashCounter(2)
	kmer := kmers.Probe{0}
	for n := 0; n < b.N; n++ {
		kmer[0] = uint64(n % 4096)
		hc.AddCount(kmer)
	}
}
