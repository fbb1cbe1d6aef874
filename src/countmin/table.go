package countmin

import (
	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/kmers"
)

const (
	// DefaultWidthBits gives 2^24 columns per row
	DefaultWidthBits uint = 24

	// DefaultRows is the number of rows (independent hash functions) in the table
	DefaultRows = 6

	hashBits uint = 64
)

// Config sets the shape of a count-min table
type Config struct {
	WidthBits uint
	Rows      int
}

// DefaultConfig returns the 6 x 2^24 table (~100MB)
func DefaultConfig() Config {
	return Config{
		WidthBits: DefaultWidthBits,
		Rows:      DefaultRows,
	}
}

// CountMin is a count-min sketch of 8 bit counters
// collisions can only inflate a count, so the estimate never undercounts
type CountMin struct {
	minCount     uint8
	widthBits    uint
	mask         uint64
	hashPerHash  int
	hashesNeeded int
	table        [][]uint8
}

// NewCountMin is the constructor for a CountMin counter
func NewCountMin(minCount uint8, config Config) (*CountMin, error) {
	if config.Rows < 1 {
		return nil, errors.Errorf("count-min table needs at least one row (got %d)", config.Rows)
	}
	if config.WidthBits < 1 || config.WidthBits > hashBits/2 {
		return nil, errors.Errorf("count-min table width must be between 1 and %d bits (got %d)", hashBits/2, config.WidthBits)
	}
	hashPerHash := int(hashBits / config.WidthBits)
	table := make([][]uint8, config.Rows)
	for i := range table {
		table[i] = make([]uint8, 1<<config.WidthBits)
	}
	return &CountMin{
		minCount:     minCount,
		widthBits:    config.WidthBits,
		mask:         (uint64(1) << config.WidthBits) - 1,
		hashPerHash:  hashPerHash,
		hashesNeeded: (config.Rows + hashPerHash - 1) / hashPerHash,
		table:        table,
	}, nil
}

// MinCount returns the count a k-mer must reach to be kept
func (countMin *CountMin) MinCount() uint8 {
	return countMin.minCount
}

// NumHashes returns the number of 64 bit hashes needed to address every row
func (countMin *CountMin) NumHashes() int {
	return countMin.hashesNeeded
}

// column returns the column to use in a row, taken from a non-overlapping window of one of the k-mer hashes
func (countMin *CountMin) column(hashes []uint64, row int) uint64 {
	hash := hashes[row/countMin.hashPerHash]
	window := uint(row % countMin.hashPerHash)
	return (hash >> (window * countMin.widthBits)) & countMin.mask
}

// AddCount records another sighting of the k-mer and returns its estimated count
func (countMin *CountMin) AddCount(hashSource kmers.HashSource) uint8 {
	hashes := hashSource.Hashes()
	checkHashes(hashes, countMin.hashesNeeded)
	estimate := MaxCount
	for row := range countMin.table {
		col := countMin.column(hashes, row)
		count := increment(countMin.table[row][col])
		countMin.table[row][col] = count
		if count < estimate {
			estimate = count
		}
	}
	return estimate
}

// Probe returns the estimated count for a k-mer without recording it
func (countMin *CountMin) Probe(hashSource kmers.HashSource) uint8 {
	hashes := hashSource.Hashes()
	checkHashes(hashes, countMin.hashesNeeded)
	estimate := MaxCount
	for row := range countMin.table {
		if count := countMin.table[row][countMin.column(hashes, row)]; count < estimate {
			estimate = count
		}
	}
	return estimate
}

// AboveMin reports if the k-mer has reached the minimum count
func (countMin *CountMin) AboveMin(hashSource kmers.HashSource) bool {
	return countMin.Probe(hashSource) >= countMin.minCount
}
