// Package countmin decides which k-mers in a read stream are real, by counting how often each k-mer is seen. Two counters are provided: a fixed memory count-min sketch and an exact hash map.
package countmin

import (
	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/kmers"
)

// MaxCount is the value a counter saturates at
const MaxCount uint8 = 255

// KmerCounter is the interface satisfied by both counting strategies
type KmerCounter interface {
	MinCount() uint8
	NumHashes() int
	AboveMin(kmers.HashSource) bool
	AddCount(kmers.HashSource) uint8
}

// New returns the counter for a sketching run, exact selects the hash map over the count-min table
func New(minCount uint8, exact bool) (KmerCounter, error) {
	if exact {
		return NewHashCounter(minCount), nil
	}
	return NewCountMin(minCount, DefaultConfig())
}

// increment bumps a counter unless it is already saturated
func increment(count uint8) uint8 {
	if count < MaxCount {
		count++
	}
	return count
}

// checkHashes makes sure a probe holds enough hash values for the counter
func checkHashes(hashes []uint64, needed int) {
	if len(hashes) < needed {
		panic(errors.Errorf("k-mer counter needs %d hashes per k-mer, only %d supplied", needed, len(hashes)))
	}
}
