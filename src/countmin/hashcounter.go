package countmin

import "github.com/will-rowe/ppsketch/src/kmers"

// HashCounter keeps an exact count for every distinct k-mer hash
// memory grows with the number of distinct k-mers
type HashCounter struct {
	minCount uint8
	counts   map[uint64]uint8
}

// NewHashCounter is the constructor for a HashCounter
func NewHashCounter(minCount uint8) *HashCounter {
	return &HashCounter{
		minCount: minCount,
		counts:   make(map[uint64]uint8),
	}
}

// MinCount returns the count a k-mer must reach to be kept
func (hashCounter *HashCounter) MinCount() uint8 {
	return hashCounter.minCount
}

// NumHashes is always one, the raw k-mer hash is the key
func (hashCounter *HashCounter) NumHashes() int {
	return 1
}

// AddCount records another sighting of the k-mer and returns its count
func (hashCounter *HashCounter) AddCount(hashSource kmers.HashSource) uint8 {
	hashes := hashSource.Hashes()
	checkHashes(hashes, 1)
	count := increment(hashCounter.counts[hashes[0]])
	hashCounter.counts[hashes[0]] = count
	return count
}

// Probe returns the count for a k-mer without recording it
func (hashCounter *HashCounter) Probe(hashSource kmers.HashSource) uint8 {
	hashes := hashSource.Hashes()
	checkHashes(hashes, 1)
	return hashCounter.counts[hashes[0]]
}

// AboveMin reports if the k-mer has reached the minimum count
func (hashCounter *HashCounter) AboveMin(hashSource kmers.HashSource) bool {
	return hashCounter.Probe(hashSource) >= hashCounter.minCount
}

// Distinct returns the number of distinct k-mers seen
func (hashCounter *HashCounter) Distinct() int {
	return len(hashCounter.counts)
}
