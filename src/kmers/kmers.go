// Package kmers supplies the hashed k-mer stream that the counting and sketching layers consume. The hash values come from the ntHash rolling hash function.
package kmers

import (
	"github.com/pkg/errors"
	"github.com/will-rowe/nthash"
)

// HashSource is satisfied by anything holding the probe hashes for the k-mer at its current position
type HashSource interface {
	Hashes() []uint64
}

// Probe is a fixed set of hash values for a single k-mer
type Probe []uint64

// Hashes returns the probe values
func (probe Probe) Hashes() []uint64 { return probe }

// Iterator steps through the k-mers of a sequence and holds the multi-hash values of the current k-mer
type Iterator struct {
	hashChan  <-chan []uint64
	current   []uint64
	numHashes uint
}

// NewIterator is the constructor for an Iterator, each position yields numHashes independent hash values
// if useRC is set, the canonical (lowest of forward and reverse complement) hash is used
func NewIterator(sequence []byte, kmerSize, numHashes uint, useRC bool) (*Iterator, error) {
	if numHashes == 0 {
		return nil, errors.New("at least one hash per k-mer is required")
	}
	if uint(len(sequence)) < kmerSize {
		return nil, errors.Errorf("sequence length (%d) is shorter than k-mer length (%d)", len(sequence), kmerSize)
	}
	hasher, err := nthash.NewHasher(&sequence, kmerSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not start ntHash")
	}
	return &Iterator{
		hashChan:  hasher.MultiHash(useRC, numHashes),
		current:   make([]uint64, numHashes),
		numHashes: numHashes,
	}, nil
}

// Next advances to the next k-mer, it returns false once the sequence is exhausted
func (iterator *Iterator) Next() bool {
	hashes, ok := <-iterator.hashChan
	if !ok {
		return false
	}
	copy(iterator.current, hashes)
	return true
}

// Hashes returns the hash values for the current k-mer
func (iterator *Iterator) Hashes() []uint64 {
	return iterator.current
}

// NumHashes returns the number of hash values held per position
func (iterator *Iterator) NumHashes() int {
	return int(iterator.numHashes)
}

// Close drains any remaining k-mers so the hashing go routine can exit
func (iterator *Iterator) Close() {
	for range iterator.hashChan {
	}
}

// SplitACGT upper-cases a sequence and splits it on any non-ACGT character
// only the fragments that can hold at least one k-mer are returned
func SplitACGT(sequence []byte, kmerSize int) [][]byte {
	fragments := [][]byte{}
	start := 0
	clean := make([]byte, len(sequence))
	for i, base := range sequence {
		base = seqNT4table[base]
		if base == 'N' {
			if i-start >= kmerSize {
				fragments = append(fragments, clean[start:i])
			}
			start = i + 1
			continue
		}
		clean[i] = base
	}
	if len(sequence)-start >= kmerSize {
		fragments = append(fragments, clean[start:])
	}
	return fragments
}

// BaseCounts returns the number of A, C, G and T bases in a sequence, all other characters are skipped
func BaseCounts(sequence []byte) [4]int {
	counts := [4]int{}
	for _, base := range sequence {
		switch seqNT4table[base] {
		case 'A':
			counts[0]++
		case 'C':
			counts[1]++
		case 'G':
			counts[2]++
		case 'T':
			counts[3]++
		}
	}
	return counts
}

// Composition returns the A, C, G, T fractions of a sequence, ignoring all other characters
func Composition(sequence []byte) [4]float64 {
	counts := BaseCounts(sequence)
	total := counts[0] + counts[1] + counts[2] + counts[3]
	comp := [4]float64{}
	if total == 0 {
		return comp
	}
	for i := range counts {
		comp[i] = float64(counts[i]) / float64(total)
	}
	return comp
}

// seqNT4table upper-cases ACGT and converts everything else to N
var seqNT4table = func() [256]byte {
	table := [256]byte{}
	for i := range table {
		table[i] = 'N'
	}
	for _, base := range []byte("ACGT") {
		table[base] = base
		table[base+32] = base
	}
	return table
}()
