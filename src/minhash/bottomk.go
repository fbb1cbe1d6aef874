package minhash

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/countmin"
	"github.com/will-rowe/ppsketch/src/kmers"
)

// BottomKsketch is the bottom-k MinHash sketch of a set
type BottomKsketch struct {
	kmerSize   uint
	sketchSize int
	useRC      bool
	sketch     *intHeap
	members    map[uint64]struct{}
	Counter    countmin.KmerCounter
}

// NewBottomKsketch is the constructor for a BottomKsketch
// if counter is not nil, a k-mer is only added once it has reached the counter's minimum count
func NewBottomKsketch(k uint, s int, useRC bool, counter countmin.KmerCounter) *BottomKsketch {
	return &BottomKsketch{
		kmerSize:   k,
		sketchSize: s,
		useRC:      useRC,
		sketch:     &intHeap{},
		members:    make(map[uint64]struct{}, s),
		Counter:    counter,
	}
}

// Add is a method to decompose a sequence to kmers, hash them and add any minimums to the sketch
// non-ACGT characters break the sequence, no k-mer spans them
func (BottomKsketch *BottomKsketch) Add(sequence []byte) error {
	fragments := kmers.SplitACGT(sequence, int(BottomKsketch.kmerSize))
	if len(fragments) == 0 {
		return errors.Errorf("sequence has no ACGT stretch as long as the k-mer length (%d)", BottomKsketch.kmerSize)
	}
	numHashes := uint(1)
	if BottomKsketch.Counter != nil {
		numHashes = uint(BottomKsketch.Counter.NumHashes())
	}
	for _, fragment := range fragments {
		iterator, err := kmers.NewIterator(fragment, BottomKsketch.kmerSize, numHashes, BottomKsketch.useRC)
		if err != nil {
			return err
		}
		for iterator.Next() {
			// drop k-mers that haven't been seen often enough yet
			if BottomKsketch.Counter != nil && BottomKsketch.Counter.AddCount(iterator) < BottomKsketch.Counter.MinCount() {
				continue
			}
			BottomKsketch.push(iterator.Hashes()[0])
		}
	}
	return nil
}

// push adds a hash value if it is one of the current bottom-k values
func (BottomKsketch *BottomKsketch) push(hv uint64) {
	if _, ok := BottomKsketch.members[hv]; ok {
		return
	}
	// if the sketch isn't full yet, add the hashed k-mer
	if len(*BottomKsketch.sketch) < BottomKsketch.sketchSize {
		heap.Push(BottomKsketch.sketch, hv)
		BottomKsketch.members[hv] = struct{}{}
		return
	}
	// otherwise, replace the largest sketch value if the new value is smaller
	if hv < (*BottomKsketch.sketch)[0] {
		delete(BottomKsketch.members, (*BottomKsketch.sketch)[0])
		(*BottomKsketch.sketch)[0] = hv
		BottomKsketch.members[hv] = struct{}{}
		heap.Fix(BottomKsketch.sketch, 0)
	}
}

// GetSimilarity is a method to estimate the Jaccard similarity between sets
func (BottomKsketch *BottomKsketch) GetSimilarity(mh2 *BottomKsketch) (float64, error) {
	if BottomKsketch.sketchSize != mh2.sketchSize {
		return 0.0, ErrSketchSize
	}
	return Jaccard(BottomKsketch.GetSketch(), mh2.GetSketch(), BottomKsketch.sketchSize), nil
}

// GetSketch is a method to return the sorted sketch held by a MinHash Bottom-k sketch object
func (BottomKsketch *BottomKsketch) GetSketch() []uint64 {
	sketch := make([]uint64, len(*BottomKsketch.sketch))
	copy(sketch, *BottomKsketch.sketch)
	sort.Slice(sketch, func(i, j int) bool { return sketch[i] < sketch[j] })
	return sketch
}

// intHeap is a max-heap of uint64s, the largest value sits at index 0
type intHeap []uint64

func (intHeap intHeap) Less(i, j int) bool { return intHeap[i] > intHeap[j] }
func (intHeap intHeap) Swap(i, j int)      { intHeap[i], intHeap[j] = intHeap[j], intHeap[i] }
func (intHeap intHeap) Len() int           { return len(intHeap) }

// Push is a method to add an element to the heap
func (intHeap *intHeap) Push(x interface{}) {
	// dereference the pointer to modify the slice's length, not just its contents
	*intHeap = append(*intHeap, x.(uint64))
}

// Pop is a method to remove an element from the heap
func (intHeap *intHeap) Pop() interface{} {
	old := *intHeap
	n := len(old)
	x := old[n-1]
	*intHeap = old[0 : n-1]
	return x
}
