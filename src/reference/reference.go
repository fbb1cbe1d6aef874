// Package reference holds the sketched form of a genome: its name, length, base composition and a bottom-k sketch for each k-mer length.
package reference

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/countmin"
	"github.com/will-rowe/ppsketch/src/kmers"
	"github.com/will-rowe/ppsketch/src/minhash"
)

// ErrMissingKmer is returned when a reference has no sketch for a requested k-mer length
var ErrMissingKmer = errors.New("no sketch held for k-mer length")

// KmerSketch is the sorted bottom-k sketch for one k-mer length
type KmerSketch struct {
	K      int      `msgpack:"k"`
	Hashes []uint64 `msgpack:"hashes"`
}

// Reference is a sketched genome
type Reference struct {
	ID          string       `msgpack:"name"`
	Length      int          `msgpack:"length"`
	Composition []float64    `msgpack:"composition"`
	SketchSize  int          `msgpack:"sketch_size"`
	UseRC       bool         `msgpack:"use_rc"`
	Sketches    []KmerSketch `msgpack:"sketches"`
}

// Options control how a reference is sketched
type Options struct {
	SketchSize int
	UseRC      bool

	// MinCount of 0 or 1 keeps every k-mer (assemblies), higher values filter read errors
	MinCount uint8

	// Exact selects the exact hash counter over the count-min table
	Exact bool

	// CountMin sets the table shape when Exact is false
	CountMin countmin.Config
}

// newCounter returns a fresh counter for one k-mer length, or nil when nothing needs filtering
func (opts Options) newCounter() (countmin.KmerCounter, error) {
	if opts.MinCount <= 1 {
		return nil, nil
	}
	if opts.Exact {
		return countmin.NewHashCounter(opts.MinCount), nil
	}
	return countmin.NewCountMin(opts.MinCount, opts.CountMin)
}

// Sketch builds a Reference from a set of sequences (e.g. the contigs or reads of one sample)
func Sketch(name string, sequences [][]byte, kmerLengths []int, opts Options) (*Reference, error) {
	if len(kmerLengths) == 0 {
		return nil, errors.New("no k-mer lengths supplied")
	}
	if opts.SketchSize < 1 {
		return nil, errors.Errorf("sketch size must be positive (got %d)", opts.SketchSize)
	}
	ref := &Reference{
		ID:          name,
		Composition: make([]float64, 4),
		SketchSize:  opts.SketchSize,
		UseRC:       opts.UseRC,
		Sketches:    make([]KmerSketch, 0, len(kmerLengths)),
	}

	// length is over all sequences, composition only over the ACGT bases
	counts := [4]int{}
	for _, sequence := range sequences {
		ref.Length += len(sequence)
		seqCounts := kmers.BaseCounts(sequence)
		for i := range counts {
			counts[i] += seqCounts[i]
		}
	}
	if ref.Length == 0 {
		return nil, errors.Errorf("no sequence found for %v", name)
	}
	total := counts[0] + counts[1] + counts[2] + counts[3]
	if total > 0 {
		for i := range counts {
			ref.Composition[i] = float64(counts[i]) / float64(total)
		}
	}

	// each k-mer length gets its own counter, which is discarded once the sketch is done
	sortedLengths := append([]int(nil), kmerLengths...)
	sort.Ints(sortedLengths)
	for _, k := range sortedLengths {
		counter, err := opts.newCounter()
		if err != nil {
			return nil, err
		}
		sketch := minhash.NewBottomKsketch(uint(k), opts.SketchSize, opts.UseRC, counter)
		added := 0
		for _, sequence := range sequences {
			if err := sketch.Add(sequence); err != nil {
				continue
			}
			added++
		}
		if added == 0 {
			return nil, errors.Errorf("%v has no sequence long enough for k=%d", name, k)
		}
		ref.Sketches = append(ref.Sketches, KmerSketch{K: k, Hashes: sketch.GetSketch()})
	}
	return ref, nil
}

// Name returns the reference name
func (ref *Reference) Name() string {
	return ref.ID
}

// SeqLength returns the total sequence length
func (ref *Reference) SeqLength() int {
	return ref.Length
}

// BaseComposition returns the A, C, G, T fractions, used as clustering features
func (ref *Reference) BaseComposition() []float64 {
	return ref.Composition
}

// KmerLengths returns the k-mer lengths sketched, in ascending order
func (ref *Reference) KmerLengths() []int {
	lengths := make([]int, len(ref.Sketches))
	for i, sketch := range ref.Sketches {
		lengths[i] = sketch.K
	}
	return lengths
}

// Sketch returns the sketch for a k-mer length
func (ref *Reference) Sketch(k int) ([]uint64, error) {
	i := sort.Search(len(ref.Sketches), func(i int) bool { return ref.Sketches[i].K >= k })
	if i == len(ref.Sketches) || ref.Sketches[i].K != k {
		return nil, errors.Wrapf(ErrMissingKmer, "%v k=%d", ref.ID, k)
	}
	return ref.Sketches[i].Hashes, nil
}

// Jaccard estimates the Jaccard similarity to another reference at one k-mer length
func (ref *Reference) Jaccard(other *Reference, k int) (float64, error) {
	if ref.SketchSize != other.SketchSize {
		return 0.0, minhash.ErrSketchSize
	}
	s1, err := ref.Sketch(k)
	if err != nil {
		return 0.0, err
	}
	s2, err := other.Sketch(k)
	if err != nil {
		return 0.0, err
	}
	return minhash.Jaccard(s1, s2, ref.SketchSize), nil
}
