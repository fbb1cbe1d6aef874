package randommatch

import (
	"runtime"
	"sort"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/minhash"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultTrialSketchSize is the bottom-k size used to sketch the random sequences
	DefaultTrialSketchSize = 1024

	// DefaultSeed seeds both the clustering and the trials
	DefaultSeed int64 = 42
)

// MCOptions control the Monte-Carlo calibration
type MCOptions struct {
	NClusters  int
	NMC        int
	UseRC      bool
	Threads    int
	SketchSize int
	Seed       int64

	// KmerLengths defaults to those of the first reference
	KmerLengths []int
}

// DefaultMCOptions returns the default calibration settings
func DefaultMCOptions() MCOptions {
	return MCOptions{
		NClusters:  DefaultNClusters,
		NMC:        DefaultNMC,
		UseRC:      true,
		Threads:    runtime.NumCPU(),
		SketchSize: DefaultTrialSketchSize,
		Seed:       DefaultSeed,
	}
}

// trial is one unit of Monte-Carlo work: a cluster pair at one k-mer length
type trial struct {
	k        int
	cluster1 int
	cluster2 int
}

// NewMonteCarlo clusters the references and runs the Monte-Carlo trials for every cluster pair and k-mer length
func NewMonteCarlo(refs []Reference, opts MCOptions) (*RandomMC, error) {
	if opts.NMC < 1 {
		return nil, errors.Errorf("need at least one Monte-Carlo trial (got %d)", opts.NMC)
	}
	if opts.SketchSize < 1 {
		return nil, errors.Errorf("trial sketch size must be positive (got %d)", opts.SketchSize)
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	model, err := Cluster(refs, opts.NClusters, opts.Seed)
	if err != nil {
		return nil, err
	}
	kmerLengths := opts.KmerLengths
	if len(kmerLengths) == 0 {
		kmerLengths = refs[0].KmerLengths()
	}
	if len(kmerLengths) == 0 {
		return nil, errors.New("no k-mer lengths to calibrate")
	}
	kmerLengths = uniqueSorted(kmerLengths)

	// each cluster's random sequences take the centroid composition and the representative's length
	nClusters, _ := model.Centroids.Dims()
	lengths := make([]int, nClusters)
	for c, rep := range model.Representatives {
		lengths[c] = refs[rep].SeqLength()
	}

	// one task per unordered cluster pair (self pairs included) per k-mer length
	trials := []trial{}
	for _, k := range kmerLengths {
		if k < 1 {
			return nil, errors.Errorf("invalid k-mer length: %d", k)
		}
		for i := 0; i < nClusters; i++ {
			for j := i; j < nClusters; j++ {
				trials = append(trials, trial{k: k, cluster1: i, cluster2: j})
			}
		}
	}
	results := make([]float64, len(trials))
	group := new(errgroup.Group)
	group.SetLimit(opts.Threads)
	for idx := range trials {
		idx := idx
		group.Go(func() error {
			// the generator is seeded by the task index, so scheduling order can't change the result
			generator := rng.NewUniformGenerator(opts.Seed + int64(idx) + 1)
			task := trials[idx]
			total := 0.0
			for n := 0; n < opts.NMC; n++ {
				seq1 := randomSequence(generator, model.Centroids.RawRowView(task.cluster1), lengths[task.cluster1])
				seq2 := randomSequence(generator, model.Centroids.RawRowView(task.cluster2), lengths[task.cluster2])
				js, err := sketchPair(seq1, seq2, task.k, opts)
				if err != nil {
					return errors.Wrapf(err, "trial for clusters %d and %d at k=%d", task.cluster1, task.cluster2, task.k)
				}
				total += js
			}
			results[idx] = total / float64(opts.NMC)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	matches := make(map[int]*mat.Dense, len(kmerLengths))
	for _, k := range kmerLengths {
		matches[k] = mat.NewDense(nClusters, nClusters, nil)
	}
	for idx, task := range trials {
		matches[task.k].Set(task.cluster1, task.cluster2, results[idx])
		matches[task.k].Set(task.cluster2, task.cluster1, results[idx])
	}
	return newFromTables(opts.UseRC, model.Table, matches, model.Centroids), nil
}

// uniqueSorted returns a sorted copy of a set of k-mer lengths with repeats removed
func uniqueSorted(kmerLengths []int) []int {
	sorted := append([]int(nil), kmerLengths...)
	sort.Ints(sorted)
	unique := sorted[:0]
	for i, k := range sorted {
		if i == 0 || k != sorted[i-1] {
			unique = append(unique, k)
		}
	}
	return unique
}

// randomSequence draws a sequence from a base composition (A, C, G, T)
// an empty composition is treated as uniform
func randomSequence(generator *rng.UniformGenerator, composition []float64, length int) []byte {
	cumulative := [4]float64{}
	total := 0.0
	for i := 0; i < 4 && i < len(composition); i++ {
		total += composition[i]
		cumulative[i] = total
	}
	if total <= 0 {
		cumulative = [4]float64{0.25, 0.5, 0.75, 1.0}
		total = 1.0
	}
	sequence := make([]byte, length)
	for i := range sequence {
		draw := generator.Float64() * total
		base := 3
		for b := 0; b < 3; b++ {
			if draw < cumulative[b] {
				base = b
				break
			}
		}
		sequence[i] = "ACGT"[base]
	}
	return sequence
}

// sketchPair returns the bottom-k Jaccard estimate of two sequences
func sketchPair(seq1, seq2 []byte, k int, opts MCOptions) (float64, error) {
	sketch1 := minhash.NewBottomKsketch(uint(k), opts.SketchSize, opts.UseRC, nil)
	if err := sketch1.Add(seq1); err != nil {
		return 0.0, err
	}
	sketch2 := minhash.NewBottomKsketch(uint(k), opts.SketchSize, opts.UseRC, nil)
	if err := sketch2.Add(seq2); err != nil {
		return 0.0, err
	}
	return sketch1.GetSimilarity(sketch2)
}
