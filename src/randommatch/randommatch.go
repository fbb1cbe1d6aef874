// Package randommatch estimates how often two genomes share a k-mer by chance.
//
// References are clustered on their base composition. For each pair of clusters and each k-mer
// length, random sequences with the composition of each cluster are sketched and compared, and
// the mean Jaccard of these Monte-Carlo trials is stored. Queries then look up (or interpolate) the
// chance match rate for the clusters of the two genomes being compared. When clustering is
// switched off, a closed form Bernoulli model is used instead.
//
// A built RandomMC is safe for concurrent queries. AddQuery mutates the cluster table and must be
// synchronised by the caller.
package randommatch

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultNClusters is the default number of composition clusters
	DefaultNClusters = 3

	// DefaultNMC is the default number of Monte-Carlo trials per cluster pair and k-mer length
	DefaultNMC = 5
)

var (
	// ErrUnknownReference is returned when a name is not in the cluster table
	ErrUnknownReference = errors.New("unknown reference")

	// ErrKmerOutOfRange is returned for k-mer lengths that can't be found or interpolated
	ErrKmerOutOfRange = errors.New("k-mer length out of calibrated range")

	// ErrCorruptDatabase is returned when persisted random match data is inconsistent
	ErrCorruptDatabase = errors.New("corrupt random match data")

	// ErrNoMatchTable is returned by table operations when no Monte-Carlo calibration was run
	ErrNoMatchTable = errors.New("no random match table, Monte-Carlo calibration was not run")

	// ErrInvalidCluster is returned when a cluster ID is outside the calibrated clusters
	ErrInvalidCluster = errors.New("cluster ID out of range")
)

// Reference is the view of a sketched genome needed for clustering and matching
type Reference interface {
	Name() string
	SeqLength() int
	BaseComposition() []float64
	KmerLengths() []int
}

// RandomMC holds the random match model
type RandomMC struct {
	nClusters    int
	noAdjustment bool
	noMC         bool
	useRC        bool
	minK         int
	maxK         int
	kmerLengths  []int
	clusterTable map[string]uint16
	matches      map[int]*mat.Dense
	centroids    *mat.Dense
}

// NewNoAdjustment returns a RandomMC where every chance match is zero
func NewNoAdjustment() *RandomMC {
	return &RandomMC{
		noAdjustment: true,
		noMC:         true,
		clusterTable: make(map[string]uint16),
		matches:      make(map[int]*mat.Dense),
	}
}

// NewBernoulli returns a RandomMC that uses the closed form model, with no clustering
func NewBernoulli(useRC bool) *RandomMC {
	return &RandomMC{
		noMC:         true,
		useRC:        useRC,
		clusterTable: make(map[string]uint16),
		matches:      make(map[int]*mat.Dense),
	}
}

// newFromTables sets up a Monte-Carlo RandomMC from its tables, without checking them
func newFromTables(useRC bool, clusterTable map[string]uint16, matches map[int]*mat.Dense, centroids *mat.Dense) *RandomMC {
	nClusters, _ := centroids.Dims()
	kmerLengths := sortedKeys(matches)
	rmc := &RandomMC{
		nClusters:    nClusters,
		useRC:        useRC,
		kmerLengths:  kmerLengths,
		clusterTable: clusterTable,
		matches:      matches,
		centroids:    centroids,
	}
	if len(kmerLengths) != 0 {
		rmc.minK = kmerLengths[0]
		rmc.maxK = kmerLengths[len(kmerLengths)-1]
	}
	return rmc
}

// Adjusted reports if any random match correction is applied
func (rmc *RandomMC) Adjusted() bool {
	return !rmc.noAdjustment
}

// MonteCarlo reports if the model was calibrated by Monte-Carlo trials
func (rmc *RandomMC) MonteCarlo() bool {
	return !rmc.noMC
}

// NClusters returns the number of clusters
func (rmc *RandomMC) NClusters() int {
	return rmc.nClusters
}

// UseRC reports if the model counts both strands
func (rmc *RandomMC) UseRC() bool {
	return rmc.useRC
}

// KRange returns the smallest and largest calibrated k-mer lengths
func (rmc *RandomMC) KRange() (int, int) {
	return rmc.minK, rmc.maxK
}

// KmerLengths returns the calibrated k-mer lengths in ascending order
func (rmc *RandomMC) KmerLengths() []int {
	return append([]int(nil), rmc.kmerLengths...)
}

// ClusterTable returns a copy of the name to cluster ID table
func (rmc *RandomMC) ClusterTable() map[string]uint16 {
	table := make(map[string]uint16, len(rmc.clusterTable))
	for name, id := range rmc.clusterTable {
		table[name] = id
	}
	return table
}

// Matches returns a copy of the match matrices, keyed by k-mer length
func (rmc *RandomMC) Matches() map[int]*mat.Dense {
	matches := make(map[int]*mat.Dense, len(rmc.matches))
	for k, m := range rmc.matches {
		matches[k] = mat.DenseCopyOf(m)
	}
	return matches
}

// Centroids returns a copy of the cluster centroids, nil if there was no clustering
func (rmc *RandomMC) Centroids() *mat.Dense {
	if rmc.centroids == nil {
		return nil
	}
	return mat.DenseCopyOf(rmc.centroids)
}

// Equal reports if two models have the same cluster table, match matrices and centroids
func (rmc *RandomMC) Equal(other *RandomMC) bool {
	if rmc == nil || other == nil {
		return rmc == other
	}
	if len(rmc.clusterTable) != len(other.clusterTable) || len(rmc.matches) != len(other.matches) {
		return false
	}
	for name, id := range rmc.clusterTable {
		if otherID, ok := other.clusterTable[name]; !ok || otherID != id {
			return false
		}
	}
	for k, m := range rmc.matches {
		otherM, ok := other.matches[k]
		if !ok || !sameMatrix(m, otherM) {
			return false
		}
	}
	return sameMatrix(rmc.centroids, other.centroids)
}

// sortedKeys returns the k-mer lengths of a set of match tables in ascending order
func sortedKeys(matches map[int]*mat.Dense) []int {
	keys := make([]int, 0, len(matches))
	for k := range matches {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sameMatrix(a, b *mat.Dense) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return mat.Equal(a, b)
}
