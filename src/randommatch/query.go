package randommatch

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// RandomMatch returns the chance match rate between a reference and a query, given the query's cluster and length
func (rmc *RandomMC) RandomMatch(ref Reference, qClusterID uint16, qLength int, k int) (float64, error) {
	switch {
	case rmc.noAdjustment:
		return 0.0, nil
	case rmc.noMC:
		return bernoulliMatch(k, rmc.useRC, ref.SeqLength(), qLength), nil
	}
	return rmc.matchAt(k, rmc.clusterOf(ref), qClusterID)
}

// RandomMatches is RandomMatch over several k-mer lengths, the results follow the order of kmerLengths
func (rmc *RandomMC) RandomMatches(ref Reference, qClusterID uint16, qLength int, kmerLengths []int) ([]float64, error) {
	matches := make([]float64, len(kmerLengths))
	for i, k := range kmerLengths {
		match, err := rmc.RandomMatch(ref, qClusterID, qLength, k)
		if err != nil {
			return nil, err
		}
		matches[i] = match
	}
	return matches, nil
}

// RandomMatchRefs returns the chance match rate between two references
func (rmc *RandomMC) RandomMatchRefs(ref1, ref2 Reference, k int) (float64, error) {
	switch {
	case rmc.noAdjustment:
		return 0.0, nil
	case rmc.noMC:
		return bernoulliMatch(k, rmc.useRC, ref1.SeqLength(), ref2.SeqLength()), nil
	}
	return rmc.matchAt(k, rmc.clusterOf(ref1), rmc.clusterOf(ref2))
}

// matchAt reads the match table, interpolating linearly between the nearest calibrated k-mer lengths
func (rmc *RandomMC) matchAt(k int, cluster1, cluster2 uint16) (float64, error) {
	if int(cluster1) >= rmc.nClusters || int(cluster2) >= rmc.nClusters {
		return 0.0, errors.Wrapf(ErrInvalidCluster, "clusters %d and %d (have %d)", cluster1, cluster2, rmc.nClusters)
	}
	i, j := int(cluster1), int(cluster2)
	if m, ok := rmc.matches[k]; ok {
		return m.At(i, j), nil
	}
	if len(rmc.kmerLengths) < 2 || k < rmc.minK || k > rmc.maxK {
		return 0.0, errors.Wrapf(ErrKmerOutOfRange, "k=%d (calibrated %d-%d)", k, rmc.minK, rmc.maxK)
	}
	upperIdx := sort.SearchInts(rmc.kmerLengths, k)
	lowerK, upperK := rmc.kmerLengths[upperIdx-1], rmc.kmerLengths[upperIdx]
	lower, upper := rmc.matches[lowerK].At(i, j), rmc.matches[upperK].At(i, j)
	frac := float64(k-lowerK) / float64(upperK-lowerK)
	return lower + frac*(upper-lower), nil
}

// bernoulliMatch is the expected Jaccard of two random sequences of the given lengths
// each k-mer is treated as an independent draw from 4^k (halved with reverse complement)
func bernoulliMatch(k int, useRC bool, length1, length2 int) float64 {
	rcFactor := 1.0
	if useRC {
		rcFactor = 2.0
	}
	p := rcFactor / math.Pow(4, float64(k))
	if p >= 1 {
		return 1.0
	}
	j1 := -math.Expm1(float64(length1) * math.Log1p(-p))
	j2 := -math.Expm1(float64(length2) * math.Log1p(-p))
	union := j1 + j2 - j1*j2
	if union <= 0 {
		return 0.0
	}
	return j1 * j2 / union
}
