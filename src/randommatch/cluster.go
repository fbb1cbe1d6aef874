package randommatch

import (
	"math"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxIterations caps the Lloyd iterations of k-means
const maxIterations = 100

// ClusterModel is the result of clustering references on their base composition
type ClusterModel struct {
	Table     map[string]uint16
	Centroids *mat.Dense

	// Representatives holds, for each cluster, the index of the reference closest to its centroid
	Representatives []int
}

// Cluster runs k-means on the base composition of the references
// centroids are seeded by k-means++ from a generator with the given seed, so identical input gives identical output
func Cluster(refs []Reference, nClusters int, seed int64) (*ClusterModel, error) {
	if len(refs) == 0 {
		return nil, errors.New("no references to cluster")
	}
	if nClusters < 1 {
		return nil, errors.Errorf("need at least one cluster (got %d)", nClusters)
	}
	if nClusters > len(refs) {
		nClusters = len(refs)
	}
	if nClusters > math.MaxUint16+1 {
		return nil, errors.Errorf("too many clusters requested (%d)", nClusters)
	}
	features := make([][]float64, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for i, ref := range refs {
		if _, ok := seen[ref.Name()]; ok {
			return nil, errors.Errorf("duplicate reference name: %v", ref.Name())
		}
		seen[ref.Name()] = struct{}{}
		features[i] = ref.BaseComposition()
		if len(features[i]) != len(features[0]) {
			return nil, errors.Errorf("reference %v has %d features, expected %d", ref.Name(), len(features[i]), len(features[0]))
		}
	}

	if len(features[0]) == 0 {
		return nil, errors.New("references have no clustering features")
	}
	centroids := seedCentroids(features, nClusters, seed)
	assignments := make([]uint16, len(features))
	for iter := 0; iter < maxIterations; iter++ {
		changed := iter == 0
		for i, feature := range features {
			if id := closest(centroids, feature); id != assignments[i] {
				assignments[i] = id
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(centroids, features, assignments)
	}

	model := &ClusterModel{
		Table:           make(map[string]uint16, len(refs)),
		Centroids:       centroids,
		Representatives: make([]int, nClusters),
	}
	for i, ref := range refs {
		model.Table[ref.Name()] = assignments[i]
	}
	for c := 0; c < nClusters; c++ {
		model.Representatives[c] = representative(centroids.RawRowView(c), features, assignments, uint16(c))
	}
	return model, nil
}

// seedCentroids picks the starting centroids with k-means++
func seedCentroids(features [][]float64, nClusters int, seed int64) *mat.Dense {
	generator := rng.NewUniformGenerator(seed)
	centroids := mat.NewDense(nClusters, len(features[0]), nil)
	chosen := make([]bool, len(features))
	first := int(generator.Int64n(int64(len(features))))
	centroids.SetRow(0, features[first])
	chosen[first] = true
	dists := make([]float64, len(features))
	for c := 1; c < nClusters; c++ {
		total := 0.0
		for i, feature := range features {
			dists[i] = math.Inf(1)
			for j := 0; j < c; j++ {
				if d := floats.Distance(feature, centroids.RawRowView(j), 2); d*d < dists[i] {
					dists[i] = d * d
				}
			}
			total += dists[i]
		}
		next := -1
		if total > 0 {
			target := generator.Float64() * total
			for i, d := range dists {
				target -= d
				if target <= 0 && d > 0 {
					next = i
					break
				}
			}
		}
		// all points coincide with a centroid (or rounding ran off the end), take the first unused one
		if next == -1 {
			for i := range features {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		centroids.SetRow(c, features[next])
		chosen[next] = true
	}
	return centroids
}

// updateCentroids moves each centroid to the mean of its members, empty clusters keep their centroid
func updateCentroids(centroids *mat.Dense, features [][]float64, assignments []uint16) {
	nClusters, nFeatures := centroids.Dims()
	sums := make([][]float64, nClusters)
	counts := make([]int, nClusters)
	for c := range sums {
		sums[c] = make([]float64, nFeatures)
	}
	for i, feature := range features {
		floats.Add(sums[assignments[i]], feature)
		counts[assignments[i]]++
	}
	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centroids.SetRow(c, sums[c])
	}
}

// closest returns the nearest centroid by Euclidean distance, ties go to the lowest ID
func closest(centroids *mat.Dense, feature []float64) uint16 {
	nClusters, _ := centroids.Dims()
	best, bestDist := 0, math.Inf(1)
	for c := 0; c < nClusters; c++ {
		if d := floats.Distance(feature, centroids.RawRowView(c), 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return uint16(best)
}

// representative returns the member closest to the centroid, or the closest reference overall for an empty cluster
func representative(centroid []float64, features [][]float64, assignments []uint16, cluster uint16) int {
	best, bestMember := -1, -1
	bestDist, bestMemberDist := math.Inf(1), math.Inf(1)
	for i, feature := range features {
		d := floats.Distance(feature, centroid, 2)
		if d < bestDist {
			best, bestDist = i, d
		}
		if assignments[i] == cluster && d < bestMemberDist {
			bestMember, bestMemberDist = i, d
		}
	}
	if bestMember != -1 {
		return bestMember
	}
	return best
}

// ClosestCluster returns the cluster whose centroid is nearest to the reference
func (rmc *RandomMC) ClosestCluster(ref Reference) uint16 {
	if rmc.centroids == nil {
		return 0
	}
	return closest(rmc.centroids, ref.BaseComposition())
}

// AddQuery records the closest cluster for a query so later lookups don't recompute it
// centroids are not updated
func (rmc *RandomMC) AddQuery(query Reference) {
	if rmc.noMC {
		return
	}
	if _, ok := rmc.clusterTable[query.Name()]; ok {
		return
	}
	rmc.clusterTable[query.Name()] = rmc.ClosestCluster(query)
}

// clusterOf looks up a reference's cluster, falling back to the closest centroid
func (rmc *RandomMC) clusterOf(ref Reference) uint16 {
	if id, ok := rmc.clusterTable[ref.Name()]; ok {
		return id
	}
	return rmc.ClosestCluster(ref)
}
