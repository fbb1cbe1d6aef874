// Package distances compares sketch databases: chance-corrected Jaccard indices per k-mer length and the core/accessory distances fitted from them.
package distances

import (
	"math"

	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/randommatch"
	"github.com/will-rowe/ppsketch/src/reference"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Options control a database query
type Options struct {
	// Jaccard returns the corrected Jaccard index at each k-mer length instead of core and accessory distances
	Jaccard bool
	Threads int
}

// CorrectJaccard removes the chance match rate from an observed Jaccard index, the result is never negative
func CorrectJaccard(jaccard, random float64) float64 {
	if random >= 1.0 {
		return 0.0
	}
	corrected := (jaccard - random) / (1.0 - random)
	if corrected < 0.0 {
		return 0.0
	}
	return corrected
}

// CoreAccessory fits log(J) = log(1-a) + k*log(1-c) over the k-mer lengths
// fitting stops at the first zero Jaccard, fewer than two usable points means the pair is as distant as it gets
func CoreAccessory(kmerLengths []int, jaccards []float64) (float64, float64) {
	xs := make([]float64, 0, len(kmerLengths))
	ys := make([]float64, 0, len(kmerLengths))
	for i, k := range kmerLengths {
		if jaccards[i] <= 0.0 {
			break
		}
		xs = append(xs, float64(k))
		ys = append(ys, math.Log(jaccards[i]))
	}
	if len(xs) < 2 {
		return 1.0, 1.0
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return clamp(-math.Expm1(beta)), clamp(-math.Expm1(alpha))
}

func clamp(dist float64) float64 {
	return math.Max(0.0, math.Min(1.0, dist))
}

// randomLookup returns the chance match rate for reference r, query q at k-mer index ki
type randomLookup func(r, q, ki int) (float64, error)

// QueryDB compares every reference against every query
// row r*len(queries)+q holds the pair's result, either len(kmerLengths) Jaccards or core and accessory
// in Monte-Carlo mode the queries are added to rmc, so calls must not overlap with other users of rmc
func QueryDB(refs, queries []*reference.Reference, kmerLengths []int, rmc *randommatch.RandomMC, opts Options) (*mat.Dense, error) {
	if len(refs) == 0 || len(queries) == 0 {
		return nil, errors.New("need at least one reference and one query")
	}
	if len(kmerLengths) == 0 {
		return nil, errors.New("no k-mer lengths supplied")
	}
	if !opts.Jaccard && len(kmerLengths) < 2 {
		return nil, errors.New("need at least two k-mer lengths to fit distances")
	}
	lookup, err := newRandomLookup(refs, queries, kmerLengths, rmc)
	if err != nil {
		return nil, err
	}
	cols := 2
	if opts.Jaccard {
		cols = len(kmerLengths)
	}
	results := mat.NewDense(len(refs)*len(queries), cols, nil)

	// each task fills the rows for one reference, so no two tasks share a row
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	var eg errgroup.Group
	eg.SetLimit(threads)
	for r := range refs {
		r := r
		eg.Go(func() error {
			jaccards := make([]float64, len(kmerLengths))
			for q, query := range queries {
				for ki, k := range kmerLengths {
					raw, err := refs[r].Jaccard(query, k)
					if err != nil {
						return errors.Wrapf(err, "%v vs %v", refs[r].Name(), query.Name())
					}
					random, err := lookup(r, q, ki)
					if err != nil {
						return err
					}
					jaccards[ki] = CorrectJaccard(raw, random)
				}
				row := r*len(queries) + q
				if opts.Jaccard {
					results.SetRow(row, jaccards)
					continue
				}
				core, accessory := CoreAccessory(kmerLengths, jaccards)
				results.Set(row, 0, core)
				results.Set(row, 1, accessory)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// newRandomLookup uses the flattened match table when there is one, otherwise the per-pair estimate
func newRandomLookup(refs, queries []*reference.Reference, kmerLengths []int, rmc *randommatch.RandomMC) (randomLookup, error) {
	if !rmc.MonteCarlo() {
		return func(r, q, ki int) (float64, error) {
			return rmc.RandomMatchRefs(refs[r], queries[q], kmerLengths[ki])
		}, nil
	}
	strides, flat, err := rmc.FlattenedRandom(kmerLengths)
	if err != nil {
		return nil, err
	}
	refIDs := clusterIDs(rmc, refs)
	for _, query := range queries {
		rmc.AddQuery(query)
	}
	queryIDs := clusterIDs(rmc, queries)
	return func(r, q, ki int) (float64, error) {
		idx := ki*strides.KmerStride + int(refIDs[r])*strides.ClusterOuterStride + int(queryIDs[q])*strides.ClusterInnerStride
		return float64(flat[idx]), nil
	}, nil
}

// clusterIDs reads the cluster table, falling back to the nearest centroid for anything not in it
func clusterIDs(rmc *randommatch.RandomMC, refs []*reference.Reference) []uint16 {
	ids := make([]uint16, len(refs))
	for i, ref := range refs {
		id, err := rmc.LookupArray([]string{ref.Name()})
		if err != nil {
			ids[i] = rmc.ClosestCluster(ref)
			continue
		}
		ids[i] = id[0]
	}
	return ids
}
