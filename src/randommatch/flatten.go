package randommatch

import "github.com/pkg/errors"

// RandomStrides describes how FlattenedRandom's output is laid out as a 3D array
// value(k index, i, j) = flat[kIdx*KmerStride + i*ClusterOuterStride + j*ClusterInnerStride]
type RandomStrides struct {
	KmerStride         int
	ClusterInnerStride int
	ClusterOuterStride int
}

// LookupArray returns the cluster IDs of the named references, in order
func (rmc *RandomMC) LookupArray(names []string) ([]uint16, error) {
	ids := make([]uint16, len(names))
	for i, name := range names {
		id, ok := rmc.clusterTable[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownReference, "%v", name)
		}
		ids[i] = id
	}
	return ids, nil
}

// FlattenedRandom packs the match tables for the given k-mer lengths into one contiguous slice
// lengths between calibrated values are interpolated
func (rmc *RandomMC) FlattenedRandom(kmerLengths []int) (RandomStrides, []float32, error) {
	if rmc.noMC {
		return RandomStrides{}, nil, ErrNoMatchTable
	}
	n := rmc.nClusters
	strides := RandomStrides{
		KmerStride:         n * n,
		ClusterInnerStride: 1,
		ClusterOuterStride: n,
	}
	flat := make([]float32, len(kmerLengths)*strides.KmerStride)
	for kIdx, k := range kmerLengths {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				match, err := rmc.matchAt(k, uint16(i), uint16(j))
				if err != nil {
					return RandomStrides{}, nil, err
				}
				flat[kIdx*strides.KmerStride+i*strides.ClusterOuterStride+j*strides.ClusterInnerStride] = float32(match)
			}
		}
	}
	return strides, flat, nil
}
