package randommatch

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the serialisable form of a dense row-major matrix
type Matrix struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	Data []float64 `msgpack:"data"`
}

// KmerMatches is the match matrix for one k-mer length
type KmerMatches struct {
	K       int    `msgpack:"k"`
	Matches Matrix `msgpack:"matches"`
}

// Persisted holds everything needed to rebuild a Monte-Carlo RandomMC
type Persisted struct {
	UseRC        bool              `msgpack:"use_rc"`
	MinK         int               `msgpack:"min_k"`
	MaxK         int               `msgpack:"max_k"`
	ClusterTable map[string]uint16 `msgpack:"cluster_table"`
	Matches      []KmerMatches     `msgpack:"matches"`
	Centroids    Matrix            `msgpack:"cluster_centroids"`
}

func toMatrix(m *mat.Dense) Matrix {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return Matrix{Rows: rows, Cols: cols, Data: data}
}

func (m Matrix) toDense() (*mat.Dense, error) {
	if m.Rows < 1 || m.Cols < 1 || len(m.Data) != m.Rows*m.Cols {
		return nil, errors.Wrapf(ErrCorruptDatabase, "matrix of %dx%d holds %d values", m.Rows, m.Cols, len(m.Data))
	}
	return mat.NewDense(m.Rows, m.Cols, append([]float64(nil), m.Data...)), nil
}

// Persist returns the serialisable form of a Monte-Carlo RandomMC
func (rmc *RandomMC) Persist() (*Persisted, error) {
	if rmc.noMC {
		return nil, ErrNoMatchTable
	}
	persisted := &Persisted{
		UseRC:        rmc.useRC,
		MinK:         rmc.minK,
		MaxK:         rmc.maxK,
		ClusterTable: rmc.ClusterTable(),
		Matches:      make([]KmerMatches, 0, len(rmc.kmerLengths)),
		Centroids:    toMatrix(rmc.centroids),
	}
	for _, k := range rmc.kmerLengths {
		persisted.Matches = append(persisted.Matches, KmerMatches{K: k, Matches: toMatrix(rmc.matches[k])})
	}
	return persisted, nil
}

// Load rebuilds a RandomMC from its persisted form
// shape and cluster ID problems are reported here, never at query time
func Load(persisted *Persisted) (*RandomMC, error) {
	if persisted == nil {
		return nil, errors.Wrap(ErrCorruptDatabase, "nothing to load")
	}
	centroids, err := persisted.Centroids.toDense()
	if err != nil {
		return nil, errors.Wrap(err, "cluster centroids")
	}
	nClusters, _ := centroids.Dims()
	if len(persisted.Matches) == 0 {
		return nil, errors.Wrap(ErrCorruptDatabase, "no match matrices")
	}
	matches := make(map[int]*mat.Dense, len(persisted.Matches))
	for _, entry := range persisted.Matches {
		if _, ok := matches[entry.K]; ok {
			return nil, errors.Wrapf(ErrCorruptDatabase, "duplicate matches for k=%d", entry.K)
		}
		m, err := entry.Matches.toDense()
		if err != nil {
			return nil, errors.Wrapf(err, "matches for k=%d", entry.K)
		}
		if entry.Matches.Rows != nClusters || entry.Matches.Cols != nClusters {
			return nil, errors.Wrapf(ErrCorruptDatabase, "matches for k=%d are %dx%d, expected %dx%d", entry.K, entry.Matches.Rows, entry.Matches.Cols, nClusters, nClusters)
		}
		matches[entry.K] = m
	}
	table := make(map[string]uint16, len(persisted.ClusterTable))
	for name, id := range persisted.ClusterTable {
		if int(id) >= nClusters {
			return nil, errors.Wrapf(ErrCorruptDatabase, "%v is in cluster %d, only %d centroids", name, id, nClusters)
		}
		table[name] = id
	}
	rmc := newFromTables(persisted.UseRC, table, matches, centroids)
	if rmc.minK != persisted.MinK || rmc.maxK != persisted.MaxK {
		return nil, errors.Wrapf(ErrCorruptDatabase, "k range %d-%d does not match stored matrices (%d-%d)", persisted.MinK, persisted.MaxK, rmc.minK, rmc.maxK)
	}
	return rmc, nil
}
