// Package database holds the on-disk sketch database: the reference sketches, the parameters they were built with and the calibrated random match model.
package database

import (
	"io/ioutil"
	"sort"

	"github.com/pkg/errors"
	"github.com/will-rowe/ppsketch/src/randommatch"
	"github.com/will-rowe/ppsketch/src/reference"
	"github.com/will-rowe/ppsketch/src/version"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// ErrIncompatible is returned when two databases can't be compared
var ErrIncompatible = errors.New("databases were built with different parameters")

// Database is a collection of reference sketches
type Database struct {
	Version      string                 `msgpack:"version"`
	KmerLengths  []int                  `msgpack:"kmer_lengths"`
	SketchSize   int                    `msgpack:"sketch_size"`
	UseRC        bool                   `msgpack:"use_rc"`
	References   []*reference.Reference `msgpack:"references"`
	NoAdjustment bool                   `msgpack:"no_adjustment"`
	Random       *randommatch.Persisted `msgpack:"random"`
	lookup       map[string]int
}

// NewDatabase is the constructor, the k-mer lengths are stored sorted
func NewDatabase(kmerLengths []int, sketchSize int, useRC bool) *Database {
	ks := append([]int(nil), kmerLengths...)
	sort.Ints(ks)
	return &Database{
		Version:     version.VERSION,
		KmerLengths: ks,
		SketchSize:  sketchSize,
		UseRC:       useRC,
		References:  []*reference.Reference{},
		lookup:      make(map[string]int),
	}
}

// Add is a method to add a reference sketch to the database
func (db *Database) Add(ref *reference.Reference) error {
	if _, ok := db.lookup[ref.Name()]; ok {
		return errors.Errorf("duplicate reference name: %v", ref.Name())
	}
	if ref.SketchSize != db.SketchSize || ref.UseRC != db.UseRC {
		return errors.Wrapf(ErrIncompatible, "reference %v", ref.Name())
	}
	for _, k := range db.KmerLengths {
		if _, err := ref.Sketch(k); err != nil {
			return errors.Wrapf(err, "reference %v", ref.Name())
		}
	}
	db.lookup[ref.Name()] = len(db.References)
	db.References = append(db.References, ref)
	return nil
}

// Get returns a reference by name
func (db *Database) Get(name string) (*reference.Reference, bool) {
	i, ok := db.lookup[name]
	if !ok {
		return nil, false
	}
	return db.References[i], true
}

// Names returns the reference names, in database order
func (db *Database) Names() []string {
	names := make([]string, len(db.References))
	for i, ref := range db.References {
		names[i] = ref.Name()
	}
	return names
}

// RandomReferences returns the references as the read-only view used by the random match model
func (db *Database) RandomReferences() []randommatch.Reference {
	refs := make([]randommatch.Reference, len(db.References))
	for i, ref := range db.References {
		refs[i] = ref
	}
	return refs
}

// SetRandom stores the random match model, replacing any stored before
func (db *Database) SetRandom(rmc *randommatch.RandomMC) error {
	db.NoAdjustment = !rmc.Adjusted()
	db.Random = nil
	if !rmc.MonteCarlo() {
		return nil
	}
	if rmc.UseRC() != db.UseRC {
		return errors.Wrap(ErrIncompatible, "random match model reverse complement setting differs from the database")
	}
	persisted, err := rmc.Persist()
	if err != nil {
		return err
	}
	db.Random = persisted
	return nil
}

// RandomModel rebuilds the random match model, falling back to the closed form when none was calibrated
func (db *Database) RandomModel() (*randommatch.RandomMC, error) {
	switch {
	case db.NoAdjustment:
		return randommatch.NewNoAdjustment(), nil
	case db.Random == nil:
		return randommatch.NewBernoulli(db.UseRC), nil
	default:
		return randommatch.Load(db.Random)
	}
}

// Compatible checks that two databases can be compared
func (db *Database) Compatible(other *Database) error {
	if db.Version != other.Version {
		return errors.Wrapf(ErrIncompatible, "versions %v and %v", db.Version, other.Version)
	}
	if db.SketchSize != other.SketchSize || db.UseRC != other.UseRC {
		return errors.Wrap(ErrIncompatible, "sketch size or reverse complement setting")
	}
	if len(db.KmerLengths) != len(other.KmerLengths) {
		return errors.Wrap(ErrIncompatible, "k-mer lengths")
	}
	for i, k := range db.KmerLengths {
		if other.KmerLengths[i] != k {
			return errors.Wrap(ErrIncompatible, "k-mer lengths")
		}
	}
	return nil
}

// Dump is a method to write the database to file
func (db *Database) Dump(path string) error {
	b, err := msgpack.Marshal(db)
	if err != nil {
		return errors.Wrap(err, "could not encode database")
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Load is a function to read a database from file
func Load(path string) (*Database, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadFromBytes(b)
}

// LoadFromBytes decodes a database and rebuilds its name lookup
func LoadFromBytes(data []byte) (*Database, error) {
	db := &Database{}
	if err := msgpack.Unmarshal(data, db); err != nil {
		return nil, errors.Wrap(randommatch.ErrCorruptDatabase, err.Error())
	}
	if db.Version != version.VERSION {
		return nil, errors.Wrapf(ErrIncompatible, "database version %v, this is version %v", db.Version, version.VERSION)
	}
	db.lookup = make(map[string]int, len(db.References))
	for i, ref := range db.References {
		if ref == nil {
			return nil, errors.Wrap(randommatch.ErrCorruptDatabase, "empty reference entry")
		}
		if _, ok := db.lookup[ref.Name()]; ok {
			return nil, errors.Wrapf(randommatch.ErrCorruptDatabase, "duplicate reference name: %v", ref.Name())
		}
		db.lookup[ref.Name()] = i
	}
	if db.Random != nil {
		if _, err := randommatch.Load(db.Random); err != nil {
			return nil, errors.Wrap(err, "random match model")
		}
	}
	return db, nil
}

// SameVersion reports whether two database files were written by the same version with the same sketch parameters
func SameVersion(path1, path2 string) (bool, error) {
	db1, err := Load(path1)
	if err != nil {
		if errors.Cause(err) == ErrIncompatible {
			return false, nil
		}
		return false, err
	}
	db2, err := Load(path2)
	if err != nil {
		if errors.Cause(err) == ErrIncompatible {
			return false, nil
		}
		return false, err
	}
	return db1.Compatible(db2) == nil, nil
}
