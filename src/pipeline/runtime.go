package pipeline

import (
	"fmt"
	"io/ioutil"

	"github.com/segmentio/objconv/msgpack"
	"github.com/will-rowe/ppsketch/src/countmin"
	"github.com/will-rowe/ppsketch/src/randommatch"
	"github.com/will-rowe/ppsketch/src/reference"
)

// Info stores the runtime information, it is written next to a database so a run can be traced
type Info struct {
	NumProc   int
	Version   string
	Profiling bool
	Sketch    SketchCmd
	Random    RandomCmd
}

// SketchCmd stores the runtime info for the sketch command
type SketchCmd struct {
	KmerLengths []int
	SketchSize  int
	UseRC       bool
	MinCount    int
	Exact       bool
	WidthBits   int
	Rows        int
	DbPath      string
}

// RandomCmd stores the runtime info for the random command
type RandomCmd struct {
	NClusters int
	NMC       int
	NoMC      bool
	NoAdjust  bool
	Seed      int64
}

// SketchOptions returns the options each reference is sketched with
func (Info *Info) SketchOptions() (reference.Options, error) {
	if Info.Sketch.MinCount < 0 || Info.Sketch.MinCount > int(countmin.MaxCount) {
		return reference.Options{}, fmt.Errorf("minimum k-mer count must be between 0 and %d", countmin.MaxCount)
	}
	return reference.Options{
		SketchSize: Info.Sketch.SketchSize,
		UseRC:      Info.Sketch.UseRC,
		MinCount:   uint8(Info.Sketch.MinCount),
		Exact:      Info.Sketch.Exact,
		CountMin: countmin.Config{
			WidthBits: uint(Info.Sketch.WidthBits),
			Rows:      Info.Sketch.Rows,
		},
	}, nil
}

// MCOptions returns the Monte-Carlo settings for the random command
func (Info *Info) MCOptions(kmerLengths []int, sketchSize int, useRC bool) randommatch.MCOptions {
	return randommatch.MCOptions{
		NClusters:   Info.Random.NClusters,
		NMC:         Info.Random.NMC,
		UseRC:       useRC,
		Threads:     Info.NumProc,
		SketchSize:  sketchSize,
		Seed:        Info.Random.Seed,
		KmerLengths: kmerLengths,
	}
}

// Dump is a method to dump the pipeline info to file
func (Info *Info) Dump(path string) error {
	b, err := msgpack.Marshal(Info)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Load is a method to load Info from file
func (Info *Info) Load(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return Info.LoadFromBytes(data)
}

// LoadFromBytes is a method to load Info from bytes
func (Info *Info) LoadFromBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("runtime info appears empty")
	}
	return msgpack.Unmarshal(data, Info)
}
