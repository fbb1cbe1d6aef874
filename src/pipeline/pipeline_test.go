package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rng "github.com/leesper/go_rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-rowe/ppsketch/src/reference"
	"github.com/will-rowe/ppsketch/src/version"
)

// define some dummy components to run a test pipeline
type ComponentA struct {
	input  []int
	output chan int
}

func NewComponentA(i []int) *ComponentA {
	return &ComponentA{input: i, output: make(chan int)}
}

func (ComponentA *ComponentA) Run() {
	defer close(ComponentA.output)
	for _, input := range ComponentA.input {
		ComponentA.output <- input
	}
}

type ComponentB struct {
	input    chan int
	addition int
	results  []int
}

func NewComponentB(i int) *ComponentB {
	return &ComponentB{addition: i}
}

func (ComponentB *ComponentB) Connect(previous *ComponentA) {
	ComponentB.input = previous.output
}

func (ComponentB *ComponentB) Run() {
	results := []int{}
	for input := range ComponentB.input {
		results = append(results, (input + ComponentB.addition))
	}
	ComponentB.results = results

}

// tests
func TestPipeline(t *testing.T) {
	inputValues := []int{1, 2, 3, 4}
	expectedOutput := []int{11, 12, 13, 14}
	// create the processes
	a := NewComponentA(inputValues)
	b := NewComponentB(10)
	// create the pipeline
	newPipeline := NewPipeline()
	// add the processes and connect them
	newPipeline.AddProcesses(a, b)
	b.Connect(a)
	if len(newPipeline.processes) != 2 {
		t.Fatal("did not add correct number of processes to pipeline")
	}
	// run the pipeline
	newPipeline.Run()
	// once the pipeline is done, there should be results in the final component
	if len(expectedOutput) != len(b.results) {
		t.Fatal("pipeline did not produce expected output")
	}
	for i, val := range b.results {
		if val != expectedOutput[i] {
			t.Fatal("pipeline did not produce expected output")
		}
	}
}

func testInfo() *Info {
	return &Info{
		NumProc: 2,
		Version: version.VERSION,
		Sketch: SketchCmd{
			KmerLengths: []int{13, 9},
			SketchSize:  64,
			UseRC:       true,
			WidthBits:   20,
			Rows:        4,
		},
		Random: RandomCmd{NClusters: 2, NMC: 2, Seed: 42},
	}
}

// writeFasta writes a random multi-record FASTA file and returns its path
func writeFasta(t *testing.T, dir, name string, seed int64) string {
	generator := rng.NewUniformGenerator(seed)
	var contents strings.Builder
	for record := 0; record < 2; record++ {
		fmt.Fprintf(&contents, ">%v_contig%d\n", name, record)
		for line := 0; line < 10; line++ {
			for i := 0; i < 60; i++ {
				contents.WriteByte("ACGT"[generator.Int64n(4)])
			}
			contents.WriteByte('\n')
		}
	}
	path := filepath.Join(dir, name+".fasta")
	require.NoError(t, os.WriteFile(path, []byte(contents.String()), 0644))
	return path
}

func runSketchPipeline(info *Info, samples []Sample) *DbCollector {
	streamer := NewSeqStreamer(info)
	sketcher := NewSketcher(info)
	collector := NewDbCollector(info)
	streamer.Connect(samples)
	sketcher.Connect(streamer)
	collector.Connect(sketcher)
	newPipeline := NewPipeline()
	newPipeline.AddProcesses(streamer, sketcher, collector)
	newPipeline.Run()
	return collector
}

func TestSketchPipeline(t *testing.T) {
	dir := t.TempDir()
	samples := []Sample{}
	for i, name := range []string{"s1", "s2", "s3", "s4", "s5"} {
		samples = append(samples, Sample{Name: name, Files: []string{writeFasta(t, dir, name, int64(i+1))}})
	}
	collector := runSketchPipeline(testInfo(), samples)
	db, err := collector.Database()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, db.Names(), "sample order is kept regardless of which minion finished first")
	assert.Equal(t, []int{9, 13}, db.KmerLengths)
	ref, ok := db.Get("s3")
	require.True(t, ok)
	assert.Equal(t, 1200, ref.SeqLength())
	js, err := ref.Jaccard(ref, 13)
	require.NoError(t, err)
	assert.Equal(t, 1.0, js)

	// a count-min filter with a min count of 2 removes the single copy k-mers
	filtered := testInfo()
	filtered.Sketch.MinCount = 2
	two := writeFasta(t, dir, "twice", 99)
	collector = runSketchPipeline(filtered, []Sample{{Name: "twice", Files: []string{two, two}}})
	db, err = collector.Database()
	require.NoError(t, err)
	assert.Len(t, db.References, 1)
}

// writeFastq writes each sequence as a read with a flat quality string
func writeFastq(t *testing.T, dir, name string, reads [][]byte) string {
	var contents strings.Builder
	for i, read := range reads {
		fmt.Fprintf(&contents, "@%v_%d\n%s\n+\n%s\n", name, i, read, strings.Repeat("I", len(read)))
	}
	path := filepath.Join(dir, name+".fastq")
	require.NoError(t, os.WriteFile(path, []byte(contents.String()), 0644))
	return path
}

func TestSketchPipelineReads(t *testing.T) {
	dir := t.TempDir()
	generator := rng.NewUniformGenerator(7)
	genome := make([]byte, 600)
	for i := range genome {
		genome[i] = "ACGT"[generator.Int64n(4)]
	}

	// 100bp reads every 50bp cover every k-mer of the genome, the reads file is given twice so each k-mer is seen at least twice
	reads := [][]byte{}
	for start := 0; start+100 <= len(genome); start += 50 {
		reads = append(reads, genome[start:start+100])
	}
	errorRead := make([]byte, 100)
	for i := range errorRead {
		errorRead[i] = "ACGT"[generator.Int64n(4)]
	}
	readsFile := writeFastq(t, dir, "reads", reads)
	errorsFile := writeFastq(t, dir, "errors", [][]byte{errorRead})

	info := testInfo()
	info.Sketch.SketchSize = 2000
	info.Sketch.MinCount = 2
	collector := runSketchPipeline(info, []Sample{{Name: "isolate", Files: []string{readsFile, readsFile, errorsFile}}})
	db, err := collector.Database()
	require.NoError(t, err)
	filtered, ok := db.Get("isolate")
	require.True(t, ok)

	assembly, err := reference.Sketch("assembly", [][]byte{genome}, info.Sketch.KmerLengths, reference.Options{SketchSize: 2000, UseRC: true})
	require.NoError(t, err)
	want, err := assembly.Sketch(13)
	require.NoError(t, err)
	got, err := filtered.Sketch(13)
	require.NoError(t, err)
	assert.Equal(t, want, got, "the count-min filter drops the k-mers of the single error read")

	// without the filter the error read's k-mers are sketched too
	info.Sketch.MinCount = 0
	collector = runSketchPipeline(info, []Sample{{Name: "isolate", Files: []string{readsFile, readsFile, errorsFile}}})
	db, err = collector.Database()
	require.NoError(t, err)
	unfiltered, _ := db.Get("isolate")
	wantK13, _ := assembly.Sketch(13)
	gotK13, err := unfiltered.Sketch(13)
	require.NoError(t, err)
	assert.Greater(t, len(gotK13), len(wantK13))
}

func TestSketchOptionsMinCount(t *testing.T) {
	for _, tc := range []struct {
		minCount int
		valid    bool
	}{
		{-1, false},
		{0, true},
		{2, true},
		{255, true},
		{256, false},
	} {
		info := testInfo()
		info.Sketch.MinCount = tc.minCount
		opts, err := info.SketchOptions()
		if !tc.valid {
			assert.Error(t, err, "min count %d", tc.minCount)
			continue
		}
		require.NoError(t, err, "min count %d", tc.minCount)
		assert.Equal(t, uint8(tc.minCount), opts.MinCount)
	}
}

func TestSketchPipelineErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFasta(t, dir, "good", 1)
	collector := runSketchPipeline(testInfo(), []Sample{
		{Name: "good", Files: []string{good}},
		{Name: "missing", Files: []string{filepath.Join(dir, "missing.fasta")}},
	})
	_, err := collector.Database()
	assert.Error(t, err)

	collector = runSketchPipeline(testInfo(), []Sample{{Name: "empty"}})
	_, err = collector.Database()
	assert.Error(t, err)

	badCount := testInfo()
	badCount.Sketch.MinCount = 300
	collector = runSketchPipeline(badCount, []Sample{{Name: "good", Files: []string{good}}})
	_, err = collector.Database()
	assert.Error(t, err)

	collector = runSketchPipeline(testInfo(), []Sample{
		{Name: "dup", Files: []string{good}},
		{Name: "dup", Files: []string{good}},
	})
	_, err = collector.Database()
	assert.Error(t, err)
}

func TestInfoDumpLoad(t *testing.T) {
	info := testInfo()
	info.Sketch.DbPath = "test.ppsk"
	path := filepath.Join(t.TempDir(), "test.info")
	require.NoError(t, info.Dump(path))
	loaded := &Info{}
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, info.Version, loaded.Version)
	assert.Equal(t, info.NumProc, loaded.NumProc)
	assert.Equal(t, info.Sketch.KmerLengths, loaded.Sketch.KmerLengths)
	assert.Equal(t, info.Sketch.DbPath, loaded.Sketch.DbPath)
	assert.Equal(t, info.Random.Seed, loaded.Random.Seed)
	assert.Error(t, loaded.LoadFromBytes(nil))

	opts, err := info.SketchOptions()
	require.NoError(t, err)
	assert.Equal(t, 64, opts.SketchSize)
	assert.Equal(t, uint(20), opts.CountMin.WidthBits)
	mcOpts := info.MCOptions([]int{9, 13}, 128, true)
	assert.Equal(t, 2, mcOpts.NClusters)
	assert.Equal(t, 2, mcOpts.Threads)
}
