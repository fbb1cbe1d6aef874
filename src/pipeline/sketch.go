package pipeline

/*
 this part of the pipeline reads the FASTA/FASTQ files for each sample, sketches them at every k-mer length and collects the sketches into a database
*/

import (
	"fmt"
	"sort"
	"sync"

	"github.com/will-rowe/ppsketch/src/database"
	"github.com/will-rowe/ppsketch/src/misc"
	"github.com/will-rowe/ppsketch/src/reference"
)

// Sample is a named set of FASTA files (e.g. the contigs of an assembly, or the reads of an isolate)
type Sample struct {
	Name  string
	Files []string
}

// sampleSeqs carries the sequences of one sample between processes
type sampleSeqs struct {
	index     int
	name      string
	sequences [][]byte
	err       error
}

// sketchResult carries one finished sketch (or the reason there isn't one)
type sketchResult struct {
	index int
	ref   *reference.Reference
	err   error
}

// SeqStreamer is a pipeline process that reads the FASTA or FASTQ files of each sample
type SeqStreamer struct {
	info   *Info
	input  []Sample
	output chan *sampleSeqs
}

// NewSeqStreamer is the constructor
func NewSeqStreamer(info *Info) *SeqStreamer {
	return &SeqStreamer{info: info, output: make(chan *sampleSeqs, BUFFERSIZE)}
}

// Connect is the method to connect the SeqStreamer to some data source
func (proc *SeqStreamer) Connect(input []Sample) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SeqStreamer) Run() {
	defer close(proc.output)
	// files are read one at a time to prevent 'too many open files', the sketching is where the work is
	for i, sample := range proc.input {
		seqs := &sampleSeqs{index: i, name: sample.Name}
		if len(sample.Files) == 0 {
			seqs.err = fmt.Errorf("sample %v has no input files", sample.Name)
		}
		for _, file := range sample.Files {
			fileSeqs, err := reference.ReadSequences(file)
			if err != nil {
				seqs.err = fmt.Errorf("sample %v: %v", sample.Name, err)
				break
			}
			seqs.sequences = append(seqs.sequences, fileSeqs...)
		}
		proc.output <- seqs
	}
}

// Sketcher is a pipeline process that sketches each sample using a pool of minions
type Sketcher struct {
	info   *Info
	input  chan *sampleSeqs
	output chan *sketchResult
}

// NewSketcher is the constructor
func NewSketcher(info *Info) *Sketcher {
	return &Sketcher{info: info, output: make(chan *sketchResult, BUFFERSIZE)}
}

// Connect is the method to connect the Sketcher to the output of a SeqStreamer
func (proc *Sketcher) Connect(previous *SeqStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *Sketcher) Run() {
	defer close(proc.output)
	opts, optsErr := proc.info.SketchOptions()
	numProc := proc.info.NumProc
	if numProc < 1 {
		numProc = 1
	}
	var wg sync.WaitGroup
	wg.Add(numProc)
	for i := 0; i < numProc; i++ {
		go func() {
			defer wg.Done()
			for seqs := range proc.input {
				result := &sketchResult{index: seqs.index, err: seqs.err}
				if result.err == nil {
					result.err = optsErr
				}
				if result.err == nil {
					result.ref, result.err = reference.Sketch(seqs.name, seqs.sequences, proc.info.Sketch.KmerLengths, opts)
					if result.err != nil {
						result.err = fmt.Errorf("sample %v: %v", seqs.name, result.err)
					}
				}
				proc.output <- result
			}
		}()
	}
	wg.Wait()
}

// DbCollector is a pipeline process that gathers the sketches into a database
type DbCollector struct {
	info  *Info
	input chan *sketchResult
	db    *database.Database
	err   error
}

// NewDbCollector is the constructor
func NewDbCollector(info *Info) *DbCollector {
	return &DbCollector{info: info}
}

// Connect is the method to connect the DbCollector to the output of a Sketcher
func (proc *DbCollector) Connect(previous *Sketcher) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *DbCollector) Run() {
	// the minions finish out of order, sketches are added in sample order once everything is in
	results := []*sketchResult{}
	for result := range proc.input {
		if result.err != nil {
			if proc.err == nil {
				proc.err = result.err
			}
			continue
		}
		results = append(results, result)
		if len(results)%100 == 0 {
			misc.Logger().Infof("\tsketched %d samples", len(results))
		}
	}
	if proc.err != nil {
		return
	}
	if len(results) == 0 {
		proc.err = fmt.Errorf("no samples were sketched")
		return
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	db := database.NewDatabase(proc.info.Sketch.KmerLengths, proc.info.Sketch.SketchSize, proc.info.Sketch.UseRC)
	for _, result := range results {
		if err := db.Add(result.ref); err != nil {
			proc.err = err
			return
		}
	}
	misc.Logger().Infof("\tnumber of samples sketched: %d", len(db.References))
	proc.db = db
}

// Database returns the collected database, or the first error hit by the pipeline
func (proc *DbCollector) Database() (*database.Database, error) {
	return proc.db, proc.err
}
