// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/will-rowe/ppsketch/src/misc"
	"github.com/will-rowe/ppsketch/src/pipeline"
	"github.com/will-rowe/ppsketch/src/version"
)

// the command line arguments
var (
	fastaFiles *[]string // list of FASTA/FASTQ files, one sample each
	sampleList *string   // tab separated list of samples and their files
	dbOut      *string   // filename for the database
	minK       *int      // smallest k-mer size
	maxK       *int      // largest k-mer size
	kStep      *int      // step between k-mer sizes
	sketchSize *int      // bottom-k sketch size
	minCount   *int      // minimum k-mer count for a k-mer to be sketched
	exact      *bool     // count k-mers exactly instead of with a count-min sketch
	noRC       *bool     // don't canonicalise k-mers
	widthBits  *int      // log2 of the count-min table width
	cmRows     *int      // number of count-min table rows
)

// sketchCmd is used by cobra
var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "Sketch genomes into a database",
	Long: `Sketch genomes into a database.

Each sample is sketched at every k-mer length in the range. Set --min-count above 1
when sketching reads, so that k-mers from sequencing errors are filtered out.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSketch()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// init the command line arguments
func init() {
	fastaFiles = sketchCmd.Flags().StringSliceP("fasta", "f", []string{}, "FASTA or FASTQ file(s) to sketch, one sample per file")
	sampleList = sketchCmd.Flags().StringP("rfile", "r", "", "tab separated file listing sample names and their FASTA/FASTQ file(s)")
	dbOut = sketchCmd.Flags().StringP("db", "o", "", "filename for the sketch database - required")
	minK = sketchCmd.Flags().Int("min-k", defaults.MinK, "minimum k-mer size")
	maxK = sketchCmd.Flags().Int("max-k", defaults.MaxK, "maximum k-mer size")
	kStep = sketchCmd.Flags().Int("k-step", defaults.KStep, "step between k-mer sizes")
	sketchSize = sketchCmd.Flags().IntP("sketch-size", "s", defaults.SketchSize, "number of minimum hashes kept per k-mer size")
	minCount = sketchCmd.Flags().Int("min-count", int(defaults.MinCount), "minimum k-mer count to be included in a sketch (use for reads)")
	exact = sketchCmd.Flags().Bool("exact", false, "count k-mers exactly rather than with a count-min sketch (uses more memory)")
	noRC = sketchCmd.Flags().Bool("no-rc", false, "do not combine k-mers with their reverse complement")
	widthBits = sketchCmd.Flags().Int("cm-width-bits", int(defaults.WidthBits), "log2 of the count-min table width")
	cmRows = sketchCmd.Flags().Int("cm-rows", defaults.Rows, "number of rows in the count-min table")
	sketchCmd.MarkFlagRequired("db")
	RootCmd.AddCommand(sketchCmd)
}

// runSketch is the main function for the sketch sub-command
func runSketch() {
	finish := startRun("sketch")
	defer finish()
	log := misc.Logger()

	// check the supplied files and then log some stuff
	log.Info("checking parameters...")
	samples, kmerLengths, err := sketchParamCheck()
	misc.ErrorCheck(err)
	log.Infof("\tnumber of samples: %d", len(samples))
	log.Infof("\tk-mer sizes: %v", kmerLengths)
	log.Infof("\tsketch size: %d", *sketchSize)
	log.Infof("\treverse complement: %v", !*noRC)
	if *minCount > 1 {
		if *exact {
			log.Infof("\tk-mer counter: exact, minimum count %d", *minCount)
		} else {
			log.Infof("\tk-mer counter: count-min (%d rows of 2^%d), minimum count %d", *cmRows, *widthBits, *minCount)
		}
	} else {
		log.Info("\tk-mer counter: none, all k-mers sketched")
	}
	log.Infof("\tprocessors: %d", *proc)

	// record the runtime info
	info := &pipeline.Info{
		NumProc:   *proc,
		Version:   version.VERSION,
		Profiling: *profiling,
		Sketch: pipeline.SketchCmd{
			KmerLengths: kmerLengths,
			SketchSize:  *sketchSize,
			UseRC:       !*noRC,
			MinCount:    *minCount,
			Exact:       *exact,
			WidthBits:   *widthBits,
			Rows:        *cmRows,
			DbPath:      *dbOut,
		},
	}

	// create the pipeline
	log.Info("initialising sketching pipeline...")
	sketchPipeline := pipeline.NewPipeline()

	// initialise processes
	log.Info("\tinitialising the processes")
	seqStreamer := pipeline.NewSeqStreamer(info)
	sketcher := pipeline.NewSketcher(info)
	dbCollector := pipeline.NewDbCollector(info)

	// connect the pipeline processes
	log.Info("\tconnecting data streams")
	seqStreamer.Connect(samples)
	sketcher.Connect(seqStreamer)
	dbCollector.Connect(sketcher)

	// submit each process to the pipeline and run it
	sketchPipeline.AddProcesses(seqStreamer, sketcher, dbCollector)
	log.Infof("\tnumber of processes added to the sketching pipeline: %d", sketchPipeline.GetNumProcesses())
	sketchPipeline.Run()
	db, err := dbCollector.Database()
	misc.ErrorCheck(err)

	// save the database and the run info
	log.Info("saving database...")
	misc.ErrorCheck(db.Dump(*dbOut))
	log.Infof("\tsaved sketches to \"%v\"", *dbOut)
	misc.ErrorCheck(info.Dump(infoPath(*dbOut)))
	log.Infof("\tsaved runtime info to \"%v\"", infoPath(*dbOut))
}

// sketchParamCheck is a function to check user supplied parameters
func sketchParamCheck() ([]pipeline.Sample, []int, error) {
	var samples []pipeline.Sample
	switch {
	case len(*fastaFiles) != 0 && *sampleList != "":
		return nil, nil, fmt.Errorf("use either --fasta or --rfile, not both")
	case *sampleList != "":
		if err := misc.CheckFile(*sampleList); err != nil {
			return nil, nil, err
		}
		list, err := pipeline.ReadSampleList(*sampleList)
		if err != nil {
			return nil, nil, err
		}
		samples = list
	case len(*fastaFiles) != 0:
		samples = pipeline.SamplesFromFiles(*fastaFiles)
	default:
		return nil, nil, fmt.Errorf("no input supplied, use --fasta or --rfile")
	}
	for _, sample := range samples {
		for _, file := range sample.Files {
			if err := misc.CheckFile(file); err != nil {
				return nil, nil, err
			}
			if err := misc.CheckExt(file, pipeline.SeqExtensions); err != nil {
				return nil, nil, err
			}
		}
	}
	kmerLengths, err := pipeline.KmerLengths(*minK, *maxK, *kStep)
	if err != nil {
		return nil, nil, err
	}
	if *sketchSize < 1 {
		return nil, nil, fmt.Errorf("sketch size must be positive")
	}
	if *proc < 1 {
		return nil, nil, fmt.Errorf("number of processors must be positive")
	}
	return samples, kmerLengths, nil
}

// infoPath is where the runtime info for a database is kept
func infoPath(dbPath string) string {
	return dbPath + ".info"
}
