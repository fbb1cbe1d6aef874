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
	"github.com/will-rowe/ppsketch/src/database"
	"github.com/will-rowe/ppsketch/src/misc"
	"github.com/will-rowe/ppsketch/src/pipeline"
	"github.com/will-rowe/ppsketch/src/randommatch"
)

// the command line arguments
var (
	randomDb  *string // database to calibrate
	nClusters *int    // number of composition clusters
	nMC       *int    // number of Monte-Carlo trials per cluster pair
	noMC      *bool   // use the closed form instead of Monte-Carlo
	noAdjust  *bool   // don't correct for random matches
	seed      *int64  // seed for clustering and trials
)

// randomCmd is used by cobra
var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Calibrate the random match correction for a database",
	Long: `Calibrate the random match correction for a database.

The references are clustered on base composition, then random sequences are generated for
every pair of clusters and sketched at each k-mer length, to find how often k-mers match by
chance. Use --no-mc for the faster closed form, which assumes equal base frequencies.`,
	Run: func(cmd *cobra.Command, args []string) {
		runRandom()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// init the command line arguments
func init() {
	randomDb = randomCmd.Flags().StringP("db", "d", "", "sketch database to calibrate - required")
	nClusters = randomCmd.Flags().IntP("clusters", "c", defaults.NClusters, "number of base composition clusters")
	nMC = randomCmd.Flags().Int("mc", defaults.NMC, "number of Monte-Carlo trials per cluster pair")
	noMC = randomCmd.Flags().Bool("no-mc", false, "use the closed form estimate instead of Monte-Carlo trials")
	noAdjust = randomCmd.Flags().Bool("no-adjust", false, "do not correct distances for random matches")
	seed = randomCmd.Flags().Int64("seed", defaults.Seed, "seed for the clustering and the random sequences")
	randomCmd.MarkFlagRequired("db")
	RootCmd.AddCommand(randomCmd)
}

// runRandom is the main function for the random sub-command
func runRandom() {
	finish := startRun("random")
	defer finish()
	log := misc.Logger()

	log.Info("checking parameters...")
	misc.ErrorCheck(randomParamCheck())
	log.Infof("\tdatabase: %v", *randomDb)
	log.Info("loading the database...")
	db, err := database.Load(*randomDb)
	misc.ErrorCheck(err)
	log.Infof("\tnumber of references: %d", len(db.References))
	log.Infof("\tk-mer sizes: %v", db.KmerLengths)

	// keep the runtime info alongside the database up to date, a database copied without its info still gets one
	info := &pipeline.Info{}
	if err := info.Load(infoPath(*randomDb)); err != nil {
		log.Infof("\tno runtime info found, starting a new one")
		info = &pipeline.Info{Version: db.Version}
	}
	info.NumProc = *proc
	info.Random = pipeline.RandomCmd{
		NClusters: *nClusters,
		NMC:       *nMC,
		NoMC:      *noMC,
		NoAdjust:  *noAdjust,
		Seed:      *seed,
	}

	// build the model
	var rmc *randommatch.RandomMC
	switch {
	case *noAdjust:
		log.Info("random match correction: none")
		rmc = randommatch.NewNoAdjustment()
	case *noMC:
		log.Info("random match correction: closed form")
		rmc = randommatch.NewBernoulli(db.UseRC)
	default:
		log.Info("random match correction: Monte-Carlo")
		log.Infof("\tclusters: %d", *nClusters)
		log.Infof("\ttrials per cluster pair: %d", *nMC)
		log.Infof("\tprocessors: %d", *proc)
		rmc, err = randommatch.NewMonteCarlo(db.RandomReferences(), info.MCOptions(db.KmerLengths, db.SketchSize, db.UseRC))
		misc.ErrorCheck(err)
		log.Infof("\tclusters used: %d", rmc.NClusters())
		kMin, kMax := rmc.KRange()
		log.Infof("\tcalibrated k-mer range: %d-%d", kMin, kMax)
	}
	misc.ErrorCheck(db.SetRandom(rmc))

	log.Info("saving database...")
	misc.ErrorCheck(db.Dump(*randomDb))
	log.Infof("\tsaved calibrated database to \"%v\"", *randomDb)
	misc.ErrorCheck(info.Dump(infoPath(*randomDb)))
}

// randomParamCheck is a function to check user supplied parameters
func randomParamCheck() error {
	if err := misc.CheckFile(*randomDb); err != nil {
		return err
	}
	if *noMC || *noAdjust {
		return nil
	}
	if *nClusters < 1 {
		return fmt.Errorf("need at least one cluster")
	}
	if *nMC < 1 {
		return fmt.Errorf("need at least one Monte-Carlo trial")
	}
	if *proc < 1 {
		return fmt.Errorf("number of processors must be positive")
	}
	return nil
}
