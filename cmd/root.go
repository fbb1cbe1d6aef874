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
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/ppsketch/src/config"
	"github.com/will-rowe/ppsketch/src/misc"
	"github.com/will-rowe/ppsketch/src/version"
)

// the persistent command line arguments
var (
	proc      *int    // number of processors to use
	logFile   *string // filename for the log
	profiling *bool   // create profiling files
)

// defaults for the subcommand flags, read once from the environment
var defaults = loadDefaults()

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ppsketch",
	Short: "Sketch genomes and calculate chance-corrected core and accessory distances",
	Long: `Sketch genomes and calculate chance-corrected core and accessory distances.

ppsketch builds bottom-k MinHash sketches of genome collections over a range of k-mer lengths,
filtering read errors with a count-min sketch, then corrects the Jaccard indices between
sketches for the rate at which random sequences match.`,
	Version: version.VERSION,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// init the persistent command line arguments
func init() {
	procDefault := defaults.Threads
	if procDefault == 0 {
		procDefault = runtime.NumCPU()
	}
	proc = RootCmd.PersistentFlags().IntP("processors", "p", procDefault, "number of processors to use")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file, default = stdout")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile ppsketch using the go tool pprof")
}

// loadDefaults reads the flag defaults, which can be set through the environment
func loadDefaults() *config.Defaults {
	d, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return d
}

// startRun sets up profiling and logging for a subcommand, the returned function shuts them down
func startRun(subcommand string) func() {
	var prof interface{ Stop() }
	if *profiling {
		prof = profile.Start(profile.ProfilePath("./"))
	}
	closeLog, err := misc.StartLogging(*logFile)
	misc.ErrorCheck(err)
	misc.Logger().Infof("this is ppsketch (version %s)", version.VERSION)
	misc.Logger().Infof("starting the %v subcommand", subcommand)
	return func() {
		misc.Logger().Info("finished")
		closeLog()
		if prof != nil {
			prof.Stop()
		}
	}
}
