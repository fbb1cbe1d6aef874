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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/will-rowe/ppsketch/src/database"
	"github.com/will-rowe/ppsketch/src/distances"
	"github.com/will-rowe/ppsketch/src/misc"
	"gonum.org/v1/gonum/mat"
)

// the command line arguments
var (
	refDb    *string // reference database
	queryDb  *string // query database
	jaccard  *bool   // report Jaccard indices rather than distances
	queryOut *string // output file
)

// queryCmd is used by cobra
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compare the sketches in two databases",
	Long: `Compare the sketches in two databases.

Every query is compared against every reference. The Jaccard index at each k-mer length is
corrected for random matches using the reference database's calibration, and core and
accessory distances are fitted from how it falls with k.`,
	Run: func(cmd *cobra.Command, args []string) {
		runQuery()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// init the command line arguments
func init() {
	refDb = queryCmd.Flags().StringP("ref-db", "r", "", "reference sketch database - required")
	queryDb = queryCmd.Flags().StringP("query-db", "q", "", "query sketch database (defaults to the reference database)")
	jaccard = queryCmd.Flags().Bool("jaccard", false, "output the corrected Jaccard index at each k-mer size instead of distances")
	queryOut = queryCmd.Flags().StringP("out", "o", "", "filename for the results, default = stdout")
	queryCmd.MarkFlagRequired("ref-db")
	RootCmd.AddCommand(queryCmd)
}

// runQuery is the main function for the query sub-command
func runQuery() {
	finish := startRun("query")
	defer finish()
	log := misc.Logger()

	log.Info("checking parameters...")
	if *queryDb == "" {
		*queryDb = *refDb
	}
	misc.ErrorCheck(misc.CheckFile(*refDb))
	misc.ErrorCheck(misc.CheckFile(*queryDb))
	log.Infof("\treference database: %v", *refDb)
	log.Infof("\tquery database: %v", *queryDb)
	log.Infof("\tprocessors: %d", *proc)

	log.Info("loading the databases...")
	refs, err := database.Load(*refDb)
	misc.ErrorCheck(err)
	queries := refs
	if *queryDb != *refDb {
		queries, err = database.Load(*queryDb)
		misc.ErrorCheck(err)
		misc.ErrorCheck(refs.Compatible(queries))
	}
	log.Infof("\tnumber of references: %d", len(refs.References))
	log.Infof("\tnumber of queries: %d", len(queries.References))
	log.Infof("\tk-mer sizes: %v", refs.KmerLengths)
	rmc, err := refs.RandomModel()
	misc.ErrorCheck(err)
	switch {
	case !rmc.Adjusted():
		log.Info("\trandom match correction: none")
	case rmc.MonteCarlo():
		log.Infof("\trandom match correction: Monte-Carlo (%d clusters)", rmc.NClusters())
	default:
		log.Info("\trandom match correction: closed form")
	}

	log.Info("comparing sketches...")
	results, err := distances.QueryDB(refs.References, queries.References, refs.KmerLengths, rmc, distances.Options{Jaccard: *jaccard, Threads: *proc})
	misc.ErrorCheck(err)
	rows, _ := results.Dims()
	log.Infof("\tnumber of comparisons: %d", rows)

	var out io.Writer = os.Stdout
	if *queryOut != "" {
		fh, err := os.Create(*queryOut)
		misc.ErrorCheck(err)
		defer fh.Close()
		out = fh
	}
	misc.ErrorCheck(writeResults(out, refs.Names(), queries.Names(), refs.KmerLengths, results))
	if *queryOut != "" {
		log.Infof("\tsaved results to \"%v\"", *queryOut)
	}
}

// writeResults writes one tab separated line per query/reference pair
func writeResults(out io.Writer, refNames, queryNames []string, kmerLengths []int, results *mat.Dense) error {
	w := bufio.NewWriter(out)
	header := "Query\tReference"
	if *jaccard {
		for _, k := range kmerLengths {
			header += "\tJaccard_k" + strconv.Itoa(k)
		}
	} else {
		header += "\tCore\tAccessory"
	}
	fmt.Fprintln(w, header)
	_, cols := results.Dims()
	for r, refName := range refNames {
		for q, queryName := range queryNames {
			fmt.Fprintf(w, "%v\t%v", queryName, refName)
			for c := 0; c < cols; c++ {
				fmt.Fprintf(w, "\t%.6g", results.At(r*len(queryNames)+q, c))
			}
			fmt.Fprintln(w)
		}
	}
	return w.Flush()
}
