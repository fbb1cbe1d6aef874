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

	"github.com/mholt/archiver"
	"github.com/spf13/cobra"
	"github.com/will-rowe/ppsketch/src/database"
	"github.com/will-rowe/ppsketch/src/misc"
)

// the command line arguments
var (
	exportDb  *string // database to export
	exportOut *string // archive filename
)

// exportCmd is used by cobra
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle a database and its runtime info into an archive",
	Long: `Bundle a database and its runtime info into an archive.

The archive format is chosen from the extension of the output file (e.g. .tar.gz, .zip).`,
	Run: func(cmd *cobra.Command, args []string) {
		runExport()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// init the command line arguments
func init() {
	exportDb = exportCmd.Flags().StringP("db", "d", "", "sketch database to export - required")
	exportOut = exportCmd.Flags().StringP("out", "o", "", "filename for the archive (default = <db>.tar.gz)")
	exportCmd.MarkFlagRequired("db")
	RootCmd.AddCommand(exportCmd)
}

// runExport is the main function for the export sub-command
func runExport() {
	finish := startRun("export")
	defer finish()
	log := misc.Logger()

	log.Info("checking parameters...")
	misc.ErrorCheck(misc.CheckFile(*exportDb))
	if *exportOut == "" {
		*exportOut = *exportDb + ".tar.gz"
	}
	if _, err := os.Stat(*exportOut); err == nil {
		misc.ErrorCheck(fmt.Errorf("archive already exists: %v", *exportOut))
	}

	// only export something that loads
	db, err := database.Load(*exportDb)
	misc.ErrorCheck(err)
	log.Infof("\tnumber of references: %d", len(db.References))
	sources := []string{*exportDb}
	if misc.CheckFile(infoPath(*exportDb)) == nil {
		sources = append(sources, infoPath(*exportDb))
	}
	for _, source := range sources {
		log.Infof("\tadding: %v", source)
	}
	misc.ErrorCheck(archiver.Archive(sources, *exportOut))
	log.Infof("\tsaved archive to \"%v\"", *exportOut)
}
