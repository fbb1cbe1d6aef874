package misc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	closer, err := StartLogging(logFile)
	require.NoError(t, err)
	Logger().Infof("hello %v", "log")
	closer()
	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "hello log")
	assert.Contains(t, string(contents), "INFO")

	_, err = StartLogging(filepath.Join(t.TempDir(), "missing", "test.log"))
	assert.Error(t, err)
}

func TestCheckRequiredFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("out", "", "")
	require.NoError(t, flags.SetAnnotation("db", "cobra_annotation_bash_completion_one_required_flag", []string{"true"}))
	assert.Error(t, CheckRequiredFlags(flags))
	require.NoError(t, flags.Set("db", "x.db"))
	assert.NoError(t, CheckRequiredFlags(flags))
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ref.fasta")
	require.NoError(t, os.WriteFile(file, []byte(">a\nACGT\n"), 0644))
	assert.NoError(t, CheckFile(file))
	assert.Error(t, CheckFile(dir))
	assert.Error(t, CheckFile(filepath.Join(dir, "nope.fasta")))
}

func TestCheckExt(t *testing.T) {
	exts := []string{"fasta", "fa", "fna"}
	assert.NoError(t, CheckExt("genome.fa", exts))
	assert.NoError(t, CheckExt("genome.fna.gz", exts))
	assert.Error(t, CheckExt("genome.fastq", exts))
	assert.Error(t, CheckExt("genome", exts))
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckDir(dir, false))
	newDir := filepath.Join(dir, "out")
	assert.Error(t, CheckDir(newDir, false))
	assert.NoError(t, CheckDir(newDir, true))
	assert.NoError(t, CheckDir(newDir, false))
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, CheckDir(file, false))
}
