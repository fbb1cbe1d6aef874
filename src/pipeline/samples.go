package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// the k-mer range limits for sketching
const (
	MinKmerSize = 9
	MaxKmerSize = 31
	MinKmerStep = 2
)

// SeqExtensions are the accepted sequence file extensions, any of which may be followed by .gz
var SeqExtensions = []string{"fasta", "fna", "fa", "fas", "fastq", "fq"}

// KmerLengths expands a k-mer range into the lengths to sketch at, maxK is included when the step lands on it
func KmerLengths(minK, maxK, step int) ([]int, error) {
	if minK >= maxK {
		return nil, fmt.Errorf("minimum k-mer size (%d) must be less than the maximum (%d)", minK, maxK)
	}
	if minK < MinKmerSize || maxK > MaxKmerSize {
		return nil, fmt.Errorf("k-mer sizes must be between %d and %d", MinKmerSize, MaxKmerSize)
	}
	if step < MinKmerStep {
		return nil, fmt.Errorf("k-mer step must be at least %d", MinKmerStep)
	}
	lengths := []int{}
	for k := minK; k <= maxK; k += step {
		lengths = append(lengths, k)
	}
	if len(lengths) < 2 {
		return nil, fmt.Errorf("k-mer range %d-%d with step %d gives fewer than two k-mer lengths", minK, maxK, step)
	}
	return lengths, nil
}

// SampleName strips the directory and any sequence file extensions from a path
func SampleName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range SeqExtensions {
		name = strings.TrimSuffix(name, "."+ext)
	}
	return name
}

// SamplesFromFiles makes one sample per sequence file, named after the file
func SamplesFromFiles(files []string) []Sample {
	samples := make([]Sample, len(files))
	for i, file := range files {
		samples[i] = Sample{Name: SampleName(file), Files: []string{file}}
	}
	return samples
}

// ReadSampleList reads a tab separated list of samples: a name followed by one or more files
func ReadSampleList(path string) ([]Sample, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	samples := []Sample{}
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(fh)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d of %v: need a sample name and at least one file", lineNum, path)
		}
		if _, ok := seen[fields[0]]; ok {
			return nil, fmt.Errorf("line %d of %v: duplicate sample name %v", lineNum, path, fields[0])
		}
		seen[fields[0]] = struct{}{}
		samples = append(samples, Sample{Name: fields[0], Files: fields[1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples listed in %v", path)
	}
	return samples, nil
}
