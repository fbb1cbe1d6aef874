package reference

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
)

// ReadSequences returns every sequence in a (optionally gzipped) FASTA or FASTQ file
func ReadSequences(path string) ([][]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	var input io.Reader = fh
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return nil, errors.Wrapf(err, "could not decompress %v", path)
		}
		defer gz.Close()
		input = gz
	}
	sequences, err := ParseSequences(input)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %v", path)
	}
	return sequences, nil
}

// ParseSequences reads a FASTA or FASTQ stream, a leading '@' marks FASTQ
func ParseSequences(input io.Reader) ([][]byte, error) {
	buffered := bufio.NewReader(input)
	first, err := buffered.Peek(1)
	if err != nil {
		return nil, errors.New("no sequences found")
	}
	if first[0] == '@' {
		return ParseFastq(buffered)
	}
	return ParseFasta(buffered)
}

// ParseFasta reads every sequence from a FASTA stream
func ParseFasta(input io.Reader) ([][]byte, error) {
	scanner := seqio.NewScanner(fasta.NewReader(input, linear.NewSeq("", nil, alphabet.DNAredundant)))
	sequences := [][]byte{}
	for scanner.Next() {
		record, ok := scanner.Seq().(*linear.Seq)
		if !ok {
			return nil, errors.New("unexpected sequence type from FASTA reader")
		}
		sequence := make([]byte, len(record.Seq))
		for i, letter := range record.Seq {
			sequence[i] = byte(letter)
		}
		sequences = append(sequences, sequence)
	}
	if err := scanner.Error(); err != nil {
		return nil, err
	}
	if len(sequences) == 0 {
		return nil, errors.New("no sequences found")
	}
	return sequences, nil
}

// ParseFastq reads every read from a FASTQ stream, qualities are dropped
// low quality bases are left for the k-mer counter to filter
func ParseFastq(input io.Reader) ([][]byte, error) {
	scanner := seqio.NewScanner(fastq.NewReader(input, linear.NewQSeq("", nil, alphabet.DNAredundant, alphabet.Sanger)))
	sequences := [][]byte{}
	for scanner.Next() {
		record, ok := scanner.Seq().(*linear.QSeq)
		if !ok {
			return nil, errors.New("unexpected sequence type from FASTQ reader")
		}
		sequence := make([]byte, len(record.Seq))
		for i, qletter := range record.Seq {
			sequence[i] = byte(qletter.L)
		}
		sequences = append(sequences, sequence)
	}
	if err := scanner.Error(); err != nil {
		return nil, err
	}
	if len(sequences) == 0 {
		return nil, errors.New("no reads found")
	}
	return sequences, nil
}
