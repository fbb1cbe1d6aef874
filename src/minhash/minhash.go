// Package minhash contains a bottom-k MinHash implementation. The k-mers are hashed with ntHash and can be filtered through a k-mer counter so that only k-mers seen a minimum number of times enter a sketch.
package minhash

import "github.com/pkg/errors"

// ErrSketchSize is returned when sketches of different sizes are compared
var ErrSketchSize = errors.New("sketches were built with different sketch sizes")

// Jaccard estimates the Jaccard similarity of two sorted bottom-k sketches
// the estimate comes from the sketchSize smallest values of the union
func Jaccard(sketch1, sketch2 []uint64, sketchSize int) float64 {
	if sketchSize == 0 || len(sketch1) == 0 || len(sketch2) == 0 {
		return 0.0
	}
	i, j, union, intersect := 0, 0, 0, 0
	for union < sketchSize && i < len(sketch1) && j < len(sketch2) {
		switch {
		case sketch1[i] == sketch2[j]:
			intersect++
			i++
			j++
		case sketch1[i] < sketch2[j]:
			i++
		default:
			j++
		}
		union++
	}
	// whatever is left of the longer sketch still counts towards the union
	for union < sketchSize && i < len(sketch1) {
		i++
		union++
	}
	for union < sketchSize && j < len(sketch2) {
		j++
		union++
	}
	return float64(intersect) / float64(union)
}
