// Package version records the release, which is stamped into every database
package version

// VERSION is the current ppsketch version
const VERSION = "0.3.1"
