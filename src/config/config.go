// Package config loads the default run parameters, which can be overridden by PPSKETCH_ environment variables.
package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Prefix is the environment variable prefix
const Prefix = "PPSKETCH"

// Defaults are the parameters used when a flag is not given on the command line
type Defaults struct {
	// Threads of 0 means one per CPU
	Threads    int   `envconfig:"THREADS" default:"0"`
	MinK       int   `envconfig:"MIN_K" default:"13"`
	MaxK       int   `envconfig:"MAX_K" default:"29"`
	KStep      int   `envconfig:"K_STEP" default:"4"`
	SketchSize int   `envconfig:"SKETCH_SIZE" default:"10000"`
	MinCount   uint8 `envconfig:"MIN_COUNT" default:"0"`
	WidthBits  uint  `envconfig:"CM_WIDTH_BITS" default:"24"`
	Rows       int   `envconfig:"CM_ROWS" default:"6"`
	NClusters  int   `envconfig:"CLUSTERS" default:"3"`
	NMC        int   `envconfig:"MC" default:"5"`
	Seed       int64 `envconfig:"SEED" default:"42"`
}

// Load reads the defaults, applying any environment overrides
func Load() (*Defaults, error) {
	defaults := &Defaults{}
	if err := envconfig.Process(Prefix, defaults); err != nil {
		return nil, errors.Wrap(err, "could not read environment configuration")
	}
	if defaults.Threads < 0 {
		return nil, errors.Errorf("%v_THREADS can't be negative, got %d", Prefix, defaults.Threads)
	}
	return defaults, nil
}
