// Package misc contains the helpers shared by the ppsketch subcommands: logging, fatal error handling and parameter checks.
package misc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StartLogging sets up the global logger, writing to the log file if one is given (otherwise stdout)
// the returned function flushes and closes the log
func StartLogging(logFile string) (func(), error) {
	output := os.Stdout
	if logFile != "" {
		fh, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open log file %v", logFile)
		}
		output = fh
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger := zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(output), zapcore.InfoLevel))
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
		if output != os.Stdout {
			output.Close()
		}
	}, nil
}

// Logger returns the global sugared logger set up by StartLogging
func Logger() *zap.SugaredLogger {
	return zap.S()
}

// ErrorCheck logs a fatal error and exits
func ErrorCheck(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		zap.S().Fatalf("%v", err)
	}
}

// CheckRequiredFlags makes sure every flag annotated as required has been set
func CheckRequiredFlags(flags *pflag.FlagSet) error {
	missing := []string{}
	flags.VisitAll(func(flag *pflag.Flag) {
		requiredAnnotation := flag.Annotations["cobra_annotation_bash_completion_one_required_flag"]
		if len(requiredAnnotation) == 0 || requiredAnnotation[0] != "true" {
			return
		}
		if !flag.Changed {
			missing = append(missing, flag.Name)
		}
	})
	if len(missing) != 0 {
		return errors.Errorf("required flag(s) %v not set", strings.Join(missing, ", "))
	}
	return nil
}

// CheckFile makes sure a file exists and is not a directory
func CheckFile(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("file does not exist: %v", file)
		}
		return errors.Errorf("can't access file (check permissions): %v", file)
	}
	if info.IsDir() {
		return errors.Errorf("expected a file, got a directory: %v", file)
	}
	return nil
}

// CheckExt makes sure a file has one of the allowed extensions, a trailing .gz is ignored
func CheckExt(file string, exts []string) error {
	name := strings.TrimSuffix(file, ".gz")
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, allowed := range exts {
		if ext == allowed {
			return nil
		}
	}
	return errors.Errorf("file does not have a recognised extension (%v): %v", strings.Join(exts, ", "), file)
}

// CheckDir makes sure a directory exists, creating it if asked to
func CheckDir(dir string, create bool) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) && create {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Errorf("can't create specified output directory: %v", dir)
		}
		return nil
	}
	if err != nil {
		return errors.Errorf("can't access directory: %v", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("not a directory: %v", dir)
	}
	return nil
}
