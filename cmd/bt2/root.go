package main

import (
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bt2go/bt2/plugin"
)

// rootConfig is shared by every subcommand, mirroring cmd/trc's rootConfig:
// a single struct holding global flags plus whatever get derived from them
// during validation (here, a *zap.Logger instead of a trio of *log.Logger).
type rootConfig struct {
	stdout io.Writer
	stderr io.Writer

	LogLevel        string `ff:" short: l | long: log-level | placeholder: LEVEL | usage: log level: t/T, d/D, i/I, w/W, e/E, f/F, n/N "`
	RetryDurationUs uint   `ff:"          | long: retry-duration-us | default: 100000 | placeholder: USEC | usage: sleep duration between whole-graph Again results "`

	logger   *zap.Logger
	registry *plugin.Registry
}

func (cfg *rootConfig) registerBaseFlags(fs *ff.FlagSet) {
	cfg.LogLevel = "i"
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log-level",
		Value:       ffval.NewEnum(&cfg.LogLevel, "i", "I", "t", "T", "d", "D", "w", "W", "e", "E", "f", "F", "n", "N"),
		Usage:       "log level: t/T, d/D, i/I, w/W, e/E, f/F, n/N",
		Placeholder: "LEVEL",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "retry-duration-us",
		Value:       ffval.NewValueDefault(&cfg.RetryDurationUs, 100000),
		Usage:       "sleep duration between whole-graph Again results",
		Placeholder: "USEC",
	})
}

// zapLevel maps the BABELTRACE_CLI_LOG_LEVEL / LIBBABELTRACE2_INIT_LOG_LEVEL
// letter codes (spec.md §6: T|D|I|W|E|F|N for trace/debug/info/warn/error/
// fatal/none) onto zapcore.Level. There is no zap level below Debug, so
// "trace" collapses onto Debug -- the distinction only matters for the
// teacher's bespoke *log.Logger trio, not for a structured logger.
func zapLevel(code string) (zapcore.Level, bool) {
	switch code {
	case "t", "T":
		return zapcore.DebugLevel, true
	case "d", "D":
		return zapcore.DebugLevel, true
	case "i", "I", "":
		return zapcore.InfoLevel, true
	case "w", "W":
		return zapcore.WarnLevel, true
	case "e", "E":
		return zapcore.ErrorLevel, true
	case "f", "F":
		return zapcore.FatalLevel, true
	case "n", "N":
		return zapcore.InvalidLevel, false // "none": buildLogger returns zap.NewNop() before asking
	default:
		return zapcore.InfoLevel, false
	}
}

// buildLogger constructs the root *zap.Logger from cfg.LogLevel, writing to
// stderr (matching cmd/trc's convention of sending all diagnostic output
// there, leaving stdout free for command results).
func buildLogger(levelCode string, stderr io.Writer) (*zap.Logger, error) {
	if levelCode == "n" || levelCode == "N" {
		return zap.NewNop(), nil
	}
	level, ok := zapLevel(levelCode)
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", levelCode)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(stderr),
		level,
	)
	return zap.New(core), nil
}
