// Package debug configures logging from command line flags.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cryptocoin-airdrop/deployer/internal/flags"
)

var (
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	LogFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (json|logfmt|terminal)",
		Category: flags.LoggingCategory,
	}
	LogFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file",
		Category: flags.LoggingCategory,
	}
	LogRotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Enables log file rotation",
		Category: flags.LoggingCategory,
	}
	LogMaxSizeMBsFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Maximum size in MBs of a single log file",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	LogMaxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Maximum number of log files to retain",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	LogCompressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Compress the log files",
		Category: flags.LoggingCategory,
	}
)

// Flags holds all command-line flags required for logging.
var Flags = []cli.Flag{
	VerbosityFlag,
	LogFormatFlag,
	LogFileFlag,
	LogRotateFlag,
	LogMaxSizeMBsFlag,
	LogMaxBackupsFlag,
	LogCompressFlag,
}

var logOutput io.Closer

// Setup installs the default logger described by the flags.
func Setup(ctx *cli.Context) error {
	var (
		output   = io.Writer(os.Stderr)
		useColor = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if file := ctx.String(LogFileFlag.Name); file != "" {
		if ctx.Bool(LogRotateFlag.Name) {
			rotated := &lumberjack.Logger{
				Filename:   file,
				MaxSize:    ctx.Int(LogMaxSizeMBsFlag.Name),
				MaxBackups: ctx.Int(LogMaxBackupsFlag.Name),
				Compress:   ctx.Bool(LogCompressFlag.Name),
			}
			output, logOutput = rotated, rotated
		} else {
			f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %v", err)
			}
			output, logOutput = f, f
		}
		useColor = false
	} else if useColor {
		output = colorable.NewColorableStderr()
	}

	var handler slog.Handler
	switch format := ctx.String(LogFormatFlag.Name); format {
	case "json":
		handler = log.JSONHandler(output)
	case "logfmt":
		handler = log.LogfmtHandler(output)
	case "", "terminal":
		handler = log.NewTerminalHandler(output, useColor)
	default:
		return fmt.Errorf("unknown log format: %v", format)
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(log.FromLegacyLevel(ctx.Int(VerbosityFlag.Name)))
	log.SetDefault(log.NewLogger(glogger))
	return nil
}

// Exit closes the log file, if any.
func Exit() {
	if logOutput != nil {
		logOutput.Close()
		logOutput = nil
	}
}
