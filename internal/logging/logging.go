// Package logging points the standard logger at stderr and, optionally, a
// rotating log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating file sink. An empty File disables it.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard logger. The returned closer releases the log
// file and is safe to call when no file is configured.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file
}
