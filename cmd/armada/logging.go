package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// initLogging sets the default slog logger, grounded on
// banksean-sand/cmd/sand/main.go's initSlog — JSON handler, file or
// stderr sink, level gated by -v. Rotation is handled by lumberjack
// instead of the teacher's raw os.OpenFile, since armada's ship
// connections are long-running enough across a large environment that
// an unrotated log file is a real operational concern the teacher's
// single-sandbox use case didn't have.
func initLogging(logFile string, verbose bool) func() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	var closer func()

	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = lj
		closer = func() { lj.Close() }
	} else {
		closer = func() {}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return closer
}
