package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Context carries shared state into every subcommand's Run method,
// grounded on banksean-sand/cmd/sand/main.go's kong.Context pattern.
type Context struct {
	EnvFile string
	Verbose bool
}

type CLI struct {
	Env     string `short:"f" default:"./maestro.yaml" placeholder:"<path>" help:"path to the environment file"`
	Verbose bool   `short:"v" help:"stream orchestration events to stderr as they happen"`
	LogFile string `default:"" placeholder:"<path>" help:"write logs to this file instead of stderr (rotated with lumberjack)"`

	Status  StatusCmd  `cmd:"" help:"report the current state of every targeted instance"`
	Start   StartCmd   `cmd:"" help:"start targeted services (and anything they require)"`
	Stop    StopCmd    `cmd:"" help:"stop targeted services (and anything that depends on them)"`
	Restart RestartCmd `cmd:"" help:"restart targeted services"`
	Clean   CleanCmd   `cmd:"" help:"stop and remove targeted services' containers"`
	Logs    LogsCmd    `cmd:"" help:"stream or print container logs for an instance"`
	Explain ExplainCmd `cmd:"" help:"print the computed start order and composed environment without touching any ship"`
}

const description = `Orchestrate multi-host container environments described by a single environment file.`

func main() {
	var cli CLI

	kctx := kong.Parse(&cli, kong.Description(description))

	closeLog := initLogging(cli.LogFile, cli.Verbose)
	defer closeLog()

	err := kctx.Run(&Context{EnvFile: cli.Env, Verbose: cli.Verbose})
	if err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
