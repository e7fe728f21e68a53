package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	loadDotEnv(os.Getenv(envFileVar), os.Stderr)

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// commands lists the subcommand names.
var commands = []string{"generate", "stamp", "run", "schedule", "config", "doctor", "version", "help"}

// isCommand reports whether arg names a subcommand. Matching is case-sensitive.
func isCommand(arg string) bool {
	for _, c := range commands {
		if arg == c {
			return true
		}
	}
	return false
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	warnUnknownEnvVars(env.Stderr)

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "generate":
		err = runGenerate(ctx, rest, env)
	case "stamp":
		err = runStamp(ctx, rest, env)
	case "run":
		err = runRun(ctx, rest, env)
	case "schedule":
		err = runSchedule(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "pdfreport %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
