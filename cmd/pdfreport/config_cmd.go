package main

import (
	"errors"
	"fmt"

	"github.com/alnah/go-pdfreport/internal/config"
	"github.com/alnah/go-pdfreport/internal/fileutil"
)

// ErrConfigExists is returned by `config init` when the target exists and
// --force is not set.
var ErrConfigExists = errors.New("config file already exists")

// runConfig handles `pdfreport config init|show`.
func runConfig(args []string, env *Environment) error {
	if len(args) == 0 {
		printConfigUsage(env.Stderr)
		return fmt.Errorf("%w: config requires a subcommand", ErrUsage)
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:], env)
	case "show":
		return runConfigShow(args[1:], env)
	default:
		printConfigUsage(env.Stderr)
		return fmt.Errorf("%w: unknown config subcommand %q", ErrUsage, args[0])
	}
}

// runConfigInit writes the default configuration to stdout or a file.
func runConfigInit(args []string, env *Environment) error {
	var output string
	var force bool
	fs := newFlagSet("config init")
	fs.StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	fs.BoolVar(&force, "force", false, "overwrite an existing file")
	if _, err := parse(fs, args, printConfigUsage, env.Stdout); err != nil {
		return err
	}

	data, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		return err
	}

	if output == "" {
		_, err := env.Stdout.Write(data)
		return err
	}
	if fileutil.FileExists(output) && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, output)
	}
	if err := fileutil.WriteFileAtomic(output, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(env.Stdout, "wrote %s\n", output)
	return nil
}

// runConfigShow prints the configuration after the file and environment
// are applied.
func runConfigShow(args []string, env *Environment) error {
	f := &cliFlags{}
	fs := newFlagSet("config show")
	fs.StringVarP(&f.common.config, "config", "c", "", "config file name or path")
	if _, err := parse(fs, args, printConfigUsage, env.Stdout); err != nil {
		return err
	}

	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}
