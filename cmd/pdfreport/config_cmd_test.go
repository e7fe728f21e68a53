package main

// Notes:
// - config init: we test stdout output, file output, refusal to overwrite
//   and --force. The written file must load back to the defaults.
// - config show: we test that environment overrides appear. Uses t.Setenv,
//   so that test is not parallel.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-pdfreport/internal/config"
)

// ---------------------------------------------------------------------------
// TestRunConfigInit - Default config generation
// ---------------------------------------------------------------------------

func TestRunConfigInit(t *testing.T) {
	t.Parallel()

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := testEnv()
		if err := runConfig([]string{"init"}, env); err != nil {
			t.Fatalf("runConfig(init) error = %v", err)
		}
		for _, want := range []string{"source:", "output:", "report:", "logo:", "schedule:", config.DefaultReportPath} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("output missing %q:\n%s", want, stdout.String())
			}
		}
	})

	t.Run("file round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf", "pdfreport.yaml")
		env, _, _ := testEnv()
		if err := runConfig([]string{"init", "-o", path}, env); err != nil {
			t.Fatalf("runConfig(init -o) error = %v", err)
		}

		got, err := config.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if *got != *config.DefaultConfig() {
			t.Errorf("loaded config differs from defaults:\ngot  %+v\nwant %+v", *got, *config.DefaultConfig())
		}
	})

	t.Run("refuses overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pdfreport.yaml")
		writeFile(t, path, []byte("report:\n  title: Mine\n"))
		env, _, _ := testEnv()

		err := runConfig([]string{"init", "-o", path}, env)
		if !errors.Is(err, ErrConfigExists) {
			t.Fatalf("error = %v, want ErrConfigExists", err)
		}
		if string(readFile(t, path)) != "report:\n  title: Mine\n" {
			t.Error("existing config was modified")
		}

		if err := runConfig([]string{"init", "-o", path, "--force"}, env); err != nil {
			t.Fatalf("--force error = %v", err)
		}
		if strings.Contains(string(readFile(t, path)), "Mine") {
			t.Error("--force did not overwrite")
		}
	})

	t.Run("unknown subcommand", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv()
		err := runConfig([]string{"edit"}, env)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
		if !strings.Contains(stderr.String(), "Usage: pdfreport config") {
			t.Errorf("stderr = %q, want config usage", stderr.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunConfigShow - Effective configuration
// ---------------------------------------------------------------------------

func TestRunConfigShow(t *testing.T) {
	t.Setenv("PDFREPORT_CONFIG", "")
	t.Setenv("PDFREPORT_CURRENCY", "CHF")

	env, stdout, _ := testEnv()
	if err := runConfig([]string{"show"}, env); err != nil {
		t.Fatalf("runConfig(show) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "CHF") {
		t.Errorf("output missing env currency:\n%s", stdout.String())
	}
}
