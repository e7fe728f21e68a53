package main

// Notes:
// - runDoctor: we test the report checks (source, logo, title font,
//   output directory) against temp files. Chrome detection depends on the
//   host, so we only assert it never fails the fpdf renderer.
// - runDoctorCmd: we test JSON output, exit codes and flag errors.
// - MongoDB probing uses the source factory; we test it with a fake.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/source"
)

// writeDoctorConfig writes a config under dir and returns the cliFlags
// pointing to it.
func writeDoctorConfig(t *testing.T, dir, body string) *cliFlags {
	t.Helper()
	path := filepath.Join(dir, "doctor.yaml")
	writeFile(t, path, []byte(body))
	f := &cliFlags{}
	f.common.config = path
	return f
}

func containsAny(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// TestRunDoctor - Report checks
// ---------------------------------------------------------------------------

func TestRunDoctor(t *testing.T) {
	t.Parallel()

	t.Run("ready with file source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		csvPath := writeCSV(t, dir, 2)
		logo := writeLogo(t, dir)
		f := writeDoctorConfig(t, dir, fmt.Sprintf(
			"source:\n  path: %q\noutput:\n  report: %q\nlogo:\n  path: %q\n",
			csvPath, filepath.Join(dir, "report.pdf"), logo))
		env, _, _ := testEnv()

		r := runDoctor(context.Background(), f, env)

		if !r.Report.SourceOK || r.Report.SourceFormat != source.FormatCSV {
			t.Errorf("source = %+v, want csv ok", r.Report)
		}
		if !r.Report.LogoFound || !r.Report.OutputDirOK {
			t.Errorf("report = %+v, want logo and output ok", r.Report)
		}
		if r.Chrome.Required {
			t.Error("chrome required for the fpdf renderer")
		}
		if len(r.Errors) != 0 {
			t.Errorf("errors = %v, want none", r.Errors)
		}
	})

	t.Run("missing logo warns", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		csvPath := writeCSV(t, dir, 2)
		f := writeDoctorConfig(t, dir, fmt.Sprintf(
			"source:\n  path: %q\noutput:\n  report: %q\nlogo:\n  path: %q\n",
			csvPath, filepath.Join(dir, "new", "report.pdf"), filepath.Join(dir, "none.png")))
		env, _, _ := testEnv()

		r := runDoctor(context.Background(), f, env)

		if r.Report.LogoFound {
			t.Error("LogoFound = true for a missing logo")
		}
		if !containsAny(r.Warnings, "Logo not found") {
			t.Errorf("warnings = %v, want logo warning", r.Warnings)
		}
		if !containsAny(r.Warnings, "will be created") {
			t.Errorf("warnings = %v, want output directory warning", r.Warnings)
		}
		if r.Status == "errors" {
			t.Errorf("status = errors, want warnings: %v", r.Errors)
		}
	})

	t.Run("missing source and font are errors", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := writeDoctorConfig(t, dir, fmt.Sprintf(
			"source:\n  path: %q\noutput:\n  report: %q\nreport:\n  titleFont: %q\n",
			filepath.Join(dir, "missing.csv"), filepath.Join(dir, "report.pdf"), filepath.Join(dir, "missing.ttf")))
		env, _, _ := testEnv()

		r := runDoctor(context.Background(), f, env)

		if r.Status != "errors" {
			t.Errorf("status = %q, want errors", r.Status)
		}
		if !containsAny(r.Errors, "Source file not found") {
			t.Errorf("errors = %v, want source error", r.Errors)
		}
		if !containsAny(r.Errors, "Title font not found") {
			t.Errorf("errors = %v, want font error", r.Errors)
		}
	})

	t.Run("mongo probe", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := writeDoctorConfig(t, dir, fmt.Sprintf(
			"source:\n  mongo:\n    uri: mongodb://db:27017\noutput:\n  report: %q\n",
			filepath.Join(dir, "report.pdf")))

		for _, tc := range []struct {
			name   string
			err    error
			wantOK bool
		}{
			{"reachable", nil, true},
			{"unreachable", source.ErrConnect, false},
		} {
			env, _, _ := testEnv()
			src := &fakeSource{}
			env.NewSource = func(context.Context, source.Config, *zap.Logger) (source.Source, error) {
				if tc.err != nil {
					return nil, tc.err
				}
				return src, nil
			}

			r := runDoctor(context.Background(), f, env)

			if r.Report.SourceOK != tc.wantOK {
				t.Errorf("%s: SourceOK = %v, want %v", tc.name, r.Report.SourceOK, tc.wantOK)
			}
			if tc.wantOK && !src.closed {
				t.Errorf("%s: probe connection not closed", tc.name)
			}
			if !tc.wantOK && !containsAny(r.Errors, "MongoDB") {
				t.Errorf("%s: errors = %v, want MongoDB error", tc.name, r.Errors)
			}
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := writeDoctorConfig(t, dir, "report:\n  renderer: latex\n")
		env, _, _ := testEnv()

		r := runDoctor(context.Background(), f, env)

		if r.Status != "errors" || !containsAny(r.Errors, "Config") {
			t.Errorf("status = %q, errors = %v, want config error", r.Status, r.Errors)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Output and exit codes
// ---------------------------------------------------------------------------

func TestRunDoctorCmd(t *testing.T) {
	t.Parallel()

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := writeDoctorConfig(t, dir, fmt.Sprintf(
			"source:\n  path: %q\noutput:\n  report: %q\n",
			writeCSV(t, dir, 1), filepath.Join(dir, "report.pdf")))
		env, stdout, _ := testEnv()

		code := runDoctorCmd(context.Background(), []string{"--json", "-c", f.common.config}, env)

		var got doctorResult
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
		}
		if got.Report.Renderer != "fpdf" {
			t.Errorf("renderer = %q, want fpdf", got.Report.Renderer)
		}
		wantCode := ExitSuccess
		if got.Status == "errors" {
			wantCode = ExitGeneral
		}
		if code != wantCode {
			t.Errorf("exit code = %d, want %d for status %q", code, wantCode, got.Status)
		}
	})

	t.Run("text output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := writeDoctorConfig(t, dir, "report:\n  renderer: latex\n")
		env, stdout, _ := testEnv()

		code := runDoctorCmd(context.Background(), []string{"-c", f.common.config}, env)

		if code != ExitGeneral {
			t.Errorf("exit code = %d, want %d", code, ExitGeneral)
		}
		for _, want := range []string{"pdfreport doctor", "Config: not loaded", "Status: Not ready"} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("output missing %q:\n%s", want, stdout.String())
			}
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		t.Parallel()

		env, _, stderr := testEnv()
		if code := runDoctorCmd(context.Background(), []string{"--yaml"}, env); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !bytes.Contains(stderr.Bytes(), []byte("unknown flag")) {
			t.Errorf("stderr = %q, want flag error", stderr.String())
		}
	})
}
