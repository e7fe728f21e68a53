package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/config"
	"github.com/alnah/go-pdfreport/internal/fileutil"
	"github.com/alnah/go-pdfreport/internal/source"
)

// sourceCheckTimeout bounds the MongoDB connectivity probe.
const sourceCheckTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Report   reportInfo `json:"report"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// reportInfo holds the checks on the effective configuration.
type reportInfo struct {
	ConfigFile    string `json:"config_file,omitempty"`
	Renderer      string `json:"renderer"`
	Source        string `json:"source"`
	SourceFormat  string `json:"source_format,omitempty"`
	SourceOK      bool   `json:"source_ok"`
	Logo          string `json:"logo"`
	LogoFound     bool   `json:"logo_found"`
	TitleFont     string `json:"title_font,omitempty"`
	OutputDir     string `json:"output_dir"`
	OutputDirOK   bool   `json:"output_dir_ok"`
	configLoadErr error
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Sandbox  bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	var jsonOutput bool
	f := &cliFlags{}
	flags := newFlagSet("doctor")
	flags.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	flags.StringVarP(&f.common.config, "config", "c", "", "config file name or path")
	if _, err := parse(flags, args, printDoctorUsage, env.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(ctx, f, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, f *cliFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg := checkConfig(result, f)
	if cfg != nil {
		checkSource(ctx, result, cfg, env)
		checkAssets(result, cfg)
		checkOutput(result, cfg)
	}
	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig resolves the effective configuration. Returns nil when it
// cannot be loaded.
func checkConfig(result *doctorResult, f *cliFlags) *config.Config {
	name := f.common.config
	if name == "" {
		name = os.Getenv("PDFREPORT_CONFIG")
	}
	result.Report.ConfigFile = name

	cfg, err := resolveConfig(f)
	if err != nil {
		result.Report.configLoadErr = err
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
		return nil
	}
	result.Report.Renderer = cfg.Report.Renderer
	result.Chrome.Required = strings.EqualFold(cfg.Report.Renderer, "chrome")
	return cfg
}

// checkSource verifies the record source is reachable. MongoDB sources are
// connected and closed; file sources must exist.
func checkSource(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	result.Report.Source = describeSource(cfg)

	sc := sourceConfig(cfg)
	format, err := source.DetectFormat(sc)
	if err != nil {
		if errors.Is(err, source.ErrMissingPath) {
			result.Warnings = append(result.Warnings,
				"No source configured. Pass a CSV/JSON file or set PDFREPORT_MONGO_URI")
			return
		}
		result.Errors = append(result.Errors, fmt.Sprintf("Source: %v", err))
		return
	}
	result.Report.SourceFormat = format

	if format != source.FormatMongo {
		if !fileutil.FileExists(sc.Path) {
			result.Errors = append(result.Errors, fmt.Sprintf("Source file not found: %s", sc.Path))
			return
		}
		result.Report.SourceOK = true
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sourceCheckTimeout)
	defer cancel()
	src, err := env.NewSource(ctx, sc, zap.NewNop())
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("MongoDB: %v", err))
		return
	}
	_ = src.Close(ctx)
	result.Report.SourceOK = true
}

// checkAssets checks the logo and title font files.
func checkAssets(result *doctorResult, cfg *config.Config) {
	result.Report.Logo = cfg.Logo.Path
	if fileutil.FileExists(cfg.Logo.Path) {
		result.Report.LogoFound = true
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Logo not found at %s. Stamping will copy the report unchanged", cfg.Logo.Path))
	}

	if cfg.Report.TitleFont != "" {
		result.Report.TitleFont = cfg.Report.TitleFont
		if !fileutil.FileExists(cfg.Report.TitleFont) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Title font not found: %s", cfg.Report.TitleFont))
		}
	}
}

// checkOutput checks the report directory. A missing directory is created
// on the first run.
func checkOutput(result *doctorResult, cfg *config.Config) {
	dir := filepath.Dir(cfg.Output.Report)
	result.Report.OutputDir = dir

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Report.OutputDirOK = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Output directory %s does not exist yet; it will be created", dir))
		return
	case err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory: %v", err))
		return
	case !info.IsDir():
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory is a file: %s", dir))
		return
	}

	probe, err := os.CreateTemp(dir, ".pdfreport-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory not writable: %s", dir))
		return
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	result.Report.OutputDirOK = true
}

// checkChrome detects Chrome/Chromium installation. A missing browser is
// an error only when the chrome renderer is selected.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	missing := func(msg string) {
		if result.Chrome.Required {
			result.Errors = append(result.Errors, msg)
		}
	}

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			missing("Chrome/Chromium not found. Install Chrome, set ROD_BROWSER_BIN or use --renderer fpdf")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		missing(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- browser path from launcher or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else if result.Chrome.Required {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Only matters when Chrome will be launched
	if result.Chrome.Required && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("PDFREPORT_CONTAINER") == "1" {
		return true, "PDFREPORT_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "pdfreport-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pdfreport doctor")
	fmt.Fprintln(w)

	// Report section
	fmt.Fprintln(w, "Report")
	if r.Report.configLoadErr != nil {
		fmt.Fprintln(w, "  [ERROR] Config: not loaded")
	} else {
		if r.Report.ConfigFile != "" {
			fmt.Fprintf(w, "  [OK] Config: %s\n", r.Report.ConfigFile)
		} else {
			fmt.Fprintln(w, "  [OK] Config: defaults")
		}
		fmt.Fprintf(w, "  [OK] Renderer: %s\n", r.Report.Renderer)
		if r.Report.SourceOK {
			fmt.Fprintf(w, "  [OK] Source: %s (%s)\n", r.Report.Source, r.Report.SourceFormat)
		} else {
			fmt.Fprintf(w, "  [--] Source: %s\n", r.Report.Source)
		}
		if r.Report.LogoFound {
			fmt.Fprintf(w, "  [OK] Logo: %s\n", r.Report.Logo)
		} else {
			fmt.Fprintf(w, "  [--] Logo: %s (missing)\n", r.Report.Logo)
		}
		if r.Report.OutputDirOK {
			fmt.Fprintf(w, "  [OK] Output directory: %s\n", r.Report.OutputDir)
		}
	}
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	switch {
	case r.Chrome.Found:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	case r.Chrome.Required:
		fmt.Fprintln(w, "  [ERROR] Not found")
	default:
		fmt.Fprintln(w, "  [--] Not found (only needed for --renderer chrome)")
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to report")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
