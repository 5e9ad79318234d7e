package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookshelf/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios using the harness framework.

Each scenario runs against a fresh in-memory backend. Step outcomes,
event and final state assertions, and backend verification must all hold.
If <scenarios-dir>/golden/<file>.golden exists, the trace must also match
it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  bookshelf test ./scenarios
  bookshelf test ./scenarios --filter "reference_*"
  bookshelf test ./scenarios --update
  bookshelf test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, file := range scenarioFiles {
		sr := runScenario(file, opts, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}

	return outputTestText(cmd, result)
}

// findScenarioFiles lists the .yaml and .yml files under dir whose base
// name (without extension) matches filter. An empty filter matches all.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter == "" {
			files = append(files, path)
			return nil
		}
		ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// scenarioReport prints one scenario's line in text mode and builds its
// ScenarioResult.
type scenarioReport struct {
	w     io.Writer
	quiet bool
}

func (r scenarioReport) pass(name, note string) ScenarioResult {
	if !r.quiet {
		fmt.Fprintf(r.w, "✓ %s%s\n", name, note)
	}
	return ScenarioResult{Name: name, Pass: true}
}

// fail reports name as failed. msgs are printed indented; errs become the
// result's errors, and default to msgs when omitted.
func (r scenarioReport) fail(name string, msgs []string, errs ...string) ScenarioResult {
	if !r.quiet {
		fmt.Fprintf(r.w, "✗ %s\n", name)
		for _, m := range msgs {
			fmt.Fprintf(r.w, "  %s\n", m)
		}
	}
	if len(errs) == 0 {
		errs = msgs
	}
	return ScenarioResult{Name: name, Pass: false, Errors: errs}
}

// runScenario loads and runs one scenario file, then checks it against its
// golden trace (or rewrites the trace when --update is set).
func runScenario(scenarioFile string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	report := scenarioReport{w: cmd.OutOrStdout(), quiet: opts.Format == "json"}
	out := opts.formatter(cmd)

	out.VerboseLog("loading %s", scenarioFile)
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return report.fail(filepath.Base(scenarioFile),
			[]string{fmt.Sprintf("Load error: %v", err)},
			fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return report.fail(scenario.Name,
			[]string{fmt.Sprintf("Execution error: %v", err)},
			fmt.Sprintf("execution failed: %v", err))
	}
	out.VerboseLog("%s: %d step(s), %d event(s), state root %s",
		scenario.Name, len(result.Steps), len(result.Events), result.StateRoot)

	goldenPath := goldenFilePath(scenarioFile)
	if opts.Update {
		if err := writeGolden(goldenPath, scenario.Name, result); err != nil {
			return report.fail(scenario.Name,
				[]string{fmt.Sprintf("Golden update error: %v", err)},
				fmt.Sprintf("failed to update golden file: %v", err))
		}
		return report.pass(scenario.Name, " (golden updated)")
	}

	match, err := matchesGolden(goldenPath, scenario.Name, result)
	switch {
	case err != nil:
		return report.fail(scenario.Name,
			[]string{fmt.Sprintf("Golden comparison error: %v", err)},
			fmt.Sprintf("golden comparison failed: %v", err))
	case !match:
		return report.fail(scenario.Name,
			[]string{"Golden file mismatch (run with --update to regenerate)"},
			"trace does not match golden file")
	case !result.Pass:
		return report.fail(scenario.Name, result.Errors)
	}
	return report.pass(scenario.Name, "")
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path, name string, result *harness.Result) error {
	data, err := harness.MarshalTrace(name, result)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// matchesGolden reports whether result's trace equals the golden file at
// path byte for byte. A missing golden file matches.
func matchesGolden(path, name string, result *harness.Result) (bool, error) {
	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read golden file: %w", err)
	}
	got, err := harness.MarshalTrace(name, result)
	if err != nil {
		return false, fmt.Errorf("marshal trace: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
