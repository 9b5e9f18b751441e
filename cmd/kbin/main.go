// Command kbin is the command-line front end for the interpreter (§6.2):
// it compiles a .ksy schema, parses a binary file against it, and prints
// the result as JSON or YAML.
//
// Grounded on the teacher's cmd/kbin-plugin/main.go for the exit-code and
// errors.Is/As error-reporting idiom, rebuilt on cobra/pflag (pack:
// MacroPower-x) in place of the teacher's Benthos processor registration,
// since this is a standalone CLI rather than a stream-pipeline plugin.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kbinterp/kbin/pkg/api"
	"github.com/kbinterp/kbin/pkg/kaitaierr"
	"github.com/kbinterp/kbin/pkg/kaitaischema"
)

// exitError carries the process exit code a failure should produce,
// per §6.2's 0/1/2/3 exit-code table.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error { return &exitError{code: code, err: err} }

type cliFlags struct {
	output    string
	pretty    bool
	noPretty  bool
	format    string
	field     string
	validate  bool
	strict    bool
	quiet     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.err)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{validate: true}

	cmd := &cobra.Command{
		Use:           "kbin <schema-file> <binary-file>",
		Short:         "Parse a binary file against a Kaitai Struct schema",
		Version:       "0.1.0",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to file instead of standard out")
	cmd.Flags().BoolVarP(&flags.pretty, "pretty", "p", false, "JSON pretty-print (default: pretty when writing to a terminal)")
	cmd.Flags().BoolVar(&flags.noPretty, "no-pretty", false, "Disable JSON pretty-print")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format: json|yaml")
	cmd.Flags().StringVar(&flags.field, "field", "", "Extract a sub-value via dot/bracket notation (e.g. a.b[2].c)")
	cmd.Flags().BoolVar(&flags.validate, "validate", true, "Schema validation")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Promote validator warnings to errors")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress progress on standard error")

	return cmd
}

func run(schemaPath, binaryPath string, flags *cliFlags) error {
	logger := newLogger(flags.quiet)

	schemaText, err := os.ReadFile(schemaPath)
	if err != nil {
		return fail(1, fmt.Errorf("reading schema file: %w", err))
	}
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return fail(1, fmt.Errorf("reading binary file: %w", err))
	}

	opts := api.Options{
		Strict:        flags.strict,
		Logger:        logger,
		ResolveImport: importResolver(schemaPath),
	}

	compiled, diags, err := api.CompileSchema(schemaText, opts)
	if !flags.quiet {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
	if err != nil {
		return fail(3, fmt.Errorf("schema validation failed: %w", err))
	}
	if flags.validate {
		for _, d := range diags {
			if d.Severity == kaitaischema.SeverityError {
				return fail(3, fmt.Errorf("schema validation failed: %s", d.String()))
			}
		}
	}

	node, err := api.ParseWithSchema(context.Background(), compiled, data, opts)
	if err != nil {
		return renderFailure(1, err)
	}

	result := api.Dump(node)
	if flags.field != "" {
		result, err = extractField(result, flags.field)
		if err != nil {
			return fail(1, err)
		}
	}

	out, err := marshalResult(result, flags)
	if err != nil {
		return fail(1, fmt.Errorf("marshaling output: %w", err))
	}

	return writeOutput(out, flags.output)
}

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func importResolver(schemaPath string) func(path string) ([]byte, error) {
	dir := schemaDir(schemaPath)
	return func(path string) ([]byte, error) {
		return os.ReadFile(dir + "/../" + path + ".ksy")
	}
}

func schemaDir(schemaPath string) string {
	i := len(schemaPath) - 1
	for i >= 0 && schemaPath[i] != '/' {
		i--
	}
	if i < 0 {
		return "."
	}
	return schemaPath[:i]
}

// renderFailure returns an exitError wrapping the original error. When the
// error carries a kaitaierr hex/ASCII context block, the block is appended
// after the error line, so main prints the line first and the block below it.
func renderFailure(code int, err error) error {
	var kerr *kaitaierr.Error
	if errors.As(err, &kerr) {
		if ctx := kerr.HexContext(); ctx != "" {
			return fail(code, fmt.Errorf("%w\n%s", err, strings.TrimSuffix(ctx, "\n")))
		}
	}
	return fail(code, err)
}

func marshalResult(v any, flags *cliFlags) ([]byte, error) {
	switch flags.format {
	case "yaml":
		return yaml.Marshal(v)
	case "", "json":
		pretty := flags.pretty || (!flags.noPretty && isTerminal(os.Stdout) && flags.output == "")
		if pretty {
			return json.MarshalIndent(v, "", "  ")
		}
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown output format %q", flags.format)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func writeOutput(data []byte, outputPath string) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(outputPath, append(data, '\n'), 0o644)
}
