// Command parsegedcom parses one GEDCOM file and prints a record summary.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/gedtree"
	"github.com/dgallion1/gedgest/internal/report"
	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 0x0100
)

// usageError is a command-line mistake; it exits with exitUsage.
type usageError string

func (e usageError) Error() string { return string(e) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	helpRequested := false
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		helpRequested = true
		printUsage(stdout, c)
	})

	err := cmd.Execute()
	var usage usageError
	switch {
	case helpRequested:
		return exitUsage
	case errors.As(err, &usage):
		if usage != "" {
			fmt.Fprintln(stdout, usage)
		}
		printUsage(stdout, cmd)
		return exitUsage
	case err != nil:
		fmt.Fprintf(stderr, "Error! %s\n", err)
		return exitError
	}
	return exitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		outputFormat  string
		verbose       bool
		sourceRecords bool
	)

	cmd := &cobra.Command{
		Use:   "parsegedcom <file>",
		Short: "Parse a GEDCOM file and print a summary",
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return usageError("Missing filename.")
			case len(args) > 1:
				return usageError(fmt.Sprintf("Found more args than expected: %q", args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "text" && !report.ValidFormat(outputFormat) {
				return usageError(fmt.Sprintf("unknown format: %s", outputFormat))
			}

			data, err := readRelative(args[0])
			if err != nil {
				return fmt.Errorf("could not open `%s`: %w", args[0], err)
			}

			var opts []gedcom.Option
			if verbose {
				opts = append(opts, gedcom.WithLogger(slog.New(slog.NewTextHandler(stderr, nil))))
			}
			if sourceRecords {
				opts = append(opts, gedcom.WithSourceRecords())
			}

			p := gedcom.NewParser(data, opts...)
			doc, err := p.Parse()
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			if outputFormat != "text" {
				return report.Encode(stdout, outputFormat, doc)
			}
			fmt.Fprintln(stdout, "Parsing complete!")
			writeStats(stdout, doc.Stats(), len(p.Diagnostics()))
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err.Error())
	})

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log parser diagnostics to stderr")
	cmd.Flags().BoolVar(&sourceRecords, "sources", false, "parse SUBM, REPO and SOUR records")
	return cmd
}

func readRelative(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func printUsage(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintln(w, "Usage: parsegedcom ./path/to/gedcom.ged")
	fmt.Fprint(w, cmd.Flags().FlagUsages())
}

func writeStats(w io.Writer, s gedtree.Stats, diagnostics int) {
	const rule = "----------------------"
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "| GEDCOM Data Stats: |")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  submitters: %d\n", s.Submitters)
	fmt.Fprintf(w, "  individuals: %d\n", s.Individuals)
	fmt.Fprintf(w, "  families: %d\n", s.Families)
	fmt.Fprintf(w, "  repositories: %d\n", s.Repositories)
	fmt.Fprintf(w, "  sources: %d\n", s.Sources)
	fmt.Fprintf(w, "  diagnostics: %d\n", diagnostics)
	fmt.Fprintln(w, rule)
}
