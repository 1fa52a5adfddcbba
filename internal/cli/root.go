package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// AnnotateOptions holds the flags of the root command.
type AnnotateOptions struct {
	*RootOptions
	TargetDir   string
	Files       []string
	Replace     bool
	Clear       bool
	Check       bool
	Watch       bool
	ConfigPath  string
	SkipInvalid bool
	Debounce    time.Duration
}

// DefaultDebounce is how long --watch waits for more changes before
// re-running.
const DefaultDebounce = 300 * time.Millisecond

// NewRootCommand creates the root command for the sparqlmd CLI.
func NewRootCommand() *cobra.Command {
	rootOpts := &RootOptions{}
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sparqlmd [flags] [files...]",
		Short: "sparqlmd - literate SPARQL for markdown",
		Long: `Embed live SPARQL query results into markdown documents.

Every ` + "```sparql" + ` block of the selected documents is executed against the
graph loaded from the RDF files under --targetdir (Turtle, N-Triples and
RDF/XML). The result is rendered as a markdown table right after the block,
between <!-- start of sparql result --> and <!-- end of sparql result -->,
replacing whatever was there before. Running twice changes nothing.

Documents are printed to stdout unless --replace is given. --clear removes
result regions instead of regenerating them. --check renders in memory
and exits 1 if any document is out of date.

Settings are read from sparqlmd.yaml, sparqlmd.yml or sparqlmd.cue in the
working directory, or from --config. Flags override the file.

Exit codes:
  0 - Success
  1 - A document failed, or --check found out-of-date documents
  2 - Invalid flags or configuration, or the graph could not be loaded

Examples:
  sparqlmd --targetdir ./data README.md
  sparqlmd --targetdir ./data --files 'docs/**/*.md' --replace
  sparqlmd --clear --replace README.md
  sparqlmd --check --format json 'docs/*.md'
  sparqlmd --watch --targetdir ./data README.md`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(rootOpts.Format) {
				return usageError(cmd, fmt.Sprintf("invalid format %q: must be one of %v", rootOpts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, opts, args)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&rootOpts.Format, "format", "text", "report format (json|text)")

	flags := cmd.Flags()
	flags.StringVar(&opts.TargetDir, "targetdir", ".", "directory holding the RDF data files")
	flags.StringArrayVar(&opts.Files, "files", nil, "document to annotate; globs with ** are allowed (repeatable)")
	flags.BoolVar(&opts.Replace, "replace", false, "write results back to the documents")
	flags.BoolVar(&opts.Clear, "clear", false, "remove result regions instead of rendering them")
	flags.BoolVar(&opts.Check, "check", false, "exit 1 if any document is out of date; nothing is written")
	flags.BoolVar(&opts.Watch, "watch", false, "re-run whenever a data file or document changes (implies --replace)")
	flags.StringVar(&opts.ConfigPath, "config", "", "configuration file (default: discovered in the working directory)")
	flags.BoolVar(&opts.SkipInvalid, "skip-invalid", false, "skip data files that fail to parse")
	flags.DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "how long --watch waits for more changes")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(c, err.Error())
	})

	cmd.AddCommand(NewTestCommand(rootOpts))

	return cmd
}

// usageError prints the command's usage to stderr and returns an
// ExitUsage error.
func usageError(cmd *cobra.Command, message string) error {
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return NewExitError(ExitUsage, message)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
