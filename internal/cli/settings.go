package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlmd/internal/annotate"
	"github.com/roach88/sparqlmd/internal/config"
)

// settings is the effective configuration of one invocation: flags over
// the configuration file over defaults.
type settings struct {
	targetDir   string
	patterns    []string
	extensions  []string
	prefixes    map[string]string
	skipInvalid bool
	mode        annotate.Mode
	replace     bool
	check       bool
	watch       bool
	debounce    time.Duration
	configPath  string
}

// resolveSettings merges flags, positional arguments and the
// configuration file. Every error is a usage error.
func resolveSettings(cmd *cobra.Command, opts *AnnotateOptions, args []string) (*settings, error) {
	if opts.Check && opts.Replace {
		return nil, usageError(cmd, "--check cannot be combined with --replace")
	}
	if opts.Check && opts.Watch {
		return nil, usageError(cmd, "--check cannot be combined with --watch")
	}
	if opts.Debounce <= 0 {
		return nil, usageError(cmd, "--debounce must be positive")
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitUsage, "invalid configuration", err)
	}

	flags := cmd.Flags()
	s := &settings{
		targetDir:   opts.TargetDir,
		extensions:  cfg.Extensions,
		prefixes:    cfg.Prefixes,
		skipInvalid: opts.SkipInvalid,
		mode:        annotate.ModeRender,
		replace:     opts.Replace || opts.Watch,
		check:       opts.Check,
		watch:       opts.Watch,
		debounce:    opts.Debounce,
		configPath:  cfg.Path,
	}
	if !flags.Changed("targetdir") && cfg.TargetDir != "" {
		s.targetDir = cfg.TargetDir
	}
	if !flags.Changed("skip-invalid") && cfg.SkipInvalid {
		s.skipInvalid = true
	}
	if opts.Clear {
		s.mode = annotate.ModeClear
	}

	s.patterns = append(append([]string{}, opts.Files...), args...)
	if len(s.patterns) == 0 {
		s.patterns = cfg.Files
	}
	if len(s.patterns) == 0 {
		return nil, usageError(cmd, "no documents selected: pass files as arguments, with --files, or in the configuration file")
	}

	return s, nil
}

// loadConfig loads the file at path, or the file discovered in the working
// directory when path is empty. Without either it returns an empty
// configuration.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, ok := config.Discover(".")
		if !ok {
			return &config.Config{}, nil
		}
		path = found
	}
	return config.Load(path)
}
