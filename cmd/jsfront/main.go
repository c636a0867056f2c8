package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/jsfront/core/config"
	"github.com/aledsdavies/jsfront/internal/logger"
)

// Build-time variables - can be set via ldflags
var (
	Version   string = "dev"
	BuildTime string = "unknown"
	GitCommit string = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the global flags and the state PersistentPreRunE sets up.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
	logFile    string
	indent     int
	caseIndent int
	permissive bool
	strict     bool
	encoding   string

	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "jsfront [command]",
		Short: "Lex, parse and decompile JavaScript",
		Long: `jsfront runs the JavaScript front end: it scans and parses scripts into the
lowered tree form, regenerates formatted source from the compact source
trace, and stores compiled scripts as .jsir artifacts.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (default: ./"+config.FileName+" if present)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&a.logFile, "log-file", "", "Append logs to this file instead of stderr")
	flags.IntVar(&a.indent, "indent", 4, "Spaces per block level in decompiled output")
	flags.IntVar(&a.caseIndent, "case-indent", 2, "Spaces before case labels in decompiled output")
	flags.BoolVar(&a.permissive, "permissive", false, "Accept reserved words as identifiers")
	flags.BoolVar(&a.strict, "strict", false, "Report extra warnings")
	flags.StringVar(&a.encoding, "encoding", "auto", "Source encoding: auto, utf-8, utf-16le or utf-16be")

	rootCmd.AddCommand(
		a.lexCmd(),
		a.parseCmd(),
		a.decompileCmd(),
		a.compileCmd(),
		a.inspectCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("indent") {
		cfg.IndentUnit = a.indent
	}
	if flags.Changed("case-indent") {
		cfg.CaseIndentUnit = a.caseIndent
	}
	if flags.Changed("permissive") {
		cfg.PermissiveReserved = a.permissive
	}
	if flags.Changed("strict") {
		cfg.StrictWarnings = a.strict
	}
	if cfg.IndentUnit < 0 || cfg.CaseIndentUnit < 0 {
		return errors.New("indentation must not be negative")
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	log, closeLog, err := logger.New(logger.Config{
		Level:   level,
		Format:  a.logFormat,
		Output:  a.stderr,
		LogFile: a.logFile,
	})
	if err != nil {
		return err
	}
	a.log, a.closeLog = log, closeLog
	a.log.Debug("configuration loaded",
		"indent", cfg.IndentUnit,
		"caseIndent", cfg.CaseIndentUnit,
		"permissive", cfg.PermissiveReserved,
		"strict", cfg.StrictWarnings,
		"language", cfg.LanguageVersion)
	return nil
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	if _, err := os.Stat(config.FileName); err == nil {
		return config.Load(config.FileName)
	}
	return config.Default(), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build time, and git commit information for jsfront.",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jsfront %s\n", Version)
			fmt.Fprintf(out, "Built: %s\n", BuildTime)
			fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Language: %s\n", config.LanguageVersion)
		},
	}
}
