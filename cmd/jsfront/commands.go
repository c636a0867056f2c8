package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/jsfront/core/artifact"
	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/internal/logger"
	"github.com/aledsdavies/jsfront/runtime/decompiler"
	"github.com/aledsdavies/jsfront/runtime/ir"
	"github.com/aledsdavies/jsfront/runtime/lexer"
	"github.com/aledsdavies/jsfront/runtime/parser"
)

func (a *app) lexCmd() *cobra.Command {
	var eol bool
	cmd := &cobra.Command{
		Use:   "lex [file]",
		Short: "Print the token stream of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, name, err := a.readSource(args)
			if err != nil {
				return err
			}
			logger.Phase(a.log, "lex", name)

			opts := []lexer.Opt{}
			if a.cfg.PermissiveReserved {
				opts = append(opts, lexer.WithPermissiveReserved())
			}
			lx := lexer.New(units, name, 1, opts...)
			lx.SetNewlineSignificant(eol)

			count := 0
			for {
				t := lx.NextToken()
				if t.Kind == token.EOF || t.Kind == token.ERROR {
					break
				}
				count++
				fmt.Fprintf(a.stdout, "%d:%d\t%s\n", t.Position.Line, t.Position.Column, t)
			}

			diags := lx.Diagnostics()
			a.printDiagnostics(diags.Errors, diags.Warnings)
			if diags.HasErrors() {
				return fmt.Errorf("%s: %d lexical error(s)", name, len(diags.Errors))
			}
			logger.PhaseComplete(a.log, "lex", name, count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&eol, "eol", false, "Report line breaks as EOL tokens")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	var (
		function string
		stats    bool
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the lowered tree of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []parser.ParserOpt
			if stats {
				extra = append(extra, parser.WithTelemetryTiming())
			}
			res, _, err := a.parse(args, extra...)
			if err != nil {
				return err
			}

			unit := res.Script
			if function != "" {
				if unit = findFunction(res.Script, function); unit == nil {
					return unknownFunction(function, functionNames(res.Script))
				}
			}
			fmt.Fprint(a.stdout, ir.DumpUnit(res.Tree, unit))

			if stats && res.Telemetry != nil {
				t := res.Telemetry
				fmt.Fprintf(a.stderr, "tokens %d, nodes %d, functions %d, warnings %d, time %v\n",
					t.TokenCount, t.NodeCount, t.FunctionCount, t.WarningCount, t.ParseTime)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&function, "function", "", "Print only the named function")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print parse statistics to stderr")
	return cmd
}

func (a *app) decompileCmd() *cobra.Command {
	var (
		function string
		body     bool
	)
	cmd := &cobra.Command{
		Use:   "decompile [file]",
		Short: "Regenerate formatted source from a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.parse(args)
			if err != nil {
				return err
			}

			unit := res.Script
			if function != "" {
				if unit = findFunction(res.Script, function); unit == nil {
					return unknownFunction(function, functionNames(res.Script))
				}
			}
			fmt.Fprint(a.stdout, a.decompile(unit.Source, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&function, "function", "", "Decompile only the named function")
	cmd.Flags().BoolVar(&body, "body", false, "Omit the function header and closing brace")
	return cmd
}

func (a *app) compileCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a script into a .jsir artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, name, err := a.parse(args)
			if err != nil {
				return err
			}

			if output == "" {
				if len(args) == 0 || args[0] == "-" {
					return fmt.Errorf("--output is required when reading stdin")
				}
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".jsir"
			}

			art := &artifact.Artifact{
				Version:    artifact.FormatVersion,
				Language:   a.cfg.LanguageVersion,
				SourceName: name,
				Script:     toArtifactUnit(res.Tree, res.Script),
			}
			var flags artifact.Flags
			if len(res.Warnings) > 0 {
				flags |= artifact.FlagWarnings
			}
			if a.cfg.PermissiveReserved {
				flags |= artifact.FlagPermissive
			}

			logger.Phase(a.log, "write", output)
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			hash, err := artifact.Write(f, art, flags)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.log.Info("artifact written", "output", output, "hash", hex.EncodeToString(hash[:]))
			fmt.Fprintf(a.stdout, "%s %s\n", hex.EncodeToString(hash[:8]), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: input with .jsir extension)")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		function string
		source   bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <file.jsir>",
		Short: "Show the contents of a .jsir artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, closeFunc, err := a.openInput(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = closeFunc() }()

			art, hdr, err := artifact.Read(reader)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			unit := &art.Script
			if function != "" {
				var ok bool
				if unit, ok = art.Find(function); !ok {
					return unknownFunction(function, art.FunctionNames())
				}
			}

			if source {
				fmt.Fprint(a.stdout, a.decompile(unit.Trace(), false))
				return nil
			}
			if function == "" {
				writeHeader(a.stdout, art, hdr)
			}
			fmt.Fprint(a.stdout, dumpArtifactUnit(unit))
			return nil
		},
	}
	cmd.Flags().StringVar(&function, "function", "", "Show only the named function")
	cmd.Flags().BoolVar(&source, "source", false, "Print decompiled source instead of the tree")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(a.cfg)
		},
	}
}

func writeHeader(w io.Writer, art *artifact.Artifact, hdr artifact.Header) {
	var flags []string
	if hdr.Flags&artifact.FlagWarnings != 0 {
		flags = append(flags, "warnings")
	}
	if hdr.Flags&artifact.FlagPermissive != 0 {
		flags = append(flags, "permissive")
	}
	fmt.Fprintf(w, "format %s\n", hdr.Version)
	if art.Language != "" {
		fmt.Fprintf(w, "language %s\n", art.Language)
	}
	fmt.Fprintf(w, "source %s\n", art.SourceName)
	if len(flags) > 0 {
		fmt.Fprintf(w, "flags %s\n", strings.Join(flags, ","))
	}
	fmt.Fprintf(w, "hash %s\n", hex.EncodeToString(hdr.Hash[:]))
}

// parse reads and parses the script named by args. Diagnostics go to
// stderr whether or not parsing succeeds.
func (a *app) parse(args []string, extra ...parser.ParserOpt) (*parser.Result, string, error) {
	units, name, err := a.readSource(args)
	if err != nil {
		return nil, "", err
	}
	logger.Phase(a.log, "parse", name)

	opts := append([]parser.ParserOpt{}, extra...)
	if a.cfg.PermissiveReserved {
		opts = append(opts, parser.WithPermissiveReserved())
	}
	if a.cfg.StrictWarnings {
		opts = append(opts, parser.WithStrictWarnings())
	}

	res, err := parser.Parse(units, name, 1, opts...)
	a.printDiagnostics(res.Errors, res.Warnings)
	if err != nil {
		return nil, name, fmt.Errorf("%s: %d syntax error(s)", name, len(res.Errors))
	}
	logger.PhaseComplete(a.log, "parse", name, res.Tree.Len())
	return res, name, nil
}

func (a *app) decompile(src *decompiler.Source, body bool) string {
	return decompiler.Decompile(src, body, 0, a.cfg.IndentUnit, a.cfg.CaseIndentUnit)
}

func (a *app) printDiagnostics(errs, warnings []lexer.Diagnostic) {
	for _, d := range warnings {
		a.printDiagnostic("warning", d)
		logger.Diagnostic(a.log, slog.LevelDebug, d.SourceName, d.Line, d.Column, d.Message)
	}
	for _, d := range errs {
		a.printDiagnostic("error", d)
		logger.Diagnostic(a.log, slog.LevelDebug, d.SourceName, d.Line, d.Column, d.Message)
	}
}

func (a *app) printDiagnostic(kind string, d lexer.Diagnostic) {
	fmt.Fprintf(a.stderr, "%s:%d:%d: %s: %s\n", d.SourceName, d.Line, d.Column, kind, d.Message)
	if d.LineText == "" {
		return
	}
	fmt.Fprintf(a.stderr, "  %s\n", d.LineText)
	if d.Column > 0 {
		fmt.Fprintf(a.stderr, "  %s^\n", strings.Repeat(" ", d.Column-1))
	}
}
