// Package parser is the grammar driver of the front end. It pulls tokens
// from the lexer and, in lock-step, builds the tree through ir.Builder and
// records the compact source trace through decompiler.Encoder.
package parser

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/decompiler"
	"github.com/aledsdavies/jsfront/runtime/ir"
	"github.com/aledsdavies/jsfront/runtime/lexer"
)

// ParserOpt configures a parse.
type ParserOpt func(*ParserConfig)

// TelemetryMode controls performance data collection.
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // No telemetry (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + timing
)

// DebugLevel controls debug event recording.
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Grammar entry/exit
	DebugDetailed                   // Entry/exit plus every consumed token
)

// ParserConfig holds parse options.
type ParserConfig struct {
	telemetry          TelemetryMode
	debug              DebugLevel
	reporter           lexer.Reporter
	permissiveReserved bool
	strictWarnings     bool
}

// WithTelemetryBasic enables counts.
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) { c.telemetry = TelemetryBasic }
}

// WithTelemetryTiming enables counts and timing.
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) { c.telemetry = TelemetryTiming }
}

// WithDebugPaths records grammar entry and exit events.
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) { c.debug = DebugPaths }
}

// WithDebugDetailed records grammar events and every consumed token.
func WithDebugDetailed() ParserOpt {
	return func(c *ParserConfig) { c.debug = DebugDetailed }
}

// WithReporter forwards every diagnostic to r as it is produced. The
// diagnostics are collected in the Result either way.
func WithReporter(r lexer.Reporter) ParserOpt {
	return func(c *ParserConfig) { c.reporter = r }
}

// WithPermissiveReserved accepts future reserved words as identifiers,
// with a warning.
func WithPermissiveReserved() ParserOpt {
	return func(c *ParserConfig) { c.permissiveReserved = true }
}

// WithStrictWarnings enables warnings for legal but suspicious code, such
// as an assignment used as a condition.
func WithStrictWarnings() ParserOpt {
	return func(c *ParserConfig) { c.strictWarnings = true }
}

// ParseTelemetry holds performance metrics for one parse.
type ParseTelemetry struct {
	TokenCount    int
	NodeCount     int
	FunctionCount int
	ErrorCount    int
	WarningCount  int
	ParseTime     time.Duration
}

// DebugEvent records one grammar step.
type DebugEvent struct {
	Timestamp time.Time
	Event     string
	Line      int
	Context   string
}

// Result is the output of a parse. Script is nil when there were errors.
type Result struct {
	Script      *ir.Unit
	Tree        *ir.Tree
	Errors      []lexer.Diagnostic
	Warnings    []lexer.Diagnostic
	Telemetry   *ParseTelemetry // nil if disabled
	DebugEvents []DebugEvent    // nil if disabled
}

// ErrSyntax is wrapped by the error Parse returns for invalid source.
var ErrSyntax = errors.New("syntax error")

// Parse compiles src, a sequence of UTF-16 code units, into a script unit.
// sourceName and lineno locate diagnostics. On syntax errors Parse keeps
// going to report as many as it can, then returns the result with every
// diagnostic and an error wrapping ErrSyntax.
func Parse(src []uint16, sourceName string, lineno int, opts ...ParserOpt) (*Result, error) {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var start time.Time
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	sink := &diagnosticSink{forward: config.reporter}
	lexOpts := []lexer.Opt{lexer.WithReporter(sink)}
	if config.permissiveReserved {
		lexOpts = append(lexOpts, lexer.WithPermissiveReserved())
	}
	if config.telemetry > TelemetryOff {
		lexOpts = append(lexOpts, lexer.WithTelemetryBasic())
	}

	p := &parser{
		lx:         lexer.New(src, sourceName, lineno, lexOpts...),
		b:          ir.NewBuilder(),
		enc:        decompiler.NewEncoder(),
		config:     config,
		sink:       sink,
		sourceName: sourceName,
	}
	if config.debug > DebugOff {
		p.debugEvents = make([]DebugEvent, 0, 64)
	}

	script := p.parse()

	result := &Result{
		Tree:        p.b.Tree,
		Errors:      sink.Errors,
		Warnings:    sink.Warnings,
		DebugEvents: p.debugEvents,
	}
	if config.telemetry > TelemetryOff {
		result.Telemetry = &ParseTelemetry{
			NodeCount:     p.b.Len(),
			FunctionCount: p.functionCount,
			ErrorCount:    len(sink.Errors),
			WarningCount:  len(sink.Warnings),
		}
		for _, t := range p.lx.GetTokenTelemetry() {
			result.Telemetry.TokenCount += t.Count
		}
		if config.telemetry >= TelemetryTiming {
			result.Telemetry.ParseTime = time.Since(start)
		}
	}

	if sink.HasErrors() {
		return result, fmt.Errorf("%w: %s", ErrSyntax, sink.Errors[0].Error())
	}
	result.Script = script
	return result, nil
}

// ParseString is Parse for Go strings.
func ParseString(src, sourceName string, opts ...ParserOpt) (*Result, error) {
	return Parse(utf16.Encode([]rune(src)), sourceName, 1, opts...)
}

// diagnosticSink collects diagnostics and forwards them to the caller's
// reporter, if any.
type diagnosticSink struct {
	lexer.Collector
	forward lexer.Reporter
}

func (s *diagnosticSink) Warning(d lexer.Diagnostic) {
	s.Collector.Warning(d)
	if s.forward != nil {
		s.forward.Warning(d)
	}
}

func (s *diagnosticSink) Error(d lexer.Diagnostic) {
	s.Collector.Error(d)
	if s.forward != nil {
		s.forward.Error(d)
	}
}

// parseError unwinds to the nearest statement after a syntax error has
// been reported.
type parseError struct{}

type labelEntry struct {
	name  string
	label ir.NodeID
}

// parser is the internal parser state
type parser struct {
	lx         *lexer.Lexer
	b          *ir.Builder
	enc        *decompiler.Encoder
	config     *ParserConfig
	sink       *diagnosticSink
	sourceName string

	// Per-function scopes of break and continue targets.
	loops      []ir.NodeID // LOOP nodes
	breakables []ir.NodeID // LOOP nodes and switch blocks
	labels     []labelEntry

	// pendingLabel is the LABEL of the statement about to be parsed.
	pendingLabel ir.NodeID

	functionCount int
	debugEvents   []DebugEvent
}

// recordDebugEvent records debug events when debug tracing is enabled
func (p *parser) recordDebugEvent(event, context string) {
	if p.config.debug == DebugOff || p.debugEvents == nil {
		return
	}
	p.debugEvents = append(p.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Line:      p.lx.Line(),
		Context:   context,
	})
}

// next consumes a token.
func (p *parser) next() lexer.Token {
	t := p.lx.NextToken()
	if p.config.debug >= DebugDetailed {
		p.recordDebugEvent("token", t.String())
	}
	return t
}

// peek returns the kind of the next token without consuming it.
func (p *parser) peek() token.Kind {
	return p.lx.PeekToken().Kind
}

// match consumes the next token if it has kind k.
func (p *parser) match(k token.Kind) bool {
	if p.lx.MatchToken(k) {
		if p.config.debug >= DebugDetailed {
			p.recordDebugEvent("token", k.String())
		}
		return true
	}
	return false
}

// mustMatch consumes a token of kind k or fails with msg.
func (p *parser) mustMatch(k token.Kind, msg string) lexer.Token {
	t := p.next()
	if t.Kind != k {
		p.fail(msg)
	}
	return t
}

// fail reports msg and abandons the current statement. An ERROR token was
// already reported by the lexer, so it is not reported twice.
func (p *parser) fail(msg string) {
	if p.lx.Current().Kind != token.ERROR {
		p.lx.ReportError(msg)
	}
	panic(parseError{})
}

func (p *parser) warn(msg string) {
	p.lx.ReportWarning(msg)
}

// guarded runs parse and, on a syntax error, skips to the end of the
// statement and returns a placeholder so parsing can continue and report
// further errors.
func (p *parser) guarded(parse func() ir.NodeID) (n ir.NodeID) {
	loops, breakables, labels := len(p.loops), len(p.breakables), len(p.labels)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(parseError); !ok {
			panic(r)
		}
		p.loops, p.breakables, p.labels = p.loops[:loops], p.breakables[:breakables], p.labels[:labels]
		p.pendingLabel = ir.Nil
		p.skipStatement()
		n = p.b.CreateExprStatementNoReturn(p.b.CreateName("error"), p.lx.Line())
	}()
	return parse()
}

func (p *parser) skipStatement() {
	saved := p.lx.NewlineSignificant()
	p.lx.SetNewlineSignificant(true)
	defer p.lx.SetNewlineSignificant(saved)
	for {
		switch p.lx.NextToken().Kind {
		case token.SEMI, token.EOL, token.EOF, token.ERROR:
			return
		}
	}
}

// parse parses the whole script.
func (p *parser) parse() *ir.Unit {
	p.recordDebugEvent("enter_script", p.sourceName)

	p.enc.StartScript()
	script := p.b.CreateScript(p.sourceName)
	script.BaseLine = p.lx.Line()
	p.b.Enter(script)

	body := p.b.CreateBlock(p.lx.Line())
	for {
		p.sourceElements(body)
		if p.next().Kind == token.EOF {
			break
		}
		// A stray "}" at top level.
		p.guarded(func() ir.NodeID {
			p.fail("syntax error")
			return ir.Nil
		})
	}

	p.b.InitScript(script, body)
	script.EndLine = p.lx.Line()
	script.Source = p.enc.StopScript()

	p.recordDebugEvent("exit_script", p.sourceName)
	return script
}

// sourceElements parses statements and function declarations up to "}" or
// the end of input.
func (p *parser) sourceElements(block ir.NodeID) {
	for {
		switch p.peek() {
		case token.EOF, token.RC:
			return
		case token.FUNCTION:
			p.b.AddChildToBack(block, p.guarded(func() ir.NodeID {
				p.next()
				return p.function(ir.FunctionStatement)
			}))
		default:
			p.b.AddChildToBack(block, p.statement())
		}
	}
}
