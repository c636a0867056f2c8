// Package lexer turns 16-bit source code units into tokens.
//
// The lexer never panics on bad user input: it reports a diagnostic and
// returns an ERROR token, leaving the caller to decide whether to continue.
// Misuse of the API, such as pushing back two tokens, panics.
package lexer

import (
	"time"
	"unicode/utf16"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// Opt represents a lexer configuration option
type Opt func(*Config)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + timing per kind
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Method call tracing
	DebugDetailed                   // Character-level tracing
)

// Config holds lexer configuration
type Config struct {
	telemetry          TelemetryMode
	debug              DebugLevel
	reporter           Reporter
	permissiveReserved bool
}

// WithReporter sets the diagnostic sink. Without one, diagnostics are kept
// in an internal Collector available from Diagnostics.
func WithReporter(r Reporter) Opt {
	return func(c *Config) {
		c.reporter = r
	}
}

// WithPermissiveReserved scans future reserved words as identifiers, with a
// warning, instead of as RESERVED.
func WithPermissiveReserved() Opt {
	return func(c *Config) {
		c.permissiveReserved = true
	}
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() Opt {
	return func(c *Config) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per kind)
func WithTelemetryTiming() Opt {
	return func(c *Config) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() Opt {
	return func(c *Config) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() Opt {
	return func(c *Config) {
		c.debug = DebugDetailed
	}
}

// TokenTelemetry holds per-kind telemetry (production-safe)
type TokenTelemetry struct {
	Kind      token.Kind
	Count     int
	TotalTime time.Duration
	AvgTime   time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "enter_scanNumber", "found_keyword", ...
	Position  Position // Current lexer position
	Context   string
}

// Lexer scans one compilation's source. It is not safe for concurrent use.
type Lexer struct {
	src        []uint16
	sourceName string
	cursor     int
	hitEOF     bool

	// Line tracking. lineEndChar is the terminator just read, or -1; the
	// line number advances when the character after it is read.
	lineno      int
	lineStart   int
	lineEndChar int

	ungetBuf   [3]int
	ungetCount int

	// Scratch buffer for the token being built
	buf []uint16

	// dirtyLine is set once a token other than '-' appears on a line, which
	// disables "-->" comments for the rest of it.
	dirtyLine bool

	newlineSignificant bool
	regexpAllowed      bool
	permissiveReserved bool

	current Token
	pushed  bool
	// afterEOL is set when a line break was skipped before current.
	afterEOL bool

	interned map[string]string

	reporter  Reporter
	collector *Collector

	// Telemetry (nil when disabled for zero allocation)
	telemetryMode  TelemetryMode
	tokenTelemetry map[token.Kind]*TokenTelemetry

	// Debug (nil when disabled for zero allocation)
	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// New creates a lexer over src. sourceName and lineno are the origin used
// in diagnostics.
func New(src []uint16, sourceName string, lineno int, opts ...Opt) *Lexer {
	config := &Config{}
	for _, opt := range opts {
		opt(config)
	}

	l := &Lexer{
		src:                src,
		sourceName:         sourceName,
		lineno:             lineno,
		lineEndChar:        -1,
		buf:                make([]uint16, 0, 64),
		interned:           make(map[string]string),
		permissiveReserved: config.permissiveReserved,
		reporter:           config.reporter,
		telemetryMode:      config.telemetry,
		debugLevel:         config.debug,
	}
	if l.reporter == nil {
		l.collector = &Collector{}
		l.reporter = l.collector
	}

	// Only allocate telemetry structures when needed
	if config.telemetry > TelemetryOff {
		l.tokenTelemetry = make(map[token.Kind]*TokenTelemetry)
	}

	// Only allocate debug structures when needed
	if config.debug > DebugOff {
		l.debugEvents = make([]DebugEvent, 0, 256)
	}

	return l
}

// NewFromString creates a lexer over the UTF-16 encoding of src.
func NewFromString(src, sourceName string, lineno int, opts ...Opt) *Lexer {
	return New(utf16.Encode([]rune(src)), sourceName, lineno, opts...)
}

// SetNewlineSignificant makes NextToken return EOL at line breaks.
func (l *Lexer) SetNewlineSignificant(on bool) {
	l.newlineSignificant = on
}

// NewlineSignificant reports whether EOL tokens are being returned.
func (l *Lexer) NewlineSignificant() bool {
	return l.newlineSignificant
}

// SetRegExpAllowed tells the lexer whether a '/' at the current point can
// start a regular expression literal rather than a division.
func (l *Lexer) SetRegExpAllowed(on bool) {
	l.regexpAllowed = on
}

// SourceName returns the name used in diagnostics.
func (l *Lexer) SourceName() string {
	return l.sourceName
}

// Line returns the current line number.
func (l *Lexer) Line() int {
	return l.lineno
}

// Column returns the 1-based column of the scan position on the current line.
func (l *Lexer) Column() int {
	n := l.cursor - l.lineStart
	if l.lineEndChar >= 0 {
		n--
	}
	return n + 1
}

// LineText returns the text of the current line.
func (l *Lexer) LineText() string {
	end := l.cursor
	if l.lineEndChar >= 0 {
		end--
	} else {
		for end < len(l.src) && !isLineTerminator(int(l.src[end])) {
			end++
		}
	}
	if end < l.lineStart {
		end = l.lineStart
	}
	return string(utf16.Decode(l.src[l.lineStart:end]))
}

// Eof reports whether the end of input has been reached.
func (l *Lexer) Eof() bool {
	return l.hitEOF
}

// Diagnostics returns the internal collector, or nil when a reporter was
// supplied with WithReporter.
func (l *Lexer) Diagnostics() *Collector {
	return l.collector
}

// ReportError reports msg at the current position. The parser uses it for
// syntax errors so they share the lexer's position tracking.
func (l *Lexer) ReportError(msg string) {
	l.reporter.Error(l.diagnostic(msg))
}

// ReportWarning reports msg at the current position as a warning.
func (l *Lexer) ReportWarning(msg string) {
	l.reporter.Warning(l.diagnostic(msg))
}

func (l *Lexer) diagnostic(msg string) Diagnostic {
	return Diagnostic{
		Message:    msg,
		SourceName: l.sourceName,
		Line:       l.lineno,
		LineText:   l.LineText(),
		Column:     l.Column(),
	}
}

// NextToken returns the next token, or the pushed back one.
func (l *Lexer) NextToken() Token {
	if l.pushed {
		if l.newlineSignificant && l.afterEOL && l.current.Kind != token.EOL {
			// The pushed token was scanned past a line break.
			l.afterEOL = false
			return Token{Kind: token.EOL, Position: l.current.Position}
		}
		l.pushed = false
		if l.current.Kind != token.EOL || l.newlineSignificant {
			return l.current
		}
	}

	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	t := l.scan()

	if l.telemetryMode > TelemetryOff {
		var elapsed time.Duration
		if l.telemetryMode >= TelemetryTiming {
			elapsed = time.Since(start)
		}
		l.recordTokenTelemetry(t.Kind, elapsed)
	}

	l.current = t
	return t
}

// UngetToken pushes the last token back. Only one token can be pending.
func (l *Lexer) UngetToken() {
	invariant.Precondition(!l.pushed, "token %s already pushed back", l.current)
	l.pushed = true
}

// PeekToken returns the next token without consuming it.
func (l *Lexer) PeekToken() Token {
	t := l.NextToken()
	l.UngetToken()
	return t
}

// PeekTokenSameLine is PeekToken with newlines significant, so a line break
// shows up as EOL.
func (l *Lexer) PeekTokenSameLine() Token {
	if l.pushed && l.afterEOL && l.current.Kind != token.EOL {
		return Token{Kind: token.EOL, Position: l.current.Position}
	}
	saved := l.newlineSignificant
	l.newlineSignificant = true
	t := l.PeekToken()
	l.newlineSignificant = saved
	return t
}

// MatchToken consumes the next token if it has kind k.
func (l *Lexer) MatchToken(k token.Kind) bool {
	t := l.NextToken()
	if t.Kind == k {
		return true
	}
	l.UngetToken()
	return false
}

// Current returns the most recently returned token.
func (l *Lexer) Current() Token {
	return l.current
}

// GetTokenTelemetry returns per-kind telemetry (production safe)
func (l *Lexer) GetTokenTelemetry() map[token.Kind]*TokenTelemetry {
	if l.telemetryMode == TelemetryOff || l.tokenTelemetry == nil {
		return nil
	}

	// Return a copy to prevent external modification
	result := make(map[token.Kind]*TokenTelemetry, len(l.tokenTelemetry))
	for k, v := range l.tokenTelemetry {
		telemetryCopy := *v
		result[k] = &telemetryCopy
	}
	return result
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return nil
	}

	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

func (l *Lexer) recordTokenTelemetry(kind token.Kind, elapsed time.Duration) {
	telemetry, exists := l.tokenTelemetry[kind]
	if !exists {
		telemetry = &TokenTelemetry{
			Kind:    kind,
			MinTime: elapsed,
			MaxTime: elapsed,
		}
		l.tokenTelemetry[kind] = telemetry
	}

	telemetry.Count++

	if l.telemetryMode >= TelemetryTiming {
		telemetry.TotalTime += elapsed
		telemetry.AvgTime = telemetry.TotalTime / time.Duration(telemetry.Count)
		if elapsed < telemetry.MinTime {
			telemetry.MinTime = elapsed
		}
		if elapsed > telemetry.MaxTime {
			telemetry.MaxTime = elapsed
		}
	}
}

func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return
	}

	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  Position{Line: l.lineno, Column: l.Column(), Offset: l.cursor},
		Context:   context,
	})
}

// getChar returns the next code unit, folding every line terminator to
// '\n' and dropping format control characters.
func (l *Lexer) getChar() int {
	if l.ungetCount > 0 {
		l.ungetCount--
		return l.ungetBuf[l.ungetCount]
	}

	for {
		if l.cursor == len(l.src) {
			l.hitEOF = true
			return eofChar
		}
		c := int(l.src[l.cursor])
		l.cursor++

		if l.lineEndChar >= 0 {
			if l.lineEndChar == '\r' && c == '\n' {
				l.lineEndChar = '\n'
				continue
			}
			l.lineEndChar = -1
			l.lineStart = l.cursor - 1
			l.lineno++
		}

		if c <= 127 {
			if c == '\n' || c == '\r' {
				l.lineEndChar = c
				c = '\n'
			}
		} else {
			if isFormatChar(c) {
				continue
			}
			if isLineTerminator(c) {
				l.lineEndChar = c
				c = '\n'
			}
		}
		return c
	}
}

// ungetChar pushes c back. More than three pending characters is a bug.
func (l *Lexer) ungetChar(c int) {
	invariant.Precondition(l.ungetCount < len(l.ungetBuf), "unget buffer overflow")
	l.ungetBuf[l.ungetCount] = c
	l.ungetCount++
}

func (l *Lexer) matchChar(test int) bool {
	c := l.getChar()
	if c == test {
		return true
	}
	l.ungetChar(c)
	return false
}

func (l *Lexer) peekChar() int {
	c := l.getChar()
	l.ungetChar(c)
	return c
}

func (l *Lexer) skipLine() {
	c := l.getChar()
	for c != eofChar && c != '\n' {
		c = l.getChar()
	}
	l.ungetChar(c)
}

func (l *Lexer) addToBuf(c int) {
	l.buf = append(l.buf, uint16(c))
}

func (l *Lexer) bufString() string {
	s := string(utf16.Decode(l.buf))
	if interned, ok := l.interned[s]; ok {
		return interned
	}
	l.interned[s] = s
	return s
}

// position returns the position of the character most recently read.
func (l *Lexer) position() Position {
	offset := l.cursor - 1 - l.ungetCount
	if offset < 0 {
		offset = 0
	}
	col := offset - l.lineStart + 1
	if col < 1 {
		col = 1
	}
	return Position{Line: l.lineno, Column: col, Offset: offset}
}

// endPosition is the position just past the last character.
func (l *Lexer) endPosition() Position {
	return Position{Line: l.lineno, Column: l.cursor - l.lineStart + 1, Offset: l.cursor}
}
