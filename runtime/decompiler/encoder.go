// Package decompiler records a compact token trace of each script and
// function as it is parsed, and turns that trace back into formatted source
// text on demand.
//
// A trace is a sequence of 16-bit units. Most units are a token.Kind. NAME,
// STRING and REGEXP are followed by a length-prefixed string, NUMBER by a
// type tag and its value, ASSIGNOP by the operator kind, and a nested
// function by FUNCTION and its index in Source.Functions.
package decompiler

import (
	"math"
	"unicode/utf16"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// Number type tags.
const (
	tagShort  = 'S'
	tagLong   = 'J'
	tagDouble = 'D'
)

// Source is one closed script or function trace. Functions holds the traces
// of the functions nested directly inside it, indexed by the unit that
// follows their FUNCTION reference.
type Source struct {
	Units     []uint16
	Functions []*Source
}

// IsFunction reports whether the trace is a function rather than a script.
func (s *Source) IsFunction() bool {
	return len(s.Units) > 0 && token.Kind(s.Units[0]) == token.FUNCTION
}

// frame is one open recording session.
type frame struct {
	mark      int
	index     int
	functions []*Source
}

// Encoder appends the trace of the construct currently being recognized.
// One Encoder belongs to one compilation.
type Encoder struct {
	buf    []uint16
	frames []frame
}

// NewEncoder returns an encoder with no open session.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]uint16, 0, 128)}
}

// StartScript opens the outermost session.
func (e *Encoder) StartScript() {
	invariant.Precondition(len(e.frames) == 0, "script session must be outermost")
	e.buf = e.buf[:0]
	e.frames = append(e.frames, frame{mark: 0, index: -1})
	e.AddToken(token.SCRIPT)
}

// StopScript closes the outermost session and returns its trace.
func (e *Encoder) StopScript() *Source {
	invariant.Precondition(len(e.frames) == 1, "StopScript with %d open sessions", len(e.frames))
	f := e.frames[0]
	invariant.Invariant(f.index == -1, "outermost session is not a script")
	e.frames = e.frames[:0]
	src := &Source{Units: append([]uint16(nil), e.buf...), Functions: f.functions}
	e.buf = e.buf[:0]
	return src
}

// StartFunction records a reference to nested function index in the
// current session and opens a session for the function itself. The
// returned mark must be passed to StopFunction.
func (e *Encoder) StartFunction(index int) int {
	invariant.Precondition(len(e.frames) > 0, "StartFunction outside any session")
	invariant.Precondition(index >= 0 && index <= math.MaxUint16, "function index %d out of range", index)

	e.AddToken(token.FUNCTION)
	e.buf = append(e.buf, uint16(index))

	mark := len(e.buf)
	e.frames = append(e.frames, frame{mark: mark, index: index})
	e.AddToken(token.FUNCTION)
	return mark
}

// StopFunction closes the innermost function session, rolls the buffer back
// to mark and returns the function's trace. The trace also becomes entry
// index of the enclosing session's Functions.
func (e *Encoder) StopFunction(mark int) *Source {
	invariant.Precondition(len(e.frames) > 1, "StopFunction without an open function")
	f := e.frames[len(e.frames)-1]
	invariant.Precondition(f.mark == mark, "StopFunction mark %d does not match open session %d", mark, f.mark)
	invariant.Precondition(mark <= len(e.buf), "mark %d beyond buffer end %d", mark, len(e.buf))

	src := &Source{Units: append([]uint16(nil), e.buf[mark:]...), Functions: f.functions}
	e.buf = e.buf[:mark]
	e.frames = e.frames[:len(e.frames)-1]

	parent := &e.frames[len(e.frames)-1]
	for len(parent.functions) <= f.index {
		parent.functions = append(parent.functions, nil)
	}
	invariant.Invariant(parent.functions[f.index] == nil, "function index %d recorded twice", f.index)
	parent.functions[f.index] = src
	return src
}

// Len returns the number of units recorded so far across open sessions.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// AddToken appends a single token unit.
func (e *Encoder) AddToken(k token.Kind) {
	invariant.Precondition(k.IsEncodable(), "token %s cannot be encoded", k)
	e.buf = append(e.buf, uint16(k))
}

// AddEOL appends k followed by a line break.
func (e *Encoder) AddEOL(k token.Kind) {
	e.AddToken(k)
	e.AddToken(token.EOL)
}

// AddAssignOp appends a compound assignment with operator op, such as ADD
// for "+=".
func (e *Encoder) AddAssignOp(op token.Kind) {
	_, ok := assignOps[op]
	invariant.Precondition(ok, "%s is not a compound assignment operator", op)
	e.AddToken(token.ASSIGNOP)
	e.buf = append(e.buf, uint16(op))
}

// AddName appends an identifier.
func (e *Encoder) AddName(name string) {
	e.AddToken(token.NAME)
	e.appendString(utf16.Encode([]rune(name)))
}

// AddString appends a string literal's value.
func (e *Encoder) AddString(s string) {
	e.AddToken(token.STRING)
	e.appendString(utf16.Encode([]rune(s)))
}

// AddStringUnits appends a string literal given as raw code units, keeping
// unpaired surrogates intact.
func (e *Encoder) AddStringUnits(units []uint16) {
	e.AddToken(token.STRING)
	e.appendString(units)
}

// AddRegexp appends a regular expression literal.
func (e *Encoder) AddRegexp(pattern, flags string) {
	e.AddToken(token.REGEXP)
	e.appendString(utf16.Encode([]rune("/" + pattern + "/" + flags)))
}

// AddNumber appends a non-negative number literal. Negative literals are
// recorded as NEG followed by their magnitude.
func (e *Encoder) AddNumber(n float64) {
	invariant.Precondition(!(n < 0), "negative number %v must be encoded through NEG", n)
	e.AddToken(token.NUMBER)

	if math.IsNaN(n) || n >= 1<<63 || math.Signbit(n) || n != math.Trunc(n) {
		e.appendLong(tagDouble, math.Float64bits(n))
		return
	}
	lbits := int64(n)
	if lbits <= math.MaxUint16 {
		e.buf = append(e.buf, tagShort, uint16(lbits))
		return
	}
	e.appendLong(tagLong, uint64(lbits))
}

func (e *Encoder) appendLong(tag uint16, bits uint64) {
	e.buf = append(e.buf, tag,
		uint16(bits>>48), uint16(bits>>32), uint16(bits>>16), uint16(bits))
}

func (e *Encoder) appendString(units []uint16) {
	n := len(units)
	invariant.Precondition(n <= math.MaxInt32, "string of %d units is too long to encode", n)
	if n >= 0x8000 {
		e.buf = append(e.buf, uint16(0x8000|(n>>16)))
	}
	e.buf = append(e.buf, uint16(n))
	e.buf = append(e.buf, units...)
}
