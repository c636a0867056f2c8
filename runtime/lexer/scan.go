package lexer

import (
	"math/big"
	"strconv"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// scan performs the actual tokenization work
func (l *Lexer) scan() Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_scan", "starting tokenization")
	}
	l.afterEOL = false

	for {
		// Eat whitespace, possibly sensitive to newlines.
		var c int
		for {
			c = l.getChar()
			if c == eofChar {
				return Token{Kind: token.EOF, Position: l.endPosition()}
			}
			if c == '\n' {
				l.dirtyLine = false
				if l.newlineSignificant {
					return Token{Kind: token.EOL, Position: l.position()}
				}
				l.afterEOL = true
				continue
			}
			if !isSpace(c) {
				if c != '-' {
					l.dirtyLine = true
				}
				break
			}
		}

		start := l.position()
		if l.debugLevel >= DebugDetailed {
			l.recordDebugEvent("current_char", string(rune(c)))
		}

		// Identifier, possibly starting with a \u escape
		if c == '\\' {
			n := l.getChar()
			if n == 'u' {
				return l.scanIdentifier(start, -1)
			}
			l.ungetChar(n)
		} else if isIdentStart(c) {
			return l.scanIdentifier(start, c)
		}

		if isDigit(c) || (c == '.' && isDigit(l.peekChar())) {
			return l.scanNumber(start, c)
		}

		if c == '"' || c == '\'' {
			return l.scanString(start, c)
		}

		t, retry := l.scanOperator(start, c)
		if !retry {
			return t
		}
	}
}

// scanIdentifier reads an identifier or keyword. first is its first
// character, or -1 when it started with a \u escape whose "\u" has been
// consumed.
func (l *Lexer) scanIdentifier(start Position, first int) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_scanIdentifier", "reading identifier/keyword")
	}
	l.buf = l.buf[:0]

	inEscape := first < 0
	containsEscape := inEscape
	if !inEscape {
		l.addToBuf(first)
	}

	var c int
	for {
		if inEscape {
			v := 0
			for i := 0; i < 4; i++ {
				c = l.getChar()
				if v = hexDigit(c, v); v < 0 {
					break
				}
			}
			if v < 0 {
				l.errorAt(start, "invalid Unicode escape sequence")
				return Token{Kind: token.ERROR, Position: start}
			}
			l.addToBuf(v)
			inEscape = false
			continue
		}

		c = l.getChar()
		if c == '\\' {
			if l.getChar() != 'u' {
				l.errorAt(start, "illegal character")
				return Token{Kind: token.ERROR, Position: start}
			}
			inEscape = true
			containsEscape = true
			continue
		}
		if c == eofChar || !isIdentPart(c) {
			break
		}
		l.addToBuf(c)
	}
	l.ungetChar(c)

	text := l.bufString()
	if !containsEscape {
		if kind, ok := keyword(text); ok {
			if l.debugLevel > DebugOff {
				l.recordDebugEvent("found_keyword", text)
			}
			if kind != token.RESERVED || !l.permissiveReserved {
				return Token{Kind: kind, Text: text, Position: start}
			}
			l.warningAt(start, "identifier is a reserved word: "+text)
		}
	}
	return Token{Kind: token.NAME, Text: text, Position: start}
}

func (l *Lexer) scanNumber(start Position, c int) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_scanNumber", "reading numeric literal")
	}
	l.buf = l.buf[:0]
	base := 10

	if c == '0' {
		c = l.getChar()
		switch {
		case c == 'x' || c == 'X':
			base = 16
			c = l.getChar()
		case isDigit(c):
			base = 8
		default:
			l.addToBuf('0')
		}
	}

	if base == 16 {
		for hexDigit(c, 0) >= 0 {
			l.addToBuf(c)
			c = l.getChar()
		}
	} else {
		for isDigit(c) {
			// 08 and 09 are accepted as decimal, with a warning.
			if base == 8 && c >= '8' {
				l.warningAt(start, "illegal octal literal digit "+string(rune(c))+"; interpreting it as a decimal digit")
				base = 10
			}
			l.addToBuf(c)
			c = l.getChar()
		}
	}

	isInteger := true
	if base == 10 && (c == '.' || c == 'e' || c == 'E') {
		isInteger = false
		if c == '.' {
			for {
				l.addToBuf(c)
				c = l.getChar()
				if !isDigit(c) {
					break
				}
			}
		}
		if c == 'e' || c == 'E' {
			l.addToBuf(c)
			c = l.getChar()
			if c == '+' || c == '-' {
				l.addToBuf(c)
				c = l.getChar()
			}
			if !isDigit(c) {
				l.ungetChar(c)
				l.errorAt(start, "missing exponent")
				return Token{Kind: token.ERROR, Position: start}
			}
			for isDigit(c) {
				l.addToBuf(c)
				c = l.getChar()
			}
		}
	}
	l.ungetChar(c)

	text := string(utf16Bytes(l.buf))
	if base == 16 && text == "" {
		l.errorAt(start, "missing hexadecimal digits after 0x")
		return Token{Kind: token.ERROR, Position: start}
	}

	var value float64
	if isInteger {
		value = integerValue(text, base)
	} else {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil && !isRangeError(err) {
			l.errorAt(start, "malformed number "+text)
			return Token{Kind: token.ERROR, Position: start}
		}
		value = v
	}
	return Token{Kind: token.NUMBER, Number: value, Text: text, Position: start}
}

// integerValue converts digits in base to the nearest float64.
func integerValue(digits string, base int) float64 {
	if u, err := strconv.ParseUint(digits, base, 64); err == nil {
		return float64(u)
	}
	n, ok := new(big.Int).SetString(digits, base)
	invariant.Invariant(ok, "scanned digits %q are not base %d", digits, base)
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// utf16Bytes narrows an ASCII-only buffer.
func utf16Bytes(units []uint16) []byte {
	out := make([]byte, len(units))
	for i, u := range units {
		out[i] = byte(u)
	}
	return out
}

func (l *Lexer) scanString(start Position, quote int) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_scanString", string(rune(quote)))
	}
	l.buf = l.buf[:0]

	c := l.getChar()
	for c != quote {
		if c == '\n' || c == eofChar {
			l.ungetChar(c)
			l.errorAt(start, "unterminated string literal")
			return Token{Kind: token.ERROR, Position: start}
		}

		if c == '\\' {
			c = l.getChar()
			switch c {
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'v':
				c = '\v'

			case 'u':
				// Without four hex digits the escape stays literal: 'u'
				// plus whatever followed.
				escapeStart := len(l.buf)
				l.addToBuf('u')
				v := 0
				complete := true
				for i := 0; i < 4; i++ {
					c = l.getChar()
					if v = hexDigit(c, v); v < 0 {
						complete = false
						break
					}
					l.addToBuf(c)
				}
				if !complete {
					continue
				}
				l.buf = l.buf[:escapeStart]
				c = v

			case 'x':
				c = l.getChar()
				v := hexDigit(c, 0)
				if v < 0 {
					l.addToBuf('x')
					continue
				}
				c1 := c
				c = l.getChar()
				if v = hexDigit(c, v); v < 0 {
					l.addToBuf('x')
					l.addToBuf(c1)
					continue
				}
				c = v

			case '\n':
				// Line continuation
				c = l.getChar()
				continue

			case eofChar:
				l.ungetChar(c)
				l.errorAt(start, "unterminated string literal")
				return Token{Kind: token.ERROR, Position: start}

			default:
				if c >= '0' && c < '8' {
					v := c - '0'
					c = l.getChar()
					if c >= '0' && c < '8' {
						v = 8*v + c - '0'
						c = l.getChar()
						// A third digit only while the value stays <= 0377.
						if c >= '0' && c < '8' && v <= 037 {
							v = 8*v + c - '0'
							c = l.getChar()
						}
					}
					l.ungetChar(c)
					c = v
				}
			}
		}
		l.addToBuf(c)
		c = l.getChar()
	}

	units := append([]uint16(nil), l.buf...)
	return Token{Kind: token.STRING, Text: l.bufString(), Units: units, Position: start}
}

// ReadRegExp rescans a DIV or "/=" token as a regular expression literal.
// The driver calls it where a '/' cannot be a division.
func (l *Lexer) ReadRegExp(start Token) Token {
	invariant.Precondition(!l.pushed, "ReadRegExp with a pushed back token")
	prefix := start.Kind == token.ASSIGNOP && start.Op == token.DIV
	invariant.Precondition(start.Kind == token.DIV || prefix, "ReadRegExp after %s", start)

	t := l.scanRegExp(start.Position, prefix)
	l.current = t
	return t
}

func (l *Lexer) scanRegExp(start Position, assignPrefix bool) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_scanRegExp", "reading regular expression")
	}
	l.buf = l.buf[:0]
	if assignPrefix {
		l.addToBuf('=')
	}

	for c := l.getChar(); c != '/'; c = l.getChar() {
		if c == '\\' {
			l.addToBuf(c)
			c = l.getChar()
		}
		if c == '\n' || c == eofChar {
			l.ungetChar(c)
			l.errorAt(start, "unterminated regular expression literal")
			return Token{Kind: token.ERROR, Position: start}
		}
		l.addToBuf(c)
	}
	pattern := l.bufString()

	l.buf = l.buf[:0]
scanFlags:
	for {
		switch {
		case l.matchChar('g'):
			l.addToBuf('g')
		case l.matchChar('i'):
			l.addToBuf('i')
		case l.matchChar('m'):
			l.addToBuf('m')
		default:
			break scanFlags
		}
	}
	flags := string(utf16Bytes(l.buf))

	if isAlpha(l.peekChar()) {
		l.errorAt(start, "invalid flag after regular expression")
		return Token{Kind: token.ERROR, Position: start}
	}
	return Token{Kind: token.REGEXP, Text: pattern, Flags: flags, Position: start}
}

// scanOperator handles punctuation and comments. retry is true when a
// comment was skipped and scanning must start again.
func (l *Lexer) scanOperator(start Position, c int) (Token, bool) {
	simple := func(k token.Kind) (Token, bool) {
		return Token{Kind: k, Position: start}, false
	}
	assignOp := func(op token.Kind) (Token, bool) {
		return Token{Kind: token.ASSIGNOP, Op: op, Position: start}, false
	}

	switch c {
	case ';':
		return simple(token.SEMI)
	case '[':
		return simple(token.LB)
	case ']':
		return simple(token.RB)
	case '{':
		return simple(token.LC)
	case '}':
		return simple(token.RC)
	case '(':
		return simple(token.LP)
	case ')':
		return simple(token.RP)
	case ',':
		return simple(token.COMMA)
	case '?':
		return simple(token.HOOK)
	case ':':
		return simple(token.COLON)
	case '.':
		return simple(token.DOT)
	case '~':
		return simple(token.BITNOT)

	case '|':
		if l.matchChar('|') {
			return simple(token.OR)
		} else if l.matchChar('=') {
			return assignOp(token.BITOR)
		}
		return simple(token.BITOR)

	case '^':
		if l.matchChar('=') {
			return assignOp(token.BITXOR)
		}
		return simple(token.BITXOR)

	case '&':
		if l.matchChar('&') {
			return simple(token.AND)
		} else if l.matchChar('=') {
			return assignOp(token.BITAND)
		}
		return simple(token.BITAND)

	case '=':
		if l.matchChar('=') {
			if l.matchChar('=') {
				return simple(token.SHEQ)
			}
			return simple(token.EQ)
		}
		return simple(token.ASSIGN)

	case '!':
		if l.matchChar('=') {
			if l.matchChar('=') {
				return simple(token.SHNE)
			}
			return simple(token.NE)
		}
		return simple(token.NOT)

	case '<':
		// "<!--" comments out the rest of the line.
		if l.matchChar('!') {
			if l.matchChar('-') {
				if l.matchChar('-') {
					l.skipLine()
					return Token{}, true
				}
				l.ungetChar('-')
			}
			l.ungetChar('!')
		}
		if l.matchChar('<') {
			if l.matchChar('=') {
				return assignOp(token.LSH)
			}
			return simple(token.LSH)
		}
		if l.matchChar('=') {
			return simple(token.LE)
		}
		return simple(token.LT)

	case '>':
		if l.matchChar('>') {
			if l.matchChar('>') {
				if l.matchChar('=') {
					return assignOp(token.URSH)
				}
				return simple(token.URSH)
			}
			if l.matchChar('=') {
				return assignOp(token.RSH)
			}
			return simple(token.RSH)
		}
		if l.matchChar('=') {
			return simple(token.GE)
		}
		return simple(token.GT)

	case '*':
		if l.matchChar('=') {
			return assignOp(token.MUL)
		}
		return simple(token.MUL)

	case '/':
		if l.matchChar('/') {
			l.skipLine()
			return Token{}, true
		}
		if l.matchChar('*') {
			lookForSlash := false
			for {
				c = l.getChar()
				switch {
				case c == eofChar:
					l.errorAt(start, "unterminated comment")
					return simple(token.ERROR)
				case c == '*':
					lookForSlash = true
				case c == '/' && lookForSlash:
					return Token{}, true
				default:
					lookForSlash = false
				}
			}
		}
		if l.regexpAllowed {
			return l.scanRegExp(start, false), false
		}
		if l.matchChar('=') {
			return assignOp(token.DIV)
		}
		return simple(token.DIV)

	case '%':
		if l.matchChar('=') {
			return assignOp(token.MOD)
		}
		return simple(token.MOD)

	case '+':
		if l.matchChar('=') {
			return assignOp(token.ADD)
		} else if l.matchChar('+') {
			return simple(token.INC)
		}
		return simple(token.ADD)

	case '-':
		if l.matchChar('=') {
			l.dirtyLine = true
			return assignOp(token.SUB)
		}
		if l.matchChar('-') {
			// "-->" at the start of a line comments out the rest of it.
			if !l.dirtyLine && l.matchChar('>') {
				l.skipLine()
				return Token{}, true
			}
			l.dirtyLine = true
			return simple(token.DEC)
		}
		l.dirtyLine = true
		return simple(token.SUB)
	}

	l.errorAt(start, "illegal character")
	return simple(token.ERROR)
}

func (l *Lexer) errorAt(pos Position, msg string) {
	d := l.diagnostic(msg)
	d.Line, d.Column = pos.Line, pos.Column
	l.reporter.Error(d)
}

func (l *Lexer) warningAt(pos Position, msg string) {
	d := l.diagnostic(msg)
	d.Line, d.Column = pos.Line, pos.Column
	l.reporter.Warning(d)
}
