package lexer

import (
	"unicode"

	"github.com/aledsdavies/jsfront/core/token"
)

const eofChar = -1

func isDigit(c int) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c int) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// hexDigit accumulates c into acc as a hex digit, or returns -1 when c is
// not one.
func hexDigit(c, acc int) int {
	switch {
	case c >= '0' && c <= '9':
		return acc<<4 | (c - '0')
	case c >= 'a' && c <= 'f':
		return acc<<4 | (c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return acc<<4 | (c - 'A' + 10)
	}
	return -1
}

func isSpace(c int) bool {
	switch c {
	case ' ', '\t', '\f', '\v', 0xA0, 0xFEFF:
		return true
	}
	return c > 127 && unicode.Is(unicode.Zs, rune(c))
}

func isFormatChar(c int) bool {
	return c > 127 && c != 0xFEFF && unicode.Is(unicode.Cf, rune(c))
}

func isLineTerminator(c int) bool {
	return c == '\n' || c == '\r' || c == 0x2028 || c == 0x2029
}

func isIdentStart(c int) bool {
	if c < 128 {
		return isAlpha(c) || c == '$' || c == '_'
	}
	r := rune(c)
	return unicode.IsLetter(r) || unicode.In(r, unicode.Nl, unicode.Sc, unicode.Pc)
}

func isIdentPart(c int) bool {
	if c < 128 {
		return isAlpha(c) || isDigit(c) || c == '$' || c == '_'
	}
	r := rune(c)
	return isIdentStart(c) || unicode.In(r, unicode.Nd, unicode.Mn, unicode.Mc)
}

// keyword classifies s by length and a discriminating character, then
// confirms with a single comparison. Future reserved words map to RESERVED.
func keyword(s string) (token.Kind, bool) {
	var word string
	var kind token.Kind

	switch len(s) {
	case 2:
		switch s[1] {
		case 'o':
			word, kind = "do", token.DO
		case 'f':
			word, kind = "if", token.IF
		case 'n':
			word, kind = "in", token.IN
		}
	case 3:
		switch s[0] {
		case 'f':
			word, kind = "for", token.FOR
		case 'i':
			word, kind = "int", token.RESERVED
		case 'n':
			word, kind = "new", token.NEW
		case 't':
			word, kind = "try", token.TRY
		case 'v':
			word, kind = "var", token.VAR
		}
	case 4:
		switch s[0] {
		case 'b':
			word, kind = "byte", token.RESERVED
		case 'c':
			if s[1] == 'a' {
				word, kind = "case", token.CASE
			} else {
				word, kind = "char", token.RESERVED
			}
		case 'e':
			if s[1] == 'l' {
				word, kind = "else", token.ELSE
			} else {
				word, kind = "enum", token.RESERVED
			}
		case 'g':
			word, kind = "goto", token.RESERVED
		case 'l':
			word, kind = "long", token.RESERVED
		case 'n':
			word, kind = "null", token.NULL
		case 't':
			if s[1] == 'h' {
				word, kind = "this", token.THIS
			} else {
				word, kind = "true", token.TRUE
			}
		case 'v':
			word, kind = "void", token.VOID
		case 'w':
			word, kind = "with", token.WITH
		}
	case 5:
		switch s[0] {
		case 'b':
			word, kind = "break", token.BREAK
		case 'c':
			switch s[1] {
			case 'a':
				word, kind = "catch", token.CATCH
			case 'l':
				word, kind = "class", token.RESERVED
			case 'o':
				word, kind = "const", token.RESERVED
			}
		case 'f':
			switch s[1] {
			case 'a':
				word, kind = "false", token.FALSE
			case 'i':
				word, kind = "final", token.RESERVED
			case 'l':
				word, kind = "float", token.RESERVED
			}
		case 's':
			if s[1] == 'h' {
				word, kind = "short", token.RESERVED
			} else {
				word, kind = "super", token.RESERVED
			}
		case 't':
			word, kind = "throw", token.THROW
		case 'w':
			word, kind = "while", token.WHILE
		}
	case 6:
		switch s[0] {
		case 'd':
			if s[1] == 'e' {
				word, kind = "delete", token.DELPROP
			} else {
				word, kind = "double", token.RESERVED
			}
		case 'e':
			word, kind = "export", token.RESERVED
		case 'i':
			word, kind = "import", token.RESERVED
		case 'n':
			word, kind = "native", token.RESERVED
		case 'p':
			word, kind = "public", token.RESERVED
		case 'r':
			word, kind = "return", token.RETURN
		case 's':
			if s[1] == 't' {
				word, kind = "static", token.RESERVED
			} else {
				word, kind = "switch", token.SWITCH
			}
		case 't':
			if s[1] == 'h' {
				word, kind = "throws", token.RESERVED
			} else {
				word, kind = "typeof", token.TYPEOF
			}
		}
	case 7:
		switch s[0] {
		case 'b':
			word, kind = "boolean", token.RESERVED
		case 'd':
			word, kind = "default", token.DEFAULT
		case 'e':
			word, kind = "extends", token.RESERVED
		case 'f':
			word, kind = "finally", token.FINALLY
		case 'p':
			if s[2] == 'c' {
				word, kind = "package", token.RESERVED
			} else {
				word, kind = "private", token.RESERVED
			}
		}
	case 8:
		switch s[0] {
		case 'a':
			word, kind = "abstract", token.RESERVED
		case 'c':
			word, kind = "continue", token.CONTINUE
		case 'd':
			word, kind = "debugger", token.RESERVED
		case 'f':
			word, kind = "function", token.FUNCTION
		case 'v':
			word, kind = "volatile", token.RESERVED
		}
	case 9:
		switch s[0] {
		case 'i':
			word, kind = "interface", token.RESERVED
		case 'p':
			word, kind = "protected", token.RESERVED
		case 't':
			word, kind = "transient", token.RESERVED
		}
	case 10:
		if s[1] == 'm' {
			word, kind = "implements", token.RESERVED
		} else {
			word, kind = "instanceof", token.INSTANCEOF
		}
	case 12:
		word, kind = "synchronized", token.RESERVED
	}

	if word != "" && word == s {
		return kind, true
	}
	return token.ERROR, false
}

// Keywords lists every word the keyword table recognizes, reserved words
// included.
var Keywords = []string{
	"abstract", "boolean", "break", "byte", "case", "catch", "char", "class",
	"const", "continue", "debugger", "default", "delete", "do", "double",
	"else", "enum", "export", "extends", "false", "final", "finally", "float",
	"for", "function", "goto", "if", "implements", "import", "in",
	"instanceof", "int", "interface", "long", "native", "new", "null",
	"package", "private", "protected", "public", "return", "short", "static",
	"super", "switch", "synchronized", "this", "throw", "throws", "transient",
	"true", "try", "typeof", "var", "void", "volatile", "while", "with",
}
