package decompiler

import (
	"math"
	"strings"
	"unicode/utf16"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/numconv"
	"github.com/aledsdavies/jsfront/core/token"
)

// Default layout used by callers that have no configuration.
const (
	DefaultIndentUnit     = 4
	DefaultCaseIndentUnit = 2
)

var assignOps = map[token.Kind]string{
	token.BITOR:  "|",
	token.BITXOR: "^",
	token.BITAND: "&",
	token.LSH:    "<<",
	token.RSH:    ">>",
	token.URSH:   ">>>",
	token.ADD:    "+",
	token.SUB:    "-",
	token.MUL:    "*",
	token.DIV:    "/",
	token.MOD:    "%",
}

// Fixed renderings of tokens that print the same text wherever they appear.
var tokenText = map[token.Kind]string{
	token.TRUE:       "true",
	token.FALSE:      "false",
	token.NULL:       "null",
	token.THIS:       "this",
	token.COMMA:      ", ",
	token.LP:         "(",
	token.LB:         "[",
	token.RB:         "]",
	token.DOT:        ".",
	token.NEW:        "new ",
	token.DELPROP:    "delete ",
	token.ELSE:       "else ",
	token.FOR:        "for ",
	token.IN:         " in ",
	token.WITH:       "with ",
	token.WHILE:      "while ",
	token.DO:         "do ",
	token.TRY:        "try ",
	token.CATCH:      "catch ",
	token.FINALLY:    "finally ",
	token.THROW:      "throw ",
	token.SWITCH:     "switch ",
	token.CASE:       "case ",
	token.DEFAULT:    "default",
	token.VAR:        "var ",
	token.ASSIGN:     " = ",
	token.HOOK:       " ? ",
	token.PROPCOLON:  ":",
	token.OR:         " || ",
	token.AND:        " && ",
	token.BITOR:      " | ",
	token.BITXOR:     " ^ ",
	token.BITAND:     " & ",
	token.SHEQ:       " === ",
	token.SHNE:       " !== ",
	token.EQ:         " == ",
	token.NE:         " != ",
	token.LE:         " <= ",
	token.LT:         " < ",
	token.GE:         " >= ",
	token.GT:         " > ",
	token.INSTANCEOF: " instanceof ",
	token.LSH:        " << ",
	token.RSH:        " >> ",
	token.URSH:       " >>> ",
	token.TYPEOF:     "typeof ",
	token.VOID:       "void ",
	token.NOT:        "!",
	token.BITNOT:     "~",
	token.POS:        "+",
	token.NEG:        "-",
	token.INC:        "++",
	token.DEC:        "--",
	token.ADD:        " + ",
	token.SUB:        " - ",
	token.MUL:        " * ",
	token.DIV:        " / ",
	token.MOD:        " % ",
}

// Decompile renders src as formatted source text.
//
// indent is the initial indentation in spaces, indentUnit the indentation
// added per block level and caseIndentUnit the indentation of case and
// default labels inside a switch. With justBody set, a function's header and
// closing brace are omitted. Decompile panics if src is not a trace produced
// by an Encoder.
func Decompile(src *Source, justBody bool, indent, indentUnit, caseIndentUnit int) string {
	invariant.NotNil(src, "source")
	invariant.Precondition(indent >= 0, "indent %d must not be negative", indent)
	invariant.Precondition(indentUnit >= 0, "indent unit %d must not be negative", indentUnit)
	invariant.Precondition(caseIndentUnit >= 0, "case indent unit %d must not be negative", caseIndentUnit)

	d := &decoder{
		indentUnit:     indentUnit,
		caseIndentUnit: caseIndentUnit,
		justBody:       justBody,
	}
	d.decode(src, false, indent)
	return d.out.String()
}

type decoder struct {
	out            strings.Builder
	indentUnit     int
	caseIndentUnit int
	justBody       bool
}

func (d *decoder) decode(src *Source, nested bool, indent int) {
	units := src.Units
	length := len(units)
	if length == 0 {
		return
	}

	justBody := d.justBody && !nested
	i := 0
	braceNesting := 0
	skipLineBreak := false
	prev := token.ERROR

	head := token.Kind(units[0])
	switch head {
	case token.SCRIPT:
		i = 1
		justBody = false
	case token.FUNCTION:
		if !nested && !justBody {
			d.out.WriteByte('\n')
			d.spaces(indent)
		}
		if justBody {
			i = d.skipHeader(units)
			braceNesting = 1
			skipLineBreak = true
		}
	default:
		invariant.Invariant(false, "trace starts with %s", head)
	}

	for i < length {
		k := token.Kind(units[i])
		switch k {
		case token.NAME, token.REGEXP:
			i = d.printString(units, i+1, false)
			prev = k
			continue

		case token.STRING:
			i = d.printString(units, i+1, true)
			prev = k
			continue

		case token.NUMBER:
			start := d.out.Len()
			i = d.printNumber(units, i+1)
			// "1.x" would scan as a malformed number.
			if i < length && token.Kind(units[i]) == token.DOT && isDigits(d.out.String()[start:]) {
				d.out.WriteByte('.')
			}
			prev = k
			continue

		case token.IF:
			// "catch (e if cond)"
			if prev == token.NAME {
				d.out.WriteByte(' ')
			}
			d.out.WriteString("if ")

		case token.NEG, token.POS:
			d.out.WriteString(tokenText[k])
			// Keep "- -x" and "+ ++x" from reading back as decrements.
			switch n := next(units, i); {
			case k == token.NEG && (n == token.NEG || n == token.DEC),
				k == token.POS && (n == token.POS || n == token.INC):
				d.out.WriteByte(' ')
			}

		case token.FUNCTION:
			if i == 0 {
				d.out.WriteString("function ")
				break
			}
			invariant.Invariant(i+1 < length, "truncated function reference at %d", i)
			i++
			index := int(units[i])
			invariant.Invariant(index < len(src.Functions) && src.Functions[index] != nil,
				"reference to missing nested function %d", index)
			d.decode(src.Functions[index], true, indent)

		case token.LC:
			braceNesting++
			if next(units, i) == token.EOL {
				indent += d.indentUnit
			}
			d.out.WriteByte('{')

		case token.RC:
			braceNesting--
			if justBody && braceNesting == 0 {
				break
			}
			d.out.WriteByte('}')
			switch next(units, i) {
			case token.EOL, token.EOF:
				indent -= d.indentUnit
			case token.WHILE, token.ELSE:
				indent -= d.indentUnit
				d.out.WriteByte(' ')
			}

		case token.RP:
			d.out.WriteByte(')')
			if next(units, i) == token.LC {
				d.out.WriteByte(' ')
			}

		case token.EOL:
			if skipLineBreak {
				skipLineBreak = false
			} else {
				d.out.WriteByte('\n')
			}
			if i+1 < length {
				less := 0
				switch token.Kind(units[i+1]) {
				case token.CASE, token.DEFAULT:
					less = d.indentUnit - d.caseIndentUnit
				case token.RC:
					less = d.indentUnit
				case token.NAME:
					if afterName := d.stringEnd(units, i+2); afterName < length &&
						token.Kind(units[afterName]) == token.COLON {
						less = d.indentUnit
					}
				}
				d.spaces(indent - less)
			}

		case token.BREAK, token.CONTINUE:
			if k == token.BREAK {
				d.out.WriteString("break")
			} else {
				d.out.WriteString("continue")
			}
			if next(units, i) == token.NAME {
				d.out.WriteByte(' ')
			}

		case token.RETURN:
			d.out.WriteString("return")
			if next(units, i) != token.SEMI {
				d.out.WriteByte(' ')
			}

		case token.SEMI:
			d.out.WriteByte(';')
			if next(units, i) != token.EOL {
				d.out.WriteByte(' ')
			}

		case token.COLON:
			if next(units, i) == token.EOL {
				d.out.WriteByte(':')
			} else {
				d.out.WriteString(" : ")
			}

		case token.ASSIGNOP:
			invariant.Invariant(i+1 < length, "truncated assignment operator at %d", i)
			i++
			op, ok := assignOps[token.Kind(units[i])]
			invariant.Invariant(ok, "unknown assignment operator %d", units[i])
			d.out.WriteString(" " + op + "= ")

		default:
			text, ok := tokenText[k]
			invariant.Invariant(ok, "cannot decompile token %s at %d", k, i)
			d.out.WriteString(text)
		}
		prev = k
		i++
	}

	if !nested && !justBody && head == token.FUNCTION {
		d.out.WriteByte('\n')
	}
}

// skipHeader returns the offset of the first EOL of a function trace, which
// ends the "function name(params) {" header.
func (d *decoder) skipHeader(units []uint16) int {
	i := 1
	for i < len(units) {
		switch token.Kind(units[i]) {
		case token.EOL:
			return i
		case token.NAME:
			i = d.stringEnd(units, i+1)
			continue
		}
		i++
	}
	invariant.Invariant(false, "function trace has no body")
	return i
}

func next(units []uint16, i int) token.Kind {
	if i+1 < len(units) {
		return token.Kind(units[i+1])
	}
	return token.EOF
}

func (d *decoder) spaces(n int) {
	for ; n > 0; n-- {
		d.out.WriteByte(' ')
	}
}

// stringLength decodes a length prefix at offset and returns the length and
// the offset of the first string unit.
func stringLength(units []uint16, offset int) (int, int) {
	invariant.Invariant(offset < len(units), "truncated string length at %d", offset)
	n := int(units[offset])
	offset++
	if n&0x8000 != 0 {
		invariant.Invariant(offset < len(units), "truncated long string length at %d", offset)
		n = (n&0x7FFF)<<16 | int(units[offset])
		offset++
	}
	invariant.Invariant(offset+n <= len(units), "string of %d units overruns trace", n)
	return n, offset
}

func (d *decoder) stringEnd(units []uint16, offset int) int {
	if offset >= len(units) {
		return offset
	}
	n, start := stringLength(units, offset)
	return start + n
}

func (d *decoder) printString(units []uint16, offset int, quoted bool) int {
	n, start := stringLength(units, offset)
	s := units[start : start+n]
	if quoted {
		d.out.WriteByte('"')
		writeEscaped(&d.out, s, '"')
		d.out.WriteByte('"')
	} else {
		d.out.WriteString(string(utf16.Decode(s)))
	}
	return start + n
}

func (d *decoder) printNumber(units []uint16, offset int) int {
	invariant.Invariant(offset < len(units), "truncated number at %d", offset)
	var v float64
	switch tag := units[offset]; tag {
	case tagShort:
		invariant.Invariant(offset+1 < len(units), "truncated short number at %d", offset)
		v = float64(units[offset+1])
		offset += 2
	case tagLong, tagDouble:
		invariant.Invariant(offset+4 < len(units), "truncated long number at %d", offset)
		bits := uint64(units[offset+1])<<48 | uint64(units[offset+2])<<32 |
			uint64(units[offset+3])<<16 | uint64(units[offset+4])
		if tag == tagLong {
			v = float64(int64(bits))
		} else {
			v = math.Float64frombits(bits)
		}
		offset += 5
	default:
		invariant.Invariant(false, "unknown number tag %d", tag)
	}
	if math.IsInf(v, 1) {
		// Only an overflowing literal gets here; keep it a literal.
		d.out.WriteString("1e999")
	} else {
		d.out.WriteString(numconv.Format(v))
	}
	return offset
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// writeEscaped writes s with quote, backslash and non-printable units
// escaped.
func writeEscaped(b *strings.Builder, s []uint16, quote uint16) {
	const hex = "0123456789abcdef"
	for _, c := range s {
		if c >= ' ' && c <= '~' && c != quote && c != '\\' {
			b.WriteByte(byte(c))
			continue
		}
		switch c {
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0x0B:
			b.WriteString(`\v`)
		case '\\':
			b.WriteString(`\\`)
		case quote:
			b.WriteByte('\\')
			b.WriteByte(byte(quote))
		default:
			if c < 256 {
				b.WriteString(`\x`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0xF])
			} else {
				b.WriteString(`\u`)
				for shift := 12; shift >= 0; shift -= 4 {
					b.WriteByte(hex[(c>>shift)&0xF])
				}
			}
		}
	}
}
