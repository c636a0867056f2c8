package decompiler

import (
	"errors"
	"fmt"

	"github.com/aledsdavies/jsfront/core/token"
)

// ErrCorrupt is wrapped by every error Check returns.
var ErrCorrupt = errors.New("corrupt source trace")

// Tokens the decoder handles without a tokenText entry.
var layoutTokens = map[token.Kind]bool{
	token.IF:       true,
	token.LC:       true,
	token.RC:       true,
	token.RP:       true,
	token.EOL:      true,
	token.BREAK:    true,
	token.CONTINUE: true,
	token.RETURN:   true,
	token.SEMI:     true,
	token.COLON:    true,
}

// Tokens allowed in a function header, before the line break that opens
// the body.
var headerTokens = map[token.Kind]bool{
	token.NAME:  true,
	token.LP:    true,
	token.COMMA: true,
	token.RP:    true,
	token.LC:    true,
}

// Check reports whether src and every trace in its Functions can be
// decompiled. Decompile panics on a corrupt trace, so traces that were not
// produced by an Encoder in this process, such as those read from a file,
// must pass Check first.
func Check(src *Source) error {
	return check(src, "", token.SCRIPT)
}

func corrupt(path string, at int, format string, args ...any) error {
	return fmt.Errorf("%w: trace %s at unit %d: %s", ErrCorrupt, "/"+path, at, fmt.Sprintf(format, args...))
}

func check(src *Source, path string, want token.Kind) error {
	if src == nil {
		return corrupt(path, 0, "missing trace")
	}
	units := src.Units
	if len(units) == 0 {
		return corrupt(path, 0, "empty trace")
	}
	if head := token.Kind(units[0]); head != token.SCRIPT && head != token.FUNCTION {
		return corrupt(path, 0, "trace starts with unit %d", units[0])
	} else if path != "" && head != want {
		return corrupt(path, 0, "nested trace starts with %s", head)
	}
	isFunction := token.Kind(units[0]) == token.FUNCTION
	inHeader := isFunction

	for i := 1; i < len(units); {
		k := token.Kind(units[i])
		if inHeader && !headerTokens[k] && k != token.EOL {
			return corrupt(path, i, "unit %d in function header", units[i])
		}

		switch k {
		case token.NAME, token.STRING, token.REGEXP:
			end, err := checkString(units, i+1)
			if err != nil {
				return corrupt(path, i, "%v", err)
			}
			i = end
			continue

		case token.NUMBER:
			if i+1 >= len(units) {
				return corrupt(path, i, "truncated number")
			}
			size := 0
			switch units[i+1] {
			case tagShort:
				size = 1
			case tagLong, tagDouble:
				size = 4
			default:
				return corrupt(path, i, "unknown number tag %d", units[i+1])
			}
			if i+2+size > len(units) {
				return corrupt(path, i, "truncated number")
			}
			i += 2 + size
			continue

		case token.ASSIGNOP:
			if i+1 >= len(units) {
				return corrupt(path, i, "truncated assignment operator")
			}
			if _, ok := assignOps[token.Kind(units[i+1])]; !ok {
				return corrupt(path, i, "unknown assignment operator %d", units[i+1])
			}
			i += 2
			continue

		case token.FUNCTION:
			if i+1 >= len(units) {
				return corrupt(path, i, "truncated function reference")
			}
			if index := int(units[i+1]); index >= len(src.Functions) {
				return corrupt(path, i, "reference to missing nested function %d", index)
			}
			i += 2
			continue

		case token.EOL:
			inHeader = false
		}

		if _, ok := tokenText[k]; !ok && !layoutTokens[k] {
			return corrupt(path, i, "unit %d is not a decodable token", units[i])
		}
		i++
	}
	if inHeader {
		return corrupt(path, len(units), "function trace has no body")
	}

	for i, fn := range src.Functions {
		if err := check(fn, fmt.Sprintf("%s%d/", path, i), token.FUNCTION); err != nil {
			return err
		}
	}
	return nil
}

// checkString validates the length-prefixed string at offset and returns
// the offset just past it.
func checkString(units []uint16, offset int) (int, error) {
	if offset >= len(units) {
		return 0, errors.New("truncated string length")
	}
	n := int(units[offset])
	offset++
	if n&0x8000 != 0 {
		if offset >= len(units) {
			return 0, errors.New("truncated long string length")
		}
		n = (n&0x7FFF)<<16 | int(units[offset])
		offset++
	}
	if offset+n > len(units) {
		return 0, fmt.Errorf("string of %d units overruns trace", n)
	}
	return offset + n, nil
}
