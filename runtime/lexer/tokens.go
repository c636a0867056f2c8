package lexer

import "github.com/aledsdavies/jsfront/core/token"

// Token is one scanned unit with its literal payload.
type Token struct {
	Kind token.Kind
	// Op is the operator of an ASSIGNOP token, such as token.ADD for "+=".
	Op token.Kind
	// Text is the identifier name, string value or regular expression body.
	Text string
	// Units holds a STRING token's value as raw code units.
	Units []uint16
	// Flags holds a REGEXP token's flags.
	Flags    string
	Number   float64
	Position Position
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based code unit offset
}

func (t Token) String() string {
	switch t.Kind {
	case token.NAME, token.STRING:
		return t.Kind.String() + "(" + t.Text + ")"
	case token.REGEXP:
		return "REGEXP(/" + t.Text + "/" + t.Flags + ")"
	case token.ASSIGNOP:
		return "ASSIGNOP(" + t.Op.String() + ")"
	}
	return t.Kind.String()
}
