// Package token defines the closed catalogue of token kinds shared by the
// lexer, the tree builder and the source encoder.
//
// Kinds are split into three ranges:
//
//   - operation tags, from ERROR through SCRIPT, which may appear in a
//     finished tree and are reused as opcodes by later stages;
//   - grammar-only tags, from SEMI through LAST_TOKEN, which exist only while
//     a construct is being recognized;
//   - pseudo tags, after LAST_TOKEN, which are created only by lowering.
//
// Every kind up to LAST_TOKEN fits in a single 7-bit unit of encoded source.
package token

// Kind identifies a token or tree node.
type Kind int

const (
	// Operation tags
	ERROR Kind = iota
	EOF
	EOL
	ENTERWITH
	LEAVEWITH
	RETURN
	GOTO
	IFEQ
	IFNE
	SETNAME
	BITOR
	BITXOR
	BITAND
	EQ
	NE
	LT
	LE
	GT
	GE
	LSH
	RSH
	URSH
	ADD
	SUB
	MUL
	DIV
	MOD
	NOT
	BITNOT
	POS
	NEG
	NEW
	DELPROP
	TYPEOF
	GETPROP
	SETPROP
	GETELEM
	SETELEM
	CALL
	NAME
	NUMBER
	STRING
	NULL
	THIS
	FALSE
	TRUE
	SHEQ
	SHNE
	REGEXP
	BINDNAME
	THROW
	RETHROW
	IN
	INSTANCEOF
	INC
	DEC
	TYPEOFNAME
	ENUM_INIT_KEYS
	ENUM_INIT_VALUES
	ENUM_NEXT
	ENUM_ID
	THISFN
	RETURN_RESULT
	ARRAYLIT
	OBJECTLIT
	GET_REF
	SET_REF
	DEL_REF
	SETPROP_OP
	SETELEM_OP
	SET_REF_OP
	JSR
	VOID
	AND
	OR
	HOOK
	COMMA
	EXPR_VOID
	EXPR_RESULT
	BREAK
	CONTINUE
	VAR
	FUNCTION
	BLOCK
	EMPTY
	SCRIPT

	// Grammar-only tags
	SEMI
	LB
	RB
	LC
	RC
	LP
	RP
	DOT
	COLON
	PROPCOLON
	ASSIGN
	ASSIGNOP
	IF
	ELSE
	SWITCH
	CASE
	DEFAULT
	WHILE
	DO
	FOR
	WITH
	TRY
	CATCH
	FINALLY
	RESERVED

	// Pseudo tags
	TARGET
	LOOP
	LABEL
	SELECT
	CASE_BRANCH
	WITH_BODY
	TRY_REGION
	FINALLY_BLOCK
	LOCAL_BLOCK
	USE_LOCAL
	USE_STACK
	CATCH_SCOPE
	SPECIAL_REF

	kindCount
)

const (
	// FIRST_GRAMMAR is the first grammar-only kind.
	FIRST_GRAMMAR = SEMI
	// LAST_TOKEN is the last kind that can appear in encoded source.
	LAST_TOKEN = RESERVED
)

var names = [...]string{
	ERROR:            "ERROR",
	EOF:              "EOF",
	EOL:              "EOL",
	ENTERWITH:        "ENTERWITH",
	LEAVEWITH:        "LEAVEWITH",
	RETURN:           "RETURN",
	GOTO:             "GOTO",
	IFEQ:             "IFEQ",
	IFNE:             "IFNE",
	SETNAME:          "SETNAME",
	BITOR:            "BITOR",
	BITXOR:           "BITXOR",
	BITAND:           "BITAND",
	EQ:               "EQ",
	NE:               "NE",
	LT:               "LT",
	LE:               "LE",
	GT:               "GT",
	GE:               "GE",
	LSH:              "LSH",
	RSH:              "RSH",
	URSH:             "URSH",
	ADD:              "ADD",
	SUB:              "SUB",
	MUL:              "MUL",
	DIV:              "DIV",
	MOD:              "MOD",
	NOT:              "NOT",
	BITNOT:           "BITNOT",
	POS:              "POS",
	NEG:              "NEG",
	NEW:              "NEW",
	DELPROP:          "DELPROP",
	TYPEOF:           "TYPEOF",
	GETPROP:          "GETPROP",
	SETPROP:          "SETPROP",
	GETELEM:          "GETELEM",
	SETELEM:          "SETELEM",
	CALL:             "CALL",
	NAME:             "NAME",
	NUMBER:           "NUMBER",
	STRING:           "STRING",
	NULL:             "NULL",
	THIS:             "THIS",
	FALSE:            "FALSE",
	TRUE:             "TRUE",
	SHEQ:             "SHEQ",
	SHNE:             "SHNE",
	REGEXP:           "REGEXP",
	BINDNAME:         "BINDNAME",
	THROW:            "THROW",
	RETHROW:          "RETHROW",
	IN:               "IN",
	INSTANCEOF:       "INSTANCEOF",
	INC:              "INC",
	DEC:              "DEC",
	TYPEOFNAME:       "TYPEOFNAME",
	ENUM_INIT_KEYS:   "ENUM_INIT_KEYS",
	ENUM_INIT_VALUES: "ENUM_INIT_VALUES",
	ENUM_NEXT:        "ENUM_NEXT",
	ENUM_ID:          "ENUM_ID",
	THISFN:           "THISFN",
	RETURN_RESULT:    "RETURN_RESULT",
	ARRAYLIT:         "ARRAYLIT",
	OBJECTLIT:        "OBJECTLIT",
	GET_REF:          "GET_REF",
	SET_REF:          "SET_REF",
	DEL_REF:          "DEL_REF",
	SETPROP_OP:       "SETPROP_OP",
	SETELEM_OP:       "SETELEM_OP",
	SET_REF_OP:       "SET_REF_OP",
	JSR:              "JSR",
	VOID:             "VOID",
	AND:              "AND",
	OR:               "OR",
	HOOK:             "HOOK",
	COMMA:            "COMMA",
	EXPR_VOID:        "EXPR_VOID",
	EXPR_RESULT:      "EXPR_RESULT",
	BREAK:            "BREAK",
	CONTINUE:         "CONTINUE",
	VAR:              "VAR",
	FUNCTION:         "FUNCTION",
	BLOCK:            "BLOCK",
	EMPTY:            "EMPTY",
	SCRIPT:           "SCRIPT",
	SEMI:             "SEMI",
	LB:               "LB",
	RB:               "RB",
	LC:               "LC",
	RC:               "RC",
	LP:               "LP",
	RP:               "RP",
	DOT:              "DOT",
	COLON:            "COLON",
	PROPCOLON:        "PROPCOLON",
	ASSIGN:           "ASSIGN",
	ASSIGNOP:         "ASSIGNOP",
	IF:               "IF",
	ELSE:             "ELSE",
	SWITCH:           "SWITCH",
	CASE:             "CASE",
	DEFAULT:          "DEFAULT",
	WHILE:            "WHILE",
	DO:               "DO",
	FOR:              "FOR",
	WITH:             "WITH",
	TRY:              "TRY",
	CATCH:            "CATCH",
	FINALLY:          "FINALLY",
	RESERVED:         "RESERVED",
	TARGET:           "TARGET",
	LOOP:             "LOOP",
	LABEL:            "LABEL",
	SELECT:           "SELECT",
	CASE_BRANCH:      "CASE_BRANCH",
	WITH_BODY:        "WITH_BODY",
	TRY_REGION:       "TRY_REGION",
	FINALLY_BLOCK:    "FINALLY_BLOCK",
	LOCAL_BLOCK:      "LOCAL_BLOCK",
	USE_LOCAL:        "USE_LOCAL",
	USE_STACK:        "USE_STACK",
	CATCH_SCOPE:      "CATCH_SCOPE",
	SPECIAL_REF:      "SPECIAL_REF",
}

// String returns the kind's constant name.
func (k Kind) String() string {
	if k.Valid() {
		return names[k]
	}
	return "UNKNOWN"
}

// Valid reports whether k is a member of the catalogue.
func (k Kind) Valid() bool {
	return k >= ERROR && k < kindCount
}

// IsGrammarOnly reports whether k may only exist while a construct is being
// recognized.
func (k Kind) IsGrammarOnly() bool {
	return k >= FIRST_GRAMMAR && k <= LAST_TOKEN
}

// IsPseudo reports whether k is produced only by lowering.
func (k Kind) IsPseudo() bool {
	return k > LAST_TOKEN && k < kindCount
}

// IsEncodable reports whether k can be written as one unit of encoded source.
func (k Kind) IsEncodable() bool {
	return k >= ERROR && k <= LAST_TOKEN
}

// Lookup returns the kind with the given constant name.
func Lookup(name string) (Kind, bool) {
	for k, n := range names {
		if n == name {
			return Kind(k), true
		}
	}
	return ERROR, false
}

// Names returns every constant name in catalogue order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}
