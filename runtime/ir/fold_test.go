package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/aledsdavies/jsfront/core/token"
)

func checkDump(t *testing.T, b *Builder, id NodeID, want string) {
	t.Helper()
	if diff := cmp.Diff(want, Dump(b.Tree, id)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBinaryFolding(t *testing.T) {
	num := func(v float64) func(*Builder) NodeID {
		return func(b *Builder) NodeID { return b.CreateNumber(v) }
	}
	str := func(s string) func(*Builder) NodeID {
		return func(b *Builder) NodeID { return b.CreateString(s) }
	}
	name := func(s string) func(*Builder) NodeID {
		return func(b *Builder) NodeID { return b.CreateName(s) }
	}
	call := func(s string) func(*Builder) NodeID {
		return func(b *Builder) NodeID { return b.CreateCallOrNew(token.CALL, b.CreateName(s)) }
	}
	leaf := func(k token.Kind) func(*Builder) NodeID {
		return func(b *Builder) NodeID { return b.CreateLeaf(k) }
	}

	tests := []struct {
		name  string
		op    token.Kind
		left  func(*Builder) NodeID
		right func(*Builder) NodeID
		want  string
	}{
		{"number addition", token.ADD, num(1), num(2), "NUMBER 3\n"},
		{"string concatenation", token.ADD, str("a"), str("b"), "STRING \"ab\"\n"},
		{"string plus number", token.ADD, str("a"), num(1), "STRING \"a1\"\n"},
		{"number plus string", token.ADD, num(1.5), str("x"), "STRING \"1.5x\"\n"},
		{"name plus number", token.ADD, name("x"), num(1), "ADD\n  NAME \"x\"\n  NUMBER 1\n"},
		{"subtraction", token.SUB, num(6), num(2), "NUMBER 4\n"},
		{"zero minus x", token.SUB, num(0), name("x"), "NEG\n  NAME \"x\"\n"},
		{"x minus zero", token.SUB, name("x"), num(0), "POS\n  NAME \"x\"\n"},
		{"multiplication", token.MUL, num(3), num(4), "NUMBER 12\n"},
		{"x times one", token.MUL, name("x"), num(1), "POS\n  NAME \"x\"\n"},
		{"one times x", token.MUL, num(1), name("x"), "POS\n  NAME \"x\"\n"},
		{"x times zero", token.MUL, name("x"), num(0), "MUL\n  NAME \"x\"\n  NUMBER 0\n"},
		{"zero times x", token.MUL, num(0), name("x"), "MUL\n  NUMBER 0\n  NAME \"x\"\n"},
		{"division", token.DIV, num(6), num(4), "NUMBER 1.5\n"},
		{"division by zero", token.DIV, num(1), num(0), "NUMBER Infinity\n"},
		{"x over one", token.DIV, name("x"), num(1), "POS\n  NAME \"x\"\n"},
		{"literal over x", token.DIV, num(2), name("x"), "DIV\n  NUMBER 2\n  NAME \"x\"\n"},
		{"modulo is kept", token.MOD, num(5), num(2), "MOD\n  NUMBER 5\n  NUMBER 2\n"},
		{"call and false", token.AND, call("f"), leaf(token.FALSE), "AND\n  CALL\n    NAME \"f\"\n  FALSE\n"},
		{"true and call", token.AND, leaf(token.TRUE), call("f"), "CALL\n  NAME \"f\"\n"},
		{"false and call", token.AND, leaf(token.FALSE), call("f"), "FALSE\n"},
		{"zero or x", token.OR, num(0), name("x"), "NAME \"x\"\n"},
		{"string or x", token.OR, str("s"), name("x"), "STRING \"s\"\n"},
		{"null or x", token.OR, leaf(token.NULL), name("x"), "NAME \"x\"\n"},
		{"x or true", token.OR, name("x"), leaf(token.TRUE), "OR\n  NAME \"x\"\n  TRUE\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			checkDump(t, b, b.CreateBinary(tt.op, tt.left(b), tt.right(b)), tt.want)
		})
	}
}

func TestCreateBinaryRejectsNonOperators(t *testing.T) {
	b := NewBuilder()
	assert.Panics(t, func() { b.CreateBinary(token.IF, b.CreateNumber(1), b.CreateNumber(2)) })
}

func TestCreateUnary(t *testing.T) {
	tests := []struct {
		name  string
		op    token.Kind
		child func(*Builder) NodeID
		want  string
	}{
		{"negate literal", token.NEG, func(b *Builder) NodeID { return b.CreateNumber(1) }, "NUMBER -1\n"},
		{"bitwise not literal", token.BITNOT, func(b *Builder) NodeID { return b.CreateNumber(5) }, "NUMBER -6\n"},
		{"not true", token.NOT, func(b *Builder) NodeID { return b.CreateLeaf(token.TRUE) }, "FALSE\n"},
		{"not zero", token.NOT, func(b *Builder) NodeID { return b.CreateNumber(0) }, "TRUE\n"},
		{"not name", token.NOT, func(b *Builder) NodeID { return b.CreateName("x") }, "NOT\n  NAME \"x\"\n"},
		{"typeof name", token.TYPEOF, func(b *Builder) NodeID { return b.CreateName("x") }, "TYPEOFNAME \"x\"\n"},
		{"typeof call", token.TYPEOF, func(b *Builder) NodeID {
			return b.CreateCallOrNew(token.CALL, b.CreateName("f"))
		}, "TYPEOF\n  CALL\n    NAME \"f\"\n"},
		{"void", token.VOID, func(b *Builder) NodeID { return b.CreateNumber(0) }, "VOID\n  NUMBER 0\n"},
		{"delete name", token.DELPROP, func(b *Builder) NodeID { return b.CreateName("x") },
			"DELPROP\n  BINDNAME \"x\"\n  STRING \"x\"\n"},
		{"delete property", token.DELPROP, func(b *Builder) NodeID {
			return b.CreatePropertyGet(b.CreateName("a"), "b")
		}, "DELPROP\n  NAME \"a\"\n  STRING \"b\"\n"},
		{"delete element", token.DELPROP, func(b *Builder) NodeID {
			return b.CreateElementGet(b.CreateName("a"), b.CreateName("i"))
		}, "DELPROP\n  NAME \"a\"\n  NAME \"i\"\n"},
		{"delete special", token.DELPROP, func(b *Builder) NodeID {
			return b.CreatePropertyGet(b.CreateName("o"), "__proto__")
		}, "DEL_REF\n  SPECIAL_REF name=\"__proto__\"\n    NAME \"o\"\n"},
		{"delete literal", token.DELPROP, func(b *Builder) NodeID { return b.CreateNumber(1) },
			"COMMA\n  NUMBER 1\n  TRUE\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			checkDump(t, b, b.CreateUnary(tt.op, tt.child(b)), tt.want)
		})
	}
}

func TestCreateIf(t *testing.T) {
	stmt := func(b *Builder, name string) NodeID {
		return b.CreateExprStatementNoReturn(b.CreateName(name), 1)
	}

	t.Run("without else", func(t *testing.T) {
		b := NewBuilder()
		checkDump(t, b, b.CreateIf(b.CreateName("c"), stmt(b, "a"), Nil, 1), `BLOCK
  IFNE -> #1
    NAME "c"
  EXPR_VOID
    NAME "a"
  TARGET #1
`)
	})

	t.Run("with else", func(t *testing.T) {
		b := NewBuilder()
		checkDump(t, b, b.CreateIf(b.CreateName("c"), stmt(b, "a"), stmt(b, "b"), 1), `BLOCK
  IFNE -> #1
    NAME "c"
  EXPR_VOID
    NAME "a"
  GOTO -> #2
  TARGET #1
  EXPR_VOID
    NAME "b"
  TARGET #2
`)
	})

	t.Run("true condition keeps then branch", func(t *testing.T) {
		b := NewBuilder()
		then := stmt(b, "a")
		assert.Equal(t, then, b.CreateIf(b.CreateLeaf(token.TRUE), then, stmt(b, "b"), 1))
	})

	t.Run("false condition keeps else branch", func(t *testing.T) {
		b := NewBuilder()
		otherwise := stmt(b, "b")
		assert.Equal(t, otherwise, b.CreateIf(b.CreateNumber(0), stmt(b, "a"), otherwise, 1))
	})

	t.Run("false condition without else", func(t *testing.T) {
		b := NewBuilder()
		checkDump(t, b, b.CreateIf(b.CreateLeaf(token.NULL), stmt(b, "a"), Nil, 1), "BLOCK\n")
	})
}

func TestCreateCondExpr(t *testing.T) {
	b := NewBuilder()
	x, y := b.CreateName("x"), b.CreateName("y")
	assert.Equal(t, y, b.CreateCondExpr(b.CreateString(""), x, y))

	b = NewBuilder()
	checkDump(t, b, b.CreateCondExpr(b.CreateName("c"), b.CreateNumber(1), b.CreateNumber(2)),
		"HOOK\n  NAME \"c\"\n  NUMBER 1\n  NUMBER 2\n")
}
