package ir

import (
	"math"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/numconv"
	"github.com/aledsdavies/jsfront/core/token"
)

type truth int

const (
	unknownTruth truth = iota
	alwaysFalse
	alwaysTrue
)

// staticTruth reports the boolean value of a literal, when it has one.
func (b *Builder) staticTruth(id NodeID) truth {
	switch b.Kind(id) {
	case token.FALSE, token.NULL:
		return alwaysFalse
	case token.TRUE:
		return alwaysTrue
	case token.NUMBER:
		if numconv.ToBoolean(b.Num(id)) {
			return alwaysTrue
		}
		return alwaysFalse
	case token.STRING:
		if b.Str(id) != "" {
			return alwaysTrue
		}
		return alwaysFalse
	}
	return unknownTruth
}

func (b *Builder) isNumber(id NodeID) bool { return b.Kind(id) == token.NUMBER }
func (b *Builder) isString(id NodeID) bool { return b.Kind(id) == token.STRING }

// CreateUnary returns kind applied to child, folding literals.
func (b *Builder) CreateUnary(kind token.Kind, child NodeID) NodeID {
	switch kind {
	case token.DELPROP:
		return b.createDelete(child)

	case token.TYPEOF:
		if b.Kind(child) == token.NAME {
			b.SetKind(child, token.TYPEOFNAME)
			return child
		}

	case token.BITNOT:
		if b.isNumber(child) {
			b.SetNum(child, float64(^numconv.ToInt32(b.Num(child))))
			return child
		}

	case token.NEG:
		if b.isNumber(child) {
			b.SetNum(child, -b.Num(child))
			return child
		}

	case token.NOT:
		switch b.staticTruth(child) {
		case alwaysTrue:
			return b.New(token.FALSE, 0)
		case alwaysFalse:
			return b.New(token.TRUE, 0)
		}

	case token.POS, token.VOID:

	default:
		invariant.Precondition(false, "%s is not a unary operator", kind)
	}
	return b.New(kind, 0, child)
}

func (b *Builder) createDelete(child NodeID) NodeID {
	switch b.Kind(child) {
	case token.NAME:
		name := b.Str(child)
		b.SetKind(child, token.BINDNAME)
		return b.New(token.DELPROP, 0, child, b.CreateString(name))
	case token.GETPROP, token.GETELEM:
		obj, id := b.detachOperands(child)
		return b.New(token.DELPROP, 0, obj, id)
	case token.GET_REF:
		ref := b.First(child)
		b.RemoveChild(child, ref)
		return b.New(token.DEL_REF, 0, ref)
	}
	// Deleting a non-reference evaluates it and yields true.
	return b.New(token.COMMA, 0, child, b.New(token.TRUE, 0))
}

// CreateBinary returns left kind right, folding literal arithmetic and
// numerically safe identities. Multiplication by zero is never folded
// because Infinity*0 and NaN*0 are NaN.
func (b *Builder) CreateBinary(kind token.Kind, left, right NodeID) NodeID {
	switch kind {
	case token.ADD:
		switch {
		case b.isString(left) && b.isString(right):
			b.SetStr(left, b.Str(left)+b.Str(right))
			return left
		case b.isString(left) && b.isNumber(right):
			b.SetStr(left, b.Str(left)+numconv.Format(b.Num(right)))
			return left
		case b.isNumber(left) && b.isString(right):
			b.SetStr(right, numconv.Format(b.Num(left))+b.Str(right))
			return right
		case b.isNumber(left) && b.isNumber(right):
			b.SetNum(left, b.Num(left)+b.Num(right))
			return left
		}

	case token.SUB:
		if b.isNumber(left) {
			lv := b.Num(left)
			if b.isNumber(right) {
				b.SetNum(left, lv-b.Num(right))
				return left
			}
			if lv == 0 && !math.Signbit(lv) {
				// 0 - x is -x
				return b.New(token.NEG, 0, right)
			}
		} else if b.isNumber(right) && b.Num(right) == 0 {
			// x - 0 is +x
			return b.New(token.POS, 0, left)
		}

	case token.MUL:
		if b.isNumber(left) {
			lv := b.Num(left)
			if b.isNumber(right) {
				b.SetNum(left, lv*b.Num(right))
				return left
			}
			if lv == 1 {
				return b.New(token.POS, 0, right)
			}
		} else if b.isNumber(right) && b.Num(right) == 1 {
			return b.New(token.POS, 0, left)
		}

	case token.DIV:
		if b.isNumber(right) {
			rv := b.Num(right)
			if b.isNumber(left) {
				b.SetNum(left, b.Num(left)/rv)
				return left
			}
			if rv == 1 {
				return b.New(token.POS, 0, left)
			}
		}

	case token.AND:
		// Only a literal left operand decides the result without running
		// the right operand's side effects.
		switch b.staticTruth(left) {
		case alwaysFalse:
			return left
		case alwaysTrue:
			return right
		}

	case token.OR:
		switch b.staticTruth(left) {
		case alwaysTrue:
			return left
		case alwaysFalse:
			return right
		}

	case token.BITOR, token.BITXOR, token.BITAND, token.EQ, token.NE, token.LT, token.LE,
		token.GT, token.GE, token.LSH, token.RSH, token.URSH, token.MOD, token.SHEQ,
		token.SHNE, token.IN, token.INSTANCEOF, token.COMMA:

	default:
		invariant.Precondition(false, "%s is not a binary operator", kind)
	}
	return b.New(kind, 0, left, right)
}

// CreateCondExpr returns cond ? ifTrue : ifFalse, or the taken branch when
// cond is a literal.
func (b *Builder) CreateCondExpr(cond, ifTrue, ifFalse NodeID) NodeID {
	switch b.staticTruth(cond) {
	case alwaysTrue:
		return ifTrue
	case alwaysFalse:
		return ifFalse
	}
	return b.New(token.HOOK, 0, cond, ifTrue, ifFalse)
}

// CreateIf lowers an if statement. ifFalse may be Nil. A literal condition
// keeps only the taken branch, or an empty block.
func (b *Builder) CreateIf(cond, ifTrue, ifFalse NodeID, line int) NodeID {
	switch b.staticTruth(cond) {
	case alwaysTrue:
		return ifTrue
	case alwaysFalse:
		if ifFalse != Nil {
			return ifFalse
		}
		return b.New(token.BLOCK, line)
	}

	result := b.New(token.BLOCK, line)
	ifNotTarget := b.NewTarget()
	b.AddChildToBack(result, b.NewJump(token.IFNE, ifNotTarget, cond))
	b.AddChildToBack(result, ifTrue)

	if ifFalse != Nil {
		endTarget := b.NewTarget()
		b.AddChildToBack(result, b.NewJump(token.GOTO, endTarget))
		b.AddChildToBack(result, ifNotTarget)
		b.AddChildToBack(result, ifFalse)
		b.AddChildToBack(result, endTarget)
	} else {
		b.AddChildToBack(result, ifNotTarget)
	}
	return result
}
