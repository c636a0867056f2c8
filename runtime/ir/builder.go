package ir

import (
	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// Builder creates and lowers nodes in a Tree on behalf of the parser.
// Every Create method returns the id of the node to use in place of the
// construct, which may be a folded or otherwise cheaper equivalent.
//
// The tree editing primitives are promoted from the embedded Tree.
type Builder struct {
	*Tree
	unit *Unit
}

// NewBuilder returns a builder over a fresh tree.
func NewBuilder() *Builder {
	return &Builder{Tree: NewTree()}
}

// Enter makes u the unit under construction and returns the previous one
// so the caller can restore it with Enter when u is finished.
func (b *Builder) Enter(u *Unit) *Unit {
	prev := b.unit
	b.unit = u
	return prev
}

// Unit returns the unit under construction.
func (b *Builder) Unit() *Unit {
	return b.unit
}

func (b *Builder) insideFunction() bool {
	return b.unit != nil && b.unit.IsFunction()
}

func (b *Builder) requireActivation() {
	if b.insideFunction() {
		b.unit.RequiresActivation = true
	}
}

// CreateScript starts a script unit.
func (b *Builder) CreateScript(sourceName string) *Unit {
	u := &Unit{Name: sourceName, Type: Script}
	u.Root = b.New(token.SCRIPT, 0)
	return u
}

// InitScript moves the statements of body into the script root.
func (b *Builder) InitScript(u *Unit, body NodeID) {
	invariant.Precondition(b.Kind(u.Root) == token.SCRIPT, "InitScript on %s", b.Kind(u.Root))
	for b.HasChildren(body) {
		c := b.First(body)
		b.RemoveChild(body, c)
		b.AddChildToBack(u.Root, c)
	}
}

// CreateFunction starts a function unit named name, which may be empty.
func (b *Builder) CreateFunction(name string, ftype FunctionType, line int) *Unit {
	invariant.Precondition(ftype != Script, "CreateFunction with script type")
	u := &Unit{Name: name, Type: ftype, BaseLine: line}
	u.Root = b.New(token.FUNCTION, line)
	b.SetStr(u.Root, name)
	return u
}

// InitFunction finishes fn with its statement block and returns the
// FUNCTION node that refers to it from the enclosing unit. index is the
// position of fn in the enclosing unit's Functions.
func (b *Builder) InitFunction(fn *Unit, index int, statements NodeID, endLine int) NodeID {
	invariant.Precondition(fn.IsFunction(), "InitFunction on a script unit")
	invariant.Precondition(b.Kind(statements) == token.BLOCK, "function body is %s, not BLOCK", b.Kind(statements))
	fn.EndLine = endLine

	if fn.Type == FunctionExpression && fn.Name != "" && !fn.HasParamOrVar(fn.Name) {
		// A named function expression binds its own name to itself.
		fn.AddVar(fn.Name)
		set := b.New(token.SETNAME, 0,
			b.NewString(token.BINDNAME, fn.Name),
			b.New(token.THISFN, 0))
		b.AddChildToFront(statements, b.New(token.EXPR_VOID, 0, set))
	}

	last := b.Last(statements)
	if last == Nil || (b.Kind(last) != token.RETURN && b.Kind(last) != token.RETURN_RESULT) {
		b.AddChildToBack(statements, b.New(token.RETURN, endLine))
	}
	b.AddChildToBack(fn.Root, statements)

	ref := b.NewString(token.FUNCTION, fn.Name)
	b.SetLine(ref, fn.BaseLine)
	b.SetProp(ref, PropFunction, index)
	return ref
}

// CreateLeaf returns a childless node of kind.
func (b *Builder) CreateLeaf(kind token.Kind) NodeID {
	return b.New(kind, 0)
}

// CreateBlock returns an empty statement block.
func (b *Builder) CreateBlock(line int) NodeID {
	return b.New(token.BLOCK, line)
}

// CreateName returns a NAME reference.
func (b *Builder) CreateName(name string) NodeID {
	if name == "arguments" {
		b.requireActivation()
	}
	return b.NewString(token.NAME, name)
}

// CreateString returns a STRING literal.
func (b *Builder) CreateString(s string) NodeID {
	return b.NewString(token.STRING, s)
}

// CreateNumber returns a NUMBER literal.
func (b *Builder) CreateNumber(v float64) NodeID {
	return b.NewNumber(v)
}

// CreateRegExp registers a regular expression literal with the current
// unit and returns a REGEXP node indexing it.
func (b *Builder) CreateRegExp(pattern, flags string) NodeID {
	invariant.NotNil(b.unit, "unit")
	id := b.New(token.REGEXP, 0)
	b.SetProp(id, PropRegExp, b.unit.AddRegExp(pattern, flags))
	return id
}

// CreateExprStatement wraps expr as a statement. Outside functions the
// value is kept as the script result.
func (b *Builder) CreateExprStatement(expr NodeID, line int) NodeID {
	kind := token.EXPR_RESULT
	if b.insideFunction() {
		kind = token.EXPR_VOID
	}
	id := b.New(kind, line, expr)
	return id
}

// CreateExprStatementNoReturn wraps expr as a statement whose value is
// discarded.
func (b *Builder) CreateExprStatementNoReturn(expr NodeID, line int) NodeID {
	return b.New(token.EXPR_VOID, line, expr)
}

// CreateReturn returns a RETURN with an optional value.
func (b *Builder) CreateReturn(expr NodeID, line int) NodeID {
	if expr == Nil {
		return b.New(token.RETURN, line)
	}
	return b.New(token.RETURN, line, expr)
}

// CreateThrow returns a THROW of expr.
func (b *Builder) CreateThrow(expr NodeID, line int) NodeID {
	return b.New(token.THROW, line, expr)
}

// CreateVariables returns an empty VAR; the parser adds one NAME per
// declaration, each with its initializer as only child.
func (b *Builder) CreateVariables(line int) NodeID {
	return b.New(token.VAR, line)
}

// CreateArrayLiteral builds an ARRAYLIT of elems. skip lists the indexes
// of holes, which have no element node.
func (b *Builder) CreateArrayLiteral(elems []NodeID, skip []int) NodeID {
	id := b.New(token.ARRAYLIT, 0, elems...)
	if len(skip) > 0 {
		b.SetProp(id, PropSkipIndexes, skip)
	}
	return id
}

// CreateObjectLiteral builds an OBJECTLIT whose i-th value has property
// id ids[i], a string or float64.
func (b *Builder) CreateObjectLiteral(ids []any, values []NodeID) NodeID {
	invariant.Precondition(len(ids) == len(values), "%d property ids for %d values", len(ids), len(values))
	for _, v := range ids {
		switch v.(type) {
		case string, float64:
		default:
			invariant.Precondition(false, "object literal id of type %T", v)
		}
	}
	id := b.New(token.OBJECTLIT, 0, values...)
	b.SetProp(id, PropObjectIDs, ids)
	return id
}

// CreateCallOrNew returns a CALL or NEW of target; the parser appends the
// arguments.
func (b *Builder) CreateCallOrNew(kind token.Kind, target NodeID) NodeID {
	invariant.Precondition(kind == token.CALL || kind == token.NEW, "CreateCallOrNew with %s", kind)
	special := NonSpecialCall
	switch b.Kind(target) {
	case token.NAME:
		if b.Str(target) == "eval" {
			special = SpecialCallEval
		}
	case token.GETPROP:
		if last := b.Last(target); b.Kind(last) == token.STRING && b.Str(last) == "eval" {
			special = SpecialCallEval
		}
	}
	id := b.New(kind, 0, target)
	if special != NonSpecialCall {
		b.requireActivation()
		b.SetProp(id, PropSpecialCall, special)
	}
	return id
}

// IsReference reports whether id can be assigned to.
func (b *Builder) IsReference(id NodeID) bool {
	switch b.Kind(id) {
	case token.NAME, token.GETPROP, token.GETELEM, token.GET_REF:
		return true
	}
	return false
}

func isSpecialProperty(name string) bool {
	return name == "__proto__" || name == "__parent__"
}

// CreatePropertyGet returns target.name.
func (b *Builder) CreatePropertyGet(target NodeID, name string) NodeID {
	if isSpecialProperty(name) {
		ref := b.New(token.SPECIAL_REF, 0, target)
		b.SetProp(ref, PropName, name)
		return b.New(token.GET_REF, 0, ref)
	}
	return b.New(token.GETPROP, 0, target, b.CreateString(name))
}

// CreateElementGet returns target[elem].
func (b *Builder) CreateElementGet(target, elem NodeID) NodeID {
	return b.New(token.GETELEM, 0, target, elem)
}

// CreateIncDec returns ++/-- of the reference child.
func (b *Builder) CreateIncDec(kind token.Kind, post bool, child NodeID) NodeID {
	invariant.Precondition(kind == token.INC || kind == token.DEC, "CreateIncDec with %s", kind)
	invariant.Precondition(b.IsReference(child), "%s of non-reference %s", kind, b.Kind(child))
	flags := 0
	if kind == token.DEC {
		flags |= IncrDecrDec
	}
	if post {
		flags |= IncrDecrPost
	}
	id := b.New(kind, 0, child)
	b.SetProp(id, PropIncrDecr, flags)
	return id
}

// detachOperands removes and returns the object and id of a GETPROP or
// GETELEM.
func (b *Builder) detachOperands(ref NodeID) (obj, id NodeID) {
	obj, id = b.First(ref), b.Last(ref)
	b.RemoveChild(ref, obj)
	b.RemoveChild(ref, id)
	return obj, id
}

// CreateAssignment returns left = right when op is ASSIGN, or the
// compound form left op= right when op is a binary operator such as ADD.
// Compound forms evaluate the target once and read the old value through
// USE_STACK.
func (b *Builder) CreateAssignment(op token.Kind, left, right NodeID) NodeID {
	invariant.Precondition(b.IsReference(left), "assignment to non-reference %s", b.Kind(left))
	if op == token.ASSIGN {
		return b.simpleAssignment(left, right)
	}
	invariant.Precondition(isCompoundOp(op), "%s is not a compound assignment operator", op)

	switch b.Kind(left) {
	case token.NAME:
		name := b.Str(left)
		value := b.New(op, 0, left, right)
		return b.New(token.SETNAME, 0, b.NewString(token.BINDNAME, name), value)
	case token.GETPROP, token.GETELEM:
		obj, id := b.detachOperands(left)
		kind := token.SETPROP_OP
		if b.Kind(left) == token.GETELEM {
			kind = token.SETELEM_OP
		}
		value := b.New(op, 0, b.New(token.USE_STACK, 0), right)
		return b.New(kind, 0, obj, id, value)
	default: // GET_REF
		ref := b.First(left)
		b.RemoveChild(left, ref)
		value := b.New(op, 0, b.New(token.USE_STACK, 0), right)
		return b.New(token.SET_REF_OP, 0, ref, value)
	}
}

func (b *Builder) simpleAssignment(left, right NodeID) NodeID {
	switch b.Kind(left) {
	case token.NAME:
		b.SetKind(left, token.BINDNAME)
		return b.New(token.SETNAME, 0, left, right)
	case token.GETPROP, token.GETELEM:
		obj, id := b.detachOperands(left)
		kind := token.SETPROP
		if b.Kind(left) == token.GETELEM {
			kind = token.SETELEM
		}
		return b.New(kind, 0, obj, id, right)
	case token.GET_REF:
		ref := b.First(left)
		b.RemoveChild(left, ref)
		return b.New(token.SET_REF, 0, ref, right)
	}
	invariant.Unreachable("simple assignment to %s", b.Kind(left))
	return Nil
}

func isCompoundOp(k token.Kind) bool {
	switch k {
	case token.BITOR, token.BITXOR, token.BITAND, token.LSH, token.RSH, token.URSH,
		token.ADD, token.SUB, token.MUL, token.DIV, token.MOD:
		return true
	}
	return false
}
