package ir

import (
	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

type loopType int

const (
	loopDoWhile loopType = iota
	loopWhile
	loopFor
)

// CreateLoopNode returns the LOOP node for a loop being parsed so break
// and continue statements in the body can refer to it. label is the LABEL
// directly naming the loop, or Nil.
func (b *Builder) CreateLoopNode(label NodeID, line int) NodeID {
	loop := b.New(token.LOOP, line)
	b.SetControl(loop, &Loop{})
	if label != Nil {
		b.labelControl(label).Loop = loop
	}
	return loop
}

func (b *Builder) loopControl(loop NodeID) *Loop {
	lc, ok := b.Control(loop).(*Loop)
	invariant.Precondition(ok, "node %d (%s) is not a loop", loop, b.Kind(loop))
	return lc
}

func (b *Builder) labelControl(label NodeID) *Label {
	lc, ok := b.Control(label).(*Label)
	invariant.Precondition(ok, "node %d (%s) is not a label", label, b.Kind(label))
	return lc
}

// CreateWhile lowers while (cond) body into loop.
func (b *Builder) CreateWhile(loop, cond, body NodeID) NodeID {
	return b.createLoop(loop, loopWhile, body, cond, Nil, Nil)
}

// CreateDoWhile lowers do body while (cond) into loop.
func (b *Builder) CreateDoWhile(loop, body, cond NodeID) NodeID {
	return b.createLoop(loop, loopDoWhile, body, cond, Nil, Nil)
}

// CreateFor lowers for (init; test; incr) body into loop. Absent clauses
// are EMPTY nodes.
func (b *Builder) CreateFor(loop, init, test, incr, body NodeID) NodeID {
	return b.createLoop(loop, loopFor, body, test, init, incr)
}

// createLoop produces
//
//	[init] [GOTO cond] body: <body> [incr: incr] [EMPTY] cond: IFEQ(test)->body break:
func (b *Builder) createLoop(loop NodeID, lt loopType, body, cond, init, incr NodeID) NodeID {
	lc := b.loopControl(loop)
	invariant.Precondition(!b.HasChildren(loop), "loop %d lowered twice", loop)

	bodyTarget := b.NewTarget()
	condTarget := b.NewTarget()
	if lt == loopFor && b.Kind(cond) == token.EMPTY {
		cond = b.New(token.TRUE, 0)
	}
	breakTarget := b.NewTarget()

	b.AddChildToBack(loop, bodyTarget)
	b.AddChildToBack(loop, body)
	if lt == loopWhile || lt == loopFor {
		b.AddChildToBack(loop, b.New(token.EMPTY, b.Line(loop)))
	}
	b.AddChildToBack(loop, condTarget)
	b.AddChildToBack(loop, b.NewJump(token.IFEQ, bodyTarget, cond))
	b.AddChildToBack(loop, breakTarget)

	lc.Break = breakTarget
	continueTarget := condTarget

	if lt == loopWhile || lt == loopFor {
		b.AddChildToFront(loop, b.NewJump(token.GOTO, condTarget))

		if lt == loopFor {
			if b.Kind(init) != token.EMPTY {
				if b.Kind(init) != token.VAR {
					init = b.New(token.EXPR_VOID, 0, init)
				}
				b.AddChildToFront(loop, init)
			}
			incrTarget := b.NewTarget()
			b.InsertAfter(loop, incrTarget, body)
			if b.Kind(incr) != token.EMPTY {
				b.InsertAfter(loop, b.New(token.EXPR_VOID, 0, incr), incrTarget)
			}
			continueTarget = incrTarget
		}
	}
	lc.Continue = continueTarget
	return loop
}

// CreateForIn lowers for (lhs in obj) body, or for each (lhs in obj) body
// when each is set, into loop. lhs is a VAR with one name or a reference.
func (b *Builder) CreateForIn(loop, lhs, obj, body NodeID, each bool) NodeID {
	var lvalue NodeID
	if b.Kind(lhs) == token.VAR {
		invariant.Precondition(b.ChildCount(lhs) == 1, "for-in VAR declares %d names", b.ChildCount(lhs))
		lvalue = b.NewString(token.NAME, b.Str(b.First(lhs)))
	} else {
		invariant.Precondition(b.IsReference(lhs), "for-in target is %s", b.Kind(lhs))
		lvalue = lhs
	}

	local := b.New(token.LOCAL_BLOCK, b.Line(loop))
	initKind := token.ENUM_INIT_KEYS
	if each {
		initKind = token.ENUM_INIT_VALUES
	}
	initNode := b.New(initKind, 0, obj)
	b.SetProp(initNode, PropLocalBlock, local)
	cond := b.New(token.ENUM_NEXT, 0)
	b.SetProp(cond, PropLocalBlock, local)
	id := b.New(token.ENUM_ID, 0)
	b.SetProp(id, PropLocalBlock, local)

	newBody := b.New(token.BLOCK, 0,
		b.New(token.EXPR_VOID, 0, b.simpleAssignment(lvalue, id)),
		body)
	loop = b.CreateWhile(loop, cond, newBody)

	if b.Kind(lhs) == token.VAR {
		b.AddChildToBack(local, lhs)
	}
	b.AddChildToBack(local, initNode)
	b.AddChildToBack(local, loop)
	return local
}

// CreateLabel returns a LABEL for name; the parser links it to the loop it
// names through CreateLoopNode.
func (b *Builder) CreateLabel(name string, line int) NodeID {
	label := b.New(token.LABEL, line)
	b.SetControl(label, &Label{Name: name})
	return label
}

// CreateLabeledStatement returns [label, stmt, break:] and arms the
// label's break target.
func (b *Builder) CreateLabeledStatement(label, stmt NodeID) NodeID {
	lc := b.labelControl(label)
	breakTarget := b.NewTarget()
	lc.Break = breakTarget
	return b.New(token.BLOCK, b.Line(label), label, stmt, breakTarget)
}

// CreateBreak returns a break out of construct, which is a LOOP, a LABEL,
// or a switch block or its SELECT.
func (b *Builder) CreateBreak(construct NodeID, line int) NodeID {
	switch b.Kind(construct) {
	case token.LOOP, token.LABEL, token.SELECT:
	case token.BLOCK:
		construct = b.switchSelect(construct)
	default:
		invariant.Precondition(false, "break out of %s", b.Kind(construct))
	}
	id := b.New(token.BREAK, line)
	b.SetControl(id, &Exit{Construct: construct})
	return id
}

// CreateContinue returns a continue of loop.
func (b *Builder) CreateContinue(loop NodeID, line int) NodeID {
	invariant.Precondition(b.Kind(loop) == token.LOOP, "continue of %s", b.Kind(loop))
	id := b.New(token.CONTINUE, line)
	b.SetControl(id, &Exit{Construct: loop})
	return id
}

// CreateSwitch returns the block of a switch on expr. Cases are added with
// AddSwitchCase and the block is finished by CloseSwitch.
func (b *Builder) CreateSwitch(expr NodeID, line int) NodeID {
	sel := b.New(token.SELECT, line, expr)
	b.SetControl(sel, &Switch{})
	return b.New(token.BLOCK, line, sel)
}

func (b *Builder) switchSelect(block NodeID) NodeID {
	invariant.Precondition(b.Kind(block) == token.BLOCK, "switch block is %s", b.Kind(block))
	sel := b.First(block)
	invariant.Precondition(sel != Nil && b.Kind(sel) == token.SELECT, "block %d is not a switch", block)
	return sel
}

// AddSwitchCase appends a case labelled by expr, or the default case when
// expr is Nil, whose statements are stmts.
func (b *Builder) AddSwitchCase(block, expr, stmts NodeID) {
	sel := b.switchSelect(block)
	sc := b.Control(sel).(*Switch)
	target := b.NewTarget()
	if expr != Nil {
		branch := b.New(token.CASE_BRANCH, 0, expr)
		b.SetControl(branch, &Branch{Target: target})
		b.AddChildToBack(sel, branch)
	} else {
		invariant.Precondition(sc.Default == Nil, "switch %d has two default cases", block)
		sc.Default = target
	}
	b.AddChildToBack(block, target)
	b.AddChildToBack(block, stmts)
}

// CloseSwitch finishes a switch block: unmatched values go to the default
// case or past the switch.
func (b *Builder) CloseSwitch(block NodeID) {
	sel := b.switchSelect(block)
	sc := b.Control(sel).(*Switch)
	invariant.Precondition(sc.Break == Nil, "switch %d closed twice", block)
	breakTarget := b.NewTarget()
	sc.Break = breakTarget
	fallback := sc.Default
	if fallback == Nil {
		fallback = breakTarget
	}
	b.InsertAfter(block, b.NewJump(token.GOTO, fallback), sel)
	b.AddChildToBack(block, breakTarget)
}
