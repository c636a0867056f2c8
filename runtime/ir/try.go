package ir

import (
	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// CreateWith lowers with (obj) body into
//
//	ENTERWITH(obj) WITH_BODY(body) LEAVEWITH
//
// Every exit leaving body gets its own LEAVEWITH first.
func (b *Builder) CreateWith(obj, body NodeID, line int) NodeID {
	b.requireActivation()
	withBody := b.New(token.WITH_BODY, line, body)
	b.unwindExits(withBody, func() NodeID { return b.New(token.LEAVEWITH, 0) })
	return b.New(token.BLOCK, line,
		b.New(token.ENTERWITH, 0, obj),
		withBody,
		b.New(token.LEAVEWITH, 0))
}

// CreateCatch returns a catch clause binding name. cond is the optional
// guard expression, or Nil for an unconditional clause.
func (b *Builder) CreateCatch(name string, cond, body NodeID, line int) NodeID {
	if cond == Nil {
		cond = b.New(token.EMPTY, 0)
	}
	return b.New(token.CATCH, line, b.CreateName(name), cond, body)
}

// CreateTryCatchFinally lowers a try statement. catches is a BLOCK of
// clauses from CreateCatch; finally may be Nil.
//
// The result is a LOCAL_BLOCK holding the exception slot:
//
//	TRY_REGION[ <try> JSR fin GOTO endCatch
//	            catch: CATCH_SCOPE... RETHROW endCatch:
//	            JSR fin GOTO end fin: FINALLY_BLOCK(<finally>) end: ]
//
// Every return, break or continue that leaves the region calls the finally
// subroutine on the way out.
func (b *Builder) CreateTryCatchFinally(tryBlock, catches, finally NodeID, line int) NodeID {
	invariant.Precondition(catches == Nil || b.Kind(catches) == token.BLOCK, "catch list is %s", b.Kind(catches))
	hasFinally := finally != Nil && (b.Kind(finally) != token.BLOCK || b.HasChildren(finally))

	// Nothing to protect.
	if b.Kind(tryBlock) == token.BLOCK && !b.HasChildren(tryBlock) && !hasFinally {
		return tryBlock
	}
	hasCatch := catches != Nil && b.HasChildren(catches)
	if !hasFinally && !hasCatch {
		return tryBlock
	}

	handlerBlock := b.New(token.LOCAL_BLOCK, line)
	region := b.New(token.TRY_REGION, line, tryBlock)
	tc := &Try{}
	b.SetControl(region, tc)
	b.SetProp(region, PropLocalBlock, handlerBlock)

	if hasCatch {
		b.addCatchClauses(region, tc, handlerBlock, catches, line)
	}

	if hasFinally {
		finallyTarget := b.NewTarget()
		tc.Finally = finallyTarget
		b.unwindExits(region, func() NodeID { return b.NewJump(token.JSR, finallyTarget) })

		finallyEnd := b.NewTarget()
		b.AddChildToBack(region, b.NewJump(token.JSR, finallyTarget))
		b.AddChildToBack(region, b.NewJump(token.GOTO, finallyEnd))
		b.AddChildToBack(region, finallyTarget)
		fin := b.New(token.FINALLY_BLOCK, 0, finally)
		b.SetProp(fin, PropLocalBlock, handlerBlock)
		b.AddChildToBack(region, fin)
		b.AddChildToBack(region, finallyEnd)
	}

	b.AddChildToBack(handlerBlock, region)
	return handlerBlock
}

func (b *Builder) addCatchClauses(region NodeID, tc *Try, handlerBlock, catches NodeID, line int) {
	endCatch := b.NewTarget()
	catchTarget := b.NewTarget()
	tc.Catch = catchTarget
	b.AddChildToBack(region, b.NewJump(token.GOTO, endCatch))
	b.AddChildToBack(region, catchTarget)

	// All clauses share one scope slot that holds the exception.
	catchScopeBlock := b.New(token.LOCAL_BLOCK, line)
	hasDefault := false
	scopeIndex := 0
	for b.HasChildren(catches) {
		clause := b.First(catches)
		b.RemoveChild(catches, clause)
		invariant.Precondition(b.Kind(clause) == token.CATCH && b.ChildCount(clause) == 3,
			"malformed catch clause %d", clause)
		kids := b.Children(clause)
		name, cond, stmts := kids[0], kids[1], kids[2]
		b.RemoveChild(clause, name)
		b.RemoveChild(clause, cond)
		b.RemoveChild(clause, stmts)

		b.AddChildToBack(stmts, b.New(token.LEAVEWITH, 0))
		b.AddChildToBack(stmts, b.NewJump(token.GOTO, endCatch))

		var condStmt NodeID
		if b.Kind(cond) == token.EMPTY {
			condStmt = stmts
			hasDefault = true
		} else {
			condStmt = b.CreateIf(cond, stmts, Nil, b.Line(clause))
		}

		useHandler := b.New(token.USE_LOCAL, 0)
		b.SetProp(useHandler, PropLocalBlock, handlerBlock)
		scope := b.New(token.CATCH_SCOPE, b.Line(clause), name, useHandler)
		b.SetProp(scope, PropLocalBlock, catchScopeBlock)
		b.SetProp(scope, PropCatchScope, scopeIndex)
		scopeIndex++
		b.AddChildToBack(catchScopeBlock, scope)

		useScope := b.New(token.USE_LOCAL, 0)
		b.SetProp(useScope, PropLocalBlock, catchScopeBlock)
		b.AddChildToBack(catchScopeBlock, b.CreateWith(useScope, condStmt, b.Line(clause)))
	}
	b.AddChildToBack(region, catchScopeBlock)
	if !hasDefault {
		rethrow := b.New(token.RETHROW, 0)
		b.SetProp(rethrow, PropLocalBlock, handlerBlock)
		b.AddChildToBack(region, rethrow)
	}
	b.AddChildToBack(region, endCatch)
}

// unwindExits inserts the node made by step immediately before every
// return, and every break or continue whose construct lies outside region.
// A return with a value is split so the value is computed before the step
// runs: EXPR_RESULT(value) step RETURN_RESULT.
func (b *Builder) unwindExits(region NodeID, step func() NodeID) {
	var exits []NodeID
	b.Walk(region, func(id NodeID) bool {
		switch b.Kind(id) {
		case token.RETURN, token.RETURN_RESULT:
			exits = append(exits, id)
			return false
		case token.BREAK, token.CONTINUE:
			if ex, ok := b.Control(id).(*Exit); ok && !b.IsAncestor(region, ex.Construct) {
				exits = append(exits, id)
			}
			return false
		case token.FUNCTION:
			return false
		}
		return true
	})
	for _, exit := range exits {
		parent := b.Parent(exit)
		invariant.Invariant(parent != Nil, "exit %d has no parent", exit)
		if b.Kind(exit) == token.RETURN && b.HasChildren(exit) {
			value := b.First(exit)
			b.RemoveChild(exit, value)
			b.InsertBefore(parent, b.New(token.EXPR_RESULT, b.Line(exit), value), exit)
			b.SetKind(exit, token.RETURN_RESULT)
		}
		b.InsertBefore(parent, step(), exit)
	}
}
