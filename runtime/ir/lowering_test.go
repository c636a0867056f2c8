package ir

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/jsfront/core/token"
)

func exprStmt(b *Builder, name string) NodeID {
	return b.CreateExprStatementNoReturn(b.CreateName(name), 1)
}

func TestWhileLoop(t *testing.T) {
	b := NewBuilder()
	loop := b.CreateLoopNode(Nil, 1)
	b.CreateWhile(loop, b.CreateName("b"), exprStmt(b, "d"))

	checkDump(t, b, loop, `LOOP #1 break=#4 continue=#3
  GOTO -> #3
  TARGET #2
  EXPR_VOID
    NAME "d"
  EMPTY
  TARGET #3
  IFEQ -> #2
    NAME "b"
  TARGET #4
`)

	// The condition re-test is the continue destination.
	lc := b.Control(loop).(*Loop)
	kids := b.Children(loop)
	condTarget := kids[slices.IndexFunc(kids, func(id NodeID) bool { return b.Kind(id) == token.IFEQ })-1]
	assert.Equal(t, condTarget, lc.Continue)
	assert.Equal(t, b.Last(loop), lc.Break)
	require.NoError(t, b.Validate(loop))
}

func TestForLoop(t *testing.T) {
	b := NewBuilder()
	loop := b.CreateLoopNode(Nil, 1)
	b.CreateFor(loop, b.CreateName("a"), b.CreateName("b"), b.CreateName("c"), exprStmt(b, "d"))

	checkDump(t, b, loop, `LOOP #1 break=#5 continue=#3
  EXPR_VOID
    NAME "a"
  GOTO -> #4
  TARGET #2
  EXPR_VOID
    NAME "d"
  TARGET #3
  EXPR_VOID
    NAME "c"
  EMPTY
  TARGET #4
  IFEQ -> #2
    NAME "b"
  TARGET #5
`)

	lc := b.Control(loop).(*Loop)
	kids := b.Children(loop)
	cont := slices.Index(kids, lc.Continue)
	ifeq := slices.IndexFunc(kids, func(id NodeID) bool { return b.Kind(id) == token.IFEQ })
	condTarget := kids[ifeq-1]
	assert.NotEqual(t, condTarget, lc.Continue)
	assert.Less(t, cont, ifeq-1, "increment must run before the condition re-test")
}

func TestForLoopEmptyClauses(t *testing.T) {
	b := NewBuilder()
	loop := b.CreateLoopNode(Nil, 1)
	empty := func() NodeID { return b.CreateLeaf(token.EMPTY) }
	b.CreateFor(loop, empty(), empty(), empty(), b.CreateBlock(1))

	checkDump(t, b, loop, `LOOP #1 break=#5 continue=#3
  GOTO -> #4
  TARGET #2
  BLOCK
  TARGET #3
  EMPTY
  TARGET #4
  IFEQ -> #2
    TRUE
  TARGET #5
`)
}

func TestForLoopKeepsVarInit(t *testing.T) {
	b := NewBuilder()
	decl := b.CreateVariables(1)
	b.AddChildToBack(decl, b.CreateName("i"))
	loop := b.CreateLoopNode(Nil, 1)
	b.CreateFor(loop, decl, b.CreateLeaf(token.EMPTY), b.CreateLeaf(token.EMPTY), b.CreateBlock(1))
	assert.Equal(t, decl, b.First(loop))
}

func TestDoWhileLoop(t *testing.T) {
	b := NewBuilder()
	loop := b.CreateLoopNode(Nil, 1)
	b.CreateDoWhile(loop, exprStmt(b, "d"), b.CreateName("b"))

	checkDump(t, b, loop, `LOOP #1 break=#4 continue=#3
  TARGET #2
  EXPR_VOID
    NAME "d"
  TARGET #3
  IFEQ -> #2
    NAME "b"
  TARGET #4
`)
	assert.Panics(t, func() { b.CreateDoWhile(loop, b.CreateBlock(1), b.CreateName("b")) })
}

func TestForIn(t *testing.T) {
	t.Run("var", func(t *testing.T) {
		b := NewBuilder()
		decl := b.CreateVariables(1)
		b.AddChildToBack(decl, b.CreateName("k"))
		loop := b.CreateLoopNode(Nil, 1)
		local := b.CreateForIn(loop, decl, b.CreateName("o"), exprStmt(b, "k"), false)

		checkDump(t, b, local, `LOCAL_BLOCK #1
  VAR
    NAME "k"
  ENUM_INIT_KEYS local=#1
    NAME "o"
  LOOP #2 break=#5 continue=#4
    GOTO -> #4
    TARGET #3
    BLOCK
      EXPR_VOID
        SETNAME
          BINDNAME "k"
          ENUM_ID local=#1
      EXPR_VOID
        NAME "k"
    EMPTY
    TARGET #4
    IFEQ -> #3
      ENUM_NEXT local=#1
    TARGET #5
`)
		require.NoError(t, b.Validate(local))
	})

	t.Run("for each into property", func(t *testing.T) {
		b := NewBuilder()
		loop := b.CreateLoopNode(Nil, 1)
		lhs := b.CreatePropertyGet(b.CreateName("a"), "v")
		local := b.CreateForIn(loop, lhs, b.CreateName("o"), b.CreateBlock(1), true)

		init := b.First(local)
		assert.Equal(t, token.ENUM_INIT_VALUES, b.Kind(init))
		assert.Equal(t, local, b.NodeProp(init, PropLocalBlock))

		var setprop NodeID
		b.Walk(local, func(id NodeID) bool {
			if b.Kind(id) == token.SETPROP {
				setprop = id
			}
			return true
		})
		require.NotEqual(t, Nil, setprop)
		assert.Equal(t, []token.Kind{token.NAME, token.STRING, token.ENUM_ID}, childKinds(b.Tree, setprop))
	})

	t.Run("multiple names", func(t *testing.T) {
		b := NewBuilder()
		decl := b.CreateVariables(1)
		b.AddChildToBack(decl, b.CreateName("a"))
		b.AddChildToBack(decl, b.CreateName("b"))
		loop := b.CreateLoopNode(Nil, 1)
		assert.Panics(t, func() { b.CreateForIn(loop, decl, b.CreateName("o"), b.CreateBlock(1), false) })
	})
}

func TestSwitch(t *testing.T) {
	b := NewBuilder()
	block := b.CreateSwitch(b.CreateName("x"), 1)
	caseBody := b.CreateBlock(2)
	b.AddChildToBack(caseBody, exprStmt(b, "a"))
	b.AddSwitchCase(block, b.CreateNumber(1), caseBody)
	b.AddSwitchCase(block, Nil, b.CreateBlock(3))
	b.CloseSwitch(block)

	checkDump(t, b, block, `BLOCK
  SELECT #1 break=#4 default=#3
    NAME "x"
    CASE_BRANCH -> #2
      NUMBER 1
  GOTO -> #3
  TARGET #2
  BLOCK
    EXPR_VOID
      NAME "a"
  TARGET #3
  BLOCK
  TARGET #4
`)

	assert.Panics(t, func() { b.AddSwitchCase(block, Nil, b.CreateBlock(4)) }, "second default")
	assert.Panics(t, func() { b.CloseSwitch(block) }, "closed twice")

	brk := b.CreateBreak(block, 2)
	assert.Equal(t, b.First(block), b.Control(brk).(*Exit).Construct)
}

func TestSwitchWithoutDefaultFallsPast(t *testing.T) {
	b := NewBuilder()
	block := b.CreateSwitch(b.CreateName("x"), 1)
	b.AddSwitchCase(block, b.CreateNumber(1), b.CreateBlock(2))
	b.CloseSwitch(block)

	sc := b.Control(b.First(block)).(*Switch)
	goTo := b.Children(block)[1]
	assert.Equal(t, token.GOTO, b.Kind(goTo))
	assert.Equal(t, sc.Break, b.Control(goTo).(*Branch).Target)
	assert.Equal(t, Nil, sc.Default)
}

func TestLabeledLoop(t *testing.T) {
	b := NewBuilder()
	label := b.CreateLabel("out", 1)
	loop := b.CreateLoopNode(label, 1)
	b.CreateWhile(loop, b.CreateName("c"), b.CreateBreak(label, 2))
	stmt := b.CreateLabeledStatement(label, loop)

	checkDump(t, b, stmt, `BLOCK
  LABEL #1 "out" loop=#2 break=#6
  LOOP #2 break=#5 continue=#4
    GOTO -> #4
    TARGET #3
    BREAK exits=#1
    EMPTY
    TARGET #4
    IFEQ -> #3
      NAME "c"
    TARGET #5
  TARGET #6
`)
	assert.Panics(t, func() { b.CreateContinue(label, 3) })
	assert.Panics(t, func() { b.CreateBreak(b.CreateName("x"), 3) })
}

func countKind(b *Builder, root NodeID, kind token.Kind) []NodeID {
	var found []NodeID
	b.Walk(root, func(id NodeID) bool {
		if b.Kind(id) == kind {
			found = append(found, id)
		}
		return true
	})
	return found
}

func TestTryFinallyCoversEveryExit(t *testing.T) {
	b := NewBuilder()
	loop := b.CreateLoopNode(Nil, 1)

	tryBlock := b.CreateBlock(2)
	b.AddChildToBack(tryBlock, b.CreateReturn(b.CreateNumber(1), 3))
	b.AddChildToBack(tryBlock, b.CreateBreak(loop, 4))
	b.AddChildToBack(tryBlock, exprStmt(b, "x"))
	finally := b.CreateBlock(6)
	b.AddChildToBack(finally, exprStmt(b, "f"))

	try := b.CreateTryCatchFinally(tryBlock, Nil, finally, 2)
	b.CreateWhile(loop, b.CreateName("c"), try)

	want := []token.Kind{
		token.EXPR_RESULT, token.JSR, token.RETURN_RESULT,
		token.JSR, token.BREAK,
		token.EXPR_VOID,
	}
	if diff := cmp.Diff(want, childKinds(b.Tree, tryBlock)); diff != "" {
		t.Errorf("try block mismatch (-want +got):\n%s", diff)
	}

	region := b.First(try)
	require.Equal(t, token.TRY_REGION, b.Kind(region))
	want = []token.Kind{token.BLOCK, token.JSR, token.GOTO, token.TARGET, token.FINALLY_BLOCK, token.TARGET}
	if diff := cmp.Diff(want, childKinds(b.Tree, region)); diff != "" {
		t.Errorf("region mismatch (-want +got):\n%s", diff)
	}

	tc := b.Control(region).(*Try)
	jsrs := countKind(b, loop, token.JSR)
	assert.Len(t, jsrs, 3)
	for _, j := range jsrs {
		assert.Equal(t, tc.Finally, b.Control(j).(*Branch).Target)
	}
	assert.Len(t, countKind(b, loop, token.FINALLY_BLOCK), 1)
	assert.Equal(t, Nil, tc.Catch)
	require.NoError(t, b.Validate(loop))
}

func TestTryFinallyIgnoresInnerExits(t *testing.T) {
	b := NewBuilder()
	tryBlock := b.CreateBlock(1)
	inner := b.CreateLoopNode(Nil, 2)
	b.CreateWhile(inner, b.CreateName("c"), b.CreateBreak(inner, 2))
	b.AddChildToBack(tryBlock, inner)
	finally := b.CreateBlock(3)
	b.AddChildToBack(finally, exprStmt(b, "f"))

	try := b.CreateTryCatchFinally(tryBlock, Nil, finally, 1)
	assert.Len(t, countKind(b, try, token.JSR), 1, "only the fallthrough calls finally")
}

func TestTryCatchFinally(t *testing.T) {
	b := NewBuilder()
	tryBlock := b.CreateBlock(1)
	b.AddChildToBack(tryBlock, exprStmt(b, "a"))
	body := b.CreateBlock(2)
	b.AddChildToBack(body, exprStmt(b, "b"))
	catches := b.CreateBlock(2)
	b.AddChildToBack(catches, b.CreateCatch("e", Nil, body, 2))
	finally := b.CreateBlock(3)
	b.AddChildToBack(finally, exprStmt(b, "c"))

	try := b.CreateTryCatchFinally(tryBlock, catches, finally, 1)
	checkDump(t, b, try, `LOCAL_BLOCK #1
  TRY_REGION catch=#2 finally=#5 local=#1
    BLOCK
      EXPR_VOID
        NAME "a"
    GOTO -> #4
    TARGET #2
    LOCAL_BLOCK #3
      CATCH_SCOPE local=#3 scope=0
        NAME "e"
        USE_LOCAL local=#1
      BLOCK
        ENTERWITH
          USE_LOCAL local=#3
        WITH_BODY
          BLOCK
            EXPR_VOID
              NAME "b"
            LEAVEWITH
            GOTO -> #4
        LEAVEWITH
    TARGET #4
    JSR -> #5
    GOTO -> #6
    TARGET #5
    FINALLY_BLOCK local=#1
      BLOCK
        EXPR_VOID
          NAME "c"
    TARGET #6
`)
	require.NoError(t, b.Validate(try))
}

func TestConditionalCatchRethrows(t *testing.T) {
	b := NewBuilder()
	tryBlock := b.CreateBlock(1)
	b.AddChildToBack(tryBlock, exprStmt(b, "a"))
	catches := b.CreateBlock(2)
	b.AddChildToBack(catches, b.CreateCatch("e", b.CreateName("cond"), b.CreateBlock(2), 2))

	try := b.CreateTryCatchFinally(tryBlock, catches, Nil, 1)
	region := b.First(try)
	assert.Len(t, countKind(b, try, token.RETHROW), 1)
	assert.Len(t, countKind(b, try, token.IFNE), 1)
	assert.Equal(t, Nil, b.Control(region).(*Try).Finally)
	assert.Empty(t, countKind(b, try, token.JSR))
}

func TestCatchReturnLeavesScopeThenFinally(t *testing.T) {
	b := NewBuilder()
	b.Enter(b.CreateFunction("f", FunctionStatement, 1))
	tryBlock := b.CreateBlock(1)
	b.AddChildToBack(tryBlock, exprStmt(b, "a"))
	body := b.CreateBlock(2)
	b.AddChildToBack(body, b.CreateReturn(Nil, 2))
	catches := b.CreateBlock(2)
	b.AddChildToBack(catches, b.CreateCatch("e", Nil, body, 2))
	finally := b.CreateBlock(3)
	b.AddChildToBack(finally, exprStmt(b, "c"))

	b.CreateTryCatchFinally(tryBlock, catches, finally, 1)
	want := []token.Kind{token.LEAVEWITH, token.JSR, token.RETURN, token.LEAVEWITH, token.GOTO}
	if diff := cmp.Diff(want, childKinds(b.Tree, body)); diff != "" {
		t.Errorf("catch body mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, b.Unit().RequiresActivation)
}

func TestTryShortCircuits(t *testing.T) {
	t.Run("empty try", func(t *testing.T) {
		b := NewBuilder()
		tryBlock := b.CreateBlock(1)
		catches := b.CreateBlock(1)
		b.AddChildToBack(catches, b.CreateCatch("e", Nil, b.CreateBlock(1), 1))
		assert.Equal(t, tryBlock, b.CreateTryCatchFinally(tryBlock, catches, Nil, 1))
	})

	t.Run("empty finally and no catch", func(t *testing.T) {
		b := NewBuilder()
		tryBlock := b.CreateBlock(1)
		b.AddChildToBack(tryBlock, exprStmt(b, "a"))
		assert.Equal(t, tryBlock, b.CreateTryCatchFinally(tryBlock, b.CreateBlock(1), b.CreateBlock(1), 1))
	})

	t.Run("empty try with finally", func(t *testing.T) {
		b := NewBuilder()
		finally := b.CreateBlock(1)
		b.AddChildToBack(finally, exprStmt(b, "f"))
		try := b.CreateTryCatchFinally(b.CreateBlock(1), Nil, finally, 1)
		assert.Equal(t, token.LOCAL_BLOCK, b.Kind(try))
	})
}

func TestWith(t *testing.T) {
	b := NewBuilder()
	fn := b.CreateFunction("f", FunctionStatement, 1)
	b.Enter(fn)
	body := b.CreateBlock(1)
	b.AddChildToBack(body, b.CreateReturn(b.CreateName("x"), 1))
	with := b.CreateWith(b.CreateName("o"), body, 1)

	checkDump(t, b, with, `BLOCK
  ENTERWITH
    NAME "o"
  WITH_BODY
    BLOCK
      EXPR_RESULT
        NAME "x"
      LEAVEWITH
      RETURN_RESULT
  LEAVEWITH
`)
	assert.True(t, fn.RequiresActivation)
}

func TestWithLeavesOnOuterBreakOnly(t *testing.T) {
	b := NewBuilder()
	outer := b.CreateLoopNode(Nil, 1)
	body := b.CreateBlock(1)
	inner := b.CreateLoopNode(Nil, 2)
	b.CreateWhile(inner, b.CreateName("c"), b.CreateContinue(inner, 2))
	b.AddChildToBack(body, inner)
	b.AddChildToBack(body, b.CreateContinue(outer, 3))
	with := b.CreateWith(b.CreateName("o"), body, 1)

	// The trailing LEAVEWITH plus one before the outer continue.
	assert.Len(t, countKind(b, with, token.LEAVEWITH), 2)
	assert.Equal(t, []token.Kind{token.LOOP, token.LEAVEWITH, token.CONTINUE}, childKinds(b.Tree, body))
}
