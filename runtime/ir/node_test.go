package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/jsfront/core/token"
)

func childKinds(t *Tree, id NodeID) []token.Kind {
	var kinds []token.Kind
	for _, c := range t.Children(id) {
		kinds = append(kinds, t.Kind(c))
	}
	return kinds
}

func TestChildEditing(t *testing.T) {
	tr := NewTree()
	block := tr.New(token.BLOCK, 1)
	a := tr.New(token.NULL, 1)
	b := tr.New(token.TRUE, 1)
	c := tr.New(token.FALSE, 1)
	d := tr.New(token.THIS, 1)

	tr.AddChildToBack(block, b)
	tr.AddChildToFront(block, a)
	tr.InsertAfter(block, d, b)
	tr.InsertBefore(block, c, d)

	want := []token.Kind{token.NULL, token.TRUE, token.FALSE, token.THIS}
	if diff := cmp.Diff(want, childKinds(tr, block)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, a, tr.First(block))
	assert.Equal(t, d, tr.Last(block))
	assert.Equal(t, c, tr.Next(b))
	assert.Equal(t, Nil, tr.Next(d))
	assert.Equal(t, block, tr.Parent(c))

	tr.RemoveChild(block, b)
	assert.Equal(t, Nil, tr.Parent(b))
	e := tr.New(token.EMPTY, 1)
	tr.ReplaceChild(block, c, e)
	assert.Equal(t, Nil, tr.Parent(c))

	want = []token.Kind{token.NULL, token.EMPTY, token.THIS}
	if diff := cmp.Diff(want, childKinds(tr, block)); diff != "" {
		t.Errorf("children after edits mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, tr.Validate(block))
}

func TestChildEditingContracts(t *testing.T) {
	t.Run("second parent", func(t *testing.T) {
		tr := NewTree()
		x := tr.New(token.NULL, 0)
		tr.New(token.BLOCK, 0, x)
		assert.Panics(t, func() { tr.New(token.BLOCK, 0, x) })
	})

	t.Run("cycle", func(t *testing.T) {
		tr := NewTree()
		inner := tr.New(token.BLOCK, 0)
		outer := tr.New(token.BLOCK, 0, inner)
		assert.Panics(t, func() { tr.AddChildToBack(inner, outer) })
		assert.Panics(t, func() { tr.AddChildToBack(inner, inner) })
	})

	t.Run("not a child", func(t *testing.T) {
		tr := NewTree()
		block := tr.New(token.BLOCK, 0)
		stray := tr.New(token.NULL, 0)
		assert.Panics(t, func() { tr.RemoveChild(block, stray) })
		assert.Panics(t, func() { tr.InsertBefore(block, tr.New(token.TRUE, 0), stray) })
	})

	t.Run("missing node", func(t *testing.T) {
		tr := NewTree()
		assert.Panics(t, func() { tr.Kind(Nil) })
		assert.Panics(t, func() { tr.Kind(42) })
	})

	t.Run("jump to non-target", func(t *testing.T) {
		tr := NewTree()
		assert.Panics(t, func() { tr.NewJump(token.GOTO, tr.New(token.EMPTY, 0)) })
	})
}

func TestProps(t *testing.T) {
	tr := NewTree()
	id := tr.New(token.INC, 0)
	assert.Nil(t, tr.Prop(id, PropIncrDecr))
	assert.Equal(t, -1, tr.IntProp(id, PropIncrDecr, -1))

	tr.SetProp(id, PropIncrDecr, IncrDecrPost)
	assert.Equal(t, IncrDecrPost, tr.IntProp(id, PropIncrDecr, -1))

	block := tr.New(token.LOCAL_BLOCK, 0)
	tr.SetProp(id, PropLocalBlock, block)
	assert.Equal(t, block, tr.NodeProp(id, PropLocalBlock))

	tr.RemoveProp(id, PropLocalBlock)
	assert.Equal(t, Nil, tr.NodeProp(id, PropLocalBlock))
}

func TestValidateRejectsGrammarKinds(t *testing.T) {
	tr := NewTree()
	root := tr.New(token.SCRIPT, 0, tr.New(token.BLOCK, 0, tr.New(token.WHILE, 3)))
	err := tr.Validate(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHILE")
}

func TestWalkSkipsChildren(t *testing.T) {
	tr := NewTree()
	inner := tr.New(token.NAME, 0)
	fn := tr.New(token.FUNCTION, 0, tr.New(token.BLOCK, 0, inner))
	root := tr.New(token.SCRIPT, 0, fn, tr.New(token.NULL, 0))

	var seen []token.Kind
	tr.Walk(root, func(id NodeID) bool {
		seen = append(seen, tr.Kind(id))
		return tr.Kind(id) != token.FUNCTION
	})
	want := []token.Kind{token.SCRIPT, token.FUNCTION, token.NULL}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, tr.IsAncestor(root, inner))
	assert.False(t, tr.IsAncestor(inner, root))
}
