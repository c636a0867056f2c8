// Package ir holds the intermediate tree produced by parsing and the
// Builder that constructs it while lowering structured control flow into
// jumps and targets.
package ir

import (
	"fmt"

	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
)

// NodeID addresses a node in a Tree. The zero value is Nil.
type NodeID int32

// Nil is the absent node.
const Nil NodeID = 0

// Prop identifies a side-table property of a node.
type Prop int

const (
	PropFunction    Prop = iota + 1 // int: index into the enclosing unit's Functions
	PropLocalBlock                  // NodeID: LOCAL_BLOCK the node allocates or uses
	PropRegExp                      // int: index into the unit's RegExps
	PropSkipIndexes                 // []int: holes in an array literal
	PropObjectIDs                   // []any: property ids (string or float64) of an object literal
	PropIncrDecr                    // int: IncrDecrDec | IncrDecrPost
	PropSpecialCall                 // SpecialCall
	PropName                        // string: name of a SPECIAL_REF
	PropCatchScope                  // int: catch clause index within its try
)

var propNames = map[Prop]string{
	PropFunction:    "fn",
	PropLocalBlock:  "local",
	PropRegExp:      "regexp",
	PropSkipIndexes: "skip",
	PropObjectIDs:   "ids",
	PropIncrDecr:    "incdec",
	PropSpecialCall: "special",
	PropName:        "name",
	PropCatchScope:  "scope",
}

func (p Prop) String() string {
	if n, ok := propNames[p]; ok {
		return n
	}
	return fmt.Sprintf("prop(%d)", int(p))
}

// Flags of PropIncrDecr.
const (
	IncrDecrDec  = 1
	IncrDecrPost = 2
)

// SpecialCall marks calls the runtime must treat specially.
type SpecialCall int

const (
	NonSpecialCall SpecialCall = iota
	SpecialCallEval
)

// Control is the jump information of a control node. Its concrete type
// depends on the node's kind.
type Control interface {
	isControl()
}

// Loop is the control of a LOOP node.
type Loop struct {
	Break    NodeID
	Continue NodeID
}

// Switch is the control of a SELECT node.
type Switch struct {
	Break   NodeID
	Default NodeID
}

// Try is the control of a TRY_REGION node. Either target may be Nil.
type Try struct {
	Catch   NodeID
	Finally NodeID
}

// Label is the control of a LABEL node. Loop is the loop the label names,
// if any; Break is the target after the labeled statement.
type Label struct {
	Name  string
	Loop  NodeID
	Break NodeID
}

// Exit is the control of BREAK and CONTINUE: the construct being left.
type Exit struct {
	Construct NodeID
}

// Branch is the control of GOTO, IFEQ, IFNE, JSR and CASE_BRANCH.
type Branch struct {
	Target NodeID
}

func (*Loop) isControl()   {}
func (*Switch) isControl() {}
func (*Try) isControl()    {}
func (*Label) isControl()  {}
func (*Exit) isControl()   {}
func (*Branch) isControl() {}

type node struct {
	kind     token.Kind
	line     int
	parent   NodeID
	children []NodeID
	num      float64
	str      string
	control  Control
	props    map[Prop]any
}

// Tree is an arena of nodes. A tree belongs to one compilation.
type Tree struct {
	nodes []node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make([]node, 1, 256)}
}

// Len returns the number of nodes ever allocated.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

func (t *Tree) at(id NodeID) *node {
	invariant.Precondition(id > Nil && int(id) < len(t.nodes), "node %d does not exist", id)
	return &t.nodes[id]
}

// New allocates a node of kind with the given children appended in order.
func (t *Tree) New(kind token.Kind, line int, children ...NodeID) NodeID {
	invariant.Precondition(kind.Valid(), "invalid kind %d", int(kind))
	t.nodes = append(t.nodes, node{kind: kind, line: line})
	id := NodeID(len(t.nodes) - 1)
	for _, c := range children {
		t.AddChildToBack(id, c)
	}
	return id
}

// NewNumber allocates a NUMBER literal.
func (t *Tree) NewNumber(v float64) NodeID {
	id := t.New(token.NUMBER, 0)
	t.nodes[id].num = v
	return id
}

// NewString allocates a leaf of kind carrying text, such as NAME or STRING.
func (t *Tree) NewString(kind token.Kind, s string) NodeID {
	id := t.New(kind, 0)
	t.nodes[id].str = s
	return id
}

// NewTarget allocates a jump target.
func (t *Tree) NewTarget() NodeID {
	return t.New(token.TARGET, 0)
}

// NewJump allocates a branch of kind to target.
func (t *Tree) NewJump(kind token.Kind, target NodeID, children ...NodeID) NodeID {
	invariant.Precondition(t.Kind(target) == token.TARGET, "jump to %s, not a target", t.Kind(target))
	id := t.New(kind, 0, children...)
	t.nodes[id].control = &Branch{Target: target}
	return id
}

func (t *Tree) Kind(id NodeID) token.Kind       { return t.at(id).kind }
func (t *Tree) SetKind(id NodeID, k token.Kind) { t.at(id).kind = k }
func (t *Tree) Line(id NodeID) int              { return t.at(id).line }
func (t *Tree) SetLine(id NodeID, line int)     { t.at(id).line = line }
func (t *Tree) Parent(id NodeID) NodeID         { return t.at(id).parent }
func (t *Tree) Num(id NodeID) float64           { return t.at(id).num }
func (t *Tree) SetNum(id NodeID, v float64)     { t.at(id).num = v }
func (t *Tree) Str(id NodeID) string            { return t.at(id).str }
func (t *Tree) SetStr(id NodeID, s string)      { t.at(id).str = s }
func (t *Tree) Control(id NodeID) Control       { return t.at(id).control }
func (t *Tree) SetControl(id NodeID, c Control) { t.at(id).control = c }
func (t *Tree) ChildCount(id NodeID) int        { return len(t.at(id).children) }
func (t *Tree) HasChildren(id NodeID) bool      { return len(t.at(id).children) > 0 }

// Children returns id's children. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.at(id).children
}

// First returns the first child, or Nil.
func (t *Tree) First(id NodeID) NodeID {
	if c := t.at(id).children; len(c) > 0 {
		return c[0]
	}
	return Nil
}

// Last returns the last child, or Nil.
func (t *Tree) Last(id NodeID) NodeID {
	if c := t.at(id).children; len(c) > 0 {
		return c[len(c)-1]
	}
	return Nil
}

// Next returns the sibling after id, or Nil.
func (t *Tree) Next(id NodeID) NodeID {
	p := t.at(id).parent
	if p == Nil {
		return Nil
	}
	siblings := t.nodes[p].children
	i := t.indexOf(p, id)
	if i+1 < len(siblings) {
		return siblings[i+1]
	}
	return Nil
}

// Prop returns the value of property p, or nil.
func (t *Tree) Prop(id NodeID, p Prop) any {
	return t.at(id).props[p]
}

// IntProp returns an int property, or def when it is unset.
func (t *Tree) IntProp(id NodeID, p Prop, def int) int {
	if v, ok := t.at(id).props[p].(int); ok {
		return v
	}
	return def
}

// NodeProp returns a NodeID property, or Nil when it is unset.
func (t *Tree) NodeProp(id NodeID, p Prop) NodeID {
	if v, ok := t.at(id).props[p].(NodeID); ok {
		return v
	}
	return Nil
}

// SetProp sets property p.
func (t *Tree) SetProp(id NodeID, p Prop, v any) {
	n := t.at(id)
	if n.props == nil {
		n.props = make(map[Prop]any, 2)
	}
	n.props[p] = v
}

// RemoveProp deletes property p.
func (t *Tree) RemoveProp(id NodeID, p Prop) {
	delete(t.at(id).props, p)
}

func (t *Tree) indexOf(parent, child NodeID) int {
	for i, c := range t.nodes[parent].children {
		if c == child {
			return i
		}
	}
	invariant.Invariant(false, "node %d is not a child of %d", child, parent)
	return -1
}

// attachable checks that child can become a child of parent without
// giving it two parents or creating a cycle.
func (t *Tree) attachable(parent, child NodeID) {
	invariant.Precondition(t.at(child).parent == Nil, "node %d (%s) already has parent %d",
		child, t.nodes[child].kind, t.nodes[child].parent)
	for p := parent; p != Nil; p = t.at(p).parent {
		invariant.Precondition(p != child, "adding %d under %d would create a cycle", child, parent)
	}
}

// AddChildToFront makes child the first child of parent.
func (t *Tree) AddChildToFront(parent, child NodeID) {
	t.attachable(parent, child)
	n := t.at(parent)
	n.children = append(n.children, Nil)
	copy(n.children[1:], n.children)
	n.children[0] = child
	t.nodes[child].parent = parent
}

// AddChildToBack makes child the last child of parent.
func (t *Tree) AddChildToBack(parent, child NodeID) {
	t.attachable(parent, child)
	n := t.at(parent)
	n.children = append(n.children, child)
	t.nodes[child].parent = parent
}

// InsertBefore inserts child immediately before the existing child before.
func (t *Tree) InsertBefore(parent, child, before NodeID) {
	t.attachable(parent, child)
	t.insertAt(parent, child, t.indexOf(parent, before))
}

// InsertAfter inserts child immediately after the existing child after.
func (t *Tree) InsertAfter(parent, child, after NodeID) {
	t.attachable(parent, child)
	t.insertAt(parent, child, t.indexOf(parent, after)+1)
}

func (t *Tree) insertAt(parent, child NodeID, i int) {
	n := t.at(parent)
	n.children = append(n.children, Nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	t.nodes[child].parent = parent
}

// RemoveChild detaches child from parent.
func (t *Tree) RemoveChild(parent, child NodeID) {
	i := t.indexOf(parent, child)
	n := t.at(parent)
	n.children = append(n.children[:i], n.children[i+1:]...)
	t.nodes[child].parent = Nil
}

// ReplaceChild puts replacement where old was and detaches old.
func (t *Tree) ReplaceChild(parent, old, replacement NodeID) {
	t.attachable(parent, replacement)
	i := t.indexOf(parent, old)
	t.at(parent).children[i] = replacement
	t.nodes[replacement].parent = parent
	t.nodes[old].parent = Nil
}

// IsAncestor reports whether anc is id or one of its ancestors.
func (t *Tree) IsAncestor(anc, id NodeID) bool {
	for p := id; p != Nil; p = t.at(p).parent {
		if p == anc {
			return true
		}
	}
	return false
}

// Walk visits root and its descendants depth first, parents before
// children. Returning false from fn skips the node's children.
func (t *Tree) Walk(root NodeID, fn func(id NodeID) bool) {
	if !fn(root) {
		return
	}
	for _, c := range t.at(root).children {
		t.Walk(c, fn)
	}
}

// Validate checks the structural invariants of the finished tree under
// root: parent links agree with child lists and no grammar-only kind
// remains.
func (t *Tree) Validate(root NodeID) error {
	var err error
	t.Walk(root, func(id NodeID) bool {
		if err != nil {
			return false
		}
		n := t.at(id)
		if n.kind.IsGrammarOnly() {
			err = fmt.Errorf("node %d: grammar-only kind %s remains after lowering", id, n.kind)
			return false
		}
		for _, c := range n.children {
			if t.nodes[c].parent != id {
				err = fmt.Errorf("node %d: child %d has parent %d", id, c, t.nodes[c].parent)
				return false
			}
		}
		return true
	})
	return err
}
