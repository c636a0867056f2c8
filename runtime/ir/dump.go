package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aledsdavies/jsfront/core/numconv"
	"github.com/aledsdavies/jsfront/core/token"
)

// Dump renders the subtree at root as indented text, one node per line.
// Nodes that other nodes point at (targets, loops, labels, local blocks)
// are labelled #n in order of appearance, so the output is stable for a
// given tree shape and does not depend on arena ids.
func Dump(t *Tree, root NodeID) string {
	d := &dumper{t: t, labels: make(map[NodeID]int)}
	t.Walk(root, func(id NodeID) bool {
		switch t.Kind(id) {
		case token.TARGET, token.LOOP, token.LABEL, token.SELECT, token.LOCAL_BLOCK:
			d.labels[id] = len(d.labels) + 1
		}
		return true
	})
	d.node(root, 0)
	return d.b.String()
}

type dumper struct {
	t      *Tree
	labels map[NodeID]int
	b      strings.Builder
}

func (d *dumper) ref(id NodeID) string {
	if id == Nil {
		return "-"
	}
	if n, ok := d.labels[id]; ok {
		return "#" + strconv.Itoa(n)
	}
	return "#?"
}

func (d *dumper) node(id NodeID, depth int) {
	t := d.t
	d.b.WriteString(strings.Repeat("  ", depth))
	d.b.WriteString(t.Kind(id).String())

	switch t.Kind(id) {
	case token.NUMBER:
		d.b.WriteString(" " + numconv.Format(t.Num(id)))
	case token.NAME, token.STRING, token.BINDNAME, token.TYPEOFNAME, token.FUNCTION:
		d.b.WriteString(" " + strconv.Quote(t.Str(id)))
	}
	if n, ok := d.labels[id]; ok {
		fmt.Fprintf(&d.b, " #%d", n)
	}

	switch c := t.Control(id).(type) {
	case *Loop:
		fmt.Fprintf(&d.b, " break=%s continue=%s", d.ref(c.Break), d.ref(c.Continue))
	case *Switch:
		fmt.Fprintf(&d.b, " break=%s default=%s", d.ref(c.Break), d.ref(c.Default))
	case *Try:
		fmt.Fprintf(&d.b, " catch=%s finally=%s", d.ref(c.Catch), d.ref(c.Finally))
	case *Label:
		fmt.Fprintf(&d.b, " %q loop=%s break=%s", c.Name, d.ref(c.Loop), d.ref(c.Break))
	case *Exit:
		fmt.Fprintf(&d.b, " exits=%s", d.ref(c.Construct))
	case *Branch:
		fmt.Fprintf(&d.b, " -> %s", d.ref(c.Target))
	}

	d.props(id)
	d.b.WriteByte('\n')
	for _, c := range t.Children(id) {
		d.node(c, depth+1)
	}
}

func (d *dumper) props(id NodeID) {
	props := d.t.at(id).props
	if len(props) == 0 {
		return
	}
	keys := make([]Prop, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		d.b.WriteString(" " + k.String() + "=")
		switch v := props[k].(type) {
		case NodeID:
			d.b.WriteString(d.ref(v))
		case SpecialCall:
			if v == SpecialCallEval {
				d.b.WriteString("eval")
			} else {
				d.b.WriteString("none")
			}
		case []any:
			parts := make([]string, len(v))
			for i, x := range v {
				switch x := x.(type) {
				case string:
					parts[i] = strconv.Quote(x)
				case float64:
					parts[i] = numconv.Format(x)
				}
			}
			d.b.WriteString("[" + strings.Join(parts, " ") + "]")
		case string:
			d.b.WriteString(strconv.Quote(v))
		default:
			fmt.Fprint(&d.b, v)
		}
	}
}

// DumpUnit renders u and its nested functions.
func DumpUnit(t *Tree, u *Unit) string {
	var b strings.Builder
	dumpUnit(&b, t, u, "")
	return b.String()
}

func dumpUnit(b *strings.Builder, t *Tree, u *Unit, path string) {
	fmt.Fprintf(b, "unit %s%q %s", path, u.Name, u.Type)
	if len(u.Params) > 0 {
		fmt.Fprintf(b, " params=%v", u.Params)
	}
	if len(u.Vars) > 0 {
		fmt.Fprintf(b, " vars=%v", u.Vars)
	}
	if u.RequiresActivation {
		b.WriteString(" activation")
	}
	b.WriteByte('\n')
	for i, re := range u.RegExps {
		fmt.Fprintf(b, "regexp %d /%s/%s\n", i, re.Pattern, re.Flags)
	}
	b.WriteString(Dump(t, u.Root))
	for i, fn := range u.Functions {
		dumpUnit(b, t, fn, fmt.Sprintf("%s%d/", path, i))
	}
}
