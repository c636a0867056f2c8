package main

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/jsfront/core/artifact"
	"github.com/aledsdavies/jsfront/runtime/ir"
)

// toArtifactUnit snapshots u and its nested functions. Each unit keeps
// its own tree dump; nested bodies appear under their own unit.
func toArtifactUnit(t *ir.Tree, u *ir.Unit) artifact.Unit {
	out := artifact.Unit{
		Name:               u.Name,
		Type:               u.Type.String(),
		Params:             u.Params,
		Vars:               u.Vars,
		RequiresActivation: u.RequiresActivation,
		Tree:               ir.Dump(t, u.Root),
	}
	if u.Source != nil {
		out.Source = u.Source.Units
	}
	for _, re := range u.RegExps {
		out.RegExps = append(out.RegExps, artifact.RegExp{Pattern: re.Pattern, Flags: re.Flags})
	}
	for _, fn := range u.Functions {
		out.Functions = append(out.Functions, toArtifactUnit(t, fn))
	}
	return out
}

// dumpArtifactUnit renders u in the same layout as ir.DumpUnit.
func dumpArtifactUnit(u *artifact.Unit) string {
	var b strings.Builder
	_ = u.Walk(func(path string, u *artifact.Unit) error {
		fmt.Fprintf(&b, "unit %s%q %s", path, u.Name, u.Type)
		if len(u.Params) > 0 {
			fmt.Fprintf(&b, " params=%v", u.Params)
		}
		if len(u.Vars) > 0 {
			fmt.Fprintf(&b, " vars=%v", u.Vars)
		}
		if u.RequiresActivation {
			b.WriteString(" activation")
		}
		b.WriteByte('\n')
		for i, re := range u.RegExps {
			fmt.Fprintf(&b, "regexp %d /%s/%s\n", i, re.Pattern, re.Flags)
		}
		b.WriteString(u.Tree)
		return nil
	})
	return b.String()
}

// findFunction returns the first function named name below u, depth
// first.
func findFunction(u *ir.Unit, name string) *ir.Unit {
	for _, fn := range u.Functions {
		if fn.Name == name {
			return fn
		}
		if found := findFunction(fn, name); found != nil {
			return found
		}
	}
	return nil
}

func functionNames(u *ir.Unit) []string {
	var names []string
	for _, fn := range u.Functions {
		if fn.Name != "" {
			names = append(names, fn.Name)
		}
		names = append(names, functionNames(fn)...)
	}
	return names
}
