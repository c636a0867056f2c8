// Package artifact reads and writes .jsir files. An artifact stores one
// compiled script: the lowered tree of every unit in dump form and the
// encoded source trace that regenerates its text, so tools can inspect or
// decompile a script without the original file.
package artifact

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/decompiler"
)

// Artifact is the body of a .jsir file.
type Artifact struct {
	Version    string `cbor:"1,keyasint"` // format version of the body
	Language   string `cbor:"2,keyasint"` // language version the script was compiled for
	SourceName string `cbor:"3,keyasint"`
	Script     Unit   `cbor:"4,keyasint"`
}

// Unit is one compiled script or function. Functions mirror the nesting
// of the source and are indexed like the FUNCTION references in Source.
type Unit struct {
	Name               string   `cbor:"1,keyasint"`
	Type               string   `cbor:"2,keyasint"`
	Params             []string `cbor:"3,keyasint,omitempty"`
	Vars               []string `cbor:"4,keyasint,omitempty"`
	RegExps            []RegExp `cbor:"5,keyasint,omitempty"`
	RequiresActivation bool     `cbor:"6,keyasint,omitempty"`
	Tree               string   `cbor:"7,keyasint"`
	Source             []uint16 `cbor:"8,keyasint"`
	Functions          []Unit   `cbor:"9,keyasint,omitempty"`
}

// RegExp is a regular expression literal of a unit.
type RegExp struct {
	Pattern string `cbor:"1,keyasint"`
	Flags   string `cbor:"2,keyasint,omitempty"`
}

// Validate checks the artifact invariants:
//   - versions are valid semver
//   - the script is the only unit of type "script"
//   - every trace starts with the head token of its unit type
//   - every trace decodes: tokens, strings, numbers and function references
func (a *Artifact) Validate() error {
	if !semver.IsValid(a.Version) {
		return fmt.Errorf("invalid format version %q", a.Version)
	}
	if a.Language != "" && !semver.IsValid(a.Language) {
		return fmt.Errorf("invalid language version %q", a.Language)
	}
	if a.Script.Type != "script" {
		return fmt.Errorf("top-level unit has type %q, want script", a.Script.Type)
	}
	if err := a.Script.validate("", token.SCRIPT); err != nil {
		return err
	}
	// Traces cross a file boundary here, and Decompile trusts its input.
	return decompiler.Check(a.Script.Trace())
}

// Trace rebuilds the decompiler input of u and its nested functions.
func (u *Unit) Trace() *decompiler.Source {
	src := &decompiler.Source{Units: u.Source}
	for i := range u.Functions {
		src.Functions = append(src.Functions, u.Functions[i].Trace())
	}
	return src
}

func (u *Unit) validate(path string, head token.Kind) error {
	if len(u.Source) == 0 || token.Kind(u.Source[0]) != head {
		return fmt.Errorf("unit %s%q: trace does not start with %s", path, u.Name, head)
	}
	for i := range u.Functions {
		fn := &u.Functions[i]
		if fn.Type == "script" {
			return fmt.Errorf("unit %s%d: nested unit has type script", path, i)
		}
		if err := fn.validate(fmt.Sprintf("%s%d/", path, i), token.FUNCTION); err != nil {
			return err
		}
	}
	return nil
}

// Walk calls fn for u and every nested function, depth first. path is the
// chain of function indexes leading to the unit, such as "0/2/".
func (u *Unit) Walk(fn func(path string, u *Unit) error) error {
	return u.walk("", fn)
}

func (u *Unit) walk(path string, fn func(string, *Unit) error) error {
	if err := fn(path, u); err != nil {
		return err
	}
	for i := range u.Functions {
		if err := u.Functions[i].walk(fmt.Sprintf("%s%d/", path, i), fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first function named name, in depth-first order.
func (a *Artifact) Find(name string) (*Unit, bool) {
	var found *Unit
	_ = a.Script.Walk(func(_ string, u *Unit) error {
		if found == nil && u.Type != "script" && u.Name == name {
			found = u
		}
		return nil
	})
	return found, found != nil
}

// FunctionNames lists the names of all named functions, depth first.
func (a *Artifact) FunctionNames() []string {
	var names []string
	_ = a.Script.Walk(func(_ string, u *Unit) error {
		if u.Type != "script" && u.Name != "" {
			names = append(names, u.Name)
		}
		return nil
	})
	return names
}
