package ir

import (
	"slices"

	"github.com/aledsdavies/jsfront/runtime/decompiler"
)

// FunctionType says how a function was introduced.
type FunctionType int

const (
	Script FunctionType = iota
	FunctionStatement
	FunctionExpression
	FunctionExpressionStatement
)

func (f FunctionType) String() string {
	switch f {
	case Script:
		return "script"
	case FunctionStatement:
		return "statement"
	case FunctionExpression:
		return "expression"
	case FunctionExpressionStatement:
		return "expression-statement"
	}
	return "unknown"
}

// RegExpLiteral is a regular expression literal referenced by PropRegExp.
type RegExpLiteral struct {
	Pattern string
	Flags   string
}

// Unit is a script or function body together with its tables. Nested
// functions are reachable through Functions and are referenced from the
// tree by FUNCTION nodes carrying PropFunction.
type Unit struct {
	Name      string
	Type      FunctionType
	Params    []string
	Vars      []string
	Functions []*Unit
	RegExps   []RegExpLiteral
	Root      NodeID
	Source    *decompiler.Source
	BaseLine  int
	EndLine   int

	// RequiresActivation is set when the body uses with, eval or
	// arguments and so needs its variables in a real scope object.
	RequiresActivation bool
}

// IsFunction reports whether u is a function rather than a script.
func (u *Unit) IsFunction() bool {
	return u.Type != Script
}

// AddParam declares a parameter.
func (u *Unit) AddParam(name string) {
	u.Params = append(u.Params, name)
}

// AddVar declares a variable unless the name is already a parameter or var.
func (u *Unit) AddVar(name string) {
	if u.HasParamOrVar(name) {
		return
	}
	u.Vars = append(u.Vars, name)
}

// RemoveVar drops a variable declaration.
func (u *Unit) RemoveVar(name string) {
	if i := slices.Index(u.Vars, name); i >= 0 {
		u.Vars = slices.Delete(u.Vars, i, i+1)
	}
}

// HasParamOrVar reports whether name is declared in u.
func (u *Unit) HasParamOrVar(name string) bool {
	return slices.Contains(u.Params, name) || slices.Contains(u.Vars, name)
}

// AddFunction registers a nested function and returns its index.
func (u *Unit) AddFunction(fn *Unit) int {
	u.Functions = append(u.Functions, fn)
	return len(u.Functions) - 1
}

// AddRegExp registers a regular expression literal and returns its index.
func (u *Unit) AddRegExp(pattern, flags string) int {
	u.RegExps = append(u.RegExps, RegExpLiteral{Pattern: pattern, Flags: flags})
	return len(u.RegExps) - 1
}
