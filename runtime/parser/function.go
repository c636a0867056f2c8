package parser

import (
	"github.com/aledsdavies/jsfront/core/invariant"
	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/ir"
)

// function parses a function after its "function" keyword and returns the
// node that stands for it in the enclosing unit: the FUNCTION reference,
// or an expression statement around it for functions nested in blocks.
func (p *parser) function(ftype ir.FunctionType) ir.NodeID {
	p.recordDebugEvent("enter_function", ftype.String())
	line := p.lx.Line()
	outer := p.b.Unit()
	index := len(outer.Functions)
	mark := p.enc.StartFunction(index)

	name := ""
	if p.match(token.NAME) {
		name = p.lx.Current().Text
		p.enc.AddName(name)
	}

	fn := p.b.CreateFunction(name, ftype, line)
	prev := p.b.Enter(fn)
	loops, breakables, labels := p.loops, p.breakables, p.labels
	p.loops, p.breakables, p.labels = nil, nil, nil
	finished := false
	defer func() {
		p.loops, p.breakables, p.labels = loops, breakables, labels
		p.b.Enter(prev)
		if !finished {
			// Keep the function tables in step with the encoder's
			// session stack while a syntax error unwinds.
			fn.Source = p.enc.StopFunction(mark)
			outer.AddFunction(fn)
		}
	}()

	if name == "" && ftype != ir.FunctionExpression {
		p.fail("missing function name")
	}
	p.mustMatch(token.LP, "missing ( before function parameters")
	p.enc.AddToken(token.LP)
	if !p.match(token.RP) {
		for {
			param := p.mustMatch(token.NAME, "missing formal parameter").Text
			if fn.HasParamOrVar(param) {
				p.warn("duplicate formal argument " + param)
			}
			fn.AddParam(param)
			p.enc.AddName(param)
			if !p.match(token.COMMA) {
				break
			}
			p.enc.AddToken(token.COMMA)
		}
		p.mustMatch(token.RP, "missing ) after formal parameters")
	}
	p.enc.AddToken(token.RP)

	p.mustMatch(token.LC, "missing { before function body")
	p.enc.AddEOL(token.LC)
	body := p.b.CreateBlock(p.lx.Line())
	p.sourceElements(body)
	p.mustMatch(token.RC, "missing } after function body")
	p.enc.AddToken(token.RC)
	endLine := p.lx.Line()

	fn.Source = p.enc.StopFunction(mark)
	finished = true
	got := outer.AddFunction(fn)
	invariant.Invariant(got == index, "function %q registered at %d, encoded at %d", name, got, index)
	p.functionCount++

	p.b.Enter(prev)
	ref := p.b.InitFunction(fn, index, body, endLine)
	p.recordDebugEvent("exit_function", name)

	switch ftype {
	case ir.FunctionStatement:
		p.enc.AddToken(token.EOL)
		return ref
	case ir.FunctionExpressionStatement:
		p.enc.AddToken(token.EOL)
		return p.b.CreateExprStatementNoReturn(ref, line)
	}
	return ref
}
