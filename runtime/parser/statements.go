package parser

import (
	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/ir"
)

// statement parses one statement, recovering from syntax errors.
func (p *parser) statement() ir.NodeID {
	return p.guarded(p.statementHelper)
}

// statements parses statements up to a closing "}" or the end of input.
// Functions declared here are expression statements.
func (p *parser) statements() ir.NodeID {
	block := p.b.CreateBlock(p.lx.Line())
	for {
		switch p.peek() {
		case token.EOF, token.RC:
			return block
		}
		p.b.AddChildToBack(block, p.statement())
	}
}

// body parses the sub-statement of a compound statement. The caller has
// already recorded the braces, so a braced body records none and a single
// statement is wrapped in a block just like a braced one.
func (p *parser) body() ir.NodeID {
	if p.match(token.LC) {
		block := p.statements()
		p.mustMatch(token.RC, "missing } in compound statement")
		return block
	}
	block := p.b.CreateBlock(p.lx.Line())
	p.b.AddChildToBack(block, p.statement())
	return block
}

// condition parses "( expr )".
func (p *parser) condition() ir.NodeID {
	p.mustMatch(token.LP, "missing ( before condition")
	p.enc.AddToken(token.LP)
	cond := p.expr(false)
	p.mustMatch(token.RP, "missing ) after condition")
	p.enc.AddToken(token.RP)

	if p.config.strictWarnings {
		switch p.b.Kind(cond) {
		case token.SETNAME, token.SETPROP, token.SETELEM:
			p.warn("test for equality (==) mistyped as assignment (=)?")
		}
	}
	return cond
}

// terminate ends a simple statement: an explicit ";", or a line break,
// "}" or the end of input standing in for one.
func (p *parser) terminate() {
	switch p.lx.PeekTokenSameLine().Kind {
	case token.SEMI:
		p.next()
	case token.ERROR, token.EOF, token.EOL, token.RC:
	default:
		p.fail("missing ; before statement")
	}
	p.enc.AddEOL(token.SEMI)
}

func (p *parser) pushLoop(loop ir.NodeID) {
	p.loops = append(p.loops, loop)
	p.breakables = append(p.breakables, loop)
}

func (p *parser) popLoop() {
	p.loops = p.loops[:len(p.loops)-1]
	p.breakables = p.breakables[:len(p.breakables)-1]
}

func (p *parser) findLabel(name string) ir.NodeID {
	for i := len(p.labels) - 1; i >= 0; i-- {
		if p.labels[i].name == name {
			return p.labels[i].label
		}
	}
	return ir.Nil
}

func (p *parser) statementHelper() ir.NodeID {
	label := p.pendingLabel
	p.pendingLabel = ir.Nil

	t := p.next()
	line := t.Position.Line
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_statement", t.Kind.String())
	}

	switch t.Kind {
	case token.IF:
		p.enc.AddToken(token.IF)
		cond := p.condition()
		p.enc.AddEOL(token.LC)
		ifTrue := p.body()
		ifFalse := ir.Nil
		if p.match(token.ELSE) {
			p.enc.AddToken(token.RC)
			p.enc.AddToken(token.ELSE)
			p.enc.AddEOL(token.LC)
			ifFalse = p.body()
		}
		p.enc.AddEOL(token.RC)
		return p.b.CreateIf(cond, ifTrue, ifFalse, line)

	case token.SWITCH:
		return p.switchStatement(line)

	case token.WHILE:
		p.enc.AddToken(token.WHILE)
		loop := p.b.CreateLoopNode(label, line)
		cond := p.condition()
		p.enc.AddEOL(token.LC)
		p.pushLoop(loop)
		body := p.body()
		p.popLoop()
		p.enc.AddEOL(token.RC)
		return p.b.CreateWhile(loop, cond, body)

	case token.DO:
		p.enc.AddToken(token.DO)
		p.enc.AddEOL(token.LC)
		loop := p.b.CreateLoopNode(label, line)
		p.pushLoop(loop)
		body := p.body()
		p.popLoop()
		p.enc.AddToken(token.RC)
		p.mustMatch(token.WHILE, "missing while after do-loop body")
		p.enc.AddToken(token.WHILE)
		cond := p.condition()
		// The semicolon after do-while is optional.
		p.match(token.SEMI)
		p.enc.AddEOL(token.SEMI)
		return p.b.CreateDoWhile(loop, body, cond)

	case token.FOR:
		return p.forStatement(label, line)

	case token.TRY:
		return p.tryStatement(line)

	case token.THROW:
		p.enc.AddToken(token.THROW)
		if p.lx.PeekTokenSameLine().Kind == token.EOL {
			p.fail("syntax error")
		}
		n := p.b.CreateThrow(p.expr(false), line)
		p.terminate()
		return n

	case token.BREAK, token.CONTINUE:
		n := p.jumpStatement(t.Kind, line)
		p.terminate()
		return n

	case token.WITH:
		p.enc.AddToken(token.WITH)
		p.mustMatch(token.LP, "missing ( before with-statement object")
		p.enc.AddToken(token.LP)
		obj := p.expr(false)
		p.mustMatch(token.RP, "missing ) after with-statement object")
		p.enc.AddToken(token.RP)
		p.enc.AddEOL(token.LC)
		body := p.body()
		p.enc.AddEOL(token.RC)
		return p.b.CreateWith(obj, body, line)

	case token.VAR:
		p.enc.AddToken(token.VAR)
		n := p.variables(false)
		p.terminate()
		return n

	case token.RETURN:
		if !p.b.Unit().IsFunction() {
			p.fail("invalid return")
		}
		p.enc.AddToken(token.RETURN)
		value := ir.Nil
		switch p.lx.PeekTokenSameLine().Kind {
		case token.SEMI, token.RC, token.EOF, token.EOL, token.ERROR:
		default:
			value = p.expr(false)
		}
		n := p.b.CreateReturn(value, line)
		p.terminate()
		return n

	case token.LC:
		p.enc.AddEOL(token.LC)
		block := p.statements()
		p.mustMatch(token.RC, "missing } in compound statement")
		p.enc.AddEOL(token.RC)
		return block

	case token.SEMI:
		p.enc.AddEOL(token.SEMI)
		return p.b.CreateLeaf(token.EMPTY)

	case token.FUNCTION:
		return p.function(ir.FunctionExpressionStatement)

	case token.ERROR:
		p.fail("")
	}

	p.lx.UngetToken()
	expr := p.expr(false)

	if p.b.Kind(expr) == token.NAME && p.peek() == token.COLON {
		return p.labeledStatement(p.b.Str(expr), line)
	}

	n := p.b.CreateExprStatement(expr, line)
	p.terminate()
	return n
}

func (p *parser) labeledStatement(name string, line int) ir.NodeID {
	if p.findLabel(name) != ir.Nil {
		p.fail("duplicate label " + name)
	}
	p.next()
	p.enc.AddEOL(token.COLON)

	label := p.b.CreateLabel(name, line)
	p.labels = append(p.labels, labelEntry{name: name, label: label})
	p.pendingLabel = label
	stmt := p.statementHelper()
	p.labels = p.labels[:len(p.labels)-1]
	return p.b.CreateLabeledStatement(label, stmt)
}

func (p *parser) jumpStatement(kind token.Kind, line int) ir.NodeID {
	p.enc.AddToken(kind)

	label := ir.Nil
	if p.lx.PeekTokenSameLine().Kind == token.NAME {
		name := p.next().Text
		p.enc.AddName(name)
		if label = p.findLabel(name); label == ir.Nil {
			p.fail("undefined label " + name)
		}
	}

	if kind == token.BREAK {
		target := label
		if target == ir.Nil {
			if len(p.breakables) == 0 {
				p.fail("unlabelled break must be inside loop or switch")
			}
			target = p.breakables[len(p.breakables)-1]
		}
		return p.b.CreateBreak(target, line)
	}

	var loop ir.NodeID
	if label != ir.Nil {
		loop = p.b.Control(label).(*ir.Label).Loop
		if loop == ir.Nil {
			p.fail("continue must name a loop label")
		}
	} else {
		if len(p.loops) == 0 {
			p.fail("continue must be inside loop")
		}
		loop = p.loops[len(p.loops)-1]
	}
	return p.b.CreateContinue(loop, line)
}

func (p *parser) switchStatement(line int) ir.NodeID {
	p.enc.AddToken(token.SWITCH)
	p.mustMatch(token.LP, "missing ( before switch expression")
	p.enc.AddToken(token.LP)
	expr := p.expr(false)
	p.mustMatch(token.RP, "missing ) after switch expression")
	p.enc.AddToken(token.RP)
	p.mustMatch(token.LC, "missing { before switch body")
	p.enc.AddEOL(token.LC)

	block := p.b.CreateSwitch(expr, line)
	p.breakables = append(p.breakables, block)
	hasDefault := false
	for !p.match(token.RC) {
		caseExpr := ir.Nil
		switch p.next().Kind {
		case token.CASE:
			p.enc.AddToken(token.CASE)
			caseExpr = p.expr(false)
		case token.DEFAULT:
			if hasDefault {
				p.fail("double default label in the switch statement")
			}
			hasDefault = true
			p.enc.AddToken(token.DEFAULT)
		default:
			p.fail("invalid switch statement")
		}
		p.mustMatch(token.COLON, "missing : after case expression")
		p.enc.AddEOL(token.COLON)

		stmts := p.b.CreateBlock(p.lx.Line())
	caseBody:
		for {
			switch p.peek() {
			case token.RC, token.CASE, token.DEFAULT, token.EOF:
				break caseBody
			}
			p.b.AddChildToBack(stmts, p.statement())
		}
		p.b.AddSwitchCase(block, caseExpr, stmts)
	}
	p.breakables = p.breakables[:len(p.breakables)-1]
	p.enc.AddEOL(token.RC)
	p.b.CloseSwitch(block)
	return block
}

func (p *parser) forStatement(label ir.NodeID, line int) ir.NodeID {
	p.enc.AddToken(token.FOR)
	each := false
	if t := p.lx.PeekToken(); t.Kind == token.NAME && t.Text == "each" {
		p.next()
		p.enc.AddName("each")
		each = true
	}
	p.mustMatch(token.LP, "missing ( after for")
	p.enc.AddToken(token.LP)

	var init ir.NodeID
	switch p.peek() {
	case token.SEMI:
		init = p.b.CreateLeaf(token.EMPTY)
	case token.VAR:
		p.next()
		p.enc.AddToken(token.VAR)
		init = p.variables(true)
	default:
		init = p.expr(true)
	}

	loop := p.b.CreateLoopNode(label, line)

	if p.match(token.IN) {
		p.enc.AddToken(token.IN)
		if p.b.Kind(init) == token.VAR {
			if p.b.ChildCount(init) != 1 {
				p.fail("invalid left-hand side of for..in loop")
			}
		} else if !p.b.IsReference(init) {
			p.fail("invalid left-hand side of for..in loop")
		}
		obj := p.expr(false)
		p.mustMatch(token.RP, "missing ) after for-loop control")
		p.enc.AddToken(token.RP)
		p.enc.AddEOL(token.LC)
		p.pushLoop(loop)
		body := p.body()
		p.popLoop()
		p.enc.AddEOL(token.RC)
		return p.b.CreateForIn(loop, init, obj, body, each)
	}

	if each {
		p.fail("invalid for each loop")
	}
	p.mustMatch(token.SEMI, "missing ; after for-loop initializer")
	p.enc.AddToken(token.SEMI)
	cond := p.b.CreateLeaf(token.EMPTY)
	if p.peek() != token.SEMI {
		cond = p.expr(false)
	}
	p.mustMatch(token.SEMI, "missing ; after for-loop condition")
	p.enc.AddToken(token.SEMI)
	incr := p.b.CreateLeaf(token.EMPTY)
	if p.peek() != token.RP {
		incr = p.expr(false)
	}
	p.mustMatch(token.RP, "missing ) after for-loop control")
	p.enc.AddToken(token.RP)
	p.enc.AddEOL(token.LC)
	p.pushLoop(loop)
	body := p.body()
	p.popLoop()
	p.enc.AddEOL(token.RC)
	return p.b.CreateFor(loop, init, cond, incr, body)
}

func (p *parser) tryStatement(line int) ir.NodeID {
	p.enc.AddToken(token.TRY)
	p.mustMatch(token.LC, "missing { before try block")
	p.enc.AddEOL(token.LC)
	tryBlock := p.statements()
	p.mustMatch(token.RC, "missing } after try block")
	p.enc.AddEOL(token.RC)

	catches := p.b.CreateBlock(line)
	sawDefault := false
	for p.match(token.CATCH) {
		catchLine := p.lx.Line()
		if sawDefault {
			p.fail("any catch clauses following an unqualified catch are unreachable")
		}
		p.enc.AddToken(token.CATCH)
		p.mustMatch(token.LP, "missing ( before catch-block condition")
		p.enc.AddToken(token.LP)
		name := p.mustMatch(token.NAME, "missing identifier in catch").Text
		p.enc.AddName(name)

		cond := ir.Nil
		if p.match(token.IF) {
			p.enc.AddToken(token.IF)
			cond = p.expr(false)
		} else {
			sawDefault = true
		}
		p.mustMatch(token.RP, "missing ) after catch-block condition")
		p.enc.AddToken(token.RP)
		p.mustMatch(token.LC, "missing { before catch-block body")
		p.enc.AddEOL(token.LC)
		body := p.statements()
		p.mustMatch(token.RC, "missing } after catch-block body")
		p.enc.AddEOL(token.RC)
		p.b.AddChildToBack(catches, p.b.CreateCatch(name, cond, body, catchLine))
	}

	finally := ir.Nil
	if p.match(token.FINALLY) {
		p.enc.AddToken(token.FINALLY)
		p.mustMatch(token.LC, "missing { before finally-block")
		p.enc.AddEOL(token.LC)
		finally = p.statements()
		p.mustMatch(token.RC, "missing } after finally-block")
		p.enc.AddEOL(token.RC)
	} else if !p.b.HasChildren(catches) {
		p.fail("try without catch or finally")
	}
	return p.b.CreateTryCatchFinally(tryBlock, catches, finally, line)
}

// variables parses the declarations of a var statement after "var".
func (p *parser) variables(inForInit bool) ir.NodeID {
	decl := p.b.CreateVariables(p.lx.Line())
	for {
		name := p.mustMatch(token.NAME, "missing variable name").Text
		p.enc.AddName(name)
		p.b.Unit().AddVar(name)

		n := p.b.CreateName(name)
		if p.match(token.ASSIGN) {
			p.enc.AddToken(token.ASSIGN)
			p.b.AddChildToBack(n, p.assignExpr(inForInit))
		}
		p.b.AddChildToBack(decl, n)

		if !p.match(token.COMMA) {
			return decl
		}
		p.enc.AddToken(token.COMMA)
	}
}
