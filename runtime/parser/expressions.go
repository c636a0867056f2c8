package parser

import (
	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/ir"
)

// expr parses a comma expression. inForInit disables the "in" operator so
// that "for (x in o)" can be recognized.
func (p *parser) expr(inForInit bool) ir.NodeID {
	n := p.assignExpr(inForInit)
	for p.match(token.COMMA) {
		p.enc.AddToken(token.COMMA)
		n = p.b.CreateBinary(token.COMMA, n, p.assignExpr(inForInit))
	}
	return n
}

func (p *parser) assignExpr(inForInit bool) ir.NodeID {
	left := p.condExpr(inForInit)

	t := p.next()
	switch t.Kind {
	case token.ASSIGN:
		p.checkReference(left, "invalid assignment left-hand side")
		p.enc.AddToken(token.ASSIGN)
		return p.b.CreateAssignment(token.ASSIGN, left, p.assignExpr(inForInit))
	case token.ASSIGNOP:
		p.checkReference(left, "invalid assignment left-hand side")
		p.enc.AddAssignOp(t.Op)
		return p.b.CreateAssignment(t.Op, left, p.assignExpr(inForInit))
	}
	p.lx.UngetToken()
	return left
}

func (p *parser) checkReference(n ir.NodeID, msg string) {
	if !p.b.IsReference(n) {
		p.fail(msg)
	}
}

func (p *parser) condExpr(inForInit bool) ir.NodeID {
	cond := p.orExpr(inForInit)
	if !p.match(token.HOOK) {
		return cond
	}
	p.enc.AddToken(token.HOOK)
	ifTrue := p.assignExpr(false)
	p.mustMatch(token.COLON, "missing : in conditional expression")
	p.enc.AddToken(token.COLON)
	ifFalse := p.assignExpr(inForInit)
	return p.b.CreateCondExpr(cond, ifTrue, ifFalse)
}

// binaryLevels lists the left-associative operators by increasing
// precedence, from "||" down to the multiplicative operators.
var binaryLevels = [][]token.Kind{
	{token.OR},
	{token.AND},
	{token.BITOR},
	{token.BITXOR},
	{token.BITAND},
	{token.EQ, token.NE, token.SHEQ, token.SHNE},
	{token.LT, token.LE, token.GT, token.GE, token.INSTANCEOF, token.IN},
	{token.LSH, token.RSH, token.URSH},
	{token.ADD, token.SUB},
	{token.MUL, token.DIV, token.MOD},
}

func (p *parser) orExpr(inForInit bool) ir.NodeID {
	return p.binaryExpr(0, inForInit)
}

func (p *parser) binaryExpr(level int, inForInit bool) ir.NodeID {
	if level == len(binaryLevels) {
		return p.unaryExpr()
	}
	n := p.binaryExpr(level+1, inForInit)
	for {
		k := p.peek()
		if !isOperatorOf(binaryLevels[level], k) || (k == token.IN && inForInit) {
			return n
		}
		p.next()
		p.enc.AddToken(k)
		n = p.b.CreateBinary(k, n, p.binaryExpr(level+1, inForInit))
	}
}

func isOperatorOf(ops []token.Kind, k token.Kind) bool {
	for _, op := range ops {
		if op == k {
			return true
		}
	}
	return false
}

func (p *parser) unaryExpr() ir.NodeID {
	t := p.next()
	switch t.Kind {
	case token.NOT, token.BITNOT, token.TYPEOF, token.VOID, token.DELPROP:
		p.enc.AddToken(t.Kind)
		return p.b.CreateUnary(t.Kind, p.unaryExpr())

	case token.ADD:
		p.enc.AddToken(token.POS)
		return p.b.CreateUnary(token.POS, p.unaryExpr())

	case token.SUB:
		p.enc.AddToken(token.NEG)
		return p.b.CreateUnary(token.NEG, p.unaryExpr())

	case token.INC, token.DEC:
		p.enc.AddToken(t.Kind)
		operand := p.memberExpr(true)
		p.checkReference(operand, "invalid increment/decrement operand")
		return p.b.CreateIncDec(t.Kind, false, operand)

	case token.ERROR:
		p.fail("")
	}

	p.lx.UngetToken()
	n := p.memberExpr(true)

	// A line break before "++" or "--" ends the expression.
	switch k := p.lx.PeekTokenSameLine().Kind; k {
	case token.INC, token.DEC:
		p.next()
		p.checkReference(n, "invalid increment/decrement operand")
		p.enc.AddToken(k)
		return p.b.CreateIncDec(k, true, n)
	}
	return n
}

func (p *parser) memberExpr(allowCall bool) ir.NodeID {
	var n ir.NodeID
	if p.match(token.NEW) {
		p.enc.AddToken(token.NEW)
		n = p.b.CreateCallOrNew(token.NEW, p.memberExpr(false))
		if p.match(token.LP) {
			p.enc.AddToken(token.LP)
			p.argumentList(n)
		}
	} else {
		n = p.primaryExpr()
	}

	for {
		switch p.peek() {
		case token.DOT:
			p.next()
			p.enc.AddToken(token.DOT)
			name := p.mustMatch(token.NAME, "missing name after . operator").Text
			p.enc.AddName(name)
			n = p.b.CreatePropertyGet(n, name)

		case token.LB:
			p.next()
			p.enc.AddToken(token.LB)
			elem := p.expr(false)
			p.mustMatch(token.RB, "missing ] in index expression")
			p.enc.AddToken(token.RB)
			n = p.b.CreateElementGet(n, elem)

		case token.LP:
			if !allowCall {
				return n
			}
			p.next()
			p.enc.AddToken(token.LP)
			n = p.b.CreateCallOrNew(token.CALL, n)
			p.argumentList(n)

		default:
			return n
		}
	}
}

// argumentList parses call arguments after "(" up to and including ")".
func (p *parser) argumentList(call ir.NodeID) {
	if !p.match(token.RP) {
		for {
			p.b.AddChildToBack(call, p.assignExpr(false))
			if !p.match(token.COMMA) {
				break
			}
			p.enc.AddToken(token.COMMA)
		}
		p.mustMatch(token.RP, "missing ) after argument list")
	}
	p.enc.AddToken(token.RP)
}

func (p *parser) primaryExpr() ir.NodeID {
	t := p.next()
	switch t.Kind {
	case token.FUNCTION:
		return p.function(ir.FunctionExpression)

	case token.LB:
		return p.arrayLiteral()

	case token.LC:
		return p.objectLiteral()

	case token.LP:
		p.enc.AddToken(token.LP)
		n := p.expr(false)
		p.mustMatch(token.RP, "missing ) in parenthetical")
		p.enc.AddToken(token.RP)
		return n

	case token.NAME:
		p.enc.AddName(t.Text)
		return p.b.CreateName(t.Text)

	case token.NUMBER:
		p.enc.AddNumber(t.Number)
		return p.b.CreateNumber(t.Number)

	case token.STRING:
		p.enc.AddStringUnits(t.Units)
		return p.b.CreateString(t.Text)

	case token.DIV, token.ASSIGNOP:
		if t.Kind == token.ASSIGNOP && t.Op != token.DIV {
			break
		}
		re := p.lx.ReadRegExp(t)
		if re.Kind == token.ERROR {
			p.fail("")
		}
		p.enc.AddRegexp(re.Text, re.Flags)
		return p.b.CreateRegExp(re.Text, re.Flags)

	case token.NULL, token.THIS, token.FALSE, token.TRUE:
		p.enc.AddToken(t.Kind)
		return p.b.CreateLeaf(t.Kind)

	case token.RESERVED:
		p.fail("identifier is a reserved word")

	case token.ERROR:
		p.fail("")
	}
	p.fail("syntax error")
	return ir.Nil
}

// arrayLiteral parses the elements after "[". Elisions leave holes whose
// indexes are recorded on the literal.
func (p *parser) arrayLiteral() ir.NodeID {
	p.enc.AddToken(token.LB)
	var elems []ir.NodeID
	var skip []int
	index := 0
	afterElement := false
	for {
		switch p.peek() {
		case token.COMMA:
			p.next()
			p.enc.AddToken(token.COMMA)
			if !afterElement {
				skip = append(skip, index)
			}
			index++
			afterElement = false
			continue
		case token.RB:
			p.next()
			p.enc.AddToken(token.RB)
			return p.b.CreateArrayLiteral(elems, skip)
		}
		if afterElement {
			p.fail("missing ] after element list")
		}
		elems = append(elems, p.assignExpr(false))
		afterElement = true
	}
}

// objectLiteral parses the properties after "{". A trailing comma is
// allowed.
func (p *parser) objectLiteral() ir.NodeID {
	p.enc.AddToken(token.LC)
	var ids []any
	var values []ir.NodeID
	for !p.match(token.RC) {
		t := p.next()
		switch t.Kind {
		case token.NAME:
			p.enc.AddName(t.Text)
			ids = append(ids, t.Text)
		case token.STRING:
			p.enc.AddStringUnits(t.Units)
			ids = append(ids, t.Text)
		case token.NUMBER:
			p.enc.AddNumber(t.Number)
			ids = append(ids, t.Number)
		default:
			p.fail("invalid property id")
		}
		p.mustMatch(token.COLON, "missing : after property id")
		p.enc.AddToken(token.PROPCOLON)
		values = append(values, p.assignExpr(false))

		if !p.match(token.COMMA) {
			p.mustMatch(token.RC, "missing } after property list")
			break
		}
		if p.peek() != token.RC {
			p.enc.AddToken(token.COMMA)
		}
	}
	p.enc.AddToken(token.RC)
	return p.b.CreateObjectLiteral(ids, values)
}
