// Package parser implements a recursive descent parser for IL source.
// Variables are remapped to dense slots while parsing, and every command
// is checked against its operand pattern before it reaches the back end.
package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/lexer"
	"github.com/raymyers/ralph-ilc/pkg/remap"
)

// Parser parses IL source code into remapped functions
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) addError(msg string) {
	p.errorAt(p.curToken, msg)
}

func (p *Parser) errorAt(tok lexer.Token, msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s",
		tok.Line, tok.Column, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, describe(p.curToken)))
	return false
}

// describe renders a token for diagnostics
func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenIllegal:
		return fmt.Sprintf("illegal token %q", tok.Literal)
	case lexer.TokenVariable:
		return "%" + tok.Literal
	case lexer.TokenGlobalName:
		return "$" + tok.Literal
	case lexer.TokenNumber, lexer.TokenWord:
		return tok.Literal
	}
	return tok.Type.String()
}

// skipLine advances past the rest of the current line
func (p *Parser) skipLine() {
	for !p.curTokenIs(lexer.TokenNewline) && !p.curTokenIs(lexer.TokenEOF) {
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenNewline) {
		p.nextToken()
	}
}

// ParseProgram parses every function in the input
func (p *Parser) ParseProgram() *il.Program {
	prog := &il.Program{}
	seen := make(map[string]bool)

	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(lexer.TokenFunc) {
			p.addError(fmt.Sprintf("expected function declaration, got %s", describe(p.curToken)))
			p.skipLine()
			continue
		}
		tok := p.curToken
		fn := p.parseFunction()
		if fn == nil {
			continue
		}
		if seen[fn.Name] {
			p.errorAt(tok, fmt.Sprintf("function $%s redefined", fn.Name))
			continue
		}
		seen[fn.Name] = true
		prog.Functions = append(prog.Functions, *fn)
	}
	return prog
}

// parseFunction parses: func $name(i %a, ...) [i] { NEWLINE commands }
func (p *Parser) parseFunction() *il.Function {
	p.nextToken() // consume 'func'

	if !p.curTokenIs(lexer.TokenGlobalName) {
		p.addError(fmt.Sprintf("expected function name, got %s", describe(p.curToken)))
		p.skipFunction()
		return nil
	}
	fn := &il.Function{Name: p.curToken.Literal}
	p.nextToken()

	tbl := remap.NewTable()
	if !p.parseParams(fn, tbl) {
		p.skipFunction()
		return nil
	}

	if p.curTokenIs(lexer.TokenIntType) {
		fn.Result = il.Int
		p.nextToken()
	}

	if !p.expect(lexer.TokenLBrace) {
		p.skipFunction()
		return nil
	}
	if !p.curTokenIs(lexer.TokenRBrace) && !p.expect(lexer.TokenNewline) {
		p.skipFunction()
		return nil
	}

	defined := make(map[il.Slot]bool, fn.ArgCount)
	for i := 0; i < fn.ArgCount; i++ {
		defined[il.Slot(i)] = true
	}

	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
			continue
		}
		if cmd, ok := p.parseCommand(fn, tbl, defined); ok {
			fn.Body = append(fn.Body, cmd)
		}
	}

	if !p.expect(lexer.TokenRBrace) {
		return nil
	}
	if !p.curTokenIs(lexer.TokenEOF) && !p.expect(lexer.TokenNewline) {
		p.skipLine()
	}

	fn.Vars = tbl.Names()
	return fn
}

// skipFunction recovers from a malformed header by skipping to the closing brace
func (p *Parser) skipFunction() {
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenRBrace) {
		p.nextToken()
	}
}

func (p *Parser) parseParams(fn *il.Function, tbl *remap.Table) bool {
	if !p.expect(lexer.TokenLParen) {
		return false
	}
	if p.curTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return true
	}
	for {
		if !p.expect(lexer.TokenIntType) {
			return false
		}
		if !p.curTokenIs(lexer.TokenVariable) {
			p.addError(fmt.Sprintf("expected parameter name, got %s", describe(p.curToken)))
			return false
		}
		name := p.curToken.Literal
		if _, dup := tbl.Lookup(name); dup {
			p.addError(fmt.Sprintf("duplicate parameter %%%s", name))
			return false
		}
		tbl.Slot(name)
		fn.ArgCount++
		p.nextToken()

		if p.curTokenIs(lexer.TokenRParen) {
			p.nextToken()
			return true
		}
		if !p.expect(lexer.TokenComma) {
			return false
		}
	}
}

// parseCommand parses one line: [%dest =] op [operand {, operand}]
func (p *Parser) parseCommand(fn *il.Function, tbl *remap.Table, defined map[il.Slot]bool) (il.Command, bool) {
	start := p.curToken
	cmd := il.Command{Line: start.Line}

	var destName string
	if p.curTokenIs(lexer.TokenVariable) {
		destName = p.curToken.Literal
		p.nextToken()
		if !p.expect(lexer.TokenAssign) {
			p.skipLine()
			return cmd, false
		}
	}

	if !p.curToken.Type.IsCommand() {
		p.addError(fmt.Sprintf("expected command, got %s", describe(p.curToken)))
		p.skipLine()
		return cmd, false
	}
	cmdTok := p.curToken
	op, _ := il.LookupOp(cmdTok.Literal)
	cmd.Op = op
	p.nextToken()

	type sourceRef struct {
		tok  lexer.Token
		name string
	}
	var sources []sourceRef
	if !p.atLineEnd() {
		for {
			tok := p.curToken
			switch tok.Type {
			case lexer.TokenVariable:
				sources = append(sources, sourceRef{tok, tok.Literal})
				cmd.Args = append(cmd.Args, il.Operand{Kind: il.Var})
			case lexer.TokenNumber:
				v, err := strconv.ParseInt(tok.Literal, 10, 64)
				if err != nil || v > math.MaxInt32 {
					p.addError(fmt.Sprintf("number %s out of range", tok.Literal))
					p.skipLine()
					return cmd, false
				}
				cmd.Args = append(cmd.Args, il.ImmOperand(v))
			default:
				p.addError(fmt.Sprintf("expected operand, got %s", describe(tok)))
				p.skipLine()
				return cmd, false
			}
			p.nextToken()
			if p.atLineEnd() {
				break
			}
			if !p.expect(lexer.TokenComma) {
				p.skipLine()
				return cmd, false
			}
		}
	}
	if p.curTokenIs(lexer.TokenNewline) {
		p.nextToken()
	}

	if msg := checkPattern(op, destName != "", len(cmd.Args), fn.Result); msg != "" {
		p.errorAt(cmdTok, msg)
		return cmd, false
	}

	// Sources must be available before the destination becomes defined.
	ok := true
	srcIdx := 0
	for i := range cmd.Args {
		if cmd.Args[i].Kind != il.Var {
			continue
		}
		src := sources[srcIdx]
		srcIdx++
		slot, known := tbl.Lookup(src.name)
		if !known || !defined[slot] {
			p.errorAt(src.tok, fmt.Sprintf("variable %%%s used before assignment", src.name))
			ok = false
			continue
		}
		cmd.Args[i].Slot = slot
	}
	if !ok {
		return cmd, false
	}

	if destName != "" {
		dest := il.VarOperand(tbl.Slot(destName))
		cmd.Dest = &dest
		defined[dest.Slot] = true
	}
	return cmd, true
}

func (p *Parser) atLineEnd() bool {
	switch p.curToken.Type {
	case lexer.TokenNewline, lexer.TokenRBrace, lexer.TokenEOF:
		return true
	}
	return false
}

// checkPattern validates destination presence and operand count for an opcode
func checkPattern(op il.Op, hasDest bool, nargs int, result il.Type) string {
	switch op {
	case il.Copy, il.Add, il.Sub, il.Mul:
		want := 2
		if op == il.Copy {
			want = 1
		}
		if !hasDest {
			return fmt.Sprintf("%s requires a destination", op)
		}
		if nargs != want {
			return fmt.Sprintf("%s expects %d operands, got %d", op, want, nargs)
		}
	case il.Ret:
		if hasDest {
			return "ret does not produce a value"
		}
		if result == il.Int && nargs != 1 {
			return fmt.Sprintf("ret in function returning i expects 1 operand, got %d", nargs)
		}
		if result == il.Void && nargs != 0 {
			return "type mismatch: ret with a value in void function"
		}
	}
	return ""
}
