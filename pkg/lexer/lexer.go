package lexer

// MaxLexemeLen bounds names and numbers
const MaxLexemeLen = 32

// Lexer tokenizes IL source code. Newlines are significant and
// runs of blank lines collapse into a single NEWLINE token.
type Lexer struct {
	input       string
	pos         int  // current position in input
	readPos     int  // next reading position
	ch          byte // current character
	line        int
	column      int
	lastNewline bool
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, lastNewline: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipBlanks()
		if l.ch == ';' {
			l.skipComment()
			continue
		}
		if l.ch == '\n' && l.lastNewline {
			l.readChar()
			continue
		}
		break
	}

	tok := Token{Line: l.line, Column: l.column}
	l.lastNewline = false

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		tok.Literal = ""
		return tok
	case '\n':
		tok = l.newToken(TokenNewline, l.ch)
		l.lastNewline = true
	case '(':
		tok = l.newToken(TokenLParen, l.ch)
	case ')':
		tok = l.newToken(TokenRParen, l.ch)
	case '{':
		tok = l.newToken(TokenLBrace, l.ch)
	case '}':
		tok = l.newToken(TokenRBrace, l.ch)
	case ',':
		tok = l.newToken(TokenComma, l.ch)
	case '=':
		tok = l.newToken(TokenAssign, l.ch)
	case '%':
		l.readChar() // consume %
		return l.readName(tok, TokenVariable, isVariableChar)
	case '$':
		l.readChar() // consume $
		return l.readName(tok, TokenGlobalName, isGlobalChar)
	default:
		if isLetter(l.ch) {
			tok = l.readName(tok, TokenWord, isWordChar)
			if tok.Type == TokenWord {
				tok.Type = LookupWord(tok.Literal)
			}
			return tok
		} else if isDigit(l.ch) {
			tok.Type = TokenNumber
			tok.Literal = l.readWhile(isDigit)
			if len(tok.Literal) > MaxLexemeLen {
				tok.Type = TokenIllegal
			}
			return tok
		}
		tok = l.newToken(TokenIllegal, l.ch)
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: l.line, Column: l.column}
}

// readName reads a run of name characters. An empty or over-long
// name yields an ILLEGAL token carrying the offending text.
func (l *Lexer) readName(tok Token, tt TokenType, valid func(byte) bool) Token {
	tok.Literal = l.readWhile(valid)
	tok.Type = tt
	if tok.Literal == "" || len(tok.Literal) > MaxLexemeLen {
		tok.Type = TokenIllegal
	}
	return tok
}

func (l *Lexer) readWhile(valid func(byte) bool) string {
	pos := l.pos
	for l.ch != 0 && valid(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func (l *Lexer) skipBlanks() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func isGlobalChar(ch byte) bool {
	return isWordChar(ch) || ch == '_'
}

func isVariableChar(ch byte) bool {
	return isGlobalChar(ch) || ch == '.'
}
