package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenNewline

	// Literals
	TokenWord       // bare word that is not a keyword
	TokenNumber     // 42
	TokenGlobalName // $main
	TokenVariable   // %x

	// Keywords
	TokenFunc    // func
	TokenIntType // i
	TokenCopy    // copy
	TokenAdd     // add
	TokenSub     // sub
	TokenMul     // mul
	TokenRet     // ret

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenLBrace // {
	TokenRBrace // }
	TokenComma  // ,
	TokenAssign // =
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIllegal:    "ILLEGAL",
	TokenNewline:    "NEWLINE",
	TokenWord:       "WORD",
	TokenNumber:     "NUMBER",
	TokenGlobalName: "GLOBAL",
	TokenVariable:   "VARIABLE",
	TokenFunc:       "func",
	TokenIntType:    "i",
	TokenCopy:       "copy",
	TokenAdd:        "add",
	TokenSub:        "sub",
	TokenMul:        "mul",
	TokenRet:        "ret",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenLBrace:     "{",
	TokenRBrace:     "}",
	TokenComma:      ",",
	TokenAssign:     "=",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsCommand reports whether the token is a command mnemonic
func (t TokenType) IsCommand() bool {
	return t >= TokenCopy && t <= TokenRet
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"func": TokenFunc,
	"i":    TokenIntType,
	"copy": TokenCopy,
	"add":  TokenAdd,
	"sub":  TokenSub,
	"mul":  TokenMul,
	"ret":  TokenRet,
}

// LookupWord returns the token type for a bare word (keyword or WORD)
func LookupWord(word string) TokenType {
	if tok, ok := keywords[word]; ok {
		return tok
	}
	return TokenWord
}
