package compiler

import "github.com/ESloman/cslo/pkg/lexer"

// rules is the global precedence table (spec.md §4.2): each token type
// maps to the parse function run when the token starts an expression
// (prefix), the parse function run when the token follows one (infix),
// and the infix binding precedence used to decide whether to keep
// consuming at the current parsePrecedence level.
var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLParen:   {prefix: (*Compiler).grouping, infix: (*Compiler).call, prec: PrecCall},
		lexer.TokenLBracket: {prefix: (*Compiler).listLiteral, infix: (*Compiler).index, prec: PrecCall},
		lexer.TokenLBrace:   {prefix: (*Compiler).dictLiteral},
		lexer.TokenDot:      {infix: (*Compiler).dot, prec: PrecCall},

		lexer.TokenMinus:    {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: PrecTerm},
		lexer.TokenPlus:     {infix: (*Compiler).binary, prec: PrecTerm},
		lexer.TokenSlash:    {infix: (*Compiler).binary, prec: PrecFactor},
		lexer.TokenStar:     {infix: (*Compiler).binary, prec: PrecFactor},
		lexer.TokenPercent:  {infix: (*Compiler).binary, prec: PrecFactor},
		lexer.TokenStarStar: {infix: (*Compiler).binary, prec: PrecFactor},
		lexer.TokenBang:     {prefix: (*Compiler).unary},

		lexer.TokenPlusPlus:   {prefix: (*Compiler).preIncDec},
		lexer.TokenMinusMinus: {prefix: (*Compiler).preIncDec},

		lexer.TokenBangEqual:    {infix: (*Compiler).binary, prec: PrecEquality},
		lexer.TokenEqualEqual:   {infix: (*Compiler).binary, prec: PrecEquality},
		lexer.TokenGreater:      {infix: (*Compiler).binary, prec: PrecComparison},
		lexer.TokenGreaterEqual: {infix: (*Compiler).binary, prec: PrecComparison},
		lexer.TokenLess:         {infix: (*Compiler).binary, prec: PrecComparison},
		lexer.TokenLessEqual:    {infix: (*Compiler).binary, prec: PrecComparison},
		lexer.TokenHas:          {infix: (*Compiler).has_, prec: PrecComparison},
		lexer.TokenHasNot:       {infix: (*Compiler).has_, prec: PrecComparison},

		lexer.TokenIdentifier: {prefix: (*Compiler).variable},
		lexer.TokenString:     {prefix: (*Compiler).stringLiteral},
		lexer.TokenNumber:     {prefix: (*Compiler).numberLiteral},

		lexer.TokenAnd:   {infix: (*Compiler).and_, prec: PrecAnd},
		lexer.TokenOr:    {infix: (*Compiler).or_, prec: PrecOr},
		lexer.TokenFalse: {prefix: (*Compiler).literal},
		lexer.TokenTrue:  {prefix: (*Compiler).literal},
		lexer.TokenNil:   {prefix: (*Compiler).literal},
		lexer.TokenSelf:  {prefix: (*Compiler).self_},
		lexer.TokenSuper: {prefix: (*Compiler).super_},
	}
}

func getRule(tt lexer.TokenType) parseRule {
	if r, ok := rules[tt]; ok {
		return r
	}
	return parseRule{}
}

// parsePrecedence is the Pratt core: run the prefix rule for the token
// just advanced onto, then keep folding in infix rules while the next
// token binds at least as tightly as prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Type).prefix
	if prefixRule == nil {
		c.error("expected expression")
		return
	}
	canAssign := prec <= PrecAssignment
	prefixRule(c, canAssign)

	for prec <= getRule(c.current.Type).prec {
		c.advance()
		infixRule := getRule(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}
