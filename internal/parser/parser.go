// Package parser implements a precedence-climbing recursive-descent parser
// for SPEC_FULL.md §6.1's expression grammar, producing an internal/ast
// tree for internal/analysis to consume.
package parser

import (
	"strconv"
	"strings"

	"hoteval/internal/ast"
	"hoteval/internal/lexer"
	"hoteval/internal/value"
)

// precedence gives each left-associative binary operator its climbing
// level; ternary and unary operators are handled outside this table, the
// same split the grammar itself makes.
var precedence = map[lexer.TokenType]int{
	lexer.TokenOr:          1,
	lexer.TokenAnd:         2,
	lexer.TokenEqualEqual:  3,
	lexer.TokenNotEqual:    3,
	lexer.TokenLT:          3,
	lexer.TokenGT:          3,
	lexer.TokenLE:          3,
	lexer.TokenGE:          3,
	lexer.TokenPlus:        4,
	lexer.TokenMinus:       4,
	lexer.TokenStar:        5,
	lexer.TokenSlash:       5,
	lexer.TokenPercent:     5,
}

var binaryOperators = map[lexer.TokenType]ast.BinaryOperator{
	lexer.TokenOr:         ast.LogicalOr,
	lexer.TokenAnd:        ast.LogicalAnd,
	lexer.TokenEqualEqual: ast.Equals,
	lexer.TokenNotEqual:   ast.NotEquals,
	lexer.TokenLT:         ast.LesserThan,
	lexer.TokenGT:         ast.GreaterThan,
	lexer.TokenLE:         ast.LesserThanEquals,
	lexer.TokenGE:         ast.GreaterThanEquals,
	lexer.TokenPlus:       ast.Add,
	lexer.TokenMinus:      ast.Sub,
	lexer.TokenStar:       ast.Mul,
	lexer.TokenSlash:      ast.Div,
	lexer.TokenPercent:    ast.Mod,
}

type Parser struct {
	tokens  []lexer.Token
	current int
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse scans and parses a complete expression from source, rejecting any
// trailing input once the expression is done.
func Parse(source string) (*ast.Expression, error) {
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		tok := p.peek()
		return nil, &Error{Message: "unexpected trailing input", Got: tok.Lexeme, Line: tok.Line}
	}
	return expr, nil
}

func (p *Parser) parseExpression() (*ast.Expression, error) {
	return p.parseTernary()
}

// parseTernary implements `ternary := logic_or ("?" expr ":" expr)?`: the
// branches recurse back into parseExpression (not parseTernary) so a
// ternary nested inside a branch binds the way the grammar's right
// recursion says it should.
func (p *Parser) parseTernary() (*ast.Expression, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if !p.match(lexer.TokenQuestion) {
		return cond, nil
	}
	thenExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenColon, "expected ':' in ternary expression"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Ternary(cond, thenExpr, elseExpr), nil
}

func (p *Parser) parseBinary(minPrec int) (*ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.BinaryOperation(binaryOperators[tok.Type], left, right)
	}
}

func (p *Parser) parseUnary() (*ast.Expression, error) {
	switch {
	case p.match(lexer.TokenMinus):
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOperation(ast.Negate, operand), nil
	case p.match(lexer.TokenNot):
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOperation(ast.LogicalNot, operand), nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (*ast.Expression, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenNumber:
		return parseNumberLiteral(tok)

	case lexer.TokenIdent:
		if p.match(lexer.TokenLParen) {
			return p.finishCall(tok.Lexeme)
		}
		return ast.Binding(tok.Lexeme), nil

	case lexer.TokenLParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, &Error{Message: "expected an expression", Got: tok.Lexeme, Line: tok.Line}
	}
}

func (p *Parser) finishCall(name string) (*ast.Expression, error) {
	var args []*ast.Expression
	if !p.check(lexer.TokenRParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRParen, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return ast.FunctionCall(name, args), nil
}

// parseNumberLiteral classifies a NUMBER lexeme as an untyped integer or
// untyped float literal (SPEC_FULL.md §6.1): a '.' or an 'e'/'E' exponent
// makes it a float.
func parseNumberLiteral(tok lexer.Token) (*ast.Expression, error) {
	if strings.ContainsAny(tok.Lexeme, ".eE") {
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &Error{Message: "invalid float literal", Got: tok.Lexeme, Line: tok.Line}
		}
		return ast.UntypedValueNode(value.NewUntypedFloat(f)), nil
	}
	i, err := strconv.ParseUint(tok.Lexeme, 10, 64)
	if err != nil {
		return nil, &Error{Message: "invalid integer literal", Got: tok.Lexeme, Line: tok.Line}
	}
	return ast.UntypedValueNode(value.NewUntypedInteger(i)), nil
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, msg string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	tok := p.peek()
	return lexer.Token{}, &Error{Message: msg, Got: tok.Lexeme, Line: tok.Line}
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
		return p.tokens[p.current-1]
	}
	return p.peek()
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}
