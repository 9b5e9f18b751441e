package kaitaiexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// precedence levels, lowest to highest, per §4.5.
const (
	precLowest = iota
	precTernary
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var binPrec = map[TokenType]int{
	TOK_OR:      precOr,
	TOK_AND:     precAnd,
	TOK_EQ:      precCompare,
	TOK_NEQ:     precCompare,
	TOK_LT:      precCompare,
	TOK_LE:      precCompare,
	TOK_GT:      precCompare,
	TOK_GE:      precCompare,
	TOK_BIT_OR:  precBitOr,
	TOK_BIT_XOR: precBitXor,
	TOK_BIT_AND: precBitAnd,
	TOK_SHL:     precShift,
	TOK_SHR:     precShift,
	TOK_PLUS:    precAdditive,
	TOK_MINUS:   precAdditive,
	TOK_STAR:    precMultiplicative,
	TOK_SLASH:   precMultiplicative,
	TOK_PERCENT: precMultiplicative,
}

// Parser is a Pratt (precedence-climbing) parser over a Lexer's token
// stream, grounded on the teacher's pkg/expression parser structure
// (current/peek token pair, expectPeek helpers) but rebuilt around the word
// operators (`and`/`or`/`not`) and pseudo-identifiers of §4.5 instead of the
// teacher's C-style `&&`/`||`/`!` dialect.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
	errs  []string
}

// NewParser creates a Parser over src.
func NewParser(src string) *Parser {
	p := &Parser{lexer: NewLexer(src)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf(format, args...))
}

// Parse parses a complete expression and returns its AST, or the first
// error encountered.
func Parse(src string) (Node, error) {
	p := NewParser(src)
	expr := p.parseExpr(precLowest)
	if len(p.errs) > 0 {
		return nil, kaitaierr.NewParseError("expression %q: %s", src, strings.Join(p.errs, "; "))
	}
	if p.cur.Type != TOK_EOF {
		return nil, kaitaierr.NewParseError("expression %q: unexpected trailing token %q", src, p.cur.Literal)
	}
	return expr, nil
}

func (p *Parser) parseExpr(minPrec int) Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		if p.cur.Type == TOK_QUESTION && minPrec <= precTernary {
			left = p.parseTernary(left)
			continue
		}
		if p.cur.Type == TOK_NOT {
			// `not` is prefix-only; stop infix loop
			break
		}
		prec, ok := binPrec[p.cur.Type]
		if !ok || prec < minPrec {
			break
		}
		op := p.cur
		p.next()
		right := p.parseExpr(prec + 1)
		left = &BinaryOp{Op: opLiteral(op), Left: left, Right: right, P: pos(op)}
	}
	return left
}

func (p *Parser) parseTernary(cond Node) Node {
	qPos := pos(p.cur)
	p.next() // consume '?'
	then := p.parseExpr(precLowest)
	if p.cur.Type != TOK_COLON {
		p.errorf("expected ':' in ternary at %d:%d, got %q", p.cur.Pos.Line, p.cur.Pos.Column, p.cur.Literal)
		return &TernaryOp{Cond: cond, Then: then, Else: then, P: qPos}
	}
	p.next() // consume ':'
	elseExpr := p.parseExpr(precTernary)
	return &TernaryOp{Cond: cond, Then: then, Else: elseExpr, P: qPos}
}

func (p *Parser) parseUnary() Node {
	switch p.cur.Type {
	case TOK_NOT:
		opPos := pos(p.cur)
		p.next()
		operand := p.parseExpr(precNot)
		return &UnaryOp{Op: "not", Operand: operand, P: opPos}
	case TOK_MINUS:
		opPos := pos(p.cur)
		p.next()
		operand := p.parseExpr(precUnary)
		return &UnaryOp{Op: "-", Operand: operand, P: opPos}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(node Node) Node {
	for {
		switch p.cur.Type {
		case TOK_DOT:
			p.next()
			if p.cur.Type == TOK_AS {
				node = p.parseCastErasure(node)
				continue
			}
			if p.cur.Type != TOK_IDENT {
				p.errorf("expected identifier after '.' at %d:%d", p.cur.Pos.Line, p.cur.Pos.Column)
				return node
			}
			name := p.cur.Literal
			namePos := pos(p.cur)
			p.next()
			if p.cur.Type == TOK_LPAREN {
				args := p.parseArgs()
				node = &Call{Receiver: node, Method: name, Args: args, P: namePos}
			} else {
				node = &MemberAccess{Receiver: node, Name: name, P: namePos}
			}
		case TOK_LBRACKET:
			brPos := pos(p.cur)
			p.next()
			idx := p.parseExpr(precLowest)
			if p.cur.Type != TOK_RBRACKET {
				p.errorf("expected ']' at %d:%d", p.cur.Pos.Line, p.cur.Pos.Column)
			} else {
				p.next()
			}
			node = &Index{Receiver: node, Index: idx, P: brPos}
		default:
			return node
		}
	}
}

// parseCastErasure consumes a trailing `.as<Type>` (and optional `()` call)
// and returns the receiver unchanged: the cast carries no runtime meaning
// per §4.5 ("A generic cast syntax `.as<…>` appearing in source is erased").
func (p *Parser) parseCastErasure(receiver Node) Node {
	p.next() // consume 'as'
	if p.cur.Type == TOK_LT {
		depth := 0
		for {
			if p.cur.Type == TOK_LT {
				depth++
			} else if p.cur.Type == TOK_GT {
				depth--
				if depth == 0 {
					p.next()
					break
				}
			} else if p.cur.Type == TOK_EOF {
				p.errorf("unterminated .as<...> cast")
				break
			}
			p.next()
		}
	}
	if p.cur.Type == TOK_LPAREN {
		p.parseArgs()
	}
	return receiver
}

func (p *Parser) parseArgs() []Node {
	p.next() // consume '('
	var args []Node
	if p.cur.Type == TOK_RPAREN {
		p.next()
		return args
	}
	for {
		args = append(args, p.parseExpr(precLowest))
		if p.cur.Type == TOK_COMMA {
			p.next()
			continue
		}
		break
	}
	if p.cur.Type != TOK_RPAREN {
		p.errorf("expected ')' at %d:%d, got %q", p.cur.Pos.Line, p.cur.Pos.Column, p.cur.Literal)
	} else {
		p.next()
	}
	return args
}

func (p *Parser) parsePrimary() Node {
	tok := p.cur
	switch tok.Type {
	case TOK_INT:
		p.next()
		v, err := parseIntLiteral(tok.Literal)
		if err != nil {
			p.errorf("bad integer literal %q: %v", tok.Literal, err)
		}
		return &IntLit{Value: v, P: pos(tok)}
	case TOK_FLOAT:
		p.next()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf("bad float literal %q: %v", tok.Literal, err)
		}
		return &FloatLit{Value: v, P: pos(tok)}
	case TOK_STRING:
		p.next()
		return &StringLit{Value: tok.Literal, P: pos(tok)}
	case TOK_IDENT:
		p.next()
		if tok.Literal == "true" || tok.Literal == "false" {
			return &BoolLit{Value: tok.Literal == "true", P: pos(tok)}
		}
		if p.cur.Type == TOK_COLONCOLON {
			p.next()
			if p.cur.Type != TOK_IDENT {
				p.errorf("expected member name after '::' at %d:%d", p.cur.Pos.Line, p.cur.Pos.Column)
				return &Ident{Name: tok.Literal, P: pos(tok)}
			}
			member := p.cur.Literal
			p.next()
			return &EnumAccess{EnumName: tok.Literal, Member: member, P: pos(tok)}
		}
		if p.cur.Type == TOK_LPAREN {
			args := p.parseArgs()
			return &Call{Receiver: nil, Method: tok.Literal, Args: args, P: pos(tok)}
		}
		return &Ident{Name: tok.Literal, P: pos(tok)}
	case TOK_LPAREN:
		p.next()
		inner := p.parseExpr(precLowest)
		if p.cur.Type != TOK_RPAREN {
			p.errorf("expected ')' at %d:%d, got %q", p.cur.Pos.Line, p.cur.Pos.Column, p.cur.Literal)
		} else {
			p.next()
		}
		return inner
	case TOK_LBRACKET:
		brPos := pos(tok)
		p.next()
		var elems []Node
		if p.cur.Type != TOK_RBRACKET {
			for {
				elems = append(elems, p.parseExpr(precLowest))
				if p.cur.Type == TOK_COMMA {
					p.next()
					continue
				}
				break
			}
		}
		if p.cur.Type != TOK_RBRACKET {
			p.errorf("expected ']' at %d:%d", p.cur.Pos.Line, p.cur.Pos.Column)
		} else {
			p.next()
		}
		return &ArrayLit{Elems: elems, P: brPos}
	default:
		p.errorf("unexpected token %q at %d:%d", tok.Literal, tok.Pos.Line, tok.Pos.Column)
		p.next()
		return nil
	}
}

func parseIntLiteral(lit string) (int64, error) {
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		return strconv.ParseInt(lit[2:], 16, 64)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		return strconv.ParseInt(lit[2:], 2, 64)
	default:
		return strconv.ParseInt(lit, 10, 64)
	}
}

func pos(t Token) Pos { return t.Pos }

func opLiteral(t Token) string {
	switch t.Type {
	case TOK_AND:
		return "and"
	case TOK_OR:
		return "or"
	default:
		return t.Literal
	}
}
