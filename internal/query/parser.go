package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/logpress/internal/dates"
	"github.com/starford/logpress/internal/models"
)

// Parser parses query expressions into Expr trees.
type Parser struct {
	lexer *Lexer
	curr  Token
	peek  Token
}

// Parse parses a complete query expression.
func Parse(input string) (Expr, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	p.advance()
	if p.curr.Type == TokenEOF {
		return nil, fmt.Errorf("empty query")
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %v %q at pos %d", p.curr.Type, p.curr.Value, p.curr.Pos)
	}
	return expr, nil
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) error {
	if p.curr.Type != t {
		return fmt.Errorf("expected %v, got %v at pos %d", t, p.curr.Type, p.curr.Pos)
	}
	p.advance()
	return nil
}

func (p *Parser) parseExpr() (Expr, error) {
	switch p.curr.Type {
	case TokenString:
		text := p.curr.Value
		p.advance()
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("empty search text")
		}
		return TextSearch{Text: text}, nil
	case TokenRef:
		name := p.curr.Value
		p.advance()
		return Reference{Name: name}, nil
	case TokenLParen:
		p.advance()
		expr, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, fmt.Errorf("unexpected %v %q at pos %d", p.curr.Type, p.curr.Value, p.curr.Pos)
	}
}

// parseForm parses the inside of a parenthesized form, up to but not
// including the closing paren.
func (p *Parser) parseForm() (Expr, error) {
	if p.curr.Type != TokenIdent {
		return nil, fmt.Errorf("expected operator, got %v at pos %d", p.curr.Type, p.curr.Pos)
	}
	op := strings.ToLower(p.curr.Value)
	pos := p.curr.Pos
	p.advance()

	switch op {
	case "and", "or":
		var exprs []Expr
		for p.curr.Type != TokenRParen && p.curr.Type != TokenEOF {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		if len(exprs) == 0 {
			return nil, fmt.Errorf("%s needs at least one operand at pos %d", op, pos)
		}
		if op == "and" {
			return And{Exprs: exprs}, nil
		}
		return Or{Exprs: exprs}, nil

	case "not":
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return Not{Expr: e}, nil

	case "page-tags", "tags":
		args, err := p.parseArgs(1, -1)
		if err != nil {
			return nil, err
		}
		return PageTags{Tags: args}, nil

	case "property", "page-property":
		args, err := p.parseArgs(1, 2)
		if err != nil {
			return nil, err
		}
		prop := Property{Key: strings.ToLower(strings.TrimPrefix(args[0], ":"))}
		if len(args) == 2 {
			prop.Value, prop.HasValue = args[1], true
		}
		return prop, nil

	case "task":
		args, err := p.parseArgs(1, -1)
		if err != nil {
			return nil, err
		}
		var markers []models.TaskMarker
		for _, a := range args {
			m, ok := models.ParseTaskMarker(strings.ToUpper(a))
			if !ok {
				return nil, fmt.Errorf("unknown task marker %q", a)
			}
			markers = append(markers, m)
		}
		return Task{Markers: markers}, nil

	case "priority":
		args, err := p.parseArgs(1, -1)
		if err != nil {
			return nil, err
		}
		var levels []models.Priority
		for _, a := range args {
			switch lvl := models.Priority(strings.ToUpper(a)); lvl {
			case models.PriorityA, models.PriorityB, models.PriorityC:
				levels = append(levels, lvl)
			default:
				return nil, fmt.Errorf("unknown priority %q", a)
			}
		}
		return Priority{Levels: levels}, nil

	case "between":
		args, err := p.parseArgs(2, 2)
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			if _, err := dates.ParseRelative(a, time.Now()); err != nil {
				return nil, fmt.Errorf("between: %w", err)
			}
		}
		return Between{From: args[0], To: args[1]}, nil

	case "page":
		args, err := p.parseArgs(1, 1)
		if err != nil {
			return nil, err
		}
		return PageRef{Name: args[0]}, nil

	case "namespace":
		args, err := p.parseArgs(1, 1)
		if err != nil {
			return nil, err
		}
		return Namespace{Name: args[0]}, nil
	}
	return nil, fmt.Errorf("unknown operator %q at pos %d", op, pos)
}

// parseArgs reads between minArgs and maxArgs atoms (maxArgs < 0 means no
// limit). Atoms are identifiers, strings or references.
func (p *Parser) parseArgs(minArgs, maxArgs int) ([]string, error) {
	var args []string
	for {
		switch p.curr.Type {
		case TokenIdent, TokenString, TokenRef:
			args = append(args, p.curr.Value)
			p.advance()
			continue
		}
		break
	}
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, fmt.Errorf("wrong number of arguments (%d) at pos %d", len(args), p.curr.Pos)
	}
	return args, nil
}
