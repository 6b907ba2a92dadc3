package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/engagelively/sdtp/pkg/sdtp"
)

// Parser reads the compact filter expression syntax used on the command line, e.g.
//
//	age>35&(name=a|name~b.*)&!nickname
//
// Conditions are written as column, operator and value with the operators = != < <= > >=
// and ~ (a REGEX match). A bare column tests for a present value. Conditions are combined
// with & (AND), | (OR) and ! (NOT), & binds tighter than |, and parentheses group.
// Columns and values are URL-unescaped, so reserved characters can be written as %XX.
type Parser struct {
	tag         string
	pos, length int
}

// ParseExpression parses a filter expression into its wire form.
// An empty expression yields nil, which matches every row.
func ParseExpression(expression string) (*sdtp.FilterSpec, error) {
	p := &Parser{tag: expression, length: len(expression)}
	if p.length == 0 {
		return nil, nil
	}

	spec, err := p.readAny()
	if err != nil {
		return nil, err
	}

	if p.pos < p.length {
		return nil, p.parseError("", "Did not read full filter")
	}

	return spec, nil
}

// readAny reads one or more "&" chains joined by "|".
func (p *Parser) readAny() (*sdtp.FilterSpec, error) {
	return p.readChain("|", p.readAll, sdtp.Or)
}

// readAll reads one or more unary expressions joined by "&".
func (p *Parser) readAll() (*sdtp.FilterSpec, error) {
	return p.readChain("&", p.readUnary, sdtp.And)
}

func (p *Parser) readChain(
	operator string, read func() (*sdtp.FilterSpec, error), combine func(...*sdtp.FilterSpec) *sdtp.FilterSpec,
) (*sdtp.FilterSpec, error) {
	rule, err := read()
	if err != nil {
		return nil, err
	}

	rules := []*sdtp.FilterSpec{rule}
	for p.nextChar() == operator {
		p.readChar()

		rule, err := read()
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	if len(rules) == 1 {
		return rules[0], nil
	}

	return combine(rules...), nil
}

// readUnary reads a negation, a parenthesized expression or a single condition.
func (p *Parser) readUnary() (*sdtp.FilterSpec, error) {
	switch p.nextChar() {
	case "":
		return nil, fmt.Errorf("invalid filter '%s', unexpected end of filter at pos %d", p.tag, p.pos)
	case "!":
		p.readChar()

		rule, err := p.readUnary()
		if err != nil {
			return nil, err
		}

		return sdtp.Not(rule), nil
	case "(":
		start := p.pos
		p.readChar()

		rule, err := p.readAny()
		if err != nil {
			return nil, err
		}

		if p.nextChar() != ")" {
			return nil, fmt.Errorf("invalid filter '%s', missing closing ')' for '(' at pos %d", p.tag, start)
		}
		p.readChar()

		return rule, nil
	default:
		return p.readCondition()
	}
}

// readCondition reads the next condition.
func (p *Parser) readCondition() (*sdtp.FilterSpec, error) {
	column, err := p.readColumn()
	if err != nil {
		return nil, err
	}
	if column == "" {
		return nil, p.parseError("", "Expected column")
	}

	var operator string
	switch next := p.nextChar(); next {
	case "=":
		operator = sdtp.OpEqual
	case "~":
		operator = sdtp.OpRegex
	case "<":
		operator = sdtp.OpLess
	case ">":
		operator = sdtp.OpGreater
	case "!":
		operator = sdtp.OpNotEqual
	case "(":
		return nil, p.parseError(next, "Expected operator")
	default:
		return sdtp.Leaf(sdtp.OpNotNull, column, nil), nil
	}
	p.readChar()

	switch operator {
	case sdtp.OpNotEqual:
		if p.nextChar() != "=" {
			return nil, p.parseError("", "Expected '=' after '!'")
		}
		p.readChar()
	case sdtp.OpLess, sdtp.OpGreater:
		if p.nextChar() == "=" {
			p.readChar()

			if operator == sdtp.OpLess {
				operator = sdtp.OpLessEqual
			} else {
				operator = sdtp.OpGreaterEqual
			}
		}
	}

	value, err := p.readValue()
	if err != nil {
		return nil, err
	}

	return sdtp.Leaf(operator, column, value), nil
}

// readColumn reads a column name from the Parser.tag.
// returns empty string if there is no char to read.
func (p *Parser) readColumn() (string, error) {
	column, err := url.QueryUnescape(p.readUntil("=()&|<>!~"))
	if err != nil {
		return "", fmt.Errorf("invalid filter '%s', bad column escape before pos %d: %w", p.tag, p.pos, err)
	}

	return strings.TrimSpace(column), nil
}

// readValue reads a single value from the Parser.tag.
// returns empty string and a parsing error on invalid filter
func (p *Parser) readValue() (string, error) {
	value := p.readUntil(")&|")
	if value == "" {
		return "", nil
	}

	if index := strings.Index(value, "("); index != -1 {
		pos := p.pos + index - len(value)
		return "", fmt.Errorf("invalid filter '%s', unexpected opening '(' at pos %d", p.tag, pos)
	}

	unescaped, err := url.QueryUnescape(value)
	if err != nil {
		return "", fmt.Errorf("invalid filter '%s', bad value escape before pos %d: %w", p.tag, p.pos, err)
	}

	return unescaped, nil
}

// readUntil reads chars until any of the given characters
// May return empty string if there is no char to read
func (p *Parser) readUntil(chars string) string {
	var buffer strings.Builder
	for char := p.readChar(); char != ""; char = p.readChar() {
		if strings.Contains(chars, char) {
			p.pos--
			break
		}

		buffer.WriteString(char)
	}

	return buffer.String()
}

// readChar peeks the next char of the Parser.tag and increments the Parser.pos by one
// returns empty if there is no char to read
func (p *Parser) readChar() string {
	if p.pos < p.length {
		pos := p.pos
		p.pos++

		return string(p.tag[pos])
	}

	return ""
}

// nextChar peeks the next char from the parser tag
// returns empty string if there is no char to read
func (p *Parser) nextChar() string {
	if p.pos < p.length {
		return string(p.tag[p.pos])
	}

	return ""
}

// parseError returns a formatted and detailed parser error.
// If you don't provide the char that causes the parser to fail, the char at `p.pos` is automatically used.
// By specifying the `msg` arg you can provide additional err hints that can help debugging.
func (p *Parser) parseError(invalidChar string, msg string) error {
	if invalidChar == "" {
		pos := p.pos
		if p.pos == p.length {
			pos--
		}

		invalidChar = string(p.tag[pos])
	}

	if msg != "" {
		msg = ": " + msg
	}

	return fmt.Errorf("invalid filter '%s', unexpected %s at pos %d%s", p.tag, invalidChar, p.pos, msg)
}
