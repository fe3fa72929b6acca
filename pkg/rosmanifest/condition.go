// SPDX-License-Identifier: MPL-2.0

package rosmanifest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidCondition is the sentinel error wrapped by ConditionSyntaxError.
var ErrInvalidCondition = errors.New("invalid condition expression")

// ConditionSyntaxError is returned when a condition attribute cannot be
// parsed. It wraps ErrInvalidCondition for errors.Is() compatibility.
type ConditionSyntaxError struct {
	Expression string
	Reason     string
}

// Error implements the error interface for ConditionSyntaxError.
func (e *ConditionSyntaxError) Error() string {
	return fmt.Sprintf("invalid condition %q: %s", e.Expression, e.Reason)
}

// Unwrap returns ErrInvalidCondition for errors.Is() compatibility.
func (e *ConditionSyntaxError) Unwrap() error { return ErrInvalidCondition }

// EvaluateCondition evaluates a REP-149 condition expression against env.
// The grammar is comparisons of $VARIABLE substitutions and literals with
// ==, !=, >=, >, <= and <, combined with "and" and "or" and grouped by
// parentheses. Comparisons use string ordering, matching the reference
// implementation. An empty or whitespace-only expression is true. Undefined
// variables substitute to the empty string.
func EvaluateCondition(expression string, env map[string]string) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return true, nil
	}
	tokens, err := tokenizeCondition(expression, env)
	if err != nil {
		return false, err
	}
	p := &conditionParser{expression: expression, tokens: tokens}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if !p.atEnd() {
		return false, p.errorf("unexpected trailing input at %q", p.peek().text)
	}
	return result, nil
}

type tokenKind int

const (
	tokenValue tokenKind = iota
	tokenOperator
	tokenAnd
	tokenOr
	tokenLParen
	tokenRParen
)

type conditionToken struct {
	kind tokenKind
	text string
}

// comparisonOperators are ordered longest-first so that ">=" is not
// tokenized as ">" followed by "=".
var comparisonOperators = []string{"==", "!=", ">=", "<=", ">", "<"}

func tokenizeCondition(expression string, env map[string]string) ([]conditionToken, error) {
	var tokens []conditionToken
	runes := []rune(expression)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, conditionToken{kind: tokenLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, conditionToken{kind: tokenRParen, text: ")"})
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, &ConditionSyntaxError{Expression: expression, Reason: "unterminated string literal"}
			}
			tokens = append(tokens, conditionToken{kind: tokenValue, text: string(runes[i+1 : j])})
			i = j + 1
		case r == '$':
			j := i + 1
			for j < len(runes) && isVariableRune(runes[j]) {
				j++
			}
			if j == i+1 {
				return nil, &ConditionSyntaxError{Expression: expression, Reason: "empty variable reference"}
			}
			// Undefined variables substitute to "".
			tokens = append(tokens, conditionToken{kind: tokenValue, text: env[string(runes[i+1:j])]})
			i = j
		case strings.ContainsRune("=!<>", r):
			matched := false
			rest := string(runes[i:])
			for _, op := range comparisonOperators {
				if strings.HasPrefix(rest, op) {
					tokens = append(tokens, conditionToken{kind: tokenOperator, text: op})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &ConditionSyntaxError{Expression: expression, Reason: fmt.Sprintf("unexpected character %q", r)}
			}
		case isLiteralRune(r):
			j := i
			for j < len(runes) && isLiteralRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			switch word {
			case "and":
				tokens = append(tokens, conditionToken{kind: tokenAnd, text: word})
			case "or":
				tokens = append(tokens, conditionToken{kind: tokenOr, text: word})
			default:
				tokens = append(tokens, conditionToken{kind: tokenValue, text: word})
			}
			i = j
		default:
			return nil, &ConditionSyntaxError{Expression: expression, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	return tokens, nil
}

func isVariableRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLiteralRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// conditionParser is a recursive-descent parser with the precedence
// or < and < comparison.
type conditionParser struct {
	expression string
	tokens     []conditionToken
	pos        int
}

func (p *conditionParser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for !p.atEnd() && p.peek().kind == tokenOr {
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || rhs
	}
	return result, nil
}

func (p *conditionParser) parseAnd() (bool, error) {
	result, err := p.parseTerm()
	if err != nil {
		return false, err
	}
	for !p.atEnd() && p.peek().kind == tokenAnd {
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return false, err
		}
		result = result && rhs
	}
	return result, nil
}

func (p *conditionParser) parseTerm() (bool, error) {
	if p.atEnd() {
		return false, p.errorf("unexpected end of expression")
	}
	if p.peek().kind == tokenLParen {
		p.pos++
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.atEnd() || p.peek().kind != tokenRParen {
			return false, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return result, nil
	}

	lhs, err := p.expectValue()
	if err != nil {
		return false, err
	}
	if p.atEnd() || p.peek().kind != tokenOperator {
		return false, p.errorf("expected comparison operator after %q", lhs)
	}
	op := p.peek().text
	p.pos++
	rhs, err := p.expectValue()
	if err != nil {
		return false, err
	}
	return compareValues(lhs, op, rhs), nil
}

func (p *conditionParser) expectValue() (string, error) {
	if p.atEnd() || p.peek().kind != tokenValue {
		return "", p.errorf("expected operand")
	}
	value := p.peek().text
	p.pos++
	return value, nil
}

func (p *conditionParser) peek() conditionToken { return p.tokens[p.pos] }

func (p *conditionParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *conditionParser) errorf(format string, args ...any) error {
	return &ConditionSyntaxError{Expression: p.expression, Reason: fmt.Sprintf(format, args...)}
}

func compareValues(lhs, op, rhs string) bool {
	switch op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case ">=":
		return lhs >= rhs
	case ">":
		return lhs > rhs
	case "<=":
		return lhs <= rhs
	default: // "<", the tokenizer admits no other operator
		return lhs < rhs
	}
}
