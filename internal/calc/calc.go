// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/samber/oops"
)

// Error codes for evaluation failures.
const (
	CodeInvalidExpression = "INVALID_EXPRESSION"
	CodeDivideByZero      = "DIVIDE_BY_ZERO"
)

// MaxExpressionLength bounds the input accepted by Parse.
const MaxExpressionLength = 256

// parser is the singleton participle parser instance.
var parser *participle.Parser[Expression]

func init() {
	var err error
	parser, err = NewParser()
	if err != nil {
		panic(fmt.Sprintf("failed to build expression parser: %v", err))
	}
}

// Parse parses text into an expression tree.
func Parse(text string) (*Expression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, oops.Code(CodeInvalidExpression).Errorf("empty expression")
	}
	if len(text) > MaxExpressionLength {
		return nil, oops.Code(CodeInvalidExpression).
			With("length", len(text)).
			Errorf("expression longer than %d characters", MaxExpressionLength)
	}

	expr, err := parser.ParseString("", text)
	if err != nil {
		return nil, oops.Code(CodeInvalidExpression).
			With("expression", text).
			Wrapf(err, "parsing expression")
	}
	return expr, nil
}

// Evaluate parses and evaluates text.
func Evaluate(text string) (float64, error) {
	expr, err := Parse(text)
	if err != nil {
		return 0, err
	}
	v, err := expr.Eval()
	if err != nil {
		return 0, oops.With("expression", text).Wrap(err)
	}
	return v, nil
}

// Format renders a result without trailing zeros.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// UserMessage converts an evaluation error into a short reply.
func UserMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Invalid expression."
	}
	switch oopsErr.Code() {
	case CodeDivideByZero:
		return "Cannot divide by zero."
	default:
		return "Invalid expression."
	}
}

// Eval computes the value of the expression.
func (e *Expression) Eval() (float64, error) {
	acc, err := e.Left.Eval()
	if err != nil {
		return 0, err
	}
	for _, step := range e.Right {
		v, err := step.Term.Eval()
		if err != nil {
			return 0, err
		}
		if step.Op == "+" {
			acc += v
		} else {
			acc -= v
		}
	}
	return finite(acc)
}

// Eval computes the value of the term.
func (t *Term) Eval() (float64, error) {
	acc, err := t.Left.Eval()
	if err != nil {
		return 0, err
	}
	for _, step := range t.Right {
		v, err := step.Unary.Eval()
		if err != nil {
			return 0, err
		}
		switch step.Op {
		case "*":
			acc *= v
		case "/":
			if v == 0 {
				return 0, oops.Code(CodeDivideByZero).Errorf("division by zero")
			}
			acc /= v
		case "%":
			if v == 0 {
				return 0, oops.Code(CodeDivideByZero).Errorf("modulo by zero")
			}
			acc = math.Mod(acc, v)
		}
	}
	return acc, nil
}

// Eval computes the value of the unary expression.
func (u *Unary) Eval() (float64, error) {
	if u.Negated != nil {
		v, err := u.Negated.Eval()
		return -v, err
	}
	return u.Power.Eval()
}

// Eval computes the value of the power.
func (p *Power) Eval() (float64, error) {
	base, err := p.Base.Eval()
	if err != nil || p.Exponent == nil {
		return base, err
	}
	exp, err := p.Exponent.Eval()
	if err != nil {
		return 0, err
	}
	return finite(math.Pow(base, exp))
}

// Eval computes the value of the primary.
func (p *Primary) Eval() (float64, error) {
	if p.Number != nil {
		return *p.Number, nil
	}
	return p.Sub.Eval()
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, oops.Code(CodeInvalidExpression).Errorf("result is not a finite number")
	}
	return v, nil
}
