// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package calc parses and evaluates the arithmetic expressions accepted by
// the eval command.
package calc

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// calcLexer splits numbers from single-character operators.
var calcLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(\.\d*)?|\.\d+`},
	{Name: "Op", Pattern: `[-+*/%^()]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Expression is a sum: term (("+" | "-") term)*
type Expression struct {
	Left  *Term     `parser:"@@"`
	Right []*OpTerm `parser:"@@*"`
}

// OpTerm is one additive step.
type OpTerm struct {
	Op   string `parser:"@('+' | '-')"`
	Term *Term  `parser:"@@"`
}

// Term is a product: unary (("*" | "/" | "%") unary)*
type Term struct {
	Left  *Unary     `parser:"@@"`
	Right []*OpUnary `parser:"@@*"`
}

// OpUnary is one multiplicative step.
type OpUnary struct {
	Op    string `parser:"@('*' | '/' | '%')"`
	Unary *Unary `parser:"@@"`
}

// Unary binds looser than '^', so -2^2 is -(2^2).
type Unary struct {
	Negated *Unary `parser:"  '-' @@"`
	Power   *Power `parser:"| @@"`
}

// Power is right associative: 2^3^2 is 2^(3^2).
type Power struct {
	Base     *Primary `parser:"@@"`
	Exponent *Unary   `parser:"('^' @@)?"`
}

// Primary is a number or a parenthesised expression.
type Primary struct {
	Number *float64    `parser:"  @Number"`
	Sub    *Expression `parser:"| '(' @@ ')'"`
}

// NewParser constructs a participle parser for the expression grammar.
func NewParser() (*participle.Parser[Expression], error) {
	return participle.Build[Expression](
		participle.Lexer(calcLexer),
		participle.UseLookahead(2),
	)
}
