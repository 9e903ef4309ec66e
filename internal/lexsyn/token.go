// Package lexsyn is the external collaborator spec §1/§6 carves out of
// scope: a concrete lexer and recursive-descent parser. Spec.md fixes only
// the ast.Ast shape this package must produce; the grammar itself is ours
// to choose; it exists so the resolve/check/lower/VM pipeline has real
// ast.Ast values to exercise, in tests and from the CLI driver. Grounded
// on the teacher's internal/lexer (token shape, identifier normalization
// via golang.org/x/text/unicode/norm).
package lexsyn

import "github.com/chili-lang/chili/internal/ast"

// TokenKind enumerates the lexical categories the parser consumes.
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	Int
	Float
	String

	// keywords
	KwModule
	KwUse
	KwAs
	KwPub
	KwLet
	KwMut
	KwFn
	KwRun
	KwIf
	KwElse
	KwTrue
	KwFalse

	// punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Semi
	Dot
	DotDot
	Star
	Amp
	Assign
	Arrow
	Plus
	Minus
	Slash
	Bang
	EqEq
	NotEq
	Lt
	Gt
	LtEq
	GtEq
)

var keywords = map[string]TokenKind{
	"module": KwModule,
	"use":    KwUse,
	"as":     KwAs,
	"pub":    KwPub,
	"let":    KwLet,
	"mut":    KwMut,
	"fn":     KwFn,
	"run":    KwRun,
	"if":     KwIf,
	"else":   KwElse,
	"true":   KwTrue,
	"false":  KwFalse,
}

// Token is one lexeme plus its source position.
type Token struct {
	Kind TokenKind
	Lit  string
	Pos  ast.Pos
}
