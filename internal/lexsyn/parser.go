package lexsyn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
)

// Parser is a recursive-descent parser over a Lexer's token stream. On a
// malformed top-level construct it emits a SyntaxError and skips to the
// next top-level semicolon before continuing (spec §7 recovery policy); a
// missing expression is reported, and a unit literal stands in for it so
// the enclosing binding is still produced.
type Parser struct {
	lex  *Lexer
	file string
	sink diag.Sink

	tok  Token
	next Token
}

// NewParser returns a Parser over src, attributing spans to file and
// diagnostics to sink.
func NewParser(file, src string, sink diag.Sink) *Parser {
	p := &Parser{lex: NewLexer(file, src, sink), file: file, sink: sink}
	p.tok = p.lex.Next()
	p.next = p.lex.Next()
	return p
}

func (p *Parser) advance() {
	p.tok = p.next
	p.next = p.lex.Next()
}

func (p *Parser) at(k TokenKind) bool { return p.tok.Kind == k }

func (p *Parser) expect(k TokenKind, what string) Token {
	if p.tok.Kind != k {
		p.errorf(p.span(p.tok.Pos), "expected %s", what)
		return p.tok
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) span(start ast.Pos) ast.Span {
	return ast.Span{File: p.file, Start: start, End: p.lex.offset}
}

func (p *Parser) errorf(span ast.Span, format string, args ...interface{}) {
	if p.sink == nil {
		return
	}
	p.sink.Emit(diag.New(diag.SyntaxError, span, fmt.Sprintf(format, args...)))
}

// ParseFile parses a complete source file into an ast.Ast. FileID/ModuleID
// are left at their zero value; the caller (the parse driver) fills them
// in once the workspace has registered the module.
func (p *Parser) ParseFile() *ast.Ast {
	file := &ast.Ast{}

	if p.at(KwModule) {
		p.advance()
		p.parseDottedPath()
		p.consumeSemi()
	}

	for !p.at(EOF) {
		switch {
		case p.at(KwUse):
			if imp := p.parseImport(); imp != nil {
				file.Imports = append(file.Imports, imp...)
			}
		case p.at(KwRun):
			if r := p.parseRun(); r != nil {
				file.RunExprs = append(file.RunExprs, r)
			}
		case p.at(KwPub), p.at(KwLet), p.at(KwFn):
			if b := p.parseTopLevelBinding(); b != nil {
				file.Bindings = append(file.Bindings, b)
			}
		default:
			p.errorf(p.span(p.tok.Pos), "expected 'use', 'let', 'fn' or 'run'")
			p.skipToNextTopLevel()
		}
	}
	return file
}

// skipToNextTopLevel implements spec §7's parse recovery: skip to the
// next top-level semicolon and resume.
func (p *Parser) skipToNextTopLevel() {
	for !p.at(EOF) && !p.at(Semi) {
		p.advance()
	}
	if p.at(Semi) {
		p.advance()
	}
}

func (p *Parser) consumeSemi() {
	if p.at(Semi) {
		p.advance()
	}
}

func (p *Parser) parseDottedPath() string {
	var parts []string
	parts = append(parts, p.expect(Ident, "identifier").Lit)
	for p.at(Slash) {
		p.advance()
		parts = append(parts, p.expect(Ident, "identifier").Lit)
	}
	return strings.Join(parts, "/")
}

// parseImport parses `use path.symbol`, `use path.*`, `use
// path.(a, b, c)` or a bare `use path` (whole-module import under its own
// name); only the single-symbol form `use path.symbol` accepts a trailing
// `as alias`. It returns one or more
// ast.Import records — more than one only for the explicit `(a, b)` form;
// glob imports are expanded later, during resolve (spec §4.4).
func (p *Parser) parseImport() []*ast.Import {
	start := p.tok.Pos
	p.advance() // 'use'
	modPath := p.parseDottedPath()

	visibility := ast.Private
	if p.at(KwPub) {
		visibility = ast.Public
		p.advance()
	}

	var imports []*ast.Import
	switch {
	case p.at(Dot):
		p.advance()
		switch {
		case p.at(Star):
			p.advance()
			imports = append(imports, &ast.Import{
				ModulePath: modPath, Glob: true, Visibility: visibility,
				Span: p.span(start),
			})
		case p.at(LParen):
			p.advance()
			for !p.at(RParen) && !p.at(EOF) {
				sym := p.expect(Ident, "identifier").Lit
				imports = append(imports, &ast.Import{
					ModulePath: modPath, Symbol: sym, Visibility: visibility,
					Span: p.span(start),
				})
				if p.at(Comma) {
					p.advance()
				}
			}
			p.expect(RParen, "')'")
		default:
			sym := p.expect(Ident, "identifier").Lit
			imp := &ast.Import{ModulePath: modPath, Symbol: sym, Visibility: visibility, Span: p.span(start)}
			if p.at(KwAs) {
				p.advance()
				imp.Alias = p.expect(Ident, "identifier").Lit
			}
			imports = append(imports, imp)
		}
	default:
		imports = append(imports, &ast.Import{ModulePath: modPath, Visibility: visibility, Span: p.span(start)})
	}

	p.consumeSemi()
	return imports
}

func (p *Parser) parseRun() *ast.RunExpr {
	start := p.tok.Pos
	p.advance() // 'run'
	body := p.parseBlock()
	return &ast.RunExpr{Expr: body, Span: p.span(start)}
}

func (p *Parser) parseTopLevelBinding() *ast.Binding {
	start := p.tok.Pos
	visibility := ast.Private
	if p.at(KwPub) {
		visibility = ast.Public
		p.advance()
	}

	if p.at(KwFn) {
		return p.parseFuncBinding(start, visibility)
	}

	p.expect(KwLet, "'let'")
	mut := false
	if p.at(KwMut) {
		mut = true
		p.advance()
	}
	pattern := p.parsePattern(mut)

	var tyAnn ast.TypeExpr
	if p.at(Colon) {
		p.advance()
		tyAnn = p.parseType()
	}

	var value ast.Expr
	if p.at(Assign) {
		p.advance()
		value = p.parseExpr(0)
	}
	p.consumeSemi()

	return &ast.Binding{
		Pattern: pattern, TyAnn: tyAnn, Value: value,
		Visibility: visibility, Mutable: mut, Span: p.span(start),
	}
}

func (p *Parser) parseFuncBinding(start ast.Pos, visibility ast.Visibility) *ast.Binding {
	p.advance() // 'fn'
	name := p.expect(Ident, "function name").Lit
	lit := p.parseFuncLitTail(start)

	pat := ast.NewSingle(&ast.SymbolPattern{
		Symbol: name, BindingInfoID: ast.UnresolvedBindingInfoID, Span: p.span(start),
	})
	return &ast.Binding{Pattern: pat, Value: lit, Visibility: visibility, Span: p.span(start)}
}

// parseFuncLitTail parses the `(params) -> ret { body }` tail shared by a
// named `fn` binding and an anonymous `fn(...) {...}` expression.
func (p *Parser) parseFuncLitTail(start ast.Pos) *ast.FuncLit {
	lit := &ast.FuncLit{Span: p.span(start)}
	p.expect(LParen, "'('")
	for !p.at(RParen) && !p.at(EOF) {
		paramStart := p.tok.Pos
		pname := p.expect(Ident, "parameter name").Lit
		var tyAnn ast.TypeExpr
		if p.at(Colon) {
			p.advance()
			if p.at(DotDot) {
				p.advance()
				lit.Variadic = true
				lit.VariadicTy = p.parseType()
			} else {
				tyAnn = p.parseType()
			}
		}
		var def ast.Expr
		if p.at(Assign) {
			p.advance()
			def = p.parseExpr(0)
		}
		lit.Params = append(lit.Params, &ast.Param{
			Name: pname, TyAnn: tyAnn, Default: def, Span: p.span(paramStart),
		})
		if p.at(Comma) {
			p.advance()
		}
	}
	p.expect(RParen, "')'")
	if p.at(Arrow) {
		p.advance()
		lit.RetTyAnn = p.parseType()
	}
	lit.Body = p.parseBlock()
	lit.Span = p.span(start)
	return lit
}

func (p *Parser) parsePattern(mut bool) *ast.Pattern {
	start := p.tok.Pos
	switch {
	case p.at(LBrace):
		p.advance()
		var syms []*ast.SymbolPattern
		for !p.at(RBrace) && !p.at(EOF) {
			syms = append(syms, p.parseSymbolPattern())
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RBrace, "'}'")
		return ast.NewStructDestructor(syms, true, p.span(start))
	case p.at(LParen):
		p.advance()
		var syms []*ast.SymbolPattern
		for !p.at(RParen) && !p.at(EOF) {
			syms = append(syms, p.parseSymbolPattern())
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RParen, "')'")
		return ast.NewTupleDestructor(syms, true, p.span(start))
	default:
		name := p.expect(Ident, "identifier").Lit
		return ast.NewSingle(&ast.SymbolPattern{
			Symbol: name, Mutable: mut, Ignore: name == "_",
			BindingInfoID: ast.UnresolvedBindingInfoID, Span: p.span(start),
		})
	}
}

func (p *Parser) parseSymbolPattern() *ast.SymbolPattern {
	start := p.tok.Pos
	mut := false
	if p.at(KwMut) {
		mut = true
		p.advance()
	}
	name := p.expect(Ident, "identifier").Lit
	return &ast.SymbolPattern{
		Symbol: name, Mutable: mut, Ignore: name == "_",
		BindingInfoID: ast.UnresolvedBindingInfoID, Span: p.span(start),
	}
}

// --- types ---

func (p *Parser) parseType() ast.TypeExpr {
	start := p.tok.Pos
	switch {
	case p.at(Star):
		p.advance()
		mut := false
		if p.at(KwMut) {
			mut = true
			p.advance()
		}
		return &ast.PointerType{Elem: p.parseType(), Mut: mut, Span: p.span(start)}
	case p.at(LBracket):
		p.advance()
		switch {
		case p.at(Star):
			p.advance()
			p.expect(RBracket, "']'")
			mut := false
			if p.at(KwMut) {
				mut = true
				p.advance()
			}
			return &ast.PointerType{Elem: p.parseType(), Mut: mut, Multi: true, Span: p.span(start)}
		case p.at(RBracket):
			p.advance()
			mut := false
			if p.at(KwMut) {
				mut = true
				p.advance()
			}
			return &ast.SliceType{Elem: p.parseType(), Mut: mut, Span: p.span(start)}
		case p.at(Int):
			n, _ := strconv.Atoi(p.tok.Lit)
			p.advance()
			p.expect(RBracket, "']'")
			return &ast.ArrayType{Elem: p.parseType(), Size: n, Span: p.span(start)}
		default:
			p.errorf(p.span(start), "expected array/slice/multi-pointer type")
			return &ast.NamedType{Name: "unit", Span: p.span(start)}
		}
	case p.at(LParen):
		p.advance()
		var elems []ast.TypeExpr
		for !p.at(RParen) && !p.at(EOF) {
			elems = append(elems, p.parseType())
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RParen, "')'")
		return &ast.TupleType{Elems: elems, Span: p.span(start)}
	case p.at(KwFn):
		p.advance()
		p.expect(LParen, "'('")
		var params []ast.FnParamType
		variadic := false
		for !p.at(RParen) && !p.at(EOF) {
			if p.at(DotDot) {
				p.advance()
				variadic = true
				params = append(params, ast.FnParamType{Ty: p.parseType()})
			} else {
				params = append(params, ast.FnParamType{Ty: p.parseType()})
			}
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RParen, "')'")
		var ret ast.TypeExpr
		if p.at(Arrow) {
			p.advance()
			ret = p.parseType()
		}
		return &ast.FnType{Params: params, Variadic: variadic, Ret: ret, Span: p.span(start)}
	default:
		name := p.expect(Ident, "type name").Lit
		return &ast.NamedType{Name: name, Span: p.span(start)}
	}
}

// --- expressions ---

func (p *Parser) parseBlock() *ast.Block {
	start := p.tok.Pos
	p.expect(LBrace, "'{'")
	b := &ast.Block{}
	for !p.at(RBrace) && !p.at(EOF) {
		if p.at(KwLet) {
			b.Exprs = append(b.Exprs, p.parseLetStmt())
			continue
		}
		e := p.parseExpr(0)
		b.Exprs = append(b.Exprs, e)
		if p.at(Semi) {
			p.advance()
		}
	}
	p.expect(RBrace, "'}'")
	b.Span = p.span(start)
	return b
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	start := p.tok.Pos
	p.advance() // 'let'
	mut := false
	if p.at(KwMut) {
		mut = true
		p.advance()
	}
	pattern := p.parsePattern(mut)
	var tyAnn ast.TypeExpr
	if p.at(Colon) {
		p.advance()
		tyAnn = p.parseType()
	}
	var value ast.Expr
	if p.at(Assign) {
		p.advance()
		value = p.parseExpr(0)
	}
	p.consumeSemi()
	return &ast.LetStmt{Pattern: pattern, TyAnn: tyAnn, Value: value, Span: p.span(start)}
}

var binPrec = map[TokenKind]int{
	EqEq: 1, NotEq: 1, Lt: 1, Gt: 1, LtEq: 1, GtEq: 1,
	Plus: 2, Minus: 2,
	Star: 3, Slash: 3,
}

var binOpLit = map[TokenKind]string{
	EqEq: "==", NotEq: "!=", Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/",
}

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binPrec[p.tok.Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := binOpLit[p.tok.Kind]
		start := left.Position().Start
		p.advance()
		right := p.parseExpr(prec + 1)
		left = &ast.BinaryOp{Left: left, Op: op, Right: right, Span: p.span(start)}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok.Pos
	switch p.tok.Kind {
	case Minus:
		p.advance()
		return &ast.UnaryOp{Op: "-", X: p.parseUnary(), Span: p.span(start)}
	case Bang:
		p.advance()
		return &ast.UnaryOp{Op: "!", X: p.parseUnary(), Span: p.span(start)}
	case Amp:
		p.advance()
		op := "&"
		if p.at(KwMut) {
			p.advance()
			op = "&mut"
		}
		return &ast.UnaryOp{Op: op, X: p.parseUnary(), Span: p.span(start)}
	case Star:
		p.advance()
		return &ast.UnaryOp{Op: "*", X: p.parseUnary(), Span: p.span(start)}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for p.at(LParen) {
		start := e.Position().Start
		p.advance()
		var args []*ast.Argument
		for !p.at(RParen) && !p.at(EOF) {
			argStart := p.tok.Pos
			v := p.parseExpr(0)
			spread := false
			if p.at(DotDot) {
				spread = true
				p.advance()
			}
			args = append(args, &ast.Argument{Value: v, Spread: spread, Span: p.span(argStart)})
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RParen, "')'")
		e = &ast.Call{Callee: e, Args: args, Span: p.span(start)}
	}
	return e
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.tok.Pos
	switch p.tok.Kind {
	case Int:
		v, _ := strconv.ParseInt(p.tok.Lit, 10, 64)
		p.advance()
		return &ast.Literal{Kind: ast.IntLit, Value: v, Span: p.span(start)}
	case Float:
		v, _ := strconv.ParseFloat(p.tok.Lit, 64)
		p.advance()
		return &ast.Literal{Kind: ast.FloatLit, Value: v, Span: p.span(start)}
	case String:
		v := p.tok.Lit
		p.advance()
		return &ast.Literal{Kind: ast.StringLit, Value: v, Span: p.span(start)}
	case KwTrue:
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: true, Span: p.span(start)}
	case KwFalse:
		p.advance()
		return &ast.Literal{Kind: ast.BoolLit, Value: false, Span: p.span(start)}
	case Ident:
		name := p.tok.Lit
		p.advance()
		return &ast.Ident{Name: name, BindingInfoID: ast.UnresolvedBindingInfoID, Span: p.span(start)}
	case LParen:
		p.advance()
		if p.at(RParen) {
			p.advance()
			return &ast.Literal{Kind: ast.UnitLit, Span: p.span(start)}
		}
		first := p.parseExpr(0)
		if p.at(Comma) {
			elems := []ast.Expr{first}
			for p.at(Comma) {
				p.advance()
				if p.at(RParen) {
					break
				}
				elems = append(elems, p.parseExpr(0))
			}
			p.expect(RParen, "')'")
			return &ast.TupleLit{Elements: elems, Span: p.span(start)}
		}
		p.expect(RParen, "')'")
		return first
	case LBracket:
		p.advance()
		var elems []ast.Expr
		for !p.at(RBracket) && !p.at(EOF) {
			elems = append(elems, p.parseExpr(0))
			if p.at(Comma) {
				p.advance()
			}
		}
		p.expect(RBracket, "']'")
		return &ast.ArrayLit{Elements: elems, Span: p.span(start)}
	case KwFn:
		p.advance()
		return p.parseFuncLitTail(start)
	case KwIf:
		p.advance()
		cond := p.parseExpr(0)
		then := p.parseBlock()
		var els ast.Expr
		if p.at(KwElse) {
			p.advance()
			if p.at(KwIf) {
				els = p.parsePrimary()
			} else {
				els = p.parseBlock()
			}
		}
		return &ast.If{Cond: cond, Then: then, Else: els, Span: p.span(start)}
	case LBrace:
		return p.parseBlock()
	default:
		p.errorf(p.span(start), "expected expression")
		p.advance()
		return &ast.Literal{Kind: ast.UnitLit, Span: p.span(start)}
	}
}
