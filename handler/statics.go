package handler

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// Static is a persistent handler-local variable. It is moved out of the
// handler into a package-level slot and handed back to the handler as a
// pointer parameter.
type Static struct {
	Name string

	// Slot is the name of the package-level rt.Slot holding the value.
	Slot string

	// Type is the Go source of the value type.
	Type string

	// Init is the Go source of the initializer. Empty means the zero value.
	Init string

	Pos token.Position

	obj  *types.Var
	stmt ast.Stmt
}

// staticDirectives collects the comment groups attached to a leading var
// statement.
func staticDirectives(cmap ast.CommentMap, stmt *ast.DeclStmt) []*ast.CommentGroup {
	gen := stmt.Decl.(*ast.GenDecl)
	var groups []*ast.CommentGroup
	seen := map[*ast.CommentGroup]bool{}
	add := func(list ...*ast.CommentGroup) {
		for _, g := range list {
			if g != nil && !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	add(gen.Doc)
	add(cmap[stmt]...)
	add(cmap[gen]...)
	return groups
}

// staticDirective merges the directives attached to a var statement.
func staticDirective(cmap ast.CommentMap, stmt *ast.DeclStmt) (d directives, errs []error) {
	for _, group := range staticDirectives(cmap, stmt) {
		parsed, perrs := parseDirectives(group)
		errs = append(errs, perrs...)
		d.static = d.static || parsed.static
		if parsed.cfg != nil {
			d.cfg = parsed.cfg
		}
	}
	return d, errs
}

// extractStatics finds the //rt:static var statements among the leading var
// statements of the handler body. Statements disabled by //rt:cfg stay in the
// body as ordinary locals. A static anywhere else is an error.
func (p *pass) extractStatics(h *Handler, cmap ast.CommentMap) (statics []*Static, errs []error) {
	leading := map[*ast.DeclStmt]bool{}
	for _, stmt := range h.decl.Body.List {
		declStmt, ok := stmt.(*ast.DeclStmt)
		if !ok {
			break
		}
		gen, ok := declStmt.Decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			break
		}
		leading[declStmt] = true

		d, derrs := staticDirective(cmap, declStmt)
		errs = append(errs, derrs...)
		if !d.static || !d.enabled(p.tags) {
			continue
		}

		for _, spec := range gen.Specs {
			vspec := spec.(*ast.ValueSpec)
			for i, ident := range vspec.Names {
				pos := p.fset.Position(ident.Pos())
				if ident.Name == "_" {
					errs = append(errs, fmt.Errorf("%w: %s: blank static", ErrDirective, pos))
					continue
				}

				obj, _ := p.info.Defs[ident].(*types.Var)
				if obj == nil {
					continue
				}

				s := &Static{
					Name: ident.Name,
					Slot: h.prefix() + "_" + ident.Name,
					Pos:  pos,
					obj:  obj,
					stmt: stmt,
				}

				// Slot names are package-wide and may collide across handlers.
				if prev, ok := p.slots[s.Slot]; ok {
					errs = append(errs, fmt.Errorf("%w: %s: %s collides with %s at %s", ErrDuplicateStatic, pos, s.Slot, prev.Name, prev.Pos))
					continue
				}
				if p.pkg.Types.Scope().Lookup(s.Slot) != nil {
					errs = append(errs, fmt.Errorf("%w: %s: %s is already declared", ErrDuplicateStatic, pos, s.Slot))
					continue
				}
				p.slots[s.Slot] = s

				if vspec.Type != nil {
					s.Type = p.source(vspec.Type)
				} else {
					s.Type = types.TypeString(obj.Type(), p.qualifier(h.file))
				}

				if len(vspec.Values) > 0 {
					if len(vspec.Values) != len(vspec.Names) {
						errs = append(errs, fmt.Errorf("%w: %s: %s", ErrStaticInitializer, pos, ident.Name))
						continue
					}
					init := vspec.Values[i]
					if !isConstant(p.info, init) {
						errs = append(errs, fmt.Errorf("%w: %s: %s = %s", ErrStaticInitializer, pos, ident.Name, p.source(init)))
						continue
					}
					s.Init = p.source(init)
				}

				statics = append(statics, s)
			}
		}
	}

	ast.Inspect(h.decl.Body, func(n ast.Node) bool {
		declStmt, ok := n.(*ast.DeclStmt)
		if !ok || leading[declStmt] {
			return true
		}
		if d, _ := staticDirective(cmap, declStmt); d.static {
			errs = append(errs, fmt.Errorf("%w: %s: //rt:static must precede the other statements of %s", ErrDirective, p.fset.Position(declStmt.Pos()), h.Name))
		}
		return true
	})

	return statics, errs
}

// isConstant accepts constant expressions and composite literals built only
// from constants.
func isConstant(info *types.Info, expr ast.Expr) bool {
	if tv, ok := info.Types[expr]; ok && tv.Value != nil {
		return true
	}

	switch e := expr.(type) {
	case *ast.ParenExpr:
		return isConstant(info, e.X)
	case *ast.CompositeLit:
		for _, elt := range e.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				if _, isField := info.Uses[identOf(kv.Key)].(*types.Var); !isField && !isConstant(info, kv.Key) {
					return false
				}
				elt = kv.Value
			}
			if !isConstant(info, elt) {
				return false
			}
		}
		return true
	case *ast.Ident:
		// nil and the zero value of named types spelled as a literal.
		_, isNil := info.Uses[e].(*types.Nil)
		return isNil
	}
	return false
}

func identOf(expr ast.Expr) *ast.Ident {
	ident, _ := expr.(*ast.Ident)
	return ident
}

// rewriteStatics removes the extracted declarations, appends the pointer
// parameters and dereferences every use inside the body.
func (p *pass) rewriteStatics(h *Handler) error {
	if len(h.Statics) == 0 {
		return nil
	}

	removed := map[ast.Stmt]bool{}
	objs := map[types.Object]*Static{}
	for _, s := range h.Statics {
		removed[s.stmt] = true
		objs[s.obj] = s
	}

	var body []ast.Stmt
	for _, stmt := range h.decl.Body.List {
		if !removed[stmt] {
			body = append(body, stmt)
		}
	}
	h.decl.Body.List = body

	// New parameters sit at the closing parenthesis so the printer keeps them
	// on the signature line.
	params := h.decl.Type.Params
	for _, s := range h.Statics {
		typ, err := parseExpr(s.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Pos, err)
		}
		movePos(typ, params.Closing)
		params.List = append(params.List, &ast.Field{
			Names: []*ast.Ident{{NamePos: params.Closing, Name: s.Name}},
			Type:  &ast.StarExpr{Star: params.Closing, X: typ},
		})
	}

	astutil.Apply(h.decl.Body, nil, func(c *astutil.Cursor) bool {
		ident, ok := c.Node().(*ast.Ident)
		if !ok {
			return true
		}
		s, ok := objs[p.info.Uses[ident]]
		if !ok {
			return true
		}
		c.Replace(&ast.ParenExpr{X: &ast.StarExpr{X: ast.NewIdent(s.Name)}})
		return true
	})

	return nil
}

// movePos places every token of a type expression parsed on its own at pos.
func movePos(expr ast.Expr, pos token.Pos) {
	ast.Inspect(expr, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			n.NamePos = pos
		case *ast.BasicLit:
			n.ValuePos = pos
		case *ast.StarExpr:
			n.Star = pos
		case *ast.ParenExpr:
			n.Lparen, n.Rparen = pos, pos
		case *ast.ArrayType:
			n.Lbrack = pos
		case *ast.MapType:
			n.Map = pos
		case *ast.ChanType:
			n.Begin = pos
			if n.Arrow.IsValid() {
				n.Arrow = pos
			}
		case *ast.FuncType:
			if n.Func.IsValid() {
				n.Func = pos
			}
		case *ast.StructType:
			n.Struct = pos
		case *ast.InterfaceType:
			n.Interface = pos
		case *ast.FieldList:
			if n.Opening.IsValid() {
				n.Opening, n.Closing = pos, pos
			}
		case *ast.IndexExpr:
			n.Lbrack, n.Rbrack = pos, pos
		case *ast.IndexListExpr:
			n.Lbrack, n.Rbrack = pos, pos
		case *ast.Ellipsis:
			n.Ellipsis = pos
		case *ast.BinaryExpr:
			n.OpPos = pos
		}
		return true
	})
}

// source prints a node back to Go source.
func (p *pass) source(node ast.Node) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, p.fset, node); err != nil {
		return ""
	}
	return buf.String()
}

// qualifier names packages the way the file imports them.
func (p *pass) qualifier(file *ast.File) types.Qualifier {
	return func(pkg *types.Package) string {
		if pkg == p.pkg.Types {
			return ""
		}
		for _, spec := range file.Imports {
			if importPath(spec) != pkg.Path() {
				continue
			}
			if spec.Name != nil {
				return spec.Name.Name
			}
			return pkg.Name()
		}
		astutil.AddImport(p.fset, file, pkg.Path())
		return pkg.Name()
	}
}
