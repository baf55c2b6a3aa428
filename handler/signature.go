package handler

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"omibyte.io/cmrt/vector"
)

const (
	faultPackage = "omibyte.io/cmrt/fault"
	rtPackage    = "omibyte.io/cmrt/rt"
)

// expectedSignature returns the signature a handler of the kind must be
// declared with, as shown in diagnostics.
func expectedSignature(kind vector.Kind, trampoline bool) string {
	switch kind {
	case vector.KindEntry:
		return "func() that never returns"
	case vector.KindHardFault:
		if trampoline {
			return "func(*fault.ExceptionFrame) that never returns"
		}
		return "func() that never returns"
	case vector.KindDefaultHandler:
		return "func(irqn int16)"
	}
	return "func()"
}

// checkSignature validates the declared shape of a handler.
func checkSignature(info *types.Info, decl *ast.FuncDecl, kind vector.Kind, trampoline bool) error {
	expected := expectedSignature(kind, trampoline)
	fail := func(reason string) error {
		return fmt.Errorf("%w: %s handler %s must be %s (%s)", ErrSignature, kind, decl.Name.Name, expected, reason)
	}

	if decl.Recv != nil {
		return fail("methods cannot be handlers")
	}
	if decl.Type.TypeParams != nil && decl.Type.TypeParams.NumFields() > 0 {
		return fail("type parameters are not allowed")
	}
	if decl.Type.Results != nil && decl.Type.Results.NumFields() > 0 {
		return fail("results are not allowed")
	}
	if decl.Body == nil {
		return fail("missing body")
	}

	params := paramTypes(info, decl)
	switch {
	case kind == vector.KindHardFault && trampoline:
		if len(params) != 1 || !isFramePointer(params[0]) {
			return fail("takes a pointer to the exception frame")
		}
	case kind == vector.KindDefaultHandler:
		if len(params) != 1 || !types.Identical(params[0], types.Typ[types.Int16]) {
			return fail("takes the active IRQ number")
		}
	default:
		if len(params) != 0 {
			return fail("takes no parameters")
		}
	}

	if mustDiverge(kind) && !diverges(info, decl.Body) {
		return fail("body may return")
	}
	return nil
}

func mustDiverge(kind vector.Kind) bool {
	return kind == vector.KindEntry || kind == vector.KindHardFault
}

func paramTypes(info *types.Info, decl *ast.FuncDecl) []types.Type {
	obj, ok := info.Defs[decl.Name].(*types.Func)
	if !ok {
		return nil
	}
	sig := obj.Type().(*types.Signature)
	out := make([]types.Type, sig.Params().Len())
	for i := range out {
		out[i] = sig.Params().At(i).Type()
	}
	return out
}

func isFramePointer(t types.Type) bool {
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return false
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == faultPackage && obj.Name() == "ExceptionFrame"
}

// diverges reports whether control can never leave body normally: there is
// no return statement and the final statement is terminating.
func diverges(info *types.Info, body *ast.BlockStmt) bool {
	if containsReturn(body) {
		return false
	}
	return terminates(info, body)
}

func containsReturn(node ast.Node) bool {
	found := false
	ast.Inspect(node, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			found = true
		}
		return !found
	})
	return found
}

func terminates(info *types.Info, stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		if len(s.List) == 0 {
			return false
		}
		return terminates(info, s.List[len(s.List)-1])
	case *ast.LabeledStmt:
		if loop, ok := s.Stmt.(*ast.ForStmt); ok {
			return loop.Cond == nil && !hasBreak(loop.Body, s.Label.Name)
		}
		return terminates(info, s.Stmt)
	case *ast.ForStmt:
		return s.Cond == nil && !hasBreak(s.Body, "")
	case *ast.SelectStmt:
		for _, clause := range s.Body.List {
			cc := clause.(*ast.CommClause)
			if len(cc.Body) == 0 || !terminates(info, cc.Body[len(cc.Body)-1]) || hasBreakList(cc.Body) {
				return false
			}
		}
		return true
	case *ast.IfStmt:
		return s.Else != nil && terminates(info, s.Body) && terminates(info, s.Else)
	case *ast.SwitchStmt:
		return clausesTerminate(info, s.Body)
	case *ast.TypeSwitchStmt:
		return clausesTerminate(info, s.Body)
	case *ast.ExprStmt:
		call, ok := s.X.(*ast.CallExpr)
		return ok && isDivergingCall(info, call)
	case *ast.GoStmt, *ast.DeferStmt:
		return false
	}
	return false
}

func clausesTerminate(info *types.Info, body *ast.BlockStmt) bool {
	hasDefault := false
	for _, clause := range body.List {
		cc := clause.(*ast.CaseClause)
		if cc.List == nil {
			hasDefault = true
		}
		if len(cc.Body) == 0 || hasBreakList(cc.Body) {
			return false
		}
		last := cc.Body[len(cc.Body)-1]
		if branch, ok := last.(*ast.BranchStmt); ok && branch.Tok == token.FALLTHROUGH {
			continue
		}
		if !terminates(info, last) {
			return false
		}
	}
	return hasDefault
}

func hasBreakList(list []ast.Stmt) bool {
	return hasBreak(&ast.BlockStmt{List: list}, "")
}

// hasBreak looks for a break leaving body. Unlabeled breaks only count
// outside nested loops, switches and selects.
func hasBreak(body *ast.BlockStmt, label string) bool {
	found := false
	var visit func(n ast.Node, nested bool) bool
	visit = func(n ast.Node, nested bool) bool {
		ast.Inspect(n, func(child ast.Node) bool {
			if found || child == nil {
				return false
			}
			switch c := child.(type) {
			case *ast.FuncLit:
				return false
			case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
				if child != n {
					visit(child, true)
					return false
				}
			case *ast.BranchStmt:
				if c.Tok != token.BREAK {
					return true
				}
				if c.Label != nil {
					found = c.Label.Name == label
				} else if !nested {
					found = true
				}
			}
			return true
		})
		return found
	}
	return visit(body, false)
}

// isDivergingCall recognises calls that never return: the panic builtin and
// rt.Halt.
func isDivergingCall(info *types.Info, call *ast.CallExpr) bool {
	var ident *ast.Ident
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		ident = fn
	case *ast.SelectorExpr:
		ident = fn.Sel
	default:
		return false
	}

	switch obj := info.Uses[ident].(type) {
	case *types.Builtin:
		return obj.Name() == "panic"
	case *types.Func:
		return obj.Pkg() != nil && obj.Pkg().Path() == rtPackage && obj.Name() == "Halt"
	}
	return false
}
