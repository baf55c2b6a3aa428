// Package handler verifies the handler declarations of a program and rewrites
// them into the exported wrappers the vector table links against.
//
// Handlers are ordinary functions marked with a kind directive:
//
//	//rt:exception
//	func SysTick() {
//		//rt:static
//		var count uint32
//		count++
//	}
//
// The pass checks each declaration, extracts persistent storage into
// package-level slots and emits the wrappers exported under the vector
// names.
package handler

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/packages"

	"omibyte.io/cmrt/arch"
	"omibyte.io/cmrt/vector"
)

type Config struct {
	// Dir is the directory the package pattern is resolved in.
	Dir     string
	Pattern string

	Tier arch.Tier

	// Interrupts are the device interrupt names. Nil means no device
	// description is available.
	Interrupts []string

	// Tags are the build tags used both for loading and for //rt:cfg.
	Tags []string
	Env  []string

	// Lint enables the pre-init static access check.
	Lint bool
}

// Handler is one verified handler declaration.
type Handler struct {
	// Name is the Go name of the declared function.
	Name string

	// Vector is the vector name the handler overrides.
	Vector string
	Kind   vector.Kind

	Trampoline bool
	Unsafe     bool
	Section    string
	Statics    []*Static
	Pos        token.Position

	decl *ast.FuncDecl
	file *ast.File
	obj  *types.Func
}

// prefix is the base of every generated name belonging to the handler.
func (h *Handler) prefix() string {
	return "__rt_" + h.Name
}

// Impl is the name the user function is renamed to.
func (h *Handler) Impl() string {
	return h.prefix()
}

// Wrapper is the name of the generated exported function.
func (h *Handler) Wrapper() string {
	return h.prefix() + "_trampoline"
}

// Symbol is the link symbol the wrapper is exported under.
func (h *Handler) Symbol() string {
	return h.Definition().Symbol()
}

func (h *Handler) Definition() vector.Definition {
	return vector.Definition{
		Name:       h.Vector,
		Kind:       h.Kind,
		Trampoline: h.Trampoline,
		Position:   h.Pos.String(),
	}
}

type Result struct {
	PkgName string
	PkgPath string

	Handlers []*Handler
	Registry *vector.Registry

	// Files maps output file names to their transformed contents.
	Files map[string][]byte

	Diagnostics Diagnostics
}

// Run loads the package, verifies its handlers and, when verification
// succeeds, produces the transformed sources.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	pkg, err := Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Process(pkg, cfg)
}

// Check verifies the handlers without producing any output.
func Check(ctx context.Context, cfg Config) (*Result, error) {
	pkg, err := Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p := newPass(pkg, cfg)
	p.verify()
	return p.result(), p.diags.Err()
}

// Process runs the pass over an already loaded package.
func Process(pkg *packages.Package, cfg Config) (*Result, error) {
	p := newPass(pkg, cfg)
	p.verify()
	if err := p.diags.Err(); err != nil {
		return p.result(), err
	}
	if err := p.transform(); err != nil {
		return p.result(), err
	}
	return p.result(), nil
}

type pass struct {
	cfg  Config
	pkg  *packages.Package
	fset *token.FileSet
	info *types.Info
	tags []string

	handlers []*Handler
	slots    map[string]*Static
	registry *vector.Registry
	files    map[string][]byte
	diags    Diagnostics
}

func newPass(pkg *packages.Package, cfg Config) *pass {
	tags := append(slices.Clone(cfg.Tags), cfg.Tier.Tags()...)
	return &pass{
		cfg:      cfg,
		pkg:      pkg,
		fset:     pkg.Fset,
		info:     pkg.TypesInfo,
		tags:     tags,
		slots:    map[string]*Static{},
		registry: vector.NewRegistry(),
		files:    map[string][]byte{},
	}
}

func (p *pass) result() *Result {
	return &Result{
		PkgName:     p.pkg.Name,
		PkgPath:     p.pkg.PkgPath,
		Handlers:    p.handlers,
		Registry:    p.registry,
		Files:       p.files,
		Diagnostics: p.diags,
	}
}

func (p *pass) report(pos token.Pos, severity Severity, err error) {
	d := Diagnostic{Pos: p.fset.Position(pos), Severity: severity, Err: err}
	// Keep the sentinel reachable through Unwrap while carrying the detail.
	if wrapped, ok := err.(interface{ Unwrap() error }); ok && wrapped.Unwrap() != nil {
		d.Err = wrapped.Unwrap()
		d.Message = trimSentinel(err.Error(), d.Err.Error())
	}
	p.diags = append(p.diags, d)
}

func trimSentinel(msg, sentinel string) string {
	if len(msg) > len(sentinel)+2 && msg[:len(sentinel)] == sentinel {
		return msg[len(sentinel)+2:]
	}
	return msg
}

// verify performs every check that does not modify the syntax trees.
func (p *pass) verify() {
	for _, file := range p.pkg.Syntax {
		cmap := ast.NewCommentMap(p.fset, file, file.Comments)
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			p.verifyDecl(file, cmap, fn)
		}
	}

	p.checkReferences()

	if _, ok := p.registry.Entry(); !ok {
		p.diags = append(p.diags, Diagnostic{Severity: Error, Err: vector.ErrMissingEntry})
	}

	if p.cfg.Lint {
		for _, h := range p.handlers {
			if h.Kind == vector.KindPreInit {
				p.lintPreInit(h)
			}
		}
	}
}

func (p *pass) verifyDecl(file *ast.File, cmap ast.CommentMap, fn *ast.FuncDecl) {
	d, errs := parseDirectives(fn.Doc)
	if len(d.kind) == 0 {
		// Not a handler. Stray runtime directives are still mistakes.
		if d.unsafe || d.static || d.cfg != nil || len(d.section) > 0 {
			p.report(fn.Pos(), Error, fmt.Errorf("%w: runtime directive on %s without a handler kind", ErrDirective, fn.Name.Name))
		}
		return
	}
	for _, err := range errs {
		p.report(fn.Pos(), Error, err)
	}
	if !d.enabled(p.tags) {
		return
	}

	h := &Handler{
		Name:       fn.Name.Name,
		Vector:     fn.Name.Name,
		Trampoline: d.trampoline,
		Unsafe:     d.unsafe,
		Section:    d.section,
		Pos:        p.fset.Position(fn.Pos()),
		decl:       fn,
		file:       file,
	}
	h.obj, _ = p.info.Defs[fn.Name].(*types.Func)

	switch d.kind {
	case directiveEntry:
		h.Kind, h.Vector = vector.KindEntry, vector.SymbolEntry
	case directivePreInit:
		h.Kind, h.Vector = vector.KindPreInit, vector.SymbolPreInit
	case directiveInterrupt:
		h.Kind = vector.KindInterrupt
		switch {
		case p.cfg.Interrupts == nil:
			p.report(fn.Pos(), Error, fmt.Errorf("%w: %s", ErrNoDevice, h.Name))
			return
		case !slices.Contains(p.cfg.Interrupts, h.Name):
			p.report(fn.Pos(), Error, fmt.Errorf("%w: device has no interrupt named %s", ErrUnknownVector, h.Name))
			return
		}
	case directiveException:
		switch h.Name {
		case vector.SymbolDefaultHandler:
			h.Kind = vector.KindDefaultHandler
		case vector.SymbolHardFault:
			h.Kind = vector.KindHardFault
		default:
			h.Kind = vector.KindException
			e, ok := arch.LookupException(h.Name)
			if !ok || !e.Available(p.cfg.Tier) {
				p.report(fn.Pos(), Error, fmt.Errorf("%w: %s has no exception named %s (available: %v)", ErrUnknownVector, p.cfg.Tier, h.Name, arch.Names(p.cfg.Tier)))
				return
			}
		}
	}
	if h.Kind != vector.KindHardFault {
		h.Trampoline = false
	}

	if requiresUnsafe(h) && !h.Unsafe {
		p.report(fn.Pos(), Error, fmt.Errorf("%w: %s %s", ErrUnsafeRequired, h.Kind, h.Name))
	}

	if err := checkSignature(p.info, fn, h.Kind, h.Trampoline); err != nil {
		p.report(fn.Pos(), Error, err)
		return
	}

	statics, serrs := p.extractStatics(h, cmap)
	for _, err := range serrs {
		p.report(fn.Pos(), Error, err)
	}
	if h.Kind == vector.KindPreInit && len(statics) > 0 {
		p.report(fn.Pos(), Error, fmt.Errorf("%w: pre-init runs before statics are initialized", ErrDirective))
	}
	h.Statics = statics

	if err := p.registry.Define(h.Definition()); err != nil {
		p.report(fn.Pos(), Error, err)
		return
	}
	p.handlers = append(p.handlers, h)
}

func requiresUnsafe(h *Handler) bool {
	switch h.Kind {
	case vector.KindHardFault, vector.KindDefaultHandler, vector.KindPreInit:
		return true
	}
	return h.Vector == arch.NonMaskableInt.String()
}

// checkReferences rejects any use of a handler outside its declaration. The
// wrapper is the only caller the runtime allows.
func (p *pass) checkReferences() {
	handlers := map[types.Object]*Handler{}
	for _, h := range p.handlers {
		if h.obj != nil {
			handlers[h.obj] = h
		}
	}
	if len(handlers) == 0 {
		return
	}

	for ident, obj := range p.info.Uses {
		if h, ok := handlers[obj]; ok {
			p.report(ident.Pos(), Error, fmt.Errorf("%w: %s", ErrReferenced, h.Name))
		}
	}
	slices.SortStableFunc(p.diags, func(a, b Diagnostic) bool {
		if a.Pos.Filename != b.Pos.Filename {
			return a.Pos.Filename < b.Pos.Filename
		}
		return a.Pos.Offset < b.Pos.Offset
	})
}

func importPath(spec *ast.ImportSpec) string {
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return ""
	}
	return path
}

func parseExpr(src string) (ast.Expr, error) {
	return parser.ParseExpr(src)
}
