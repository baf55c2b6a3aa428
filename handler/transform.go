package handler

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"omibyte.io/cmrt/vector"
)

// GeneratedFile is the name of the file holding the exported wrappers.
const GeneratedFile = "zz_rt_handlers.go"

// transform rewrites every file of the package and generates the wrapper
// file. It must only run after verify reported no errors.
func (p *pass) transform() error {
	byFile := map[*ast.File][]*Handler{}
	for _, h := range p.handlers {
		byFile[h.file] = append(byFile[h.file], h)
	}

	for i, file := range p.pkg.Syntax {
		name := filepath.Base(p.pkg.CompiledGoFiles[i])
		if name == GeneratedFile {
			return fmt.Errorf("%s already exists in %s", GeneratedFile, p.pkg.PkgPath)
		}

		src, err := p.rewriteFile(file, byFile[file])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		p.files[name] = src
	}

	src, err := p.generate()
	if err != nil {
		return err
	}
	p.files[GeneratedFile] = src
	return nil
}

func (p *pass) rewriteFile(file *ast.File, handlers []*Handler) ([]byte, error) {
	var slots strings.Builder

	if len(handlers) > 0 {
		cmap := ast.NewCommentMap(p.fset, file, file.Comments)

		rtName := ""
		for _, h := range handlers {
			if len(h.Statics) > 0 && len(rtName) == 0 {
				rtName = p.importName(file, rtPackage, "rt")
			}
			if err := p.rewriteStatics(h); err != nil {
				return nil, err
			}
			h.decl.Name.Name = h.Impl()

			for _, s := range h.Statics {
				if len(s.Init) > 0 {
					fmt.Fprintf(&slots, "\nvar %s = %s.Slot[%s]{Value: %s}\n", s.Slot, rtName, s.Type, s.Init)
				} else {
					fmt.Fprintf(&slots, "\nvar %s %s.Slot[%s]\n", s.Slot, rtName, s.Type)
				}
			}
		}

		// Drop the comments of removed statements.
		file.Comments = cmap.Filter(file).Comments()
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, p.fset, file); err != nil {
		return nil, err
	}
	buf.WriteString(slots.String())

	return format.Source(buf.Bytes())
}

// importName returns the name the file imports path under, adding the
// import if it is missing.
func (p *pass) importName(file *ast.File, path, name string) string {
	for _, spec := range file.Imports {
		if importPath(spec) != path {
			continue
		}
		if spec.Name != nil && spec.Name.Name != "_" && spec.Name.Name != "." {
			return spec.Name.Name
		}
		if spec.Name == nil {
			return name
		}
	}
	if p.pkg.Types.Scope().Lookup(name) == nil {
		astutil.AddImport(p.fset, file, path)
		return name
	}
	astutil.AddNamedImport(p.fset, file, "__rt", path)
	return "__rt"
}

// generate emits the exported wrappers.
func (p *pass) generate() ([]byte, error) {
	var w strings.Builder

	fmt.Fprintln(&w, "// Code generated by cmrt. DO NOT EDIT.")
	fmt.Fprintln(&w)
	fmt.Fprintf(&w, "package %s\n\n", p.pkg.Name)

	needsFault := false
	for _, h := range p.handlers {
		if h.Kind == vector.KindHardFault && h.Trampoline {
			needsFault = true
		}
	}

	names := wrapperNames{rt: p.generatedImport("rt"), fault: p.generatedImport("fault")}

	fmt.Fprintln(&w, "import (")
	if needsFault {
		writeImport(&w, names.fault, "fault", faultPackage)
	}
	writeImport(&w, names.rt, "rt", rtPackage)
	fmt.Fprintln(&w, ")")

	for _, h := range p.handlers {
		writeWrapper(&w, h, names)
	}

	// A main package still needs main.main once the entry point is renamed.
	if entry := p.entry(); entry != nil && p.pkg.Name == "main" && entry.Name == "main" {
		fmt.Fprintf(&w, "\nfunc main() {\n%s()\n}\n", entry.Wrapper())
	}

	// Hosted runs look the wrappers up by symbol.
	fmt.Fprintln(&w, "\nfunc init() {")
	for _, h := range p.handlers {
		if h.Kind == vector.KindHardFault && h.Trampoline {
			fmt.Fprintf(&w, "%s.ExportFault(%q, %s)\n", names.rt, h.Symbol(), h.Wrapper())
			continue
		}
		fmt.Fprintf(&w, "%s.Export(%q, %s)\n", names.rt, h.Symbol(), h.Wrapper())
	}
	fmt.Fprintln(&w, "}")

	return format.Source([]byte(w.String()))
}

// wrapperNames are the names the generated file imports the runtime
// packages under.
type wrapperNames struct {
	rt    string
	fault string
}

// generatedImport returns the name the generated file imports a runtime
// package under. A package-level declaration of the same name forces an
// alias, as in importName.
func (p *pass) generatedImport(name string) string {
	if p.pkg.Types.Scope().Lookup(name) == nil {
		return name
	}
	return "__" + name
}

func writeImport(w *strings.Builder, name, base, path string) {
	if name == base {
		fmt.Fprintf(w, "\t%q\n", path)
		return
	}
	fmt.Fprintf(w, "\t%s %q\n", name, path)
}

func (p *pass) entry() *Handler {
	for _, h := range p.handlers {
		if h.Kind == vector.KindEntry {
			return h
		}
	}
	return nil
}

func writeWrapper(w *strings.Builder, h *Handler, names wrapperNames) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "// %s is exported as %s.\n", h.Wrapper(), h.Symbol())
	switch h.Kind {
	case vector.KindException, vector.KindInterrupt, vector.KindDefaultHandler:
		fmt.Fprintf(w, "//sigo:interrupt %s %s\n", h.Wrapper(), h.Symbol())
	default:
		fmt.Fprintf(w, "//go:export %s %s\n", h.Wrapper(), h.Symbol())
	}

	var args []string
	switch {
	case h.Kind == vector.KindHardFault && h.Trampoline:
		fmt.Fprintf(w, "func %s(frame *%s.ExceptionFrame) {\n", h.Wrapper(), names.fault)
		args = append(args, "frame")
	case h.Kind == vector.KindDefaultHandler:
		fmt.Fprintf(w, "func %s() {\n", h.Wrapper())
		args = append(args, names.rt+".VectActive()")
	default:
		fmt.Fprintf(w, "func %s() {\n", h.Wrapper())
	}

	for i, s := range h.Statics {
		local := fmt.Sprintf("s%d", i)
		if h.Kind == vector.KindEntry {
			// The entry point never returns, so its storage is never handed
			// back.
			fmt.Fprintf(w, "%s := %s.Static()\n", local, s.Slot)
		} else {
			fmt.Fprintf(w, "%s := %s.Borrow()\n", local, s.Slot)
			fmt.Fprintf(w, "defer %s.Return()\n", s.Slot)
		}
		args = append(args, local)
	}

	fmt.Fprintf(w, "%s(%s)\n", h.Impl(), strings.Join(args, ", "))
	fmt.Fprintln(w, "}")
}
