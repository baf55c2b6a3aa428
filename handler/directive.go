package handler

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

const directivePrefix = "//rt:"

const (
	directiveEntry     = "entry"
	directivePreInit   = "pre_init"
	directiveException = "exception"
	directiveInterrupt = "interrupt"
	directiveUnsafe    = "unsafe"
	directiveCfg       = "cfg"
	directiveSection   = "section"
	directiveStatic    = "static"
)

var kindDirectives = []string{directiveEntry, directivePreInit, directiveException, directiveInterrupt}

// allowedPragmas may accompany a handler. Every other tool directive is
// rejected because the runtime owns the symbol name of a handler.
var allowedPragmas = []string{"//go:noinline", "//go:nosplit"}

var toolDirective = regexp.MustCompile(`^//(line |export |[a-z0-9_]+:[a-z])`)

// directives are the annotations attached to one declaration.
type directives struct {
	kind       string
	trampoline bool
	unsafe     bool
	static     bool
	cfg        constraint.Expr
	cfgText    string
	section    string
}

// parseDirectives reads the comment group attached to a declaration. It
// returns the problems found alongside whatever could be parsed.
func parseDirectives(group *ast.CommentGroup) (d directives, errs []error) {
	if group == nil {
		return d, nil
	}

	for _, comment := range group.List {
		text := comment.Text

		if !strings.HasPrefix(text, directivePrefix) {
			if err := checkAnnotation(text); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		// Split the directive into its name and arguments
		parts := strings.Fields(strings.TrimPrefix(text, directivePrefix))
		if len(parts) == 0 {
			errs = append(errs, fmt.Errorf("%w: empty directive", ErrDirective))
			continue
		}
		name, args := parts[0], parts[1:]

		switch {
		case slices.Contains(kindDirectives, name):
			if len(d.kind) > 0 {
				errs = append(errs, fmt.Errorf("%w: //rt:%s conflicts with //rt:%s", ErrDirective, name, d.kind))
				continue
			}
			d.kind = name
			d.trampoline = true
			for _, arg := range args {
				switch {
				case name == directiveException && arg == "trampoline=false":
					d.trampoline = false
				case name == directiveException && arg == "trampoline=true":
				default:
					errs = append(errs, fmt.Errorf("%w: unexpected argument %q to //rt:%s", ErrDirective, arg, name))
				}
			}
		case name == directiveUnsafe || name == directiveStatic:
			if len(args) > 0 {
				errs = append(errs, fmt.Errorf("%w: //rt:%s takes no arguments", ErrDirective, name))
			}
			if name == directiveUnsafe {
				d.unsafe = true
			} else {
				d.static = true
			}
		case name == directiveCfg:
			expr, err := parseCfg(strings.Join(args, " "))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if d.cfg != nil {
				// Multiple conditions must all hold.
				expr = &constraint.AndExpr{X: d.cfg, Y: expr}
			}
			d.cfg = expr
			d.cfgText = expr.String()
		case name == directiveSection:
			if len(args) != 1 {
				errs = append(errs, fmt.Errorf("%w: //rt:section takes exactly one section name", ErrDirective))
				continue
			}
			d.section = args[0]
		default:
			errs = append(errs, fmt.Errorf("%w: unknown directive //rt:%s", ErrDirective, name))
		}
	}

	return d, errs
}

func parseCfg(text string) (constraint.Expr, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("%w: //rt:cfg requires a build expression", ErrDirective)
	}
	expr, err := constraint.Parse("//go:build " + text)
	if err != nil {
		return nil, fmt.Errorf("%w: //rt:cfg %s: %v", ErrDirective, text, err)
	}
	return expr, nil
}

// checkAnnotation accepts documentation, lint control and the allowed code
// size pragmas.
func checkAnnotation(text string) error {
	switch {
	case slices.Contains(allowedPragmas, strings.TrimSpace(text)):
		return nil
	case strings.HasPrefix(text, "//nolint"), strings.HasPrefix(text, "//lint:"):
		return nil
	case toolDirective.MatchString(text):
		directive := strings.Fields(text)[0]
		return fmt.Errorf("%w: %s", ErrAnnotation, directive)
	}
	return nil
}

// enabled evaluates the //rt:cfg condition against the build tags.
func (d directives) enabled(tags []string) bool {
	if d.cfg == nil {
		return true
	}
	return d.cfg.Eval(func(tag string) bool {
		return slices.Contains(tags, tag)
	})
}
