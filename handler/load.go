package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes |
	packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedModule

// Load parses and type checks the package holding the handlers.
func Load(ctx context.Context, cfg Config) (*packages.Package, error) {
	pattern := cfg.Pattern
	if len(pattern) == 0 {
		pattern = "."
	}

	loadConfig := packages.Config{
		Mode:    loadMode,
		Context: ctx,
		Dir:     cfg.Dir,
		Env:     cfg.Env,
		Tests:   false,
	}
	if len(cfg.Tags) > 0 {
		loadConfig.BuildFlags = []string{"-tags=" + strings.Join(cfg.Tags, ",")}
	}

	pkgs, err := packages.Load(&loadConfig, pattern)
	if err != nil {
		return nil, errors.Join(ErrLoad, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("%w: %s matched %d packages", ErrLoad, pattern, len(pkgs))
	}

	var errs []error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, pkgErr := range pkg.Errors {
			errs = append(errs, pkgErr)
		}
	})
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrLoad}, errs...)...)
	}

	return pkgs[0], nil
}
