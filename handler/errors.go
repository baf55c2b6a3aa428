package handler

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	ErrSignature         = errors.New("invalid handler signature")
	ErrUnsafeRequired    = errors.New("handler must be marked //rt:unsafe")
	ErrUnknownVector     = errors.New("unknown vector")
	ErrNoDevice          = errors.New("interrupt handlers require a device description")
	ErrAnnotation        = errors.New("annotation not allowed on a handler")
	ErrDirective         = errors.New("malformed directive")
	ErrReferenced        = errors.New("handler referenced by other code")
	ErrDuplicateStatic   = errors.New("duplicate static")
	ErrStaticInitializer = errors.New("static initializer is not constant")
	ErrPreInitStatic     = errors.New("pre-init code accesses a package-level variable")
	ErrLoad              = errors.New("failed to load package")
	ErrVerification      = errors.New("handler verification failed")
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one problem found while verifying handlers.
type Diagnostic struct {
	Pos      token.Position
	Severity Severity
	Err      error
	Message  string
}

func (d Diagnostic) Error() string {
	msg := d.Err.Error()
	if len(d.Message) > 0 {
		msg += ": " + d.Message
	}
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, msg)
	}
	return fmt.Sprintf("%s: %s", d.Severity, msg)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Diagnostics is the list of problems reported by a pass.
type Diagnostics []Diagnostic

// Err joins every error severity diagnostic. It returns nil when only
// warnings were reported.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrVerification}, errs...)...)
}

// Warnings returns the warning severity diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
