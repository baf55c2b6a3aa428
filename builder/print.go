package builder

import (
	"fmt"
	"io"
	"os"
)

func (b *builder) println(verbosity Verbosity, args ...any) {
	if b.options.Verbosity >= verbosity {
		fmt.Fprintln(b.stdout(), args...)
	}
}

func (b *builder) printf(verbosity Verbosity, format string, args ...any) {
	if b.options.Verbosity >= verbosity {
		fmt.Fprintf(b.stdout(), format, args...)
	}
}

func (b *builder) stdout() io.Writer {
	if b.options.Stdout != nil {
		return b.options.Stdout
	}
	return os.Stdout
}
