package builder

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Env map[string]string

// Environment captures the variables the builder reads.
func Environment() Env {
	return map[string]string{
		"CMRT_TARGET": getenv("CMRT_TARGET", ""),
		"CMRT_DEVICE": getenv("CMRT_DEVICE", ""),
		"AS":          getenv("AS", ""),
		"OBJCOPY":     getenv("OBJCOPY", ""),
	}
}

func (e Env) Print(w io.Writer) {
	for _, k := range e.keys() {
		fmt.Fprintf(w, "set %s=%s\n", k, e[k])
	}
}

func (e Env) Value(key string) string {
	if v, ok := e[key]; ok {
		return v
	}
	return ""
}

func (e Env) List() []string {
	var result []string
	for _, key := range e.keys() {
		result = append(result, fmt.Sprintf("%s=%s", key, e[key]))
	}
	return result
}

func (e Env) keys() []string {
	keys := maps.Keys(e)
	slices.Sort(keys)
	return keys
}

func getenv(key, _default string) (value string) {
	value = os.Getenv(key)
	if len(value) == 0 {
		value = _default
	}
	return value
}
