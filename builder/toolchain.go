package builder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"omibyte.io/cmrt/targets"
)

type Toolchain struct {
	AS      string
	ObjCopy string

	// clang is set when AS is a clang driver rather than GNU as.
	clang bool
}

func FindToolchain(env Env) (Toolchain, error) {
	as := env.Value("AS")
	if len(as) == 0 {
		var err error
		if as, err = findExecutable("arm-none-eabi-as"); err != nil {
			// Fallback to clang.
			as, err = findExecutable("clang")
		}

		if err != nil {
			return Toolchain{}, errors.Join(ErrToolchain, err)
		}
	}

	// objcopy is optional. It is only needed to produce raw images.
	objcopy := env.Value("OBJCOPY")
	if len(objcopy) == 0 {
		if path, err := findExecutable("arm-none-eabi-objcopy"); err == nil {
			objcopy = path
		} else if path, err := findExecutable("llvm-objcopy"); err == nil {
			objcopy = path
		}
	}

	return Toolchain{
		AS:      as,
		ObjCopy: objcopy,
		clang:   strings.Contains(filepath.Base(as), "clang"),
	}, nil
}

// assembleArgs returns the arguments assembling src into out for target.
func (t Toolchain) assembleArgs(target targets.TargetInfo, src, out string) []string {
	if t.clang {
		return []string{
			fmt.Sprintf("--target=%s", target.Triple),
			fmt.Sprintf("-mcpu=%s", target.Cpu),
			"-o", out,
			"-c", src,
		}
	}
	return []string{
		fmt.Sprintf("-mcpu=%s", target.Cpu),
		"-mthumb",
		"-o", out,
		src,
	}
}

// Assemble assembles each source file next to itself and returns the object
// files.
func (t Toolchain) Assemble(ctx context.Context, target targets.TargetInfo, sources []string) (objects []string, err error) {
	for _, src := range sources {
		out := strings.TrimSuffix(src, filepath.Ext(src)) + ".o"
		cmd := exec.CommandContext(ctx, t.AS, t.assembleArgs(target, src, out)...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v\n%s", ErrAssembler, filepath.Base(src), err, output)
		}
		objects = append(objects, out)
	}
	return objects, nil
}

// Binary converts a linked image into a raw flashable binary.
func (t Toolchain) Binary(ctx context.Context, image, out string) error {
	if len(t.ObjCopy) == 0 {
		return fmt.Errorf("%w: objcopy", ErrToolchain)
	}
	cmd := exec.CommandContext(ctx, t.ObjCopy, "-O", "binary", image, out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %v\n%s", filepath.Base(t.ObjCopy), err, output)
	}
	return nil
}

func findExecutable(cmd string) (string, error) {
	fname, err := exec.LookPath(cmd)
	if err == nil {
		fname, err = filepath.Abs(fname)
	}
	return fname, err
}
