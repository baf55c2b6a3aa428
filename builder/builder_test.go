package builder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/boot"
	"omibyte.io/cmrt/handler"
	"omibyte.io/cmrt/targets"
)

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBuildDevice(t *testing.T) {
	out := t.TempDir()
	var stdout bytes.Buffer

	result, err := Build(context.Background(), Options{
		Package:   "testdata/app",
		Output:    out,
		Target:    "stm32f401re",
		Device:    "testdata/device.svd",
		Boot:      boot.Config{FPU: true, SetVTOR: true},
		Verbosity: Debug,
		Stdout:    &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		filepath.Join(SourceDir, "main.go"),
		filepath.Join(SourceDir, handler.GeneratedFile),
		VectorsFile, ResetFile, MemoryFile, LinkFile, DeviceFile,
	}
	for _, name := range expected {
		if !slices.Contains(result.Files, name) {
			t.Errorf("%s was not written: %v", name, result.Files)
		}
	}
	if len(result.Program.Handlers) != 3 {
		t.Errorf("expected 3 handlers, got %d", len(result.Program.Handlers))
	}

	checks := []struct {
		file string
		want string
	}{
		{VectorsFile, "    .long USART1 /* 53 */\n"},
		{VectorsFile, "    .long 0 /* 17: reserved */\n"},
		{ResetFile, "0x00F00000"},
		{ResetFile, "__vector_table"},
		{MemoryFile, "RAM : ORIGIN = 0x20000000, LENGTH = 96K"},
		{LinkFile, ".fast : ALIGN(4)"},
		{LinkFile, "KEEP(*(.text.__rt_USART1_trampoline .text.__rt_USART1_trampoline.*));"},
		{LinkFile, "INCLUDE device.x"},
		{DeviceFile, "PROVIDE(USART6 = DefaultHandler);"},
		{filepath.Join(SourceDir, handler.GeneratedFile), "//sigo:interrupt __rt_USART1_trampoline USART1"},
	}
	for _, c := range checks {
		if content := readOutput(t, out, c.file); !strings.Contains(content, c.want) {
			t.Errorf("%s does not contain %q", c.file, c.want)
		}
	}

	if !strings.Contains(stdout.String(), "device STM32F401: 7 interrupts") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestBuildAgnostic(t *testing.T) {
	out := t.TempDir()
	result, err := Build(context.Background(), Options{
		Package:   "testdata/minimal",
		Output:    out,
		Target:    "rp2040",
		Verbosity: Quiet,
		Stdout:    &bytes.Buffer{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if slices.Contains(result.Files, DeviceFile) {
		t.Error("device.x written without a device")
	}
	vectors := readOutput(t, out, VectorsFile)
	if n := strings.Count(vectors, "    .long DefaultHandler /*"); n != 26 {
		t.Errorf("expected 26 interrupt slots, got %d", n)
	}
	if strings.Contains(readOutput(t, out, LinkFile), "device.x") {
		t.Error("link.x includes device.x")
	}
}

func TestBuildErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "image")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		options Options
		err     error
	}{
		{"no target", Options{Package: "testdata/minimal", Output: t.TempDir()}, ErrNoTarget},
		{"unknown target", Options{Package: "testdata/minimal", Output: t.TempDir(), Target: "z80"}, targets.ErrNotFound},
		{"no fpu", Options{Package: "testdata/minimal", Output: t.TempDir(), Target: "rp2040", Boot: boot.Config{FPU: true}}, ErrNoFPU},
		{"output is a file", Options{Package: "testdata/minimal", Output: file, Target: "rp2040"}, ErrUnexpectedOutputPath},
		{"interrupt without device", Options{Package: "testdata/app", Output: t.TempDir(), Target: "stm32f401re"}, handler.ErrNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.options.Stdout = &bytes.Buffer{}
			if _, err := Build(context.Background(), tt.options); !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	result, err := Check(context.Background(), Options{
		Package: "testdata/app",
		Target:  "stm32f4",
		Device:  "testdata/device.svd",
		Stdout:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 0 {
		t.Error("check produced output files")
	}
}

func TestLayout(t *testing.T) {
	table, err := Layout(Options{Target: "stm32f401re", Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 16+86 {
		t.Errorf("expected %d slots, got %d", 16+86, table.Len())
	}

	table, err = Layout(Options{Target: "stm32f401re", Interrupts: 8, Stdout: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 24 {
		t.Errorf("expected 24 slots, got %d", table.Len())
	}
}

func TestProject(t *testing.T) {
	dir := t.TempDir()
	config := `target: stm32f4
device: svd/part.svd
tags: [board]
stack-start: 0x20010000
boot:
  set-sp: true
`
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	project, err := LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if project.Device != filepath.Join(dir, "svd/part.svd") {
		t.Errorf("device path not resolved: %s", project.Device)
	}

	env := Env{"CMRT_TARGET": "rp2040", "CMRT_DEVICE": "env.svd"}

	flags := Options{Target: "nrf52840"}
	if err := flags.Merge(project, env); err != nil {
		t.Fatal(err)
	}
	if flags.Target != "nrf52840" {
		t.Errorf("flag lost to %s", flags.Target)
	}
	if flags.Device != project.Device {
		t.Errorf("file did not fill the device: %s", flags.Device)
	}
	if flags.StackStart != 0x20010000 || !flags.Boot.SetSP || !slices.Contains(flags.BuildTags, "board") {
		t.Errorf("file settings not merged: %+v", flags)
	}
	if flags.Output != "build" || flags.Package != "." {
		t.Errorf("defaults not applied: %+v", flags)
	}

	var bare Options
	if err := bare.Merge(nil, env); err != nil {
		t.Fatal(err)
	}
	if bare.Target != "rp2040" || bare.Device != "env.svd" {
		t.Errorf("environment not applied: %+v", bare)
	}
}

func TestProjectErrors(t *testing.T) {
	project, err := LoadProject(t.TempDir())
	if project != nil || err != nil {
		t.Errorf("missing file: %v, %v", project, err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("target: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(dir); !errors.Is(err, ErrProjectConfig) {
		t.Errorf("expected %v, got %v", ErrProjectConfig, err)
	}

	o := Options{}
	if err := o.Merge(&Project{StackStart: "top"}, nil); !errors.Is(err, ErrProjectConfig) {
		t.Errorf("expected %v, got %v", ErrProjectConfig, err)
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in   string
		want Verbosity
		ok   bool
	}{
		{"", Info, true},
		{"quiet", Quiet, true},
		{"Warning", Warning, true},
		{"debug", Debug, true},
		{"loud", Quiet, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVerbosity(tt.in)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("ParseVerbosity(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	env := Env{"OBJCOPY": "objcopy", "AS": "as"}
	if list := env.List(); !slices.Equal(list, []string{"AS=as", "OBJCOPY=objcopy"}) {
		t.Errorf("unexpected list %v", list)
	}

	var out bytes.Buffer
	env.Print(&out)
	if out.String() != "set AS=as\nset OBJCOPY=objcopy\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestAssembleArgs(t *testing.T) {
	target, err := targets.All().Find("stm32f401re")
	if err != nil {
		t.Fatal(err)
	}

	gas := Toolchain{AS: "/usr/bin/arm-none-eabi-as"}
	args := gas.assembleArgs(target, "vectors.s", "vectors.o")
	if !slices.Equal(args, []string{"-mcpu=cortex-m4", "-mthumb", "-o", "vectors.o", "vectors.s"}) {
		t.Errorf("unexpected gas arguments %v", args)
	}

	clang := Toolchain{AS: "/usr/bin/clang", clang: true}
	args = clang.assembleArgs(target, "vectors.s", "vectors.o")
	if !slices.Contains(args, "--target=thumbv7em-none-eabihf") || !slices.Contains(args, "-c") {
		t.Errorf("unexpected clang arguments %v", args)
	}

	if err := (Toolchain{}).Binary(context.Background(), "a.elf", "a.bin"); !errors.Is(err, ErrToolchain) {
		t.Errorf("expected %v, got %v", ErrToolchain, err)
	}
}
