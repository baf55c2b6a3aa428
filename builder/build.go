package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/arch"
	"omibyte.io/cmrt/boot"
	"omibyte.io/cmrt/device"
	"omibyte.io/cmrt/handler"
	"omibyte.io/cmrt/link"
	"omibyte.io/cmrt/targets"
	"omibyte.io/cmrt/vector"
)

// Output file names.
const (
	VectorsFile = "vectors.s"
	ResetFile   = "reset.s"
	MemoryFile  = "memory.x"
	LinkFile    = "link.x"
	DeviceFile  = "device.x"
	SourceDir   = "src"
)

type Result struct {
	Target  targets.TargetInfo
	Device  *device.Device
	Table   *vector.Table
	Program *handler.Result

	// Files are the paths written, relative to the output directory.
	Files   []string
	Objects []string
}

type output struct {
	name string
	emit func(w io.Writer) error
}

type builder struct {
	options Options
	target  targets.TargetInfo
	tier    arch.Tier
	device  *device.Device
}

func newBuilder(options Options) (*builder, error) {
	b := &builder{options: options}
	if len(options.Target) == 0 {
		return nil, ErrNoTarget
	}

	var err error
	if b.target, err = targets.All().Find(options.Target); err != nil {
		return nil, err
	}
	if b.tier, err = b.target.Tier(); err != nil {
		return nil, err
	}
	b.printf(Info, "target %s (%s, %s)\n", b.target.Series, b.target.Cpu, b.tier)

	if len(options.Device) > 0 {
		if b.device, err = device.Load(options.Device); err != nil {
			return nil, err
		}
		b.printf(Info, "device %s: %d interrupts\n", b.device.Name, len(b.device.Interrupts))
	}

	if options.Boot.FPU && !b.hasFPU() {
		return nil, fmt.Errorf("%w: %s", ErrNoFPU, b.target.Series)
	}
	return b, nil
}

func (b *builder) hasFPU() bool {
	if b.device != nil {
		return b.device.FPU && b.tier.HasFPUOption()
	}
	return b.target.FPU
}

func (b *builder) handlerConfig() handler.Config {
	cfg := handler.Config{
		Dir:  b.options.Package,
		Tier: b.tier,
		Tags: append(b.target.BuildTags(), b.options.BuildTags...),
		Lint: b.options.Lint,
	}
	if b.device != nil {
		cfg.Interrupts = b.device.Names()
	}
	return cfg
}

func (b *builder) table() (*vector.Table, error) {
	cfg := vector.Config{Tier: b.tier, Mode: vector.DeviceAgnostic}
	if b.device != nil {
		cfg.Mode = vector.DeviceProvided
		cfg.Interrupts = b.device.Interrupts
	} else {
		cfg.Count = b.options.Interrupts
		if cfg.Count == 0 {
			cfg.Count = b.target.Interrupts
		}
	}

	table, err := vector.NewTable(cfg)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (b *builder) memory() (link.Memory, error) {
	flash, err := b.target.Region("FLASH")
	if err != nil {
		return link.Memory{}, err
	}
	ram, err := b.target.Region("RAM")
	if err != nil {
		return link.Memory{}, err
	}
	m := link.Memory{Flash: flash, RAM: ram, StackStart: b.options.StackStart}
	if err := m.Validate(); err != nil {
		return link.Memory{}, err
	}

	// The data regions are only known after linking. The link script
	// asserts their alignment.
	layout := boot.Layout{StackStart: m.StackTop(), VectorTable: flash.Origin}
	if err := layout.Validate(); err != nil {
		return link.Memory{}, err
	}
	return m, nil
}

func (b *builder) report(diags handler.Diagnostics) {
	for _, d := range diags {
		if d.Severity == handler.Warning {
			b.println(Warning, d.Error())
		}
	}
}

// Check verifies the handlers of the package without writing anything.
func Check(ctx context.Context, options Options) (*handler.Result, error) {
	b, err := newBuilder(options)
	if err != nil {
		return nil, err
	}
	result, err := handler.Check(ctx, b.handlerConfig())
	if result != nil {
		b.report(result.Diagnostics)
	}
	return result, err
}

// Build verifies and transforms the package, then writes the runtime
// assembly and the linker scripts into the output directory.
func Build(ctx context.Context, options Options) (*Result, error) {
	if info, err := os.Stat(options.Output); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnexpectedOutputPath, options.Output)
	}

	b, err := newBuilder(options)
	if err != nil {
		return nil, err
	}

	table, err := b.table()
	if err != nil {
		return nil, err
	}
	mem, err := b.memory()
	if err != nil {
		return nil, err
	}

	program, err := handler.Run(ctx, b.handlerConfig())
	if program != nil {
		b.report(program.Diagnostics)
	}
	if err != nil {
		return nil, err
	}
	for _, h := range program.Handlers {
		b.printf(Debug, "%-16s %-16s -> %s\n", h.Kind, h.Name, h.Symbol())
	}

	result := &Result{
		Target:  b.target,
		Device:  b.device,
		Table:   table,
		Program: program,
	}

	write := func(name string, emit func(w io.Writer) error) error {
		path := filepath.Join(options.Output, name)
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := emit(f); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		b.printf(Debug, "wrote %s\n", path)
		result.Files = append(result.Files, name)
		return nil
	}

	names := maps.Keys(program.Files)
	slices.Sort(names)
	for _, name := range names {
		src := program.Files[name]
		if err := write(filepath.Join(SourceDir, name), func(w io.Writer) error {
			_, err := w.Write(src)
			return err
		}); err != nil {
			return nil, err
		}
	}

	steps := []output{
		{VectorsFile, func(w io.Writer) error { return vector.WriteAssembly(w, table, program.Registry) }},
		{ResetFile, func(w io.Writer) error { return boot.WriteAssembly(w, b.tier, options.Boot) }},
		{MemoryFile, func(w io.Writer) error { return link.WriteMemory(w, mem) }},
		{LinkFile, func(w io.Writer) error {
			return link.WriteLinkScript(w, link.Script{Table: table, Placements: placements(program.Handlers)})
		}},
	}
	if table.Mode() == vector.DeviceProvided {
		steps = append(steps, output{DeviceFile, func(w io.Writer) error { return link.WriteDeviceScript(w, table) }})
	}
	for _, step := range steps {
		if err := write(step.name, step.emit); err != nil {
			return nil, err
		}
	}

	if options.Assemble {
		toolchain, err := FindToolchain(options.Environment)
		if err != nil {
			return nil, err
		}
		sources := []string{filepath.Join(options.Output, VectorsFile), filepath.Join(options.Output, ResetFile)}
		if result.Objects, err = toolchain.Assemble(ctx, b.target, sources); err != nil {
			return nil, err
		}
	}

	b.printf(Info, "%d handlers, %d vector slots (%d bytes)\n", len(program.Handlers), table.Len(), table.SizeBytes())
	return result, nil
}

// placements groups the handlers requesting an output section.
func placements(handlers []*handler.Handler) []link.Placement {
	var out []link.Placement
	for _, h := range handlers {
		if len(h.Section) == 0 {
			continue
		}
		out = append(out, link.Placement{Section: h.Section, Symbols: []string{h.Wrapper(), h.Impl()}})
	}
	return out
}

// Layout returns the vector table a target would get without a program.
func Layout(options Options) (*vector.Table, error) {
	b, err := newBuilder(options)
	if err != nil {
		return nil, err
	}
	return b.table()
}

// IsVerificationError reports whether err comes from the handler checks
// rather than from the environment.
func IsVerificationError(err error) bool {
	return errors.Is(err, handler.ErrVerification)
}
