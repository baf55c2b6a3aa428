package link

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/arch"
	"omibyte.io/cmrt/vector"
)

// Symbol is an observable symbol of a linked image.
type Symbol struct {
	Name    string
	Address uint64
	Size    uint64
	Section string
}

// Report is the result of auditing an image.
type Report struct {
	Symbols []Symbol

	// StackStart and Reset are the first two words of the vector table.
	StackStart uint32
	Reset      uint32

	// Interrupts is the number of interrupt slots present in the image.
	Interrupts int
}

// Expect bounds what Inspect accepts.
type Expect struct {
	// Interrupts is the largest acceptable number of interrupt slots.
	Interrupts int
}

// Inspect opens the image at path and audits its vector table.
func Inspect(path string, expect Expect) (*Report, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	report, err := InspectFile(f, expect)
	if err != nil {
		return report, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// InspectFile audits an already opened image.
func InspectFile(f *elf.File, expect Expect) (*Report, error) {
	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, err
	}

	report := &Report{}
	var errs []error
	found := map[string]Symbol{}
	for _, name := range vector.ObservableSymbols {
		i := slices.IndexFunc(syms, func(s elf.Symbol) bool { return s.Name == name })
		if i < 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSymbol, name))
			continue
		}
		sym := Symbol{Name: name, Address: syms[i].Value, Size: syms[i].Size}
		if int(syms[i].Section) < len(f.Sections) {
			sym.Section = f.Sections[syms[i].Section].Name
		}
		found[name] = sym
		report.Symbols = append(report.Symbols, sym)
	}
	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}

	table := found[vector.SymbolVectorTable].Address
	offsets := []struct {
		name   string
		offset uint64
	}{
		{vector.SymbolResetVector, 4},
		{vector.SymbolExceptions, 8},
		{vector.SymbolInterrupts, 4 * (2 + arch.CoreSlots)},
	}
	for _, o := range offsets {
		if addr := found[o.name].Address; addr != table+o.offset {
			errs = append(errs, fmt.Errorf("%w: %s at 0x%08X, expected 0x%08X", ErrLayout, o.name, addr, table+o.offset))
		}
	}
	if table%128 != 0 {
		errs = append(errs, fmt.Errorf("%w: %s at 0x%08X is not 128-byte aligned", ErrLayout, vector.SymbolVectorTable, table))
	}

	irqs := found[vector.SymbolInterrupts]
	report.Interrupts = int(irqs.Size / 4)
	if expect.Interrupts > 0 && report.Interrupts > expect.Interrupts {
		errs = append(errs, fmt.Errorf("%w: %d slots (%d bytes), expected at most %d (%d bytes)",
			ErrInterruptArray, report.Interrupts, irqs.Size, expect.Interrupts, expect.Interrupts*4))
	}

	if words, err := readWords(f, table, 2); err == nil {
		report.StackStart, report.Reset = words[0], words[1]
		if report.Reset&1 == 0 {
			errs = append(errs, fmt.Errorf("%w: reset vector 0x%08X lacks the thumb bit", ErrLayout, report.Reset))
		}
	} else {
		errs = append(errs, err)
	}

	return report, errors.Join(errs...)
}

// readWords reads little-endian words at a virtual address.
func readWords(f *elf.File, addr uint64, n int) ([]uint32, error) {
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || addr < s.Addr || addr+uint64(n*4) > s.Addr+s.Size {
			continue
		}
		buf := make([]byte, n*4)
		if _, err := s.ReadAt(buf, int64(addr-s.Addr)); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		words := make([]uint32, n)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
		return words, nil
	}
	return nil, fmt.Errorf("%w: no section holds 0x%08X", ErrLayout, addr)
}

// Print writes the report in a human readable form.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "initial SP  0x%08X\n", r.StackStart)
	fmt.Fprintf(w, "reset       0x%08X\n", r.Reset)
	fmt.Fprintf(w, "interrupts  %d\n\n", r.Interrupts)
	for _, s := range r.Symbols {
		fmt.Fprintf(w, "%-16s 0x%08X %6d  %s\n", s.Name, s.Address, s.Size, s.Section)
	}
}
