// Package device reads the interrupt lines and core options of a part from
// its CMSIS-SVD description.
package device

import (
	"encoding/xml"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slices"

	"omibyte.io/cmrt/vector"
)

type Device struct {
	Name   string
	Vendor string
	Series string

	// CPU is the core name as spelled in the description, e.g. "CM4".
	CPU          string
	FPU          bool
	MPU          bool
	PriorityBits int

	// Interrupts are sorted by value with one entry per value.
	Interrupts []vector.Interrupt
}

// Load reads the description at path.
func Load(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dev, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dev, nil
}

// Parse decodes a description.
func Parse(r io.Reader) (*Device, error) {
	var elem deviceElement
	if err := xml.NewDecoder(r).Decode(&elem); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	dev := &Device{
		Name:         elem.Name,
		Vendor:       elem.Vendor,
		Series:       elem.Series,
		CPU:          elem.CPU.Name,
		FPU:          bool(elem.CPU.FPUPresent),
		MPU:          bool(elem.CPU.MPUPresent),
		PriorityBits: int(elem.CPU.NVICPriorityBits),
	}

	interrupts, err := collectInterrupts(elem.Peripherals)
	if err != nil {
		return nil, err
	}
	dev.Interrupts = interrupts
	return dev, nil
}

// collectInterrupts gathers the interrupt lines of every peripheral. Lines
// shared between peripherals are listed by each of them, so only the first
// declaration of a value is kept.
func collectInterrupts(peripherals peripheralsElement) ([]vector.Interrupt, error) {
	var out []vector.Interrupt
	var errs []error
	for _, p := range peripherals.Elements {
		if len(p.DerivedFrom) > 0 {
			if _, ok := peripherals.find(p.DerivedFrom); !ok {
				errs = append(errs, fmt.Errorf("%w: %s derives from %s", ErrUnknownParent, p.Name, p.DerivedFrom))
				continue
			}
		}

		for _, irq := range p.Interrupts {
			switch {
			case irq.Value < 0:
				errs = append(errs, fmt.Errorf("%w: %s = %d", ErrInterruptValue, irq.Name, irq.Value))
				continue
			case !token.IsIdentifier(irq.Name):
				errs = append(errs, fmt.Errorf("%w: %q", ErrInterruptName, irq.Name))
				continue
			}
			out = append(out, vector.Interrupt{
				Name:        irq.Name,
				Value:       int(irq.Value),
				Description: strings.Join(strings.Fields(irq.Description), " "),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slices.SortStableFunc(out, func(a, b vector.Interrupt) bool {
		return a.Value < b.Value
	})
	out = slices.CompactFunc(out, func(a, b vector.Interrupt) bool {
		return a.Value == b.Value
	})
	return out, nil
}

// Names returns the interrupt names in value order.
func (d *Device) Names() []string {
	names := make([]string, len(d.Interrupts))
	for i, irq := range d.Interrupts {
		names[i] = irq.Name
	}
	return names
}

// Count returns the number of vector slots needed to reach the highest
// interrupt value.
func (d *Device) Count() int {
	if len(d.Interrupts) == 0 {
		return 0
	}
	return d.Interrupts[len(d.Interrupts)-1].Value + 1
}

// Lookup returns the interrupt called name.
func (d *Device) Lookup(name string) (vector.Interrupt, bool) {
	i := slices.IndexFunc(d.Interrupts, func(irq vector.Interrupt) bool {
		return irq.Name == name
	})
	if i < 0 {
		return vector.Interrupt{}, false
	}
	return d.Interrupts[i], true
}
